package handlers

import (
	"context"
	"net/http"
	"strconv"

	"scout-sync-go/pkg/models"

	"github.com/gin-gonic/gin"
)

// SyncRunner runs spreadsheet imports and exports
type SyncRunner interface {
	Import(ctx context.Context) (*models.SyncResult, error)
	Export(ctx context.Context) (*models.SyncResult, error)
	History(ctx context.Context, limit int) ([]models.SyncRecord, error)
}

// SyncGoogleSheets imports players from the spreadsheet. A failed import is
// still a 200 with success=false.
func SyncGoogleSheets(runner SyncRunner) gin.HandlerFunc {
	return runSync(runner.Import)
}

// ExportToSheets exports players to the spreadsheet target
func ExportToSheets(runner SyncRunner) gin.HandlerFunc {
	return runSync(runner.Export)
}

func runSync(fn func(context.Context) (*models.SyncResult, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := fn(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// SyncHistory lists recent sync runs, newest first
func SyncHistory(runner SyncRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 10
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > 100 {
				c.JSON(http.StatusBadRequest, gin.H{"detail": "limit must be between 1 and 100"})
				return
			}
			limit = n
		}

		records, err := runner.History(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, records)
	}
}
