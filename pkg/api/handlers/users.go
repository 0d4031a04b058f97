package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"scout-sync-go/pkg/models"

	"github.com/gin-gonic/gin"
)

// UserCreator registers new API users
type UserCreator interface {
	CreateUser(ctx context.Context, email, apiKey string) (*models.User, error)
}

func CreateUser(users UserCreator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required,email"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}

		apiKey, err := generateAPIKey()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to generate API key"})
			return
		}

		user, err := users.CreateUser(c.Request.Context(), req.Email, apiKey)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, user)
	}
}

func GetCurrentUser(c *gin.Context) {
	user, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// generateAPIKey generates a random 32-byte hex string
func generateAPIKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
