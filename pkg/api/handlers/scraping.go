package handlers

import (
	"context"
	"errors"
	"net/http"

	"scout-sync-go/pkg/jobs"
	"scout-sync-go/pkg/models"

	"github.com/gin-gonic/gin"
)

// TaskRunner starts and tracks background scraping tasks
type TaskRunner interface {
	Start(ctx context.Context, kind models.JobKind) (*models.ScrapingTask, error)
	Get(ctx context.Context, taskID string) (*models.ScrapingTask, error)
	Cancel(ctx context.Context, taskID string) error
}

// StartScraping starts a task of the given kind and returns its id
func StartScraping(runner TaskRunner, kind models.JobKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		task, err := runner.Start(c.Request.Context(), kind)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, models.StartTaskResponse{TaskID: task.TaskID})
	}
}

// GetTaskStatus returns the status record of a task
func GetTaskStatus(runner TaskRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		task, err := runner.Get(c.Request.Context(), c.Param("id"))
		if errors.Is(err, jobs.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Task not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

// CancelTask cancels a pending or running task
func CancelTask(runner TaskRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID := c.Param("id")
		err := runner.Cancel(c.Request.Context(), taskID)
		switch {
		case errors.Is(err, jobs.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"detail": "Task not found"})
		case errors.Is(err, jobs.ErrTaskTerminal):
			c.JSON(http.StatusConflict, gin.H{"detail": "Task already finished"})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		default:
			c.JSON(http.StatusOK, gin.H{"message": "Task cancelled", "task_id": taskID})
		}
	}
}
