package tasks

import (
	"context"
	"fmt"

	"scout-sync-go/pkg/cli/client"
	"scout-sync-go/pkg/models"

	"go.uber.org/zap"
)

// StartPhotoScraping starts a Transfermarkt photo scraping job and tracks it.
func (c *Controller) StartPhotoScraping(ctx context.Context) (string, error) {
	return c.start(ctx, models.JobPhotos, "Photo scraping started")
}

// StartDataScraping starts a player data scraping job and tracks it.
func (c *Controller) StartDataScraping(ctx context.Context) (string, error) {
	return c.start(ctx, models.JobData, "Data scraping started")
}

// start runs one start action. On success the new task replaces whatever
// was tracked before; on failure the state is left as it was. The error is
// also surfaced as a notification, so callers may ignore it.
func (c *Controller) start(ctx context.Context, kind models.JobKind, title string) (string, error) {
	c.mu.Lock()
	if c.starting {
		c.mu.Unlock()
		return "", ErrActionInFlight
	}
	c.starting = true
	c.publishLocked()
	c.mu.Unlock()

	taskID, err := c.client.StartJob(ctx, kind)

	c.mu.Lock()
	c.starting = false
	if err != nil {
		c.publishLocked()
		c.mu.Unlock()

		c.log.Error("failed to start scraping", zap.String("kind", string(kind)), zap.Error(err))
		c.notifier.Notify(Notification{
			Level:       LevelError,
			Title:       "Failed to start scraping",
			Description: client.UserMessage(err),
		})
		return "", err
	}

	if c.taskID != "" && !c.terminal {
		c.log.Info("replacing tracked task", zap.String("previous", c.taskID), zap.String("task_id", taskID))
	}
	c.trackLocked(taskID)
	kick := func() {}
	if c.autoStart && !c.closed {
		kick = c.armLocked()
	}
	c.publishLocked()
	c.mu.Unlock()

	c.log.Info("scraping started", zap.String("kind", string(kind)), zap.String("task_id", taskID))
	c.notifier.Notify(Notification{
		Level:       LevelInfo,
		Title:       title,
		Description: fmt.Sprintf("Task ID: %s", taskID),
		TaskID:      taskID,
	})
	kick()

	return taskID, nil
}

// Cancel stops watching the tracked task and asks the server to cancel it.
// Local state is cleared before the request is sent and stays cleared even
// if the server rejects the cancel. Without a tracked task it does nothing.
func (c *Controller) Cancel(ctx context.Context) error {
	c.mu.Lock()
	taskID := c.taskID
	if taskID == "" {
		c.mu.Unlock()
		return nil
	}
	c.disarmLocked()
	c.taskID = ""
	c.task = nil
	c.terminal = false
	c.cancelling = true
	c.publishLocked()
	c.mu.Unlock()

	c.log.Info("scraping cancelled", zap.String("task_id", taskID))
	c.notifier.Notify(Notification{
		Level:  LevelWarning,
		Title:  "Scraping cancelled",
		TaskID: taskID,
	})

	err := c.client.Cancel(ctx, taskID)

	c.mu.Lock()
	c.cancelling = false
	c.publishLocked()
	c.mu.Unlock()

	if err != nil {
		c.log.Error("server rejected cancel", zap.String("task_id", taskID), zap.Error(err))
		c.notifier.Notify(Notification{
			Level:       LevelError,
			Title:       "Failed to cancel scraping",
			Description: client.UserMessage(err),
			TaskID:      taskID,
		})
		return err
	}
	return nil
}

// SyncGoogleSheets imports players from the spreadsheet.
func (c *Controller) SyncGoogleSheets(ctx context.Context) (*models.SyncResult, error) {
	return c.sync(ctx, c.client.SyncGoogleSheets, "Sync completed", "Sync failed")
}

// ExportToSheets exports players to the spreadsheet target.
func (c *Controller) ExportToSheets(ctx context.Context) (*models.SyncResult, error) {
	return c.sync(ctx, c.client.ExportToSheets, "Export completed", "Export failed")
}

// sync is single-flight across import and export.
func (c *Controller) sync(
	ctx context.Context,
	call func(context.Context) (*models.SyncResult, error),
	okTitle, failTitle string,
) (*models.SyncResult, error) {
	c.mu.Lock()
	if c.syncing {
		c.mu.Unlock()
		return nil, ErrActionInFlight
	}
	c.syncing = true
	c.publishLocked()
	c.mu.Unlock()

	result, err := call(ctx)

	c.mu.Lock()
	c.syncing = false
	if err == nil {
		c.lastSync = result
	}
	c.publishLocked()
	c.mu.Unlock()

	if err != nil {
		c.log.Error("sync request failed", zap.Error(err))
		c.notifier.Notify(Notification{
			Level:       LevelError,
			Title:       failTitle,
			Description: client.UserMessage(err),
		})
		return nil, err
	}

	if !result.Success {
		c.log.Warn("sync reported failure", zap.String("message", result.Message))
		c.notifier.Notify(Notification{
			Level:       LevelError,
			Title:       failTitle,
			Description: result.Message,
		})
		return result, nil
	}

	c.notifier.Notify(Notification{
		Level: LevelSuccess,
		Title: okTitle,
		Description: fmt.Sprintf("%d created, %d updated",
			models.IntValue(result.RecordsCreated),
			models.IntValue(result.RecordsUpdated),
		),
	})
	return result, nil
}
