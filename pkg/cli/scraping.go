package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scout-sync-go/pkg/models"
	"scout-sync-go/pkg/tasks"
)

// errTaskFailed is returned by RunScraping when the task ends as failed.
var errTaskFailed = errors.New("scraping task failed")

// errTaskCancelled is returned when the server reports the task as cancelled
// by someone else while it was being watched.
var errTaskCancelled = errors.New("scraping task cancelled")

// RunScraping starts a job and prints its progress until it finishes. When
// ctx is cancelled (Ctrl+C) the task is cancelled on the server.
func (a *App) RunScraping(ctx context.Context, kind models.JobKind) error {
	api, err := a.getClient()
	if err != nil {
		return err
	}
	return a.watch(ctx, a.newController(api, a.printNotifier()), kind)
}

func (a *App) watch(ctx context.Context, ctrl *tasks.Controller, kind models.JobKind) error {
	defer ctrl.Close()

	states, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	var (
		taskID string
		err    error
	)
	switch kind {
	case models.JobPhotos:
		taskID, err = ctrl.StartPhotoScraping(ctx)
	case models.JobData:
		taskID, err = ctrl.StartDataScraping(ctx)
	default:
		return fmt.Errorf("unknown job kind: %q", kind)
	}
	if err != nil {
		// Already reported through the notifier.
		return err
	}

	if !a.cfg.AutoStart() {
		fmt.Fprintf(a.out, "Polling is disabled; check progress with --status %s\n", taskID)
		return nil
	}

	var last string
	for {
		select {
		case <-ctx.Done():
			cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return ctrl.Cancel(cctx)

		case s, ok := <-states:
			if !ok {
				return nil
			}
			if s.TaskID != taskID || s.Task == nil {
				continue
			}
			if line := FormatProgressLine(s.Task); line != last {
				fmt.Fprintln(a.out, line)
				last = line
			}
			switch {
			case s.IsCompleted():
				return nil
			case s.IsFailed():
				return errTaskFailed
			case s.IsCancelled():
				return errTaskCancelled
			}
		}
	}
}

// ShowStatus prints the current status of a task once
func (a *App) ShowStatus(ctx context.Context, taskID string) error {
	api, err := a.getClient()
	if err != nil {
		return err
	}
	task, err := api.GetStatus(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	fmt.Fprint(a.out, FormatTaskDetails(task))
	return nil
}

// CancelTask asks the server to cancel a task by id
func (a *App) CancelTask(ctx context.Context, taskID string) error {
	api, err := a.getClient()
	if err != nil {
		return err
	}
	if err := api.Cancel(ctx, taskID); err != nil {
		return fmt.Errorf("failed to cancel task: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Cancel requested for task %s\n", taskID)
	return nil
}

// printNotifier writes controller notifications as single lines
func (a *App) printNotifier() tasks.Notifier {
	return tasks.NotifierFunc(func(n tasks.Notification) {
		fmt.Fprintln(a.out, FormatNotification(n))
	})
}
