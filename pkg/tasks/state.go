package tasks

import "scout-sync-go/pkg/models"

// State is an immutable snapshot of the controller. Task and LastSync are
// shared with the controller and must not be modified.
type State struct {
	TaskID string
	Task   *models.ScrapingTask

	IsPolling    bool
	IsStarting   bool
	IsCancelling bool
	IsSyncing    bool

	LastSync *models.SyncResult
}

func (s State) status() models.TaskStatus {
	if s.Task == nil {
		return ""
	}
	return s.Task.Status
}

// IsRunning is true while the server reports pending or running.
func (s State) IsRunning() bool {
	st := s.status()
	return st == models.TaskPending || st == models.TaskRunning
}

func (s State) IsCompleted() bool { return s.status() == models.TaskCompleted }

func (s State) IsFailed() bool { return s.status() == models.TaskFailed }

// IsCancelled is true when the server reports the task was cancelled, for
// example by another client.
func (s State) IsCancelled() bool { return s.status() == models.TaskCancelled }

// Progress is the last reported percentage, 0 without a task.
func (s State) Progress() int {
	if s.Task == nil {
		return 0
	}
	return s.Task.Progress
}

// CanStart gates start controls: disabled while a start is in flight or a task is being watched.
func (s State) CanStart() bool {
	return !s.IsStarting && !s.IsPolling && !s.IsRunning()
}
