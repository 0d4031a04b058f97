package models

import "time"

// TaskStatus is the lifecycle state of a scraping task as reported by the job server
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are expected for the task.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskCompleted, TaskFailed, TaskCancelled:
		return true
	}
	return false
}

// JobKind selects which scraping job the server runs
type JobKind string

const (
	JobPhotos JobKind = "photo"
	JobData   JobKind = "data"
)

// Valid reports whether k is a known job kind.
func (k JobKind) Valid() bool {
	return k == JobPhotos || k == JobData
}

// ScrapingTask is the status record of one server-side scraping run.
type ScrapingTask struct {
	TaskID         string     `json:"task_id"`
	Kind           JobKind    `json:"kind,omitempty"`
	Status         TaskStatus `json:"status"`
	Progress       int        `json:"progress"`
	CurrentStep    *string    `json:"current_step,omitempty"`
	TotalItems     *int       `json:"total_items,omitempty"`
	ProcessedItems *int       `json:"processed_items,omitempty"`
	Errors         []string   `json:"errors,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// StartTaskResponse is returned by the start endpoints
type StartTaskResponse struct {
	TaskID string `json:"task_id"`
}
