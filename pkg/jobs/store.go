package jobs

import (
	"context"
	"errors"
	"sync"

	"scout-sync-go/pkg/models"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrTaskTerminal = errors.New("task already finished")
)

// Store persists task status records. Implementations store copies: callers
// may keep mutating the value they passed in.
type Store interface {
	Save(ctx context.Context, task *models.ScrapingTask) error
	Get(ctx context.Context, taskID string) (*models.ScrapingTask, error)
}

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*models.ScrapingTask
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks: make(map[string]*models.ScrapingTask),
	}
}

func (s *MemoryStore) Save(_ context.Context, task *models.ScrapingTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.TaskID] = cloneTask(task)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, taskID string) (*models.ScrapingTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return nil, ErrTaskNotFound
	}
	return cloneTask(task), nil
}

func cloneTask(t *models.ScrapingTask) *models.ScrapingTask {
	c := *t
	if t.CurrentStep != nil {
		v := *t.CurrentStep
		c.CurrentStep = &v
	}
	if t.TotalItems != nil {
		v := *t.TotalItems
		c.TotalItems = &v
	}
	if t.ProcessedItems != nil {
		v := *t.ProcessedItems
		c.ProcessedItems = &v
	}
	if t.StartedAt != nil {
		v := *t.StartedAt
		c.StartedAt = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		c.CompletedAt = &v
	}
	c.Errors = append([]string(nil), t.Errors...)
	return &c
}
