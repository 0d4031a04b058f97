package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"scout-sync-go/pkg/metrics"
	"scout-sync-go/pkg/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobFunc performs one scraping run, reporting progress through r. Returning
// an error fails the task; per-item problems go through r.AddError instead.
type JobFunc func(ctx context.Context, r *Reporter) error

// Manager starts jobs in the background and tracks their status records.
type Manager struct {
	store Store
	log   *zap.Logger
	jobs  map[models.JobKind]JobFunc
	now   func() time.Time

	mu      sync.Mutex
	running map[string]*entry
	wg      sync.WaitGroup
}

// entry guards the live record of one running task.
type entry struct {
	mu     sync.Mutex
	task   *models.ScrapingTask
	cancel context.CancelFunc
}

func NewManager(store Store, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		store:   store,
		log:     log,
		jobs:    make(map[models.JobKind]JobFunc),
		now:     time.Now,
		running: make(map[string]*entry),
	}
}

// Register installs the job for kind.
func (m *Manager) Register(kind models.JobKind, fn JobFunc) {
	m.jobs[kind] = fn
}

// Start records a pending task and runs its job in a new goroutine.
func (m *Manager) Start(ctx context.Context, kind models.JobKind) (*models.ScrapingTask, error) {
	fn, ok := m.jobs[kind]
	if !ok {
		return nil, fmt.Errorf("no job registered for kind %q", kind)
	}

	started := m.now().UTC()
	task := &models.ScrapingTask{
		TaskID:    uuid.New().String(),
		Kind:      kind,
		Status:    models.TaskPending,
		StartedAt: &started,
	}
	if err := m.store.Save(ctx, task); err != nil {
		return nil, err
	}

	// The job outlives the request that started it.
	jobCtx, cancel := context.WithCancel(context.Background())
	e := &entry{task: cloneTask(task), cancel: cancel}

	m.mu.Lock()
	m.running[task.TaskID] = e
	m.mu.Unlock()

	metrics.TasksStarted.WithLabelValues(string(kind)).Inc()
	metrics.TasksRunning.Inc()
	m.log.Info("task started", zap.String("task_id", task.TaskID), zap.String("kind", string(kind)))

	m.wg.Add(1)
	go m.run(jobCtx, e, fn)

	return task, nil
}

func (m *Manager) run(ctx context.Context, e *entry, fn JobFunc) {
	defer m.wg.Done()
	defer e.cancel()

	r := &Reporter{m: m, e: e}
	r.update(func(t *models.ScrapingTask) {
		t.Status = models.TaskRunning
	})

	err := fn(ctx, r)

	e.mu.Lock()
	if !e.task.Status.IsTerminal() && !m.finishedElsewhereLocked(e) {
		task := e.task
		now := m.now().UTC()
		task.CompletedAt = &now
		if err != nil {
			task.Status = models.TaskFailed
			task.Errors = append(task.Errors, err.Error())
		} else {
			task.Status = models.TaskCompleted
			task.Progress = 100
		}
		m.save(task)
	}
	task := e.task
	status := task.Status
	kind := task.Kind
	elapsed := m.now().Sub(*task.StartedAt)
	taskID := task.TaskID
	e.mu.Unlock()

	m.mu.Lock()
	delete(m.running, taskID)
	m.mu.Unlock()

	metrics.TasksRunning.Dec()
	metrics.TasksFinished.WithLabelValues(string(kind), string(status)).Inc()
	metrics.TaskDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())

	if err != nil && status == models.TaskFailed {
		m.log.Error("task failed", zap.String("task_id", taskID), zap.Error(err))
		return
	}
	m.log.Info("task finished", zap.String("task_id", taskID), zap.String("status", string(status)))
}

// save writes a status snapshot. The caller holds the entry lock.
func (m *Manager) save(task *models.ScrapingTask) {
	if err := m.store.Save(context.Background(), task); err != nil {
		m.log.Warn("failed to persist task status", zap.String("task_id", task.TaskID), zap.Error(err))
	}
}

// Get returns the stored status of a task.
func (m *Manager) Get(ctx context.Context, taskID string) (*models.ScrapingTask, error) {
	return m.store.Get(ctx, taskID)
}

// Cancel marks a task cancelled and stops its job at the next checkpoint.
// Tasks that already finished return ErrTaskTerminal.
func (m *Manager) Cancel(ctx context.Context, taskID string) error {
	m.mu.Lock()
	e, ok := m.running[taskID]
	m.mu.Unlock()

	if !ok {
		// Not running here: may be finished, or owned by another replica.
		task, err := m.store.Get(ctx, taskID)
		if err != nil {
			return err
		}
		if task.Status.IsTerminal() {
			return ErrTaskTerminal
		}
		now := m.now().UTC()
		task.Status = models.TaskCancelled
		task.CompletedAt = &now
		return m.store.Save(ctx, task)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.task.Status.IsTerminal() {
		return ErrTaskTerminal
	}
	now := m.now().UTC()
	e.task.Status = models.TaskCancelled
	e.task.CompletedAt = &now
	step := "Cancelled by user"
	e.task.CurrentStep = &step
	m.save(e.task)
	e.cancel()

	m.log.Info("task cancelled", zap.String("task_id", taskID))
	return nil
}

// Shutdown cancels running jobs and waits for them, or for ctx.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	for _, e := range m.running {
		e.cancel()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reporter is handed to a JobFunc to publish progress.
type Reporter struct {
	m *Manager
	e *entry
}

// update applies fn to the live record and persists it. Updates after the
// task reached a terminal status (e.g. cancelled) are ignored.
func (r *Reporter) update(fn func(t *models.ScrapingTask)) {
	r.e.mu.Lock()
	defer r.e.mu.Unlock()
	if r.e.task.Status.IsTerminal() || r.m.finishedElsewhereLocked(r.e) {
		return
	}
	fn(r.e.task)
	r.m.save(r.e.task)
}

// finishedElsewhereLocked reports whether the stored record is already
// terminal, as when another replica cancelled the task through a shared store.
// The stored record replaces the local one and the job context is cancelled.
// The caller holds e.mu.
func (m *Manager) finishedElsewhereLocked(e *entry) bool {
	stored, err := m.store.Get(context.Background(), e.task.TaskID)
	if err != nil || !stored.Status.IsTerminal() {
		return false
	}
	m.log.Info("task finished by another writer",
		zap.String("task_id", e.task.TaskID), zap.String("status", string(stored.Status)))
	e.task = stored
	e.cancel()
	return true
}

// Step sets the human-readable current step.
func (r *Reporter) Step(step string) {
	r.update(func(t *models.ScrapingTask) {
		t.CurrentStep = &step
	})
}

// SetTotal sets the number of items the job will process.
func (r *Reporter) SetTotal(total int) {
	r.update(func(t *models.ScrapingTask) {
		t.TotalItems = models.IntPtr(total)
	})
}

// Progress records processed items and derives the percentage from the total.
func (r *Reporter) Progress(processed int, step string) {
	r.update(func(t *models.ScrapingTask) {
		t.ProcessedItems = models.IntPtr(processed)
		t.CurrentStep = &step
		if total := models.IntValue(t.TotalItems); total > 0 {
			pct := processed * 100 / total
			if pct > 100 {
				pct = 100
			}
			t.Progress = pct
		}
	})
}

// AddError records a non-fatal problem.
func (r *Reporter) AddError(msg string) {
	r.update(func(t *models.ScrapingTask) {
		t.Errors = append(t.Errors, msg)
	})
}
