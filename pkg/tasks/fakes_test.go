package tasks

import (
	"context"
	"sync"
	"testing"
	"time"

	"scout-sync-go/pkg/models"
)

const waitTimeout = time.Second

// manualClock hands out tickers that only fire when the test calls Tick.
type manualClock struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

func (c *manualClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{d: d, ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *manualClock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

func (c *manualClock) latest(t *testing.T) *manualTicker {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tickers) == 0 {
		t.Fatal("no ticker armed")
	}
	return c.tickers[len(c.tickers)-1]
}

type manualTicker struct {
	mu      sync.Mutex
	d       time.Duration
	ch      chan time.Time
	stopped bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *manualTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Tick fires once. Like time.Ticker, a stopped ticker delivers nothing.
func (t *manualTicker) Tick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	select {
	case t.ch <- time.Now():
	default:
	}
}

type statusReply struct {
	task *models.ScrapingTask
	err  error
}

type statusCall struct {
	taskID string
	reply  chan statusReply
}

func (s *statusCall) respond(task *models.ScrapingTask, err error) {
	s.reply <- statusReply{task: task, err: err}
}

// scriptedClient blocks every GetStatus until the test replies to it.
type scriptedClient struct {
	mu        sync.Mutex
	startIDs  []string
	startErr  error
	startGate chan struct{}
	starts    int

	calls chan *statusCall

	cancelErr   error
	cancelGate  chan struct{}
	cancelCalls chan string

	syncResult *models.SyncResult
	syncErr    error
}

func newScriptedClient(ids ...string) *scriptedClient {
	return &scriptedClient{
		startIDs:    ids,
		calls:       make(chan *statusCall, 16),
		cancelCalls: make(chan string, 4),
	}
}

func (f *scriptedClient) StartJob(ctx context.Context, kind models.JobKind) (string, error) {
	f.mu.Lock()
	gate := f.startGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return "", f.startErr
	}
	id := f.startIDs[f.starts%len(f.startIDs)]
	f.starts++
	return id, nil
}

func (f *scriptedClient) GetStatus(ctx context.Context, taskID string) (*models.ScrapingTask, error) {
	call := &statusCall{taskID: taskID, reply: make(chan statusReply, 1)}
	f.calls <- call
	select {
	case r := <-call.reply:
		return r.task, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *scriptedClient) Cancel(ctx context.Context, taskID string) error {
	f.cancelCalls <- taskID
	f.mu.Lock()
	gate := f.cancelGate
	err := f.cancelErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (f *scriptedClient) SyncGoogleSheets(ctx context.Context) (*models.SyncResult, error) {
	return f.syncResult, f.syncErr
}

func (f *scriptedClient) ExportToSheets(ctx context.Context) (*models.SyncResult, error) {
	return f.syncResult, f.syncErr
}

func (f *scriptedClient) expectCall(t *testing.T, taskID string) *statusCall {
	t.Helper()
	select {
	case call := <-f.calls:
		if call.taskID != taskID {
			t.Fatalf("status fetched for %q, want %q", call.taskID, taskID)
		}
		return call
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for status fetch of %q", taskID)
		return nil
	}
}

func (f *scriptedClient) expectNoCall(t *testing.T, within time.Duration) {
	t.Helper()
	select {
	case call := <-f.calls:
		t.Fatalf("unexpected status fetch for %q", call.taskID)
	case <-time.After(within):
	}
}

// recorder collects notifications.
type recorder struct {
	mu    sync.Mutex
	notes []Notification
	ch    chan Notification
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Notification, 32)}
}

func (r *recorder) Notify(n Notification) {
	r.mu.Lock()
	r.notes = append(r.notes, n)
	r.mu.Unlock()
	r.ch <- n
}

func (r *recorder) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notes...)
}

func (r *recorder) expect(t *testing.T, level Level) Notification {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case n := <-r.ch:
			if n.Level == level {
				return n
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s notification; got %+v", level, r.all())
			return Notification{}
		}
	}
}

func waitForState(t *testing.T, states <-chan State, pred func(State) bool) State {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case s, ok := <-states:
			if !ok {
				t.Fatal("state channel closed")
			}
			if pred(s) {
				return s
			}
		case <-deadline:
			t.Fatal("timed out waiting for state")
			return State{}
		}
	}
}

func task(id string, status models.TaskStatus, progress int) *models.ScrapingTask {
	return &models.ScrapingTask{TaskID: id, Status: status, Progress: progress}
}
