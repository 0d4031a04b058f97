// Package tasks tracks one server-side scraping task at a time: it starts the
// task, polls its status on a ticker, and stops on a terminal status, an
// explicit stop, or a cancel.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"scout-sync-go/pkg/models"

	"go.uber.org/zap"
)

// DefaultPollInterval is used when Options.PollInterval is zero.
const DefaultPollInterval = 2 * time.Second

// ErrActionInFlight is returned when the same action is triggered again before
// the previous invocation finished.
var ErrActionInFlight = errors.New("action already in progress")

// StatusClient is the job server contract the controller depends on.
type StatusClient interface {
	StartJob(ctx context.Context, kind models.JobKind) (string, error)
	GetStatus(ctx context.Context, taskID string) (*models.ScrapingTask, error)
	Cancel(ctx context.Context, taskID string) error
	SyncGoogleSheets(ctx context.Context) (*models.SyncResult, error)
	ExportToSheets(ctx context.Context) (*models.SyncResult, error)
}

type Options struct {
	PollInterval     time.Duration
	DisableAutoStart bool // leave polling off after a start; see StartPolling
	Clock            Clock
	Logger           *zap.Logger
	Notifier         Notifier
}

// Controller owns the tracked task id, its last status and the poll ticker.
// Only its methods write that state; any number of readers may Subscribe.
type Controller struct {
	client   StatusClient
	clock    Clock
	log      *zap.Logger
	notifier Notifier

	mu        sync.Mutex
	interval  time.Duration
	autoStart bool

	taskID   string
	task     *models.ScrapingTask
	terminal bool // terminal status observed for taskID

	// gen changes whenever the poll loop is armed or disarmed; fetches
	// carrying an older gen are discarded.
	gen        uint64
	seq        uint64
	appliedSeq uint64
	ticker     Ticker
	stopLoop   context.CancelFunc

	starting   bool
	cancelling bool
	syncing    bool
	lastSync   *models.SyncResult

	subs    map[int]chan State
	nextSub int
	closed  bool
}

// New creates a controller in the Idle state.
func New(client StatusClient, opts Options) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Notifier == nil {
		opts.Notifier = discardNotifier{}
	}

	return &Controller{
		client:    client,
		clock:     opts.Clock,
		log:       opts.Logger,
		notifier:  opts.Notifier,
		interval:  opts.PollInterval,
		autoStart: !opts.DisableAutoStart,
		subs:      make(map[int]chan State),
	}
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every transition.
// A slow reader only ever sees the latest snapshot. The returned func
// unsubscribes and closes the channel.
func (c *Controller) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan State, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.snapshotLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// StartPolling resumes polling for the tracked task. It is a no-op without
// a task, once a terminal status was observed, or while already polling.
func (c *Controller) StartPolling() {
	c.mu.Lock()
	if c.closed || c.taskID == "" || c.terminal || c.ticker != nil {
		c.mu.Unlock()
		return
	}
	kick := c.armLocked()
	c.publishLocked()
	c.mu.Unlock()

	kick()
}

// StopPolling stops the ticker and discards in-flight responses. The tracked
// task and its last status are kept. Calling it while stopped does nothing.
func (c *Controller) StopPolling() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ticker == nil {
		return
	}
	c.disarmLocked()
	c.publishLocked()
	c.log.Debug("polling stopped", zap.String("task_id", c.taskID))
}

// SetInterval changes the poll interval. A running loop is re-armed so that
// only one ticker ever exists.
func (c *Controller) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}

	c.mu.Lock()
	if d == c.interval {
		c.mu.Unlock()
		return
	}
	c.interval = d
	if c.ticker == nil {
		c.mu.Unlock()
		return
	}
	kick := c.armLocked()
	c.mu.Unlock()

	kick()
}

// Close stops polling and closes all subscriber channels.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.disarmLocked()
	c.closed = true
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

// trackLocked replaces the tracked task. Any loop for the previous id is disposed.
func (c *Controller) trackLocked(taskID string) {
	c.disarmLocked()
	c.taskID = taskID
	c.task = nil
	c.terminal = false
}

// armLocked disposes any current loop and arms a new one for the tracked
// task. The returned func issues the immediate fetch; call it after
// releasing the lock.
func (c *Controller) armLocked() func() {
	c.disarmLocked()

	c.gen++
	gen := c.gen
	taskID := c.taskID
	ctx, cancel := context.WithCancel(context.Background())
	ticker := c.clock.NewTicker(c.interval)
	c.ticker = ticker
	c.stopLoop = cancel

	go c.loop(ctx, gen, taskID, ticker)

	c.log.Debug("polling armed",
		zap.String("task_id", taskID),
		zap.Duration("interval", c.interval),
	)

	seq := c.nextSeqLocked()
	return func() {
		go c.fetch(ctx, gen, taskID, seq)
	}
}

func (c *Controller) disarmLocked() {
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	c.stopLoop()
	c.ticker = nil
	c.stopLoop = nil
	c.gen++
}

func (c *Controller) nextSeqLocked() uint64 {
	c.seq++
	return c.seq
}

func (c *Controller) loop(ctx context.Context, gen uint64, taskID string, ticker Ticker) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			c.tick(ctx, gen, taskID)
		}
	}
}

// tick issues a fetch unless the loop was superseded between the tick and now.
func (c *Controller) tick(ctx context.Context, gen uint64, taskID string) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	seq := c.nextSeqLocked()
	c.mu.Unlock()

	go c.fetch(ctx, gen, taskID, seq)
}

func (c *Controller) fetch(ctx context.Context, gen uint64, taskID string, seq uint64) {
	task, err := c.client.GetStatus(ctx, taskID)
	if err == nil && task == nil {
		err = errors.New("empty status response")
	}

	note, ok := c.applyStatus(gen, taskID, seq, task, err)
	if ok {
		c.notifier.Notify(note)
	}
}

// applyStatus records a poll response and reports the notification a
// terminal status produces.
func (c *Controller) applyStatus(gen uint64, taskID string, seq uint64, task *models.ScrapingTask, err error) (Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || taskID != c.taskID {
		c.log.Debug("discarding status for inactive loop", zap.String("task_id", taskID), zap.Uint64("seq", seq))
		return Notification{}, false
	}
	if err != nil {
		// Transient: keep the ticker running.
		c.log.Warn("status poll failed", zap.String("task_id", taskID), zap.Error(err))
		return Notification{}, false
	}
	if seq <= c.appliedSeq {
		c.log.Debug("discarding out-of-order status",
			zap.String("task_id", taskID),
			zap.Uint64("seq", seq),
			zap.Uint64("applied_seq", c.appliedSeq),
		)
		return Notification{}, false
	}

	c.appliedSeq = seq
	c.task = task

	var (
		note     Notification
		terminal bool
	)
	switch task.Status {
	case models.TaskCompleted:
		terminal = true
		note = Notification{
			Level:       LevelSuccess,
			Title:       "Scraping completed",
			Description: fmt.Sprintf("%d items processed", models.IntValue(task.ProcessedItems)),
			TaskID:      taskID,
		}
	case models.TaskFailed:
		terminal = true
		desc := "Unknown error"
		if len(task.Errors) > 0 {
			desc = task.Errors[0]
		}
		note = Notification{
			Level:       LevelError,
			Title:       "Scraping failed",
			Description: desc,
			TaskID:      taskID,
		}
	case models.TaskCancelled:
		terminal = true
		note = Notification{
			Level:       LevelWarning,
			Title:       "Scraping cancelled",
			Description: "Cancelled on the server",
			TaskID:      taskID,
		}
	}

	if terminal {
		c.terminal = true
		c.disarmLocked()
		c.log.Info("task finished",
			zap.String("task_id", taskID),
			zap.String("status", string(task.Status)),
			zap.Int("progress", task.Progress),
		)
	}
	c.publishLocked()
	return note, terminal
}

func (c *Controller) snapshotLocked() State {
	return State{
		TaskID:       c.taskID,
		Task:         c.task,
		IsPolling:    c.ticker != nil,
		IsStarting:   c.starting,
		IsCancelling: c.cancelling,
		IsSyncing:    c.syncing,
		LastSync:     c.lastSync,
	}
}

func (c *Controller) publishLocked() {
	s := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}
