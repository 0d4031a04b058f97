package tasks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"scout-sync-go/pkg/cli/client"
	"scout-sync-go/pkg/models"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newTestController(t *testing.T, fc *scriptedClient, opts Options) (*Controller, *manualClock, *recorder) {
	t.Helper()
	clk := &manualClock{}
	rec := newRecorder()
	opts.Clock = clk
	opts.Notifier = rec
	// Debug lines from fetches unwound by Close can land after the test ends.
	opts.Logger = zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
	c := New(fc, opts)
	t.Cleanup(c.Close)
	return c, clk, rec
}

func TestPhotoScrapingRunsToCompletion(t *testing.T) {
	fc := newScriptedClient("t1")
	c, clk, rec := newTestController(t, fc, Options{PollInterval: 2 * time.Second})
	states, unsubscribe := c.Subscribe()
	defer unsubscribe()

	id, err := c.StartPhotoScraping(context.Background())
	if err != nil {
		t.Fatalf("StartPhotoScraping: %v", err)
	}
	if id != "t1" {
		t.Fatalf("task id = %q, want t1", id)
	}
	started := rec.expect(t, LevelInfo)
	if !strings.Contains(started.Description, "t1") {
		t.Errorf("start notification = %+v, want task id", started)
	}

	ticker := clk.latest(t)
	if ticker.d != 2*time.Second {
		t.Errorf("ticker interval = %v, want 2s", ticker.d)
	}

	// Fetch at t=0, before any tick.
	fc.expectCall(t, "t1").respond(task("t1", models.TaskRunning, 10), nil)
	fc.expectNoCall(t, 20*time.Millisecond)
	waitForState(t, states, func(s State) bool { return s.Progress() == 10 })

	ticker.Tick()
	fc.expectCall(t, "t1").respond(task("t1", models.TaskRunning, 55), nil)
	s := waitForState(t, states, func(s State) bool { return s.Progress() == 55 })
	if !s.IsRunning() || !s.IsPolling {
		t.Errorf("expected running and polling, got %+v", s)
	}

	ticker.Tick()
	done := task("t1", models.TaskCompleted, 100)
	done.ProcessedItems = models.IntPtr(42)
	fc.expectCall(t, "t1").respond(done, nil)

	n := rec.expect(t, LevelSuccess)
	if !strings.Contains(n.Description, "42") {
		t.Errorf("success notification = %+v, want processed count", n)
	}

	s = c.State()
	if !s.IsCompleted() || s.IsRunning() || s.IsPolling {
		t.Errorf("unexpected final state: %+v", s)
	}
	if s.Progress() != 100 {
		t.Errorf("progress = %d, want 100", s.Progress())
	}
	if !ticker.isStopped() {
		t.Error("ticker still running after completion")
	}

	ticker.Tick()
	fc.expectNoCall(t, 50*time.Millisecond)
}

func TestFailedTaskStopsPolling(t *testing.T) {
	tests := []struct {
		name   string
		errors []string
		want   string
	}{
		{"first error surfaced", []string{"Transfermarkt blocked the request", "second"}, "Transfermarkt blocked the request"},
		{"fallback without errors", nil, "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := newScriptedClient("t2")
			c, clk, rec := newTestController(t, fc, Options{})

			if _, err := c.StartDataScraping(context.Background()); err != nil {
				t.Fatalf("StartDataScraping: %v", err)
			}
			failed := task("t2", models.TaskFailed, 0)
			failed.Errors = tt.errors
			fc.expectCall(t, "t2").respond(failed, nil)

			n := rec.expect(t, LevelError)
			if n.Description != tt.want {
				t.Errorf("description = %q, want %q", n.Description, tt.want)
			}

			s := c.State()
			if !s.IsFailed() || s.IsPolling {
				t.Errorf("unexpected state: %+v", s)
			}

			clk.latest(t).Tick()
			fc.expectNoCall(t, 50*time.Millisecond)
		})
	}
}

func TestPollErrorsDoNotStopPolling(t *testing.T) {
	fc := newScriptedClient("t3")
	c, clk, rec := newTestController(t, fc, Options{})
	states, unsubscribe := c.Subscribe()
	defer unsubscribe()

	if _, err := c.StartPhotoScraping(context.Background()); err != nil {
		t.Fatal(err)
	}
	rec.expect(t, LevelInfo)

	fc.expectCall(t, "t3").respond(nil, &client.RequestError{Kind: client.ErrorKindNetwork})
	time.Sleep(20 * time.Millisecond)
	if s := c.State(); !s.IsPolling || s.Task != nil {
		t.Fatalf("poll error changed state: %+v", s)
	}

	clk.latest(t).Tick()
	partial := task("t3", models.TaskRunning, 30)
	partial.Errors = []string{"player 12: no photo"}
	fc.expectCall(t, "t3").respond(partial, nil)
	s := waitForState(t, states, func(s State) bool { return s.Progress() == 30 })
	if !s.IsRunning() || !s.IsPolling {
		t.Errorf("partial errors must not be terminal: %+v", s)
	}

	for _, n := range rec.all() {
		if n.Level == LevelError {
			t.Errorf("unexpected error notification: %+v", n)
		}
	}
}

func TestCancelClearsStateBeforeServerResponds(t *testing.T) {
	fc := newScriptedClient("t4")
	fc.cancelGate = make(chan struct{})
	c, clk, rec := newTestController(t, fc, Options{})

	if _, err := c.StartPhotoScraping(context.Background()); err != nil {
		t.Fatal(err)
	}
	inflight := fc.expectCall(t, "t4")
	ticker := clk.latest(t)

	errc := make(chan error, 1)
	go func() { errc <- c.Cancel(context.Background()) }()

	select {
	case id := <-fc.cancelCalls:
		if id != "t4" {
			t.Fatalf("cancel sent for %q", id)
		}
	case <-time.After(waitTimeout):
		t.Fatal("cancel request not sent")
	}

	s := c.State()
	if s.TaskID != "" || s.Task != nil || s.IsPolling {
		t.Fatalf("state not cleared while cancel in flight: %+v", s)
	}
	if !s.IsCancelling {
		t.Error("expected IsCancelling while server request pending")
	}
	if !ticker.isStopped() {
		t.Error("ticker not stopped on cancel")
	}

	// The fetch that was in flight when cancel ran must not resurrect state.
	inflight.respond(task("t4", models.TaskRunning, 50), nil)
	ticker.Tick()
	fc.expectNoCall(t, 50*time.Millisecond)
	if s := c.State(); s.Task != nil {
		t.Fatalf("stale response applied after cancel: %+v", s.Task)
	}

	close(fc.cancelGate)
	if err := <-errc; err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	rec.expect(t, LevelWarning)
	for _, n := range rec.all() {
		if n.Level == LevelError {
			t.Errorf("cancel must not produce a failure notification: %+v", n)
		}
	}
}

func TestCancelRejectedByServer(t *testing.T) {
	fc := newScriptedClient("t5")
	fc.cancelErr = &client.RequestError{Kind: client.ErrorKindHTTP, StatusCode: 409, Detail: "Task already finished"}
	c, clk, rec := newTestController(t, fc, Options{})

	if _, err := c.StartPhotoScraping(context.Background()); err != nil {
		t.Fatal(err)
	}
	fc.expectCall(t, "t5")

	err := c.Cancel(context.Background())
	var reqErr *client.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %v", err)
	}

	n := rec.expect(t, LevelError)
	if n.Description != "Task already finished" {
		t.Errorf("description = %q", n.Description)
	}
	if s := c.State(); s.TaskID != "" || s.IsPolling || s.IsCancelling {
		t.Errorf("polling re-armed or state kept after rejected cancel: %+v", s)
	}
	if clk.count() != 1 {
		t.Errorf("tickers armed = %d, want 1", clk.count())
	}
}

func TestCancelWithoutTaskIsNoop(t *testing.T) {
	fc := newScriptedClient("unused")
	c, _, rec := newTestController(t, fc, Options{})

	if err := c.Cancel(context.Background()); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	select {
	case id := <-fc.cancelCalls:
		t.Fatalf("unexpected cancel request for %q", id)
	default:
	}
	if len(rec.all()) != 0 {
		t.Errorf("unexpected notifications: %+v", rec.all())
	}
}

func TestCancelFromIdle(t *testing.T) {
	fc := newScriptedClient("t11")
	c, clk, rec := newTestController(t, fc, Options{DisableAutoStart: true})

	if _, err := c.StartPhotoScraping(context.Background()); err != nil {
		t.Fatal(err)
	}
	rec.expect(t, LevelInfo)
	if s := c.State(); s.IsPolling || s.TaskID != "t11" {
		t.Fatalf("expected idle tracking of t11, got %+v", s)
	}

	if err := c.Cancel(context.Background()); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	n := rec.expect(t, LevelWarning)
	if n.Title != "Scraping cancelled" || n.TaskID != "t11" {
		t.Errorf("cancel notification = %+v", n)
	}
	select {
	case id := <-fc.cancelCalls:
		if id != "t11" {
			t.Errorf("cancel sent for %q, want t11", id)
		}
	default:
		t.Error("no cancel request sent")
	}

	s := c.State()
	if s.TaskID != "" || s.Task != nil || s.IsPolling || s.IsCancelling {
		t.Errorf("state not cleared: %+v", s)
	}
	if clk.count() != 0 {
		t.Error("cancel from idle armed a ticker")
	}
	for _, n := range rec.all() {
		if n.Level == LevelError {
			t.Errorf("unexpected error notification: %+v", n)
		}
	}
}

func TestServerCancelledTaskStopsPolling(t *testing.T) {
	fc := newScriptedClient("tc")
	c, clk, rec := newTestController(t, fc, Options{})

	if _, err := c.StartPhotoScraping(context.Background()); err != nil {
		t.Fatal(err)
	}
	rec.expect(t, LevelInfo)
	fc.expectCall(t, "tc").respond(task("tc", models.TaskCancelled, 30), nil)

	n := rec.expect(t, LevelWarning)
	if n.Title != "Scraping cancelled" {
		t.Errorf("notification = %+v, want cancelled warning", n)
	}

	s := c.State()
	if s.IsPolling || !s.IsCancelled() || s.IsFailed() {
		t.Errorf("unexpected state: %+v", s)
	}
	if !s.CanStart() {
		t.Error("start should be allowed after the task was cancelled")
	}
	ticker := clk.latest(t)
	if !ticker.isStopped() {
		t.Error("ticker still running after cancelled status")
	}
	for i := 0; i < 3; i++ {
		ticker.Tick()
	}
	fc.expectNoCall(t, 50*time.Millisecond)
}

func TestStopPollingIsIdempotent(t *testing.T) {
	fc := newScriptedClient("t6")
	c, clk, rec := newTestController(t, fc, Options{})

	if _, err := c.StartPhotoScraping(context.Background()); err != nil {
		t.Fatal(err)
	}
	rec.expect(t, LevelInfo)
	fc.expectCall(t, "t6").respond(task("t6", models.TaskRunning, 20), nil)

	c.StopPolling()
	c.StopPolling()

	s := c.State()
	if s.IsPolling {
		t.Fatal("still polling after StopPolling")
	}
	if s.TaskID != "t6" {
		t.Errorf("StopPolling must keep the task id, got %q", s.TaskID)
	}
	clk.latest(t).Tick()
	fc.expectNoCall(t, 50*time.Millisecond)
	if len(rec.all()) != 1 {
		t.Errorf("notifications = %+v, want only the start notice", rec.all())
	}

	// Manual resume polls immediately.
	c.StartPolling()
	fc.expectCall(t, "t6")
	if clk.count() != 2 {
		t.Errorf("tickers armed = %d, want 2", clk.count())
	}
}

func TestOutOfOrderResponsesAreDiscarded(t *testing.T) {
	fc := newScriptedClient("t7")
	c, clk, _ := newTestController(t, fc, Options{})
	states, unsubscribe := c.Subscribe()
	defer unsubscribe()

	if _, err := c.StartPhotoScraping(context.Background()); err != nil {
		t.Fatal(err)
	}
	first := fc.expectCall(t, "t7")
	clk.latest(t).Tick()
	second := fc.expectCall(t, "t7")

	second.respond(task("t7", models.TaskRunning, 70), nil)
	waitForState(t, states, func(s State) bool { return s.Progress() == 70 })

	first.respond(task("t7", models.TaskRunning, 40), nil)
	time.Sleep(30 * time.Millisecond)

	if got := c.State().Progress(); got != 70 {
		t.Errorf("progress = %d, want 70 (older response must be dropped)", got)
	}
}

func TestStartingNewTaskReplacesTracking(t *testing.T) {
	fc := newScriptedClient("old", "new")
	c, clk, _ := newTestController(t, fc, Options{})
	states, unsubscribe := c.Subscribe()
	defer unsubscribe()

	if _, err := c.StartPhotoScraping(context.Background()); err != nil {
		t.Fatal(err)
	}
	stale := fc.expectCall(t, "old")
	oldTicker := clk.latest(t)

	if _, err := c.StartDataScraping(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !oldTicker.isStopped() {
		t.Error("previous ticker not disposed")
	}
	fc.expectCall(t, "new").respond(task("new", models.TaskRunning, 5), nil)
	waitForState(t, states, func(s State) bool { return s.TaskID == "new" && s.Progress() == 5 })

	stale.respond(task("old", models.TaskCompleted, 100), nil)
	time.Sleep(30 * time.Millisecond)

	s := c.State()
	if s.TaskID != "new" || s.IsCompleted() || !s.IsPolling {
		t.Errorf("stale task leaked into state: %+v", s)
	}
	if clk.count() != 2 {
		t.Errorf("tickers armed = %d, want 2", clk.count())
	}
}

func TestStartFailureLeavesStateUnchanged(t *testing.T) {
	fc := newScriptedClient("x")
	fc.startErr = &client.RequestError{Kind: client.ErrorKindHTTP, StatusCode: 403, Detail: "Admin privileges required"}
	c, clk, rec := newTestController(t, fc, Options{})

	if _, err := c.StartPhotoScraping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	n := rec.expect(t, LevelError)
	if n.Description != "Admin privileges required" {
		t.Errorf("description = %q", n.Description)
	}
	s := c.State()
	if s.TaskID != "" || s.IsPolling || s.IsStarting {
		t.Errorf("state mutated by failed start: %+v", s)
	}
	if clk.count() != 0 {
		t.Errorf("ticker armed after failed start")
	}
}

func TestStartIsSingleFlight(t *testing.T) {
	fc := newScriptedClient("t8")
	fc.startGate = make(chan struct{})
	c, _, _ := newTestController(t, fc, Options{})
	states, unsubscribe := c.Subscribe()
	defer unsubscribe()

	errc := make(chan error, 1)
	go func() {
		_, err := c.StartPhotoScraping(context.Background())
		errc <- err
	}()
	waitForState(t, states, func(s State) bool { return s.IsStarting })
	if c.State().CanStart() {
		t.Error("CanStart must be false while a start is in flight")
	}

	if _, err := c.StartDataScraping(context.Background()); !errors.Is(err, ErrActionInFlight) {
		t.Fatalf("second start err = %v, want ErrActionInFlight", err)
	}

	close(fc.startGate)
	if err := <-errc; err != nil {
		t.Fatalf("first start: %v", err)
	}
}

func TestAutoStartDisabled(t *testing.T) {
	fc := newScriptedClient("t9")
	c, clk, _ := newTestController(t, fc, Options{DisableAutoStart: true})

	if _, err := c.StartPhotoScraping(context.Background()); err != nil {
		t.Fatal(err)
	}
	fc.expectNoCall(t, 30*time.Millisecond)
	if s := c.State(); s.IsPolling || s.TaskID != "t9" {
		t.Fatalf("unexpected state: %+v", s)
	}
	if clk.count() != 0 {
		t.Fatal("ticker armed without auto-start")
	}

	c.StartPolling()
	fc.expectCall(t, "t9")
	if !c.State().IsPolling {
		t.Error("expected polling after StartPolling")
	}
}

func TestSetIntervalRearmsSingleTicker(t *testing.T) {
	fc := newScriptedClient("t10")
	c, clk, _ := newTestController(t, fc, Options{PollInterval: time.Second})

	if _, err := c.StartPhotoScraping(context.Background()); err != nil {
		t.Fatal(err)
	}
	fc.expectCall(t, "t10")
	first := clk.latest(t)

	c.SetInterval(5 * time.Second)
	if !first.isStopped() {
		t.Error("old ticker not stopped")
	}
	second := clk.latest(t)
	if second == first || second.d != 5*time.Second {
		t.Fatalf("new ticker = %+v", second)
	}
	fc.expectCall(t, "t10")

	first.Tick()
	fc.expectNoCall(t, 30*time.Millisecond)
	second.Tick()
	fc.expectCall(t, "t10")
}

func TestSyncNotifications(t *testing.T) {
	tests := []struct {
		name    string
		result  *models.SyncResult
		err     error
		level   Level
		contain string
	}{
		{
			name:    "success counts",
			result:  &models.SyncResult{Success: true, Message: "ok", RecordsCreated: models.IntPtr(15), RecordsUpdated: models.IntPtr(42)},
			level:   LevelSuccess,
			contain: "15 created, 42 updated",
		},
		{
			name:    "reported failure",
			result:  &models.SyncResult{Success: false, Message: "Sheet not shared"},
			level:   LevelError,
			contain: "Sheet not shared",
		},
		{
			name:    "transport failure",
			err:     &client.RequestError{Kind: client.ErrorKindNetwork},
			level:   LevelError,
			contain: client.FallbackMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := newScriptedClient("unused")
			fc.syncResult = tt.result
			fc.syncErr = tt.err
			c, _, rec := newTestController(t, fc, Options{})

			res, err := c.SyncGoogleSheets(context.Background())
			if (err != nil) != (tt.err != nil) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			n := rec.expect(t, tt.level)
			if !strings.Contains(n.Description, tt.contain) {
				t.Errorf("description = %q, want %q", n.Description, tt.contain)
			}
			s := c.State()
			if s.IsSyncing {
				t.Error("still syncing")
			}
			if tt.err == nil && s.LastSync != res {
				t.Error("LastSync not recorded")
			}
		})
	}
}

func TestCloseClosesSubscribers(t *testing.T) {
	fc := newScriptedClient("t11")
	c := New(fc, Options{Clock: &manualClock{}})
	states, _ := c.Subscribe()
	<-states

	c.Close()
	if _, ok := <-states; ok {
		t.Fatal("expected closed channel")
	}
	c.Close()
}
