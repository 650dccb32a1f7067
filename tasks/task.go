package tasks

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrTimeout = errors.New("task did not finish in time")

// Task runs fn at most once at a time. Run requests an execution: if one is
// already in flight it is either canceled and restarted (coalesce=false) or
// a single follow-up run is queued (coalesce=true). Triggers arriving while
// a follow-up is already queued are dropped.
type Task struct {
	fn       func(ctx context.Context)
	delay    time.Duration
	coalesce bool

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
	pending bool
}

func New(fn func(ctx context.Context), delay time.Duration, coalesce bool) *Task {
	return &Task{fn: fn, delay: delay, coalesce: coalesce}
}

func (t *Task) Run() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runLocked()
}

// SyncRun triggers an execution and waits for the in-flight run to finish.
func (t *Task) SyncRun(timeout time.Duration) error {
	t.mu.Lock()
	t.runLocked()
	done := t.done
	t.mu.Unlock()

	return wait(done, timeout)
}

// Stop cancels the in-flight run, drops any queued follow-up and refuses
// future triggers.
func (t *Task) Stop(timeout time.Duration) error {
	t.mu.Lock()
	t.stopped = true
	t.pending = false
	if t.cancel != nil {
		t.cancel()
	}
	done := t.done
	t.mu.Unlock()

	return wait(done, timeout)
}

func (t *Task) runLocked() {
	if t.stopped {
		return
	}
	if t.done != nil {
		if t.pending {
			return
		}
		t.pending = true
		if !t.coalesce {
			t.cancel()
		}
		return
	}
	t.startLocked()
}

func (t *Task) startLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go func() {
		defer close(done)

		if t.delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(t.delay):
			}
		}
		if ctx.Err() == nil {
			t.fn(ctx)
		}
		cancel()

		t.mu.Lock()
		t.done = nil
		t.cancel = nil
		rerun := t.pending && !t.stopped
		t.pending = false
		if rerun {
			t.startLocked()
		}
		t.mu.Unlock()
	}()
}

func wait(done chan struct{}, timeout time.Duration) error {
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return ErrTimeout
	}
}
