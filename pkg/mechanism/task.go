package mechanism

import (
	"context"
	"sync"
)

// run is one launch of a task. err is written once before done is closed.
type run struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func (r *run) alive() bool {
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

// task is a single-slot supervisor for one background operation.
// Start refuses while the slot is occupied; Preempt and Stop cancel the
// occupant and wait for it to return before the slot is reused.
type task struct {
	op string

	mu     sync.Mutex
	cur    *run
	starts int
}

func newTask(op string) *task {
	return &task{op: op}
}

// Start runs fn on a new goroutine unless a previous run is still alive.
func (t *task) Start(parent context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cur != nil && t.cur.alive() {
		return &Error{Kind: Busy, Op: t.op}
	}
	t.launchLocked(parent, fn)
	return nil
}

// Preempt cancels and joins a live run, then starts fn.
func (t *task) Preempt(parent context.Context, fn func(ctx context.Context) error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.launchLocked(parent, fn)
}

// Stop cancels a live run and waits for it to return.
func (t *task) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
}

// Running reports whether the last started run has not yet returned.
func (t *task) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.cur != nil && t.cur.alive()
}

// Wait blocks until the current run returns or ctx is done.
func (t *task) Wait(ctx context.Context) error {
	t.mu.Lock()
	r := t.cur
	t.mu.Unlock()

	if r == nil {
		return nil
	}
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the result of the last finished run, or nil while it is running.
func (t *task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cur == nil || t.cur.alive() {
		return nil
	}
	return t.cur.err
}

// Starts returns how many runs the slot has launched.
func (t *task) Starts() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.starts
}

func (t *task) stopLocked() {
	if t.cur == nil {
		return
	}
	t.cur.cancel()
	<-t.cur.done
}

func (t *task) launchLocked(parent context.Context, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithCancel(parent)
	r := &run{cancel: cancel, done: make(chan struct{})}
	t.cur = r
	t.starts++

	go func() {
		defer close(r.done)
		defer cancel()
		r.err = fn(ctx)
	}()
}
