package sched

import (
	"context"
	"errors"
	"sync"
)

// Deferrer runs fn after the current unit of work completes, on the same
// logical thread that owns the scheduler.
type Deferrer interface {
	Defer(fn func())
}

// DeferFunc adapts a function to the Deferrer interface.
type DeferFunc func(fn func())

// Defer implements Deferrer.
func (f DeferFunc) Defer(fn func()) { f(fn) }

// Manual collects deferred tasks until Drain is called. It is meant for
// tests and for hosts that pump their own event loop.
type Manual struct {
	tasks []func()
}

// NewManual creates an empty Manual deferrer.
func NewManual() *Manual {
	return &Manual{}
}

// Defer implements Deferrer.
func (m *Manual) Defer(fn func()) {
	m.tasks = append(m.tasks, fn)
}

// Pending returns the number of tasks waiting to run.
func (m *Manual) Pending() int {
	return len(m.tasks)
}

// Drain runs tasks until none are left, including tasks deferred by tasks.
// It returns the number of tasks run.
func (m *Manual) Drain() int {
	n := 0
	for len(m.tasks) > 0 {
		fn := m.tasks[0]
		m.tasks = m.tasks[1:]
		fn()
		n++
	}
	return n
}

// ErrLoopClosed is returned when posting to a loop that has stopped.
var ErrLoopClosed = errors.New("sched: loop closed")

// Loop serializes tasks onto one goroutine. Tasks posted from other
// goroutines and tasks deferred from inside the loop run in FIFO order;
// deferred tasks run after the task that deferred them returns.
type Loop struct {
	tasks chan func()

	mu     sync.Mutex
	local  []func()
	closed bool
	done   chan struct{}
}

// NewLoop creates a Loop with the given inbound buffer size.
func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Defer implements Deferrer. It must only be called from the loop
// goroutine; use Post from other goroutines.
func (l *Loop) Defer(fn func()) {
	l.local = append(l.local, fn)
}

// Post queues fn from any goroutine. It blocks while the buffer is full.
func (l *Loop) Post(ctx context.Context, fn func()) error {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return ErrLoopClosed
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Call posts fn and waits until it has run and its deferred tasks drained.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(ctx, func() {
		fn()
		l.Defer(func() { close(finished) })
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes tasks until ctx is cancelled. It returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
		close(l.done)
	}()
	for {
		l.drainLocal()
		select {
		case fn := <-l.tasks:
			fn()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Loop) drainLocal() {
	for len(l.local) > 0 {
		fn := l.local[0]
		l.local = l.local[1:]
		fn()
	}
}
