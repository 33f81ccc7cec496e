package reactive

import "log/slog"

// Tracker holds the reactive bookkeeping shared by a tree of watchers and
// observed data: the stack of active watchers and the id counters.
//
// A Tracker is not safe for concurrent use. Evaluation nests but never runs
// in parallel, so a single goroutine owns it.
type Tracker struct {
	stack []*Watcher

	nextWatcherID uint64
	nextDepID     uint64

	logger *slog.Logger
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithLogger sets the logger used for swallowed watcher failures.
func WithLogger(logger *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTracker creates an empty Tracker.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		logger: slog.Default().With("component", "reactive"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Target returns the watcher currently collecting dependencies, or nil.
func (t *Tracker) Target() *Watcher {
	if len(t.stack) == 0 {
		return nil
	}
	return t.stack[len(t.stack)-1]
}

// Push makes w the active watcher and returns the function restoring the
// previous one. A nil w suspends tracking.
//
//	defer t.Push(w)()
func (t *Tracker) Push(w *Watcher) (pop func()) {
	t.stack = append(t.stack, w)
	depth := len(t.stack)
	return func() {
		// Truncate to the pushed depth; inner frames are discarded too.
		t.stack = t.stack[:depth-1]
	}
}

// Untracked runs fn with tracking suspended.
func (t *Tracker) Untracked(fn func()) {
	defer t.Push(nil)()
	fn()
}

// Depth returns the number of nested evaluations in progress.
func (t *Tracker) Depth() int {
	return len(t.stack)
}

// Logger returns the tracker's logger.
func (t *Tracker) Logger() *slog.Logger {
	return t.logger
}

func (t *Tracker) newWatcherID() uint64 {
	t.nextWatcherID++
	return t.nextWatcherID
}

func (t *Tracker) newDepID() uint64 {
	t.nextDepID++
	return t.nextDepID
}
