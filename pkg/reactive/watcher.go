package reactive

import (
	"log/slog"
	"sort"
)

// Mode selects how a watcher reacts to dependency notifications.
type Mode uint8

const (
	// ModeRender evaluates eagerly and forwards notifications to OnNotify.
	ModeRender Mode = iota
	// ModeComputed is lazy: notifications only mark the watcher dirty.
	ModeComputed
	// ModeUser re-runs the getter and calls Callback(new, old) on change.
	ModeUser
)

// String returns the string representation of the Mode.
func (m Mode) String() string {
	switch m {
	case ModeRender:
		return "render"
	case ModeComputed:
		return "computed"
	case ModeUser:
		return "user"
	default:
		return "unknown"
	}
}

// Getter is the computation a watcher evaluates.
type Getter func() (any, error)

// Options configures a Watcher.
type Options struct {
	// Mode selects render, computed or user behavior.
	Mode Mode

	// Deep traverses the returned value after every evaluation so nested
	// properties become dependencies too.
	Deep bool

	// Sync runs the watcher inside the notification instead of handing it
	// to OnNotify.
	Sync bool

	// Callback receives new and old values after a run that changed the
	// value. Panics are recovered and reported through OnError.
	Callback func(newValue, oldValue any)

	// OnNotify is called on a dependency change for non-sync, non-computed
	// watchers. Typically it enqueues the watcher or its owner on a
	// scheduler. When nil the watcher runs immediately.
	OnNotify func(w *Watcher)

	// OnError receives failures swallowed by user watchers.
	OnError func(w *Watcher, err error)

	// Label names the watcher in logs.
	Label string
}

// Watcher re-evaluates a computation and records the deps it reads.
//
// After every evaluation the subscribed dep set equals exactly the deps read
// during that evaluation; stale subscriptions are dropped.
type Watcher struct {
	id     uint64
	t      *Tracker
	mode   Mode
	getter Getter
	opts   Options

	value  any
	dirty  bool
	active bool

	deps    map[uint64]*Dep
	newDeps map[uint64]*Dep
}

// NewWatcher creates a watcher. Render and user watchers evaluate
// immediately; computed watchers start dirty and evaluate on first read.
//
// A getter error from a render or computed watcher is returned together with
// the watcher. User watcher getter errors are reported to OnError instead.
func NewWatcher(t *Tracker, getter Getter, opts Options) (*Watcher, error) {
	if getter == nil {
		return nil, ErrNilGetter
	}
	w := &Watcher{
		id:      t.newWatcherID(),
		t:       t,
		mode:    opts.Mode,
		getter:  getter,
		opts:    opts,
		active:  true,
		deps:    make(map[uint64]*Dep),
		newDeps: make(map[uint64]*Dep),
	}
	if w.mode == ModeComputed {
		w.dirty = true
		return w, nil
	}
	value, err := w.Get()
	if err != nil {
		if w.mode == ModeUser {
			w.fail(err)
			return w, nil
		}
		return w, err
	}
	w.value = value
	return w, nil
}

// ID returns the watcher's creation-order id.
func (w *Watcher) ID() uint64 { return w.id }

// Mode returns the watcher's mode.
func (w *Watcher) Mode() Mode { return w.mode }

// Value returns the result of the last successful evaluation.
func (w *Watcher) Value() any { return w.value }

// Dirty reports whether a computed watcher needs re-evaluation.
func (w *Watcher) Dirty() bool { return w.dirty }

// Active reports whether the watcher has not been torn down.
func (w *Watcher) Active() bool { return w.active }

// Label returns the watcher's label.
func (w *Watcher) Label() string { return w.opts.Label }

// Get evaluates the getter with w as the active watcher and refreshes the
// dependency set. Panics are recovered into a *PanicError.
func (w *Watcher) Get() (value any, err error) {
	pop := w.t.Push(w)
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
		if err == nil && w.opts.Deep {
			Traverse(value)
		}
		pop()
		w.cleanupDeps()
	}()
	return w.getter()
}

func (w *Watcher) addDep(d *Dep) {
	if !w.active {
		return
	}
	if _, ok := w.newDeps[d.id]; ok {
		return
	}
	w.newDeps[d.id] = d
	if _, ok := w.deps[d.id]; !ok {
		d.addSub(w)
	}
}

func (w *Watcher) cleanupDeps() {
	for id, d := range w.deps {
		if _, ok := w.newDeps[id]; !ok {
			d.removeSub(w)
		}
	}
	w.deps, w.newDeps = w.newDeps, w.deps
	clear(w.newDeps)
}

// Update is called by a Dep when one of the watcher's dependencies changed.
func (w *Watcher) Update() {
	if !w.active {
		return
	}
	switch {
	case w.mode == ModeComputed:
		w.dirty = true
	case w.opts.Sync:
		if err := w.Run(); err != nil {
			w.fail(err)
		}
	case w.opts.OnNotify != nil:
		w.opts.OnNotify(w)
	default:
		if err := w.Run(); err != nil {
			w.fail(err)
		}
	}
}

// Run re-evaluates the watcher and invokes Callback if the value changed,
// is a container, or the watcher is deep.
func (w *Watcher) Run() error {
	if !w.active {
		return nil
	}
	value, err := w.Get()
	if err != nil {
		if w.mode == ModeUser {
			w.fail(err)
			return nil
		}
		return err
	}
	if sameValue(value, w.value) && !isContainer(value) && !w.opts.Deep {
		return nil
	}
	old := w.value
	w.value = value
	if w.opts.Callback != nil {
		w.invoke(value, old)
	}
	return nil
}

// Invoke calls the callback with the given values, recovering panics the
// same way Run does. Used for immediate watchers.
func (w *Watcher) Invoke(newValue, oldValue any) {
	if w.opts.Callback != nil {
		w.invoke(newValue, oldValue)
	}
}

func (w *Watcher) invoke(newValue, oldValue any) {
	defer func() {
		if r := recover(); r != nil {
			w.fail(newPanicError(r))
		}
	}()
	w.t.Untracked(func() {
		w.opts.Callback(newValue, oldValue)
	})
}

func (w *Watcher) fail(err error) {
	if w.opts.OnError != nil {
		w.opts.OnError(w, err)
	}
	w.t.logger.Warn("watcher failed",
		slog.Uint64("watcher", w.id),
		slog.String("label", w.opts.Label),
		slog.String("mode", w.mode.String()),
		slog.Any("error", err))
}

// Evaluate recomputes a computed watcher's value and clears its dirty flag.
func (w *Watcher) Evaluate() error {
	value, err := w.Get()
	if err != nil {
		return err
	}
	w.value = value
	w.dirty = false
	return nil
}

// Depend subscribes the tracker's active watcher to every dep of w. Reading
// a computed value through it therefore tracks the computed's inputs.
func (w *Watcher) Depend() {
	for _, d := range w.deps {
		d.Depend()
	}
}

// Teardown unsubscribes w from every dep and deactivates it. It is safe to
// call more than once.
func (w *Watcher) Teardown() {
	if !w.active {
		return
	}
	for _, d := range w.deps {
		d.removeSub(w)
	}
	clear(w.deps)
	clear(w.newDeps)
	w.active = false
}

// DepIDs returns the ids of the deps w is subscribed to, sorted.
func (w *Watcher) DepIDs() []uint64 {
	ids := make([]uint64, 0, len(w.deps))
	for id := range w.deps {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// JobID implements sched.Job.
func (w *Watcher) JobID() uint64 { return w.id }

// RunJob implements sched.Job.
func (w *Watcher) RunJob() error { return w.Run() }
