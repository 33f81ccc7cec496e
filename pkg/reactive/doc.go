// Package reactive implements the dependency-tracking engine behind Ango
// components.
//
// # Core Types
//
// Dep is a per-property notification channel. Watcher is a re-evaluatable
// computation that records which Deps it read and is notified when any of
// them change. Record and List wrap plain data so every read registers the
// active Watcher and every write notifies subscribers.
//
// # Tracking
//
// All bookkeeping goes through an explicit Tracker instead of global state.
// The Tracker holds the stack of active watchers; Push returns the matching
// pop so callers can defer it:
//
//	t := reactive.NewTracker()
//	state := reactive.NewRecord(t, map[string]any{"count": 0})
//	w, _ := reactive.NewWatcher(t, func() (any, error) {
//	    return state.Get("count"), nil
//	}, reactive.Options{Mode: reactive.ModeUser, Sync: true,
//	    Callback: func(n, o any) { fmt.Println(o, "->", n) }})
//	state.Set("count", 1) // prints 0 -> 1
//
// # Modes
//
// A render watcher evaluates eagerly and forwards notifications to its
// OnNotify callback. A computed watcher is lazy and only marks itself dirty.
// A user watcher re-runs its getter and invokes Callback with the new and old
// values; panics in Callback are recovered and logged.
package reactive
