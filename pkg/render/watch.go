package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vango-dev/ango/pkg/reactive"
)

// WatchOptions configures Instance.Watch.
type WatchOptions struct {
	// Deep makes nested properties of the watched value dependencies too.
	Deep bool

	// Immediate calls the callback once with the current value right away.
	Immediate bool

	// Sync runs the callback inside the change notification instead of on
	// the next flush.
	Sync bool
}

var pathSegment = regexp.MustCompile(`^[\w$]+$`)

// parsePath splits a dotted path such as "user.tags.0".
func parsePath(path string) ([]string, error) {
	segs := strings.Split(path, ".")
	for _, s := range segs {
		if !pathSegment.MatchString(s) {
			return nil, fmt.Errorf("%w: %q", reactive.ErrInvalidPath, path)
		}
	}
	return segs, nil
}

// Watch calls cb with the new and old value whenever expr changes. expr is
// a dotted path resolved against state, props and computed properties, or
// a func(*Instance) any. The returned function stops watching.
func (c *Instance) Watch(expr any, cb func(newValue, oldValue any), opts WatchOptions) (unwatch func(), err error) {
	var (
		getter reactive.Getter
		label  string
	)
	switch e := expr.(type) {
	case string:
		segs, err := parsePath(e)
		if err != nil {
			return nil, err
		}
		getter = func() (any, error) { return c.resolvePath(segs), nil }
		label = c.Name() + ":" + e
	case func(*Instance) any:
		getter = func() (any, error) { return e(c), nil }
		label = c.Name() + ":func"
	default:
		return nil, fmt.Errorf("%w: unsupported expression %T", reactive.ErrInvalidPath, expr)
	}

	r := c.r
	w, err := reactive.NewWatcher(r.tracker, getter, reactive.Options{
		Mode:     reactive.ModeUser,
		Deep:     opts.Deep,
		Sync:     opts.Sync,
		Callback: cb,
		OnNotify: func(w *reactive.Watcher) { r.sched.Enqueue(w) },
		OnError: func(*reactive.Watcher, error) {
			r.metrics.RecordWatcherError()
		},
		Label: label,
	})
	if err != nil {
		return nil, err
	}
	c.watchers = append(c.watchers, w)
	if opts.Immediate {
		w.Invoke(w.Value(), nil)
	}
	return func() {
		w.Teardown()
		c.removeWatcher(w)
	}, nil
}

// Lookup resolves a dotted path the way Watch does. Reads are tracked.
func (c *Instance) Lookup(path string) (any, error) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	return c.resolvePath(segs), nil
}

// resolvePath reads a path. The first segment goes through Get, the rest
// walk records, lists, maps and slices.
func (c *Instance) resolvePath(segs []string) any {
	v := c.Get(segs[0])
	for _, seg := range segs[1:] {
		switch val := v.(type) {
		case *reactive.Record:
			v = val.Get(seg)
		case *reactive.List:
			i, err := strconv.Atoi(seg)
			if err != nil {
				return nil
			}
			v = val.At(i)
		case map[string]any:
			v = val[seg]
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(val) {
				return nil
			}
			v = val[i]
		default:
			return nil
		}
	}
	return v
}
