package render

import (
	"github.com/vango-dev/ango/pkg/host"
	"github.com/vango-dev/ango/pkg/reactive"
	"github.com/vango-dev/ango/pkg/sched"
	"github.com/vango-dev/ango/pkg/vdom"
)

// InstanceID identifies an instance within its renderer. Zero is never
// assigned.
type InstanceID uint64

// Instance is a mounted component. All methods must be called from the
// goroutine that drives the renderer.
type Instance struct {
	id   InstanceID
	r    *Renderer
	comp *Component
	key  string
	ref  any

	props   *reactive.Record
	state   *reactive.Record
	context map[string]any

	// Values before the pending update; nil when nothing changed since the
	// last render.
	prevProps   map[string]any
	prevState   map[string]any
	prevContext map[string]any

	base     host.Node
	nextBase host.Node

	// Delegation chain: the component this one renders directly, and the
	// component that renders this one directly.
	childDelegate  InstanceID
	parentDelegate InstanceID

	watcher  *reactive.Watcher
	watchers []*reactive.Watcher
	computed map[string]*reactive.Watcher

	dirty   bool
	disable bool
	phase   Phase

	renderCallbacks []func()
}

var _ sched.Job = (*Instance)(nil)

// ID returns the instance id.
func (c *Instance) ID() InstanceID { return c.id }

// Name returns the component's name.
func (c *Instance) Name() string { return c.comp.spec.Name }

// Type returns the component type.
func (c *Instance) Type() *Component { return c.comp }

// Key returns the key the instance was rendered with.
func (c *Instance) Key() string { return c.key }

// Props returns the observed props. Reading them during render makes them
// render dependencies.
func (c *Instance) Props() *reactive.Record { return c.props }

// State returns the observed state.
func (c *Instance) State() *reactive.Record { return c.state }

// Context returns the context inherited from ancestors.
func (c *Instance) Context() map[string]any { return c.context }

// Base returns the instance's live root, or nil before the first render
// and after unmount.
func (c *Instance) Base() host.Node { return c.base }

// Phase returns the lifecycle phase.
func (c *Instance) Phase() Phase { return c.phase }

// Renderer returns the renderer that owns the instance.
func (c *Instance) Renderer() *Renderer { return c.r }

// Dirty reports whether a re-render is queued.
func (c *Instance) Dirty() bool { return c.dirty }

// Get resolves key on state, then props, then computed properties.
func (c *Instance) Get(key string) any {
	if c.state.Has(key) {
		return c.state.Get(key)
	}
	if c.props.Has(key) {
		return c.props.Get(key)
	}
	if _, ok := c.computed[key]; ok {
		return c.Computed(key)
	}
	return nil
}

// Computed returns the value of a computed property, re-evaluating it if
// one of its inputs changed. The caller's watcher inherits its inputs.
func (c *Instance) Computed(name string) any {
	w := c.computed[name]
	if w == nil {
		return nil
	}
	if w.Dirty() {
		if err := w.Evaluate(); err != nil {
			panic(err)
		}
	}
	if c.r.tracker.Target() != nil {
		w.Depend()
	}
	return w.Value()
}

// SetState merges partial into the state and schedules a re-render. cb runs
// after the next render of this instance.
func (c *Instance) SetState(partial map[string]any, cb func()) {
	c.state.Merge(partial)
	c.afterStateChange(cb)
}

// UpdateState is SetState with the partial state computed from the current
// state and props.
func (c *Instance) UpdateState(fn func(state, props map[string]any) map[string]any, cb func()) {
	partial := fn(c.state.Snapshot(), c.props.Snapshot())
	c.state.Merge(partial)
	c.afterStateChange(cb)
}

func (c *Instance) afterStateChange(cb func()) {
	if cb != nil && c.phase != PhaseUnmounted {
		c.renderCallbacks = append(c.renderCallbacks, cb)
	}
	c.r.enqueue(c)
}

// ForceUpdate re-renders synchronously, bypassing ShouldUpdate.
func (c *Instance) ForceUpdate(cb func()) error {
	if c.base == nil || c.phase == PhaseUnmounted || c.phase == PhaseUnmounting {
		return ErrUnmounted
	}
	if cb != nil {
		c.renderCallbacks = append(c.renderCallbacks, cb)
	}
	return c.r.renderComponent(c, renderForce, false, false)
}

// Watchers returns every watcher the instance owns: render, computed and
// user watchers.
func (c *Instance) Watchers() []*reactive.Watcher {
	var out []*reactive.Watcher
	if c.watcher != nil {
		out = append(out, c.watcher)
	}
	for _, name := range sortedKeys(c.computed) {
		out = append(out, c.computed[name])
	}
	return append(out, c.watchers...)
}

// JobID implements sched.Job. Instances are flushed in render watcher
// creation order, parents before children.
func (c *Instance) JobID() uint64 {
	if c.watcher == nil {
		return 0
	}
	return c.watcher.ID()
}

// RunJob implements sched.Job.
func (c *Instance) RunJob() error {
	if !c.dirty || c.disable {
		return nil
	}
	if c.phase == PhaseUnmounted || c.phase == PhaseUnmounting {
		c.dirty = false
		return nil
	}
	return c.r.renderComponent(c, renderAsync, false, false)
}

// DropJob implements sched.Dropper. A later state change enqueues c again.
func (c *Instance) DropJob() {
	c.dirty = false
}

// snapshotState runs before every effective state write.
func (c *Instance) snapshotState() {
	if c.prevState == nil {
		c.prevState = c.state.Snapshot()
	}
}

// teardown detaches every watcher the instance owns from its deps.
func (c *Instance) teardown() {
	if c.watcher != nil {
		c.watcher.Teardown()
	}
	for _, w := range c.computed {
		w.Teardown()
	}
	for _, w := range c.watchers {
		w.Teardown()
	}
	c.watchers = nil
	c.dirty = false
	c.renderCallbacks = nil
}

func (c *Instance) removeWatcher(w *reactive.Watcher) {
	for i, x := range c.watchers {
		if x == w {
			c.watchers = append(c.watchers[:i], c.watchers[i+1:]...)
			return
		}
	}
}

// nodeProps returns the props for a component vnode with defaults applied.
func nodeProps(v *vdom.VNode) map[string]any {
	props := v.Props()
	if comp, ok := v.Type.(*Component); ok {
		for k, val := range comp.spec.DefaultProps {
			if _, set := props[k]; !set {
				props[k] = val
			}
		}
	}
	return props
}
