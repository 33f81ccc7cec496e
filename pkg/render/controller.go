package render

import (
	"fmt"
	"maps"

	"github.com/vango-dev/ango/pkg/host"
	"github.com/vango-dev/ango/pkg/instrument"
	"github.com/vango-dev/ango/pkg/reactive"
	"github.com/vango-dev/ango/pkg/vdom"
)

type renderMode uint8

const (
	renderNone renderMode = iota
	renderSync
	renderForce
	renderAsync
)

// buildComponentFromVNode reconciles a component vnode against dom,
// reusing the instance that owns dom when its type matches.
func (r *Renderer) buildComponentFromVNode(dom host.Node, vnode *vdom.VNode, context map[string]any, mountAll bool) (host.Node, error) {
	var c *Instance
	if dom != nil {
		if m := r.meta(dom); m != nil {
			c = r.Instance(m.component)
		}
	}
	original, oldDom := c, dom
	typeID := vnode.Type.TypeID()
	isDirectOwner := c != nil && c.comp.id == typeID
	isOwner := isDirectOwner
	for c != nil && !isOwner {
		c = r.Instance(c.parentDelegate)
		isOwner = c != nil && c.comp.id == typeID
	}

	props := nodeProps(vnode)
	if c != nil && isOwner && (!mountAll || c.childDelegate != 0) {
		if err := r.setComponentProps(c, props, vnode.Key, renderSync, context, mountAll); err != nil {
			return c.base, err
		}
		return c.base, nil
	}

	if original != nil && !isDirectOwner {
		r.unmountComponent(original)
		dom, oldDom = nil, nil
	}

	c, err := r.createComponent(vnode.Type, props, context)
	if err != nil {
		return dom, err
	}
	if dom != nil && c.nextBase == nil {
		c.nextBase = dom
		oldDom = nil
	}
	if err := r.setComponentProps(c, props, vnode.Key, renderSync, context, mountAll); err != nil {
		return dom, err
	}
	dom = c.base
	if oldDom != nil && dom != oldDom {
		if m := r.meta(oldDom); m != nil {
			m.component = 0
		}
		r.recollectNodeTree(oldDom, false)
	}
	return dom, nil
}

// createComponent builds an unmounted instance of t. State, computed
// properties and declared watchers are initialized here.
func (r *Renderer) createComponent(t vdom.ComponentType, props, context map[string]any) (*Instance, error) {
	comp, ok := t.(*Component)
	if !ok {
		name := "<nil>"
		if t != nil {
			name = t.TypeName()
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}

	r.lastID++
	c := &Instance{
		id:      r.lastID,
		r:       r,
		comp:    comp,
		context: context,
	}
	c.props = reactive.NewRecord(r.tracker, maps.Clone(props))

	var initial map[string]any
	if comp.spec.State != nil {
		err := r.call(c, "State", func() {
			initial = comp.spec.State(c)
		})
		if err != nil {
			return nil, err
		}
	}
	c.state = reactive.NewRecord(r.tracker, maps.Clone(initial), reactive.BeforeWrite(c.snapshotState))

	if len(comp.spec.Computed) > 0 {
		c.computed = make(map[string]*reactive.Watcher, len(comp.spec.Computed))
		for _, name := range sortedKeys(comp.spec.Computed) {
			fn := comp.spec.Computed[name]
			w, err := reactive.NewWatcher(r.tracker, func() (any, error) {
				return fn(c), nil
			}, reactive.Options{Mode: reactive.ModeComputed, Label: c.Name() + "." + name})
			if err != nil {
				c.teardown()
				return nil, wrapError(c, "Computed", err)
			}
			c.computed[name] = w
		}
	}

	for _, path := range sortedKeys(comp.spec.Watch) {
		handler := comp.spec.Watch[path]
		_, err := c.Watch(path, func(newValue, oldValue any) {
			handler(c, newValue, oldValue)
		}, WatchOptions{})
		if err != nil {
			c.teardown()
			return nil, wrapError(c, "Watch", err)
		}
	}

	c.nextBase = r.pool.take(comp.id)
	r.instances[c.id] = c
	return c, nil
}

// setComponentProps hands new props and context to c and renders it unless
// mode is renderNone.
func (r *Renderer) setComponentProps(c *Instance, props map[string]any, key string, mode renderMode, context map[string]any, mountAll bool) error {
	if c.disable {
		return nil
	}
	c.disable = true

	c.ref = props["ref"]
	delete(props, "ref")
	c.key = key

	var err error
	if c.base == nil {
		c.phase = PhaseMounting
		err = r.call(c, "WillMount", func() {
			if r.hooks.BeforeMount != nil {
				r.hooks.BeforeMount(c)
			}
			if c.comp.spec.WillMount != nil {
				c.comp.spec.WillMount(c)
			}
		})
	} else if c.comp.spec.WillReceiveProps != nil {
		err = r.call(c, "WillReceiveProps", func() {
			c.comp.spec.WillReceiveProps(c, props, context)
		})
	}
	if err != nil {
		c.disable = false
		if c.base == nil {
			r.discard(c)
		}
		return err
	}

	if context != nil && !sameMap(context, c.context) {
		if c.prevContext == nil {
			c.prevContext = c.context
		}
		c.context = context
	}

	if c.prevProps == nil {
		c.prevProps = c.props.Snapshot()
	}
	c.props.Assign(props)
	c.disable = false

	if mode != renderNone {
		if err := r.renderComponent(c, renderSync, mountAll, false); err != nil {
			return err
		}
	}

	if c.ref != nil {
		r.callRef(c.ref, c)
	}
	return nil
}

// renderComponent renders c and reconciles its output into its live root.
func (r *Renderer) renderComponent(c *Instance, mode renderMode, mountAll, isChild bool) (err error) {
	if c.disable {
		return nil
	}

	spec := &c.comp.spec
	props := c.props.Snapshot()
	state := c.state.Snapshot()
	context := c.context

	prevProps := c.prevProps
	if prevProps == nil {
		prevProps = props
	}
	prevState := c.prevState
	if prevState == nil {
		prevState = state
	}
	prevContext := c.prevContext
	if prevContext == nil {
		prevContext = context
	}

	isUpdate := c.base != nil
	nextBase := c.nextBase
	initialBase := c.base
	if initialBase == nil {
		initialBase = nextBase
	}
	initialChild := r.Instance(c.childDelegate)

	_, span := r.tracer.Start(r.ctx, "ango.render", instrument.Component(c.Name()))
	defer func() {
		if err != nil {
			if !isUpdate && c.base == nil {
				r.discard(c)
			}
			if r.diffLevel == 0 && !isChild {
				r.mounts = r.mounts[:0]
			}
		}
		span.End(err)
	}()

	skip := false
	if isUpdate {
		if c.phase == PhaseMounted {
			c.phase = PhaseUpdating
		}
		if mode != renderForce && spec.ShouldUpdate != nil {
			var should bool
			err = r.call(c, "ShouldUpdate", func() {
				should = spec.ShouldUpdate(c, prevProps, prevState)
			})
			if err != nil {
				return err
			}
			skip = !should
		}
		if !skip {
			err = r.call(c, "WillUpdate", func() {
				if r.hooks.BeforeUpdate != nil {
					r.hooks.BeforeUpdate(c)
				}
				if spec.WillUpdate != nil {
					spec.WillUpdate(c, prevProps, prevState)
				}
			})
			if err != nil {
				return err
			}
		}
	}

	c.prevProps, c.prevState, c.prevContext = nil, nil, nil
	c.nextBase = nil
	c.dirty = false

	if skip {
		r.metrics.RecordRenderSkip(c.Name())
	} else {
		rendered, rerr := r.runRender(c)
		if rerr != nil {
			return rerr
		}
		r.metrics.RecordRender(c.Name())

		if spec.ChildContext != nil {
			var extra map[string]any
			err = r.call(c, "ChildContext", func() {
				extra = spec.ChildContext(c)
			})
			if err != nil {
				return err
			}
			merged := make(map[string]any, len(context)+len(extra))
			maps.Copy(merged, context)
			maps.Copy(merged, extra)
			context = merged
		}

		var (
			base      host.Node
			toUnmount *Instance
			inst      *Instance
		)
		if rendered != nil && rendered.Kind == vdom.KindComponent {
			childProps := nodeProps(rendered)
			inst = initialChild
			if inst != nil && inst.comp.id == rendered.Type.TypeID() && inst.key == rendered.Key {
				if err = r.setComponentProps(inst, childProps, rendered.Key, renderSync, context, false); err != nil {
					return err
				}
			} else {
				toUnmount = inst
				inst, err = r.createComponent(rendered.Type, childProps, context)
				if err != nil {
					return err
				}
				c.childDelegate = inst.id
				if inst.nextBase == nil {
					inst.nextBase = nextBase
				}
				inst.parentDelegate = c.id
				if err = r.setComponentProps(inst, childProps, rendered.Key, renderNone, context, false); err != nil {
					return err
				}
				if err = r.renderComponent(inst, renderSync, mountAll, true); err != nil {
					return err
				}
			}
			base = inst.base
		} else {
			cbase := initialBase
			toUnmount = initialChild
			if toUnmount != nil {
				cbase = nil
				c.childDelegate = 0
			}
			if initialBase != nil || mode == renderSync {
				if cbase != nil {
					if m := r.meta(cbase); m != nil {
						m.component = 0
					}
				}
				var parent host.Node
				if initialBase != nil {
					parent = r.host.Parent(initialBase)
				}
				base, err = r.diff(cbase, rendered, context, mountAll || !isUpdate, parent, true)
				if err != nil {
					if cbase != nil && c.base == cbase {
						r.adopt(c, cbase)
					}
					return err
				}
			}
		}

		if initialBase != nil && base != initialBase && inst != initialChild {
			if p := r.host.Parent(initialBase); p != nil && base != p {
				r.host.InsertBefore(p, base, initialBase)
				if toUnmount == nil {
					if m := r.meta(initialBase); m != nil {
						m.component = 0
					}
					r.recollectNodeTree(initialBase, false)
				} else {
					r.removeNode(initialBase)
				}
			}
		}

		if toUnmount != nil {
			r.unmountComponent(toUnmount)
		}

		c.base = base
		if base != nil && !isChild {
			r.adopt(c, base)
		}
	}

	if !isUpdate {
		r.mounts = append(r.mounts, c)
	} else {
		if !skip {
			err = r.call(c, "DidUpdate", func() {
				if spec.DidUpdate != nil {
					spec.DidUpdate(c, prevProps, prevState, prevContext)
				}
				if r.hooks.AfterUpdate != nil {
					r.hooks.AfterUpdate(c)
				}
			})
		}
		if c.phase == PhaseUpdating {
			c.phase = PhaseMounted
		}
		if err != nil {
			return err
		}
	}

	for len(c.renderCallbacks) > 0 {
		cb := c.renderCallbacks[0]
		c.renderCallbacks = c.renderCallbacks[1:]
		if err = r.call(c, "callback", cb); err != nil {
			return err
		}
	}

	if r.diffLevel == 0 && !isChild {
		return r.flushMounts()
	}
	return nil
}

// runRender evaluates the render function under c's render watcher. The
// first call creates the watcher.
func (r *Renderer) runRender(c *Instance) (*vdom.VNode, error) {
	var (
		value any
		err   error
	)
	if c.watcher == nil {
		var w *reactive.Watcher
		w, err = reactive.NewWatcher(r.tracker, func() (any, error) {
			return c.comp.spec.Render(c), nil
		}, reactive.Options{
			Mode:     reactive.ModeRender,
			OnNotify: func(*reactive.Watcher) { r.enqueue(c) },
			Label:    c.Name(),
		})
		if w != nil {
			c.watcher = w
			value = w.Value()
		}
	} else {
		value, err = c.watcher.Get()
	}
	if err != nil {
		return nil, wrapError(c, "Render", err)
	}
	vnode, _ := value.(*vdom.VNode)
	return vnode, nil
}

// adopt records the outermost component of c's delegation chain as the
// owner of base, and gives every instance in the chain the same base.
func (r *Renderer) adopt(c *Instance, base host.Node) {
	owner := c
	for p := r.Instance(c.parentDelegate); p != nil; p = r.Instance(p.parentDelegate) {
		p.base = base
		owner = p
	}
	m := r.ensureMeta(base)
	m.component = owner.id
	m.ctype = owner.comp.id
}

// unmountComponent tears c down and recycles its live root.
func (r *Renderer) unmountComponent(c *Instance) {
	if r.instances[c.id] != c {
		return
	}
	err := r.call(c, "WillUnmount", func() {
		if r.hooks.BeforeUnmount != nil {
			r.hooks.BeforeUnmount(c)
		}
		c.phase = PhaseUnmounting
		c.disable = true
		if c.comp.spec.WillUnmount != nil {
			c.comp.spec.WillUnmount(c)
		}
	})
	if err != nil {
		r.logger.Warn("unmount hook failed", "component", c.Name(), "error", err)
	}
	c.phase = PhaseUnmounting
	c.disable = true

	base := c.base
	c.base = nil

	if inner := r.Instance(c.childDelegate); inner != nil {
		r.unmountComponent(inner)
	} else if base != nil {
		if m := r.meta(base); m != nil {
			if ref := m.attrs["ref"]; ref != nil {
				r.callRef(ref, nil)
			}
			m.component = 0
			m.ctype = 0
		}
		r.removeNode(base)
		r.pool.put(c.comp.id, base)
		r.removeChildren(base)
	}

	if c.ref != nil {
		r.callRef(c.ref, nil)
	}
	r.discard(c)
	r.metrics.RecordUnmount(c.Name())
}

// discard tears down c's watchers and drops it from the arena.
func (r *Renderer) discard(c *Instance) {
	c.teardown()
	c.phase = PhaseUnmounted
	c.childDelegate = 0
	c.nextBase = nil
	delete(r.instances, c.id)
}

func sameMap(a, b map[string]any) bool {
	if len(a) != len(b) || (a == nil) != (b == nil) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !equalAttr(v, w) {
			return false
		}
	}
	return true
}
