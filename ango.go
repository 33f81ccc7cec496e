// Package ango provides the public API for building component trees.
//
// This is the recommended import for most applications:
//
//	import "github.com/vango-dev/ango"
//
// Usage:
//
//	counter := ango.Define(ango.Spec{
//		Name:  "Counter",
//		State: func(*ango.Instance) map[string]any { return map[string]any{"n": 0} },
//		Render: func(c *ango.Instance) *ango.VNode {
//			return ango.H("button", ango.Attrs{
//				"onClick": func(ango.Event) { c.SetState(map[string]any{"n": c.Get("n").(int) + 1}, nil) },
//			}, c.Get("n"))
//		},
//	})
//	r := ango.NewRenderer(host)
//	root, err := r.Mount(ctx, ango.H(counter, nil), container, nil)
package ango

import (
	"github.com/vango-dev/ango/pkg/host"
	"github.com/vango-dev/ango/pkg/reactive"
	"github.com/vango-dev/ango/pkg/render"
	"github.com/vango-dev/ango/pkg/sched"
	"github.com/vango-dev/ango/pkg/vdom"
)

// =============================================================================
// Virtual nodes
// =============================================================================

// VNode is an immutable description of one node.
type VNode = vdom.VNode

// Attrs holds attributes, styles, event handlers and refs.
type Attrs = vdom.Attrs

// ComponentType identifies a component kind.
type ComponentType = vdom.ComponentType

// H creates a node. typ is a tag name or a ComponentType.
func H(typ any, attrs Attrs, children ...any) *VNode {
	return vdom.H(typ, attrs, children...)
}

// Text creates a text node.
func Text(v any) *VNode { return vdom.Text(v) }

// Clone copies v with merged attributes and, if given, new children.
func Clone(v *VNode, attrs Attrs, children ...any) *VNode {
	return vdom.Clone(v, attrs, children...)
}

// =============================================================================
// Components
// =============================================================================

// Spec describes a component type.
type Spec = render.Spec

// Component is a defined component type.
type Component = render.Component

// Instance is a mounted component.
type Instance = render.Instance

// Phase is an instance's lifecycle phase.
type Phase = render.Phase

// Hooks are called around every instance's lifecycle.
type Hooks = render.Hooks

// WatchOptions configures Instance.Watch.
type WatchOptions = render.WatchOptions

// Define creates a component type from spec.
func Define(spec Spec) *Component { return render.Define(spec) }

// Func creates a stateless component type from a render function.
func Func(name string, fn func(props, context map[string]any) *VNode) *Component {
	return render.Func(name, fn)
}

// =============================================================================
// Rendering
// =============================================================================

// Renderer reconciles virtual trees into a host tree.
type Renderer = render.Renderer

// Option configures a Renderer.
type Option = render.Option

// Host is the live tree a Renderer mutates.
type Host = host.Host

// Event is a host event delivered to listeners.
type Event = host.Event

// RenderError reports a failing component function.
type RenderError = render.RenderError

// NewRenderer creates a Renderer over h.
func NewRenderer(h Host, opts ...Option) *Renderer { return render.New(h, opts...) }

// Renderer options.
var (
	WithLogger         = render.WithLogger
	WithHooks          = render.WithHooks
	WithUnitless       = render.WithUnitless
	WithPoolSize       = render.WithPoolSize
	WithMaxUpdateCount = render.WithMaxUpdateCount
	WithMetrics        = render.WithMetrics
	WithTracer         = render.WithTracer
	WithDeferrer       = render.WithDeferrer
	WithErrorHandler   = render.WithErrorHandler
)

// Errors.
var (
	ErrNilContainer   = render.ErrNilContainer
	ErrUnmounted      = render.ErrUnmounted
	ErrNotRoot        = render.ErrNotRoot
	ErrInfiniteUpdate = sched.ErrInfiniteUpdate
	ErrInvalidPath    = reactive.ErrInvalidPath
)

// Freeze marks v so it is never made reactive.
func Freeze(v any) reactive.Frozen { return reactive.Freeze(v) }

// ToRaw returns a plain copy of a reactive value.
func ToRaw(v any) any { return reactive.ToRaw(v) }
