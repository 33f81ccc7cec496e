package render

import (
	"github.com/vango-dev/ango/pkg/vdom"
)

// Phase is an instance's lifecycle phase.
type Phase uint8

const (
	PhaseUnmounted Phase = iota
	PhaseMounting
	PhaseMounted
	PhaseUpdating
	PhaseUnmounting
)

// String returns the string representation of the Phase.
func (p Phase) String() string {
	switch p {
	case PhaseUnmounted:
		return "unmounted"
	case PhaseMounting:
		return "mounting"
	case PhaseMounted:
		return "mounted"
	case PhaseUpdating:
		return "updating"
	case PhaseUnmounting:
		return "unmounting"
	default:
		return "unknown"
	}
}

// Spec defines a component type. Only Render is required.
type Spec struct {
	// Name identifies the component in errors, logs and metrics.
	Name string

	// DefaultProps fills props the parent did not pass.
	DefaultProps map[string]any

	// State returns the initial state. It runs once per instance.
	State func(c *Instance) map[string]any

	// Computed properties are lazily evaluated and cached until one of
	// their dependencies changes. Read them with Instance.Computed.
	Computed map[string]func(c *Instance) any

	// Watch registers a user watcher per path expression at construction.
	Watch map[string]func(c *Instance, newValue, oldValue any)

	// Render produces the component's tree. Props, state and computed
	// values read here become render dependencies.
	Render func(c *Instance) *vdom.VNode

	// ChildContext is merged over the inherited context for descendants.
	ChildContext func(c *Instance) map[string]any

	WillMount        func(c *Instance)
	DidMount         func(c *Instance)
	WillReceiveProps func(c *Instance, nextProps, nextContext map[string]any)

	// ShouldUpdate can veto a re-render. Props and state are already
	// committed when it runs; prevProps and prevState hold the old values.
	ShouldUpdate func(c *Instance, prevProps, prevState map[string]any) bool

	WillUpdate  func(c *Instance, prevProps, prevState map[string]any)
	DidUpdate   func(c *Instance, prevProps, prevState, prevContext map[string]any)
	WillUnmount func(c *Instance)
}

// Component is a defined component type. It implements vdom.ComponentType.
type Component struct {
	id   vdom.TypeID
	spec Spec
}

var _ vdom.ComponentType = (*Component)(nil)

// Define creates a component type. It panics if spec.Render is nil.
func Define(spec Spec) *Component {
	if spec.Render == nil {
		panic("render: Define requires a Render function")
	}
	if spec.Name == "" {
		spec.Name = "Anonymous"
	}
	return &Component{id: vdom.NewTypeID(), spec: spec}
}

// Func defines a stateless component from a function of props and context.
func Func(name string, fn func(props, context map[string]any) *vdom.VNode) *Component {
	return Define(Spec{
		Name: name,
		Render: func(c *Instance) *vdom.VNode {
			props := make(map[string]any)
			for _, k := range c.Props().Keys() {
				props[k] = c.Props().Get(k)
			}
			return fn(props, c.Context())
		},
	})
}

// TypeID implements vdom.ComponentType.
func (c *Component) TypeID() vdom.TypeID { return c.id }

// TypeName implements vdom.ComponentType.
func (c *Component) TypeName() string { return c.spec.Name }

// Spec returns the component's definition.
func (c *Component) Spec() Spec { return c.spec }
