// Package host defines the presentation-tree capability consumed by the
// renderer.
//
// The renderer never creates or mutates presentation nodes itself. It goes
// through a Host, which owns node creation, structure, attributes, inline
// styles, properties and event delivery. A Host also gives every node a
// data slot the renderer uses for its bookkeeping.
//
// Node values are opaque to the renderer. A nil Node means "no node".
// Implementations must return an untyped nil, never a typed nil pointer,
// for absent nodes.
package host

import "errors"

// Node is a live presentation node owned by a Host.
type Node any

// ErrPropertyType is returned by SetProperty when the host rejects a value
// of the wrong kind.
var ErrPropertyType = errors.New("host: property type mismatch")

// Event is delivered to listeners.
type Event struct {
	// Type is the lowercase event name, e.g. "click".
	Type string

	// Target is the node the event was dispatched on.
	Target Node

	// CurrentTarget is the node whose listener is running.
	CurrentTarget Node

	// Data carries event-specific fields.
	Data map[string]any
}

// Tree creates nodes and edits structure.
type Tree interface {
	// CreateElement creates an element. svg selects the SVG namespace.
	CreateElement(tag string, svg bool) Node
	CreateText(text string) Node

	IsText(n Node) bool
	// TagName returns the element's tag as created, or "" for text.
	TagName(n Node) string
	IsSVG(n Node) bool

	Text(n Node) string
	SetText(n Node, text string)

	Parent(n Node) Node
	ChildNodes(n Node) []Node
	ChildAt(n Node, i int) Node
	NextSibling(n Node) Node

	// InsertBefore inserts child before ref, or appends when ref is nil.
	// A child that already has a parent is moved.
	InsertBefore(parent, child, ref Node)
	AppendChild(parent, child Node)
	RemoveChild(parent, child Node)
}

// Attributes edits element attributes and host properties.
type Attributes interface {
	// Attributes returns the element's attributes. Used for hydration.
	Attributes(n Node) map[string]string
	SetAttribute(n Node, name, value string)
	RemoveAttribute(n Node, name string)

	// HasProperty reports whether the element exposes name as a property.
	HasProperty(n Node, name string) bool
	Property(n Node, name string) any
	SetProperty(n Node, name string, value any) error
}

// Styles edits inline styles.
type Styles interface {
	// SetStyleText replaces the whole inline style.
	SetStyleText(n Node, css string)
	// SetStyle sets one style property. An empty value removes it.
	SetStyle(n Node, prop, value string)
}

// Events installs listeners.
type Events interface {
	AddEventListener(n Node, event string, capture bool, fn func(Event))
	RemoveEventListener(n Node, event string, capture bool)
}

// Data attaches renderer bookkeeping to nodes.
type Data interface {
	NodeData(n Node) any
	SetNodeData(n Node, data any)
}

// Host is the full capability set a renderer needs.
type Host interface {
	Tree
	Attributes
	Styles
	Events
	Data
}
