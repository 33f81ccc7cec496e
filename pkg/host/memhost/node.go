package memhost

import (
	"sort"
	"strings"

	"github.com/vango-dev/ango/pkg/host"
)

type listenerKey struct {
	event   string
	capture bool
}

// Node is an element or text node in a Document.
type Node struct {
	id   int
	tag  string
	text string
	svg  bool

	parent   *Node
	children []*Node

	attrs      map[string]string
	props      map[string]any
	style      map[string]string
	styleOrder []string
	listeners  map[listenerKey]func(host.Event)

	data any
}

// ID returns the node's creation-order id within its Document.
func (n *Node) ID() int { return n.id }

// Tag returns the element tag, or "" for text nodes.
func (n *Node) Tag() string { return n.tag }

// IsText reports whether n is a text node.
func (n *Node) IsText() bool { return n.tag == "" }

// IsSVG reports whether n was created in the SVG namespace.
func (n *Node) IsSVG() bool { return n.svg }

// Value returns a text node's content.
func (n *Node) Value() string { return n.text }

// Parent returns the parent node or nil.
func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Child returns the i-th child or nil.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// Attr returns an attribute value.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// AttrNames returns the attribute names, sorted.
func (n *Node) AttrNames() []string {
	names := make([]string, 0, len(n.attrs))
	for k := range n.attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Prop returns a property value.
func (n *Node) Prop(name string) any { return n.props[name] }

// Style returns one inline style property.
func (n *Node) Style(prop string) string { return n.style[prop] }

// StyleText returns the inline style as CSS text.
func (n *Node) StyleText() string {
	parts := make([]string, 0, len(n.styleOrder))
	for _, p := range n.styleOrder {
		parts = append(parts, p+": "+n.style[p])
	}
	return strings.Join(parts, "; ")
}

// HasListener reports whether a listener is installed for event.
func (n *Node) HasListener(event string, capture bool) bool {
	_, ok := n.listeners[listenerKey{event, capture}]
	return ok
}

// ListenerCount returns the number of installed listeners.
func (n *Node) ListenerCount() int { return len(n.listeners) }

// TextContent returns the concatenated text of n and its descendants.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.text
	}
	var b strings.Builder
	for _, c := range n.children {
		b.WriteString(c.TextContent())
	}
	return b.String()
}

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

func (n *Node) detach() {
	p := n.parent
	if p == nil {
		return
	}
	if i := p.indexOf(n); i >= 0 {
		p.children = append(p.children[:i], p.children[i+1:]...)
	}
	n.parent = nil
}

func (n *Node) setStyle(prop, value string) {
	if n.style == nil {
		n.style = make(map[string]string)
	}
	if value == "" {
		if _, ok := n.style[prop]; !ok {
			return
		}
		delete(n.style, prop)
		for i, p := range n.styleOrder {
			if p == prop {
				n.styleOrder = append(n.styleOrder[:i], n.styleOrder[i+1:]...)
				break
			}
		}
		return
	}
	if _, ok := n.style[prop]; !ok {
		n.styleOrder = append(n.styleOrder, prop)
	}
	n.style[prop] = value
}

// parseStyle splits CSS text into property/value pairs.
func parseStyle(css string) [][2]string {
	var out [][2]string
	for _, decl := range strings.Split(css, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name == "" || value == "" {
			continue
		}
		out = append(out, [2]string{name, value})
	}
	return out
}
