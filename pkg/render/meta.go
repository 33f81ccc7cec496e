package render

import (
	"strings"

	"github.com/vango-dev/ango/pkg/host"
	"github.com/vango-dev/ango/pkg/vdom"
)

// nodeMeta is the renderer's bookkeeping for one live node, kept in the
// host's per-node data slot.
type nodeMeta struct {
	// attrs caches the attributes last applied to the node. A node without
	// a cache was not built by this renderer.
	attrs map[string]any
	key   string

	// component is the outermost instance whose live root this node is.
	component InstanceID
	ctype     vdom.TypeID

	// listeners maps an event slot to the current handler. The installed
	// host listener reads it on every event.
	listeners map[listenerSlot]any
}

type listenerSlot struct {
	event   string
	capture bool
}

func (r *Renderer) meta(n host.Node) *nodeMeta {
	m, _ := r.host.NodeData(n).(*nodeMeta)
	return m
}

func (r *Renderer) ensureMeta(n host.Node) *nodeMeta {
	if m := r.meta(n); m != nil {
		return m
	}
	m := &nodeMeta{}
	r.host.SetNodeData(n, m)
	return m
}

// nodeKey returns the reconciliation key of a live child.
func (r *Renderer) nodeKey(n host.Node) string {
	m := r.meta(n)
	if m == nil {
		return ""
	}
	if c := r.Instance(m.component); c != nil {
		return c.key
	}
	return m.key
}

// ownedByComponent reports whether n is the live root of a mounted instance.
func (r *Renderer) ownedByComponent(n host.Node) bool {
	m := r.meta(n)
	return m != nil && r.Instance(m.component) != nil
}

// isNamedNode reports whether n is an element with tag.
func (r *Renderer) isNamedNode(n host.Node, tag string) bool {
	return !r.host.IsText(n) && strings.EqualFold(r.host.TagName(n), tag)
}

// isSameNodeType reports whether n can be reconciled against v.
func (r *Renderer) isSameNodeType(n host.Node, v *vdom.VNode, hydrating bool) bool {
	switch {
	case v == nil || v.Kind == vdom.KindText:
		return r.host.IsText(n)
	case v.Kind == vdom.KindElement:
		m := r.meta(n)
		return (m == nil || m.ctype == 0) && r.isNamedNode(n, v.Tag)
	default:
		if hydrating {
			return true
		}
		m := r.meta(n)
		return m != nil && m.ctype == v.Type.TypeID()
	}
}

func (r *Renderer) removeNode(n host.Node) {
	if p := r.host.Parent(n); p != nil {
		r.host.RemoveChild(p, n)
	}
}
