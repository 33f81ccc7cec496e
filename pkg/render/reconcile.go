package render

import (
	"strings"

	"github.com/vango-dev/ango/pkg/host"
	"github.com/vango-dev/ango/pkg/vdom"
)

var emptyText = vdom.Text("")

// diff reconciles dom against vnode and appends the result to parent when
// it is not already there. The outermost call owns the pass state and
// flushes pending mount hooks unless it reconciles a component root.
func (r *Renderer) diff(dom host.Node, vnode *vdom.VNode, context map[string]any, mountAll bool, parent host.Node, componentRoot bool) (host.Node, error) {
	if r.diffLevel == 0 {
		r.svgMode = parent != nil && r.host.IsSVG(parent)
		r.hydrating = dom != nil && r.meta(dom) == nil
	}
	r.diffLevel++
	ret, err := r.idiff(dom, vnode, context, mountAll, componentRoot)
	if err == nil && parent != nil && ret != nil && r.host.Parent(ret) != parent {
		r.host.AppendChild(parent, ret)
	}
	r.diffLevel--

	if r.diffLevel == 0 {
		r.hydrating = false
		if err != nil {
			// The pass was aborted; its pending mount hooks are dropped.
			r.mounts = r.mounts[:0]
			return ret, err
		}
		if !componentRoot {
			if ferr := r.flushMounts(); ferr != nil {
				return ret, ferr
			}
		}
	}
	return ret, err
}

// idiff reconciles one node.
func (r *Renderer) idiff(dom host.Node, vnode *vdom.VNode, context map[string]any, mountAll, componentRoot bool) (host.Node, error) {
	prevSVG := r.svgMode
	defer func() { r.svgMode = prevSVG }()

	if vnode == nil {
		vnode = emptyText
	}

	if vnode.Kind == vdom.KindText {
		return r.diffText(dom, vnode.TextValue(), componentRoot), nil
	}

	if vnode.Kind == vdom.KindComponent {
		return r.buildComponentFromVNode(dom, vnode, context, mountAll)
	}

	tag := vnode.Tag
	if tag == "svg" {
		r.svgMode = true
	}
	// foreignObject is itself an SVG element; its content is not.
	childSVG := r.svgMode && tag != "foreignObject"

	out := dom
	if dom != nil && !componentRoot && r.ownedByComponent(dom) {
		// A keyed match or an existing root may be another component's
		// live root; that component is unmounted with its whole subtree.
		out = r.host.CreateElement(tag, r.svgMode)
		if p := r.host.Parent(dom); p != nil {
			r.host.InsertBefore(p, out, dom)
		}
		r.recollectNodeTree(dom, false)
	} else if dom == nil || !r.isNamedNode(dom, tag) {
		out = r.host.CreateElement(tag, r.svgMode)
		if dom != nil {
			// Move the old node's children into the replacement.
			for child := r.host.ChildAt(dom, 0); child != nil; child = r.host.ChildAt(dom, 0) {
				r.host.AppendChild(out, child)
			}
			if p := r.host.Parent(dom); p != nil {
				r.host.InsertBefore(p, out, dom)
			}
			r.recollectNodeTree(dom, false)
		}
	}

	m := r.ensureMeta(out)
	if m.attrs == nil {
		m.attrs = make(map[string]any)
		for name, value := range r.host.Attributes(out) {
			m.attrs[name] = value
		}
	}
	m.key = vnode.Key

	fc := r.host.ChildAt(out, 0)
	vchildren := vnode.Children
	if !r.hydrating && len(vchildren) == 1 && vchildren[0] != nil && vchildren[0].Kind == vdom.KindText &&
		fc != nil && r.host.IsText(fc) && r.host.NextSibling(fc) == nil {
		if text := vchildren[0].TextValue(); r.host.Text(fc) != text {
			r.host.SetText(fc, text)
		}
	} else if len(vchildren) > 0 || fc != nil {
		elementSVG := r.svgMode
		r.svgMode = childSVG
		err := r.innerDiffNode(out, vchildren, context, mountAll, r.hydrating)
		r.svgMode = elementSVG
		if err != nil {
			return out, err
		}
	}

	r.diffAttributes(out, vnode.Attrs, m)
	return out, nil
}

// diffText reuses dom when it is a text node and replaces it otherwise.
func (r *Renderer) diffText(dom host.Node, text string, componentRoot bool) host.Node {
	if dom != nil && r.host.IsText(dom) && r.host.Parent(dom) != nil {
		m := r.meta(dom)
		if m == nil || m.component == 0 || componentRoot {
			if r.host.Text(dom) != text {
				r.host.SetText(dom, text)
			}
			if m == nil {
				r.ensureMeta(dom).attrs = map[string]any{}
			}
			return dom
		}
	}

	out := r.host.CreateText(text)
	r.ensureMeta(out).attrs = map[string]any{}
	if dom != nil {
		if p := r.host.Parent(dom); p != nil {
			r.host.InsertBefore(p, out, dom)
		}
		r.recollectNodeTree(dom, false)
	}
	return out
}

// innerDiffNode reconciles the children of dom against vchildren.
func (r *Renderer) innerDiffNode(dom host.Node, vchildren []*vdom.VNode, context map[string]any, mountAll, hydrating bool) error {
	original := r.host.ChildNodes(dom)

	var (
		keyed     map[string]host.Node
		keyOrder  []string
		children  []host.Node
		keyedLen  int
		min       int
		childrenN int
		dups      []host.Node
	)

	if len(original) > 0 {
		for _, child := range original {
			m := r.meta(child)
			key := ""
			if len(vchildren) > 0 && m != nil && m.attrs != nil {
				key = r.nodeKey(child)
			}
			switch {
			case key != "":
				if keyed == nil {
					keyed = make(map[string]host.Node)
				}
				if prev, dup := keyed[key]; dup {
					r.logger.Debug("duplicate sibling key", "key", key)
					dups = append(dups, prev)
				} else {
					keyOrder = append(keyOrder, key)
					keyedLen++
				}
				keyed[key] = child
			case m != nil && m.attrs != nil:
				children = append(children, child)
			case r.host.IsText(child):
				if !hydrating || strings.TrimSpace(r.host.Text(child)) != "" {
					children = append(children, child)
				}
			case hydrating:
				children = append(children, child)
			}
		}
		childrenN = len(children)
	}

	for i, vchild := range vchildren {
		var child host.Node

		if vchild != nil && vchild.Key != "" {
			if keyedLen > 0 {
				if c, ok := keyed[vchild.Key]; ok {
					child = c
					delete(keyed, vchild.Key)
					keyedLen--
				}
			}
		} else if min < childrenN {
			for j := min; j < childrenN; j++ {
				c := children[j]
				if c != nil && r.isSameNodeType(c, vchild, hydrating) {
					child = c
					children[j] = nil
					if j == childrenN-1 {
						childrenN--
					}
					if j == min {
						min++
					}
					break
				}
			}
		}

		child, err := r.idiff(child, vchild, context, mountAll, false)
		if err != nil {
			return err
		}

		f := r.host.ChildAt(dom, i)
		if child != nil && child != dom && child != f {
			switch {
			case f == nil:
				r.host.AppendChild(dom, child)
			case child == r.host.NextSibling(f):
				r.removeNode(f)
			default:
				r.host.InsertBefore(dom, child, f)
			}
		}
	}

	// Discard keyed children that were not reused.
	if keyedLen > 0 {
		for _, key := range keyOrder {
			if c, ok := keyed[key]; ok {
				r.recollectNodeTree(c, false)
			}
		}
	}

	// Discard unkeyed children that were not reused.
	for i := childrenN - 1; i >= min; i-- {
		if c := children[i]; c != nil {
			r.recollectNodeTree(c, false)
		}
	}

	// Only the last live child with a repeated key can be matched.
	for _, c := range dups {
		r.recollectNodeTree(c, false)
	}
	return nil
}

// recollectNodeTree removes node and tears down everything it hosts. With
// unmountOnly set, a node the renderer built stays attached to its
// (already detached) parent.
func (r *Renderer) recollectNodeTree(node host.Node, unmountOnly bool) {
	m := r.meta(node)
	if m != nil {
		if c := r.Instance(m.component); c != nil {
			r.unmountComponent(c)
			return
		}
	}

	if m != nil && m.attrs != nil {
		if ref := m.attrs["ref"]; ref != nil {
			r.callRef(ref, nil)
		}
	}
	if !unmountOnly || m == nil || m.attrs == nil {
		r.removeNode(node)
	}
	r.removeChildren(node)
}

// removeChildren recollects node's children, last first.
func (r *Renderer) removeChildren(node host.Node) {
	children := r.host.ChildNodes(node)
	for i := len(children) - 1; i >= 0; i-- {
		r.recollectNodeTree(children[i], true)
	}
}

// flushMounts runs pending mount hooks in the order the instances finished
// their first render: children before parents.
func (r *Renderer) flushMounts() error {
	var first error
	for len(r.mounts) > 0 {
		c := r.mounts[0]
		r.mounts = r.mounts[1:]
		if c.phase != PhaseMounting {
			continue
		}
		c.phase = PhaseMounted
		r.metrics.RecordMount(c.Name())
		err := r.call(c, "DidMount", func() {
			if r.hooks.AfterMount != nil {
				r.hooks.AfterMount(c)
			}
			if c.comp.spec.DidMount != nil {
				c.comp.spec.DidMount(c)
			}
		})
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}
