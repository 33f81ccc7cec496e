package vdom

import (
	"fmt"
	"strconv"
	"sync/atomic"
)

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement   VKind = iota // <div>, <button>, etc.
	KindText                   // Text or number leaf
	KindComponent              // Component instantiation
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindComponent:
		return "Component"
	default:
		return "Unknown"
	}
}

// TypeID identifies a component type. Two component vnodes refer to the same
// type exactly when their TypeIDs are equal.
type TypeID uint64

var lastTypeID atomic.Uint64

// NewTypeID returns a fresh process-unique TypeID.
func NewTypeID() TypeID {
	return TypeID(lastTypeID.Add(1))
}

// ComponentType is implemented by component definitions.
type ComponentType interface {
	TypeID() TypeID
	TypeName() string
}

// Attrs holds attributes, styles, event handlers and refs.
type Attrs map[string]any

// VNode is the virtual tree node.
type VNode struct {
	Kind     VKind         // Node type
	Tag      string        // Element tag name (e.g., "div")
	Type     ComponentType // For KindComponent
	Attrs    Attrs         // Attributes without the key
	Children []*VNode      // Child nodes
	Key      string        // Reconciliation key, empty when absent
	Value    any           // For KindText; normalized by TextValue
}

// IsText reports whether v is a text leaf.
func (v *VNode) IsText() bool {
	return v != nil && v.Kind == KindText
}

// IsComponent reports whether v instantiates a component.
func (v *VNode) IsComponent() bool {
	return v != nil && v.Kind == KindComponent
}

// TextValue returns the string form of a text leaf.
func (v *VNode) TextValue() string {
	if v == nil {
		return ""
	}
	return stringify(v.Value)
}

// Props returns the props handed to a component: a copy of the attributes
// plus "children" when the vnode has children.
func (v *VNode) Props() map[string]any {
	props := make(map[string]any, len(v.Attrs)+1)
	for k, val := range v.Attrs {
		props[k] = val
	}
	if len(v.Children) > 0 {
		children := make([]*VNode, len(v.Children))
		copy(children, v.Children)
		props["children"] = children
	}
	return props
}

// Name returns the tag for elements, the type name for components and
// "#text" for text leaves.
func (v *VNode) Name() string {
	switch {
	case v == nil:
		return ""
	case v.Kind == KindText:
		return "#text"
	case v.Kind == KindComponent && v.Type != nil:
		return v.Type.TypeName()
	default:
		return v.Tag
	}
}

// H builds a VNode. typ is a tag name or a ComponentType. A "key" attribute
// is moved into VNode.Key. attrs is copied.
//
// Keys must be unique among siblings. An empty key leaves the node unkeyed,
// and of several live siblings sharing a key only the last is reused.
func H(typ any, attrs Attrs, children ...any) *VNode {
	node := &VNode{}
	switch t := typ.(type) {
	case string:
		node.Kind = KindElement
		node.Tag = t
	case ComponentType:
		node.Kind = KindComponent
		node.Type = t
	default:
		panic(fmt.Sprintf("vdom: invalid node type %T", typ))
	}
	if len(attrs) > 0 {
		node.Attrs = make(Attrs, len(attrs))
		for k, val := range attrs {
			if k == "key" {
				node.Key = keyString(val)
				continue
			}
			node.Attrs[k] = val
		}
	}
	node.Children = flatten(nil, children)
	return node
}

// Text creates a text leaf. v is usually a string or a number.
func Text(v any) *VNode {
	return &VNode{Kind: KindText, Value: v}
}

// Textf creates a formatted text leaf.
func Textf(format string, args ...any) *VNode {
	return Text(fmt.Sprintf(format, args...))
}

// Clone copies v with attrs merged over its attributes. When children are
// given they replace the original children.
func Clone(v *VNode, attrs Attrs, children ...any) *VNode {
	if v == nil {
		return nil
	}
	out := *v
	if v.Attrs != nil || len(attrs) > 0 {
		out.Attrs = make(Attrs, len(v.Attrs)+len(attrs))
		for k, val := range v.Attrs {
			out.Attrs[k] = val
		}
		for k, val := range attrs {
			if k == "key" {
				out.Key = keyString(val)
				continue
			}
			out.Attrs[k] = val
		}
	}
	if len(children) > 0 {
		out.Children = flatten(nil, children)
	} else if v.Children != nil {
		out.Children = make([]*VNode, len(v.Children))
		copy(out.Children, v.Children)
	}
	return &out
}

// flatten appends children to dst, skipping nil and booleans and merging
// adjacent primitives into one text leaf, across nested slices too.
func flatten(dst []*VNode, children []any) []*VNode {
	f := flattener{out: dst}
	f.add(children)
	return f.out
}

type flattener struct {
	out        []*VNode
	lastSimple bool
}

func (f *flattener) add(children []any) {
	for _, child := range children {
		switch c := child.(type) {
		case nil, bool:
			continue
		case *VNode:
			if c == nil {
				continue
			}
			f.out = append(f.out, c)
			f.lastSimple = false
		case []*VNode:
			for _, n := range c {
				if n != nil {
					f.out = append(f.out, n)
					f.lastSimple = false
				}
			}
		case []any:
			f.add(c)
		default:
			if !isPrimitive(c) {
				panic(fmt.Sprintf("vdom: invalid child %T", child))
			}
			if f.lastSimple {
				last := f.out[len(f.out)-1]
				f.out[len(f.out)-1] = Text(stringify(last.Value) + stringify(c))
			} else {
				f.out = append(f.out, Text(c))
			}
			f.lastSimple = true
		}
	}
}

func isPrimitive(v any) bool {
	switch v.(type) {
	case string, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, fmt.Stringer:
		return true
	}
	return false
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func keyString(v any) string {
	if v == nil {
		return ""
	}
	return stringify(v)
}
