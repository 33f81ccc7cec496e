package doc

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vango-dev/ango/pkg/reactive"
	"github.com/vango-dev/ango/pkg/vdom"
)

// Binder resolves a placeholder path. Instance.Lookup is a Binder.
type Binder func(path string) (any, error)

var placeholder = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// Build defines the document's template components in reg and builds the
// root node.
func (d *Document) Build(reg *Registry) (*vdom.VNode, error) {
	for _, name := range sortedNames(d.Components) {
		if _, err := reg.Define(name, d.Components[name]); err != nil {
			return nil, &Error{Path: "components." + name, Err: err}
		}
	}
	return d.Root.Build(reg, nil)
}

// Build converts n into a VNode. With a nil bind, placeholders are kept as
// literal text. A root dropped by "if" builds to nil.
func (n *Node) Build(reg *Registry, bind Binder) (*vdom.VNode, error) {
	v, err := n.build("root", reg, bind)
	if err != nil || v == nil {
		return nil, err
	}
	if vn, ok := v.(*vdom.VNode); ok {
		return vn, nil
	}
	return vdom.Text(v), nil
}

// build returns a *vdom.VNode, a text value, a bound child list, or nil
// when the node is dropped.
func (n *Node) build(path string, reg *Registry, bind Binder) (any, error) {
	fail := func(err error) error {
		return &Error{Path: path, Line: n.line, Column: n.column, Err: err}
	}

	if n.If != "" {
		cond, err := expand(n.If, bind)
		if err != nil {
			return nil, fail(err)
		}
		if !truthy(cond) {
			return nil, nil
		}
	}

	if n.Text != nil {
		v, err := expand(*n.Text, bind)
		if err != nil {
			return nil, fail(err)
		}
		return childValue(v), nil
	}

	children := make([]any, 0, len(n.Children))
	for i := range n.Children {
		child, err := n.Children[i].build(fmt.Sprintf("%s.children[%d]", path, i), reg, bind)
		if err != nil {
			return nil, err
		}
		if child != nil {
			children = append(children, child)
		}
	}

	var (
		typ   any = n.Tag
		attrs     = n.Attrs
	)
	if n.Component != "" {
		t, ok := reg.Lookup(n.Component)
		if !ok {
			return nil, fail(fmt.Errorf("%w: %q", ErrUnknownComponent, n.Component))
		}
		typ, attrs = t, n.Props
	}

	bound, err := expandAttrs(attrs, bind)
	if err != nil {
		return nil, fail(err)
	}
	if n.Key != nil {
		key, err := expandValue(n.Key, bind)
		if err != nil {
			return nil, fail(err)
		}
		if bound == nil {
			bound = vdom.Attrs{}
		}
		bound["key"] = key
	}
	return vdom.H(typ, bound, children...), nil
}

// expand resolves placeholders in s. A string that is exactly one
// placeholder yields the raw value.
func expand(s string, bind Binder) (any, error) {
	if bind == nil || !strings.Contains(s, "{{") {
		return s, nil
	}
	if m := placeholder.FindStringSubmatchIndex(s); m != nil && m[0] == 0 && m[1] == len(s) {
		return bind(s[m[2]:m[3]])
	}
	var firstErr error
	out := placeholder.ReplaceAllStringFunc(s, func(match string) string {
		path := placeholder.FindStringSubmatch(match)[1]
		v, err := bind(path)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return textOf(v)
	})
	return out, firstErr
}

func expandValue(v any, bind Binder) (any, error) {
	switch val := v.(type) {
	case string:
		return expand(val, bind)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, x := range val {
			e, err := expandValue(x, bind)
			if err != nil {
				return nil, err
			}
			out[k] = e
		}
		return out, nil
	default:
		return v, nil
	}
}

func expandAttrs(attrs map[string]any, bind Binder) (vdom.Attrs, error) {
	if len(attrs) == 0 {
		return nil, nil
	}
	out := make(vdom.Attrs, len(attrs))
	for k, v := range attrs {
		e, err := expandValue(v, bind)
		if err != nil {
			return nil, err
		}
		out[k] = reactive.ToRaw(e)
	}
	return out, nil
}

// childValue converts a resolved value into something vdom.H accepts as a
// child.
func childValue(v any) any {
	switch val := v.(type) {
	case nil, bool, string, *vdom.VNode, []*vdom.VNode:
		return val
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return val
	default:
		return textOf(v)
	}
}

func textOf(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(reactive.ToRaw(v))
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != "" && val != "false" && val != "0"
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	default:
		return true
	}
}
