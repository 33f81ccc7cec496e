// Package vdom provides the virtual tree description consumed by the
// renderer.
//
// A VNode describes one desired presentation element, a text leaf, or the
// instantiation of a component type. VNodes are immutable once built: the
// renderer never mutates them, and a component produces a fresh tree on
// every render.
//
// # Core Types
//
// VNode is the fundamental building block. Attrs holds attributes, styles,
// event handlers and refs. ComponentType identifies a component by a stable
// TypeID rather than by reference.
//
// # Building Trees
//
// H is the general constructor. Children may be VNodes, slices of VNodes,
// strings, numbers, or nil and booleans (which are skipped). Adjacent
// primitive children are merged into one text leaf:
//
//	H("ul", Attrs{"class": "list"},
//	    H("li", Attrs{"key": "a"}, "first"),
//	    H("li", Attrs{"key": "b"}, "second ", 2),
//	)
//
// Element helpers give the same result with variadic arguments:
//
//	Ul(Class("list"),
//	    Li(Key("a"), "first"),
//	    Li(Key("b"), OnClick(handler), "second"),
//	)
package vdom
