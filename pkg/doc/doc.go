// Package doc decodes tree documents into virtual nodes.
//
// A document is JSON or YAML. Its root is either a single node or an object
// with a "root" node and a "components" section of template components:
//
//	components:
//	  Greeting:
//	    props: {name: world}
//	    state: {count: 0}
//	    render:
//	      tag: p
//	      children: ["Hello {{name}}, {{count}} clicks"]
//	root:
//	  tag: div
//	  children:
//	    - component: Greeting
//	      props: {name: ango}
//
// A node is one of:
//
//   - a scalar, which becomes a text node
//   - an object with "tag", an element with "attrs", "key" and "children"
//   - an object with "component", a component looked up in a Registry,
//     with "props", "key" and "children"
//   - an object with "text"
//
// Inside a template's render tree, "{{path}}" placeholders in text and
// attribute values are resolved against the instance's state, props and
// computed values, so templates re-render when what they read changes. A
// node with "if" is dropped when its resolved value is falsy.
//
// Event handlers and refs are functions and cannot appear in documents.
package doc
