package memhost

import (
	"fmt"
	"strconv"

	"github.com/vango-dev/ango/pkg/host"
)

// PropKind is the value kind an element property accepts.
type PropKind uint8

const (
	PropString PropKind = iota // strings and numbers, stored as string
	PropBool                   // bool only
	PropInt                    // integers only
)

// Properties maps a tag (or "*" for every HTML element) to its typed
// properties.
type Properties map[string]map[string]PropKind

// DefaultProperties returns the property table used by New.
func DefaultProperties() Properties {
	return Properties{
		"*": {
			"id":       PropString,
			"title":    PropString,
			"hidden":   PropBool,
			"tabIndex": PropInt,
		},
		"input": {
			"value":       PropString,
			"checked":     PropBool,
			"disabled":    PropBool,
			"type":        PropString,
			"name":        PropString,
			"placeholder": PropString,
		},
		"textarea": {
			"value":       PropString,
			"disabled":    PropBool,
			"name":        PropString,
			"placeholder": PropString,
		},
		"select": {
			"value":    PropString,
			"disabled": PropBool,
			"multiple": PropBool,
			"name":     PropString,
		},
		"option": {
			"value":    PropString,
			"selected": PropBool,
			"disabled": PropBool,
		},
		"button": {
			"disabled": PropBool,
			"type":     PropString,
			"name":     PropString,
		},
	}
}

// reflected properties mirror their value into the attribute of the same
// name.
var reflected = map[string]bool{
	"id":          true,
	"title":       true,
	"type":        true,
	"name":        true,
	"placeholder": true,
}

// Option configures a Document.
type Option func(*Document)

// WithProperties replaces the property table.
func WithProperties(p Properties) Option {
	return func(d *Document) {
		d.props = p
	}
}

// WithoutLog disables mutation logging.
func WithoutLog() Option {
	return func(d *Document) {
		d.logging = false
	}
}

// Document is an in-memory host.Host.
//
// A Document is not safe for concurrent use.
type Document struct {
	nextID  int
	props   Properties
	logging bool
	log     []Mutation
}

var _ host.Host = (*Document)(nil)

// New creates an empty Document.
func New(opts ...Option) *Document {
	d := &Document{
		props:   DefaultProperties(),
		logging: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Container creates a detached element without logging it. Use it for the
// node a tree is mounted into.
func (d *Document) Container(tag string) *Node {
	return d.newNode(tag, false)
}

// Log returns a copy of the mutation log.
func (d *Document) Log() []Mutation {
	out := make([]Mutation, len(d.log))
	copy(out, d.log)
	return out
}

// ResetLog clears the mutation log.
func (d *Document) ResetLog() {
	d.log = d.log[:0]
}

// TakeLog returns the mutation log and clears it.
func (d *Document) TakeLog() []Mutation {
	out := d.Log()
	d.ResetLog()
	return out
}

func (d *Document) record(m Mutation) {
	if d.logging {
		d.log = append(d.log, m)
	}
}

func (d *Document) newNode(tag string, svg bool) *Node {
	d.nextID++
	return &Node{id: d.nextID, tag: tag, svg: svg}
}

// N converts a host.Node to *Node. It returns nil for nil.
func N(n host.Node) *Node {
	if n == nil {
		return nil
	}
	node, ok := n.(*Node)
	if !ok {
		panic(fmt.Sprintf("memhost: foreign node %T", n))
	}
	return node
}

func wrap(n *Node) host.Node {
	if n == nil {
		return nil
	}
	return n
}

func idOf(n *Node) int {
	if n == nil {
		return 0
	}
	return n.id
}

// CreateElement implements host.Tree.
func (d *Document) CreateElement(tag string, svg bool) host.Node {
	n := d.newNode(tag, svg)
	d.record(Mutation{Op: OpCreateElement, Node: n.id, Name: tag})
	return n
}

// CreateText implements host.Tree.
func (d *Document) CreateText(text string) host.Node {
	n := d.newNode("", false)
	n.text = text
	d.record(Mutation{Op: OpCreateText, Node: n.id, Value: text})
	return n
}

// IsText implements host.Tree.
func (d *Document) IsText(n host.Node) bool { return N(n).IsText() }

// TagName implements host.Tree.
func (d *Document) TagName(n host.Node) string { return N(n).tag }

// IsSVG implements host.Tree.
func (d *Document) IsSVG(n host.Node) bool { return N(n).svg }

// Text implements host.Tree.
func (d *Document) Text(n host.Node) string { return N(n).text }

// SetText implements host.Tree.
func (d *Document) SetText(n host.Node, text string) {
	node := N(n)
	node.text = text
	d.record(Mutation{Op: OpSetText, Node: node.id, Value: text})
}

// Parent implements host.Tree.
func (d *Document) Parent(n host.Node) host.Node { return wrap(N(n).parent) }

// ChildNodes implements host.Tree.
func (d *Document) ChildNodes(n host.Node) []host.Node {
	node := N(n)
	out := make([]host.Node, len(node.children))
	for i, c := range node.children {
		out[i] = c
	}
	return out
}

// ChildAt implements host.Tree.
func (d *Document) ChildAt(n host.Node, i int) host.Node { return wrap(N(n).Child(i)) }

// NextSibling implements host.Tree.
func (d *Document) NextSibling(n host.Node) host.Node {
	node := N(n)
	if node.parent == nil {
		return nil
	}
	i := node.parent.indexOf(node)
	return wrap(node.parent.Child(i + 1))
}

// InsertBefore implements host.Tree.
func (d *Document) InsertBefore(parent, child, ref host.Node) {
	p, c, r := N(parent), N(child), N(ref)
	if c == r {
		return
	}
	op := OpInsertNode
	if c.parent != nil {
		op = OpMoveNode
		c.detach()
	}
	i := len(p.children)
	if r != nil {
		if j := p.indexOf(r); j >= 0 {
			i = j
		}
	}
	p.children = append(p.children, nil)
	copy(p.children[i+1:], p.children[i:])
	p.children[i] = c
	c.parent = p
	d.record(Mutation{Op: op, Node: c.id, Parent: p.id, Ref: idOf(r)})
}

// AppendChild implements host.Tree.
func (d *Document) AppendChild(parent, child host.Node) {
	d.InsertBefore(parent, child, nil)
}

// RemoveChild implements host.Tree.
func (d *Document) RemoveChild(parent, child host.Node) {
	p, c := N(parent), N(child)
	if c.parent != p {
		return
	}
	c.detach()
	d.record(Mutation{Op: OpRemoveNode, Node: c.id, Parent: p.id})
}

// Attributes implements host.Attributes.
func (d *Document) Attributes(n host.Node) map[string]string {
	node := N(n)
	out := make(map[string]string, len(node.attrs))
	for k, v := range node.attrs {
		out[k] = v
	}
	return out
}

// SetAttribute implements host.Attributes.
func (d *Document) SetAttribute(n host.Node, name, value string) {
	node := N(n)
	if node.attrs == nil {
		node.attrs = make(map[string]string)
	}
	node.attrs[name] = value
	if name == "style" {
		node.style, node.styleOrder = nil, nil
		for _, kv := range parseStyle(value) {
			node.setStyle(kv[0], kv[1])
		}
	}
	d.record(Mutation{Op: OpSetAttr, Node: node.id, Name: name, Value: value})
}

// RemoveAttribute implements host.Attributes.
func (d *Document) RemoveAttribute(n host.Node, name string) {
	node := N(n)
	if _, ok := node.attrs[name]; !ok {
		return
	}
	delete(node.attrs, name)
	d.record(Mutation{Op: OpRemoveAttr, Node: node.id, Name: name})
}

func (d *Document) propKind(node *Node, name string) (PropKind, bool) {
	if node.IsText() || node.svg {
		return 0, false
	}
	if k, ok := d.props[node.tag][name]; ok {
		return k, true
	}
	k, ok := d.props["*"][name]
	return k, ok
}

// HasProperty implements host.Attributes.
func (d *Document) HasProperty(n host.Node, name string) bool {
	_, ok := d.propKind(N(n), name)
	return ok
}

// Property implements host.Attributes.
func (d *Document) Property(n host.Node, name string) any {
	node := N(n)
	if v, ok := node.props[name]; ok {
		return v
	}
	kind, ok := d.propKind(node, name)
	if !ok {
		return nil
	}
	return zero(kind)
}

// SetProperty implements host.Attributes. A nil value resets the property
// to its zero value.
func (d *Document) SetProperty(n host.Node, name string, value any) error {
	node := N(n)
	kind, ok := d.propKind(node, name)
	if !ok {
		return fmt.Errorf("memhost: <%s> has no property %q", node.tag, name)
	}
	v, err := coerce(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s=%T", err, name, value)
	}
	if node.props == nil {
		node.props = make(map[string]any)
	}
	node.props[name] = v
	d.record(Mutation{Op: OpSetProp, Node: node.id, Name: name, Value: fmt.Sprint(v)})
	if reflected[name] {
		if s := fmt.Sprint(v); s != "" {
			d.SetAttribute(n, name, s)
		} else {
			d.RemoveAttribute(n, name)
		}
	}
	return nil
}

func zero(kind PropKind) any {
	switch kind {
	case PropBool:
		return false
	case PropInt:
		return 0
	default:
		return ""
	}
}

func coerce(kind PropKind, value any) (any, error) {
	if value == nil {
		return zero(kind), nil
	}
	switch kind {
	case PropBool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
	case PropInt:
		switch v := value.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			if v == float64(int(v)) {
				return int(v), nil
			}
		}
	default:
		switch v := value.(type) {
		case string:
			return v, nil
		case int:
			return strconv.Itoa(v), nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		}
	}
	return nil, host.ErrPropertyType
}

// SetStyleText implements host.Styles.
func (d *Document) SetStyleText(n host.Node, css string) {
	node := N(n)
	node.style, node.styleOrder = nil, nil
	for _, kv := range parseStyle(css) {
		node.setStyle(kv[0], kv[1])
	}
	d.record(Mutation{Op: OpSetStyle, Node: node.id, Value: css})
}

// SetStyle implements host.Styles.
func (d *Document) SetStyle(n host.Node, prop, value string) {
	node := N(n)
	node.setStyle(prop, value)
	d.record(Mutation{Op: OpSetStyle, Node: node.id, Name: prop, Value: value})
}

// AddEventListener implements host.Events. Adding a listener that is
// already installed replaces it.
func (d *Document) AddEventListener(n host.Node, event string, capture bool, fn func(host.Event)) {
	node := N(n)
	if node.listeners == nil {
		node.listeners = make(map[listenerKey]func(host.Event))
	}
	node.listeners[listenerKey{event, capture}] = fn
	d.record(Mutation{Op: OpAddListener, Node: node.id, Name: listenerName(event, capture)})
}

// RemoveEventListener implements host.Events.
func (d *Document) RemoveEventListener(n host.Node, event string, capture bool) {
	node := N(n)
	key := listenerKey{event, capture}
	if _, ok := node.listeners[key]; !ok {
		return
	}
	delete(node.listeners, key)
	d.record(Mutation{Op: OpRemoveListener, Node: node.id, Name: listenerName(event, capture)})
}

func listenerName(event string, capture bool) string {
	if capture {
		return event + ":capture"
	}
	return event
}

// NodeData implements host.Data.
func (d *Document) NodeData(n host.Node) any { return N(n).data }

// SetNodeData implements host.Data.
func (d *Document) SetNodeData(n host.Node, data any) { N(n).data = data }

// Dispatch delivers an event of type typ to target. Capture listeners run
// from the root down to target, then bubbling listeners run from target up.
// It returns the number of listeners invoked.
func (d *Document) Dispatch(target *Node, typ string, data map[string]any) int {
	var path []*Node
	for n := target; n != nil; n = n.parent {
		path = append(path, n)
	}
	ev := host.Event{Type: typ, Target: target, Data: data}
	calls := 0
	fire := func(n *Node, capture bool) {
		if fn, ok := n.listeners[listenerKey{typ, capture}]; ok {
			ev.CurrentTarget = n
			fn(ev)
			calls++
		}
	}
	for i := len(path) - 1; i >= 0; i-- {
		fire(path[i], true)
	}
	for _, n := range path {
		fire(n, false)
	}
	return calls
}
