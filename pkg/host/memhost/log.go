package memhost

import (
	"fmt"
	"strings"
)

// Op is the type of a logged mutation.
type Op uint8

const (
	OpCreateElement  Op = 0x01 // Create element node
	OpCreateText     Op = 0x02 // Create text node
	OpSetText        Op = 0x03 // Update text content
	OpInsertNode     Op = 0x04 // Insert a detached node
	OpMoveNode       Op = 0x05 // Move an attached node to a new position
	OpRemoveNode     Op = 0x06 // Remove node from its parent
	OpSetAttr        Op = 0x07 // Set/update attribute
	OpRemoveAttr     Op = 0x08 // Remove attribute
	OpSetProp        Op = 0x09 // Set element property
	OpSetStyle       Op = 0x0A // Set one style property or the style text
	OpAddListener    Op = 0x0B // Install event listener
	OpRemoveListener Op = 0x0C // Remove event listener
)

var opNames = map[Op]string{
	OpCreateElement:  "CreateElement",
	OpCreateText:     "CreateText",
	OpSetText:        "SetText",
	OpInsertNode:     "InsertNode",
	OpMoveNode:       "MoveNode",
	OpRemoveNode:     "RemoveNode",
	OpSetAttr:        "SetAttr",
	OpRemoveAttr:     "RemoveAttr",
	OpSetProp:        "SetProp",
	OpSetStyle:       "SetStyle",
	OpAddListener:    "AddListener",
	OpRemoveListener: "RemoveListener",
}

// String returns the string representation of the Op.
func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return "Unknown"
}

// MarshalText encodes the op by name.
func (op Op) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

// UnmarshalText decodes an op name.
func (op *Op) UnmarshalText(b []byte) error {
	for k, v := range opNames {
		if v == string(b) {
			*op = k
			return nil
		}
	}
	return fmt.Errorf("memhost: unknown op %q", b)
}

// IsStructural reports whether op changes the tree shape or a node's
// content, as opposed to node creation.
func (op Op) IsStructural() bool {
	switch op {
	case OpSetText, OpInsertNode, OpMoveNode, OpRemoveNode:
		return true
	}
	return false
}

// IsAttribute reports whether op changes attributes, properties, styles or
// listeners.
func (op Op) IsAttribute() bool {
	switch op {
	case OpSetAttr, OpRemoveAttr, OpSetProp, OpSetStyle, OpAddListener, OpRemoveListener:
		return true
	}
	return false
}

// Mutation is one logged host operation.
type Mutation struct {
	Op     Op     `json:"op" yaml:"op"`
	Node   int    `json:"node" yaml:"node"`
	Parent int    `json:"parent,omitempty" yaml:"parent,omitempty"`
	Ref    int    `json:"ref,omitempty" yaml:"ref,omitempty"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Value  string `json:"value,omitempty" yaml:"value,omitempty"`
}

// String renders the mutation on one line.
func (m Mutation) String() string {
	switch m.Op {
	case OpCreateElement:
		return fmt.Sprintf("create #%d <%s>", m.Node, m.Name)
	case OpCreateText:
		return fmt.Sprintf("create #%d %q", m.Node, m.Value)
	case OpSetText:
		return fmt.Sprintf("text #%d %q", m.Node, m.Value)
	case OpInsertNode, OpMoveNode:
		verb := "insert"
		if m.Op == OpMoveNode {
			verb = "move"
		}
		if m.Ref != 0 {
			return fmt.Sprintf("%s #%d into #%d before #%d", verb, m.Node, m.Parent, m.Ref)
		}
		return fmt.Sprintf("%s #%d into #%d", verb, m.Node, m.Parent)
	case OpRemoveNode:
		return fmt.Sprintf("remove #%d from #%d", m.Node, m.Parent)
	case OpSetAttr:
		return fmt.Sprintf("attr #%d %s=%q", m.Node, m.Name, m.Value)
	case OpRemoveAttr:
		return fmt.Sprintf("attr #%d -%s", m.Node, m.Name)
	case OpSetProp:
		return fmt.Sprintf("prop #%d %s=%s", m.Node, m.Name, m.Value)
	case OpSetStyle:
		return fmt.Sprintf("style #%d %s=%q", m.Node, m.Name, m.Value)
	case OpAddListener:
		return fmt.Sprintf("listen #%d %s", m.Node, m.Name)
	case OpRemoveListener:
		return fmt.Sprintf("unlisten #%d %s", m.Node, m.Name)
	default:
		return fmt.Sprintf("%s #%d", m.Op, m.Node)
	}
}

// FormatLog renders mutations one per line.
func FormatLog(log []Mutation) string {
	var b strings.Builder
	for _, m := range log {
		b.WriteString(m.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Count returns how many mutations in log have one of ops. With no ops it
// returns len(log).
func Count(log []Mutation, ops ...Op) int {
	if len(ops) == 0 {
		return len(log)
	}
	n := 0
	for _, m := range log {
		for _, op := range ops {
			if m.Op == op {
				n++
				break
			}
		}
	}
	return n
}
