package doc

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidDocument is returned for documents that decode but do not
	// describe a tree.
	ErrInvalidDocument = errors.New("doc: invalid document")

	// ErrUnknownComponent is returned when a node names a component the
	// registry does not know.
	ErrUnknownComponent = errors.New("doc: unknown component")

	// ErrUnknownFormat is returned for file extensions other than .json,
	// .yaml and .yml.
	ErrUnknownFormat = errors.New("doc: unknown document format")
)

// Format is a document encoding.
type Format uint8

const (
	JSON Format = iota
	YAML
)

// String returns the string representation of the Format.
func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// FormatOf returns the format for a file path by extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// Error locates a problem in a document. Line and Column are zero for JSON
// documents.
type Error struct {
	// Path is the node's position, e.g. "root.children[2]".
	Path   string
	Line   int
	Column int
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d, column %d): %v", e.Path, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// Node is one decoded tree node.
type Node struct {
	Tag       string         `json:"tag,omitempty" yaml:"tag,omitempty"`
	Component string         `json:"component,omitempty" yaml:"component,omitempty"`
	Text      *string        `json:"text,omitempty" yaml:"text,omitempty"`
	Key       any            `json:"key,omitempty" yaml:"key,omitempty"`
	If        string         `json:"if,omitempty" yaml:"if,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Props     map[string]any `json:"props,omitempty" yaml:"props,omitempty"`
	Children  []Node         `json:"children,omitempty" yaml:"children,omitempty"`

	line, column int
}

type plainNode Node

// UnmarshalJSON decodes a node. Scalars become text nodes.
func (n *Node) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		if _, isList := v.([]any); isList {
			return fmt.Errorf("%w: a node cannot be a list", ErrInvalidDocument)
		}
		s := scalarText(v)
		*n = Node{Text: &s}
		return nil
	}
	return json.Unmarshal(data, (*plainNode)(n))
}

// UnmarshalYAML decodes a node and records its position.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var v any
		if err := value.Decode(&v); err != nil {
			return err
		}
		s := scalarText(v)
		*n = Node{Text: &s, line: value.Line, column: value.Column}
		return nil
	case yaml.MappingNode:
		if err := value.Decode((*plainNode)(n)); err != nil {
			return err
		}
		n.line, n.column = value.Line, value.Column
		return nil
	default:
		return &Error{
			Path:   "node",
			Line:   value.Line,
			Column: value.Column,
			Err:    fmt.Errorf("%w: expected a mapping or a scalar", ErrInvalidDocument),
		}
	}
}

func scalarText(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// ComponentDef defines a template component.
type ComponentDef struct {
	// Props are the default props.
	Props map[string]any `json:"props,omitempty" yaml:"props,omitempty"`

	// State is the initial state, copied per instance.
	State map[string]any `json:"state,omitempty" yaml:"state,omitempty"`

	// Render is the template tree.
	Render Node `json:"render" yaml:"render"`
}

// Document is a decoded tree document.
type Document struct {
	Components map[string]ComponentDef `json:"components,omitempty" yaml:"components,omitempty"`
	Root       Node                    `json:"root" yaml:"root"`
}

// Decode parses data. A document without a "root" node is treated as a
// single bare node.
func Decode(data []byte, f Format) (*Document, error) {
	unmarshal := json.Unmarshal
	if f == YAML {
		unmarshal = yaml.Unmarshal
	}

	var d Document
	err := unmarshal(data, &d)
	var de *Error
	if errors.As(err, &de) || errors.Is(err, ErrInvalidDocument) {
		return nil, decodeError(err)
	}
	if err == nil && d.Root.isZero() && len(d.Components) > 0 {
		return nil, &Error{Path: "root", Err: fmt.Errorf("%w: missing root node", ErrInvalidDocument)}
	}
	if err != nil || d.Root.isZero() {
		d = Document{}
		if err := unmarshal(data, &d.Root); err != nil {
			return nil, decodeError(err)
		}
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// DecodeFile reads and decodes the document at path.
func DecodeFile(path string) (*Document, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data, f)
}

func decodeError(err error) error {
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, ErrInvalidDocument) {
		return &Error{Path: "root", Err: err}
	}
	return &Error{Path: "root", Err: fmt.Errorf("%w: %v", ErrInvalidDocument, err)}
}

// Validate checks that every node is exactly one of text, element or
// component and carries no functions.
func (d *Document) Validate() error {
	for _, name := range sortedNames(d.Components) {
		def := d.Components[name]
		if err := def.Render.validate("components." + name + ".render"); err != nil {
			return err
		}
	}
	return d.Root.validate("root")
}

func (n *Node) isZero() bool {
	return n.Tag == "" && n.Component == "" && n.Text == nil
}

func (n *Node) validate(path string) error {
	fail := func(format string, args ...any) error {
		return &Error{
			Path:   path,
			Line:   n.line,
			Column: n.column,
			Err:    fmt.Errorf("%w: "+format, append([]any{ErrInvalidDocument}, args...)...),
		}
	}

	kinds := 0
	if n.Tag != "" {
		kinds++
	}
	if n.Component != "" {
		kinds++
	}
	if n.Text != nil {
		kinds++
	}
	switch {
	case kinds == 0:
		return fail("node needs one of tag, component or text")
	case kinds > 1:
		return fail("node has more than one of tag, component and text")
	case n.Text != nil && (len(n.Children) > 0 || len(n.Attrs) > 0 || len(n.Props) > 0):
		return fail("text nodes have no attributes or children")
	case n.Tag != "" && len(n.Props) > 0:
		return fail("elements take attrs, not props")
	case n.Component != "" && len(n.Attrs) > 0:
		return fail("components take props, not attrs")
	}

	for _, name := range sortedNames(n.Attrs) {
		if name == "ref" || (len(name) > 2 && strings.HasPrefix(name, "on")) {
			return fail("attribute %q needs a function", name)
		}
	}
	for i := range n.Children {
		if err := n.Children[i].validate(fmt.Sprintf("%s.children[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}
