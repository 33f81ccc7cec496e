package memhost

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// voidElements are elements that cannot have children and have no closing tag.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// unreflected properties are written as attributes when no attribute of
// the same name exists, so markup shows the live value.
var unreflected = []string{"value", "checked", "selected", "disabled"}

// MarkupOptions configures markup output.
type MarkupOptions struct {
	// Pretty enables indented output, one node per line.
	Pretty bool

	// Indent is the string used for each indentation level in pretty mode.
	// Defaults to two spaces if not specified.
	Indent string

	// IDs adds a data-mh-id attribute carrying each element's node id.
	IDs bool
}

// Markup returns the markup of n.
func Markup(n *Node, opts MarkupOptions) string {
	var buf bytes.Buffer
	_ = WriteMarkup(&buf, n, opts)
	return buf.String()
}

// WriteMarkup writes n and its descendants to w as HTML-like markup.
// Attributes are sorted for deterministic output.
func WriteMarkup(w io.Writer, n *Node, opts MarkupOptions) error {
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	mw := &markupWriter{w: w, opts: opts}
	mw.node(n, 0)
	return mw.err
}

type markupWriter struct {
	w    io.Writer
	opts MarkupOptions
	err  error
}

func (m *markupWriter) write(s string) {
	if m.err != nil {
		return
	}
	_, m.err = io.WriteString(m.w, s)
}

func (m *markupWriter) indent(depth int) {
	if m.opts.Pretty {
		m.write(strings.Repeat(m.opts.Indent, depth))
	}
}

func (m *markupWriter) newline() {
	if m.opts.Pretty {
		m.write("\n")
	}
}

func (m *markupWriter) node(n *Node, depth int) {
	if n == nil {
		return
	}
	if n.IsText() {
		m.indent(depth)
		m.write(escapeHTML(n.text))
		m.newline()
		return
	}

	m.indent(depth)
	m.write("<" + n.tag)
	m.attributes(n)
	m.write(">")

	if voidElements[n.tag] && len(n.children) == 0 {
		m.newline()
		return
	}

	if len(n.children) > 0 {
		m.newline()
	}
	for _, c := range n.children {
		m.node(c, depth+1)
	}
	if len(n.children) > 0 {
		m.indent(depth)
	}
	m.write("</" + n.tag + ">")
	m.newline()
}

func (m *markupWriter) attributes(n *Node) {
	if m.opts.IDs {
		m.write(fmt.Sprintf(` data-mh-id="%d"`, n.id))
	}
	for _, name := range n.AttrNames() {
		value := n.attrs[name]
		if value == "" {
			m.write(" " + name)
			continue
		}
		m.write(fmt.Sprintf(` %s="%s"`, name, escapeAttr(value)))
	}
	if _, ok := n.attrs["style"]; !ok && len(n.styleOrder) > 0 {
		m.write(fmt.Sprintf(` style="%s"`, escapeAttr(n.StyleText())))
	}
	for _, name := range unreflected {
		if _, ok := n.attrs[name]; ok {
			continue
		}
		v, ok := n.props[name]
		if !ok {
			continue
		}
		switch v := v.(type) {
		case bool:
			if v {
				m.write(" " + name)
			}
		case string:
			if v != "" {
				m.write(fmt.Sprintf(` %s="%s"`, name, escapeAttr(v)))
			}
		}
	}
}

// escapeHTML escapes text for safe inclusion in HTML content.
func escapeHTML(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&#39;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}

// escapeAttr escapes text for safe inclusion in attribute values.
// In addition to the standard entities, it also escapes whitespace
// characters that could break attribute parsing.
func escapeAttr(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '\n':
			buf.WriteString("&#10;")
		case '\r':
			buf.WriteString("&#13;")
		case '\t':
			buf.WriteString("&#9;")
		default:
			buf.WriteString(escapeHTML(string(r)))
		}
	}

	return buf.String()
}
