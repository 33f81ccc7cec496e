package vdom

// voidElements are elements that cannot have children.
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

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// splitArgs separates helper arguments into attributes and children.
// Arguments can be: nil, Attr, []Attr, EventHandler, or anything H accepts
// as a child.
func splitArgs(args []any) (Attrs, []any) {
	var attrs Attrs
	children := make([]any, 0, len(args))
	set := func(key string, value any) {
		if key == "" {
			return
		}
		if attrs == nil {
			attrs = make(Attrs)
		}
		attrs[key] = value
	}

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Ignore nil (allows conditional attributes)
			continue
		case Attr:
			set(v.Key, v.Value)
		case []Attr:
			for _, a := range v {
				set(a.Key, a.Value)
			}
		case EventHandler:
			set(v.Event, v.Handler)
		default:
			children = append(children, v)
		}
	}
	return attrs, children
}

// createElement creates an element VNode from helper arguments.
func createElement(tag string, args []any) *VNode {
	attrs, children := splitArgs(args)
	return H(tag, attrs, children...)
}

// Component instantiates a component type with helper arguments.
func Component(t ComponentType, args ...any) *VNode {
	attrs, children := splitArgs(args)
	return H(t, attrs, children...)
}

// Content sectioning elements

func Header(args ...any) *VNode  { return createElement("header", args) }
func Footer(args ...any) *VNode  { return createElement("footer", args) }
func Main(args ...any) *VNode    { return createElement("main", args) }
func Nav(args ...any) *VNode     { return createElement("nav", args) }
func Section(args ...any) *VNode { return createElement("section", args) }
func Article(args ...any) *VNode { return createElement("article", args) }
func H1(args ...any) *VNode      { return createElement("h1", args) }
func H2(args ...any) *VNode      { return createElement("h2", args) }
func H3(args ...any) *VNode      { return createElement("h3", args) }

// Text content elements

func Div(args ...any) *VNode  { return createElement("div", args) }
func P(args ...any) *VNode    { return createElement("p", args) }
func Span(args ...any) *VNode { return createElement("span", args) }
func Pre(args ...any) *VNode  { return createElement("pre", args) }
func Ul(args ...any) *VNode   { return createElement("ul", args) }
func Ol(args ...any) *VNode   { return createElement("ol", args) }
func Li(args ...any) *VNode   { return createElement("li", args) }
func Hr(args ...any) *VNode   { return createElement("hr", args) }

// Inline text semantics

func A(args ...any) *VNode      { return createElement("a", args) }
func Strong(args ...any) *VNode { return createElement("strong", args) }
func Em(args ...any) *VNode     { return createElement("em", args) }
func Code(args ...any) *VNode   { return createElement("code", args) }
func Br(args ...any) *VNode     { return createElement("br", args) }

// Form elements

func Form(args ...any) *VNode     { return createElement("form", args) }
func Input(args ...any) *VNode    { return createElement("input", args) }
func Textarea(args ...any) *VNode { return createElement("textarea", args) }
func Select(args ...any) *VNode   { return createElement("select", args) }
func Option(args ...any) *VNode   { return createElement("option", args) }
func Button(args ...any) *VNode   { return createElement("button", args) }
func Label(args ...any) *VNode    { return createElement("label", args) }

// Table elements

func Table(args ...any) *VNode { return createElement("table", args) }
func Tbody(args ...any) *VNode { return createElement("tbody", args) }
func Tr(args ...any) *VNode    { return createElement("tr", args) }
func Td(args ...any) *VNode    { return createElement("td", args) }

// Media and namespaced elements

func Img(args ...any) *VNode           { return createElement("img", args) }
func Svg(args ...any) *VNode           { return createElement("svg", args) }
func G(args ...any) *VNode             { return createElement("g", args) }
func Circle(args ...any) *VNode        { return createElement("circle", args) }
func Rect(args ...any) *VNode          { return createElement("rect", args) }
func Path(args ...any) *VNode          { return createElement("path", args) }
func ForeignObject(args ...any) *VNode { return createElement("foreignObject", args) }

// CustomElement creates an element with a custom tag name.
func CustomElement(tag string, args ...any) *VNode {
	return createElement(tag, args)
}
