package errors

import "sort"

// Codes for the errors the CLI reports.
const (
	CodeRender           = "A001"
	CodeUpdateLoop       = "A002"
	CodeInvalidDocument  = "A003"
	CodeUnknownComponent = "A004"
	CodeInvalidConfig    = "A005"
	CodeIO               = "A006"
)

// Template defines a registered error type.
type Template struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	CodeRender: {
		Category:   CategoryRender,
		Message:    "Component render failed",
		Detail:     "A component's render function or lifecycle method returned an error or panicked.",
		Suggestion: "Check the component named below; the pass that failed was abandoned.",
	},
	CodeUpdateLoop: {
		Category:   CategoryRender,
		Message:    "Update loop detected",
		Detail:     "A component kept scheduling itself during a single flush, usually by changing state in DidUpdate or a watcher it triggers.",
		Suggestion: "Guard the state change so it stops once the value settles.",
	},
	CodeInvalidDocument: {
		Category:   CategoryDocument,
		Message:    "Invalid tree document",
		Detail:     "A tree document could not be decoded or does not describe a tree.",
		Suggestion: "Every node needs exactly one of tag, component or text.",
	},
	CodeUnknownComponent: {
		Category:   CategoryDocument,
		Message:    "Unknown component",
		Detail:     "A node names a component that is neither registered nor defined in the document's components section.",
		Suggestion: "Define the component under components: or fix the name.",
	},
	CodeInvalidConfig: {
		Category:   CategoryConfig,
		Message:    "Invalid configuration",
		Detail:     "The project configuration file failed validation.",
		Suggestion: "Run with defaults by removing the offending field.",
	},
	CodeIO: {
		Category: CategoryIO,
		Message:  "File access failed",
		Detail:   "A file could not be read or written.",
	},
}

// Codes returns all registered error codes in order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the template for an error code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template Template) {
	registry[code] = template
}
