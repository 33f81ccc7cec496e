package doc

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/vango-dev/ango/pkg/render"
	"github.com/vango-dev/ango/pkg/vdom"
)

// ErrNameTaken is returned when a template would replace a registered Go
// component.
var ErrNameTaken = errors.New("doc: component name already registered")

// Registry maps component names to types. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	types     map[string]vdom.ComponentType
	templates map[string]*template
}

// NewRegistry creates a registry holding types under their TypeName.
func NewRegistry(types ...vdom.ComponentType) *Registry {
	r := &Registry{
		types:     make(map[string]vdom.ComponentType),
		templates: make(map[string]*template),
	}
	for _, t := range types {
		r.Register(t)
	}
	return r
}

// Register adds t under its TypeName, replacing any earlier entry.
func (r *Registry) Register(t vdom.ComponentType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.templates, t.TypeName())
	r.types[t.TypeName()] = t
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(name string) (vdom.ComponentType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Names returns the registered names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedNames(r.types)
}

// Define registers a template component. Redefining a template with the
// same default props keeps its type, so mounted instances are updated in
// place and pick up the new render tree on their next render. Changing the
// default props creates a new type.
func (r *Registry) Define(name string, def ComponentDef) (vdom.ComponentType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.templates[name]; ok {
		if reflect.DeepEqual(t.def.Props, def.Props) {
			t.def = def
			return t.comp, nil
		}
	} else if _, taken := r.types[name]; taken {
		return nil, fmt.Errorf("%w: %q", ErrNameTaken, name)
	}

	t := &template{reg: r, def: def}
	t.comp = render.Define(render.Spec{
		Name:         name,
		DefaultProps: cloneMap(def.Props),
		State: func(*render.Instance) map[string]any {
			return cloneMap(t.current().State)
		},
		Render: t.render,
	})
	r.templates[name] = t
	r.types[name] = t.comp
	return t.comp, nil
}

// template is a component whose render tree is a document node.
type template struct {
	reg  *Registry
	def  ComponentDef
	comp *render.Component
}

func (t *template) current() ComponentDef {
	t.reg.mu.RLock()
	defer t.reg.mu.RUnlock()
	return t.def
}

// render builds the template tree. Failures panic and surface as a
// render.RenderError from the renderer.
func (t *template) render(c *render.Instance) *vdom.VNode {
	def := t.current()
	v, err := def.Render.Build(t.reg, c.Lookup)
	if err != nil {
		panic(err)
	}
	return v
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, x := range val {
			out[i] = cloneValue(x)
		}
		return out
	default:
		return v
	}
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
