package vtest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/ango/pkg/host"
	"github.com/vango-dev/ango/pkg/host/memhost"
	"github.com/vango-dev/ango/pkg/instrument"
	"github.com/vango-dev/ango/pkg/render"
	"github.com/vango-dev/ango/pkg/sched"
	"github.com/vango-dev/ango/pkg/vdom"
)

// Harness mounts components into an in-memory document.
type Harness struct {
	tb testing.TB

	Doc       *memhost.Document
	Deferrer  *sched.Manual
	Renderer  *render.Renderer
	Container *memhost.Node
	Events    *Recorder
	Registry  *prometheus.Registry
	Metrics   *instrument.Metrics

	root      host.Node
	flushErrs []error
}

// New creates a harness. opts are applied after the harness defaults and
// may override them.
func New(tb testing.TB, opts ...render.Option) *Harness {
	tb.Helper()
	h := &Harness{
		tb:       tb,
		Doc:      memhost.New(),
		Deferrer: sched.NewManual(),
		Events:   &Recorder{},
		Registry: prometheus.NewRegistry(),
	}
	h.Container = h.Doc.Container("body")
	h.Metrics = instrument.NewMetrics(instrument.WithRegistry(h.Registry))

	base := []render.Option{
		render.WithDeferrer(h.Deferrer),
		render.WithHooks(h.Events.Hooks()),
		render.WithMetrics(h.Metrics),
		render.WithErrorHandler(func(err error) {
			h.flushErrs = append(h.flushErrs, err)
		}),
	}
	h.Renderer = render.New(h.Doc, append(base, opts...)...)
	return h
}

// Mount renders v into the container and fails the test on error.
func (h *Harness) Mount(v *vdom.VNode) *memhost.Node {
	h.tb.Helper()
	root, err := h.Renderer.Mount(context.Background(), v, h.Container, nil)
	if err != nil {
		h.tb.Fatalf("Mount failed: %v", err)
	}
	h.root = root
	return memhost.N(root)
}

// Render reconciles v against the current root.
func (h *Harness) Render(v *vdom.VNode) error {
	root, err := h.Renderer.Mount(context.Background(), v, h.Container, h.root)
	if root != nil {
		h.root = root
	}
	return err
}

// MustRender is Render that fails the test on error.
func (h *Harness) MustRender(v *vdom.VNode) *memhost.Node {
	h.tb.Helper()
	if err := h.Render(v); err != nil {
		h.tb.Fatalf("Render failed: %v", err)
	}
	return h.Root()
}

// Hydrate adopts an existing live tree instead of building a new one.
func (h *Harness) Hydrate(v *vdom.VNode, existing *memhost.Node) (*memhost.Node, error) {
	root, err := h.Renderer.Mount(context.Background(), v, h.Container, existing)
	if root != nil {
		h.root = root
	}
	return memhost.N(root), err
}

// Unmount removes the current root.
func (h *Harness) Unmount() error {
	if h.root == nil {
		return render.ErrNotRoot
	}
	err := h.Renderer.Unmount(h.root)
	h.root = nil
	return err
}

// Flush runs every deferred task, including scheduler flushes, and returns
// the flush errors they reported.
func (h *Harness) Flush() error {
	h.Deferrer.Drain()
	err := errors.Join(h.flushErrs...)
	h.flushErrs = nil
	return err
}

// MustFlush is Flush that fails the test on error.
func (h *Harness) MustFlush() {
	h.tb.Helper()
	if err := h.Flush(); err != nil {
		h.tb.Fatalf("Flush failed: %v", err)
	}
}

// Root returns the current live root, or nil.
func (h *Harness) Root() *memhost.Node {
	if h.root == nil {
		return nil
	}
	return memhost.N(h.root)
}

// Instance returns the outermost instance rendering the root.
func (h *Harness) Instance() *render.Instance {
	if h.root == nil {
		return nil
	}
	return h.Renderer.InstanceOf(h.root)
}

// InstanceOf returns the outermost instance rendering n.
func (h *Harness) InstanceOf(n *memhost.Node) *render.Instance {
	return h.Renderer.InstanceOf(n)
}

// Markup returns the container's children as compact markup.
func (h *Harness) Markup() string {
	var b strings.Builder
	for _, child := range h.Container.Children() {
		b.WriteString(memhost.Markup(child, memhost.MarkupOptions{}))
	}
	return b.String()
}

// TakeLog returns and clears the mutation log.
func (h *Harness) TakeLog() []memhost.Mutation {
	return h.Doc.TakeLog()
}

// Click dispatches a click event at n.
func (h *Harness) Click(n *memhost.Node) int {
	return h.Doc.Dispatch(n, "click", nil)
}

// Counter returns the value of the counter ango_<name> whose label value
// is label, or of the unlabeled counter when label is empty. It returns 0
// when the series does not exist.
func (h *Harness) Counter(name, label string) float64 {
	h.tb.Helper()
	families, err := h.Registry.Gather()
	if err != nil {
		h.tb.Fatalf("Gather failed: %v", err)
	}
	for _, f := range families {
		if f.GetName() != "ango_"+name {
			continue
		}
		return counterValue(f, label)
	}
	return 0
}

func counterValue(f *dto.MetricFamily, label string) float64 {
	for _, m := range f.GetMetric() {
		if label == "" {
			return m.GetCounter().GetValue()
		}
		for _, lp := range m.GetLabel() {
			if lp.GetValue() == label {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

// Recorder records renderer hook calls as "hook:Component" strings.
type Recorder struct {
	events []string
}

// Hooks returns renderer hooks that record into r.
func (r *Recorder) Hooks() render.Hooks {
	rec := func(name string) func(*render.Instance) {
		return func(c *render.Instance) {
			r.events = append(r.events, name+":"+c.Name())
		}
	}
	return render.Hooks{
		BeforeMount:   rec("beforeMount"),
		AfterMount:    rec("afterMount"),
		BeforeUpdate:  rec("beforeUpdate"),
		AfterUpdate:   rec("afterUpdate"),
		BeforeUnmount: rec("beforeUnmount"),
	}
}

// Events returns the recorded events in order.
func (r *Recorder) Events() []string {
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

// Filter returns the recorded events for one hook, in order.
func (r *Recorder) Filter(hook string) []string {
	var out []string
	for _, e := range r.events {
		if strings.HasPrefix(e, hook+":") {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how often hook fired for component.
func (r *Recorder) Count(hook, component string) int {
	n := 0
	for _, e := range r.events {
		if e == hook+":"+component {
			n++
		}
	}
	return n
}

// Reset clears the recorded events.
func (r *Recorder) Reset() {
	r.events = r.events[:0]
}

// ExpectMarkup asserts the container's markup.
func ExpectMarkup(t testing.TB, h *Harness, want string) {
	t.Helper()
	if got := h.Markup(); got != want {
		t.Errorf("expected markup:\n%s\ngot:\n%s", want, got)
	}
}

// ExpectContains asserts that the container's markup contains substr.
func ExpectContains(t testing.TB, h *Harness, substr string) {
	t.Helper()
	if got := h.Markup(); !strings.Contains(got, substr) {
		t.Errorf("expected markup to contain %q, got:\n%s", substr, truncate(got, 500))
	}
}

// ExpectNoMutations asserts that log is empty.
func ExpectNoMutations(t testing.TB, log []memhost.Mutation) {
	t.Helper()
	if len(log) != 0 {
		t.Errorf("expected no mutations, got %d:\n%s", len(log), memhost.FormatLog(log))
	}
}

// truncate shortens a string for error messages.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
