package instrument

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
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
	return -1
}

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"), WithSubsystem("ui"))

	m.RecordRender("Counter")
	m.RecordRender("Counter")
	m.RecordRenderSkip("Counter")
	m.RecordMount("Counter")
	m.RecordUnmount("Counter")
	m.RecordFlush(0.01, 3)
	m.RecordPool(true)
	m.RecordPool(false)
	m.RecordPool(false)
	m.RecordWatcherError()
	m.RecordHostError("value")

	families := gather(t, reg)

	tests := []struct {
		name  string
		label string
		want  float64
	}{
		{"test_ui_renders_total", "Counter", 2},
		{"test_ui_render_skips_total", "Counter", 1},
		{"test_ui_mounts_total", "Counter", 1},
		{"test_ui_unmounts_total", "Counter", 1},
		{"test_ui_flush_jobs_total", "", 3},
		{"test_ui_pool_hits_total", "", 1},
		{"test_ui_pool_misses_total", "", 2},
		{"test_ui_watcher_errors_total", "", 1},
		{"test_ui_host_errors_total", "value", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := families[tt.name]
			if !ok {
				t.Fatalf("Expected metric family %s", tt.name)
			}
			if got := counterValue(f, tt.label); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}

	h, ok := families["test_ui_flush_duration_seconds"]
	if !ok {
		t.Fatal("Expected flush duration histogram")
	}
	if got := h.GetMetric()[0].GetHistogram().GetSampleCount(); got != 1 {
		t.Errorf("Expected 1 flush sample, got %d", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRender("x")
	m.RecordRenderSkip("x")
	m.RecordMount("x")
	m.RecordUnmount("x")
	m.RecordFlush(1, 1)
	m.RecordPool(true)
	m.RecordWatcherError()
	m.RecordHostError("x")
}

func TestTracerNoop(t *testing.T) {
	var nilTracer *Tracer
	ctx, span := nilTracer.Start(context.Background(), "ango.render", Component("App"))
	if ctx == nil {
		t.Fatal("Expected context")
	}
	span.SetAttributes(Jobs(1))
	span.End(errors.New("boom"))

	tr := NewTracer(nil)
	_, span = tr.Start(context.Background(), "ango.flush")
	span.End(nil)
}
