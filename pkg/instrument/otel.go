package instrument

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for Ango.
const defaultTracerName = "ango"

// Tracer starts spans around mounts, renders and flushes.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer wraps t. A nil t resolves the tracer from the global provider.
func NewTracer(t trace.Tracer) *Tracer {
	if t == nil {
		t = otel.Tracer(defaultTracerName)
	}
	return &Tracer{tracer: t}
}

// Span is a started span. End records err, if any, and ends the span.
type Span struct {
	span trace.Span
}

// Start opens a span named name. A nil Tracer returns a no-op span.
func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	if t == nil {
		return ctx, Span{}
	}
	ctx, span := t.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	return ctx, Span{span: span}
}

// SetAttributes adds attributes to the span.
func (s Span) SetAttributes(attrs ...attribute.KeyValue) {
	if s.span == nil {
		return
	}
	s.span.SetAttributes(attrs...)
}

// End records err and ends the span.
func (s Span) End(err error) {
	if s.span == nil {
		return
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}

// Component returns the attribute naming a component.
func Component(name string) attribute.KeyValue {
	return attribute.String("ango.component", name)
}

// Jobs returns the attribute carrying a flush's job count.
func Jobs(n int) attribute.KeyValue {
	return attribute.Int("ango.jobs", n)
}
