// Package observability wires OpenTelemetry tracing into a reshape run. Each
// pipeline stage becomes a span; with tracing enabled the spans are printed
// to stderr when the run ends.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer resolves through the global provider, so spans follow Initialize.
var tracer trace.Tracer = otel.Tracer("reshape")

// Span wraps a trace span and collects attributes until End.
type Span struct {
	span       trace.Span
	startTime  time.Time
	attributes []attribute.KeyValue
}

// NewSpan starts a span on the global tracer
func NewSpan(ctx context.Context, operationName string) (context.Context, *Span) {
	ctx, span := tracer.Start(ctx, operationName)

	return ctx, &Span{
		span:      span,
		startTime: time.Now(),
	}
}

// SetAttribute adds an attribute to the span
func (s *Span) SetAttribute(key string, value interface{}) {
	var attr attribute.KeyValue

	switch v := value.(type) {
	case string:
		attr = attribute.String(key, v)
	case int:
		attr = attribute.Int(key, v)
	case int64:
		attr = attribute.Int64(key, v)
	case float64:
		attr = attribute.Float64(key, v)
	case bool:
		attr = attribute.Bool(key, v)
	default:
		attr = attribute.String(key, fmt.Sprintf("%v", v))
	}

	s.attributes = append(s.attributes, attr)
}

// SetStatus sets the span status
func (s *Span) SetStatus(code codes.Code, description string) {
	s.span.SetStatus(code, description)
}

// End ends the span and returns its duration
func (s *Span) End() time.Duration {
	if len(s.attributes) > 0 {
		s.span.SetAttributes(s.attributes...)
	}
	s.span.End()
	return time.Since(s.startTime)
}

// StageObserver receives the outcome of every traced stage.
type StageObserver func(stage string, d time.Duration, err error)

// StageTracer traces the stages of one run.
type StageTracer struct {
	runID   string
	observe StageObserver
}

// NewStageTracer creates a tracer for the run. observe may be nil.
func NewStageTracer(runID string, observe StageObserver) *StageTracer {
	return &StageTracer{runID: runID, observe: observe}
}

// Trace runs fn inside a "reshape.<stage>" span and reports its outcome.
func (st *StageTracer) Trace(ctx context.Context, stage string, fn func(ctx context.Context) error) error {
	ctx, span := NewSpan(ctx, "reshape."+stage)
	span.SetAttribute("run.id", st.runID)
	span.SetAttribute("stage", stage)

	err := fn(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttribute("error", true)
		span.SetAttribute("error.message", err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	d := span.End()
	if st.observe != nil {
		st.observe(stage, d, err)
	}
	return err
}
