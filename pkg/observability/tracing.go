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

// Span wraps a trace span and batches its attributes until End
type Span struct {
	span       trace.Span
	startTime  time.Time
	attributes []attribute.KeyValue
}

// StartSpan starts a span on tracer, or on the global tracer when tracer is nil
func StartSpan(ctx context.Context, tracer trace.Tracer, name string) (context.Context, *Span) {
	if tracer == nil {
		tracer = otel.Tracer(InstrumentationName)
	}
	ctx, span := tracer.Start(ctx, name)
	return ctx, &Span{span: span, startTime: time.Now()}
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

// AddEvent adds an event to the span
func (s *Span) AddEvent(name string, attrs ...attribute.KeyValue) {
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// Finish records the outcome of the traced operation
func (s *Span) Finish(err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
		s.SetAttribute("error", true)
		return
	}
	s.span.SetStatus(codes.Ok, "")
}

// End flushes the attributes, ends the span and returns its duration
func (s *Span) End() time.Duration {
	if len(s.attributes) > 0 {
		s.span.SetAttributes(s.attributes...)
	}
	s.span.End()
	return time.Since(s.startTime)
}

// Trace runs fn inside a span named name
func Trace(ctx context.Context, tracer trace.Tracer, name string, fn func(context.Context) error) error {
	ctx, span := StartSpan(ctx, tracer, name)
	defer span.End()

	err := fn(ctx)
	span.Finish(err)
	return err
}
