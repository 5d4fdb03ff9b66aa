package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func enabledConfig(buf *bytes.Buffer) TracingConfig {
	config := DefaultTracingConfig()
	config.Enabled = true
	config.Writer = buf
	config.PrettyPrint = false
	return config
}

func TestDisabledProviderIsNoop(t *testing.T) {
	p, err := NewProvider(DefaultTracingConfig())
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), p.Tracer(), "combine")
	assert.False(t, span.span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestTraceRecordsOutcome(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	var buf bytes.Buffer
	p, err := NewProvider(enabledConfig(&buf), sdktrace.WithSpanProcessor(recorder))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, Trace(ctx, p.Tracer(), "combine", func(ctx context.Context) error { return nil }))

	boom := errors.New("boom")
	err = Trace(ctx, p.Tracer(), "semantic", func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "combine", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, "semantic", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Contains(t, spans[1].Attributes(), attribute.Bool("error", true))

	require.NoError(t, p.Shutdown(ctx))
	assert.Contains(t, buf.String(), `"Name":"combine"`)
}

func TestSpanAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	var buf bytes.Buffer
	p, err := NewProvider(enabledConfig(&buf), sdktrace.WithSpanProcessor(recorder))
	require.NoError(t, err)
	defer p.Shutdown(context.Background())

	_, span := StartSpan(context.Background(), p.Tracer(), "synthesis")
	span.SetAttribute("stage.name", "synthesis")
	span.SetAttribute("stage.violations", 0)
	span.SetAttribute("stage.ratio", 0.5)
	span.SetAttribute("stage.other", []string{"x"})
	span.End()

	require.Len(t, recorder.Ended(), 1)
	assert.ElementsMatch(t, []attribute.KeyValue{
		attribute.String("stage.name", "synthesis"),
		attribute.Int("stage.violations", 0),
		attribute.Float64("stage.ratio", 0.5),
		attribute.String("stage.other", "[x]"),
	}, recorder.Ended()[0].Attributes())
}
