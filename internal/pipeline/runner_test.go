package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/apimtpl/pkg/errors"
	"github.com/ajitpratap0/apimtpl/pkg/metrics"
)

func TestRunnerRunsStagesInOrder(t *testing.T) {
	var order []string
	r := NewRunner(nil, nil)
	for _, name := range []string{"combine", "structural", "expand"} {
		name := name
		r.AddStage(name, func(ctx context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []string{"combine", "structural", "expand"}, order)
	assert.Equal(t, order, r.Stages())
	assert.Len(t, r.Timings(), 3)
	assert.Equal(t, 0, r.Metrics()["violations"])
}

func TestRunnerStopsAtFirstFailure(t *testing.T) {
	collector := metrics.NewCollector()
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")
	core, logs := observer.New(zap.DebugLevel)

	c := errors.NewCollector("semantic")
	c.Addf(errors.ErrorTypeReferential, "product %q references unknown api %q", "starter", "x")
	c.Addf(errors.ErrorTypeReferential, "product %q references unknown api %q", "starter", "y")
	c.Addf(errors.ErrorTypeStructural, "duplicate api %q", "orders")
	stageErr := c.Err()

	ran := false
	r := NewRunner(&Config{Tracer: tracer, Metrics: collector}, zap.New(core))
	r.AddStage("combine", func(ctx context.Context) error { return nil })
	r.AddStage("semantic", func(ctx context.Context) error { return stageErr })
	r.AddStage("synthesis", func(ctx context.Context) error {
		ran = true
		return nil
	})

	err := r.Run(context.Background())
	assert.Same(t, stageErr, err)
	assert.False(t, ran)

	timings := r.Timings()
	require.Len(t, timings, 2)
	assert.True(t, timings[1].Failed)
	assert.Equal(t, 3, timings[1].Violations)

	expected := `
# HELP apimtpl_violations_total Violations reported per stage and error type
# TYPE apimtpl_violations_total counter
apimtpl_violations_total{stage="semantic",type="referential"} 2
apimtpl_violations_total{stage="semantic",type="structural"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(collector.Registry(), strings.NewReader(expected), "apimtpl_violations_total"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "apimtpl.semantic", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)

	failed := logs.FilterMessage("stage failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "semantic", failed[0].ContextMap()["stage"])
}

func TestRunnerHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(nil, nil)
	r.AddStage("combine", func(ctx context.Context) error {
		t.Fatal("stage must not run")
		return nil
	})

	err := r.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInternal))
	assert.Contains(t, err.Error(), "pipeline cancelled before stage combine")
	assert.Empty(t, r.Timings())
}

func TestPlainErrorCountsAsOneViolation(t *testing.T) {
	collector := metrics.NewCollector()
	r := NewRunner(&Config{Metrics: collector}, nil)
	r.AddStage("load", func(ctx context.Context) error {
		return errors.New(errors.ErrorTypeFile, "failed to read file")
	})

	require.Error(t, r.Run(context.Background()))
	assert.Equal(t, 1, r.Timings()[0].Violations)

	expected := `
# HELP apimtpl_violations_total Violations reported per stage and error type
# TYPE apimtpl_violations_total counter
apimtpl_violations_total{stage="load",type="file"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(collector.Registry(), strings.NewReader(expected), "apimtpl_violations_total"))
}
