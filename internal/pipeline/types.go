// Package pipeline runs the compilation stages in order with timing,
// logging, tracing and metrics around each one.
package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/ajitpratap0/apimtpl/pkg/metrics"
)

// StageFunc is the body of one stage. A stage reads the outputs of earlier
// stages through its closure and publishes its own the same way.
type StageFunc func(ctx context.Context) error

// Stage is a named step of the pipeline
type Stage struct {
	Name string
	Run  StageFunc
}

// StageTiming records how one stage went
type StageTiming struct {
	Stage      string        `json:"stage"`
	Duration   time.Duration `json:"duration"`
	Violations int           `json:"violations"`
	Failed     bool          `json:"failed"`
}

// Config wires the runner to the ambient stack. Nil fields are replaced by
// no-op implementations.
type Config struct {
	Tracer  trace.Tracer
	Metrics *metrics.Collector
}
