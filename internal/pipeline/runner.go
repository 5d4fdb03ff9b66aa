package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/apimtpl/pkg/errors"
	"github.com/ajitpratap0/apimtpl/pkg/logger"
	"github.com/ajitpratap0/apimtpl/pkg/observability"
	stringpool "github.com/ajitpratap0/apimtpl/pkg/strings"
)

// Runner executes stages one after another, stopping at the first failure.
// No stage starts before the previous one succeeded.
type Runner struct {
	stages  []Stage
	config  Config
	logger  *zap.Logger
	timings []StageTiming

	startTime time.Time
}

// NewRunner creates a runner. The runner is initialized but not started;
// call Run to execute the stages.
func NewRunner(config *Config, log *zap.Logger) *Runner {
	if config == nil {
		config = &Config{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{config: *config, logger: log}
}

// AddStage appends a stage
func (r *Runner) AddStage(name string, fn StageFunc) {
	r.stages = append(r.stages, Stage{Name: name, Run: fn})
}

// Stages returns the names of the registered stages in order
func (r *Runner) Stages() []string {
	names := make([]string, len(r.stages))
	for i, s := range r.stages {
		names[i] = s.Name
	}
	return names
}

// Run executes every stage. The error of the failing stage is returned
// unchanged so callers can inspect its type and violations.
func (r *Runner) Run(ctx context.Context) error {
	r.startTime = time.Now()
	r.timings = r.timings[:0]

	log := logger.FromContext(ctx, r.logger)
	log.Debug("starting pipeline", zap.Int("stages", len(r.stages)))

	for _, stage := range r.stages {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal,
				stringpool.Sprintf("pipeline cancelled before stage %s", stage.Name))
		}
		if err := r.runStage(ctx, stage); err != nil {
			return err
		}
	}

	log.Debug("pipeline completed", zap.Duration("duration", time.Since(r.startTime)))
	return nil
}

func (r *Runner) runStage(ctx context.Context, stage Stage) error {
	ctx = context.WithValue(ctx, logger.StageKey, stage.Name)
	log := logger.FromContext(ctx, r.logger)

	ctx, span := observability.StartSpan(ctx, r.config.Tracer, stringpool.Concat("apimtpl.", stage.Name))
	span.SetAttribute("stage.name", stage.Name)

	err := stage.Run(ctx)

	timing := StageTiming{Stage: stage.Name, Failed: err != nil}
	if err != nil {
		timing.Violations = r.recordViolations(stage.Name, err)
	}
	span.SetAttribute("stage.violations", timing.Violations)
	span.Finish(err)
	timing.Duration = span.End()
	r.timings = append(r.timings, timing)

	if r.config.Metrics != nil {
		r.config.Metrics.ObserveStage(stage.Name, timing.Duration)
	}

	if err != nil {
		log.Debug("stage failed",
			zap.Duration("duration", timing.Duration),
			zap.Int("violations", timing.Violations),
			zap.Error(err))
		return err
	}
	log.Debug("stage completed", zap.Duration("duration", timing.Duration))
	return nil
}

// recordViolations counts the violations carried by err per error type
func (r *Runner) recordViolations(stage string, err error) int {
	violations := []error{err}
	var stageErr *errors.StageError
	if errors.As(err, &stageErr) {
		violations = stageErr.Violations()
	}

	if r.config.Metrics != nil {
		byType := make(map[string]int)
		for _, v := range violations {
			byType[string(errorType(v))]++
		}
		for t, n := range byType {
			r.config.Metrics.AddViolations(stage, t, n)
		}
	}
	return len(violations)
}

func errorType(err error) errors.ErrorType {
	var e *errors.Error
	if errors.As(err, &e) {
		return e.Type
	}
	return errors.ErrorTypeInternal
}

// Timings returns the timing of every stage that ran in the last Run
func (r *Runner) Timings() []StageTiming {
	out := make([]StageTiming, len(r.timings))
	copy(out, r.timings)
	return out
}

// Metrics returns a summary of the last run
func (r *Runner) Metrics() map[string]interface{} {
	var violations int
	for _, t := range r.timings {
		violations += t.Violations
	}
	return map[string]interface{}{
		"stages":      len(r.stages),
		"stages_run":  len(r.timings),
		"violations":  violations,
		"duration":    time.Since(r.startTime).String(),
		"duration_ms": time.Since(r.startTime).Milliseconds(),
	}
}
