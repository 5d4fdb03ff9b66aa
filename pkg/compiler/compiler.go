// Package compiler turns layered API gateway configuration documents into
// an ARM deployment template and its parameters document.
//
// # Stages
//
// A compilation runs these stages in order and stops at the first one that
// reports violations. Every stage reports all of its violations at once.
//
//  1. combine       deep-merge the input documents
//  2. structural    check the merged tree against the contract and fill in defaults
//  3. expand        build one independent model per environment
//  4. naming        derive display names and full names
//  5. placeholders  expand ${...} and $[...] macros
//  6. semantic      check uniqueness, references and naming patterns
//  7. synthesis     emit ARM resources
//
// # Basic Usage
//
//	docs, err := loader.New(afero.NewOsFs()).Load(ctx, []string{"./config"})
//	out, err := compiler.Generate(ctx, docs, compiler.DefaultOptions())
//	// out["azuredeploy.json"], out["azuredeploy.parameters.json"]
package compiler

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/apimtpl/internal/pipeline"
	"github.com/ajitpratap0/apimtpl/pkg/arm"
	"github.com/ajitpratap0/apimtpl/pkg/combiner"
	"github.com/ajitpratap0/apimtpl/pkg/errors"
	"github.com/ajitpratap0/apimtpl/pkg/expander"
	"github.com/ajitpratap0/apimtpl/pkg/logger"
	"github.com/ajitpratap0/apimtpl/pkg/metrics"
	"github.com/ajitpratap0/apimtpl/pkg/models"
	"github.com/ajitpratap0/apimtpl/pkg/naming"
	"github.com/ajitpratap0/apimtpl/pkg/placeholder"
	"github.com/ajitpratap0/apimtpl/pkg/schema"
	"github.com/ajitpratap0/apimtpl/pkg/semantic"
	"github.com/ajitpratap0/apimtpl/pkg/tree"
)

// Stage names
const (
	StageCombine      = "combine"
	StageStructural   = "structural"
	StageExpand       = "expand"
	StageNaming       = "naming"
	StagePlaceholders = "placeholders"
	StageSemantic     = "semantic"
	StageSynthesis    = "synthesis"
)

// Options configure a compilation
type Options struct {
	// Policy controls resource emission
	Policy arm.Policy

	// MaxDepth bounds variable-in-variable expansion
	MaxDepth int

	// ContractVersion selects the structural contract; empty means latest
	ContractVersion string

	// Validator replaces the contract engine of the structural stage
	Validator schema.Validator

	Logger  *zap.Logger
	Tracer  trace.Tracer
	Metrics *metrics.Collector
}

// DefaultOptions returns the default compilation options
func DefaultOptions() Options {
	return Options{
		Policy:   arm.DefaultPolicy(),
		MaxDepth: placeholder.DefaultMaxDepth,
	}
}

// Result holds the outputs of every stage that ran
type Result struct {
	Root       *tree.Node
	Deployment *models.Deployment
	Names      *naming.Table
	Resolved   *placeholder.Resolved
	Output     *arm.Output
	Timings    []pipeline.StageTiming
}

// Compiler runs compilations with fixed options
type Compiler struct {
	opts      Options
	validator schema.Validator
	logger    *zap.Logger
}

// New creates a compiler. Without an explicit validator the structural
// contract is taken from the built-in registry.
func New(opts Options) (*Compiler, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	validator := opts.Validator
	if validator == nil {
		registry, err := schema.NewDefaultRegistry(log)
		if err != nil {
			return nil, err
		}
		engine, err := registry.Engine(opts.ContractVersion)
		if err != nil {
			return nil, err
		}
		validator = engine
	}

	return &Compiler{opts: opts, validator: validator, logger: log}, nil
}

// Generate compiles docs and returns the generated documents keyed by file
// name. Either every document is returned or none.
func Generate(ctx context.Context, docs []*tree.Node, opts Options) (map[string]interface{}, error) {
	c, err := New(opts)
	if err != nil {
		return nil, err
	}
	return c.Generate(ctx, docs)
}

// Validate runs every stage but synthesis
func Validate(ctx context.Context, docs []*tree.Node, opts Options) (*Result, error) {
	c, err := New(opts)
	if err != nil {
		return nil, err
	}
	return c.Validate(ctx, docs)
}

// Generate compiles docs and returns the generated documents
func (c *Compiler) Generate(ctx context.Context, docs []*tree.Node) (map[string]interface{}, error) {
	res, err := c.Compile(ctx, docs)
	if err != nil {
		return nil, err
	}
	return res.Output.Documents(), nil
}

// Compile runs every stage and returns their outputs
func (c *Compiler) Compile(ctx context.Context, docs []*tree.Node) (*Result, error) {
	return c.run(ctx, docs, true)
}

// Validate runs every stage but synthesis
func (c *Compiler) Validate(ctx context.Context, docs []*tree.Node) (*Result, error) {
	return c.run(ctx, docs, false)
}

func (c *Compiler) run(ctx context.Context, docs []*tree.Node, synthesize bool) (*Result, error) {
	if _, ok := ctx.Value(logger.RunIDKey).(string); !ok {
		ctx = context.WithValue(ctx, logger.RunIDKey, uuid.NewString())
	}
	log := logger.FromContext(ctx, c.logger)

	res := &Result{}
	runner := pipeline.NewRunner(&pipeline.Config{Tracer: c.opts.Tracer, Metrics: c.opts.Metrics}, c.logger)

	runner.AddStage(StageCombine, func(ctx context.Context) error {
		root, err := combiner.Combine(docs)
		if err != nil {
			return err
		}
		res.Root = root
		if c.opts.Metrics != nil {
			c.opts.Metrics.AddDocuments(len(docs))
		}
		return nil
	})

	runner.AddStage(StageStructural, func(ctx context.Context) error {
		return c.structural(res.Root)
	})

	runner.AddStage(StageExpand, func(ctx context.Context) error {
		d, err := expander.New(c.logger).Expand(ctx, res.Root)
		if err != nil {
			return err
		}
		res.Deployment = d
		return nil
	})

	runner.AddStage(StageNaming, func(ctx context.Context) error {
		res.Names = naming.Resolve(res.Deployment)
		return nil
	})

	runner.AddStage(StagePlaceholders, func(ctx context.Context) error {
		resolved, err := placeholder.New(res.Names,
			placeholder.WithMaxDepth(c.opts.MaxDepth),
			placeholder.WithLogger(c.logger),
		).ResolveContext(ctx, res.Deployment)
		if err != nil {
			return err
		}
		res.Resolved = resolved
		return nil
	})

	runner.AddStage(StageSemantic, func(ctx context.Context) error {
		return semantic.New(c.logger).Validate(res.Deployment, res.Names, res.Resolved)
	})

	if synthesize {
		runner.AddStage(StageSynthesis, func(ctx context.Context) error {
			out, err := arm.New(c.opts.Policy, res.Names, res.Resolved, c.logger).Synthesize(res.Deployment)
			if err != nil {
				return err
			}
			res.Output = out
			c.countResources(out)
			return nil
		})
	}

	err := runner.Run(ctx)
	res.Timings = runner.Timings()
	if c.opts.Metrics != nil {
		c.opts.Metrics.RecordRun(err)
	}
	if err != nil {
		log.Debug("compilation failed", zap.Error(err))
		return nil, err
	}

	log.Debug("compilation finished",
		zap.Int("documents", len(docs)),
		zap.Int("environments", len(res.Deployment.Environments)),
		zap.Any("summary", runner.Metrics()))
	return res, nil
}

// structural validates root against the contract, applying defaults
func (c *Compiler) structural(root *tree.Node) error {
	result := c.validator.Validate(root, schema.Options{ApplyDefaults: true})
	if result.Valid {
		return nil
	}
	if len(result.Violations) == 0 {
		return errors.New(errors.ErrorTypeStructural, "unknown validation error")
	}

	collector := errors.NewCollector(StageStructural)
	for _, v := range result.Violations {
		collector.Add(errors.New(errors.ErrorTypeStructural, v.String()))
	}
	return collector.Err()
}

func (c *Compiler) countResources(out *arm.Output) {
	if c.opts.Metrics == nil || out.Template == nil {
		return
	}
	counts := make(map[string]int)
	for _, r := range out.Template.Resources {
		counts[r.Type]++
	}
	for t, n := range counts {
		c.opts.Metrics.AddResources(t, n)
	}
}
