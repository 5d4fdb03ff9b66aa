package main

import (
	"context"
	"io"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/ajitpratap0/apimtpl/pkg/compiler"
	"github.com/ajitpratap0/apimtpl/pkg/config"
	"github.com/ajitpratap0/apimtpl/pkg/loader"
	"github.com/ajitpratap0/apimtpl/pkg/logger"
	"github.com/ajitpratap0/apimtpl/pkg/metrics"
	"github.com/ajitpratap0/apimtpl/pkg/observability"
	"github.com/ajitpratap0/apimtpl/pkg/tree"
)

// shutdownTimeout bounds flushing of exported spans
const shutdownTimeout = 5 * time.Second

// session holds the ambient services of one command invocation
type session struct {
	cfg      *config.CompilerConfig
	fs       afero.Fs
	log      *zap.Logger
	provider *observability.Provider
	metrics  *metrics.Collector
	timer    *metrics.Timer
}

func (a *app) newSession(cfg *config.CompilerConfig, command string) (*session, error) {
	log, err := logger.New(cfg.LoggerConfig())
	if err != nil {
		return nil, err
	}
	logger.Set(log)

	tracing := cfg.TracingConfig(version)
	tracing.Writer = a.stderr
	provider, err := observability.NewProvider(tracing)
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:      cfg,
		fs:       a.fs,
		log:      log.With(zap.String("command", command)),
		provider: provider,
		metrics:  metrics.NewCollector(),
		timer:    metrics.NewTimer(command),
	}, nil
}

// load reads the input documents named by paths
func (s *session) load(ctx context.Context, paths []string, stdin io.Reader) ([]*tree.Node, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	opts := loader.DefaultOptions()
	opts.Extensions = s.cfg.Discovery.Extensions
	opts.Exclude = s.cfg.Discovery.Exclude
	opts.Concurrency = s.cfg.Discovery.Concurrency
	opts.Stdin = stdin
	opts.Logger = s.log

	return loader.New(s.fs, opts).Load(ctx, paths)
}

// compiler builds a compiler wired to the session services
func (s *session) compiler() (*compiler.Compiler, error) {
	opts := compiler.DefaultOptions()
	opts.Policy = s.cfg.Policy()
	opts.MaxDepth = s.cfg.Placeholders.MaxDepth
	opts.ContractVersion = s.cfg.Contract
	opts.Logger = s.log
	opts.Tracer = s.provider.Tracer()
	opts.Metrics = s.metrics
	return compiler.New(opts)
}

// close flushes spans and writes the metrics textfile
func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.provider.Shutdown(ctx); err != nil {
		s.log.Warn("failed to shut down tracing", zap.Error(err))
	}

	if path := s.cfg.Observability.MetricsTextfile; path != "" {
		if err := s.metrics.WriteToTextfile(path); err != nil {
			s.log.Warn("failed to write metrics textfile", zap.String("path", path), zap.Error(err))
		}
	}
	_ = s.log.Sync()
}
