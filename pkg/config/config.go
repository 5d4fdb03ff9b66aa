package config

import (
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/apimtpl/pkg/arm"
	"github.com/ajitpratap0/apimtpl/pkg/errors"
	"github.com/ajitpratap0/apimtpl/pkg/json"
	"github.com/ajitpratap0/apimtpl/pkg/logger"
	"github.com/ajitpratap0/apimtpl/pkg/observability"
	"github.com/ajitpratap0/apimtpl/pkg/placeholder"
)

// CompilerConfig is the complete configuration of an apimtpl run
type CompilerConfig struct {
	// Contract selects the structural contract version; empty means latest
	Contract string `yaml:"contract" json:"contract" mapstructure:"contract"`

	Discovery     DiscoveryConfig     `yaml:"discovery" json:"discovery" mapstructure:"discovery"`
	Synthesis     SynthesisConfig     `yaml:"synthesis" json:"synthesis" mapstructure:"synthesis"`
	Placeholders  PlaceholderConfig   `yaml:"placeholders" json:"placeholders" mapstructure:"placeholders"`
	Output        OutputConfig        `yaml:"output" json:"output" mapstructure:"output"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging" mapstructure:"logging"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability" mapstructure:"observability"`
}

// DiscoveryConfig controls which input files are read
type DiscoveryConfig struct {
	Extensions  []string `yaml:"extensions" json:"extensions" mapstructure:"extensions"`
	Exclude     []string `yaml:"exclude" json:"exclude" mapstructure:"exclude"`
	Concurrency int      `yaml:"concurrency" json:"concurrency" mapstructure:"concurrency"`
}

// SynthesisConfig controls ARM resource emission
type SynthesisConfig struct {
	APIVersion           string `yaml:"api_version" json:"api_version" mapstructure:"api_version"`
	SequentialAPIs       bool   `yaml:"sequential_apis" json:"sequential_apis" mapstructure:"sequential_apis"`
	SequentialOperations bool   `yaml:"sequential_operations" json:"sequential_operations" mapstructure:"sequential_operations"`
}

// PlaceholderConfig controls macro expansion
type PlaceholderConfig struct {
	MaxDepth int `yaml:"max_depth" json:"max_depth" mapstructure:"max_depth"`
}

// OutputConfig controls where generated documents are written. An empty
// Dir or "-" writes a single JSON object to stdout.
type OutputConfig struct {
	Dir            string `yaml:"dir" json:"dir" mapstructure:"dir"`
	TemplateFile   string `yaml:"template_file" json:"template_file" mapstructure:"template_file"`
	ParametersFile string `yaml:"parameters_file" json:"parameters_file" mapstructure:"parameters_file"`
	Indent         string `yaml:"indent" json:"indent" mapstructure:"indent"`
}

// LoggingConfig mirrors logger.Config
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level" mapstructure:"level"`
	Encoding    string `yaml:"encoding" json:"encoding" mapstructure:"encoding"`
	Development bool   `yaml:"development" json:"development" mapstructure:"development"`
}

// ObservabilityConfig controls metrics and tracing export
type ObservabilityConfig struct {
	// MetricsTextfile is a node-exporter textfile written after each run
	MetricsTextfile string  `yaml:"metrics_textfile" json:"metrics_textfile" mapstructure:"metrics_textfile"`
	Tracing         bool    `yaml:"tracing" json:"tracing" mapstructure:"tracing"`
	SamplingRate    float64 `yaml:"sampling_rate" json:"sampling_rate" mapstructure:"sampling_rate"`
}

// NewCompilerConfig returns a configuration with defaults applied
func NewCompilerConfig() *CompilerConfig {
	policy := arm.DefaultPolicy()
	return &CompilerConfig{
		Discovery: DiscoveryConfig{
			Extensions:  []string{".yaml", ".yml"},
			Concurrency: runtime.NumCPU(),
		},
		Synthesis: SynthesisConfig{
			APIVersion:           policy.APIVersion,
			SequentialAPIs:       policy.SequentialAPIs,
			SequentialOperations: policy.SequentialOperations,
		},
		Placeholders: PlaceholderConfig{
			MaxDepth: placeholder.DefaultMaxDepth,
		},
		Output: OutputConfig{
			TemplateFile:   arm.TemplateFile,
			ParametersFile: arm.ParametersFile,
			Indent:         json.DefaultIndent,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
		Observability: ObservabilityConfig{
			SamplingRate: 1.0,
		},
	}
}

// Validate checks the configuration for errors
func (c *CompilerConfig) Validate() error {
	collector := errors.NewCollector("config")

	if len(c.Discovery.Extensions) == 0 {
		collector.Addf(errors.ErrorTypeConfig, "discovery.extensions must not be empty")
	}
	for _, ext := range c.Discovery.Extensions {
		if !strings.HasPrefix(ext, ".") {
			collector.Addf(errors.ErrorTypeConfig, "discovery.extensions: %q must start with a dot", ext)
		}
	}
	for _, pattern := range c.Discovery.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			collector.Addf(errors.ErrorTypeConfig, "discovery.exclude: invalid pattern %q", pattern)
		}
	}
	if c.Discovery.Concurrency <= 0 {
		collector.Addf(errors.ErrorTypeConfig, "discovery.concurrency must be positive")
	}

	if c.Synthesis.APIVersion == "" {
		collector.Addf(errors.ErrorTypeConfig, "synthesis.api_version is required")
	}

	if c.Placeholders.MaxDepth <= 0 {
		collector.Addf(errors.ErrorTypeConfig, "placeholders.max_depth must be positive")
	}

	if c.Output.TemplateFile == "" {
		collector.Addf(errors.ErrorTypeConfig, "output.template_file is required")
	}
	if c.Output.ParametersFile == "" {
		collector.Addf(errors.ErrorTypeConfig, "output.parameters_file is required")
	}
	if c.Output.TemplateFile != "" && c.Output.TemplateFile == c.Output.ParametersFile {
		collector.Addf(errors.ErrorTypeConfig, "output.template_file and output.parameters_file must differ")
	}
	if strings.Trim(c.Output.Indent, " \t") != "" {
		collector.Addf(errors.ErrorTypeConfig, "output.indent may only contain spaces and tabs")
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		collector.Addf(errors.ErrorTypeConfig, "logging.level: unknown level %q", c.Logging.Level)
	}
	if c.Logging.Encoding != "json" && c.Logging.Encoding != "console" {
		collector.Addf(errors.ErrorTypeConfig, "logging.encoding must be json or console")
	}

	if c.Observability.SamplingRate < 0 || c.Observability.SamplingRate > 1 {
		collector.Addf(errors.ErrorTypeConfig, "observability.sampling_rate must be between 0 and 1")
	}

	return collector.Err()
}

// Policy returns the synthesis policy
func (c *CompilerConfig) Policy() arm.Policy {
	return arm.Policy{
		APIVersion:           c.Synthesis.APIVersion,
		SequentialAPIs:       c.Synthesis.SequentialAPIs,
		SequentialOperations: c.Synthesis.SequentialOperations,
	}
}

// LoggerConfig returns the logger configuration. Logs always go to stderr.
func (c *CompilerConfig) LoggerConfig() logger.Config {
	return logger.Config{
		Level:       c.Logging.Level,
		Encoding:    c.Logging.Encoding,
		Development: c.Logging.Development,
		OutputPaths: []string{"stderr"},
	}
}

// TracingConfig returns the tracing configuration for the given version
func (c *CompilerConfig) TracingConfig(version string) observability.TracingConfig {
	cfg := observability.DefaultTracingConfig()
	cfg.Enabled = c.Observability.Tracing
	cfg.ServiceVersion = version
	cfg.SamplingRate = c.Observability.SamplingRate
	return cfg
}

// WritesToStdout reports whether documents go to standard output
func (c *CompilerConfig) WritesToStdout() bool {
	return c.Output.Dir == "" || c.Output.Dir == "-"
}
