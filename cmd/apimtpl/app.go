package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ajitpratap0/apimtpl/pkg/config"
	"github.com/ajitpratap0/apimtpl/pkg/errors"
)

// envPrefix prefixes every environment variable read by the command line
const envPrefix = "APIMTPL"

// flagKeys maps command line flags onto configuration keys
var flagKeys = map[string]string{
	"contract":              "contract",
	"extensions":            "discovery.extensions",
	"exclude":               "discovery.exclude",
	"concurrency":           "discovery.concurrency",
	"api-version":           "synthesis.api_version",
	"sequential-apis":       "synthesis.sequential_apis",
	"sequential-operations": "synthesis.sequential_operations",
	"max-depth":             "placeholders.max_depth",
	"output":                "output.dir",
	"template-file":         "output.template_file",
	"parameters-file":       "output.parameters_file",
	"indent":                "output.indent",
	"log-level":             "logging.level",
	"log-encoding":          "logging.encoding",
	"log-development":       "logging.development",
	"metrics-textfile":      "observability.metrics_textfile",
	"tracing":               "observability.tracing",
	"sampling-rate":         "observability.sampling_rate",
}

// app carries the process boundary so commands can run against an
// in-memory filesystem
type app struct {
	fs     afero.Fs
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configFile string
	envFile    string
}

// execute runs the command line and returns the process exit code
func execute(args []string, fs afero.Fs, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{fs: fs, stdin: stdin, stdout: stdout, stderr: stderr}

	root := a.rootCommand()
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		a.printError(err)
		return 1
	}
	return 0
}

func (a *app) rootCommand() *cobra.Command {
	defaults := config.NewCompilerConfig()

	root := &cobra.Command{
		Use:   "apimtpl",
		Short: "Compile API gateway configuration into ARM templates",
		Long: `apimtpl reads layered YAML describing APIs, products, subscriptions and
environments, and generates an Azure Resource Manager template with its
parameters document.

Configuration is read from flags, APIMTPL_ environment variables, an optional
--config file and a .env file, in that order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Path to an apimtpl configuration file")
	flags.StringVar(&a.envFile, "env-file", ".env", "Environment file loaded when present")
	flags.String("contract", defaults.Contract, "Contract version used for structural validation (default latest)")
	flags.StringSlice("extensions", defaults.Discovery.Extensions, "File extensions read from directories")
	flags.StringSlice("exclude", defaults.Discovery.Exclude, "Glob patterns excluded from discovery")
	flags.Int("concurrency", defaults.Discovery.Concurrency, "Number of files read concurrently")
	flags.Int("max-depth", defaults.Placeholders.MaxDepth, "Maximum depth of variable-in-variable expansion")
	flags.String("log-level", defaults.Logging.Level, "Log level (debug, info, warn, error)")
	flags.String("log-encoding", defaults.Logging.Encoding, "Log encoding (console, json)")
	flags.Bool("log-development", defaults.Logging.Development, "Enable development logging")
	flags.String("metrics-textfile", defaults.Observability.MetricsTextfile, "Write run metrics to this node-exporter textfile")
	flags.Bool("tracing", defaults.Observability.Tracing, "Export stage spans to stderr")
	flags.Float64("sampling-rate", defaults.Observability.SamplingRate, "Trace sampling rate between 0 and 1")

	root.AddCommand(a.generateCommand(defaults), a.validateCommand(), a.versionCommand())
	return root
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "apimtpl v%s\n", version)
			fmt.Fprintf(a.stdout, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(a.stdout, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// loadConfig layers flags over environment over the config file over
// defaults
func (a *app) loadConfig(cmd *cobra.Command) (*config.CompilerConfig, error) {
	if err := a.loadEnvFile(cmd.Flags().Changed("env-file")); err != nil {
		return nil, err
	}

	cfg := config.NewCompilerConfig()
	if a.configFile != "" {
		if err := config.LoadFs(a.fs, a.configFile, cfg); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, cfg)

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return nil, errors.Wrap(bindErr, errors.ErrorTypeConfig, "failed to bind flags")
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to decode configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment variables reach it
func setDefaults(v *viper.Viper, cfg *config.CompilerConfig) {
	v.SetDefault("contract", cfg.Contract)
	v.SetDefault("discovery.extensions", cfg.Discovery.Extensions)
	v.SetDefault("discovery.exclude", cfg.Discovery.Exclude)
	v.SetDefault("discovery.concurrency", cfg.Discovery.Concurrency)
	v.SetDefault("synthesis.api_version", cfg.Synthesis.APIVersion)
	v.SetDefault("synthesis.sequential_apis", cfg.Synthesis.SequentialAPIs)
	v.SetDefault("synthesis.sequential_operations", cfg.Synthesis.SequentialOperations)
	v.SetDefault("placeholders.max_depth", cfg.Placeholders.MaxDepth)
	v.SetDefault("output.dir", cfg.Output.Dir)
	v.SetDefault("output.template_file", cfg.Output.TemplateFile)
	v.SetDefault("output.parameters_file", cfg.Output.ParametersFile)
	v.SetDefault("output.indent", cfg.Output.Indent)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.encoding", cfg.Logging.Encoding)
	v.SetDefault("logging.development", cfg.Logging.Development)
	v.SetDefault("observability.metrics_textfile", cfg.Observability.MetricsTextfile)
	v.SetDefault("observability.tracing", cfg.Observability.Tracing)
	v.SetDefault("observability.sampling_rate", cfg.Observability.SamplingRate)
}

// loadEnvFile exports the variables of the env file that are not already
// set. A missing file is only an error when it was named explicitly.
func (a *app) loadEnvFile(required bool) error {
	if a.envFile == "" {
		return nil
	}

	f, err := a.fs.Open(a.envFile)
	if err != nil {
		if !required && os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to open env file "+a.envFile)
	}
	defer f.Close()

	env, err := godotenv.Parse(f)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse env file "+a.envFile)
	}
	for key, value := range env {
		if _, ok := os.LookupEnv(key); !ok {
			if err := os.Setenv(key, value); err != nil {
				return errors.Wrap(err, errors.ErrorTypeInternal, "failed to export "+key)
			}
		}
	}
	return nil
}

// printError writes one line per violation
func (a *app) printError(err error) {
	var stageErr *errors.StageError
	if errors.As(err, &stageErr) {
		for _, v := range stageErr.Violations() {
			fmt.Fprintf(a.stderr, "error: %v\n", v)
		}
		return
	}
	fmt.Fprintf(a.stderr, "error: %v\n", err)
}
