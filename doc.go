// Package apimtpl compiles layered API gateway configuration into Azure
// Resource Manager deployment templates.
//
// Users describe APIs, operations, products, subscriptions and named values
// once, in any number of YAML files, and override them per environment. The
// compiler merges the files, validates them, expands one model per
// environment and emits azuredeploy.json with its parameters document.
//
// # Quick Start
//
//	apimtpl generate ./config -o ./build
//	apimtpl validate ./config
//
// Or through the library:
//
//	import (
//	    "github.com/ajitpratap0/apimtpl/pkg/compiler"
//	    "github.com/ajitpratap0/apimtpl/pkg/loader"
//	)
//
//	docs, err := loader.New(afero.NewOsFs(), loader.DefaultOptions()).Load(ctx, []string{"./config"})
//	out, err := compiler.Generate(ctx, docs, compiler.DefaultOptions())
//
// # Key Packages
//
//	pkg/tree         - Parsed YAML with kinds, positions and implicit markers
//	pkg/combiner     - Deep merge of input documents
//	pkg/schema       - Structural contracts with defaults
//	pkg/expander     - Per-environment models
//	pkg/naming       - Display names and full names
//	pkg/placeholder  - ${...} and $[...] expansion
//	pkg/semantic     - Uniqueness, references and naming patterns
//	pkg/arm          - ARM resource synthesis
//	pkg/compiler     - The staged pipeline tying it together
//	pkg/loader       - File discovery and parsing
//	pkg/output       - Document writer
//	pkg/config       - Run configuration
//	pkg/errors       - Structured error handling
//	pkg/logger       - Structured logging
//	pkg/metrics      - Prometheus metrics
//	pkg/observability - OpenTelemetry tracing
//
// # Configuration
//
// The command line reads flags, APIMTPL_ environment variables, an optional
// --config file and a .env file. Environment variables are supported in the
// config file with ${VAR_NAME} syntax.
//
// See examples/basic for a complete two-environment topology.
package apimtpl
