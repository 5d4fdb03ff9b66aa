// Package config holds the configuration of an apimtpl run.
//
// # Sections
//
//   - discovery: input file extensions, exclude globs and read concurrency
//   - synthesis: ARM API version and sequential dependency chaining
//   - placeholders: variable expansion depth
//   - output: target directory, file names and indentation
//   - logging: level, encoding and development mode
//   - observability: metrics textfile and tracing
//
// # Usage
//
//	cfg := config.NewCompilerConfig()
//	if err := config.Load("apimtpl.yaml", cfg); err != nil {
//		log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
// # Environment Variable Substitution
//
//	# apimtpl.yaml
//	output:
//	  dir: ${APIMTPL_OUT}
//	observability:
//	  metrics_textfile: ${TEXTFILE_DIR}/apimtpl.prom
//
// The command line layers flags and APIMTPL_ environment variables on top of
// the file through viper.
package config
