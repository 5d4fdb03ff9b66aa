package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/apimtpl/pkg/config"
	"github.com/ajitpratap0/apimtpl/pkg/output"
)

func (a *app) generateCommand(defaults *config.CompilerConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [paths...]",
		Short: "Generate the ARM template and parameters document",
		Long: `Generate reads every YAML file under the given paths, in lexicographic order
with files before subdirectories, and writes azuredeploy.json and
azuredeploy.parameters.json. Use - to read standard input. Without --output the
documents are printed to stdout as one JSON object keyed by file name.

Example:
  apimtpl generate ./config -o ./build`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			return a.generate(cmd, cfg, args)
		},
	}

	flags := cmd.Flags()
	flags.StringP("output", "o", defaults.Output.Dir, "Output directory (default stdout)")
	flags.String("template-file", defaults.Output.TemplateFile, "File name of the template document")
	flags.String("parameters-file", defaults.Output.ParametersFile, "File name of the parameters document")
	flags.String("indent", defaults.Output.Indent, "Indentation of generated JSON")
	flags.String("api-version", defaults.Synthesis.APIVersion, "API Management resource API version")
	flags.Bool("sequential-apis", defaults.Synthesis.SequentialAPIs, "Chain API resources so they deploy one at a time")
	flags.Bool("sequential-operations", defaults.Synthesis.SequentialOperations, "Chain operations of an API so they deploy one at a time")
	return cmd
}

func (a *app) generate(cmd *cobra.Command, cfg *config.CompilerConfig, paths []string) error {
	s, err := a.newSession(cfg, "generate")
	if err != nil {
		return err
	}
	defer s.close()

	ctx := cmd.Context()
	docs, err := s.load(ctx, paths, a.stdin)
	if err != nil {
		return err
	}

	c, err := s.compiler()
	if err != nil {
		return err
	}
	res, err := c.Compile(ctx, docs)
	if err != nil {
		s.log.Error("generation failed", zap.Error(err), zap.Duration("duration", s.timer.Stop()))
		return err
	}

	writer := output.NewWriter(a.fs, output.Options{
		Dir:            cfg.Output.Dir,
		TemplateFile:   cfg.Output.TemplateFile,
		ParametersFile: cfg.Output.ParametersFile,
		Indent:         cfg.Output.Indent,
		Stdout:         a.stdout,
		Logger:         s.log,
	})
	written, err := writer.Write(res.Output.Documents())
	if err != nil {
		return err
	}

	resources := 0
	if res.Output.Template != nil {
		resources = len(res.Output.Template.Resources)
	}
	s.log.Info("generation completed",
		zap.Int("documents", len(docs)),
		zap.Int("environments", len(res.Deployment.Environments)),
		zap.Int("resources", resources),
		zap.Strings("written", written),
		zap.Duration("duration", s.timer.Stop()))
	return nil
}
