package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [paths...]",
		Short: "Check the configuration without generating documents",
		Long: `Validate runs every check of generate, structural, referential, placeholder,
scope and naming, but writes nothing.

Example:
  apimtpl validate ./config`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}

			s, err := a.newSession(cfg, "validate")
			if err != nil {
				return err
			}
			defer s.close()

			ctx := cmd.Context()
			docs, err := s.load(ctx, args, a.stdin)
			if err != nil {
				return err
			}

			c, err := s.compiler()
			if err != nil {
				return err
			}
			res, err := c.Validate(ctx, docs)
			if err != nil {
				s.log.Error("validation failed", zap.Error(err), zap.Duration("duration", s.timer.Stop()))
				return err
			}

			s.log.Info("validation completed",
				zap.Int("documents", len(docs)),
				zap.Duration("duration", s.timer.Stop()))
			fmt.Fprintf(a.stdout, "configuration is valid: %d documents, %d environments\n",
				len(docs), len(res.Deployment.Environments))
			return nil
		},
	}
}
