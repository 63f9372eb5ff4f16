// Package cmdutils carries the shared command pipeline: load configuration,
// initialise logging, assemble the application, run the command body.
package cmdutils

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/dayplanhq/dayplan-cli/internal/app"
	"github.com/dayplanhq/dayplan-cli/internal/config"
	"github.com/dayplanhq/dayplan-cli/internal/logging"
)

// RunFunc is a command body with a ready application.
type RunFunc func(ctx context.Context, a *app.App, args []string) error

// CobraCommand builds a subcommand around the shared pipeline.
func CobraCommand(use, short, long string, args cobra.PositionalArgs, fn RunFunc) *cobra.Command {
	return &cobra.Command{
		Use:          use,
		Short:        short,
		Long:         long,
		Args:         args,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, cliArgs []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if err := logging.Init(cfg.Logger, os.Stderr); err != nil {
				return oops.In("cli").Wrapf(err, "Failed to initialise the logger")
			}

			a, err := app.New(cfg)
			if err != nil {
				return oops.In("cli").Wrapf(err, "Failed to assemble the application")
			}
			defer a.Close()

			if err := fn(cmd.Context(), a, cliArgs); err != nil {
				return oops.In(commandName(use)).Wrap(err)
			}
			return nil
		},
	}
}

func commandName(use string) string {
	if fields := strings.Fields(use); len(fields) > 0 {
		return fields[0]
	}
	return use
}
