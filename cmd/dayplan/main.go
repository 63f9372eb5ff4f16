package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/dayplanhq/dayplan-cli/cmd/dayplan/agenda"
	"github.com/dayplanhq/dayplan-cli/cmd/dayplan/login"
	"github.com/dayplanhq/dayplan-cli/cmd/dayplan/logout"
	"github.com/dayplanhq/dayplan-cli/cmd/dayplan/register"
	"github.com/dayplanhq/dayplan-cli/cmd/dayplan/telegram"
	"github.com/dayplanhq/dayplan-cli/cmd/dayplan/whoami"
)

// Version will be set by the build system
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Dayplan CLI version",
	Run: func(_ *cobra.Command, _ []string) {
		out := Version
		if info, ok := debug.ReadBuildInfo(); ok && Version == "dev" && info.Main.Version != "" {
			out = info.Main.Version
		}
		fmt.Println(out)
	},
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dayplan",
		Short: "Dayplan CLI",
		Long:  "Command line client for the dayplan scheduling service.",
	}

	cmd.PersistentFlags().String("config", "", "path to the config file")

	cmd.AddCommand(
		versionCmd,
		login.Cmd(),
		register.Cmd(),
		logout.Cmd(),
		whoami.Cmd(),
		agenda.Cmd(),
		telegram.Cmd(),
	)

	return cmd
}

func execute() error {
	ctx, cancelOnSignal := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancelOnSignal()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		return err
	}

	return nil
}

func main() {
	if err := execute(); err != nil {
		os.Exit(1)
	}
}
