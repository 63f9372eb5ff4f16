package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dayplanhq/dayplan-cli/internal/app"
	"github.com/dayplanhq/dayplan-cli/internal/cmdutils"
)

func Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telegram",
		Short: "Telegram account linking",
	}
	cmd.AddCommand(linkCmd())
	return cmd
}

func linkCmd() *cobra.Command {
	return cmdutils.CobraCommand(
		"link",
		"Link the account to a Telegram chat",
		"Request a link code and open Telegram. The native app is tried first, then the web client.",
		cobra.NoArgs,
		runLink,
	)
}

func runLink(ctx context.Context, a *app.App, _ []string) error {
	if _, err := a.RequireSession(ctx); err != nil {
		return err
	}

	link, err := a.Telegram.RequestLink(ctx)
	if err != nil {
		return fmt.Errorf("requesting telegram link: %w", err)
	}

	fmt.Printf("Link code: %s", link.Code)
	if !link.ExpiresAt.IsZero() {
		fmt.Printf(" (expires %s)", link.ExpiresAt.Local().Format(time.Kitchen))
	}
	fmt.Println()
	fmt.Printf("If Telegram does not open, visit %s\n", link.WebLink)

	link.Open(ctx, a.Config.Telegram.FallbackWait, nil)
	return nil
}
