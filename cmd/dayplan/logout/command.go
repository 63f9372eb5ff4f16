package logout

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dayplanhq/dayplan-cli/internal/app"
	"github.com/dayplanhq/dayplan-cli/internal/cmdutils"
)

func Cmd() *cobra.Command {
	return cmdutils.CobraCommand(
		"logout",
		"Sign out of dayplan",
		"Sign out and wipe the locally stored credentials. The server-side invalidation is best effort.",
		cobra.NoArgs,
		run,
	)
}

func run(ctx context.Context, a *app.App, _ []string) error {
	if _, err := a.Session.Hydrate(ctx); err != nil {
		return fmt.Errorf("hydrating session: %w", err)
	}

	if _, err := a.Session.SignOut(ctx); err != nil {
		return err
	}

	fmt.Println("Signed out")
	return nil
}
