package whoami

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dayplanhq/dayplan-cli/internal/app"
	"github.com/dayplanhq/dayplan-cli/internal/cmdutils"
)

func Cmd() *cobra.Command {
	return cmdutils.CobraCommand(
		"whoami",
		"Show the signed-in identity",
		"Print the identity of the currently signed-in user.",
		cobra.NoArgs,
		run,
	)
}

func run(ctx context.Context, a *app.App, _ []string) error {
	snap, err := a.RequireSession(ctx)
	if err != nil {
		return err
	}

	u := snap.User
	fmt.Printf("ID:          %s\n", u.ID)
	fmt.Printf("Username:    %s\n", u.Username)
	fmt.Printf("Email:       %s\n", u.Email)
	if u.DisplayName != "" {
		fmt.Printf("Name:        %s\n", u.DisplayName)
	}
	fmt.Printf("Role:        %s\n", u.Role)
	if u.DefaultRouteMode != "" {
		fmt.Printf("Route mode:  %s\n", u.DefaultRouteMode)
	}
	return nil
}
