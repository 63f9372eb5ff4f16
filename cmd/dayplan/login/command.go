package login

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dayplanhq/dayplan-cli/internal/app"
	"github.com/dayplanhq/dayplan-cli/internal/cmdutils"
	"github.com/dayplanhq/dayplan-cli/internal/session"
)

func Cmd() *cobra.Command {
	return cmdutils.CobraCommand(
		"login <identifier>",
		"Sign in to dayplan",
		"Sign in with an email address or username. A pending second factor is printed for completion in the dayplan app.",
		cobra.ExactArgs(1),
		run,
	)
}

func run(ctx context.Context, a *app.App, args []string) error {
	snap, err := a.Session.Hydrate(ctx)
	if err != nil {
		return fmt.Errorf("hydrating session: %w", err)
	}
	if snap.Authenticated() {
		fmt.Printf("Already signed in as %s\n", snap.User.Username)
		return nil
	}

	password, err := cmdutils.ReadPassword(os.Stdin, os.Stderr, "Password: ")
	if err != nil {
		return err
	}

	snap, err = a.Session.SignIn(ctx, args[0], password)
	if err != nil {
		return err
	}

	switch snap.Status {
	case session.StatusAuthenticated:
		fmt.Printf("Signed in as %s (%s)\n", snap.User.Username, snap.User.Role)
	case session.StatusChallengePending:
		c := snap.Challenge
		fmt.Printf("Verification required (%s). Complete it in the dayplan app before %s, then sign in again.\n",
			c.Method, c.ExpiresAt.Local().Format(time.Kitchen))
		if c.Message != "" {
			fmt.Println(c.Message)
		}
	default:
		return fmt.Errorf("unexpected session state %s after sign-in", snap.Status)
	}
	return nil
}
