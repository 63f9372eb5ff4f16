package register

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dayplanhq/dayplan-cli/internal/app"
	"github.com/dayplanhq/dayplan-cli/internal/cmdutils"
)

// minPasswordLength is a UX guard only; the backend enforces the real policy.
const minPasswordLength = 8

func Cmd() *cobra.Command {
	return cmdutils.CobraCommand(
		"register <email> <username>",
		"Create a dayplan account",
		"Create a dayplan account and sign in with it.",
		cobra.ExactArgs(2),
		run,
	)
}

func run(ctx context.Context, a *app.App, args []string) error {
	snap, err := a.Session.Hydrate(ctx)
	if err != nil {
		return fmt.Errorf("hydrating session: %w", err)
	}
	if snap.Authenticated() {
		return fmt.Errorf("already signed in as %s; sign out first", snap.User.Username)
	}

	password, err := cmdutils.ReadPassword(os.Stdin, os.Stderr, "Password: ")
	if err != nil {
		return err
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	confirm, err := cmdutils.ReadPassword(os.Stdin, os.Stderr, "Repeat password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	snap, err = a.Session.SignUp(ctx, args[0], args[1], password)
	if err != nil {
		return err
	}

	fmt.Printf("Welcome to dayplan, %s\n", snap.User.Username)
	return nil
}
