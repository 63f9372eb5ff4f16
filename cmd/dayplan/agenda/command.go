package agenda

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dayplanhq/dayplan-cli/internal/app"
	"github.com/dayplanhq/dayplan-cli/internal/cmdutils"
)

var (
	dateFlag    string
	noCacheFlag bool
)

func Cmd() *cobra.Command {
	cmd := cmdutils.CobraCommand(
		"agenda",
		"Show the agenda for a day",
		"Fetch and print the scheduled entries for a day. Entries are cached briefly, use --no-cache to force a fetch.",
		cobra.NoArgs,
		run,
	)
	cmd.Flags().StringVar(&dateFlag, "date", "", "day to show, formatted YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&noCacheFlag, "no-cache", false, "bypass the local agenda cache")
	return cmd
}

func run(ctx context.Context, a *app.App, _ []string) error {
	if _, err := a.RequireSession(ctx); err != nil {
		return err
	}

	day := dateFlag
	if day == "" {
		day = time.Now().Format(time.DateOnly)
	}
	if _, err := time.Parse(time.DateOnly, day); err != nil {
		return fmt.Errorf("parsing --date %q: %w", day, err)
	}

	entries, err := a.Schedule.Agenda(ctx, day, noCacheFlag)
	if err != nil {
		return fmt.Errorf("fetching agenda for %s: %w", day, err)
	}

	if len(entries) == 0 {
		fmt.Printf("Nothing scheduled for %s\n", day)
		return nil
	}

	fmt.Printf("Agenda for %s\n", day)
	for _, e := range entries {
		line := fmt.Sprintf("%s - %s  %s",
			e.StartsAt.Local().Format(time.Kitchen),
			e.EndsAt.Local().Format(time.Kitchen),
			e.Title,
		)
		if e.Location != "" {
			line += " @ " + e.Location
		}
		if e.RouteMode != "" {
			line += " (" + e.RouteMode + ")"
		}
		fmt.Println(line)
	}
	return nil
}
