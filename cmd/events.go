package cmd

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gitmonhq/gitmon/internal/config"
	"github.com/gitmonhq/gitmon/internal/database"
	"github.com/gitmonhq/gitmon/internal/store"
)

var (
	eventsLimit      int
	eventsSuspicious bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Dump recently stored events",
	Long: `Prints the newest events captured by the poller, one per line.
Run 'gitmon serve' in another terminal (or earlier) to populate the store.`,
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 25, "maximum events to print")
	eventsCmd.Flags().BoolVar(&eventsSuspicious, "suspicious", false, "only show flagged events")
}

func runEvents(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	st := store.New(db)
	events, err := st.ListRecentEvents(ctx, eventsSuspicious, eventsLimit)
	if err != nil {
		return fmt.Errorf("listing events: %w", err)
	}
	if len(events) == 0 {
		fmt.Println("No events stored yet.")
		return nil
	}

	for _, evt := range events {
		flag := " "
		if evt.IsSuspicious {
			flag = "!"
		}
		fmt.Printf("%s %-28s %-40s %-20s %s\n",
			flag, evt.Type, evt.RepoName, evt.ActorName, humanize.Time(evt.CreatedAt))
	}
	fmt.Printf("\n%d events\n", len(events))
	return nil
}
