package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gitmonhq/gitmon/internal/ai"
	"github.com/gitmonhq/gitmon/internal/classifier"
	"github.com/gitmonhq/gitmon/internal/config"
	"github.com/gitmonhq/gitmon/internal/database"
	"github.com/gitmonhq/gitmon/internal/gateway"
	"github.com/gitmonhq/gitmon/internal/notify"
	"github.com/gitmonhq/gitmon/internal/poller"
	"github.com/gitmonhq/gitmon/internal/store"
	"github.com/gitmonhq/gitmon/internal/summarizer"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gitmon pipeline daemon",
	Long: `Starts the full gitmon pipeline: the feed poller, the summarization
worker, and a local HTTP gateway (default: http://127.0.0.1:7080).

Quick API reference:
  GET /health           liveness check
  GET /api/summary      recent incident summaries (?since=RFC3339)
  GET /api/events       recent stored events (?suspicious=true)
  GET /api/status       pipeline counters snapshot
  GET /api/stream       SSE stream of live summaries
  GET /metrics          Prometheus metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0,
		"HTTP port to listen on (default 7080, overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		fmt.Println("\nShutting down gracefully...")
		cancel()
	}()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if servePort > 0 {
		cfg.Gateway.Port = servePort
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
	clf := classifier.New(cfg.Classifier)
	p := poller.New(cfg.GitHub, st, clf)

	provider, err := ai.New(cfg.AI)
	if err != nil {
		return fmt.Errorf("configuring AI provider: %w", err)
	}

	notifier := notify.NewDispatcher(cfg.Notify)
	worker := summarizer.New(cfg.Summarizer, st, provider, nil)
	gw := gateway.New(cfg, st, p, worker, notifier)

	// The worker publishes through the gateway's broadcaster; the gateway
	// needs the worker for /health. Resolve the cycle here.
	worker.SetPublisher(gw)

	if cfg.GitHub.Token == "" {
		slog.Warn("no GitHub token configured, rate limit is 60 requests/hour")
	}

	fmt.Printf("gitmon starting\n")
	fmt.Printf("  Database : %s\n", cfg.Database.Driver)
	fmt.Printf("  Provider : %s\n", provider.Name())
	fmt.Printf("  API      : http://127.0.0.1:%d\n", cfg.Gateway.Port)
	fmt.Printf("  Stream   : http://127.0.0.1:%d/api/stream\n\n", cfg.Gateway.Port)
	fmt.Println("Press Ctrl+C to stop gracefully.")
	fmt.Println()

	if err := p.Start(ctx); err != nil {
		return fmt.Errorf("starting poller: %w", err)
	}
	defer p.Stop()

	if err := worker.Start(ctx); err != nil {
		return fmt.Errorf("starting summarizer: %w", err)
	}
	defer worker.Stop()

	return gw.Start(ctx)
}
