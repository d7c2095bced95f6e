package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gitmonhq/gitmon/internal/config"
	"github.com/gitmonhq/gitmon/internal/notify"
	"github.com/gitmonhq/gitmon/internal/poller"
	"github.com/gitmonhq/gitmon/internal/store"
	"github.com/gitmonhq/gitmon/internal/summarizer"
	"github.com/gitmonhq/gitmon/models"
)

// Gateway is the HTTP control plane: REST queries over the stored pipeline
// output, an SSE stream of live reports, Prometheus metrics, and the cron
// digest. It does not own the poller or the worker; it only reads their
// state and relays what the worker publishes.
type Gateway struct {
	cfg         *config.Config
	store       *store.Store
	poller      *poller.Poller
	worker      *summarizer.Worker
	notifier    *notify.Dispatcher
	broadcaster *Broadcaster
	digest      *Digest

	startedAt time.Time
}

// New creates a Gateway. Call Start() to begin serving.
func New(cfg *config.Config, st *store.Store, p *poller.Poller, w *summarizer.Worker, notifier *notify.Dispatcher) *Gateway {
	gw := &Gateway{
		cfg:         cfg,
		store:       st,
		poller:      p,
		worker:      w,
		notifier:    notifier,
		broadcaster: newBroadcaster(),
		startedAt:   time.Now(),
	}
	gw.digest = newDigest(cfg.Gateway.DigestCron, st, gw.broadcaster.send, notifier)
	return gw
}

// PublishReport pushes a freshly generated report to all SSE subscribers and
// fires the notification channels. The summarization worker calls it after
// each successful insert.
func (gw *Gateway) PublishReport(rpt *models.Report) {
	gw.broadcaster.send(SSEEvent{Type: "new_summary", Payload: newReportView(*rpt)})

	if gw.notifier == nil || !gw.notifier.IsAnyConfigured() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	gw.notifier.Notify(ctx, notify.Event{
		Type:     "report_created",
		Title:    fmt.Sprintf("Suspicious %s in %s", rpt.EventType, rpt.RepoName),
		Body:     rpt.OverallSummary,
		RepoName: rpt.RepoName,
		Metadata: map[string]any{"event_id": rpt.EventID, "source": rpt.Source},
	})
}

// Start runs the gateway until ctx is cancelled. It starts the digest cron
// and the SSE heartbeat, then binds the HTTP server and blocks until
// shutdown.
func (gw *Gateway) Start(ctx context.Context) error {
	port := gw.cfg.Gateway.Port
	if port == 0 {
		port = 7080
	}
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	if err := gw.digest.Start(); err != nil {
		return fmt.Errorf("starting digest scheduler: %w", err)
	}

	go gw.runHeartbeat(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           buildHandler(gw),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		gw.digest.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("gateway: listening", "addr", "http://"+addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// runHeartbeat broadcasts a "ping" frame on a fixed cadence so idle SSE
// connections are kept alive through proxies and stalled clients get pruned.
func (gw *Gateway) runHeartbeat(ctx context.Context) {
	interval := time.Duration(gw.cfg.Gateway.PingIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			gw.broadcaster.send(SSEEvent{Type: "ping", Payload: map[string]string{"at": nowRFC3339()}})
		}
	}
}

func (gw *Gateway) uptimeSeconds() int64 {
	return int64(time.Since(gw.startedAt).Seconds())
}
