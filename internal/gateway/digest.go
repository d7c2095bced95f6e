package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gitmonhq/gitmon/internal/notify"
	"github.com/gitmonhq/gitmon/internal/store"
)

// Digest periodically broadcasts an activity summary over SSE and through
// the notification channels. The cadence is a cron expression ("@hourly",
// "0 9 * * *"); an empty expression disables the digest entirely.
type Digest struct {
	expr      string
	store     *store.Store
	broadcast func(SSEEvent)
	notifier  *notify.Dispatcher
	cron      *cron.Cron

	lastRunAt time.Time
}

func newDigest(expr string, st *store.Store, broadcast func(SSEEvent), notifier *notify.Dispatcher) *Digest {
	return &Digest{
		expr:      expr,
		store:     st,
		broadcast: broadcast,
		notifier:  notifier,
		cron:      cron.New(),
	}
}

// Start registers the digest job and starts the cron runner.
func (d *Digest) Start() error {
	if d.expr == "" {
		slog.Info("gateway: digest disabled")
		return nil
	}
	if _, err := d.cron.AddFunc(d.expr, d.run); err != nil {
		return fmt.Errorf("invalid digest cron expression %q: %w", d.expr, err)
	}
	d.lastRunAt = time.Now()
	d.cron.Start()
	slog.Info("gateway: digest scheduled", "expr", d.expr)
	return nil
}

// Stop halts the cron runner gracefully.
func (d *Digest) Stop() { d.cron.Stop() }

// run builds one digest covering the window since the previous run and fans
// it out.
func (d *Digest) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	since := d.lastRunAt
	d.lastRunAt = time.Now()

	counts, err := d.store.CountAll(ctx)
	if err != nil {
		slog.Error("gateway: digest count failed", "error", err)
		return
	}
	reports, err := d.store.ListReports(ctx, since, 100)
	if err != nil {
		slog.Error("gateway: digest report listing failed", "error", err)
		return
	}

	payload := DigestPayload{
		At:         nowRFC3339(),
		Counts:     counts,
		NewReports: len(reports),
		Window:     since.UTC().Format(time.RFC3339),
	}
	d.broadcast(SSEEvent{Type: "digest", Payload: payload})
	slog.Info("gateway: digest published",
		"new_reports", payload.NewReports, "pending", counts.Pending)

	if d.notifier == nil || !d.notifier.IsAnyConfigured() {
		return
	}
	d.notifier.Notify(ctx, notify.Event{
		Type:  "digest",
		Title: fmt.Sprintf("gitmon digest: %d new reports", payload.NewReports),
		Body: fmt.Sprintf("%d events stored (%d suspicious, %d pending), %d reports total.",
			counts.Events, counts.Suspicious, counts.Pending, counts.Reports),
		Metadata: map[string]any{"counts": counts, "new_reports": payload.NewReports},
	})
}
