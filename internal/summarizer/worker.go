// Package summarizer turns flagged events into structured incident reports.
// A single worker loop drains suspicious unprocessed events from the store,
// asks the generative backend for a four-section summary, and persists the
// parsed result. Parsing and backend failures both degrade to deterministic
// fallback content; the loop itself never aborts on a bad item.
package summarizer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gitmonhq/gitmon/internal/ai"
	"github.com/gitmonhq/gitmon/internal/config"
	"github.com/gitmonhq/gitmon/internal/metrics"
	"github.com/gitmonhq/gitmon/internal/store"
	"github.com/gitmonhq/gitmon/models"
)

// Publisher receives every newly persisted report. The gateway's broadcaster
// implements it; composition replaces any hidden write-hook coupling between
// storage and fan-out.
type Publisher interface {
	PublishReport(rpt *models.Report)
}

// Worker is the summarization loop. Construct with New, then Start/Stop.
type Worker struct {
	store    *store.Store
	provider ai.Provider
	pub      Publisher

	batchSize  int
	itemDelay  time.Duration
	idleDelay  time.Duration
	errorDelay time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New builds a Worker. pub may be nil when nothing consumes live reports
// (tests, one-shot tools).
func New(cfg config.SummarizerConfig, st *store.Store, provider ai.Provider, pub Publisher) *Worker {
	w := &Worker{
		store:      st,
		provider:   provider,
		pub:        pub,
		batchSize:  cfg.BatchSize,
		itemDelay:  time.Duration(cfg.ItemDelaySecs) * time.Second,
		idleDelay:  time.Duration(cfg.IdleDelaySecs) * time.Second,
		errorDelay: time.Duration(cfg.ErrorDelaySecs) * time.Second,
	}
	if w.batchSize <= 0 {
		w.batchSize = 10
	}
	if w.itemDelay <= 0 {
		w.itemDelay = 2 * time.Second
	}
	if w.idleDelay <= 0 {
		w.idleDelay = 15 * time.Second
	}
	if w.errorDelay <= 0 {
		w.errorDelay = 30 * time.Second
	}
	return w
}

// SetPublisher installs the report consumer. Call before Start; the gateway
// and the worker reference each other, so the publisher is wired after both
// are constructed.
func (w *Worker) SetPublisher(pub Publisher) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pub = pub
}

func (w *Worker) publisher() Publisher {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pub
}

// Start launches the worker loop; a second Start is a no-op.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.mu.Unlock()

	go w.run(runCtx)
	slog.Info("summarizer: started", "provider", w.provider.Name(), "batch_size", w.batchSize)
	return nil
}

// Stop signals the loop to finish the current item and waits for it to exit.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	cancel()
	<-done
	slog.Info("summarizer: stopped")
}

// Running reports whether the loop is active.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	for {
		if ctx.Err() != nil {
			return
		}

		events, err := w.store.ListUnprocessedSuspicious(ctx, w.batchSize)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("summarizer: listing unprocessed events failed", "error", err)
			if !sleepCtx(ctx, w.errorDelay) {
				return
			}
			continue
		}

		for i := range events {
			if ctx.Err() != nil {
				return
			}
			if err := w.processEvent(ctx, &events[i]); err != nil {
				// Leave the event unprocessed; a later cycle retries it.
				slog.Error("summarizer: processing event failed",
					"event_id", events[i].ID, "error", err)
			}
			// Global rate limit toward the backend.
			if !sleepCtx(ctx, w.itemDelay) {
				return
			}
		}

		if !sleepCtx(ctx, w.idleDelay) {
			return
		}
	}
}

// processEvent generates, persists, and publishes the report for one event,
// then marks the event processed. If a report already exists (a crash landed
// between insert and mark on an earlier run) the event is only marked.
func (w *Worker) processEvent(ctx context.Context, evt *models.Event) error {
	if existing, err := w.store.GetReportByEventID(ctx, evt.ID); err == nil && existing != nil {
		slog.Debug("summarizer: report already exists, marking processed", "event_id", evt.ID)
		return w.store.MarkProcessed(ctx, evt.ID)
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	slog.Info("summarizer: processing event",
		"type", evt.Type, "repo", evt.RepoName, "event_id", evt.ID)

	rpt := w.GenerateReport(ctx, evt)
	if _, err := w.store.InsertReport(ctx, rpt); err != nil {
		return err
	}
	if err := w.store.MarkProcessed(ctx, evt.ID); err != nil {
		return err
	}

	metrics.ReportsGenerated.WithLabelValues(rpt.Source).Inc()
	if pub := w.publisher(); pub != nil {
		pub.PublishReport(rpt)
	}
	slog.Info("summarizer: report generated",
		"event_id", evt.ID, "repo", evt.RepoName, "source", rpt.Source)
	return nil
}

// GenerateReport produces a complete report for evt. It cannot fail: backend
// errors yield the canned per-kind report, unparseable responses go through
// bullet salvage, and any still-empty section is topped up from the canned
// table.
func (w *Worker) GenerateReport(ctx context.Context, evt *models.Event) *models.Report {
	var s Summary
	source := models.ReportSourceAI

	text, err := w.provider.Summarize(ctx, BuildPrompt(evt))
	if err != nil {
		slog.Warn("summarizer: backend call failed, using canned fallback",
			"event_id", evt.ID, "provider", w.provider.Name(), "error", err)
		s = CannedSummary(evt)
		source = models.ReportSourceCanned
	} else {
		var ok bool
		s, ok = Parse(text)
		if !ok {
			source = models.ReportSourceHeuristic
		}
		s = fillBlanks(s, evt)
	}

	return &models.Report{
		EventID:        evt.ID,
		RepoName:       evt.RepoName,
		EventType:      evt.Type,
		OverallSummary: s.Overall,
		RootCause:      s.RootCause,
		Impact:         s.Impact,
		NextSteps:      s.NextSteps,
		Source:         source,
		CreatedAt:      time.Now().UTC(),
	}
}

// sleepCtx sleeps for d or until ctx is cancelled, reporting whether the full
// sleep elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
