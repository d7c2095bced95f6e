// Package poller ingests the GitHub public events feed.
// One long-running loop fetches the feed page, classifies and upserts every
// event newer than the cursor, then sleeps: a fixed interval on success,
// an exponentially backed-off jittered delay on failure. A rate-limit reset
// signalled by the API takes precedence over the computed backoff.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/gitmonhq/gitmon/internal/classifier"
	"github.com/gitmonhq/gitmon/internal/config"
	"github.com/gitmonhq/gitmon/internal/metrics"
	"github.com/gitmonhq/gitmon/internal/store"
	"github.com/gitmonhq/gitmon/models"
)

const feedPageSize = 100

// feed is the slice of the GitHub API the poller consumes.
// *github.ActivityService satisfies it.
type feed interface {
	ListEvents(ctx context.Context, opts *github.ListOptions) ([]*github.Event, *github.Response, error)
}

// Poller drives the ingestion loop. Construct with New, then Start/Stop.
type Poller struct {
	feed     feed
	store    *store.Store
	clf      *classifier.Classifier
	interval time.Duration
	backoff  *backoff

	mu      sync.Mutex
	cursor  string
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New builds a Poller against the real GitHub API. An empty token means
// unauthenticated access (60 requests/hour — workable, but tight).
func New(cfg config.GitHubConfig, st *store.Store, clf *classifier.Classifier) *Poller {
	httpClient := oauth2.NewClient(context.Background(), nil)
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	client := github.NewClient(httpClient)

	interval := time.Duration(cfg.PollIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	initial := time.Duration(cfg.InitialBackoffMs) * time.Millisecond
	max := time.Duration(cfg.MaxBackoffMs) * time.Millisecond

	return &Poller{
		feed:     client.Activity,
		store:    st,
		clf:      clf,
		interval: interval,
		backoff:  newBackoff(initial, max),
	}
}

// Start launches the polling loop. Calling Start on a running poller is a
// no-op. The loop exits when ctx is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.mu.Unlock()

	cursor, err := p.store.LoadCursor(ctx)
	if err != nil {
		slog.Warn("poller: could not load persisted cursor, starting fresh", "error", err)
	} else if cursor != "" {
		p.setCursor(cursor)
		slog.Info("poller: resuming from persisted cursor", "cursor", cursor)
	}

	go p.run(runCtx)
	slog.Info("poller: started", "interval", p.interval.String())
	return nil
}

// Stop signals the loop to exit after the current iteration and waits for it.
// No in-flight network call is forcibly aborted by Stop itself; cancelling
// the Start context does abort requests.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	cancel()
	<-done
	slog.Info("poller: stopped")
}

// Running reports whether the loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Cursor returns the most recent event id seen.
func (p *Poller) Cursor() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

func (p *Poller) setCursor(c string) {
	p.mu.Lock()
	p.cursor = c
	p.mu.Unlock()
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)
	for {
		if ctx.Err() != nil {
			return
		}

		delay := p.interval
		if err := p.fetchCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			delay = p.failureDelay(err)
			slog.Warn("poller: fetch cycle failed, backing off",
				"delay", delay.Round(time.Millisecond).String(), "error", err)
		} else {
			p.backoff.Reset()
			metrics.PollCycles.WithLabelValues("success").Inc()
		}
		metrics.BackoffSeconds.Set(p.backoff.Current().Seconds())

		if !sleepCtx(ctx, delay) {
			return
		}
	}
}

// fetchCycle issues one feed request and ingests everything newer than the
// cursor. Feed order is newest first, so iteration stops early at the first
// already-seen id; the new cursor is the first event on the page.
func (p *Poller) fetchCycle(ctx context.Context) error {
	events, _, err := p.feed.ListEvents(ctx, &github.ListOptions{PerPage: feedPageSize})
	if err != nil {
		return err
	}

	cursor := p.Cursor()
	ingested, suspicious := 0, 0
	for _, ghEvt := range events {
		if cursor != "" && ghEvt.GetID() == cursor {
			break
		}
		evt := convertEvent(ghEvt)
		if evt == nil {
			continue
		}
		evt.IsSuspicious = p.clf.IsSuspicious(evt)

		if err := p.store.UpsertEvent(ctx, evt); err != nil {
			// A single bad row must not poison the page; the event will come
			// around again while it stays inside the feed window.
			slog.Error("poller: persisting event failed", "event_id", evt.ID, "error", err)
			continue
		}
		ingested++
		metrics.EventsIngested.WithLabelValues(boolLabel(evt.IsSuspicious)).Inc()
		if evt.IsSuspicious {
			suspicious++
			slog.Info("poller: suspicious event detected",
				"type", evt.Type, "repo", evt.RepoName, "actor", evt.ActorName)
		}
	}

	if len(events) > 0 {
		newCursor := events[0].GetID()
		p.setCursor(newCursor)
		if err := p.store.SaveCursor(ctx, newCursor); err != nil {
			slog.Warn("poller: persisting cursor failed", "error", err)
		}
	}

	if ingested > 0 {
		slog.Debug("poller: cycle complete", "ingested", ingested, "suspicious", suspicious)
	}
	return nil
}

// failureDelay picks the wait after a failed fetch. A reset time signalled by
// the API wins over the exponential backoff; everything else doubles the
// backoff and jitters it.
func (p *Poller) failureDelay(err error) time.Duration {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		metrics.PollCycles.WithLabelValues("rate_limited").Inc()
		if wait := time.Until(rateErr.Rate.Reset.Time); wait > 0 {
			return wait
		}
		return p.backoff.Next()
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		metrics.PollCycles.WithLabelValues("rate_limited").Inc()
		if wait := abuseErr.GetRetryAfter(); wait > 0 {
			return wait
		}
		return p.backoff.Next()
	}
	metrics.PollCycles.WithLabelValues("error").Inc()
	return p.backoff.Next()
}

// convertEvent maps a feed entry onto the stored model. Entries without an id
// cannot be deduplicated and are dropped.
func convertEvent(e *github.Event) *models.Event {
	if e.GetID() == "" {
		return nil
	}
	var raw []byte
	if e.RawPayload != nil {
		raw = *e.RawPayload
	}
	return &models.Event{
		ID:         e.GetID(),
		Type:       e.GetType(),
		RepoName:   e.GetRepo().GetName(),
		ActorName:  e.GetActor().GetLogin(),
		CreatedAt:  e.GetCreatedAt().Time.UTC(),
		RawPayload: raw,
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

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
