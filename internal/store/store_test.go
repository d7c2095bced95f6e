package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gitmonhq/gitmon/internal/config"
	"github.com/gitmonhq/gitmon/internal/database"
	"github.com/gitmonhq/gitmon/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "store-test.db")
	db, err := database.NewSQLite(config.DatabaseConfig{Path: dbPath})
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	return New(db)
}

func testEvent(id string, suspicious bool, createdAt time.Time) *models.Event {
	return &models.Event{
		ID:           id,
		Type:         "PushEvent",
		RepoName:     "octocat/hello-world",
		ActorName:    "octocat",
		CreatedAt:    createdAt,
		RawPayload:   []byte(`{"forced":true,"ref":"refs/heads/main"}`),
		IsSuspicious: suspicious,
	}
}

func TestUpsertEventIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	evt := testEvent("e1", true, time.Now().UTC())
	if err := st.UpsertEvent(ctx, evt); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := st.UpsertEvent(ctx, evt); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	counts, err := st.CountAll(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts.Events != 1 {
		t.Fatalf("expected 1 event after double upsert, got %d", counts.Events)
	}

	got, err := st.GetEvent(ctx, "e1")
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if got.RepoName != evt.RepoName || !got.IsSuspicious {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestUpsertEventRejectsEmptyID(t *testing.T) {
	st := newTestStore(t)
	if err := st.UpsertEvent(context.Background(), testEvent("", false, time.Now())); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestGetEventNotFound(t *testing.T) {
	st := newTestStore(t)
	_, err := st.GetEvent(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListUnprocessedSuspiciousOrdersAndFilters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	// Two suspicious pending, one benign, one already processed.
	old := testEvent("e-old", true, base.Add(-2*time.Hour))
	recent := testEvent("e-new", true, base.Add(-time.Minute))
	benign := testEvent("e-benign", false, base)
	processed := testEvent("e-done", true, base)
	processed.Processed = true

	for _, evt := range []*models.Event{old, recent, benign, processed} {
		if err := st.UpsertEvent(ctx, evt); err != nil {
			t.Fatalf("upsert %s: %v", evt.ID, err)
		}
	}

	events, err := st.ListUnprocessedSuspicious(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 pending events, got %d", len(events))
	}
	if events[0].ID != "e-new" || events[1].ID != "e-old" {
		t.Fatalf("expected newest first, got %s, %s", events[0].ID, events[1].ID)
	}
}

func TestMarkProcessedRemovesFromBacklog(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.UpsertEvent(ctx, testEvent("e1", true, time.Now().UTC())); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := st.MarkProcessed(ctx, "e1"); err != nil {
		t.Fatalf("mark processed: %v", err)
	}

	events, err := st.ListUnprocessedSuspicious(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected empty backlog, got %d events", len(events))
	}
}

func TestInsertReportEnforcesOnePerEvent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rpt := &models.Report{
		EventID:        "e1",
		RepoName:       "octocat/hello-world",
		EventType:      "PushEvent",
		OverallSummary: "Forced push to main.",
		RootCause:      "History rewrite",
		Impact:         "Lost commits",
		NextSteps:      "Audit reflog",
		Source:         models.ReportSourceAI,
	}
	id, err := st.InsertReport(ctx, rpt)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id == 0 || rpt.ID != id {
		t.Fatalf("expected row id assigned, got %d / %d", id, rpt.ID)
	}

	dup := *rpt
	dup.ID = 0
	if _, err := st.InsertReport(ctx, &dup); err == nil {
		t.Fatal("expected unique constraint error for duplicate event_id")
	}

	got, err := st.GetReportByEventID(ctx, "e1")
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	if got.OverallSummary != rpt.OverallSummary || got.Source != models.ReportSourceAI {
		t.Fatalf("unexpected report: %+v", got)
	}
}

func TestListReportsSinceFilter(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	for i, at := range []time.Time{base.Add(-2 * time.Hour), base.Add(-time.Hour), base} {
		rpt := &models.Report{
			EventID:        "e" + string(rune('1'+i)),
			RepoName:       "octocat/hello-world",
			EventType:      "PushEvent",
			OverallSummary: "s",
			RootCause:      "r",
			Impact:         "i",
			NextSteps:      "n",
			Source:         models.ReportSourceAI,
			CreatedAt:      at,
		}
		if _, err := st.InsertReport(ctx, rpt); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	all, err := st.ListReports(ctx, time.Time{}, 50)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(all))
	}
	if !all[0].CreatedAt.After(all[1].CreatedAt.Add(-time.Second)) {
		t.Fatalf("expected newest first ordering")
	}

	recent, err := st.ListReports(ctx, base.Add(-90*time.Minute), 50)
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 reports after cutoff, got %d", len(recent))
	}
}

func TestCursorRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	cursor, err := st.LoadCursor(ctx)
	if err != nil {
		t.Fatalf("load empty cursor: %v", err)
	}
	if cursor != "" {
		t.Fatalf("expected empty initial cursor, got %q", cursor)
	}

	if err := st.SaveCursor(ctx, "44332211"); err != nil {
		t.Fatalf("save cursor: %v", err)
	}
	if err := st.SaveCursor(ctx, "55443322"); err != nil {
		t.Fatalf("overwrite cursor: %v", err)
	}

	cursor, err = st.LoadCursor(ctx)
	if err != nil {
		t.Fatalf("load cursor: %v", err)
	}
	if cursor != "55443322" {
		t.Fatalf("expected latest cursor, got %q", cursor)
	}
}

func TestCountAll(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := st.UpsertEvent(ctx, testEvent("e1", true, now)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := st.UpsertEvent(ctx, testEvent("e2", false, now)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	counts, err := st.CountAll(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts.Events != 2 || counts.Suspicious != 1 || counts.Pending != 1 || counts.Reports != 0 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}
