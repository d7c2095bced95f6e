// Package store is the typed persistence layer for events and reports.
// It owns all SQL touching the events, reports, and poller_state tables;
// the poller, summarization worker, and gateway only ever go through it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gitmonhq/gitmon/internal/database"
	"github.com/gitmonhq/gitmon/models"
)

const cursorName = "last_event_id"

// ErrNotFound is returned by Get-style lookups when no row matches.
var ErrNotFound = errors.New("store: not found")

// Store wraps a database.DB with the queries the pipeline needs.
type Store struct {
	db database.DB
}

// New creates a Store on top of an already-migrated database.
func New(db database.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying database for status counts and tests.
func (s *Store) DB() database.DB { return s.db }

// UpsertEvent inserts evt or replaces the existing row with the same id.
// Re-ingesting an already-seen event is a silent no-op row rewrite, which is
// what makes cursor misfires harmless.
func (s *Store) UpsertEvent(ctx context.Context, evt *models.Event) error {
	if evt.ID == "" {
		return fmt.Errorf("upserting event: empty id")
	}
	if err := s.db.Upsert(ctx, "events", evt, []string{"id"}); err != nil {
		return fmt.Errorf("upserting event %s: %w", evt.ID, err)
	}
	return nil
}

// GetEvent loads a single event by id.
func (s *Store) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var evt models.Event
	err := s.db.Get(ctx, &evt,
		`SELECT id, type, repo_name, actor_name, created_at, raw_payload, is_suspicious, processed
		   FROM events WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading event %s: %w", id, err)
	}
	return &evt, nil
}

// ListUnprocessedSuspicious returns up to limit suspicious events that have no
// report yet, newest first.
func (s *Store) ListUnprocessedSuspicious(ctx context.Context, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = 10
	}
	var events []models.Event
	err := s.db.Select(ctx, &events,
		`SELECT id, type, repo_name, actor_name, created_at, raw_payload, is_suspicious, processed
		   FROM events
		  WHERE is_suspicious = 1 AND processed = 0
		  ORDER BY created_at DESC
		  LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing unprocessed events: %w", err)
	}
	return events, nil
}

// ListRecentEvents returns the newest stored events, optionally only
// suspicious ones.
func (s *Store) ListRecentEvents(ctx context.Context, suspiciousOnly bool, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, type, repo_name, actor_name, created_at, raw_payload, is_suspicious, processed
	            FROM events`
	if suspiciousOnly {
		query += ` WHERE is_suspicious = 1`
	}
	query += ` ORDER BY created_at DESC LIMIT ?`

	var events []models.Event
	if err := s.db.Select(ctx, &events, query, limit); err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

// MarkProcessed flips the processed flag on an event.
func (s *Store) MarkProcessed(ctx context.Context, eventID string) error {
	if err := s.db.Exec(ctx, `UPDATE events SET processed = 1 WHERE id = ?`, eventID); err != nil {
		return fmt.Errorf("marking event %s processed: %w", eventID, err)
	}
	return nil
}

// InsertReport persists rpt and returns its new row id. The UNIQUE constraint
// on event_id rejects a second report for the same event.
func (s *Store) InsertReport(ctx context.Context, rpt *models.Report) (int64, error) {
	if rpt.CreatedAt.IsZero() {
		rpt.CreatedAt = time.Now().UTC()
	}
	id, err := s.db.Insert(ctx, "reports", rpt)
	if err != nil {
		return 0, fmt.Errorf("inserting report for event %s: %w", rpt.EventID, err)
	}
	rpt.ID = id
	return id, nil
}

// GetReportByEventID loads the report generated for eventID, if any.
func (s *Store) GetReportByEventID(ctx context.Context, eventID string) (*models.Report, error) {
	var rpt models.Report
	err := s.db.Get(ctx, &rpt,
		`SELECT id, event_id, repo_name, event_type, overall_summary, root_cause, impact, next_steps, source, created_at
		   FROM reports WHERE event_id = ?`, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading report for event %s: %w", eventID, err)
	}
	return &rpt, nil
}

// ListReports returns up to limit reports newest first, optionally only those
// created strictly after since.
func (s *Store) ListReports(ctx context.Context, since time.Time, limit int) ([]models.Report, error) {
	if limit <= 0 {
		limit = 50
	}
	var reports []models.Report
	var err error
	const sel = `SELECT id, event_id, repo_name, event_type, overall_summary, root_cause, impact, next_steps, source, created_at
	               FROM reports`
	if since.IsZero() {
		err = s.db.Select(ctx, &reports, sel+` ORDER BY created_at DESC LIMIT ?`, limit)
	} else {
		err = s.db.Select(ctx, &reports, sel+` WHERE created_at > ? ORDER BY created_at DESC LIMIT ?`, since, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	return reports, nil
}

// LoadCursor returns the persisted poller cursor, or "" when none is stored.
func (s *Store) LoadCursor(ctx context.Context) (string, error) {
	var row struct {
		Value string `db:"value"`
	}
	err := s.db.Get(ctx, &row, `SELECT value FROM poller_state WHERE name = ?`, cursorName)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading cursor: %w", err)
	}
	return row.Value, nil
}

// SaveCursor persists the poller cursor across restarts.
func (s *Store) SaveCursor(ctx context.Context, eventID string) error {
	rec := struct {
		Name  string `db:"name"`
		Value string `db:"value"`
	}{Name: cursorName, Value: eventID}
	if err := s.db.Upsert(ctx, "poller_state", &rec, []string{"name"}); err != nil {
		return fmt.Errorf("saving cursor: %w", err)
	}
	return nil
}

// Counts is a snapshot of pipeline volume used by /api/status and the digest.
type Counts struct {
	Events     int `json:"events"`
	Suspicious int `json:"suspicious"`
	Pending    int `json:"pending"`
	Reports    int `json:"reports"`
}

type countRow struct {
	N int `db:"n"`
}

// CountAll gathers the pipeline counters in one call. Individual query
// failures surface as an error; there is no partial result.
func (s *Store) CountAll(ctx context.Context) (Counts, error) {
	var c Counts
	queries := []struct {
		dest *int
		sql  string
	}{
		{&c.Events, `SELECT COUNT(*) AS n FROM events`},
		{&c.Suspicious, `SELECT COUNT(*) AS n FROM events WHERE is_suspicious = 1`},
		{&c.Pending, `SELECT COUNT(*) AS n FROM events WHERE is_suspicious = 1 AND processed = 0`},
		{&c.Reports, `SELECT COUNT(*) AS n FROM reports`},
	}
	for _, q := range queries {
		var row countRow
		if err := s.db.Get(ctx, &row, q.sql); err != nil {
			return Counts{}, fmt.Errorf("counting rows: %w", err)
		}
		*q.dest = row.N
	}
	return c, nil
}
