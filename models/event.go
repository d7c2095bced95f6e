package models

import "time"

// Event is a single record from the GitHub public events feed.
// Rows are created by the poller on first sight and are immutable afterwards,
// except for Processed which the summarization worker flips once a report
// exists for the event.
type Event struct {
	// ID is the upstream-assigned event id. It doubles as the dedup key and
	// the poller cursor. GitHub issues these as decimal strings.
	ID         string    `json:"id"            db:"id"`
	Type       string    `json:"type"          db:"type"`
	RepoName   string    `json:"repo_name"     db:"repo_name"`
	ActorName  string    `json:"actor_name"    db:"actor_name"`
	CreatedAt  time.Time `json:"created_at"    db:"created_at"`
	RawPayload []byte    `json:"raw_payload"   db:"raw_payload"`
	// IsSuspicious is set once at classification time and never re-evaluated.
	IsSuspicious bool `json:"is_suspicious" db:"is_suspicious"`
	Processed    bool `json:"processed"     db:"processed"`
}
