package models

import "time"

// Report source values.
const (
	ReportSourceAI        = "ai"
	ReportSourceHeuristic = "heuristic"
	ReportSourceCanned    = "canned"
)

// Report is the structured incident summary generated for a suspicious event.
// Exactly one report exists per event; reports are immutable once inserted.
type Report struct {
	ID             int64     `json:"id"              db:"id"`
	EventID        string    `json:"event_id"        db:"event_id"`
	RepoName       string    `json:"repo_name"       db:"repo_name"`
	EventType      string    `json:"event_type"      db:"event_type"`
	OverallSummary string    `json:"overall_summary" db:"overall_summary"`
	RootCause      string    `json:"root_cause"      db:"root_cause"`
	Impact         string    `json:"impact"          db:"impact"`
	NextSteps      string    `json:"next_steps"      db:"next_steps"`
	// Source records how the report was produced: "ai", "heuristic" (bullet
	// salvage of an unparseable model response), or "canned" (backend down).
	Source    string    `json:"source"     db:"source"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Complete reports whether all four summary fields are non-empty.
func (r *Report) Complete() bool {
	return r.OverallSummary != "" && r.RootCause != "" && r.Impact != "" && r.NextSteps != ""
}
