package notify

import "context"

// Event represents an outbound notification from gitmon.
type Event struct {
	Type     string         // "report_created" | "digest"
	Title    string
	Body     string
	RepoName string         // "owner/repo", empty for digest events
	Metadata map[string]any // extra structured data
}

// Channel is implemented by each notification provider.
type Channel interface {
	Name() string
	IsConfigured() bool
	Send(ctx context.Context, evt Event) error
}
