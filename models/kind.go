package models

// EventKind enumerates the upstream event types the monitor treats specially.
// The canned-fallback table in the summarizer is keyed by EventKind, so a new
// kind only needs an entry there and a case in KindOf.
type EventKind string

const (
	KindWorkflowRun      EventKind = "WorkflowRunEvent"
	KindPush             EventKind = "PushEvent"
	KindIssues           EventKind = "IssuesEvent"
	KindRepository       EventKind = "RepositoryEvent"
	KindDelete           EventKind = "DeleteEvent"
	KindSecurityAdvisory EventKind = "SecurityAdvisoryEvent"
	KindRelease          EventKind = "ReleaseEvent"
	// KindUnknown covers every type without a dedicated fallback entry.
	KindUnknown EventKind = "unknown"
)

// KindOf maps an upstream type tag to its EventKind.
func KindOf(eventType string) EventKind {
	switch EventKind(eventType) {
	case KindWorkflowRun, KindPush, KindIssues, KindRepository,
		KindDelete, KindSecurityAdvisory, KindRelease:
		return EventKind(eventType)
	default:
		return KindUnknown
	}
}
