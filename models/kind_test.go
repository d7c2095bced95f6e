package models

import "testing"

func TestKindOf(t *testing.T) {
	tests := []struct {
		eventType string
		want      EventKind
	}{
		{"PushEvent", KindPush},
		{"WorkflowRunEvent", KindWorkflowRun},
		{"IssuesEvent", KindIssues},
		{"RepositoryEvent", KindRepository},
		{"DeleteEvent", KindDelete},
		{"SecurityAdvisoryEvent", KindSecurityAdvisory},
		{"ReleaseEvent", KindRelease},
		{"WatchEvent", KindUnknown},
		{"", KindUnknown},
	}
	for _, tt := range tests {
		if got := KindOf(tt.eventType); got != tt.want {
			t.Fatalf("KindOf(%q) = %q, want %q", tt.eventType, got, tt.want)
		}
	}
}

func TestReportComplete(t *testing.T) {
	r := &Report{OverallSummary: "s", RootCause: "r", Impact: "i", NextSteps: "n"}
	if !r.Complete() {
		t.Fatal("all four fields set should be complete")
	}
	r.Impact = ""
	if r.Complete() {
		t.Fatal("a missing section should not be complete")
	}
}
