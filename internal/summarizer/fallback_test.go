package summarizer

import (
	"strings"
	"testing"
	"time"

	"github.com/gitmonhq/gitmon/models"
)

func suspiciousEvent(eventType string) *models.Event {
	return &models.Event{
		ID:           "e1",
		Type:         eventType,
		RepoName:     "octocat/hello-world",
		ActorName:    "octocat",
		CreatedAt:    time.Now().UTC(),
		RawPayload:   []byte(`{}`),
		IsSuspicious: true,
	}
}

func TestCannedTableCoversKnownKinds(t *testing.T) {
	for _, kind := range []models.EventKind{
		models.KindWorkflowRun,
		models.KindPush,
		models.KindIssues,
		models.KindRepository,
		models.KindDelete,
		models.KindUnknown,
	} {
		c := cannedFor(kind)
		if c.RootCause == "" || c.Impact == "" || c.NextSteps == "" {
			t.Fatalf("canned entry for %s has empty sections: %+v", kind, c)
		}
	}
}

func TestCannedForUnknownKindFallsBack(t *testing.T) {
	generic := cannedFor(models.KindUnknown)
	if got := cannedFor(models.EventKind("GollumEvent")); got != generic {
		t.Fatalf("unlisted kind should use the generic entry, got %+v", got)
	}
	// Kinds recognised by the classifier but without a dedicated canned entry.
	if got := cannedFor(models.KindSecurityAdvisory); got != generic {
		t.Fatalf("security advisory should use the generic entry, got %+v", got)
	}
}

func TestCannedSummaryPushEvent(t *testing.T) {
	s := CannedSummary(suspiciousEvent("PushEvent"))

	if s.Overall != "Suspicious PushEvent activity detected in octocat/hello-world requiring investigation." {
		t.Fatalf("unexpected overall: %q", s.Overall)
	}
	if !strings.Contains(s.RootCause, "Force push detected to protected branch") {
		t.Fatalf("unexpected root cause: %q", s.RootCause)
	}
	if !strings.Contains(s.Impact, "Code history integrity compromised") {
		t.Fatalf("unexpected impact: %q", s.Impact)
	}
	if !strings.Contains(s.NextSteps, "Review pushed changes immediately") {
		t.Fatalf("unexpected next steps: %q", s.NextSteps)
	}
}

func TestCannedSummaryWithoutRepoName(t *testing.T) {
	evt := suspiciousEvent("WatchEvent")
	evt.RepoName = ""
	s := CannedSummary(evt)
	if !strings.Contains(s.Overall, "unknown repository") {
		t.Fatalf("unexpected overall: %q", s.Overall)
	}
}

func TestFillBlanksTopsUpMissingSections(t *testing.T) {
	partial := Summary{Overall: "Something happened.", RootCause: "Model-provided cause."}
	s := fillBlanks(partial, suspiciousEvent("DeleteEvent"))

	if s.RootCause != "Model-provided cause." {
		t.Fatalf("existing section should be preserved, got %q", s.RootCause)
	}
	if !strings.Contains(s.Impact, "In-flight work on the ref may be lost") {
		t.Fatalf("impact should come from the canned table, got %q", s.Impact)
	}
	if !strings.Contains(s.NextSteps, "Verify the deletion was intentional") {
		t.Fatalf("next steps should come from the canned table, got %q", s.NextSteps)
	}
	if s.Overall != "Something happened." {
		t.Fatalf("overall should be preserved, got %q", s.Overall)
	}
}

func TestFillBlanksNeverLeavesEmptyFields(t *testing.T) {
	s := fillBlanks(Summary{}, suspiciousEvent("SomethingNewEvent"))
	if s.Overall == "" || s.RootCause == "" || s.Impact == "" || s.NextSteps == "" {
		t.Fatalf("expected all fields filled, got %+v", s)
	}
}
