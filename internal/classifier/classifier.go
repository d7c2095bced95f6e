// Package classifier decides whether an upstream event is suspicious.
// Classification is a pure function of the event's type and payload: no
// state, no I/O, and it never fails — a predicate that cannot evaluate
// (missing or malformed payload field) simply does not match.
package classifier

import (
	"encoding/json"
	"strings"

	"github.com/gitmonhq/gitmon/internal/config"
	"github.com/gitmonhq/gitmon/models"
)

// Classifier evaluates the suspicion heuristics against events.
type Classifier struct {
	protected        map[string]bool
	largePushCommits int
}

// New builds a Classifier from cfg, falling back to main/master and a
// 10-commit threshold where the config is empty.
func New(cfg config.ClassifierConfig) *Classifier {
	branches := cfg.ProtectedBranches
	if len(branches) == 0 {
		branches = []string{"main", "master"}
	}
	protected := make(map[string]bool, len(branches))
	for _, b := range branches {
		protected[b] = true
	}
	threshold := cfg.LargePushCommits
	if threshold <= 0 {
		threshold = 10
	}
	return &Classifier{protected: protected, largePushCommits: threshold}
}

// payload is the superset of payload fields the predicates look at. Absent
// fields decode to zero values, which no predicate treats as a match.
type payload struct {
	Action      string            `json:"action"`
	Forced      bool              `json:"forced"`
	Ref         string            `json:"ref"`
	RefType     string            `json:"ref_type"`
	Commits     []json.RawMessage `json:"commits"`
	WorkflowRun struct {
		Conclusion string `json:"conclusion"`
	} `json:"workflow_run"`
}

// IsSuspicious reports whether evt matches any suspicion heuristic.
// The predicates are independent; evaluation short-circuits on the first
// match since only the boolean is needed.
func (c *Classifier) IsSuspicious(evt *models.Event) bool {
	var p payload
	// A payload that does not decode matches nothing, by the same rule as a
	// missing field.
	_ = json.Unmarshal(evt.RawPayload, &p)

	for _, pred := range c.predicates() {
		if pred(evt.Type, &p) {
			return true
		}
	}
	return false
}

type predicate func(eventType string, p *payload) bool

func (c *Classifier) predicates() []predicate {
	return []predicate{
		// Workflow/CI run concluded in failure.
		func(t string, p *payload) bool {
			return t == "WorkflowRunEvent" && p.WorkflowRun.Conclusion == "failure"
		},
		// Forced push rewriting history on a protected branch.
		func(t string, p *payload) bool {
			return t == "PushEvent" && p.Forced && c.protected[branchOf(p.Ref)]
		},
		// Issue opened. Every opened issue is flagged; no cross-event burst
		// correlation is attempted.
		func(t string, p *payload) bool {
			return t == "IssuesEvent" && p.Action == "opened"
		},
		// Repository deleted.
		func(t string, p *payload) bool {
			return t == "RepositoryEvent" && p.Action == "deleted"
		},
		// Push carrying an unusually large number of commits.
		func(t string, p *payload) bool {
			return t == "PushEvent" && len(p.Commits) > c.largePushCommits
		},
		// Branch ref deleted.
		func(t string, p *payload) bool {
			return t == "DeleteEvent" && p.RefType == "branch"
		},
		// Repository visibility flipped to private.
		func(t string, p *payload) bool {
			return t == "RepositoryEvent" && p.Action == "privatized"
		},
		// Any security advisory.
		func(t string, p *payload) bool {
			return t == "SecurityAdvisoryEvent"
		},
		// Published release.
		func(t string, p *payload) bool {
			return t == "ReleaseEvent" && p.Action == "published"
		},
	}
}

// branchOf strips the refs/heads/ prefix from a push ref.
func branchOf(ref string) string {
	return strings.TrimPrefix(ref, "refs/heads/")
}
