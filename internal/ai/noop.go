package ai

import (
	"context"
	"fmt"
)

// NoopProvider is returned when no backend is configured. Every Summarize
// call fails with the configured reason, which routes the worker straight to
// its canned fallback reports.
type NoopProvider struct {
	reason string
}

// NewNoop creates a NoopProvider with a human-readable reason.
func NewNoop(reason string) *NoopProvider {
	return &NoopProvider{reason: reason}
}

func (n *NoopProvider) Name() string                         { return "none" }
func (n *NoopProvider) IsAvailable(ctx context.Context) bool { return false }

func (n *NoopProvider) Summarize(ctx context.Context, prompt string) (string, error) {
	return "", fmt.Errorf("ai backend unavailable: %s", n.reason)
}
