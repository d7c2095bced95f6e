package ai

import (
	"context"
	"fmt"

	"github.com/gitmonhq/gitmon/internal/config"
)

// Provider abstracts the generative text backend used for incident summaries.
// To add a new provider:
//  1. Create a file in internal/ai/ (e.g. mymodel.go)
//  2. Implement Provider
//  3. Register in New()
type Provider interface {
	// Name returns the provider identifier (e.g. "gemini", "openai").
	Name() string

	// IsAvailable verifies the provider is configured and reachable.
	IsAvailable(ctx context.Context) bool

	// Summarize sends a free-text prompt and returns the raw completion.
	// Callers own all parsing; the backend promises nothing beyond text.
	Summarize(ctx context.Context, prompt string) (string, error)
}

// New returns the configured Provider.
// With no provider or API key set it returns a NoopProvider: every call fails
// and the summarization worker lives off its canned fallbacks.
func New(cfg config.AIConfig) (Provider, error) {
	switch cfg.Provider {
	case "gemini":
		if cfg.GeminiKey == "" {
			return NewNoop("gemini API key not set"), nil
		}
		return NewGemini(cfg), nil
	case "openai":
		if cfg.OpenAIKey == "" {
			return NewNoop("openai API key not set"), nil
		}
		return NewOpenAI(cfg)
	case "", "none":
		return NewNoop("no AI provider configured"), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider %q (supported: gemini, openai)", cfg.Provider)
	}
}
