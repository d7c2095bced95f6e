package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/gitmonhq/gitmon/internal/config"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider implements Provider using the Gemini API via the official
// google.golang.org/genai SDK.
type GeminiProvider struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client // lazily created, reused across calls
}

// NewGemini creates a GeminiProvider from cfg.
func NewGemini(cfg config.AIConfig) *GeminiProvider {
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiProvider{apiKey: cfg.GeminiKey, model: model}
}

func (g *GeminiProvider) Name() string { return "gemini" }

func (g *GeminiProvider) IsAvailable(ctx context.Context) bool {
	if g.apiKey == "" {
		return false
	}
	_, err := g.getClient(ctx)
	return err == nil
}

// Summarize sends prompt to the configured Gemini model and returns the
// concatenated text of the response.
func (g *GeminiProvider) Summarize(ctx context.Context, prompt string) (string, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return "", err
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return text, nil
}

func (g *GeminiProvider) getClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	g.client = client
	return client, nil
}
