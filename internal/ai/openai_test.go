package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gitmonhq/gitmon/internal/config"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewOpenAI(config.AIConfig{
		Provider:  "openai",
		OpenAIKey: "test-key",
		BaseURL:   srv.URL,
	})
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	return p
}

func TestOpenAISummarize(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"  the summary  "}}]}`))
	})

	out, err := p.Summarize(context.Background(), "describe this")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if out != "the summary" {
		t.Errorf("Summarize = %q, want trimmed content", out)
	}
}

func TestOpenAISummarizeRetriesOnRateLimit(t *testing.T) {
	var calls int
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	out, err := p.Summarize(context.Background(), "p")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if out != "ok" {
		t.Errorf("Summarize = %q", out)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestOpenAISummarizeSurfacesAPIError(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`boom`))
	})

	if _, err := p.Summarize(context.Background(), "p"); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestRetryDelay(t *testing.T) {
	if got := retryDelay("7", 1); got != 7*time.Second {
		t.Errorf("retryDelay header = %v, want 7s", got)
	}
	if got := retryDelay("", 3); got != 6*time.Second {
		t.Errorf("retryDelay fallback = %v, want 6s", got)
	}
	if got := retryDelay("garbage", 2); got != 4*time.Second {
		t.Errorf("retryDelay bad header = %v, want 4s", got)
	}
}

func TestNewDispatch(t *testing.T) {
	p, err := New(config.AIConfig{Provider: "openai", OpenAIKey: "k"})
	if err != nil {
		t.Fatalf("New openai: %v", err)
	}
	if p.Name() != "openai" {
		t.Errorf("Name = %q", p.Name())
	}

	p, err = New(config.AIConfig{Provider: ""})
	if err != nil {
		t.Fatalf("New noop: %v", err)
	}
	if p.Name() != "none" {
		t.Errorf("Name = %q", p.Name())
	}
}
