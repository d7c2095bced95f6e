package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gitmonhq/gitmon/internal/ai"
	"github.com/gitmonhq/gitmon/internal/classifier"
	"github.com/gitmonhq/gitmon/internal/config"
	"github.com/gitmonhq/gitmon/internal/database"
	"github.com/gitmonhq/gitmon/internal/notify"
	"github.com/gitmonhq/gitmon/internal/poller"
	"github.com/gitmonhq/gitmon/internal/store"
	"github.com/gitmonhq/gitmon/internal/summarizer"
	"github.com/gitmonhq/gitmon/models"
)

func newTestGateway(t *testing.T) (*Gateway, *store.Store) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "gateway-test.db")
	db, err := database.NewSQLite(config.DatabaseConfig{Path: dbPath})
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate db: %v", err)
	}

	st := store.New(db)
	cfg := &config.Config{AI: config.AIConfig{Provider: "gemini"}}
	p := poller.New(config.GitHubConfig{}, st, classifier.New(config.ClassifierConfig{}))
	w := summarizer.New(config.SummarizerConfig{}, st, ai.NewNoop("test"), nil)
	gw := New(cfg, st, p, w, notify.NewDispatcher(config.NotifyConfig{}))
	return gw, st
}

func seedEvent(t *testing.T, st *store.Store, id string, suspicious bool) {
	t.Helper()
	evt := &models.Event{
		ID:           id,
		Type:         "PushEvent",
		RepoName:     "octocat/hello-world",
		ActorName:    "octocat",
		CreatedAt:    time.Now().UTC(),
		RawPayload:   []byte(`{}`),
		IsSuspicious: suspicious,
	}
	if err := st.UpsertEvent(context.Background(), evt); err != nil {
		t.Fatalf("seed event %s: %v", id, err)
	}
}

func seedReport(t *testing.T, st *store.Store, eventID string, createdAt time.Time) {
	t.Helper()
	rpt := &models.Report{
		EventID:        eventID,
		RepoName:       "octocat/hello-world",
		EventType:      "PushEvent",
		OverallSummary: "Forced push to main.",
		RootCause:      "r",
		Impact:         "i",
		NextSteps:      "n",
		Source:         models.ReportSourceAI,
		CreatedAt:      createdAt,
	}
	if _, err := st.InsertReport(context.Background(), rpt); err != nil {
		t.Fatalf("seed report %s: %v", eventID, err)
	}
}

func TestHandleHealth(t *testing.T) {
	gw, _ := newTestGateway(t)

	rr := httptest.NewRecorder()
	buildHandler(gw).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var hs HealthStatus
	if err := json.NewDecoder(rr.Body).Decode(&hs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if hs.Status != "ok" || hs.PollerRunning || hs.WorkerRunning || hs.SSEClients != 0 {
		t.Fatalf("unexpected health: %+v", hs)
	}
}

func TestHandleSummary(t *testing.T) {
	gw, st := newTestGateway(t)
	base := time.Now().UTC().Truncate(time.Second)
	seedReport(t, st, "e1", base.Add(-2*time.Hour))
	seedReport(t, st, "e2", base)

	rr := httptest.NewRecorder()
	buildHandler(gw).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/summary", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Summaries []ReportView `json:"summaries"`
		Count     int          `json:"count"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 2 || len(resp.Summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %+v", resp)
	}
	if resp.Summaries[0].EventID != "e2" {
		t.Fatalf("expected newest first, got %s", resp.Summaries[0].EventID)
	}
	if resp.Summaries[0].TimestampRelative == "" {
		t.Fatal("expected a relative timestamp")
	}
}

func TestHandleSummarySinceFilter(t *testing.T) {
	gw, st := newTestGateway(t)
	base := time.Now().UTC().Truncate(time.Second)
	seedReport(t, st, "e1", base.Add(-2*time.Hour))
	seedReport(t, st, "e2", base)

	url := "/api/summary?since=" + base.Add(-time.Hour).Format(time.RFC3339)
	rr := httptest.NewRecorder()
	buildHandler(gw).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, url, nil))

	var resp struct {
		Summaries []ReportView `json:"summaries"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Summaries) != 1 || resp.Summaries[0].EventID != "e2" {
		t.Fatalf("expected only e2 after cutoff, got %+v", resp.Summaries)
	}
}

func TestHandleSummaryRejectsBadSince(t *testing.T) {
	gw, _ := newTestGateway(t)

	rr := httptest.NewRecorder()
	buildHandler(gw).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/summary?since=yesterday", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed since, got %d", rr.Code)
	}
}

func TestHandleEventsSuspiciousFilter(t *testing.T) {
	gw, st := newTestGateway(t)
	seedEvent(t, st, "e1", true)
	seedEvent(t, st, "e2", false)

	rr := httptest.NewRecorder()
	buildHandler(gw).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/events?suspicious=true", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Events []models.Event `json:"events"`
		Count  int            `json:"count"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || resp.Events[0].ID != "e1" {
		t.Fatalf("expected only the flagged event, got %+v", resp)
	}
}

func TestHandleStatus(t *testing.T) {
	gw, st := newTestGateway(t)
	seedEvent(t, st, "e1", true)

	rr := httptest.NewRecorder()
	buildHandler(gw).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var ps PipelineStatus
	if err := json.NewDecoder(rr.Body).Decode(&ps); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ps.Events != 1 || ps.Suspicious != 1 || ps.Pending != 1 {
		t.Fatalf("unexpected counts: %+v", ps.Counts)
	}
	if ps.Provider != "gemini" {
		t.Fatalf("provider = %q, want gemini", ps.Provider)
	}
}

func TestHandleMetricsExposed(t *testing.T) {
	gw, _ := newTestGateway(t)

	rr := httptest.NewRecorder()
	buildHandler(gw).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Fatal("expected Prometheus exposition output")
	}
}

func TestHandleStreamDeliversPublishedReports(t *testing.T) {
	gw, _ := newTestGateway(t)
	srv := httptest.NewServer(buildHandler(gw))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/stream")
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	frames := make(chan SSEEvent, 4)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var evt SSEEvent
			if json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt) == nil {
				frames <- evt
			}
		}
	}()

	waitFrame := func(wantType string) SSEEvent {
		t.Helper()
		select {
		case evt := <-frames:
			if evt.Type != wantType {
				t.Fatalf("frame type = %q, want %q", evt.Type, wantType)
			}
			return evt
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for %q frame", wantType)
			return SSEEvent{}
		}
	}

	waitFrame("connected")

	gw.PublishReport(&models.Report{
		EventID:        "e1",
		RepoName:       "octocat/hello-world",
		EventType:      "PushEvent",
		OverallSummary: "Forced push to main.",
		RootCause:      "r",
		Impact:         "i",
		NextSteps:      "n",
		Source:         models.ReportSourceAI,
		CreatedAt:      time.Now().UTC(),
	})

	evt := waitFrame("new_summary")
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		t.Fatalf("re-marshal payload: %v", err)
	}
	var view ReportView
	if err := json.Unmarshal(payload, &view); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if view.EventID != "e1" || view.TimestampRelative == "" {
		t.Fatalf("unexpected payload: %+v", view)
	}
}
