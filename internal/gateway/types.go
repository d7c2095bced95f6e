package gateway

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/gitmonhq/gitmon/internal/store"
	"github.com/gitmonhq/gitmon/models"
)

// SSEEvent is serialised as JSON and pushed over the GET /api/stream SSE
// stream. Type is "connected", "ping", "new_summary", or "digest".
type SSEEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// HealthStatus is the GET /health response.
type HealthStatus struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	SSEClients    int    `json:"sse_clients"`
	PollerRunning bool   `json:"poller_running"`
	WorkerRunning bool   `json:"worker_running"`
}

// PipelineStatus is the GET /api/status response.
type PipelineStatus struct {
	store.Counts
	Provider      string `json:"ai_provider"`
	PollerRunning bool   `json:"poller_running"`
	WorkerRunning bool   `json:"worker_running"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// ReportView decorates a stored report with a human-readable timestamp for
// API consumers.
type ReportView struct {
	models.Report
	TimestampRelative string `json:"timestamp_relative"`
}

func newReportView(rpt models.Report) ReportView {
	return ReportView{Report: rpt, TimestampRelative: humanize.Time(rpt.CreatedAt)}
}

// DigestPayload is broadcast by the cron digest.
type DigestPayload struct {
	At         string       `json:"at"`
	Counts     store.Counts `json:"counts"`
	NewReports int          `json:"new_reports"`
	Window     string       `json:"window"`
}

func nowRFC3339() string { return time.Now().UTC().Format(time.RFC3339) }
