// Package gateway is the HTTP surface of the pipeline: REST queries over
// stored events and reports, a Server-Sent Events stream of live summaries,
// Prometheus metrics, and a cron-driven activity digest.
package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildHandler wires all REST and SSE routes onto a new ServeMux.
// Uses Go 1.22+ method-prefixed patterns ("GET /path").
func buildHandler(gw *Gateway) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", gw.handleHealth)
	mux.HandleFunc("GET /api/summary", gw.handleSummary)
	mux.HandleFunc("GET /api/events", gw.handleEvents)
	mux.HandleFunc("GET /api/status", gw.handleStatus)
	mux.HandleFunc("GET /api/stream", gw.handleStream)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

func (gw *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthStatus{
		Status:        "ok",
		UptimeSeconds: gw.uptimeSeconds(),
		SSEClients:    gw.broadcaster.clientCount(),
		PollerRunning: gw.poller.Running(),
		WorkerRunning: gw.worker.Running(),
	})
}

// handleSummary returns recent reports, newest first. ?since= (RFC3339)
// restricts to reports created after that instant; ?limit= caps the page.
func (gw *Gateway) handleSummary(w http.ResponseWriter, r *http.Request) {
	since, err := querySince(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid since parameter, expected RFC3339")
		return
	}
	limit := queryLimit(r, 50, 200)

	reports, err := gw.store.ListReports(r.Context(), since, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]ReportView, 0, len(reports))
	for _, rpt := range reports {
		views = append(views, newReportView(rpt))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summaries": views,
		"count":     len(views),
	})
}

// handleEvents returns recent stored events; ?suspicious=true filters to
// flagged ones.
func (gw *Gateway) handleEvents(w http.ResponseWriter, r *http.Request) {
	suspiciousOnly := r.URL.Query().Get("suspicious") == "true"
	limit := queryLimit(r, 50, 200)

	events, err := gw.store.ListRecentEvents(r.Context(), suspiciousOnly, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

func (gw *Gateway) handleStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := gw.store.CountAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, PipelineStatus{
		Counts:        counts,
		Provider:      gw.providerName(),
		PollerRunning: gw.poller.Running(),
		WorkerRunning: gw.worker.Running(),
		UptimeSeconds: gw.uptimeSeconds(),
	})
}

func (gw *Gateway) providerName() string {
	if gw.cfg.AI.Provider == "" {
		return "none"
	}
	return gw.cfg.AI.Provider
}

// handleStream streams SSE to the client. Each frame carries a JSON SSEEvent.
// Clients receive a "connected" envelope immediately, then live updates.
func (gw *Gateway) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering if behind a proxy

	ch := gw.broadcaster.subscribe()
	defer gw.broadcaster.unsubscribe(ch)

	connected, _ := json.Marshal(SSEEvent{
		Type: "connected",
		Payload: map[string]any{
			"at":      nowRFC3339(),
			"clients": gw.broadcaster.clientCount(),
		},
	})
	fmt.Fprintf(w, "data: %s\n\n", connected)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, ok := <-ch:
			if !ok {
				// Pruned as a stalled subscriber.
				return
			}
			w.Write(frame)
			flusher.Flush()
		}
	}
}
