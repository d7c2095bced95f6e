// Package metrics registers the Prometheus instruments for the pipeline.
// The gateway serves them on GET /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// PollCycles counts feed fetch cycles by outcome: success, error, rate_limited.
	PollCycles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gitmon",
		Name:      "poll_cycles_total",
		Help:      "Feed fetch cycles by outcome",
	}, []string{"outcome"})

	// EventsIngested counts events upserted into the store, by suspicion.
	EventsIngested = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gitmon",
		Name:      "events_ingested_total",
		Help:      "Events upserted into the store",
	}, []string{"suspicious"})

	// ReportsGenerated counts persisted incident reports by how they were
	// produced: ai, heuristic, canned.
	ReportsGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gitmon",
		Name:      "reports_generated_total",
		Help:      "Incident reports persisted, by generation source",
	}, []string{"source"})

	// BackoffSeconds is the unjittered backoff the next feed failure starts from.
	BackoffSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gitmon",
		Name:      "poll_backoff_seconds",
		Help:      "Current unjittered feed retry backoff",
	})

	// SSEClients is the number of live stream subscribers.
	SSEClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gitmon",
		Name:      "sse_clients",
		Help:      "Connected SSE subscribers",
	})
)

func init() {
	prometheus.MustRegister(
		PollCycles, EventsIngested, ReportsGenerated,
		BackoffSeconds, SSEClients,
	)
}
