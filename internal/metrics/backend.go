package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Backend observes outgoing requests to the WebLoader backend API.
var Backend = BackendExporter{
	total: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "backend",
			Name:      "requests_total",
			Help:      "How many requests were sent to the WebLoader backend, partitioned by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	),
	duration: promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "backend",
			Name:      "request_duration_seconds",
			Help:      "How long it took the WebLoader backend to respond.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint", "outcome"},
	),
}

type BackendExporter struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// Observe records a finished backend call. Outcome is one of "ok", "api_error" or "transport_error".
func (b *BackendExporter) Observe(endpoint string, outcome string, startedAt time.Time) {
	labels := prometheus.Labels{
		"endpoint": endpoint,
		"outcome":  outcome,
	}

	b.total.With(labels).Inc()
	b.duration.With(labels).Observe(time.Since(startedAt).Seconds())
}
