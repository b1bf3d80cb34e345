package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var Dispatcher = DispatcherExporter{
	dispatches: promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dispatcher",
			Name:      "query_duration_seconds",
			Help:      "How long it took to dispatch a query, partitioned by query kind and rendered panel state.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind", "panel"},
	),
	inFlight: promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dispatcher",
			Name:      "queries_in_flight",
			Help:      "How many query dispatches are waiting for the backend.",
		},
	),
}

type DispatcherExporter struct {
	dispatches *prometheus.HistogramVec
	inFlight   prometheus.Gauge
}

func (d *DispatcherExporter) Dispatched(kind string, panel string, startedAt time.Time) {
	d.dispatches.
		With(prometheus.Labels{
			"kind":  kind,
			"panel": panel,
		}).
		Observe(time.Since(startedAt).Seconds())
}

func (d *DispatcherExporter) InFlight(count int32) {
	d.inFlight.Set(float64(count))
}
