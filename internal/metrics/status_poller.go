package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var StatusPoller = StatusPollerExporter{
	polls: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "status_poller",
			Name:      "polls_total",
			Help:      "How many docker status polls were made, partitioned by source and status (success or failure).",
		},
		[]string{"source", "status"},
	),
	dockerAvailable: promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "status_poller",
			Name:      "docker_available",
			Help:      "Whether the latest snapshot reports Docker as available (1) or not (0).",
		},
	),
	servicesRunning: promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "status_poller",
			Name:      "service_running",
			Help:      "Whether a pipeline service is running (1) or not (0) according to the latest snapshot.",
		},
		[]string{"service"},
	),
}

type StatusPollerExporter struct {
	polls           *prometheus.CounterVec
	dockerAvailable prometheus.Gauge
	servicesRunning *prometheus.GaugeVec
}

func (s *StatusPollerExporter) PollSucceeded(source string) {
	s.observePoll(source, "success")
}

func (s *StatusPollerExporter) PollFailed(source string) {
	s.observePoll(source, "failure")
}

func (s *StatusPollerExporter) observePoll(source, status string) {
	s.polls.
		With(prometheus.Labels{
			"source": source,
			"status": status,
		}).
		Inc()
}

func (s *StatusPollerExporter) UpdateSnapshot(dockerAvailable bool, running map[string]bool) {
	s.dockerAvailable.Set(boolToFloat(dockerAvailable))

	for service, r := range running {
		s.servicesRunning.With(prometheus.Labels{"service": service}).Set(boolToFloat(r))
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}

	return 0
}
