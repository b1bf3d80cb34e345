package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var AnalysisJob = AnalysisJobExporter{
	submissions: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "analysis_job",
			Name:      "submissions_total",
			Help:      "How many analysis jobs were submitted, partitioned by analysis type and status (success or failure).",
		},
		[]string{"analysis_type", "status"},
	),
	watchOutcomes: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "analysis_job",
			Name:      "watch_outcomes_total",
			Help:      "How analysis job watches ended, partitioned by terminal state.",
		},
		[]string{"state"},
	),
	watchAttempts: promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "analysis_job",
			Name:      "watch_attempts",
			Help:      "How many summary polls a job watch needed to reach a terminal state.",
			Buckets:   prometheus.LinearBuckets(1, 2, 10),
		},
	),
}

type AnalysisJobExporter struct {
	submissions   *prometheus.CounterVec
	watchOutcomes *prometheus.CounterVec
	watchAttempts prometheus.Histogram
}

func (a *AnalysisJobExporter) Submitted(analysisType string, succeed bool) {
	status := "success"
	if !succeed {
		status = "failure"
	}

	a.submissions.
		With(prometheus.Labels{
			"analysis_type": analysisType,
			"status":        status,
		}).
		Inc()
}

func (a *AnalysisJobExporter) WatchFinished(state string, attempts int) {
	a.watchOutcomes.With(prometheus.Labels{"state": state}).Inc()
	a.watchAttempts.Observe(float64(attempts))
}
