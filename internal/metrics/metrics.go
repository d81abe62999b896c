// Package metrics defines the Prometheus instruments shared by the API and
// worker processes.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripkit_submissions_total",
			Help: "Total number of recommendation submissions by outcome.",
		},
		[]string{"outcome"}, // created, deduplicated
	)

	JobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripkit_jobs_total",
			Help: "Total number of executed jobs by outcome.",
		},
		[]string{"outcome"}, // success, degraded, timeout, crash
	)

	JobDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tripkit_job_duration_seconds",
			Help:    "Wall-clock duration of engine executions.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripkit_queue_depth",
			Help: "Number of jobs currently waiting on the work queue.",
		},
	)
)

// MustRegister registers all instruments on the given registry.
func MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(SubmissionsTotal, JobsTotal, JobDurationSeconds, QueueDepth)
}
