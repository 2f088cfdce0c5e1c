// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	QueriesClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_queries_classified_total",
			Help: "Total number of queries classified, by intent",
		},
		[]string{"intent"},
	)

	EntityResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_entity_resolutions_total",
			Help: "Resolution outcomes by entity kind and tier",
		},
		[]string{"entity", "tier"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "assistant_upstream_request_duration_seconds",
			Help: "Duration of upstream API calls in seconds",
		},
		[]string{"upstream", "status"},
	)

	AlertsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_alerts_generated_total",
			Help: "Alert digests generated per delivery channel",
		},
		[]string{"channel", "outcome"},
	)

	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_cache_requests_total",
			Help: "Cache lookups for upstream responses by source",
		},
		[]string{"source", "result"},
	)
)
