// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_service_requests_total",
			Help: "Total number of requests sent to the loan service",
		},
		[]string{"operation", "status"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loan_service_request_duration_seconds",
			Help:    "Duration of loan service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ViewLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_view_loads_total",
			Help: "Total number of dashboard list loads by outcome",
		},
		[]string{"outcome"},
	)

	CommandOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_commands_total",
			Help: "Total number of dashboard commands by outcome",
		},
		[]string{"command", "outcome"},
	)

	ActiveViews = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_active_views",
			Help: "Number of live per-session dashboard views",
		},
	)

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
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Outcome maps an error to the outcome label value.
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
