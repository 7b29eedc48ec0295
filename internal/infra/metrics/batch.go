package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		batchItemsSubmittedTotal,
		batchItemsCompletedTotal,
		batchJobsPolledTotal,
		batchRunsTotal,
	)
}

var (
	batchItemsSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_items_submitted_total",
			Help: "Items submitted to the async completion service, per provider.",
		},
		[]string{"provider"},
	)

	batchItemsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_items_completed_total",
			Help: "Items whose batch results were applied, per provider and outcome.",
		},
		[]string{"provider", "outcome"}, // 'completed', 'failed'
	)

	batchJobsPolledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_jobs_polled_total",
			Help: "Status-check calls against remote batch jobs, per provider and status.",
		},
		[]string{"provider", "status"},
	)

	batchRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_runs_total",
			Help: "Orchestrator runs, labeled by outcome.",
		},
		[]string{"outcome"}, // 'clean', 'with_failures'
	)
)

func AddBatchItemsSubmitted(provider string, n int) {
	batchItemsSubmittedTotal.WithLabelValues(norm(provider)).Add(float64(n))
}

func AddBatchItemsCompleted(provider string, completed, failed int) {
	batchItemsCompletedTotal.WithLabelValues(norm(provider), "completed").Add(float64(completed))
	batchItemsCompletedTotal.WithLabelValues(norm(provider), "failed").Add(float64(failed))
}

func IncBatchJobPolled(provider, status string) {
	batchJobsPolledTotal.WithLabelValues(norm(provider), norm(status)).Inc()
}

func IncBatchRun(withFailures bool) {
	outcome := "clean"
	if withFailures {
		outcome = "with_failures"
	}
	batchRunsTotal.WithLabelValues(outcome).Inc()
}
