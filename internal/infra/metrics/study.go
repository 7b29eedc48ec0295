package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(reviewsRecordedTotal, studySessionsComposedTotal)
}

var (
	reviewsRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviews_recorded_total",
			Help: "Answers run through the scheduler, labeled by correctness.",
		},
		[]string{"result"}, // 'correct', 'wrong'
	)

	studySessionsComposedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "study_sessions_composed_total",
			Help: "Study sessions composed.",
		},
	)
)

func IncReviewRecorded(correct bool) {
	result := "wrong"
	if correct {
		result = "correct"
	}
	reviewsRecordedTotal.WithLabelValues(result).Inc()
}

func IncStudySessionComposed() {
	studySessionsComposedTotal.Inc()
}
