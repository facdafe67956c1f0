// Package metrics holds the Prometheus collectors for evaluations and runs.
// Collectors register with the default registry on import.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "modelbench"

// Outcome labels
const (
	OutcomePass  = "pass"
	OutcomeFail  = "fail"
	OutcomeError = "error"
)

var (
	// evaluations counts scored models.
	// Labels: category, outcome (pass, fail, error)
	evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "evaluator",
		Name:      "evaluations_total",
		Help:      "Total model evaluations by category and outcome",
	}, []string{"category", "outcome"})

	// failures counts reported failures.
	// Labels: category, type (the failure type text)
	failures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "evaluator",
		Name:      "failures_total",
		Help:      "Total failures reported by category and failure type",
	}, []string{"category", "type"})

	// evaluationLatency measures evaluator wall time.
	// Labels: category
	evaluationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "evaluator",
		Name:      "latency_seconds",
		Help:      "Evaluation latency in seconds",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"category"})

	// runs counts completed benchmark runs.
	// Labels: status (completed, cancelled, error)
	runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "runner",
		Name:      "runs_total",
		Help:      "Total benchmark runs by status",
	}, []string{"status"})

	// generationErrors counts generator calls that returned an error.
	// Labels: category
	generationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "runner",
		Name:      "generation_errors_total",
		Help:      "Total model generation errors by category",
	}, []string{"category"})
)

// RecordEvaluation records one evaluation with its failure types and duration
func RecordEvaluation(category string, failureTypes []string, elapsed time.Duration) {
	outcome := OutcomePass
	if len(failureTypes) > 0 {
		outcome = OutcomeFail
	}
	evaluations.WithLabelValues(category, outcome).Inc()
	evaluationLatency.WithLabelValues(category).Observe(elapsed.Seconds())
	for _, t := range failureTypes {
		failures.WithLabelValues(category, t).Inc()
	}
}

// RecordEvaluationError records an evaluation rejected before scoring
func RecordEvaluationError(category string) {
	evaluations.WithLabelValues(category, OutcomeError).Inc()
}

// RecordRun records a finished run.
// status is "completed", "cancelled" or "error".
func RecordRun(status string) {
	runs.WithLabelValues(status).Inc()
}

// RecordGenerationError records a generator failure for category
func RecordGenerationError(category string) {
	generationErrors.WithLabelValues(category).Inc()
}
