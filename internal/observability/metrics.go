// Package observability exposes prometheus instrumentation for the decision
// core. All recorder methods are nil-safe so components can run without
// metrics wired.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SelectionMetrics tracks the health of action selection and attempt review.
type SelectionMetrics struct {
	comparisons       prometheus.Counter
	judgeSamples      prometheus.Counter
	judgeParseFailure prometheus.Counter
	deskRejections    prometheus.Counter
	attempts          prometheus.Counter
	reviewScores      prometheus.Histogram
	attemptCost       prometheus.Histogram
}

var (
	defaultSelectionMetrics     *SelectionMetrics
	defaultSelectionMetricsOnce sync.Once
)

// NewSelectionMetrics builds a recorder using the default registry.
func NewSelectionMetrics() *SelectionMetrics {
	defaultSelectionMetricsOnce.Do(func() {
		defaultSelectionMetrics = newSelectionMetrics(prometheus.DefaultRegisterer)
	})
	return defaultSelectionMetrics
}

// NewSelectionMetricsWithRegisterer allows tests to provide a dedicated registry.
func NewSelectionMetricsWithRegisterer(reg prometheus.Registerer) *SelectionMetrics {
	return newSelectionMetrics(reg)
}

func newSelectionMetrics(reg prometheus.Registerer) *SelectionMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &SelectionMetrics{
		comparisons: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tribunal",
			Subsystem: "tournament",
			Name:      "comparisons_total",
			Help:      "Number of pairwise action comparisons sent to the judge model",
		}),
		judgeSamples: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tribunal",
			Subsystem: "review",
			Name:      "judge_samples_total",
			Help:      "Number of judge samples requested across all reviews",
		}),
		judgeParseFailure: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tribunal",
			Subsystem: "review",
			Name:      "judge_parse_failures_total",
			Help:      "Number of judge responses that could not be interpreted",
		}),
		deskRejections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tribunal",
			Subsystem: "review",
			Name:      "desk_rejections_total",
			Help:      "Number of submissions rejected on exit status without a model call",
		}),
		attempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tribunal",
			Subsystem: "retry",
			Name:      "attempts_total",
			Help:      "Number of attempts submitted to the retry loop",
		}),
		reviewScores: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tribunal",
			Subsystem: "review",
			Name:      "score",
			Help:      "Final review scores per submission",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		attemptCost: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tribunal",
			Subsystem: "retry",
			Name:      "attempt_cost_dollars",
			Help:      "Actor model spend per attempt",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
}

// Comparison records one pairwise judge call.
func (m *SelectionMetrics) Comparison() {
	if m != nil {
		m.comparisons.Inc()
	}
}

// JudgeSample records one review judge sample.
func (m *SelectionMetrics) JudgeSample() {
	if m != nil {
		m.judgeSamples.Inc()
	}
}

// JudgeParseFailure records a judge response that could not be interpreted.
func (m *SelectionMetrics) JudgeParseFailure() {
	if m != nil {
		m.judgeParseFailure.Inc()
	}
}

// DeskRejection records a submission rejected without a model call.
func (m *SelectionMetrics) DeskRejection() {
	if m != nil {
		m.deskRejections.Inc()
	}
}

// Attempt records a submitted attempt with its actor model spend and final
// review score.
func (m *SelectionMetrics) Attempt(cost, score float64) {
	if m != nil {
		m.attempts.Inc()
		m.attemptCost.Observe(cost)
		m.reviewScores.Observe(score)
	}
}
