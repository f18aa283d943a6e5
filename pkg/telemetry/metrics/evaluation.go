package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"cocorels-hq/kernel/pkg/config"
)

// durationBuckets span a fast-path call (sub-millisecond) up to a slow path
// running into the hard cap.
var durationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// EvaluationMetrics tracks the evaluation coordinator.
//
// Metrics:
//   - cocorels_evaluations_total: evaluate calls by path and state
//   - cocorels_evaluation_duration_seconds: evaluate latency by path
//   - cocorels_conflicts_total: flagged conflict pairs
//   - cocorels_deferred_completions_total: slow paths finishing after their caller timed out
//   - cocorels_momentum: current momentum
//   - cocorels_pool_queue_depth: slow-path tasks waiting for a worker
type EvaluationMetrics struct {
	evaluationsTotal *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	conflictsTotal   prometheus.Counter
	deferredTotal    *prometheus.CounterVec
	momentum         prometheus.Gauge
	queueDepth       prometheus.Gauge
}

// NewEvaluationMetrics creates and registers evaluation metrics.
func NewEvaluationMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *EvaluationMetrics {
	em := &EvaluationMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "evaluations_total",
				Help:      "Total number of evaluate calls",
			},
			[]string{"path", "state"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of evaluate calls in seconds",
				Buckets:   durationBuckets,
			},
			[]string{"path"},
		),

		conflictsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "conflicts_total",
				Help:      "Total number of flagged sub-trait conflict pairs",
			},
		),

		deferredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "deferred_completions_total",
				Help:      "Slow paths that finished after their caller timed out",
			},
			[]string{"state"},
		),

		momentum: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "momentum",
				Help:      "Current ethical momentum",
			},
		),

		queueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "pool_queue_depth",
				Help:      "Slow-path tasks waiting for a worker",
			},
		),
	}

	// Momentum starts full.
	em.momentum.Set(1)

	registry.MustRegister(
		em.evaluationsTotal,
		em.duration,
		em.conflictsTotal,
		em.deferredTotal,
		em.momentum,
		em.queueDepth,
	)

	return em
}

// RecordEvaluation records one finished evaluate call.
func (em *EvaluationMetrics) RecordEvaluation(path, state string, duration time.Duration) {
	em.evaluationsTotal.WithLabelValues(path, state).Inc()
	em.duration.WithLabelValues(path).Observe(duration.Seconds())
}
