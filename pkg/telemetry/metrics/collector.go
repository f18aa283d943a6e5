package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"cocorels-hq/kernel/pkg/config"
	"cocorels-hq/kernel/pkg/evaluation"
)

// Collector owns the kernel's Prometheus registry and metric groups. All
// methods are safe for concurrent use and never block.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	evaluationMetrics  *EvaluationMetrics
	auditMetrics       *AuditMetrics
	containmentMetrics *ContainmentMetrics
}

var _ evaluation.Observer = (*Collector)(nil)

// NewCollector creates a collector registering on registry. A nil registry
// gets a fresh one with the Go runtime and process collectors.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		evaluationMetrics:  NewEvaluationMetrics(cfg, registry),
		auditMetrics:       NewAuditMetrics(cfg, registry),
		containmentMetrics: NewContainmentMetrics(cfg, registry),
	}
}

// EvaluationCompleted implements evaluation.Observer.
func (c *Collector) EvaluationCompleted(path, state string, duration time.Duration) {
	c.evaluationMetrics.RecordEvaluation(path, state, duration)
}

// ConflictsResolved implements evaluation.Observer.
func (c *Collector) ConflictsResolved(n int) {
	c.evaluationMetrics.conflictsTotal.Add(float64(n))
}

// MomentumChanged implements evaluation.Observer.
func (c *Collector) MomentumChanged(v float64) {
	c.evaluationMetrics.momentum.Set(v)
}

// DeferredCompleted implements evaluation.Observer.
func (c *Collector) DeferredCompleted(state string) {
	c.evaluationMetrics.deferredTotal.WithLabelValues(state).Inc()
}

// QueueDepth implements evaluation.Observer.
func (c *Collector) QueueDepth(n int) {
	c.evaluationMetrics.queueDepth.Set(float64(n))
}

// RecordAuditOutcome counts one recorder outcome. It matches the recorder's
// OnOutcome hook.
func (c *Collector) RecordAuditOutcome(outcome string) {
	c.auditMetrics.recordsTotal.WithLabelValues(outcome).Inc()
}

// RecordContainmentDecision counts one shield decision by result name.
func (c *Collector) RecordContainmentDecision(result string) {
	c.containmentMetrics.decisionsTotal.WithLabelValues(result).Inc()
}

// Registry returns the Prometheus registry, e.g. to register additional
// collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
