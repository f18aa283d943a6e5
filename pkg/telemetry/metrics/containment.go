package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"cocorels-hq/kernel/pkg/config"
)

// ContainmentMetrics tracks the containment shield.
//
// Metrics:
//   - cocorels_containment_decisions_total: shield decisions by result
type ContainmentMetrics struct {
	decisionsTotal *prometheus.CounterVec
}

// NewContainmentMetrics creates and registers containment metrics.
func NewContainmentMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ContainmentMetrics {
	cm := &ContainmentMetrics{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "containment",
				Name:      "decisions_total",
				Help:      "Total number of containment decisions by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(cm.decisionsTotal)
	return cm
}
