package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"cocorels-hq/kernel/pkg/config"
)

// AuditMetrics tracks the audit recorder.
//
// Metrics:
//   - cocorels_audit_records_total: records by outcome (stored, failed, dropped)
type AuditMetrics struct {
	recordsTotal *prometheus.CounterVec
}

// NewAuditMetrics creates and registers audit metrics.
func NewAuditMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *AuditMetrics {
	am := &AuditMetrics{
		recordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "audit",
				Name:      "records_total",
				Help:      "Total number of audit records by outcome",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(am.recordsTotal)
	return am
}
