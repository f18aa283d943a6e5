package tracing

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cocorels-hq/kernel/pkg/report"
)

// Attribute keys use the "cocorels.*" namespace.
const (
	AttrEvaluationID      = "cocorels.evaluation.id"
	AttrDilemmaHash       = "cocorels.evaluation.dilemma_hash"
	AttrCriterionCode     = "cocorels.evaluation.criterion_code"
	AttrPath              = "cocorels.evaluation.path"
	AttrRouteReason       = "cocorels.evaluation.route_reason"
	AttrState             = "cocorels.evaluation.state"
	AttrMCDA              = "cocorels.evaluation.mcda"
	AttrConflicts         = "cocorels.evaluation.conflicts"
	AttrProvisional       = "cocorels.evaluation.provisional"
	AttrMomentum          = "cocorels.momentum"
	AttrContainmentResult = "cocorels.containment.result"
	AttrContainmentSource = "cocorels.containment.source"
)

// ReportAttributes returns the span attributes describing r.
func ReportAttributes(r *report.Report) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrEvaluationID, r.ID),
		attribute.String(AttrDilemmaHash, fmt.Sprintf("%016x", r.DilemmaHash)),
		attribute.Int(AttrCriterionCode, r.CriterionCode),
		attribute.String(AttrPath, r.Path.String()),
		attribute.String(AttrRouteReason, string(r.RouteReason)),
		attribute.String(AttrState, string(r.State)),
		attribute.Float64(AttrMCDA, r.MCDA),
		attribute.Int(AttrConflicts, len(r.Conflicts)),
		attribute.Bool(AttrProvisional, r.Provisional),
		attribute.Float64(AttrMomentum, r.MomentumAfter),
	}
}

// SetReportAttributes records r on span. A nil report is ignored.
func SetReportAttributes(span trace.Span, r *report.Report) {
	if r == nil {
		return
	}
	span.SetAttributes(ReportAttributes(r)...)
}

// SetContainmentAttributes records a containment decision on span.
func SetContainmentAttributes(span trace.Span, source, result string) {
	span.SetAttributes(
		attribute.String(AttrContainmentSource, source),
		attribute.String(AttrContainmentResult, result),
	)
}
