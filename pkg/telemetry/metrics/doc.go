// Package metrics exposes kernel metrics in Prometheus format.
//
// # Overview
//
// A Collector owns a registry and the metric groups registered on it:
//
//   - Evaluation metrics: calls by path and state, latency, conflicts,
//     deferred completions, momentum and pool queue depth
//   - Audit metrics: records stored, failed or dropped by the recorder
//   - Containment metrics: shield decisions by result
//
// The Collector implements evaluation.Observer, so it can be passed straight
// to the engine. Recorder outcomes and shield results are wired through
// RecordAuditOutcome and RecordContainmentDecision.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	engine, err := evaluation.New(cfg, evaluation.Dependencies{
//		Assessor: assessor,
//		Observer: collector,
//	})
//	http.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// # Prometheus Endpoint
//
//	# HELP cocorels_evaluations_total Total number of evaluate calls
//	# TYPE cocorels_evaluations_total counter
//	cocorels_evaluations_total{path="slow",state="COMPLETED"} 1234
//
// Every label takes values from a closed set (paths, report states, recorder
// outcomes, containment results), so no cardinality limit is applied.
package metrics
