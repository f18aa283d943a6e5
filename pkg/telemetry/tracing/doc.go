// Package tracing wires OpenTelemetry tracing into the kernel.
//
// The HTTP server extracts W3C trace context from incoming requests and
// wraps evaluate and containment calls in spans carrying the report's
// identity and outcome. The HTTP assessor injects the active trace context
// into its outgoing requests, so a slow path shows up as one trace across
// the kernel and the model gateway.
//
// When tracing is disabled the Tracer is a no-op and spans cost almost
// nothing. Enabled tracers export over OTLP gRPC:
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: otel-collector:4317
//	    insecure: true
//	    sampler: ratio
//	    sample_ratio: 0.1
//
// Samplers are always wrapped in ParentBased, so a sampled caller keeps the
// whole evaluation in its trace.
package tracing
