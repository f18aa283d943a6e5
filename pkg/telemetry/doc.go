// Package telemetry groups the kernel's observability packages.
//
// # Components
//
//   - logging: slog setup with evaluation context fields and secret masking
//   - metrics: Prometheus collectors for evaluations, audit and containment
//   - tracing: OpenTelemetry spans around evaluate and containment calls
//   - health: liveness, readiness and version endpoints
//
// # Usage
//
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
//	if err != nil {
//		return err
//	}
//	slog.SetDefault(logger)
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	engine, err := evaluation.New(cfg, evaluation.Dependencies{
//		Assessor: assessor,
//		Observer: collector,
//	})
//
//	tracer, err := tracing.New(ctx, &cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(context.Background())
//
// Components capture slog.Default() when they are built, so logging must be
// configured first.
package telemetry
