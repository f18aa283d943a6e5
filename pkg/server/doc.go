// Package server exposes the kernel over HTTP.
//
// # Routes
//
//	GET  /health                   liveness
//	GET  /ready                    readiness (audit store, containment)
//	GET  /version                  build information
//	GET  /metrics                  Prometheus exposition (path configurable)
//	POST /v1/evaluate              evaluate one action, returns the report
//	GET  /v1/momentum              current momentum and lockdown state
//	POST /v1/containment/check     run an action through the shield
//	POST /v1/containment/lockdown  emergency lockdown
//	POST /v1/containment/release   release a lockdown and reset momentum
//
// The containment routes are only mounted when a shield is configured.
//
// # Middleware
//
// Requests pass, outermost first, through panic recovery, request logging,
// request id assignment and trace context extraction. The request id is
// taken from X-Request-ID when the caller sets one and is attached to the
// context so every log line of the request carries it.
//
// # Usage
//
//	srv := server.New(&cfg.Server, server.Dependencies{
//		Engine:  engine,
//		Shield:  shield,
//		Health:  checker,
//		Metrics: collector.Handler(),
//	})
//	if err := srv.Start(ctx); err != nil {
//		return err
//	}
package server
