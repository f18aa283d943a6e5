// Package health provides liveness, readiness and version endpoints.
//
// Liveness (/health) only reports that the process serves HTTP. Readiness
// (/ready) runs every registered check concurrently, each under its own
// timeout, and answers 503 when any of them fails. The kernel registers
// checks for the audit store and the containment shield.
//
// Usage:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("audit_storage", func(ctx context.Context) error {
//		_, err := store.Count(ctx, &audit.Query{})
//		return err
//	})
//	health.Register(mux, checker, version, commit, buildTime)
package health
