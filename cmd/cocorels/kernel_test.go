package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"cocorels-hq/kernel/pkg/action"
	"cocorels-hq/kernel/pkg/audit"
	"cocorels-hq/kernel/pkg/cli"
	"cocorels-hq/kernel/pkg/config"
	"cocorels-hq/kernel/pkg/evaluation"
	"cocorels-hq/kernel/pkg/report"
	"cocorels-hq/kernel/pkg/telemetry/health"
)

// TestKernel_PublishesSlowPath tests that a slow-path report reaches the
// audit trail as a verifiable record.
func TestKernel_PublishesSlowPath(t *testing.T) {
	k := newTestKernel(t, nil)

	rep := k.engine.Evaluate(context.Background(), evaluation.Request{
		Action:     action.New("share the patient record with a third party", nil),
		ForceSlow:  true,
		TimeBudget: 5 * time.Second,
	})
	if rep.State != report.StateCompleted {
		t.Fatalf("State = %s, want %s (fallback: %q)", rep.State, report.StateCompleted, rep.FallbackReason)
	}

	// Closing the recorder flushes the queue; the memory store stays readable.
	if err := k.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	records, err := k.store.Query(context.Background(), &audit.Query{EvaluationID: rep.ID})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records for %s, want 1", len(records), rep.ID)
	}
	if err := records[0].Verify(k.recorder.PublicKey()); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

// TestKernel_AuditDisabled tests that no audit components are built when
// audit is off.
func TestKernel_AuditDisabled(t *testing.T) {
	k := newTestKernel(t, func(c *config.Config) { c.Audit.Enabled = false })

	if k.store != nil || k.recorder != nil || k.pruner != nil {
		t.Error("audit components built with audit disabled")
	}

	checker := health.New(time.Second)
	k.registerChecks(checker)
	if got := checker.ListChecks(); len(got) != 1 || got[0] != "containment" {
		t.Errorf("ListChecks() = %v, want [containment]", got)
	}
}

// TestKernel_ReadinessFollowsLockdown tests the containment readiness check.
func TestKernel_ReadinessFollowsLockdown(t *testing.T) {
	k := newTestKernel(t, nil)
	checker := health.New(time.Second)
	k.registerChecks(checker)

	ctx := context.Background()
	if s := checker.CheckReadiness(ctx); s.Status != "ready" {
		t.Fatalf("readiness = %s before lockdown, want ready", s.Status)
	}

	k.shield.EmergencyLockdown(ctx)
	if s := checker.CheckReadiness(ctx); s.Status != "degraded" {
		t.Errorf("readiness = %s during lockdown, want degraded", s.Status)
	}

	k.shield.Release(ctx)
	if s := checker.CheckReadiness(ctx); s.Status != "ready" {
		t.Errorf("readiness = %s after release, want ready", s.Status)
	}
}

// TestNewKernel_InvalidConfig tests that configuration errors map to the
// config exit code.
func TestNewKernel_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Assessor.Type = "oracle"

	_, err := newKernel(cfg)
	var cfgErr *cli.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("newKernel() error = %v, want *cli.ConfigError", err)
	}
	if cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("ExitCode() = %d, want %d", cli.ExitCode(err), cli.ExitConfig)
	}
}
