package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cocorels-hq/kernel/pkg/assess"
	"cocorels-hq/kernel/pkg/audit"
	"cocorels-hq/kernel/pkg/audit/recorder"
	"cocorels-hq/kernel/pkg/audit/retention"
	"cocorels-hq/kernel/pkg/audit/signing"
	"cocorels-hq/kernel/pkg/audit/storage"
	"cocorels-hq/kernel/pkg/cli"
	"cocorels-hq/kernel/pkg/config"
	"cocorels-hq/kernel/pkg/containment"
	"cocorels-hq/kernel/pkg/evaluation"
	"cocorels-hq/kernel/pkg/telemetry/health"
	"cocorels-hq/kernel/pkg/telemetry/metrics"
)

// kernel holds the components a command runs against.
type kernel struct {
	cfg       *config.Config
	collector *metrics.Collector
	store     audit.Storage
	recorder  *recorder.Recorder
	pruner    *retention.Pruner
	engine    *evaluation.Engine
	shield    *containment.Shield
}

// newKernel builds the engine, the containment shield and, when audit is
// enabled, the signing recorder the engine publishes to. The shield has no
// enforcer and fails closed.
func newKernel(cfg *config.Config) (*kernel, error) {
	k := &kernel{
		cfg:       cfg,
		collector: metrics.NewCollector(&cfg.Telemetry.Metrics, nil),
	}

	assessor, validator, err := assess.FromConfig(cfg)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}

	deps := evaluation.Dependencies{
		Assessor:  assessor,
		Validator: validator,
		Observer:  k.collector,
	}

	if cfg.Audit.Enabled {
		if err := k.openAudit(); err != nil {
			return nil, err
		}
		deps.Publisher = k.recorder
	}

	k.engine, err = evaluation.New(cfg, deps)
	if err != nil {
		k.Close()
		return nil, cli.NewConfigError(cfgFile, err)
	}

	k.shield, err = containment.NewShield(k.engine, nil, cfg.Containment, func(r containment.Result) {
		k.collector.RecordContainmentDecision(r.String())
	})
	if err != nil {
		k.Close()
		return nil, cli.NewConfigError(cfgFile, err)
	}

	return k, nil
}

func (k *kernel) openAudit() error {
	store, err := storage.Open(k.cfg.Audit)
	if err != nil {
		return fmt.Errorf("failed to open audit storage: %w", err)
	}

	signer, err := signing.FromConfig(k.cfg.Audit.Signing)
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to load audit signing key: %w", err)
	}

	rc := recorder.ConfigFromAudit(k.cfg.Audit)
	rc.OnOutcome = k.collector.RecordAuditOutcome

	k.store = store
	k.recorder = recorder.NewRecorder(store, signer, rc)
	k.pruner = retention.NewPruner(store, retention.ConfigFrom(k.cfg.Audit.Retention))
	return nil
}

// startRetention schedules audit pruning until ctx is done. A bad schedule
// is logged and pruning stays off.
func (k *kernel) startRetention(ctx context.Context) {
	if k.pruner == nil {
		return
	}
	if err := k.pruner.Start(ctx); err != nil {
		slog.Warn("failed to start retention scheduler", "error", err)
		return
	}
	if next := k.pruner.NextPruning(); next != nil {
		slog.Debug("audit retention scheduler started", "next_pruning", next)
	}
}

// registerChecks adds the readiness checks of the kernel's components.
func (k *kernel) registerChecks(checker *health.Checker) {
	checker.RegisterCheck("containment", func(context.Context) error {
		if k.shield.Locked() {
			return errors.New("containment lockdown active")
		}
		return nil
	})

	if k.store != nil {
		checker.RegisterCheck("audit_storage", func(ctx context.Context) error {
			_, err := k.store.Count(ctx, &audit.Query{Limit: 1})
			return err
		})
	}
}

// Close shuts components down in dependency order: the engine first so
// deferred slow paths still reach the recorder, then the recorder so queued
// records reach storage.
func (k *kernel) Close() error {
	var errs []error
	if k.engine != nil {
		errs = append(errs, k.engine.Close())
	}
	if k.recorder != nil {
		errs = append(errs, k.recorder.Close())
	}
	if k.pruner != nil {
		k.pruner.Stop()
	}
	if k.store != nil {
		errs = append(errs, k.store.Close())
	}
	return errors.Join(errs...)
}
