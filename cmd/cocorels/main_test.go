package main

import (
	"testing"
	"time"

	"go.uber.org/goleak"

	"cocorels-hq/kernel/pkg/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newTestKernel builds a kernel with the hash assessor, an in-memory audit
// trail and a generous hard cap so slow paths finish within the deadline.
func newTestKernel(t *testing.T, mutate func(*config.Config)) *kernel {
	t.Helper()

	cfg := config.Default()
	cfg.Evaluation.HardCap = 5 * time.Second
	cfg.Evaluation.JitterSeed = 7
	cfg.Audit.Enabled = true
	cfg.Audit.Backend = "memory"
	cfg.Audit.Signing.Algorithm = "ed25519"
	if mutate != nil {
		mutate(cfg)
	}

	k, err := newKernel(cfg)
	if err != nil {
		t.Fatalf("newKernel() error = %v", err)
	}
	t.Cleanup(func() { k.Close() })
	return k
}
