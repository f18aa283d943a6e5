package storage

import (
	"context"
	"testing"

	"cocorels-hq/kernel/pkg/audit"
	"cocorels-hq/kernel/pkg/audit/signing"
)

// TestMemoryStorage runs the shared storage suite against MemoryStorage.
func TestMemoryStorage(t *testing.T) {
	runStorageSuite(t, func(t *testing.T) audit.Storage {
		return NewMemoryStorage()
	})
}

// TestMemoryStorage_Isolation tests that callers cannot mutate stored records.
func TestMemoryStorage_Isolation(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	rec := newTestRecord(t, signing.NoneSigner{}, 7, "fast", "RUNNING_FAST", 0.8)
	if err := s.Store(ctx, rec); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	rec.Scores["RESP"] = 0

	got, _ := s.Query(ctx, &audit.Query{})
	if got[0].Scores["RESP"] != 0.8 {
		t.Error("mutating the stored record leaked into storage")
	}

	got[0].MCDA = 0
	again, _ := s.Query(ctx, &audit.Query{})
	if again[0].MCDA != 0.8 {
		t.Error("mutating a query result leaked into storage")
	}
}

// TestMemoryStorage_CancelledContext tests that Store honours cancellation.
func TestMemoryStorage_CancelledContext(t *testing.T) {
	s := NewMemoryStorage()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := newTestRecord(t, signing.NoneSigner{}, 1, "fast", "RUNNING_FAST", 0.5)
	if err := s.Store(ctx, rec); err == nil {
		t.Error("Expected error storing with a cancelled context")
	}
}
