package recorder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"cocorels-hq/kernel/pkg/audit"
	"cocorels-hq/kernel/pkg/audit/signing"
	"cocorels-hq/kernel/pkg/audit/storage"
	"cocorels-hq/kernel/pkg/config"
	"cocorels-hq/kernel/pkg/criterion"
	"cocorels-hq/kernel/pkg/report"
	"cocorels-hq/kernel/pkg/routing"
)

func testReport(id string) *report.Report {
	now := time.Now()
	return &report.Report{
		ID:              id,
		ActionSignature: "sig",
		DilemmaHash:     42,
		Path:            routing.Fast,
		RouteReason:     routing.ReasonLowComplexity,
		State:           report.StateFast,
		Evaluations:     report.Uniform(0.5, "neutral"),
		MCDA:            0.5,
		MomentumAfter:   1,
		StartedAt:       now,
		CompletedAt:     now,
	}
}

// blockingStorage holds every Store call until release is closed.
type blockingStorage struct {
	*storage.MemoryStorage
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingStorage() *blockingStorage {
	return &blockingStorage{
		MemoryStorage: storage.NewMemoryStorage(),
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
}

func (b *blockingStorage) Store(ctx context.Context, r *audit.Record) error {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.MemoryStorage.Store(ctx, r)
}

type failingStorage struct {
	*storage.MemoryStorage
}

func (failingStorage) Store(context.Context, *audit.Record) error {
	return errors.New("disk full")
}

type outcomes struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *outcomes) record(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counts == nil {
		o.counts = map[string]int{}
	}
	o.counts[s]++
}

func (o *outcomes) get(s string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counts[s]
}

// TestRecorder_PublishStoresSignedRecord tests the happy path end to end.
func TestRecorder_PublishStoresSignedRecord(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := storage.NewMemoryStorage()
	signer, err := signing.Generate(signing.Ed25519)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	var seen outcomes
	cfg := DefaultConfig()
	cfg.OnOutcome = seen.record

	rec := NewRecorder(store, signer, cfg)

	receipt, err := rec.Publish(context.Background(), testReport("eval-1"))
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if receipt.RecordID == "" || receipt.ContentHash == "" {
		t.Errorf("incomplete receipt: %+v", receipt)
	}

	// Close drains the channel.
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	records, err := store.Query(context.Background(), &audit.Query{EvaluationID: "eval-1"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	got := records[0]
	if got.ID != receipt.RecordID || got.ContentHash != receipt.ContentHash {
		t.Errorf("stored record does not match receipt: %s/%s", got.ID, got.ContentHash)
	}
	if got.Scores[criterion.Respect.String()] != 0.5 {
		t.Errorf("RESP score = %v, want 0.5", got.Scores["RESP"])
	}
	if err := got.Verify(rec.PublicKey()); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
	if seen.get(OutcomeStored) != 1 {
		t.Errorf("stored outcomes = %d, want 1", seen.get(OutcomeStored))
	}
}

// TestRecorder_BufferFull tests that a full buffer drops instead of blocking.
func TestRecorder_BufferFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := newBlockingStorage()
	var seen outcomes
	rec := NewRecorder(store, nil, &Config{AsyncBuffer: 1, WriteTimeout: time.Second, OnOutcome: seen.record})

	ctx := context.Background()
	if _, err := rec.Publish(ctx, testReport("eval-1")); err != nil {
		t.Fatalf("first Publish() error = %v", err)
	}
	<-store.entered

	if _, err := rec.Publish(ctx, testReport("eval-2")); err != nil {
		t.Fatalf("second Publish() error = %v", err)
	}

	start := time.Now()
	_, err := rec.Publish(ctx, testReport("eval-3"))
	if !errors.Is(err, ErrBufferFull) {
		t.Errorf("Expected ErrBufferFull, got %v", err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("Publish blocked on a full buffer")
	}
	if rec.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", rec.Pending())
	}

	close(store.release)
	rec.Close()

	count, _ := store.Count(ctx, &audit.Query{})
	if count != 2 {
		t.Errorf("stored %d records, want 2", count)
	}
	if seen.get(OutcomeDropped) != 1 || seen.get(OutcomeStored) != 2 {
		t.Errorf("outcomes = %v", seen.counts)
	}
}

// TestRecorder_StorageFailure tests that write failures are reported, not
// returned to the publisher.
func TestRecorder_StorageFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	var seen outcomes
	cfg := DefaultConfig()
	cfg.OnOutcome = seen.record
	rec := NewRecorder(failingStorage{storage.NewMemoryStorage()}, nil, cfg)

	if _, err := rec.Publish(context.Background(), testReport("eval-1")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	rec.Close()

	if seen.get(OutcomeFailed) != 1 {
		t.Errorf("failed outcomes = %d, want 1", seen.get(OutcomeFailed))
	}
}

// TestRecorder_PublishAfterClose tests that a closed recorder rejects reports.
func TestRecorder_PublishAfterClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := NewRecorder(storage.NewMemoryStorage(), nil, nil)
	rec.Close()
	rec.Close()

	_, err := rec.Publish(context.Background(), testReport("eval-1"))
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

// TestRecorder_UnsupportedHash tests that sealing errors surface immediately.
func TestRecorder_UnsupportedHash(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := NewRecorder(storage.NewMemoryStorage(), nil, &Config{HashAlgorithm: "md5"})
	defer rec.Close()

	_, err := rec.Publish(context.Background(), testReport("eval-1"))
	if !errors.Is(err, signing.ErrUnsupportedAlgorithm) {
		t.Errorf("Expected ErrUnsupportedAlgorithm, got %v", err)
	}
}

// TestConfigFromAudit tests mapping from the config section.
func TestConfigFromAudit(t *testing.T) {
	cfg := ConfigFromAudit(config.Default().Audit)
	want := DefaultConfig()

	if cfg.AsyncBuffer != want.AsyncBuffer || cfg.WriteTimeout != want.WriteTimeout || cfg.HashAlgorithm != want.HashAlgorithm {
		t.Errorf("ConfigFromAudit(defaults) = %+v, want %+v", cfg, want)
	}
}
