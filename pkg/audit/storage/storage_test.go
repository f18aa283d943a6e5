package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"cocorels-hq/kernel/pkg/audit"
	"cocorels-hq/kernel/pkg/audit/signing"
)

var baseTime = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

// newTestRecord builds a sealed record recorded i minutes after baseTime.
func newTestRecord(t *testing.T, signer signing.Signer, i int, path, state string, mcda float64) *audit.Record {
	t.Helper()

	rec := &audit.Record{
		ID:              fmt.Sprintf("rec-%03d", i),
		EvaluationID:    fmt.Sprintf("eval-%03d", i),
		StartedAt:       baseTime.Add(time.Duration(i) * time.Minute),
		CompletedAt:     baseTime.Add(time.Duration(i)*time.Minute + 3*time.Millisecond),
		RecordedAt:      baseTime.Add(time.Duration(i)*time.Minute + 5*time.Millisecond),
		ActionSignature: "sig",
		DilemmaHash:     fmt.Sprintf("%016x", i%3),
		CriterionCode:   0x60,
		Path:            path,
		RouteReason:     "low_complexity",
		State:           state,
		Deferred:        state == "COMPLETED" && path == "slow",
		Scores:          map[string]float64{"RESP": mcda, "KIND": 0.5},
		Defaulted:       []string{"KIND"},
		Conflicts:       i % 2,
		MCDA:            mcda,
		Balance:         1 - mcda,
		MomentumAfter:   1,
	}
	if err := rec.Seal(signing.SHA256, signer); err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	return rec
}

// seed stores five records: three fast, two slow.
func seed(t *testing.T, s audit.Storage, signer signing.Signer) []*audit.Record {
	t.Helper()

	records := []*audit.Record{
		newTestRecord(t, signer, 0, "fast", "RUNNING_FAST", 0.9),
		newTestRecord(t, signer, 1, "fast", "RUNNING_FAST", 0.7),
		newTestRecord(t, signer, 2, "slow", "COMPLETED", 0.3),
		newTestRecord(t, signer, 3, "slow", "TIMED_OUT", 0.2),
		newTestRecord(t, signer, 4, "fast", "FAILED", 0.6),
	}
	for _, r := range records {
		if err := s.Store(context.Background(), r); err != nil {
			t.Fatalf("Store(%s) error = %v", r.ID, err)
		}
	}
	return records
}

func ids(records []*audit.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

// runStorageSuite exercises the behaviour every audit.Storage must share.
func runStorageSuite(t *testing.T, newStorage func(t *testing.T) audit.Storage) {
	signer, err := signing.Generate(signing.Ed25519)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	ctx := context.Background()

	t.Run("round trip keeps the record verifiable", func(t *testing.T) {
		s := newStorage(t)
		records := seed(t, s, signer)

		got, err := s.Query(ctx, &audit.Query{EvaluationID: "eval-002"})
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("Expected 1 record, got %d", len(got))
		}
		if diff := cmp.Diff(records[2], got[0]); diff != "" {
			t.Errorf("stored record mismatch (-want +got):\n%s", diff)
		}
		if err := got[0].Verify(signer.PublicKey()); err != nil {
			t.Errorf("Verify() after load error = %v", err)
		}
	})

	t.Run("duplicate id is rejected", func(t *testing.T) {
		s := newStorage(t)
		records := seed(t, s, signer)

		err := s.Store(ctx, records[0])
		if !errors.Is(err, audit.ErrDuplicateRecord) {
			t.Errorf("Expected ErrDuplicateRecord, got %v", err)
		}
		var serr *audit.StorageError
		if !errors.As(err, &serr) {
			t.Errorf("Expected *audit.StorageError, got %T", err)
		}
	})

	t.Run("filters", func(t *testing.T) {
		s := newStorage(t)
		seed(t, s, signer)

		deferred := true
		maxMCDA := 0.5
		start := baseTime.Add(2 * time.Minute)
		end := baseTime.Add(3*time.Minute + time.Second)

		tests := []struct {
			name  string
			query *audit.Query
			want  []string
		}{
			{"path", &audit.Query{Path: "slow"}, []string{"rec-003", "rec-002"}},
			{"state", &audit.Query{State: "FAILED"}, []string{"rec-004"}},
			{"deferred", &audit.Query{Deferred: &deferred}, []string{"rec-002"}},
			{"max mcda", &audit.Query{MaxMCDA: &maxMCDA}, []string{"rec-003", "rec-002"}},
			{"dilemma hash", &audit.Query{DilemmaHash: "0000000000000001"}, []string{"rec-004", "rec-001"}},
			{"time range", &audit.Query{StartTime: &start, EndTime: &end}, []string{"rec-003", "rec-002"}},
			{"sort by mcda asc", &audit.Query{SortBy: "mcda", SortOrder: "asc", Limit: 2}, []string{"rec-003", "rec-002"}},
			{"offset", &audit.Query{SortOrder: "asc", Offset: 3}, []string{"rec-003", "rec-004"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := s.Query(ctx, tt.query)
				if err != nil {
					t.Fatalf("Query() error = %v", err)
				}
				if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
					t.Errorf("Query() ids mismatch (-want +got):\n%s", diff)
				}

				count, err := s.Count(ctx, &audit.Query{
					Path: tt.query.Path, State: tt.query.State, Deferred: tt.query.Deferred,
					MaxMCDA: tt.query.MaxMCDA, DilemmaHash: tt.query.DilemmaHash,
					StartTime: tt.query.StartTime, EndTime: tt.query.EndTime,
				})
				if err != nil {
					t.Fatalf("Count() error = %v", err)
				}
				if tt.query.Limit == 0 && tt.query.Offset == 0 && count != int64(len(tt.want)) {
					t.Errorf("Count() = %d, want %d", count, len(tt.want))
				}
			})
		}
	})

	t.Run("delete by end time", func(t *testing.T) {
		s := newStorage(t)
		seed(t, s, signer)

		cutoff := baseTime.Add(time.Minute + time.Second)
		deleted, err := s.Delete(ctx, &audit.Query{EndTime: &cutoff})
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if deleted != 2 {
			t.Errorf("Delete() = %d, want 2", deleted)
		}

		count, _ := s.Count(ctx, &audit.Query{})
		if count != 3 {
			t.Errorf("Count() after delete = %d, want 3", count)
		}
	})
}
