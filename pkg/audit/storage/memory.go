package storage

import (
	"context"
	"sort"
	"sync"

	"cocorels-hq/kernel/pkg/audit"
)

// MemoryStorage implements audit.Storage with an in-memory map. Intended for
// tests and for running without a database.
type MemoryStorage struct {
	records map[string]*audit.Record
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*audit.Record),
	}
}

// Store persists a copy of record.
func (s *MemoryStorage) Store(ctx context.Context, record *audit.Record) error {
	if err := ctx.Err(); err != nil {
		return audit.NewStorageError("memory", "store", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return audit.NewStorageError("memory", "store", audit.ErrDuplicateRecord)
	}
	s.records[record.ID] = record.Clone()

	return nil
}

// Query retrieves copies of the records matching query, sorted and paginated.
func (s *MemoryStorage) Query(ctx context.Context, query *audit.Query) ([]*audit.Record, error) {
	s.mu.RLock()
	results := make([]*audit.Record, 0, len(s.records))
	for _, record := range s.records {
		if matchesQuery(record, query) {
			results = append(results, record.Clone())
		}
	}
	s.mu.RUnlock()

	sortRecords(results, query.SortBy, query.SortOrder)

	start := query.Offset
	if start > len(results) {
		return []*audit.Record{}, nil
	}
	results = results[start:]

	if query.Limit > 0 && query.Limit < len(results) {
		results = results[:query.Limit]
	}

	return results, nil
}

// Count returns the number of records matching query.
func (s *MemoryStorage) Count(ctx context.Context, query *audit.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if matchesQuery(record, query) {
			count++
		}
	}
	return count, nil
}

// Delete removes the records matching query.
func (s *MemoryStorage) Delete(ctx context.Context, query *audit.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for id, record := range s.records {
		if matchesQuery(record, query) {
			delete(s.records, id)
			count++
		}
	}
	return count, nil
}

// Close is a no-op.
func (s *MemoryStorage) Close() error {
	return nil
}

func matchesQuery(record *audit.Record, query *audit.Query) bool {
	if query.StartTime != nil && record.RecordedAt.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && record.RecordedAt.After(*query.EndTime) {
		return false
	}
	if query.EvaluationID != "" && record.EvaluationID != query.EvaluationID {
		return false
	}
	if query.DilemmaHash != "" && record.DilemmaHash != query.DilemmaHash {
		return false
	}
	if query.Path != "" && record.Path != query.Path {
		return false
	}
	if query.State != "" && record.State != query.State {
		return false
	}
	if query.Deferred != nil && record.Deferred != *query.Deferred {
		return false
	}
	if query.MaxMCDA != nil && record.MCDA > *query.MaxMCDA {
		return false
	}
	return true
}

func sortRecords(records []*audit.Record, sortBy, sortOrder string) {
	desc := sortOrder != "asc"

	less := func(a, b *audit.Record) bool {
		switch sortBy {
		case "mcda":
			return a.MCDA < b.MCDA
		case "balance":
			return a.Balance < b.Balance
		default:
			return a.RecordedAt.Before(b.RecordedAt)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		if desc {
			return less(records[j], records[i])
		}
		return less(records[i], records[j])
	})
}
