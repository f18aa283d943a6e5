// Package query validates and defaults audit queries before they reach a
// storage backend.
package query

import (
	"fmt"

	"cocorels-hq/kernel/pkg/audit"
	"cocorels-hq/kernel/pkg/report"
)

const (
	// DefaultLimit is the default number of records to return if not specified.
	DefaultLimit = 100

	// MaxLimit is the maximum number of records that can be returned in a single query.
	MaxLimit = 10000
)

// ValidSortFields contains the fields that can be used for sorting.
var ValidSortFields = map[string]bool{
	"recorded_at": true,
	"mcda":        true,
	"balance":     true,
}

// ValidSortOrders contains the valid sort orders.
var ValidSortOrders = map[string]bool{
	"asc":  true,
	"desc": true,
}

var validStates = map[string]bool{
	string(report.StateFast):      true,
	string(report.StateCompleted): true,
	string(report.StateTimedOut):  true,
	string(report.StateFailed):    true,
}

// Validate returns a QueryError if any parameter is invalid.
func Validate(q *audit.Query) error {
	if q.Limit < 0 {
		return audit.NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxLimit {
		return audit.NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", MaxLimit, q.Limit))
	}
	if q.Offset < 0 {
		return audit.NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}

	if q.SortBy != "" && !ValidSortFields[q.SortBy] {
		return audit.NewQueryError(q, fmt.Errorf("invalid sort field: %s", q.SortBy))
	}
	if q.SortOrder != "" && !ValidSortOrders[q.SortOrder] {
		return audit.NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}

	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return audit.NewQueryError(q, fmt.Errorf("start_time must be before end_time"))
	}

	if q.Path != "" && q.Path != "fast" && q.Path != "slow" {
		return audit.NewQueryError(q, fmt.Errorf("invalid path: %s (must be 'fast' or 'slow')", q.Path))
	}
	if q.State != "" && !validStates[q.State] {
		return audit.NewQueryError(q, fmt.Errorf("invalid state: %s", q.State))
	}

	return nil
}

// ApplyDefaults fills in limit and sorting.
func ApplyDefaults(q *audit.Query) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.SortBy == "" {
		q.SortBy = "recorded_at"
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
}
