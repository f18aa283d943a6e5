package audit

import (
	"context"
	"io"
	"time"

	"cocorels-hq/kernel/pkg/report"
)

// Record is the immutable audit entry for one evaluation report. Records
// are signed over their content hash and never updated once stored.
type Record struct {
	// Identity
	ID           string `json:"id"`            // UUID v4
	EvaluationID string `json:"evaluation_id"` // Report.ID

	// Timestamps
	StartedAt   time.Time `json:"started_at"`   // Evaluation start
	CompletedAt time.Time `json:"completed_at"` // Evaluation end
	RecordedAt  time.Time `json:"recorded_at"`  // When the record was built

	// Dilemma
	ActionSignature string `json:"action_signature"` // SHA-256 of the action
	DilemmaHash     string `json:"dilemma_hash"`     // 16 hex digits
	CriterionCode   int    `json:"criterion_code"`   // Routing hint

	// Outcome
	Path           string             `json:"path"`                      // "fast" or "slow"
	RouteReason    string             `json:"route_reason"`              // Router reason
	State          string             `json:"state"`                     // Coordinator state
	Deferred       bool               `json:"deferred"`                  // Completed after its caller timed out
	FallbackReason string             `json:"fallback_reason,omitempty"` // Why the slow path was abandoned
	Scores         map[string]float64 `json:"scores"`                    // Criterion name -> score
	Defaulted      []string           `json:"defaulted,omitempty"`       // Criteria filled with the neutral score
	Conflicts      int                `json:"conflicts"`                 // Flagged sub-trait pairs
	MCDA           float64            `json:"mcda"`                      // Mean criterion score
	Balance        float64            `json:"balance"`                   // Criterion score stddev
	MomentumAfter  float64            `json:"momentum_after"`            // Momentum after resolution

	// Integrity
	ContentHash        string `json:"content_hash"`        // Hex digest of the canonical content
	HashAlgorithm      string `json:"hash_algorithm"`      // sha256, sha512 or sha3-256
	SignatureAlgorithm string `json:"signature_algorithm"` // ed25519, dilithium3 or none
	KeyID              string `json:"key_id,omitempty"`    // Hex prefix of the public key digest
	Signature          []byte `json:"signature,omitempty"` // Signature over the content hash
}

// Receipt acknowledges a published report.
type Receipt struct {
	// RecordID is the ID assigned to the audit record.
	RecordID string `json:"record_id"`

	// ContentHash is the record's content digest.
	ContentHash string `json:"content_hash"`
}

// Publisher is the kernel's audit boundary. Publish must not block on
// storage: implementations enqueue and return.
type Publisher interface {
	Publish(ctx context.Context, r *report.Report) (Receipt, error)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, r *report.Report) (Receipt, error)

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, r *report.Report) (Receipt, error) {
	return f(ctx, r)
}

// Query defines filter parameters for querying audit records.
type Query struct {
	// Time range over RecordedAt
	StartTime *time.Time `json:"start_time,omitempty"` // Inclusive start time
	EndTime   *time.Time `json:"end_time,omitempty"`   // Inclusive end time

	// Filters
	EvaluationID string `json:"evaluation_id,omitempty"` // Filter by report ID
	DilemmaHash  string `json:"dilemma_hash,omitempty"`  // Filter by dilemma hash
	Path         string `json:"path,omitempty"`          // "fast" or "slow"
	State        string `json:"state,omitempty"`         // Coordinator state
	Deferred     *bool  `json:"deferred,omitempty"`      // Deferred completions only (or never)

	// Thresholds
	MaxMCDA *float64 `json:"max_mcda,omitempty"` // Reports scoring at or below

	// Pagination
	Limit  int `json:"limit,omitempty"`  // Max records to return
	Offset int `json:"offset,omitempty"` // Skip N records

	// Sorting
	SortBy    string `json:"sort_by,omitempty"`    // "recorded_at", "mcda", "balance"
	SortOrder string `json:"sort_order,omitempty"` // "asc", "desc"
}

// Storage defines the interface for audit storage backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists a record. Storing an existing ID is an error.
	Store(ctx context.Context, record *Record) error

	// Query retrieves records matching the filters. Returns an empty slice
	// if no records match.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// Count returns the number of records matching the filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes records matching the filters and returns how many
	// were removed. Used for retention.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Exporter writes records to an output format.
type Exporter interface {
	Export(ctx context.Context, records []*Record, w io.Writer) error
}
