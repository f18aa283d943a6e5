package recorder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"cocorels-hq/kernel/pkg/audit"
	"cocorels-hq/kernel/pkg/audit/signing"
	"cocorels-hq/kernel/pkg/config"
	"cocorels-hq/kernel/pkg/report"
)

var (
	// ErrBufferFull is returned when the async channel cannot take another
	// record.
	ErrBufferFull = errors.New("audit buffer full")

	// ErrClosed is returned by Publish after Close.
	ErrClosed = errors.New("recorder closed")
)

// Record outcome labels passed to Config.OnOutcome.
const (
	OutcomeStored  = "stored"
	OutcomeFailed  = "failed"
	OutcomeDropped = "dropped"
)

// Config contains configuration for the audit recorder.
type Config struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout is the timeout for writing a record to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// HashAlgorithm is the content digest: sha256, sha512 or sha3-256.
	// Default: sha256
	HashAlgorithm string

	// OnOutcome, when set, is called once per record with OutcomeStored,
	// OutcomeFailed or OutcomeDropped.
	OnOutcome func(outcome string)
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		AsyncBuffer:   config.DefaultAuditAsyncBuffer,
		WriteTimeout:  config.DefaultAuditWriteTimeout,
		HashAlgorithm: signing.SHA256,
	}
}

// ConfigFromAudit maps the audit configuration section onto a recorder Config.
func ConfigFromAudit(cfg config.AuditConfig) *Config {
	return &Config{
		AsyncBuffer:   cfg.Recorder.AsyncBuffer,
		WriteTimeout:  cfg.Recorder.WriteTimeout,
		HashAlgorithm: cfg.Signing.HashAlg,
	}
}

// Recorder publishes evaluation reports as signed audit records. Records are
// built and sealed on the caller's goroutine and written asynchronously so
// Publish never blocks on storage.
type Recorder struct {
	storage    audit.Storage
	signer     signing.Signer
	config     *Config
	recordChan chan *audit.Record
	wg         sync.WaitGroup
	done       chan struct{}
	closed     atomic.Bool
	closeOnce  sync.Once
	logger     *slog.Logger
}

// NewRecorder creates a recorder writing to storage. A nil signer leaves
// records unsigned.
func NewRecorder(storage audit.Storage, signer signing.Signer, cfg *Config) *Recorder {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.AsyncBuffer < 1 {
		cfg.AsyncBuffer = config.DefaultAuditAsyncBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = config.DefaultAuditWriteTimeout
	}
	if cfg.HashAlgorithm == "" {
		cfg.HashAlgorithm = signing.SHA256
	}
	if signer == nil {
		signer = signing.NoneSigner{}
	}

	r := &Recorder{
		storage:    storage,
		signer:     signer,
		config:     cfg,
		recordChan: make(chan *audit.Record, cfg.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "audit.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("audit recorder initialized",
		"async_buffer", cfg.AsyncBuffer,
		"write_timeout", cfg.WriteTimeout,
		"hash_algorithm", cfg.HashAlgorithm,
		"signature_algorithm", signer.Algorithm(),
		"key_id", signing.KeyID(signer.PublicKey()),
	)

	return r
}

// Publish implements audit.Publisher. It seals a record for rep and enqueues
// it without waiting: a full buffer drops the record with ErrBufferFull.
func (r *Recorder) Publish(ctx context.Context, rep *report.Report) (audit.Receipt, error) {
	if r.closed.Load() {
		return audit.Receipt{}, audit.NewRecorderError("", ErrClosed)
	}

	record := audit.FromReport(rep)
	record.ID = uuid.New().String()
	record.RecordedAt = time.Now().UTC()

	if err := record.Seal(r.config.HashAlgorithm, r.signer); err != nil {
		r.outcome(OutcomeFailed)
		return audit.Receipt{}, audit.NewRecorderError(record.ID, err)
	}

	receipt := audit.Receipt{RecordID: record.ID, ContentHash: record.ContentHash}

	select {
	case r.recordChan <- record:
		r.logger.Debug("audit record enqueued",
			"record_id", record.ID,
			"evaluation_id", record.EvaluationID,
			"deferred", record.Deferred,
		)
		return receipt, nil
	case <-ctx.Done():
		r.outcome(OutcomeDropped)
		return audit.Receipt{}, audit.NewRecorderError(record.ID, ctx.Err())
	default:
		r.outcome(OutcomeDropped)
		r.logger.Error("audit channel full, dropping record",
			"record_id", record.ID,
			"evaluation_id", record.EvaluationID,
			"channel_capacity", r.config.AsyncBuffer,
		)
		return audit.Receipt{}, audit.NewRecorderError(record.ID, ErrBufferFull)
	}
}

// PublicKey returns the raw public key records are signed with.
func (r *Recorder) PublicKey() []byte {
	return r.signer.PublicKey()
}

// Pending returns the number of records waiting to be written.
func (r *Recorder) Pending() int {
	return len(r.recordChan)
}

// Close stops accepting records, drains the channel and waits for pending
// writes to complete. Safe to call more than once.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.logger.Info("shutting down audit recorder")
		r.closed.Store(true)
		close(r.done)
		r.wg.Wait()
		r.logger.Info("audit recorder shut down complete")
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)

		case <-r.done:
			r.logger.Info("draining audit channel before shutdown",
				"pending_count", len(r.recordChan),
			)

			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					r.logger.Info("audit channel drained")
					return
				}
			}
		}
	}
}

func (r *Recorder) writeRecord(record *audit.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()

	if err := r.storage.Store(ctx, record); err != nil {
		r.outcome(OutcomeFailed)
		r.logger.Error("failed to store audit record",
			"record_id", record.ID,
			"evaluation_id", record.EvaluationID,
			"error", err,
		)
		return
	}
	r.outcome(OutcomeStored)

	duration := time.Since(start)

	r.logger.Debug("audit record stored",
		"record_id", record.ID,
		"evaluation_id", record.EvaluationID,
		"state", record.State,
		"duration_ms", duration.Milliseconds(),
	)

	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow audit write",
			"record_id", record.ID,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}

func (r *Recorder) outcome(o string) {
	if r.config.OnOutcome != nil {
		r.config.OnOutcome(o)
	}
}
