package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"cocorels-hq/kernel/pkg/audit"
	"cocorels-hq/kernel/pkg/config"
)

// Supported database/sql driver names.
const (
	// DriverCGO is github.com/mattn/go-sqlite3.
	DriverCGO = "sqlite3"
	// DriverPure is modernc.org/sqlite.
	DriverPure = "sqlite"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver selects the database/sql driver: DriverCGO or DriverPure.
	// Default: DriverCGO
	Driver string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// JournalMode is applied with PRAGMA journal_mode. Empty leaves the
	// database default.
	// Default: "WAL"
	JournalMode string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         config.DefaultAuditSQLitePath,
		Driver:       DriverCGO,
		MaxOpenConns: config.DefaultAuditSQLiteMaxOpen,
		MaxIdleConns: config.DefaultAuditSQLiteMaxIdle,
		JournalMode:  config.DefaultAuditSQLiteJournalMode,
		BusyTimeout:  config.DefaultAuditSQLiteBusyTimeout,
	}
}

// SQLiteConfigFrom maps the audit.sqlite configuration section.
func SQLiteConfigFrom(cfg config.SQLiteConfig) *SQLiteConfig {
	return &SQLiteConfig{
		Path:         cfg.Path,
		Driver:       cfg.Driver,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
		JournalMode:  cfg.JournalMode,
		BusyTimeout:  cfg.BusyTimeout,
	}
}

// SQLiteStorage implements audit.Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens the database, applies the PRAGMAs and creates the
// schema.
func NewSQLiteStorage(cfg *SQLiteConfig) (*SQLiteStorage, error) {
	if cfg == nil {
		cfg = DefaultSQLiteConfig()
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverCGO
	}
	if cfg.Driver != DriverCGO && cfg.Driver != DriverPure {
		return nil, audit.NewStorageError("sqlite", "open", fmt.Errorf("unknown driver %q", cfg.Driver))
	}

	logger := slog.Default().With("component", "audit.storage.sqlite")

	db, err := sql.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "open", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	s := &SQLiteStorage{
		db:     db,
		config: cfg,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", cfg.Path,
		"driver", cfg.Driver,
		"journal_mode", cfg.JournalMode,
		"max_open_conns", cfg.MaxOpenConns,
	)

	return s, nil
}

func (s *SQLiteStorage) initialize() error {
	if s.config.JournalMode != "" {
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA journal_mode=%s;", s.config.JournalMode)); err != nil {
			return audit.NewStorageError("sqlite", "set_journal_mode", err)
		}
	}

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return audit.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return audit.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return audit.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return audit.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return audit.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Store inserts record. Records are immutable: an existing ID fails.
func (s *SQLiteStorage) Store(ctx context.Context, record *audit.Record) error {
	scores, err := json.Marshal(record.Scores)
	if err != nil {
		return audit.NewStorageError("sqlite", "store", err)
	}
	defaulted, err := json.Marshal(record.Defaulted)
	if err != nil {
		return audit.NewStorageError("sqlite", "store", err)
	}

	query := `INSERT INTO audit_records (` + columns + `) VALUES (
		?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
	)`

	_, err = s.db.ExecContext(ctx, query,
		record.ID, record.EvaluationID,
		toNanos(record.StartedAt), toNanos(record.CompletedAt), toNanos(record.RecordedAt),
		record.ActionSignature, record.DilemmaHash, record.CriterionCode,
		record.Path, record.RouteReason, record.State, record.Deferred, record.FallbackReason,
		string(scores), string(defaulted),
		record.Conflicts, record.MCDA, record.Balance, record.MomentumAfter,
		record.ContentHash, record.HashAlgorithm, record.SignatureAlgorithm, record.KeyID, record.Signature,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return audit.NewStorageError("sqlite", "store", fmt.Errorf("%w: %s", audit.ErrDuplicateRecord, record.ID))
		}
		return audit.NewStorageError("sqlite", "store", err)
	}

	return nil
}

// Query retrieves records matching the query filters.
func (s *SQLiteStorage) Query(ctx context.Context, query *audit.Query) ([]*audit.Record, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT " + columns + " FROM audit_records"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	sortBy := "recorded_at"
	if sortableColumns[query.SortBy] {
		sortBy = query.SortBy
	}
	sortOrder := "DESC"
	if strings.EqualFold(query.SortOrder, "asc") {
		sortOrder = "ASC"
	}
	sqlQuery += fmt.Sprintf(" ORDER BY %s %s", sortBy, sortOrder)

	limit := 100
	if query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	records := []*audit.Record{}
	for rows.Next() {
		record, err := scanRow(rows)
		if err != nil {
			return nil, audit.NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, audit.NewStorageError("sqlite", "query", err)
	}

	return records, nil
}

// Count returns the number of records matching the query filters.
func (s *SQLiteStorage) Count(ctx context.Context, query *audit.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM audit_records"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, audit.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes records matching the query filters.
func (s *SQLiteStorage) Delete(ctx context.Context, query *audit.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "DELETE FROM audit_records"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, audit.NewStorageError("sqlite", "delete", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, audit.NewStorageError("sqlite", "delete", err)
	}
	return count, nil
}

// Close releases the database handle.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return audit.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite storage closed")
	return nil
}

var sortableColumns = map[string]bool{
	"recorded_at": true,
	"mcda":        true,
	"balance":     true,
}

// buildWhereClause builds a WHERE clause (without the keyword) and its
// arguments from the query filters.
func buildWhereClause(query *audit.Query) (string, []any) {
	var conditions []string
	var args []any

	if query.StartTime != nil {
		conditions = append(conditions, "recorded_at >= ?")
		args = append(args, toNanos(*query.StartTime))
	}
	if query.EndTime != nil {
		conditions = append(conditions, "recorded_at <= ?")
		args = append(args, toNanos(*query.EndTime))
	}
	if query.EvaluationID != "" {
		conditions = append(conditions, "evaluation_id = ?")
		args = append(args, query.EvaluationID)
	}
	if query.DilemmaHash != "" {
		conditions = append(conditions, "dilemma_hash = ?")
		args = append(args, query.DilemmaHash)
	}
	if query.Path != "" {
		conditions = append(conditions, "path = ?")
		args = append(args, query.Path)
	}
	if query.State != "" {
		conditions = append(conditions, "state = ?")
		args = append(args, query.State)
	}
	if query.Deferred != nil {
		conditions = append(conditions, "deferred = ?")
		args = append(args, *query.Deferred)
	}
	if query.MaxMCDA != nil {
		conditions = append(conditions, "mcda <= ?")
		args = append(args, *query.MaxMCDA)
	}

	return strings.Join(conditions, " AND "), args
}

func scanRow(row *sql.Rows) (*audit.Record, error) {
	var record audit.Record
	var startedAt, completedAt, recordedAt int64
	var fallback, keyID sql.NullString
	var scores string
	var defaulted sql.NullString

	err := row.Scan(
		&record.ID, &record.EvaluationID, &startedAt, &completedAt, &recordedAt,
		&record.ActionSignature, &record.DilemmaHash, &record.CriterionCode,
		&record.Path, &record.RouteReason, &record.State, &record.Deferred, &fallback, &scores, &defaulted,
		&record.Conflicts, &record.MCDA, &record.Balance, &record.MomentumAfter,
		&record.ContentHash, &record.HashAlgorithm, &record.SignatureAlgorithm, &keyID, &record.Signature,
	)
	if err != nil {
		return nil, err
	}

	record.StartedAt = fromNanos(startedAt)
	record.CompletedAt = fromNanos(completedAt)
	record.RecordedAt = fromNanos(recordedAt)
	record.FallbackReason = fallback.String
	record.KeyID = keyID.String

	if err := json.Unmarshal([]byte(scores), &record.Scores); err != nil {
		return nil, fmt.Errorf("invalid scores column: %w", err)
	}
	if defaulted.Valid && defaulted.String != "" {
		if err := json.Unmarshal([]byte(defaulted.String), &record.Defaulted); err != nil {
			return nil, fmt.Errorf("invalid defaulted column: %w", err)
		}
	}

	return &record, nil
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
