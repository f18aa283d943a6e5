package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the audit database schema.
// Timestamps are stored as Unix nanoseconds so both drivers round-trip them
// identically.
const Schema = `
-- Audit records table
CREATE TABLE IF NOT EXISTS audit_records (
    id TEXT PRIMARY KEY,
    evaluation_id TEXT NOT NULL,

    -- Timestamps (unix nanoseconds, UTC)
    started_at INTEGER NOT NULL,
    completed_at INTEGER NOT NULL,
    recorded_at INTEGER NOT NULL,

    -- Dilemma
    action_signature TEXT NOT NULL,
    dilemma_hash TEXT NOT NULL,
    criterion_code INTEGER NOT NULL,

    -- Outcome
    path TEXT NOT NULL,
    route_reason TEXT NOT NULL,
    state TEXT NOT NULL,
    deferred BOOLEAN NOT NULL,
    fallback_reason TEXT,
    scores TEXT NOT NULL,
    defaulted TEXT,
    conflicts INTEGER NOT NULL,
    mcda REAL NOT NULL,
    balance REAL NOT NULL,
    momentum_after REAL NOT NULL,

    -- Integrity
    content_hash TEXT NOT NULL,
    hash_algorithm TEXT NOT NULL,
    signature_algorithm TEXT NOT NULL,
    key_id TEXT,
    signature BLOB
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_audit_recorded_at ON audit_records(recorded_at);
CREATE INDEX IF NOT EXISTS idx_audit_evaluation_id ON audit_records(evaluation_id);
CREATE INDEX IF NOT EXISTS idx_audit_dilemma_hash ON audit_records(dilemma_hash);
CREATE INDEX IF NOT EXISTS idx_audit_state ON audit_records(state);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

// columns lists audit_records columns in scan order.
const columns = `id, evaluation_id, started_at, completed_at, recorded_at,
	action_signature, dilemma_hash, criterion_code,
	path, route_reason, state, deferred, fallback_reason, scores, defaulted,
	conflicts, mcda, balance, momentum_after,
	content_hash, hash_algorithm, signature_algorithm, key_id, signature`
