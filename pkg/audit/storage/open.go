package storage

import (
	"fmt"

	"cocorels-hq/kernel/pkg/audit"
	"cocorels-hq/kernel/pkg/config"
)

// Audit backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Open creates the backend named by cfg.Backend.
func Open(cfg config.AuditConfig) (audit.Storage, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStorage(), nil
	case BackendSQLite, "":
		return NewSQLiteStorage(SQLiteConfigFrom(cfg.SQLite))
	default:
		return nil, fmt.Errorf("unsupported audit backend: %s", cfg.Backend)
	}
}
