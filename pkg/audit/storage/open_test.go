package storage

import (
	"path/filepath"
	"testing"

	"cocorels-hq/kernel/pkg/config"
)

// TestOpen tests backend selection from the audit configuration.
func TestOpen(t *testing.T) {
	cfg := config.Default().Audit

	cfg.Backend = BackendMemory
	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open(memory) error = %v", err)
	}
	if _, ok := s.(*MemoryStorage); !ok {
		t.Errorf("Open(memory) = %T, want *MemoryStorage", s)
	}
	s.Close()

	cfg.Backend = BackendSQLite
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "audit.db")
	s, err = Open(cfg)
	if err != nil {
		t.Fatalf("Open(sqlite) error = %v", err)
	}
	if _, ok := s.(*SQLiteStorage); !ok {
		t.Errorf("Open(sqlite) = %T, want *SQLiteStorage", s)
	}
	s.Close()

	cfg.Backend = "postgres"
	if _, err := Open(cfg); err == nil {
		t.Error("Open(postgres) should fail")
	}
}
