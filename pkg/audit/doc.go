// Package audit is the kernel's audit boundary. Every completed evaluation,
// including slow-path results that finish after their caller has timed out,
// can be published as an immutable, signed audit record.
//
// # Architecture
//
//  1. Recorder - turns reports into records, signs them, writes asynchronously
//  2. Storage - persists records (SQLite or memory)
//  3. Retention - prunes records older than the retention period on a cron schedule
//
// # Recording Flow
//
//	Evaluate → Report
//	     ↓
//	Recorder.Publish (non-blocking)
//	     ↓
//	Canonical content → digest (sha256 | sha512 | sha3-256)
//	     ↓
//	Signature (ed25519 | dilithium3)
//	     ↓
//	Async channel → Storage.Store
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
//	    Path:   "data/audit.db",
//	    Driver: "sqlite3",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	signer, _ := signing.Generate(signing.Ed25519)
//	rec := recorder.NewRecorder(store, signer, nil)
//	defer rec.Close()
//
// Publishing never fails an evaluation: the kernel logs and drops records the
// recorder cannot accept.
package audit
