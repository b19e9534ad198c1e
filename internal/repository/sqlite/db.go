package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS processing_runs (
	id               TEXT PRIMARY KEY,
	batch_id         TEXT NOT NULL,
	schema_name      TEXT NOT NULL DEFAULT '',
	output_directory TEXT NOT NULL DEFAULT '',
	state            TEXT NOT NULL,
	total_documents  INTEGER NOT NULL DEFAULT 0,
	success_count    INTEGER NOT NULL DEFAULT 0,
	failure_count    INTEGER NOT NULL DEFAULT 0,
	total_pages      INTEGER NOT NULL DEFAULT 0,
	started_at       TIMESTAMP NOT NULL,
	completed_at     TIMESTAMP NOT NULL,
	duration_millis  INTEGER NOT NULL DEFAULT 0,
	error_summary    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_processing_runs_batch ON processing_runs (batch_id);
CREATE INDEX IF NOT EXISTS idx_processing_runs_completed ON processing_runs (completed_at);
`

// NewDB opens (creating if needed) the embedded history database at path and
// ensures its schema exists.
func NewDB(path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s: %w", path, err)
	}
	// The driver serializes access itself; a single connection avoids
	// SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}
	return db, nil
}
