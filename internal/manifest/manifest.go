// Package manifest provides a SQLite-backed record of ingestion runs. Each
// run stores what was ingested and how it ended, so operators can audit when
// a source last entered the index and whether the index is behind the
// configured sources. The manifest is bookkeeping only: chunk ids are
// deterministic, and the vector store, not the manifest, is the source of
// truth for what is searchable.
package manifest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// Status is the terminal state of an ingestion run.
type Status string

const (
	// StatusCompleted means every chunk reached the vector store.
	StatusCompleted Status = "completed"
	// StatusFailed means the run stopped before all chunks were upserted.
	StatusFailed Status = "failed"
)

// Run is one recorded ingestion run.
type Run struct {
	// ID is the run's autoincrement id.
	ID int64
	// Collection is the vector store collection the run targeted.
	Collection string
	// Sources is the number of source files processed.
	Sources int
	// Documents is the number of page documents produced.
	Documents int
	// Chunks is the number of chunks upserted.
	Chunks int
	// Status is how the run ended.
	Status Status
	// Detail carries the failure message for failed runs.
	Detail string
	// StartedAt is when the run began.
	StartedAt time.Time
	// FinishedAt is when the run ended.
	FinishedAt time.Time
}

// Store records ingestion runs in a local SQLite database.
type Store struct {
	db *sql.DB
}

// DefaultDBPath returns the default path for the manifest database. It
// resolves to ~/.docq/manifest.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("manifest: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".docq")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("manifest: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "manifest.db"), nil
}

// Open opens (or creates) a manifest Store at the given path and runs the
// schema migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*Store, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *Store) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS runs (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    collection   TEXT    NOT NULL,
    sources      INTEGER NOT NULL,
    documents    INTEGER NOT NULL,
    chunks       INTEGER NOT NULL,
    status       TEXT    NOT NULL CHECK(status IN ('completed','failed')),
    detail       TEXT    NOT NULL DEFAULT '',
    started_at   INTEGER NOT NULL,  -- Unix timestamp (seconds)
    finished_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_collection_finished
    ON runs (collection, finished_at);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("manifest: migrate: %w", err)
	}
	return nil
}

// Record persists a finished run and returns its id.
func (s *Store) Record(ctx context.Context, r Run) (int64, error) {
	const q = `
INSERT INTO runs (collection, sources, documents, chunks, status, detail, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q,
		r.Collection, r.Sources, r.Documents, r.Chunks,
		string(r.Status), r.Detail, r.StartedAt.Unix(), r.FinishedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("manifest: record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("manifest: record id: %w", err)
	}
	return id, nil
}

// Recent returns the most recent n runs for the collection, newest-first.
// If fewer than n runs exist, all are returned.
func (s *Store) Recent(ctx context.Context, collection string, n int) ([]Run, error) {
	const q = `
SELECT id, collection, sources, documents, chunks, status, detail, started_at, finished_at
FROM   runs
WHERE  collection = ?
ORDER  BY finished_at DESC, id DESC
LIMIT  ?`

	rows, err := s.db.QueryContext(ctx, q, collection, n)
	if err != nil {
		return nil, fmt.Errorf("manifest: recent: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var status string
		var started, finished int64
		if err := rows.Scan(&r.ID, &r.Collection, &r.Sources, &r.Documents, &r.Chunks, &status, &r.Detail, &started, &finished); err != nil {
			return nil, fmt.Errorf("manifest: recent scan: %w", err)
		}
		r.Status = Status(status)
		r.StartedAt = time.Unix(started, 0)
		r.FinishedAt = time.Unix(finished, 0)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("manifest: recent rows: %w", err)
	}
	return runs, nil
}

// LastCompleted returns the most recent completed run for the collection, or
// ok=false when the collection has never completed a run.
func (s *Store) LastCompleted(ctx context.Context, collection string) (Run, bool, error) {
	runs, err := s.Recent(ctx, collection, 50)
	if err != nil {
		return Run{}, false, err
	}
	for _, r := range runs {
		if r.Status == StatusCompleted {
			return r, true, nil
		}
	}
	return Run{}, false, nil
}

// Close releases the database connection pool.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("manifest: close: %w", err)
	}
	return nil
}
