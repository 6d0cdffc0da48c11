// Package store persists analysis runs to SQLite so results can be queried
// after the fact.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite export sink for analysis runs.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS runs (
  id              TEXT PRIMARY KEY,
  root            TEXT NOT NULL,
  started_at      TIMESTAMP NOT NULL,
  finished_at     TIMESTAMP,
  file_count      INTEGER DEFAULT 0,
  call_count      INTEGER DEFAULT 0,
  finding_count   INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  run_id          TEXT NOT NULL REFERENCES runs(id),
  path            TEXT NOT NULL,
  name            TEXT NOT NULL,
  language        TEXT NOT NULL,
  hash            TEXT,
  call_count      INTEGER DEFAULT 0,
  UNIQUE (run_id, path)
);

CREATE TABLE IF NOT EXISTS dependencies (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id),
  name            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS call_sites (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id),
  name            TEXT NOT NULL,
  line            INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS findings (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id),
  kind            TEXT NOT NULL,
  type            TEXT NOT NULL,
  text            TEXT NOT NULL,
  line            INTEGER NOT NULL,
  contains_exec   BOOLEAN DEFAULT FALSE,
  stored_procedure TEXT
);

CREATE TABLE IF NOT EXISTS rankings (
  id              INTEGER PRIMARY KEY,
  run_id          TEXT NOT NULL REFERENCES runs(id),
  rank            INTEGER NOT NULL,
  name            TEXT NOT NULL,
  count           INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_run ON files(run_id);
CREATE INDEX IF NOT EXISTS idx_dependencies_file ON dependencies(file_id);
CREATE INDEX IF NOT EXISTS idx_call_sites_file ON call_sites(file_id);
CREATE INDEX IF NOT EXISTS idx_call_sites_name ON call_sites(name);
CREATE INDEX IF NOT EXISTS idx_findings_file ON findings(file_id);
CREATE INDEX IF NOT EXISTS idx_rankings_run ON rankings(run_id);
`
