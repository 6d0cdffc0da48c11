package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BeginRun records a new run rooted at root and returns its ID.
func (s *Store) BeginRun(root string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(
		"INSERT INTO runs (id, root, started_at) VALUES (?, ?, ?)",
		id, root, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("store: begin run: %w", err)
	}
	return id, nil
}

// CommitFile inserts all buffered rows of batch within a single
// transaction. The file row goes first so child rows can reference its
// real ID.
func (s *Store) CommitFile(batch *FileBatch) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: commit file: begin: %w", err)
	}
	defer tx.Rollback()

	f := batch.File
	res, err := tx.Exec(
		"INSERT INTO files (run_id, path, name, language, hash, call_count) VALUES (?, ?, ?, ?, ?, ?)",
		batch.RunID, f.Path, f.Name, f.Language, f.Hash, len(batch.CallSites),
	)
	if err != nil {
		return 0, fmt.Errorf("store: commit file %s: %w", f.Path, err)
	}
	fileID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: commit file %s: last insert id: %w", f.Path, err)
	}

	if err := insertDependenciesTx(tx, fileID, batch.Dependencies); err != nil {
		return 0, fmt.Errorf("store: commit file %s: %w", f.Path, err)
	}
	if err := insertCallSitesTx(tx, fileID, batch.CallSites); err != nil {
		return 0, fmt.Errorf("store: commit file %s: %w", f.Path, err)
	}
	if err := insertFindingsTx(tx, fileID, batch.Findings); err != nil {
		return 0, fmt.Errorf("store: commit file %s: %w", f.Path, err)
	}

	if _, err := tx.Exec(
		`UPDATE runs SET file_count = file_count + 1,
			call_count = call_count + ?,
			finding_count = finding_count + ?
		 WHERE id = ?`,
		len(batch.CallSites), len(batch.Findings), batch.RunID,
	); err != nil {
		return 0, fmt.Errorf("store: commit file %s: update run: %w", f.Path, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit file %s: %w", f.Path, err)
	}
	batch.File.ID = fileID
	return fileID, nil
}

// FinishRun stores the run's global ranking and marks it finished.
func (s *Store) FinishRun(runID string, ranking []RankedCall) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: finish run: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT INTO rankings (run_id, rank, name, count) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("store: finish run: %w", err)
	}
	defer stmt.Close()
	for _, rc := range ranking {
		if _, err := stmt.Exec(runID, rc.Rank, rc.Name, rc.Count); err != nil {
			return fmt.Errorf("store: finish run: ranking %q: %w", rc.Name, err)
		}
	}

	res, err := tx.Exec("UPDATE runs SET finished_at = ? WHERE id = ?", time.Now().UTC(), runID)
	if err != nil {
		return fmt.Errorf("store: finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: finish run: unknown run %s", runID)
	}
	return tx.Commit()
}

func insertDependenciesTx(tx *sql.Tx, fileID int64, deps []string) error {
	if len(deps) == 0 {
		return nil
	}
	stmt, err := tx.Prepare("INSERT INTO dependencies (file_id, name) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("dependencies: %w", err)
	}
	defer stmt.Close()
	for _, d := range deps {
		if _, err := stmt.Exec(fileID, d); err != nil {
			return fmt.Errorf("dependency %q: %w", d, err)
		}
	}
	return nil
}

func insertCallSitesTx(tx *sql.Tx, fileID int64, calls []CallSite) error {
	if len(calls) == 0 {
		return nil
	}
	stmt, err := tx.Prepare("INSERT INTO call_sites (file_id, name, line) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("call sites: %w", err)
	}
	defer stmt.Close()
	for _, c := range calls {
		if _, err := stmt.Exec(fileID, c.Name, c.Line); err != nil {
			return fmt.Errorf("call site %q: %w", c.Name, err)
		}
	}
	return nil
}

func insertFindingsTx(tx *sql.Tx, fileID int64, findings []Finding) error {
	if len(findings) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(
		`INSERT INTO findings (file_id, kind, type, text, line, contains_exec, stored_procedure)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("findings: %w", err)
	}
	defer stmt.Close()
	for _, f := range findings {
		if _, err := stmt.Exec(fileID, f.Kind, f.Type, f.Text, f.Line, f.ContainsExec, f.StoredProcedure); err != nil {
			return fmt.Errorf("finding at line %d: %w", f.Line, err)
		}
	}
	return nil
}
