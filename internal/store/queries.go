package store

import (
	"database/sql"
	"fmt"
)

// --- Run operations ---

const runColumns = "id, root, started_at, finished_at, file_count, call_count, finding_count"

func scanRun(sc interface{ Scan(...any) error }) (*Run, error) {
	r := &Run{}
	var finished sql.NullTime
	if err := sc.Scan(&r.ID, &r.Root, &r.StartedAt, &finished, &r.FileCount, &r.CallCount, &r.FindingCount); err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return r, nil
}

// Runs returns all runs, newest first.
func (s *Store) Runs() ([]*Run, error) {
	rows, err := s.db.Query("SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("store: runs: %w", err)
	}
	defer rows.Close()
	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunByID returns the run with the given ID, or nil if none exists.
func (s *Store) RunByID(id string) (*Run, error) {
	r, err := scanRun(s.db.QueryRow("SELECT "+runColumns+" FROM runs WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: run by id: %w", err)
	}
	return r, nil
}

// LatestRun returns the most recently started run, or nil if the store is
// empty.
func (s *Store) LatestRun() (*Run, error) {
	r, err := scanRun(s.db.QueryRow("SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1"))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: latest run: %w", err)
	}
	return r, nil
}

// --- File operations ---

// FilesByRun returns the files of a run in commit order.
func (s *Store) FilesByRun(runID string) ([]*File, error) {
	rows, err := s.db.Query(
		"SELECT id, run_id, path, name, language, hash, call_count FROM files WHERE run_id = ? ORDER BY id", runID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: files by run: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f := &File{}
		if err := rows.Scan(&f.ID, &f.RunID, &f.Path, &f.Name, &f.Language, &f.Hash, &f.CallCount); err != nil {
			return nil, fmt.Errorf("store: scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (s *Store) DependenciesByFile(fileID int64) ([]string, error) {
	rows, err := s.db.Query("SELECT name FROM dependencies WHERE file_id = ? ORDER BY name", fileID)
	if err != nil {
		return nil, fmt.Errorf("store: dependencies by file: %w", err)
	}
	defer rows.Close()
	var deps []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("store: scan dependency: %w", err)
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

// --- Call site operations ---

// CallSitesByName returns every call site of name in a run, in file commit
// order then line order.
func (s *Store) CallSitesByName(runID, name string) ([]*CallSiteRow, error) {
	rows, err := s.db.Query(
		`SELECT c.id, c.file_id, c.name, c.line, f.path, f.name
		 FROM call_sites c JOIN files f ON f.id = c.file_id
		 WHERE f.run_id = ? AND c.name = ?
		 ORDER BY f.id, c.id`,
		runID, name,
	)
	if err != nil {
		return nil, fmt.Errorf("store: call sites by name: %w", err)
	}
	defer rows.Close()
	var out []*CallSiteRow
	for rows.Next() {
		c := &CallSiteRow{}
		if err := rows.Scan(&c.ID, &c.FileID, &c.Name, &c.Line, &c.Path, &c.File); err != nil {
			return nil, fmt.Errorf("store: scan call site: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- Finding operations ---

// FindingsByFile returns a file's findings in report order.
func (s *Store) FindingsByFile(fileID int64) ([]*Finding, error) {
	rows, err := s.db.Query(
		`SELECT id, file_id, kind, type, text, line, contains_exec, COALESCE(stored_procedure, '')
		 FROM findings WHERE file_id = ? ORDER BY id`,
		fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: findings by file: %w", err)
	}
	defer rows.Close()
	var out []*Finding
	for rows.Next() {
		f := &Finding{}
		if err := rows.Scan(&f.ID, &f.FileID, &f.Kind, &f.Type, &f.Text, &f.Line, &f.ContainsExec, &f.StoredProcedure); err != nil {
			return nil, fmt.Errorf("store: scan finding: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// --- Ranking operations ---

// RankingByRun returns the stored global ranking of a run, best first.
func (s *Store) RankingByRun(runID string) ([]*RankedCall, error) {
	rows, err := s.db.Query("SELECT rank, name, count FROM rankings WHERE run_id = ? ORDER BY rank", runID)
	if err != nil {
		return nil, fmt.Errorf("store: ranking by run: %w", err)
	}
	defer rows.Close()
	var out []*RankedCall
	for rows.Next() {
		rc := &RankedCall{}
		if err := rows.Scan(&rc.Rank, &rc.Name, &rc.Count); err != nil {
			return nil, fmt.Errorf("store: scan ranking: %w", err)
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}
