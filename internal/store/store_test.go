package store

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

// commitTestFile commits a small file with two calls and one finding.
func commitTestFile(t *testing.T, s *Store, runID, path string) *FileBatch {
	t.Helper()
	b := NewFileBatch(runID, path, filepath.Base(path), "csharp", ContentHash([]byte(path)))
	b.AddDependency("System")
	b.AddDependency("System.Data.SqlClient")
	b.AddCallSite("cmd.ExecuteReader", 4)
	b.AddCallSite("log.Info", 7)
	b.AddFinding(Finding{Kind: "explicit-call-argument", Type: "cmd.ExecuteReader", Text: "SELECT 1", Line: 4})
	id, err := s.CommitFile(b)
	require.NoError(t, err)
	require.Positive(t, id)
	return b
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range []string{"runs", "files", "dependencies", "call_sites", "findings", "rankings"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestMigrate_WALMode(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	var mode string
	err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	require.NoError(t, err)
	assert.Equal(t, "wal", mode)
}

// =============================================================================
// Runs
// =============================================================================

func TestRun_BeginAndFinish(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	id, err := s.BeginRun("/repo")
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	r, err := s.RunByID(id)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "/repo", r.Root)
	assert.False(t, r.Finished())
	assert.False(t, r.StartedAt.IsZero())

	require.NoError(t, s.FinishRun(id, []RankedCall{
		{Rank: 1, Name: "cmd.ExecuteReader", Count: 3},
		{Rank: 2, Name: "log.Info", Count: 1},
	}))

	r, err = s.RunByID(id)
	require.NoError(t, err)
	assert.True(t, r.Finished())

	ranking, err := s.RankingByRun(id)
	require.NoError(t, err)
	require.Len(t, ranking, 2)
	assert.Equal(t, RankedCall{Rank: 1, Name: "cmd.ExecuteReader", Count: 3}, *ranking[0])
	assert.Equal(t, "log.Info", ranking[1].Name)
}

func TestRun_FinishUnknown(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	err := s.FinishRun("no-such-run", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown run")
}

func TestRun_NotFound(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	r, err := s.RunByID("missing")
	require.NoError(t, err)
	assert.Nil(t, r)

	latest, err := s.LatestRun()
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestRun_ListNewestFirst(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	first, err := s.BeginRun("/a")
	require.NoError(t, err)
	second, err := s.BeginRun("/b")
	require.NoError(t, err)

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, first, runs[1].ID)

	latest, err := s.LatestRun()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second, latest.ID)
}

// =============================================================================
// Files
// =============================================================================

func TestCommitFile_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	runID, err := s.BeginRun("/src")
	require.NoError(t, err)

	b := commitTestFile(t, s, runID, "/src/Orders.cs")

	files, err := s.FilesByRun(runID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	f := files[0]
	assert.Equal(t, b.File.ID, f.ID)
	assert.Equal(t, "/src/Orders.cs", f.Path)
	assert.Equal(t, "Orders.cs", f.Name)
	assert.Equal(t, "csharp", f.Language)
	assert.Equal(t, ContentHash([]byte("/src/Orders.cs")), f.Hash)
	assert.Equal(t, 2, f.CallCount)

	deps, err := s.DependenciesByFile(f.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"System", "System.Data.SqlClient"}, deps)

	findings, err := s.FindingsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "SELECT 1", findings[0].Text)
	assert.Equal(t, 4, findings[0].Line)
	assert.Empty(t, findings[0].StoredProcedure)

	r, err := s.RunByID(runID)
	require.NoError(t, err)
	assert.Equal(t, 1, r.FileCount)
	assert.Equal(t, 2, r.CallCount)
	assert.Equal(t, 1, r.FindingCount)
}

func TestCommitFile_DuplicatePathRollsBack(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	runID, err := s.BeginRun("/src")
	require.NoError(t, err)

	commitTestFile(t, s, runID, "/src/Orders.cs")
	dup := NewFileBatch(runID, "/src/Orders.cs", "Orders.cs", "csharp", "")
	dup.AddCallSite("x.Execute", 1)
	_, err = s.CommitFile(dup)
	require.Error(t, err)

	r, err := s.RunByID(runID)
	require.NoError(t, err)
	assert.Equal(t, 1, r.FileCount)
	assert.Equal(t, 2, r.CallCount)
}

func TestCommitFile_SamePathAcrossRuns(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	run1, err := s.BeginRun("/src")
	require.NoError(t, err)
	run2, err := s.BeginRun("/src")
	require.NoError(t, err)

	commitTestFile(t, s, run1, "/src/Orders.cs")
	commitTestFile(t, s, run2, "/src/Orders.cs")

	for _, id := range []string{run1, run2} {
		files, err := s.FilesByRun(id)
		require.NoError(t, err)
		assert.Len(t, files, 1)
	}
}

func TestCommitFile_StoredProcedureFinding(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	runID, err := s.BeginRun("/src")
	require.NoError(t, err)

	b := NewFileBatch(runID, "/src/Users.cs", "Users.cs", "csharp", "")
	b.AddFinding(Finding{
		Kind: "constructor-argument", Type: "SqlCommand Constructor",
		Text: "EXEC sp_GetUser", Line: 9, ContainsExec: true,
	})
	b.AddFinding(Finding{
		Kind: "field-assignment", Type: "CommandText",
		Text: "sp_Purge @all", Line: 12, StoredProcedure: "sp_Purge",
	})
	id, err := s.CommitFile(b)
	require.NoError(t, err)

	findings, err := s.FindingsByFile(id)
	require.NoError(t, err)
	require.Len(t, findings, 2)
	assert.True(t, findings[0].ContainsExec)
	assert.Equal(t, "sp_Purge", findings[1].StoredProcedure)
	assert.Equal(t, "field-assignment", findings[1].Kind)
}

// =============================================================================
// Call sites
// =============================================================================

func TestCallSitesByName(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	runID, err := s.BeginRun("/src")
	require.NoError(t, err)

	commitTestFile(t, s, runID, "/src/A.cs")
	commitTestFile(t, s, runID, "/src/B.cs")

	sites, err := s.CallSitesByName(runID, "cmd.ExecuteReader")
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, "A.cs", sites[0].File)
	assert.Equal(t, "/src/B.cs", sites[1].Path)
	assert.Equal(t, 4, sites[1].Line)

	none, err := s.CallSitesByName(runID, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestContentHash(t *testing.T) {
	t.Parallel()
	a := ContentHash([]byte("SELECT 1"))
	assert.Len(t, a, 16)
	assert.Equal(t, a, ContentHash([]byte("SELECT 1")))
	assert.NotEqual(t, a, ContentHash([]byte("SELECT 2")))
}
