package sqlsift

import (
	"github.com/jward/sqlsift/internal/analysis"
	"github.com/jward/sqlsift/internal/config"
	"github.com/jward/sqlsift/internal/store"
)

// Public aliases for the internal types that appear in the Engine API.

type Store = store.Store
type Run = store.Run
type Limits = config.Limits
type Policy = analysis.Policy
type CallSite = analysis.CallSite
type Finding = analysis.Finding
type FindingKind = analysis.FindingKind
type FileReport = analysis.FileReport
type ReportedFinding = analysis.ReportedFinding
type CallGroup = analysis.CallGroup
type RankedCall = analysis.RankedCall
type Aggregator = analysis.Aggregator

const (
	CallArgument        = analysis.CallArgument
	FieldAssignment     = analysis.FieldAssignment
	ConstructorArgument = analysis.ConstructorArgument
)

// Source is an in-memory file for AnalyzeSources.
type Source struct {
	Path    string
	Content []byte
}

// SkippedFile records a file that could not be read or parsed.
type SkippedFile struct {
	Path   string
	Reason string
}

// Result is the outcome of one analysis run.
type Result struct {
	// RunID identifies the run in the export store. Empty without a store.
	RunID string
	Root  string

	// Files holds one report per analyzed file, in discovery order.
	Files   []FileReport
	Skipped []SkippedFile

	// Ranking is the global call ranking across all Files.
	Ranking    []RankedCall
	TotalCalls int

	// Calls gives access to every recorded call site by name.
	Calls *Aggregator
}

// Findings returns the number of findings across all files.
func (r *Result) Findings() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Findings)
	}
	return n
}
