package main

import (
	"time"

	"github.com/jward/sqlsift"
	"github.com/jward/sqlsift/internal/store"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIAnalysis is the result of the analyze command.
type CLIAnalysis struct {
	RunID      string           `json:"run_id,omitempty"`
	Root       string           `json:"root"`
	Files      []CLIFileReport  `json:"files"`
	Ranking    []CLIRankedCall  `json:"ranking"`
	TotalCalls int              `json:"total_calls"`
	Skipped    []CLISkippedFile `json:"skipped,omitempty"`
}

// CLIFileReport is a JSON-friendly per-file report.
type CLIFileReport struct {
	Name         string         `json:"name"`
	Path         string         `json:"path"`
	Dependencies []string       `json:"dependencies"`
	CallCount    int            `json:"call_count"`
	TopCalls     []CLICallGroup `json:"top_calls"`
	Findings     []CLIFinding   `json:"findings"`
}

type CLICallGroup struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CLIFinding is one piece of SQL text found at an execution point.
type CLIFinding struct {
	Kind            string `json:"kind"`
	Type            string `json:"type"`
	Line            int    `json:"line"`
	Text            string `json:"text"`
	Excerpt         string `json:"excerpt"`
	Truncated       bool   `json:"truncated,omitempty"`
	ContainsExec    bool   `json:"contains_exec"`
	StoredProcedure string `json:"stored_procedure,omitempty"`
}

// CLIRankedCall is one entry of the global ranking. Examples is empty when
// the ranking is read back from the store.
type CLIRankedCall struct {
	Rank      int           `json:"rank"`
	Name      string        `json:"name"`
	Count     int           `json:"count"`
	Examples  []CLICallSite `json:"examples,omitempty"`
	Remaining int           `json:"remaining,omitempty"`
}

type CLICallSite struct {
	File string `json:"file"`
	Path string `json:"path,omitempty"`
	Line int    `json:"line"`
}

type CLISkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// CLIRun is a JSON-friendly stored run.
type CLIRun struct {
	ID           string     `json:"id"`
	Root         string     `json:"root"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	FileCount    int        `json:"file_count"`
	CallCount    int        `json:"call_count"`
	FindingCount int        `json:"finding_count"`
}

func analysisToCLI(res *sqlsift.Result) CLIAnalysis {
	out := CLIAnalysis{
		RunID:      res.RunID,
		Root:       res.Root,
		Files:      make([]CLIFileReport, 0, len(res.Files)),
		Ranking:    make([]CLIRankedCall, 0, len(res.Ranking)),
		TotalCalls: res.TotalCalls,
	}
	for _, f := range res.Files {
		out.Files = append(out.Files, fileReportToCLI(f))
	}
	for i, rc := range res.Ranking {
		c := CLIRankedCall{Rank: i + 1, Name: rc.Name, Count: rc.Count, Remaining: rc.Remaining}
		for _, ex := range rc.Examples {
			c.Examples = append(c.Examples, CLICallSite{File: ex.File, Path: ex.Path, Line: ex.Line})
		}
		out.Ranking = append(out.Ranking, c)
	}
	for _, s := range res.Skipped {
		out.Skipped = append(out.Skipped, CLISkippedFile{Path: s.Path, Reason: s.Reason})
	}
	return out
}

func fileReportToCLI(f sqlsift.FileReport) CLIFileReport {
	out := CLIFileReport{
		Name:         f.Name,
		Path:         f.Path,
		Dependencies: f.Dependencies,
		CallCount:    f.CallCount,
		TopCalls:     make([]CLICallGroup, 0, len(f.TopCalls)),
		Findings:     make([]CLIFinding, 0, len(f.Findings)),
	}
	if out.Dependencies == nil {
		out.Dependencies = []string{}
	}
	for _, g := range f.TopCalls {
		out.TopCalls = append(out.TopCalls, CLICallGroup{Name: g.Name, Count: g.Count})
	}
	for _, rf := range f.Findings {
		out.Findings = append(out.Findings, CLIFinding{
			Kind:            string(rf.Kind),
			Type:            rf.Type,
			Line:            rf.Line,
			Text:            rf.Text,
			Excerpt:         rf.Excerpt,
			Truncated:       rf.Truncated,
			ContainsExec:    rf.ContainsExec,
			StoredProcedure: rf.StoredProcedure,
		})
	}
	return out
}

func runToCLI(r *store.Run) CLIRun {
	return CLIRun{
		ID:           r.ID,
		Root:         r.Root,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		FileCount:    r.FileCount,
		CallCount:    r.CallCount,
		FindingCount: r.FindingCount,
	}
}
