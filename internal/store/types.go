package store

import "time"

type Run struct {
	ID           string
	Root         string
	StartedAt    time.Time
	FinishedAt   *time.Time
	FileCount    int
	CallCount    int
	FindingCount int
}

// Finished reports whether FinishRun was recorded for the run.
func (r *Run) Finished() bool { return r.FinishedAt != nil }

type File struct {
	ID        int64
	RunID     string
	Path      string
	Name      string
	Language  string
	Hash      string
	CallCount int
}

type CallSite struct {
	ID     int64
	FileID int64
	Name   string
	Line   int
}

// CallSiteRow is a CallSite joined with its file, as returned by
// CallSitesByName.
type CallSiteRow struct {
	CallSite
	Path string
	File string
}

type Finding struct {
	ID              int64
	FileID          int64
	Kind            string
	Type            string
	Text            string
	Line            int
	ContainsExec    bool
	StoredProcedure string
}

type RankedCall struct {
	Rank  int
	Name  string
	Count int
}
