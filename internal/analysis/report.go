package analysis

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Report defaults.
const (
	DefaultTopCalls     = 5
	DefaultExcerptRunes = 100
	TruncationMarker    = "..."
)

// CallGroup is a canonical call name with its number of call sites.
type CallGroup struct {
	Name  string
	Count int
}

// ReportedFinding is a Finding annotated for review.
type ReportedFinding struct {
	Finding
	Excerpt         string
	Truncated       bool
	ContainsExec    bool
	StoredProcedure string // empty unless the text starts with sp_
}

// FileReport summarizes one file.
type FileReport struct {
	Name         string
	Path         string
	Dependencies []string
	CallCount    int
	TopCalls     []CallGroup
	Findings     []ReportedFinding
}

// Reporter turns a FileScan into a FileReport.
type Reporter struct {
	TopCalls     int
	ExcerptRunes int
}

// NewReporter returns a Reporter with the default limits.
func NewReporter() *Reporter {
	return &Reporter{TopCalls: DefaultTopCalls, ExcerptRunes: DefaultExcerptRunes}
}

// Report builds the file summary. Dependencies are sorted; call groups are
// ranked by descending count with ties kept in first-encountered order.
func (r *Reporter) Report(scan *FileScan) FileReport {
	rep := FileReport{
		Name:         scan.Name,
		Path:         scan.Path,
		Dependencies: scan.Dependencies.Sorted(),
		CallCount:    len(scan.Calls),
		TopCalls:     GroupCalls(scan.Calls, r.TopCalls),
	}
	for _, f := range scan.Findings {
		excerpt, truncated := Truncate(f.Text, r.ExcerptRunes)
		proc, _ := StoredProcedure(f.Text)
		rep.Findings = append(rep.Findings, ReportedFinding{
			Finding:         f,
			Excerpt:         excerpt,
			Truncated:       truncated,
			ContainsExec:    ContainsExec(f.Text),
			StoredProcedure: proc,
		})
	}
	return rep
}

// GroupCalls counts calls per canonical name and returns the top limit
// groups. A limit <= 0 returns every group.
func GroupCalls(calls []CallSite, limit int) []CallGroup {
	index := make(map[string]int)
	var groups []CallGroup
	for _, c := range calls {
		i, ok := index[c.Name]
		if !ok {
			i = len(groups)
			index[c.Name] = i
			groups = append(groups, CallGroup{Name: c.Name})
		}
		groups[i].Count++
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}
	return groups
}

// Truncate returns the first n runes of s followed by TruncationMarker when s
// is longer than n runes.
func Truncate(s string, n int) (string, bool) {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s, false
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos] + TruncationMarker, true
		}
		i++
	}
	return s, false
}

// ContainsExec reports whether s mentions EXEC or EXECUTE in any case.
func ContainsExec(s string) bool {
	// EXECUTE contains EXEC, so one search covers both keywords.
	return strings.Contains(strings.ToUpper(s), "EXEC")
}

// StoredProcedure returns the procedure name when s starts with "sp_" in any
// case. The name ends at the first space or open parenthesis.
func StoredProcedure(s string) (string, bool) {
	if len(s) < 3 || !strings.EqualFold(s[:3], "sp_") {
		return "", false
	}
	if i := strings.IndexAny(s, " ("); i >= 0 {
		return s[:i], true
	}
	return s, true
}
