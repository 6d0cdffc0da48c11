// Package analysis is the core of sqlsift: it scans one file's syntax tree
// for dependencies, call sites and constant SQL text, summarizes the file,
// and aggregates call sites across files.
package analysis

import "sort"

// CallSite is one invocation found in a file.
type CallSite struct {
	Name string // canonical call name
	File string // display name
	Path string
	Line int // 1-based
}

// FindingKind says which extraction rule produced a Finding.
type FindingKind string

const (
	CallArgument        FindingKind = "explicit-call-argument"
	FieldAssignment     FindingKind = "field-assignment"
	ConstructorArgument FindingKind = "constructor-argument"
)

// Type tags used for findings that are not tagged with a call name.
const (
	CommandTextType = "CommandText"
	ConstructorType = "SqlCommand Constructor"
)

// Finding is a constant string that reached a query-shaped sink.
type Finding struct {
	Kind FindingKind
	Type string
	Text string
	Line int
}

// DependencySet is a deduplicated set of dependency names.
type DependencySet map[string]struct{}

func (d DependencySet) Add(name string) { d[name] = struct{}{} }

func (d DependencySet) Has(name string) bool {
	_, ok := d[name]
	return ok
}

// Sorted returns the names in lexicographic order.
func (d DependencySet) Sorted() []string {
	out := make([]string, 0, len(d))
	for name := range d {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// FileScan is everything the Scanner found in one file.
type FileScan struct {
	Name         string
	Path         string
	Dependencies DependencySet
	Calls        []CallSite
	Findings     []Finding
}
