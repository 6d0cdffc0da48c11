package analysis

import "sort"

// Ranking defaults.
const (
	DefaultRankingLimit = 20
	DefaultExamples     = 5
)

// Aggregator buckets call sites by canonical name across files. It is not
// safe for concurrent use; the engine owns one from a single goroutine.
type Aggregator struct {
	buckets map[string][]CallSite
	order   []string // first-seen order of names
	total   int
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{buckets: make(map[string][]CallSite)}
}

// Add appends sites to their buckets, creating buckets on first use.
func (a *Aggregator) Add(sites ...CallSite) {
	for _, s := range sites {
		b, ok := a.buckets[s.Name]
		if !ok {
			a.order = append(a.order, s.Name)
		}
		a.buckets[s.Name] = append(b, s)
		a.total++
	}
}

// Merge appends every call site of scan in discovery order.
func (a *Aggregator) Merge(scan *FileScan) {
	a.Add(scan.Calls...)
}

// Count returns the number of sites recorded under name.
func (a *Aggregator) Count(name string) int {
	return len(a.buckets[name])
}

// Sites returns a copy of the bucket for name in insertion order.
func (a *Aggregator) Sites(name string) []CallSite {
	return append([]CallSite(nil), a.buckets[name]...)
}

// Names returns every canonical name in first-seen order.
func (a *Aggregator) Names() []string {
	return append([]string(nil), a.order...)
}

// Total returns the number of call sites across all buckets.
func (a *Aggregator) Total() int {
	return a.total
}

// RankedCall is one entry of the global ranking.
type RankedCall struct {
	Name      string
	Count     int
	Examples  []CallSite
	Remaining int
}

// Ranking orders names by descending count, breaking ties by name, and keeps
// the top limit entries with up to examples call sites each. Non-positive
// limit or examples mean no cap.
func (a *Aggregator) Ranking(limit, examples int) []RankedCall {
	names := a.Names()
	sort.SliceStable(names, func(i, j int) bool {
		ci, cj := len(a.buckets[names[i]]), len(a.buckets[names[j]])
		if ci != cj {
			return ci > cj
		}
		return names[i] < names[j]
	})
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}

	out := make([]RankedCall, 0, len(names))
	for _, name := range names {
		sites := a.buckets[name]
		n := len(sites)
		if examples > 0 && n > examples {
			n = examples
		}
		out = append(out, RankedCall{
			Name:      name,
			Count:     len(sites),
			Examples:  append([]CallSite(nil), sites[:n]...),
			Remaining: len(sites) - n,
		})
	}
	return out
}
