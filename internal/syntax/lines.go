package syntax

import "sort"

// Position is a 0-based line and column. Column counts bytes.
type Position struct {
	Line   int
	Column int
}

// LineMap maps byte offsets to positions.
type LineMap struct {
	starts []int // byte offset of the first byte of each line
}

// NewLineMap indexes the line starts of src. Lines end at '\n'; a preceding
// '\r' stays part of the line.
func NewLineMap(src []byte) *LineMap {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineMap{starts: starts}
}

// LineCount returns the number of lines, counting a trailing empty line.
func (m *LineMap) LineCount() int {
	return len(m.starts)
}

// Position returns the position of offset. Offsets past the end clamp to the
// last line.
func (m *LineMap) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	line := sort.Search(len(m.starts), func(i int) bool { return m.starts[i] > offset }) - 1
	return Position{Line: line, Column: offset - m.starts[line]}
}
