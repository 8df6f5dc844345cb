package gsp

import (
	"sort"
	"unicode/utf8"
)

// Span represents a source location in a template
type Span struct {
	Offset int // Byte offset in the stripped template
	Line   int // 1-based line number
	Column int // 1-based column number (in runes, not bytes)
	Length int // Length in bytes
}

// IsZero returns true if the span is uninitialized
func (s Span) IsZero() bool {
	return s.Offset == 0 && s.Line == 0 && s.Column == 0 && s.Length == 0
}

// End returns the end offset of the span
func (s Span) End() int {
	return s.Offset + s.Length
}

// LineIndex holds the offsets at which lines start. The first entry is always 0 and the entries
// are strictly increasing. A LineIndex is never modified after NewLineIndex returns, so it may be
// shared between goroutines.
type LineIndex struct {
	src    string
	starts []int
}

// NewLineIndex indexes the line starts of src. Lines are separated by '\n' only; run Strip first
// to normalize other line endings.
func NewLineIndex(src string) *LineIndex {
	starts := make([]int, 1, 64)
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{src: src, starts: starts}
}

// Lines returns the number of lines in the indexed text.
func (x *LineIndex) Lines() int { return len(x.starts) }

// LineStart returns the offset of the first byte of the 1-based line n.
func (x *LineIndex) LineStart(n int) int {
	if n < 1 {
		return 0
	}
	if n > len(x.starts) {
		return len(x.src)
	}
	return x.starts[n-1]
}

// Line returns the 1-based line containing off. Offsets past the end resolve to the last line.
func (x *LineIndex) Line(off int) int {
	// the first start greater than off is one past the line we want
	return sort.Search(len(x.starts), func(i int) bool { return x.starts[i] > off })
}

// Position returns the line and rune column of off.
func (x *LineIndex) Position(off int) (line, col int) {
	if off < 0 {
		off = 0
	}
	if off > len(x.src) {
		off = len(x.src)
	}
	line = x.Line(off)
	if line < 1 {
		line = 1
	}
	return line, utf8.RuneCountInString(x.src[x.starts[line-1]:off]) + 1
}

// Span builds a Span for the length bytes starting at off.
func (x *LineIndex) Span(off, length int) Span {
	line, col := x.Position(off)
	return Span{Offset: off, Line: line, Column: col, Length: length}
}
