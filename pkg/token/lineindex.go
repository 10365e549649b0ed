package token

import (
	"sort"

	"github.com/hashicorp/hcl/v2"
)

// LineIndex maps byte offsets to line/column positions and back. It is built
// once per document revision and reused by every query that needs to render
// a span as a human-facing position (diagnostics, hover ranges, LSP
// positions).
type LineIndex struct {
	lineStarts []int
	length     int
}

// NewLineIndex scans src for newlines and records where each line begins.
func NewLineIndex(src []byte) *LineIndex {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{lineStarts: starts, length: len(src)}
}

// Pos returns the 1-based hcl.Pos for a byte offset, clamped to the buffer.
func (li *LineIndex) Pos(offset int) hcl.Pos {
	line, col := li.LineCol(offset)
	return hcl.Pos{Line: line + 1, Column: col + 1, Byte: offset}
}

// Range returns the hcl.Range spanning s.
func (li *LineIndex) Range(s Span) hcl.Range {
	return hcl.Range{Start: li.Pos(s.Lo), End: li.Pos(s.Hi)}
}

// LineCol returns the 0-based line and column (UTF-16 code unit columns are
// the caller's concern; this counts bytes) for offset, the convention LSP
// positions use on the wire before UTF-16 conversion.
func (li *LineIndex) LineCol(offset int) (line, col int) {
	if offset < 0 {
		offset = 0
	}
	if offset > li.length {
		offset = li.length
	}
	line = sort.Search(len(li.lineStarts), func(i int) bool {
		return li.lineStarts[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}
	col = offset - li.lineStarts[line]
	return line, col
}

// Offset converts a 0-based line/column back to a byte offset, clamping to
// the document's bounds.
func (li *LineIndex) Offset(line, col int) int {
	if line < 0 {
		line = 0
	}
	if line >= len(li.lineStarts) {
		line = len(li.lineStarts) - 1
	}
	off := li.lineStarts[line] + col
	if off > li.length {
		off = li.length
	}
	return off
}

// LineCount returns the number of lines in the indexed buffer.
func (li *LineIndex) LineCount() int {
	return len(li.lineStarts)
}
