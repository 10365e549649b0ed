// Package token defines the byte-span and line/column primitives shared by
// the lexer, parser, semantic index, and query layer.
package token

// Span is a half-open byte range [Lo, Hi) into a source buffer. Every token
// and every syntax node carries one; spans tile source text exactly,
// including trivia, and a parent span is always the union of its children's.
type Span struct {
	Lo, Hi int
}

// NewSpan builds a Span, ordering its endpoints if given reversed.
func NewSpan(lo, hi int) Span {
	if lo > hi {
		lo, hi = hi, lo
	}
	return Span{Lo: lo, Hi: hi}
}

// Merge returns the smallest span containing both s and other.
func (s Span) Merge(other Span) Span {
	lo := s.Lo
	if other.Lo < lo {
		lo = other.Lo
	}
	hi := s.Hi
	if other.Hi > hi {
		hi = other.Hi
	}
	return Span{Lo: lo, Hi: hi}
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int {
	return s.Hi - s.Lo
}

// Contains reports whether offset falls within [Lo, Hi).
func (s Span) Contains(offset int) bool {
	return offset >= s.Lo && offset < s.Hi
}

// Slice returns the bytes of src covered by s, clamped to src's bounds.
func (s Span) Slice(src []byte) []byte {
	lo, hi := s.Lo, s.Hi
	if lo < 0 {
		lo = 0
	}
	if hi > len(src) {
		hi = len(src)
	}
	if lo > hi {
		return nil
	}
	return src[lo:hi]
}
