// Package lexer turns Kconfig source bytes into a total token stream: every
// byte belongs to exactly one token, malformed input produces Error tokens
// rather than panics, and trivia (whitespace, newlines, comments, line
// continuations) is emitted alongside meaningful tokens so callers can
// reconstruct the source exactly from the stream.
package lexer

import (
	"github.com/walteh/kconfig-ls/pkg/keyword"
	"github.com/walteh/kconfig-ls/pkg/token"
)

// Lexer scans a single Kconfig source buffer.
type Lexer struct {
	src        []byte
	pos        int
	macroDepth int
}

// New returns a Lexer positioned at the start of src.
func New(src []byte) *Lexer {
	return &Lexer{src: src}
}

// Tokenize scans the whole buffer and returns every token, terminated by a
// single EOF token. It never returns an error: malformed input is reported
// inline via Error-kind and Err-flagged tokens.
func Tokenize(src []byte) []token.Token {
	l := New(src)
	var toks []token.Token
	for {
		t := l.next()
		toks = append(toks, t)
		if t.Kind == token.EOF {
			break
		}
	}
	return toks
}

func (l *Lexer) byteAt(off int) byte {
	if off < 0 || off >= len(l.src) {
		return 0
	}
	return l.src[off]
}

func (l *Lexer) cur() byte  { return l.byteAt(l.pos) }
func (l *Lexer) peek() byte { return l.byteAt(l.pos + 1) }

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}

const legacyHelpSpelling = "---help---"

func (l *Lexer) matchLiteral(lit string) bool {
	if l.pos+len(lit) > len(l.src) {
		return false
	}
	return string(l.src[l.pos:l.pos+len(lit)]) == lit
}

// next scans and returns the single next token, advancing l.pos past it.
func (l *Lexer) next() token.Token {
	start := l.pos
	if l.pos >= len(l.src) {
		return token.Token{Kind: token.EOF, Span: token.NewSpan(start, start)}
	}

	b := l.cur()

	switch {
	case b == '\\' && l.peek() == '\n':
		l.pos += 2
		return token.Token{Kind: token.LineContinuation, Span: token.NewSpan(start, l.pos)}
	case b == '\\':
		l.pos++
		return token.Token{Kind: token.Error, Span: token.NewSpan(start, l.pos), Err: true, ErrMsg: "stray backslash"}
	case b == ' ' || b == '\t':
		for l.pos < len(l.src) && (l.cur() == ' ' || l.cur() == '\t') {
			l.pos++
		}
		return token.Token{Kind: token.Whitespace, Span: token.NewSpan(start, l.pos)}
	case b == '\n':
		l.pos++
		return token.Token{Kind: token.Newline, Span: token.NewSpan(start, l.pos)}
	case b == '#':
		l.pos++
		for l.pos < len(l.src) && l.cur() != '\n' {
			l.pos++
		}
		return token.Token{Kind: token.Comment, Span: token.NewSpan(start, l.pos), Value: string(l.src[start+1 : l.pos])}
	case b == '"' || b == '\'':
		return l.lexString(start, b)
	case b == '$' && l.peek() == '(':
		l.pos += 2
		l.macroDepth++
		return token.Token{Kind: token.MacroOpen, Span: token.NewSpan(start, l.pos)}
	case b == ')' && l.macroDepth > 0:
		l.pos++
		l.macroDepth--
		return token.Token{Kind: token.MacroClose, Span: token.NewSpan(start, l.pos)}
	case b == '(':
		l.pos++
		return token.Token{Kind: token.Punct, Span: token.NewSpan(start, l.pos), Op: token.OpOpenParen}
	case b == ')':
		l.pos++
		return token.Token{Kind: token.Punct, Span: token.NewSpan(start, l.pos), Op: token.OpCloseParen}
	case b == ',':
		l.pos++
		return token.Token{Kind: token.Punct, Span: token.NewSpan(start, l.pos), Op: token.OpComma}
	case b == '!':
		l.pos++
		if l.cur() == '=' {
			l.pos++
			return token.Token{Kind: token.Punct, Span: token.NewSpan(start, l.pos), Op: token.OpNotEq}
		}
		return token.Token{Kind: token.Punct, Span: token.NewSpan(start, l.pos), Op: token.OpNot}
	case b == '=':
		l.pos++
		return token.Token{Kind: token.Punct, Span: token.NewSpan(start, l.pos), Op: token.OpEq}
	case b == '<':
		l.pos++
		if l.cur() == '=' {
			l.pos++
			return token.Token{Kind: token.Punct, Span: token.NewSpan(start, l.pos), Op: token.OpLessEq}
		}
		return token.Token{Kind: token.Punct, Span: token.NewSpan(start, l.pos), Op: token.OpLess}
	case b == '>':
		l.pos++
		if l.cur() == '=' {
			l.pos++
			return token.Token{Kind: token.Punct, Span: token.NewSpan(start, l.pos), Op: token.OpGreaterEq}
		}
		return token.Token{Kind: token.Punct, Span: token.NewSpan(start, l.pos), Op: token.OpGreater}
	case b == '&' && l.peek() == '&':
		l.pos += 2
		return token.Token{Kind: token.Punct, Span: token.NewSpan(start, l.pos), Op: token.OpAnd}
	case b == '|' && l.peek() == '|':
		l.pos += 2
		return token.Token{Kind: token.Punct, Span: token.NewSpan(start, l.pos), Op: token.OpOr}
	case b == '-':
		if l.matchLiteral(legacyHelpSpelling) {
			l.pos += len(legacyHelpSpelling)
			return token.Token{Kind: token.Keyword, Span: token.NewSpan(start, l.pos), KeywordName: legacyHelpSpelling, Legacy: true}
		}
		if isDigit(l.peek()) {
			return l.lexNumber(start)
		}
		l.pos++
		return token.Token{Kind: token.Error, Span: token.NewSpan(start, l.pos), Err: true, ErrMsg: "unexpected character '-'"}
	case b == '+' && isDigit(l.peek()):
		return l.lexNumber(start)
	case isDigit(b):
		return l.lexNumber(start)
	case isIdentStart(b):
		return l.lexIdent(start)
	default:
		l.pos++
		return token.Token{Kind: token.Error, Span: token.NewSpan(start, l.pos), Err: true, ErrMsg: "unexpected character"}
	}
}

func (l *Lexer) lexString(start int, quote byte) token.Token {
	l.pos++ // opening quote
	var value []byte
	for l.pos < len(l.src) {
		b := l.cur()
		if b == quote {
			l.pos++
			return token.Token{Kind: token.StringLit, Span: token.NewSpan(start, l.pos), Value: string(value), Quote: quote}
		}
		if b == '\n' {
			break
		}
		if b == '\\' && l.pos+1 < len(l.src) {
			value = append(value, b, l.src[l.pos+1])
			l.pos += 2
			continue
		}
		value = append(value, b)
		l.pos++
	}
	return token.Token{
		Kind:   token.StringLit,
		Span:   token.NewSpan(start, l.pos),
		Value:  string(value),
		Quote:  quote,
		Err:    true,
		ErrMsg: "unterminated string literal",
	}
}

func (l *Lexer) lexNumber(start int) token.Token {
	if l.cur() == '+' || l.cur() == '-' {
		l.pos++
	}
	if l.cur() == '0' && (l.peek() == 'x' || l.peek() == 'X') {
		l.pos += 2
		digitsStart := l.pos
		for l.pos < len(l.src) && isHexDigit(l.cur()) {
			l.pos++
		}
		if l.pos == digitsStart {
			return token.Token{
				Kind:   token.Number,
				Span:   token.NewSpan(start, l.pos),
				Value:  string(l.src[start:l.pos]),
				Err:    true,
				ErrMsg: "invalid number: no hex digits after '0x'",
			}
		}
		return token.Token{Kind: token.Number, Span: token.NewSpan(start, l.pos), Value: string(l.src[start:l.pos])}
	}
	for l.pos < len(l.src) && isDigit(l.cur()) {
		l.pos++
	}
	return token.Token{Kind: token.Number, Span: token.NewSpan(start, l.pos), Value: string(l.src[start:l.pos])}
}

func (l *Lexer) lexIdent(start int) token.Token {
	for l.pos < len(l.src) && isIdentCont(l.cur()) {
		l.pos++
	}
	text := string(l.src[start:l.pos])
	if info, ok := keyword.Lookup(text); ok {
		return token.Token{Kind: token.Keyword, Span: token.NewSpan(start, l.pos), KeywordName: info.Spelling, Legacy: info.Legacy, Value: text}
	}
	return token.Token{Kind: token.Ident, Span: token.NewSpan(start, l.pos), Value: text}
}
