package syntax

import (
	"strings"

	"github.com/walteh/kconfig-ls/pkg/token"
)

// symbolLikeKeywords holds the spellings that real Kconfig files use both as
// reserved attribute keywords and, in expression/identifier position, as
// ordinary symbol names (the kernel tree itself defines a config named
// MODULES, for instance). The parser accepts either reading depending on
// position rather than rejecting the ambiguous spelling outright.
var symbolLikeKeywords = map[string]bool{
	"on": true, "modules": true, "optional": true, "transitional": true,
	"bool": true, "tristate": true, "hex": true, "int": true,
}

var topLevelEntryKeywords = map[string]bool{
	"config": true, "menuconfig": true, "choice": true, "comment": true,
	"menu": true, "if": true, "source": true, "mainmenu": true,
}

// Parser builds a Node tree from a pre-lexed token stream over src.
type Parser struct {
	src   []byte
	toks  []token.Token // trivia-filtered (no Whitespace/LineContinuation)
	pos   int
	li    *token.LineIndex
	diags []Diagnostic
}

// Parse lexes nothing itself; it consumes the token stream produced by
// pkg/lexer and returns the file's root Node plus every diagnostic raised
// along the way. It never panics: unrecognized input becomes Error nodes
// and the parser resynchronizes at the next line or entry keyword.
func Parse(src []byte, toks []token.Token) (*Node, []Diagnostic) {
	p := &Parser{
		src:  src,
		toks: filterTrivia(toks),
		li:   token.NewLineIndex(src),
	}
	p.collectLexErrors(toks)
	var entries []*Node
	for {
		p.skipBlankLines()
		if p.atEOF() {
			break
		}
		entries = append(entries, p.parseTopEntry())
	}
	file := &Node{Kind: KindFile, Children: entries, Span: childrenSpan(entries, token.NewSpan(0, len(src)))}
	return file, p.diags
}

// collectLexErrors turns every Err-flagged token the lexer produced
// (unterminated string, stray backslash, invalid number, ...) into a
// Diagnostic. The lexer never stops scanning on malformed input, so these
// run ahead of any parse diagnostics raised while consuming the same
// tokens.
func (p *Parser) collectLexErrors(toks []token.Token) {
	for _, t := range toks {
		if !t.Err {
			continue
		}
		msg := t.ErrMsg
		if msg == "" {
			msg = "malformed token"
		}
		p.addDiag(SeverityError, t.Span, msg)
	}
}

func filterTrivia(toks []token.Token) []token.Token {
	out := make([]token.Token, 0, len(toks))
	for _, t := range toks {
		if t.Kind == token.Whitespace || t.Kind == token.LineContinuation {
			continue
		}
		out = append(out, t)
	}
	return out
}

// --- token cursor helpers -------------------------------------------------

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF, Span: p.eofSpan()}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekN(n int) token.Token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return token.Token{Kind: token.EOF, Span: p.eofSpan()}
	}
	return p.toks[idx]
}

func (p *Parser) eofSpan() token.Span {
	return token.NewSpan(len(p.src), len(p.src))
}

func (p *Parser) atEOF() bool {
	return p.peek().Kind == token.EOF
}

func (p *Parser) advance() token.Token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) prevEnd() int {
	if p.pos == 0 {
		return 0
	}
	return p.toks[p.pos-1].Span.Hi
}

func (p *Parser) isKeyword(name string) bool {
	t := p.peek()
	return t.Kind == token.Keyword && t.KeywordName == name
}

func (p *Parser) isPunct(op token.Op) bool {
	t := p.peek()
	return t.Kind == token.Punct && t.Op == op
}

func (p *Parser) addDiag(sev Severity, span token.Span, msg string) {
	p.diags = append(p.diags, Diagnostic{Severity: sev, Message: msg, Span: span})
}

func (p *Parser) errorf(span token.Span, msg string) {
	p.addDiag(SeverityError, span, msg)
}

func (p *Parser) skipBlankLines() {
	for {
		t := p.peek()
		if t.Kind == token.Newline || t.Kind == token.Comment {
			p.advance()
			continue
		}
		break
	}
}

func (p *Parser) skipLineTrivia() {
	for p.peek().Kind == token.Comment {
		p.advance()
	}
}

// expectEOL requires the rest of the current line to be empty (save for a
// trailing comment). On mismatch it records a diagnostic and resynchronizes
// by discarding tokens through the next Newline or EOF.
func (p *Parser) expectEOL() {
	p.skipLineTrivia()
	t := p.peek()
	if t.Kind == token.Newline {
		p.advance()
		return
	}
	if t.Kind == token.EOF {
		return
	}
	p.errorf(t.Span, "expected end of line")
	for {
		t := p.peek()
		if t.Kind == token.Newline {
			p.advance()
			return
		}
		if t.Kind == token.EOF {
			return
		}
		p.advance()
	}
}

// --- top level -------------------------------------------------------------

func (p *Parser) parseTopEntry() *Node {
	t := p.peek()
	if t.Kind != token.Keyword {
		return p.recoverUnexpected("unexpected token at top level")
	}
	switch t.KeywordName {
	case "config":
		return p.parseConfigLike(false)
	case "menuconfig":
		return p.parseConfigLike(true)
	case "choice":
		return p.parseChoice()
	case "comment":
		return p.parseCommentEntry()
	case "menu":
		return p.parseMenu()
	case "if":
		return p.parseIf()
	case "source":
		return p.parseSource()
	case "mainmenu":
		return p.parseMainMenu()
	case "endchoice":
		p.errorf(t.Span, "unexpected `endchoice` without matching `choice`")
		p.advance()
		return NewError(t.Span, "unexpected `endchoice`")
	case "endmenu":
		p.errorf(t.Span, "unexpected `endmenu` without matching `menu`")
		p.advance()
		return NewError(t.Span, "unexpected `endmenu`")
	case "endif":
		p.errorf(t.Span, "unexpected `endif` without matching `if`")
		p.advance()
		return NewError(t.Span, "unexpected `endif`")
	default:
		return p.recoverUnexpected("unexpected token at top level")
	}
}

func (p *Parser) recoverUnexpected(msg string) *Node {
	t := p.advance()
	// collectLexErrors already reported an Error-kind token's own lexical
	// diagnostic (unterminated string, stray backslash, ...); don't also
	// report it under the generic "unexpected token" taxonomy.
	if t.Kind != token.Error {
		p.errorf(t.Span, msg)
	}
	for {
		n := p.peek()
		if n.Kind == token.Newline || n.Kind == token.EOF {
			break
		}
		p.advance()
	}
	return NewError(t.Span, msg)
}

// parseEntriesUntil parses top-level-shaped entries until it sees a keyword
// in stopAt (which it does NOT consume) or runs out of input.
func (p *Parser) parseEntriesUntil(stopAt map[string]bool) []*Node {
	var entries []*Node
	for {
		p.skipBlankLines()
		t := p.peek()
		if t.Kind == token.EOF {
			return entries
		}
		if t.Kind == token.Keyword && stopAt[t.KeywordName] {
			return entries
		}
		entries = append(entries, p.parseTopEntry())
	}
}

// --- entries -----------------------------------------------------------

func (p *Parser) parseConfigLike(isMenuConfig bool) *Node {
	kwTok := p.advance()
	kind := KindConfig
	if isMenuConfig {
		kind = KindMenuConfig
	}
	name := p.expectIdentLike("expected identifier")
	p.expectEOL()
	attrs := p.parseAttributes()
	children := append([]*Node{name}, attrs...)
	return &Node{Kind: kind, Children: children, Span: childrenSpan(children, kwTok.Span)}
}

func (p *Parser) parseChoice() *Node {
	kwTok := p.advance()
	p.expectEOL()
	attrs := p.parseAttributes()
	entries := p.parseChoiceBody()
	var end token.Span
	if p.isKeyword("endchoice") {
		end = p.advance().Span
		p.expectEOL()
	} else {
		p.errorf(p.peek().Span, "expected `endchoice`")
	}
	children := append(attrs, entries...)
	span := childrenSpan(children, kwTok.Span).Merge(end)
	return &Node{Kind: KindChoice, Children: children, Span: span}
}

var choiceMemberKeywords = map[string]bool{"config": true, "menuconfig": true, "comment": true, "if": true}

func (p *Parser) parseChoiceBody() []*Node {
	var entries []*Node
	for {
		p.skipBlankLines()
		t := p.peek()
		if t.Kind == token.EOF || p.isKeyword("endchoice") {
			return entries
		}
		if t.Kind == token.Keyword && choiceMemberKeywords[t.KeywordName] {
			entries = append(entries, p.parseTopEntry())
			continue
		}
		entries = append(entries, p.recoverUnexpected("unexpected token inside `choice`"))
	}
}

func (p *Parser) parseMenu() *Node {
	kwTok := p.advance()
	prompt := p.expectString("expected string")
	p.expectEOL()
	attrs := p.parseAttributes()
	entries := p.parseEntriesUntil(map[string]bool{"endmenu": true})
	var end token.Span
	if p.isKeyword("endmenu") {
		end = p.advance().Span
		p.expectEOL()
	} else {
		p.errorf(p.peek().Span, "expected `endmenu`")
	}
	children := append([]*Node{prompt}, append(attrs, entries...)...)
	return &Node{Kind: KindMenu, Children: children, Span: childrenSpan(children, kwTok.Span).Merge(end)}
}

func (p *Parser) parseIf() *Node {
	kwTok := p.advance()
	cond := p.parseExpr()
	p.expectEOL()
	entries := p.parseEntriesUntil(map[string]bool{"endif": true})
	var end token.Span
	if p.isKeyword("endif") {
		end = p.advance().Span
		p.expectEOL()
	} else {
		p.errorf(p.peek().Span, "expected `endif`")
	}
	children := append([]*Node{cond}, entries...)
	return &Node{Kind: KindIf, Children: children, Span: childrenSpan(children, kwTok.Span).Merge(end)}
}

func (p *Parser) parseCommentEntry() *Node {
	kwTok := p.advance()
	prompt := p.expectString("expected string")
	p.expectEOL()
	attrs := p.parseAttributes()
	children := append([]*Node{prompt}, attrs...)
	return &Node{Kind: KindComment, Children: children, Span: childrenSpan(children, kwTok.Span)}
}

func (p *Parser) parseSource() *Node {
	kwTok := p.advance()
	path := p.expectString("expected string")
	p.expectEOL()
	children := []*Node{path}
	return &Node{Kind: KindSource, Children: children, Span: childrenSpan(children, kwTok.Span)}
}

func (p *Parser) parseMainMenu() *Node {
	kwTok := p.advance()
	title := p.expectString("expected string")
	p.expectEOL()
	children := []*Node{title}
	return &Node{Kind: KindMainMenu, Children: children, Span: childrenSpan(children, kwTok.Span)}
}

// --- attributes ----------------------------------------------------------

var typeKeywordKinds = map[string]bool{"bool": true, "tristate": true, "string": true, "hex": true, "int": true}

func (p *Parser) parseAttributes() []*Node {
	var attrs []*Node
	for {
		p.skipBlankLines()
		t := p.peek()
		if t.Kind != token.Keyword {
			return attrs
		}
		switch {
		case typeKeywordKinds[t.KeywordName]:
			attrs = append(attrs, p.parseTypeAttr())
		case t.KeywordName == "prompt":
			attrs = append(attrs, p.parsePromptAttr())
		case t.KeywordName == "default":
			attrs = append(attrs, p.parseDefaultAttr())
		case t.KeywordName == "def_bool":
			attrs = append(attrs, p.parseDefTypeAttr(KindDefBool))
		case t.KeywordName == "def_tristate":
			attrs = append(attrs, p.parseDefTypeAttr(KindDefTristate))
		case t.KeywordName == "depends":
			attrs = append(attrs, p.parseDependsOn())
		case t.KeywordName == "select":
			attrs = append(attrs, p.parseSelectImply(KindSelect))
		case t.KeywordName == "imply":
			attrs = append(attrs, p.parseSelectImply(KindImply))
		case t.KeywordName == "visible":
			attrs = append(attrs, p.parseVisibleIf())
		case t.KeywordName == "range":
			attrs = append(attrs, p.parseRange())
		case t.KeywordName == "help" || t.KeywordName == "---help---":
			attrs = append(attrs, p.parseHelp())
		case t.KeywordName == "modules":
			kwTok := p.advance()
			p.expectEOL()
			attrs = append(attrs, &Node{Kind: KindModules, Span: kwTok.Span})
		case t.KeywordName == "transitional":
			kwTok := p.advance()
			p.expectEOL()
			attrs = append(attrs, &Node{Kind: KindTransitional, Span: kwTok.Span})
		case t.KeywordName == "optional":
			kwTok := p.advance()
			p.expectEOL()
			attrs = append(attrs, &Node{Kind: KindOptional, Span: kwTok.Span})
		default:
			return attrs
		}
	}
}

func (p *Parser) parseTypeAttr() *Node {
	kwTok := p.advance()
	node := &Node{Kind: KindType, Name: kwTok.KeywordName}
	var children []*Node
	if p.peek().Kind == token.StringLit {
		children = append(children, p.parsePromptValue())
	}
	node.Children = children
	node.Span = childrenSpan(children, kwTok.Span)
	p.expectEOL()
	return node
}

// parsePromptValue parses a quoted prompt string with an optional trailing
// `if EXPR`, shared by the standalone `prompt` attribute and the inline
// prompt that can follow a type keyword.
func (p *Parser) parsePromptValue() *Node {
	str := p.expectString("expected string")
	children := []*Node{str}
	if p.isKeyword("if") {
		p.advance()
		children = append(children, p.parseExpr())
	}
	return &Node{Kind: KindPrompt, Children: children, Span: childrenSpan(children, str.Span)}
}

func (p *Parser) parsePromptAttr() *Node {
	kwTok := p.advance()
	node := p.parsePromptValue()
	node.Span = node.Span.Merge(kwTok.Span)
	p.expectEOL()
	return node
}

func (p *Parser) parseDefaultAttr() *Node {
	kwTok := p.advance()
	val := p.parseExpr()
	children := []*Node{val}
	if p.isKeyword("if") {
		p.advance()
		children = append(children, p.parseExpr())
	}
	p.expectEOL()
	return &Node{Kind: KindDefault, Children: children, Span: childrenSpan(children, kwTok.Span)}
}

func (p *Parser) parseDefTypeAttr(kind Kind) *Node {
	kwTok := p.advance()
	val := p.parseExpr()
	children := []*Node{val}
	if p.isKeyword("if") {
		p.advance()
		children = append(children, p.parseExpr())
	}
	p.expectEOL()
	return &Node{Kind: kind, Children: children, Span: childrenSpan(children, kwTok.Span)}
}

func (p *Parser) parseDependsOn() *Node {
	kwTok := p.advance()
	if p.isKeyword("on") {
		p.advance()
	} else {
		p.errorf(p.peek().Span, "expected `on`")
	}
	cond := p.parseExpr()
	children := []*Node{cond}
	p.expectEOL()
	return &Node{Kind: KindDependsOn, Children: children, Span: childrenSpan(children, kwTok.Span)}
}

func (p *Parser) parseSelectImply(kind Kind) *Node {
	kwTok := p.advance()
	target := p.expectIdentLike("expected identifier")
	target.Kind = KindSymbolRef
	children := []*Node{target}
	if p.isKeyword("if") {
		p.advance()
		children = append(children, p.parseExpr())
	}
	p.expectEOL()
	return &Node{Kind: kind, Children: children, Span: childrenSpan(children, kwTok.Span)}
}

func (p *Parser) parseVisibleIf() *Node {
	kwTok := p.advance()
	if p.isKeyword("if") {
		p.advance()
	} else {
		p.errorf(p.peek().Span, "expected `if`")
	}
	cond := p.parseExpr()
	children := []*Node{cond}
	p.expectEOL()
	return &Node{Kind: KindVisibleIf, Children: children, Span: childrenSpan(children, kwTok.Span)}
}

func (p *Parser) parseRange() *Node {
	kwTok := p.advance()
	low := p.parsePrimaryExpr()
	high := p.parsePrimaryExpr()
	children := []*Node{low, high}
	if p.isKeyword("if") {
		p.advance()
		children = append(children, p.parseExpr())
	}
	p.expectEOL()
	return &Node{Kind: KindRange, Children: children, Span: childrenSpan(children, kwTok.Span)}
}

// --- help block ------------------------------------------------------------

func (p *Parser) parseHelp() *Node {
	kwTok := p.advance()
	legacy := kwTok.Legacy
	if legacy {
		p.addDiag(SeverityInfo, kwTok.Span, "use 'help' instead of the legacy '---help---' form")
	}
	p.skipLineTrivia()
	if p.peek().Kind == token.Newline {
		p.advance()
	}
	start := p.prevEnd()
	text, end, malformed := scanHelpBlock(p.src, start)
	p.syncTo(end)
	block := &Node{Kind: KindHelpBlock, Name: text, Span: token.NewSpan(start, end)}
	if malformed {
		p.addDiag(SeverityWarning, block.Span, "malformed help indentation: first line is blank")
	}
	return &Node{Kind: KindHelp, Legacy: legacy, Children: []*Node{block}, Span: kwTok.Span.Merge(block.Span)}
}

// syncTo advances the token cursor past every token that the raw help-text
// scan already consumed, since that scan works directly over source bytes
// rather than the token stream.
func (p *Parser) syncTo(offset int) {
	for p.pos < len(p.toks) && p.toks[p.pos].Span.Lo < offset {
		p.pos++
	}
}

func leadingWhitespaceCols(line []byte) int {
	col := 0
	for _, b := range line {
		switch b {
		case ' ':
			col++
		case '\t':
			col += 8 - (col % 8)
		default:
			return col
		}
	}
	return col
}

func dedent(line []byte, cols int) string {
	col := 0
	i := 0
	for i < len(line) && col < cols {
		switch line[i] {
		case ' ':
			col++
		case '\t':
			col += 8 - (col % 8)
		default:
			return string(line[i:])
		}
		i++
	}
	return string(line[i:])
}

// scanHelpBlock extracts the indented help-text block starting at start,
// returning its dedented text and the byte offset where the block ends.
// Per the help-block rule: the first non-blank line's indentation becomes
// W; every later line stays in the block while its indentation is >= W
// (or blank), and the first non-blank line with indentation < W ends the
// block and is pushed back, not consumed. Blank lines before W is
// established don't fix W themselves.
func scanHelpBlock(src []byte, start int) (string, int, bool) {
	i := start
	refIndent := -1
	leadingBlank := false
	var lines []string
	for i < len(src) {
		lineStart := i
		for i < len(src) && src[i] != '\n' {
			i++
		}
		line := src[lineStart:i]
		consumedNL := i < len(src)
		if consumedNL {
			i++
		}
		trimmed := strings.TrimRight(string(line), " \t\r")
		if strings.TrimSpace(trimmed) == "" {
			if len(lines) == 0 {
				leadingBlank = true
			}
			lines = append(lines, "")
			continue
		}
		indent := leadingWhitespaceCols(line)
		if refIndent != -1 && indent < refIndent {
			i = lineStart
			break
		}
		if refIndent == -1 {
			if indent == 0 {
				// rule 1 requires W > 0: a column-0 "content" line can't be
				// the help block's first line, it's the next entry. Push it
				// back unconsumed instead of adopting W=0, which would never
				// terminate the block.
				i = lineStart
				break
			}
			refIndent = indent
		}
		lines = append(lines, strings.TrimRight(dedent(line, refIndent), " \t\r"))
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
		// the blank line's newline still belongs to the block's trailing
		// whitespace; i is left at the line that caused the break or EOF,
		// so no further offset bookkeeping is needed here.
	}
	malformed := leadingBlank && refIndent != -1
	return strings.Join(lines, "\n"), i, malformed
}

// --- expressions -----------------------------------------------------------

func (p *Parser) parseExpr() *Node {
	return p.parseOrExpr()
}

func (p *Parser) parseOrExpr() *Node {
	left := p.parseAndExpr()
	for p.isPunct(token.OpOr) {
		p.advance()
		right := p.parseAndExpr()
		left = &Node{Kind: KindOr, Children: []*Node{left, right}, Span: left.Span.Merge(right.Span)}
	}
	return left
}

func (p *Parser) parseAndExpr() *Node {
	left := p.parseComparisonExpr()
	for p.isPunct(token.OpAnd) {
		p.advance()
		right := p.parseComparisonExpr()
		left = &Node{Kind: KindAnd, Children: []*Node{left, right}, Span: left.Span.Merge(right.Span)}
	}
	return left
}

var compareOps = map[token.Op]CompareOp{
	token.OpEq:         CmpEq,
	token.OpNotEq:      CmpNotEq,
	token.OpLess:       CmpLess,
	token.OpLessEq:     CmpLessEq,
	token.OpGreater:    CmpGreater,
	token.OpGreaterEq:  CmpGreaterEq,
}

func (p *Parser) parseComparisonExpr() *Node {
	left := p.parseUnaryExpr()
	t := p.peek()
	if t.Kind == token.Punct {
		if cmp, ok := compareOps[t.Op]; ok {
			p.advance()
			right := p.parseUnaryExpr()
			return &Node{Kind: KindCompare, CompareOp: cmp, Children: []*Node{left, right}, Span: left.Span.Merge(right.Span)}
		}
	}
	return left
}

func (p *Parser) parseUnaryExpr() *Node {
	if p.isPunct(token.OpNot) {
		notTok := p.advance()
		inner := p.parseUnaryExpr()
		return &Node{Kind: KindNot, Children: []*Node{inner}, Span: notTok.Span.Merge(inner.Span)}
	}
	return p.parsePrimaryExpr()
}

func (p *Parser) parsePrimaryExpr() *Node {
	t := p.peek()
	switch {
	case t.Kind == token.Punct && t.Op == token.OpOpenParen:
		p.advance()
		inner := p.parseOrExpr()
		span := t.Span.Merge(inner.Span)
		if p.isPunct(token.OpCloseParen) {
			close := p.advance()
			span = span.Merge(close.Span)
		} else {
			p.errorf(p.peek().Span, "expected `)`")
		}
		return &Node{Kind: KindParen, Children: []*Node{inner}, Span: span}
	case t.Kind == token.StringLit:
		p.advance()
		return &Node{Kind: KindLiteral, Name: t.Value, Quote: t.Quote, Span: t.Span}
	case t.Kind == token.Number:
		p.advance()
		return &Node{Kind: KindLiteral, Name: t.Value, Span: t.Span}
	case t.Kind == token.Ident:
		p.advance()
		return &Node{Kind: KindSymbolRef, Name: t.Value, Span: t.Span}
	case t.Kind == token.Keyword && symbolLikeKeywords[t.KeywordName]:
		p.advance()
		return &Node{Kind: KindSymbolRef, Name: t.KeywordName, Span: t.Span}
	case t.Kind == token.MacroOpen:
		return p.parseMacroCall()
	default:
		p.errorf(t.Span, "expected expression")
		return NewError(t.Span, "expected expression")
	}
}

func (p *Parser) parseMacroCall() *Node {
	openTok := p.advance()
	depth := 1
	for depth > 0 && !p.atEOF() {
		t := p.peek()
		switch t.Kind {
		case token.MacroOpen:
			depth++
			p.advance()
		case token.MacroClose:
			depth--
			p.advance()
		default:
			p.advance()
		}
	}
	span := token.NewSpan(openTok.Span.Lo, p.prevEnd())
	return &Node{Kind: KindMacroCall, Name: string(span.Slice(p.src)), Span: span}
}

// --- leaf helpers ------------------------------------------------------

func (p *Parser) expectIdentLike(msg string) *Node {
	t := p.peek()
	if t.Kind == token.Ident {
		p.advance()
		return &Node{Kind: KindName, Name: t.Value, Span: t.Span}
	}
	if t.Kind == token.Keyword && symbolLikeKeywords[t.KeywordName] {
		p.advance()
		return &Node{Kind: KindName, Name: t.KeywordName, Span: t.Span}
	}
	p.errorf(t.Span, msg)
	return NewError(t.Span, msg)
}

func (p *Parser) expectString(msg string) *Node {
	t := p.peek()
	if t.Kind == token.StringLit {
		p.advance()
		return &Node{Kind: KindStringValue, Name: t.Value, Quote: t.Quote, Span: t.Span}
	}
	p.errorf(t.Span, msg)
	return NewError(t.Span, msg)
}
