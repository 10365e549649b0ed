// Package query implements the read-only operations an editor asks an LSP
// server for — hover, go-to-definition, find-references, completion, and
// diagnostics — on top of a parsed document. Every function here is a pure
// function of a *document.Document and a byte offset; nothing here mutates
// document state.
package query

import (
	"fmt"
	"strings"

	"github.com/walteh/kconfig-ls/pkg/document"
	"github.com/walteh/kconfig-ls/pkg/keyword"
	"github.com/walteh/kconfig-ls/pkg/semindex"
	"github.com/walteh/kconfig-ls/pkg/syntax"
	"github.com/walteh/kconfig-ls/pkg/token"
)

// Hover is the markdown content and source span for a hover response.
type Hover struct {
	Contents string
	Span     token.Span
}

// HoverAt returns the hover content for the symbol, keyword, or type
// spelling sitting at offset, or false if nothing hoverable is there.
func HoverAt(doc *document.Document, offset int) (*Hover, bool) {
	n := syntax.FindAt(doc.Tree, offset)
	if n != nil {
		switch n.Kind {
		case syntax.KindName, syntax.KindSymbolRef:
			return hoverSymbol(doc, n)
		case syntax.KindType:
			if info, ok := keyword.Lookup(n.Name); ok {
				return &Hover{Contents: info.HelpText, Span: n.Span}, true
			}
		}
	}
	if tok := tokenAt(doc.Tokens, offset); tok != nil && tok.Kind == token.Keyword {
		if info, ok := keyword.Lookup(tok.KeywordName); ok {
			return &Hover{Contents: info.HelpText, Span: tok.Span}, true
		}
	}
	return nil, false
}

func tokenAt(toks []token.Token, offset int) *token.Token {
	var ending *token.Token
	for i := range toks {
		if toks[i].Span.Contains(offset) {
			if ending != nil && (toks[i].Kind == token.Whitespace || toks[i].Kind == token.Newline) {
				return ending
			}
			return &toks[i]
		}
		if toks[i].Span.Hi == offset {
			ending = &toks[i]
		}
	}
	return ending
}

func hoverSymbol(doc *document.Document, n *syntax.Node) (*Hover, bool) {
	if keyword.IsTristateLiteral(n.Name) {
		return &Hover{Contents: fmt.Sprintf("`%s` — built-in tristate value.", n.Name), Span: n.Span}, true
	}
	id, ok := doc.Index.SymbolAt(n.Name)
	if !ok {
		return nil, false
	}
	sym := doc.Index.Symbol(id)
	return &Hover{Contents: renderSymbolSection(doc, sym), Span: n.Span}, true
}

func symbolKindLabel(k semindex.SymbolKind) string {
	switch k {
	case semindex.SymbolMenuConfig:
		return "menuconfig"
	case semindex.SymbolChoice:
		return "choice"
	default:
		return "config"
	}
}

// renderSymbolSection builds the hover content the spec requires: the
// symbol's prompt (its first `prompt` attribute string), its declared
// type, and its help text, concatenated — plus every location it was
// declared at.
func renderSymbolSection(doc *document.Document, sym *semindex.Symbol) string {
	var b strings.Builder
	name := sym.Name
	if name == "" {
		name = "(anonymous choice)"
	}
	fmt.Fprintf(&b, "**%s** (%s)", name, symbolKindLabel(sym.Kind))
	if sym.Prompt != "" {
		fmt.Fprintf(&b, "\n\n%s", sym.Prompt)
	}
	if len(sym.DeclaredTypes) > 0 {
		fmt.Fprintf(&b, "\n\nType: `%s`", sym.DeclaredTypes[len(sym.DeclaredTypes)-1])
	}
	if sym.Help != "" {
		fmt.Fprintf(&b, "\n\n%s", sym.Help)
	}
	for _, defSpan := range sym.Defs {
		line, col := doc.LineIndex.LineCol(defSpan.Lo)
		fmt.Fprintf(&b, "\n\nDefined at line %d, column %d", line+1, col+1)
	}
	return b.String()
}
