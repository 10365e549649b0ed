package query

import (
	"github.com/walteh/kconfig-ls/pkg/document"
	"github.com/walteh/kconfig-ls/pkg/syntax"
	"github.com/walteh/kconfig-ls/pkg/token"
)

// ReferencesAt returns every span referencing the symbol named at offset.
// When includeDeclaration is true, the symbol's own declaration spans are
// included ahead of its usage spans, honoring the LSP
// textDocument/references includeDeclaration flag.
func ReferencesAt(doc *document.Document, offset int, includeDeclaration bool) ([]token.Span, bool) {
	n := syntax.FindAt(doc.Tree, offset)
	if n == nil {
		return nil, false
	}
	var name string
	switch n.Kind {
	case syntax.KindSymbolRef, syntax.KindName:
		name = n.Name
	default:
		return nil, false
	}
	id, ok := doc.Index.SymbolAt(name)
	if !ok {
		return nil, false
	}
	var spans []token.Span
	if includeDeclaration {
		spans = append(spans, doc.Index.Symbol(id).Defs...)
	}
	for _, r := range doc.Index.ReferencesTo(id) {
		spans = append(spans, r.Span)
	}
	return spans, true
}
