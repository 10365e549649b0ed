package query

import (
	"github.com/walteh/kconfig-ls/pkg/document"
	"github.com/walteh/kconfig-ls/pkg/syntax"
	"github.com/walteh/kconfig-ls/pkg/token"
)

// DefinitionAt returns every span where the symbol named at offset is
// declared (a symbol may have more than one `config` block, which Kconfig
// merges), or false if offset isn't on a symbol name.
func DefinitionAt(doc *document.Document, offset int) ([]token.Span, bool) {
	n := syntax.FindAt(doc.Tree, offset)
	if n == nil {
		return nil, false
	}
	switch n.Kind {
	case syntax.KindSymbolRef, syntax.KindName:
	default:
		return nil, false
	}
	id, ok := doc.Index.SymbolAt(n.Name)
	if !ok {
		return nil, false
	}
	return doc.Index.Symbol(id).Defs, true
}
