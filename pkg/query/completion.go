package query

import (
	"regexp"
	"strings"

	"github.com/walteh/kconfig-ls/pkg/document"
	"github.com/walteh/kconfig-ls/pkg/keyword"
	"github.com/walteh/kconfig-ls/pkg/syntax"
)

// exprPosition matches a cursor sitting in the expression operand of
// `depends on`, `select`, or `imply`: the attribute keyword followed by
// whatever's been typed of the expression so far, with nothing else on the
// line after it.
var exprPosition = regexp.MustCompile(`(?i)\b(?:depends\s+on|select|imply)\s+[A-Za-z0-9_$() !&|<>=]*$`)

// ItemKind distinguishes a keyword suggestion from a symbol-name one.
type ItemKind uint8

const (
	ItemKeyword ItemKind = iota
	ItemSymbol
)

// Item is one completion suggestion.
type Item struct {
	Label  string
	Detail string
	Kind   ItemKind
}

// CompleteAt returns the completion list applicable at offset. Most
// positions get the union of the attribute/entry keywords legal inside
// whatever entry encloses offset plus every symbol name declared in the
// file, since a symbol name is always a legal expression atom there. Two
// positions narrow that union: typing the expression operand of `depends
// on`/`select`/`imply` only offers symbol names (a keyword can't appear
// there), and the very start of the file — before any entry exists — only
// offers the top-level entry keywords, since no symbol reference is legal
// until something has been declared.
func CompleteAt(doc *document.Document, offset int) []Item {
	best := enclosingEntry(doc.Tree, offset)
	if exprPosition.MatchString(currentLine(doc.Content, offset)) {
		return symbolItems(doc)
	}
	if best == nil {
		return keywordItems(keyword.InTopLevel)
	}
	items := keywordItems(contextOf(best))
	items = append(items, symbolItems(doc)...)
	return items
}

func keywordItems(ctx keyword.Context) []Item {
	infos := keyword.Completions(ctx)
	items := make([]Item, 0, len(infos))
	for _, info := range infos {
		items = append(items, Item{Label: info.Spelling, Detail: info.HelpText, Kind: ItemKeyword})
	}
	return items
}

func symbolItems(doc *document.Document) []Item {
	items := make([]Item, 0, len(doc.Index.Symbols))
	for _, sym := range doc.Index.Symbols {
		if sym.Name == "" {
			continue
		}
		items = append(items, Item{Label: sym.Name, Kind: ItemSymbol})
	}
	return items
}

// currentLine returns the text of the line offset sits on, up to offset.
func currentLine(content string, offset int) string {
	if offset > len(content) {
		offset = len(content)
	}
	lineStart := strings.LastIndexByte(content[:offset], '\n') + 1
	return content[lineStart:offset]
}

// enclosingEntry returns whichever entry the cursor is currently typing
// inside, or nil at the top level. Completion is most often triggered on a
// blank or partial line that the parser attached nowhere in the tree (it
// parsed no attribute there yet), so this can't simply test span
// containment: instead it picks the entry, anywhere in the tree, whose span
// starts latest at or before offset. In document order that's always the
// innermost entry the cursor has most recently entered, which is exactly
// the block still being edited.
func enclosingEntry(root *syntax.Node, offset int) *syntax.Node {
	var best *syntax.Node
	syntax.Walk(root, func(n *syntax.Node) {
		switch n.Kind {
		case syntax.KindConfig, syntax.KindMenuConfig, syntax.KindChoice, syntax.KindMenu, syntax.KindComment, syntax.KindIf:
		default:
			return
		}
		if n.Span.Lo <= offset && (best == nil || n.Span.Lo > best.Span.Lo) {
			best = n
		}
	})
	return best
}

func contextOf(best *syntax.Node) keyword.Context {
	if best == nil {
		return keyword.InTopLevel
	}
	switch best.Kind {
	case syntax.KindConfig:
		return keyword.InConfig
	case syntax.KindMenuConfig:
		return keyword.InMenuConfig
	case syntax.KindChoice:
		return keyword.InChoice
	case syntax.KindMenu:
		return keyword.InMenu
	case syntax.KindComment:
		return keyword.InComment
	case syntax.KindIf:
		return keyword.InIf
	}
	return keyword.InTopLevel
}
