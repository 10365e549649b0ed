// Package semindex builds the semantic index for a parsed Kconfig file: the
// set of symbols it declares and every reference to a symbol name anywhere
// in the tree, so the query layer never has to walk the syntax tree itself.
// Symbols are addressed by a stable SymbolID rather than by name, so that a
// Reference can point at its target even across a rename that hasn't been
// re-resolved yet (spec's "shared ownership of symbols" design note).
package semindex

import (
	"github.com/walteh/kconfig-ls/pkg/keyword"
	"github.com/walteh/kconfig-ls/pkg/syntax"
	"github.com/walteh/kconfig-ls/pkg/token"
)

// SymbolID indirects every Reference away from raw names, so renames and
// re-parses can move definitions around without invalidating identity.
type SymbolID int

// InvalidSymbolID marks a Reference whose name never resolved to a
// declaration in this file (an undefined symbol, or a tristate literal).
const InvalidSymbolID SymbolID = -1

// SymbolKind distinguishes the three entry shapes that introduce a symbol.
type SymbolKind uint8

const (
	SymbolConfig SymbolKind = iota
	SymbolMenuConfig
	SymbolChoice
)

// ScopeKind distinguishes the three block shapes that can enclose an entry.
type ScopeKind uint8

const (
	ScopeMenu ScopeKind = iota
	ScopeChoice
	ScopeIf
)

// Scope is one enclosing block frame: a `menu`, `choice`, or `if` that an
// entry sits inside. A Symbol's Scopes is the enclosing stack at the point
// it was declared, outermost first.
type Scope struct {
	Kind ScopeKind
	Name string // menu prompt text, or the enclosing choice's symbol name (may be empty)
	Span token.Span
}

// Symbol is one declared configuration symbol (or anonymous choice) and
// every place it was defined, across possibly-repeated `config` blocks.
type Symbol struct {
	ID            SymbolID
	Name          string // empty for an anonymous choice
	Kind          SymbolKind
	DeclaredTypes []string // "bool", "tristate", ... in declaration order
	Defs          []token.Span

	// Prompt is the symbol's first `prompt` attribute string (standalone or
	// inline after a type keyword), as hover needs per spec §4.4.
	Prompt     string
	PromptSpan token.Span

	// Help is every help block found across this symbol's declarations,
	// concatenated in declaration order; HelpSpans holds each block's span.
	Help      string
	HelpSpans []token.Span

	// Scopes is the enclosing menu/choice/if stack at the first declaration.
	Scopes []Scope
}

// RefKind classifies what syntactic position a Reference was found in.
type RefKind uint8

const (
	RefDependsOn RefKind = iota
	RefSelect
	RefImply
	RefDefault
	RefDefType
	RefRange
	RefVisibleIf
	RefPromptIf
	RefExpr // a symbol used as a bare expression atom, e.g. inside an `if`
)

// Reference is one occurrence of a symbol name used as a value rather than
// declared. SymbolID is InvalidSymbolID when the name never resolved (an
// undefined symbol) or is one of the built-in tristate literals y/n/m.
type Reference struct {
	Span     token.Span
	Name     string
	Kind     RefKind
	SymbolID SymbolID
	IsMacro  bool
}

// Index is the complete semantic picture of one file.
type Index struct {
	Symbols    []*Symbol
	References []Reference
	byName     map[string][]SymbolID
}

// SymbolAt returns the symbol id matching name, or InvalidSymbolID if none
// was declared. When a symbol is declared more than once (the same config
// name appears in multiple `config` blocks, which Kconfig allows and
// merges), the first declaration's id is authoritative.
func (idx *Index) SymbolAt(name string) (SymbolID, bool) {
	ids, ok := idx.byName[name]
	if !ok || len(ids) == 0 {
		return InvalidSymbolID, false
	}
	return ids[0], true
}

// Symbol returns the Symbol for id, or nil if id is invalid.
func (idx *Index) Symbol(id SymbolID) *Symbol {
	if id < 0 || int(id) >= len(idx.Symbols) {
		return nil
	}
	return idx.Symbols[id]
}

// ReferencesTo returns every Reference whose SymbolID is id.
func (idx *Index) ReferencesTo(id SymbolID) []Reference {
	var out []Reference
	for _, r := range idx.References {
		if r.SymbolID == id {
			out = append(out, r)
		}
	}
	return out
}

// Build walks tree and produces its Index. It performs two passes, in the
// same spirit as a symbol table built from an AST elsewhere in this
// codebase: first every declaration is registered so forward references
// resolve, then every reference is collected and linked against the table
// built in pass one.
func Build(tree *syntax.Node) *Index {
	idx := &Index{byName: map[string][]SymbolID{}}
	collectSymbols(idx, tree, nil)
	collectReferences(idx, tree)
	return idx
}

// declare registers (or extends) a symbol declared by node n, recording its
// first prompt string, every help block found on it, and the enclosing
// scope stack at this declaration.
func (idx *Index) declare(name string, kind SymbolKind, typeSpelling string, defSpan token.Span, n *syntax.Node, scopes []Scope) SymbolID {
	promptText, promptSpan, hasPrompt := firstPrompt(n)
	helpText, helpSpan, hasHelp := firstHelp(n)

	if name != "" {
		if ids, ok := idx.byName[name]; ok && len(ids) > 0 {
			sym := idx.Symbols[ids[0]]
			sym.Defs = append(sym.Defs, defSpan)
			if typeSpelling != "" {
				sym.DeclaredTypes = append(sym.DeclaredTypes, typeSpelling)
			}
			if sym.Prompt == "" && hasPrompt {
				sym.Prompt, sym.PromptSpan = promptText, promptSpan
			}
			if hasHelp {
				sym.appendHelp(helpText, helpSpan)
			}
			return sym.ID
		}
	}
	id := SymbolID(len(idx.Symbols))
	sym := &Symbol{ID: id, Name: name, Kind: kind, Defs: []token.Span{defSpan}, Scopes: scopes}
	if typeSpelling != "" {
		sym.DeclaredTypes = append(sym.DeclaredTypes, typeSpelling)
	}
	if hasPrompt {
		sym.Prompt, sym.PromptSpan = promptText, promptSpan
	}
	if hasHelp {
		sym.appendHelp(helpText, helpSpan)
	}
	idx.Symbols = append(idx.Symbols, sym)
	if name != "" {
		idx.byName[name] = append(idx.byName[name], id)
	}
	return id
}

func (sym *Symbol) appendHelp(text string, span token.Span) {
	if sym.Help != "" {
		sym.Help += "\n\n"
	}
	sym.Help += text
	sym.HelpSpans = append(sym.HelpSpans, span)
}

// firstPrompt returns the entry's first `prompt` attribute string, whether
// standalone or inline after a type keyword, in document order.
func firstPrompt(n *syntax.Node) (string, token.Span, bool) {
	for _, c := range n.Children {
		if c.Kind == syntax.KindPrompt {
			return promptText(c), c.Span, true
		}
		if c.Kind == syntax.KindType {
			for _, tc := range c.Children {
				if tc.Kind == syntax.KindPrompt {
					return promptText(tc), tc.Span, true
				}
			}
		}
	}
	return "", token.Span{}, false
}

func promptText(p *syntax.Node) string {
	if len(p.Children) > 0 && p.Children[0].Kind == syntax.KindStringValue {
		return p.Children[0].Name
	}
	return ""
}

// firstHelp returns the entry's own help block text and span, if it has
// one directly attached (not from a nested choice member).
func firstHelp(n *syntax.Node) (string, token.Span, bool) {
	for _, c := range n.Children {
		if c.Kind == syntax.KindHelp && len(c.Children) > 0 {
			return c.Children[0].Name, c.Children[0].Span, true
		}
	}
	return "", token.Span{}, false
}

func nodeName(n *syntax.Node) string {
	if n == nil || len(n.Children) == 0 {
		return ""
	}
	if n.Children[0].Kind == syntax.KindName {
		return n.Children[0].Name
	}
	return ""
}

func declaredType(n *syntax.Node) string {
	for _, c := range n.Children {
		switch c.Kind {
		case syntax.KindType:
			return c.Name
		case syntax.KindDefBool:
			return "bool"
		case syntax.KindDefTristate:
			return "tristate"
		}
	}
	return ""
}

// menuName returns a Menu node's prompt text, its only unambiguous label.
func menuName(n *syntax.Node) string {
	if len(n.Children) > 0 && n.Children[0].Kind == syntax.KindStringValue {
		return n.Children[0].Name
	}
	return ""
}

func pushScope(scopes []Scope, frame Scope) []Scope {
	next := make([]Scope, len(scopes), len(scopes)+1)
	copy(next, scopes)
	return append(next, frame)
}

// collectSymbols registers every config/menuconfig/choice declaration,
// recursing into menu/if/choice nesting and threading the enclosing scope
// stack down so each declared Symbol records what block(s) it sits inside.
func collectSymbols(idx *Index, n *syntax.Node, scopes []Scope) {
	if n == nil {
		return
	}
	switch n.Kind {
	case syntax.KindConfig:
		idx.declare(nodeName(n), SymbolConfig, declaredType(n), n.Span, n, scopes)
		return
	case syntax.KindMenuConfig:
		idx.declare(nodeName(n), SymbolMenuConfig, declaredType(n), n.Span, n, scopes)
		return
	case syntax.KindChoice:
		idx.declare("", SymbolChoice, declaredType(n), n.Span, n, scopes)
		inner := pushScope(scopes, Scope{Kind: ScopeChoice, Span: n.Span})
		for _, c := range n.Children {
			collectSymbols(idx, c, inner)
		}
		return
	case syntax.KindMenu:
		inner := pushScope(scopes, Scope{Kind: ScopeMenu, Name: menuName(n), Span: n.Span})
		for _, c := range n.Children {
			collectSymbols(idx, c, inner)
		}
		return
	case syntax.KindIf:
		inner := pushScope(scopes, Scope{Kind: ScopeIf, Span: n.Span})
		for _, c := range n.Children {
			collectSymbols(idx, c, inner)
		}
		return
	}
	for _, c := range n.Children {
		collectSymbols(idx, c, scopes)
	}
}

func (idx *Index) resolve(name string) (SymbolID, bool) {
	if keyword.IsTristateLiteral(name) {
		return InvalidSymbolID, false
	}
	return idx.SymbolAt(name)
}

func (idx *Index) recordRef(n *syntax.Node, kind RefKind) {
	if n == nil {
		return
	}
	switch n.Kind {
	case syntax.KindSymbolRef:
		id, _ := idx.resolve(n.Name)
		idx.References = append(idx.References, Reference{Span: n.Span, Name: n.Name, Kind: kind, SymbolID: id})
	case syntax.KindMacroCall:
		idx.References = append(idx.References, Reference{Span: n.Span, Name: n.Name, Kind: kind, SymbolID: InvalidSymbolID, IsMacro: true})
	case syntax.KindLiteral:
		// a bare string/number literal is not a symbol reference
	default:
		for _, c := range n.Children {
			idx.recordRef(c, kind)
		}
	}
}

// collectReferences walks every attribute and expression in the tree,
// recording a Reference for each symbol-shaped name it finds, tagged with
// the syntactic position it came from.
func collectReferences(idx *Index, n *syntax.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case syntax.KindDependsOn:
		if len(n.Children) > 0 {
			idx.recordRef(n.Children[0], RefDependsOn)
		}
	case syntax.KindSelect:
		if len(n.Children) > 0 {
			idx.recordSelectTarget(n.Children[0], RefSelect)
		}
		if len(n.Children) > 1 {
			idx.recordRef(n.Children[1], RefSelect)
		}
	case syntax.KindImply:
		if len(n.Children) > 0 {
			idx.recordSelectTarget(n.Children[0], RefImply)
		}
		if len(n.Children) > 1 {
			idx.recordRef(n.Children[1], RefImply)
		}
	case syntax.KindDefault:
		if len(n.Children) > 0 {
			idx.recordRef(n.Children[0], RefDefault)
		}
		if len(n.Children) > 1 {
			idx.recordRef(n.Children[1], RefDefault)
		}
	case syntax.KindDefBool, syntax.KindDefTristate:
		if len(n.Children) > 0 {
			idx.recordRef(n.Children[0], RefDefType)
		}
		if len(n.Children) > 1 {
			idx.recordRef(n.Children[1], RefDefType)
		}
	case syntax.KindRange:
		for _, c := range n.Children {
			idx.recordRef(c, RefRange)
		}
	case syntax.KindVisibleIf:
		if len(n.Children) > 0 {
			idx.recordRef(n.Children[0], RefVisibleIf)
		}
	case syntax.KindPrompt:
		if len(n.Children) > 1 {
			idx.recordRef(n.Children[1], RefPromptIf)
		}
	case syntax.KindIf:
		if len(n.Children) > 0 {
			idx.recordRef(n.Children[0], RefExpr)
		}
	}
	for _, c := range n.Children {
		collectReferences(idx, c)
	}
}

// recordSelectTarget records the symbol named directly by a select/imply
// attribute, which the parser already shapes as a KindSymbolRef node.
func (idx *Index) recordSelectTarget(n *syntax.Node, kind RefKind) {
	idx.recordRef(n, kind)
}
