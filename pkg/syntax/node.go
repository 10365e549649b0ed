// Package syntax builds the concrete syntax tree for a Kconfig file: a
// single homogeneous Node type tagged by Kind, with flat Children and a
// handful of optional payload fields, rather than a typed enum per
// production. Every Node's Span is the union of its children's spans, and
// parsing never panics: malformed input becomes an Error-kind node plus a
// Diagnostic, and parsing resumes at the next recognizable entry.
package syntax

import "github.com/walteh/kconfig-ls/pkg/token"

// Kind tags what a Node represents.
type Kind uint16

const (
	KindFile Kind = iota

	KindConfig
	KindMenuConfig
	KindChoice
	KindEndChoice
	KindMenu
	KindEndMenu
	KindIf
	KindEndIf
	KindComment
	KindSource
	KindMainMenu

	KindType
	KindPrompt
	KindDefault
	KindDefBool
	KindDefTristate
	KindDependsOn
	KindSelect
	KindImply
	KindVisibleIf
	KindRange
	KindHelp
	KindModules
	KindTransitional
	KindOptional

	KindOr
	KindAnd
	KindNot
	KindCompare
	KindParen
	KindSymbolRef
	KindLiteral
	KindMacroCall

	KindName
	KindStringValue
	KindNumberValue
	KindHelpBlock

	KindError
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "File"
	case KindConfig:
		return "Config"
	case KindMenuConfig:
		return "MenuConfig"
	case KindChoice:
		return "Choice"
	case KindEndChoice:
		return "EndChoice"
	case KindMenu:
		return "Menu"
	case KindEndMenu:
		return "EndMenu"
	case KindIf:
		return "If"
	case KindEndIf:
		return "EndIf"
	case KindComment:
		return "Comment"
	case KindSource:
		return "Source"
	case KindMainMenu:
		return "MainMenu"
	case KindType:
		return "Type"
	case KindPrompt:
		return "Prompt"
	case KindDefault:
		return "Default"
	case KindDefBool:
		return "DefBool"
	case KindDefTristate:
		return "DefTristate"
	case KindDependsOn:
		return "DependsOn"
	case KindSelect:
		return "Select"
	case KindImply:
		return "Imply"
	case KindVisibleIf:
		return "VisibleIf"
	case KindRange:
		return "Range"
	case KindHelp:
		return "Help"
	case KindModules:
		return "Modules"
	case KindTransitional:
		return "Transitional"
	case KindOptional:
		return "Optional"
	case KindOr:
		return "Or"
	case KindAnd:
		return "And"
	case KindNot:
		return "Not"
	case KindCompare:
		return "Compare"
	case KindParen:
		return "Paren"
	case KindSymbolRef:
		return "SymbolRef"
	case KindLiteral:
		return "Literal"
	case KindMacroCall:
		return "MacroCall"
	case KindName:
		return "Name"
	case KindStringValue:
		return "StringValue"
	case KindNumberValue:
		return "NumberValue"
	case KindHelpBlock:
		return "HelpBlock"
	case KindError:
		return "Error"
	default:
		return "Unknown"
	}
}

// CompareOp enumerates the comparison operators an Expr can use.
type CompareOp uint8

const (
	CmpNone CompareOp = iota
	CmpEq
	CmpNotEq
	CmpLess
	CmpLessEq
	CmpGreater
	CmpGreaterEq
)

// SyntaxError annotates a Node that the parser could not fully make sense
// of; the Node still gets a best-effort Span and Kind so traversal never
// needs a nil check.
type SyntaxError struct {
	Message string
	Span    token.Span
}

// Node is the single type used for every production in the tree. Which
// payload fields are meaningful depends on Kind; unused fields are left at
// their zero value.
type Node struct {
	Kind     Kind
	Span     token.Span
	Children []*Node
	Err      *SyntaxError

	// Name carries an identifier/symbol name (Name, SymbolRef), decoded string content (StringValue, Literal when
	// quoted, MacroCall's raw "$(...)" text), a number's digits
	// (NumberValue, Literal when unquoted), the help block's dedented text
	// (HelpBlock), or a type spelling (Type: "bool"/"tristate"/...).
	Name string

	// Quote is set on StringValue/Literal to the delimiting quote byte.
	Quote byte

	// CompareOp is set on KindCompare.
	CompareOp CompareOp

	// Legacy marks a Help node introduced via the "---help---" spelling.
	Legacy bool
}

// NewError builds a Kind-tagged error node covering span, so that a parse
// failure still has somewhere to live in the tree.
func NewError(span token.Span, message string) *Node {
	return &Node{
		Kind: KindError,
		Span: span,
		Err:  &SyntaxError{Message: message, Span: span},
	}
}

func childrenSpan(children []*Node, fallback token.Span) token.Span {
	if len(children) == 0 {
		return fallback
	}
	s := children[0].Span
	for _, c := range children[1:] {
		s = s.Merge(c.Span)
	}
	return s.Merge(fallback)
}

// Walk visits n and every descendant, depth-first, pre-order.
func Walk(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, c := range n.Children {
		Walk(c, visit)
	}
}

// FindAt returns the deepest node whose span contains offset (span
// boundaries are treated as inclusive on both ends so a cursor sitting
// right after the last character of a token still resolves to it), or nil
// if offset falls outside the tree entirely.
func FindAt(root *Node, offset int) *Node {
	if root == nil {
		return nil
	}
	var best *Node
	var search func(*Node)
	search = func(n *Node) {
		if n == nil || offset < n.Span.Lo || offset > n.Span.Hi {
			return
		}
		best = n
		for _, c := range n.Children {
			search(c)
		}
	}
	search(root)
	return best
}

// Path returns every node from root down to the deepest node containing
// offset, in outer-to-inner order. The last element is the same node
// FindAt would return.
func Path(root *Node, offset int) []*Node {
	var path []*Node
	var search func(*Node)
	search = func(n *Node) {
		if n == nil || offset < n.Span.Lo || offset > n.Span.Hi {
			return
		}
		path = append(path, n)
		for _, c := range n.Children {
			search(c)
		}
	}
	search(root)
	return path
}
