// Package keyword holds the static catalog of Kconfig reserved words: their
// spellings, the syntax kind each belongs to, which entry types they're
// legal inside, and the hover documentation shown for each. The lexer,
// parser, and query layer all consult this one table instead of hardcoding
// keyword spellings of their own.
package keyword

// Kind identifies a single reserved word, independent of how it was spelled
// in the source (a legacy "---help---" and a modern "help" both resolve to
// Help).
type Kind uint8

const (
	Config Kind = iota
	MenuConfig
	Choice
	EndChoice
	Comment
	Menu
	EndMenu
	If
	EndIf
	Source
	MainMenu

	Bool
	Tristate
	StringType
	Hex
	Int

	Prompt
	Default
	DefBool
	DefTristate
	Depends
	On
	Select
	Imply
	Visible
	Range
	Help
	Modules
	Transitional
	Optional
)

// Category groups keywords by the syntactic role they play.
type Category uint8

const (
	CategoryEntry Category = iota
	CategoryType
	CategoryAttribute
	CategoryMarker
)

// Context is a bitset of the entry kinds a keyword is legal inside, used by
// the completion provider to filter suggestions to the current position.
type Context uint16

const (
	InConfig Context = 1 << iota
	InMenuConfig
	InChoice
	InMenu
	InComment
	InIf
	InTopLevel
)

const attrsOnSymbols = InConfig | InMenuConfig | InChoice

// Info is one catalog row: a spelling, the Kind it resolves to, its
// category, where it's legal, and the markdown shown on hover.
type Info struct {
	Spelling string
	Kind     Kind
	Category Category
	Allowed  Context
	Legacy   bool
	HelpText string
}

const nestableEntry = InTopLevel | InMenu | InIf
const choiceMemberEntry = nestableEntry | InChoice

var catalog = []Info{
	{Spelling: "config", Kind: Config, Category: CategoryEntry, Allowed: choiceMemberEntry, HelpText: "`config NAME`\n\nDeclares a configuration symbol. Followed by attribute lines (type, prompt, default, depends on, select, help, ...) indented under it."},
	{Spelling: "menuconfig", Kind: MenuConfig, Category: CategoryEntry, Allowed: choiceMemberEntry, HelpText: "`menuconfig NAME`\n\nLike `config`, but hints the frontend to render this symbol's dependents as a collapsible submenu."},
	{Spelling: "choice", Kind: Choice, Category: CategoryEntry, Allowed: nestableEntry, HelpText: "`choice ... endchoice`\n\nGroups a set of boolean/tristate symbols so that at most one (or exactly one, for `bool` choices) can be selected."},
	{Spelling: "endchoice", Kind: EndChoice, Category: CategoryMarker, Allowed: InChoice, HelpText: "Closes the nearest open `choice` block."},
	{Spelling: "comment", Kind: Comment, Category: CategoryEntry, Allowed: choiceMemberEntry, HelpText: "`comment \"text\"`\n\nA line of text shown in the configuration UI; carries no symbol of its own, but can have `depends on`."},
	{Spelling: "menu", Kind: Menu, Category: CategoryEntry, Allowed: nestableEntry, HelpText: "`menu \"title\" ... endmenu`\n\nGroups entries under a named submenu."},
	{Spelling: "endmenu", Kind: EndMenu, Category: CategoryMarker, Allowed: InMenu, HelpText: "Closes the nearest open `menu` block."},
	{Spelling: "if", Kind: If, Category: CategoryEntry, Allowed: nestableEntry, HelpText: "`if EXPR ... endif`\n\nMakes every entry nested inside implicitly depend on EXPR."},
	{Spelling: "endif", Kind: EndIf, Category: CategoryMarker, Allowed: InIf, HelpText: "Closes the nearest open `if` block."},
	{Spelling: "source", Kind: Source, Category: CategoryEntry, Allowed: nestableEntry, HelpText: "`source \"path\"`\n\nTextually includes another Kconfig file; path may contain shell-style globs and `$(VAR)` expansions."},
	{Spelling: "mainmenu", Kind: MainMenu, Category: CategoryEntry, Allowed: InTopLevel, HelpText: "`mainmenu \"title\"`\n\nSets the title shown at the root of the configuration UI."},

	{Spelling: "bool", Kind: Bool, Category: CategoryType, Allowed: attrsOnSymbols, HelpText: "Declares the symbol's type as boolean (`y`/`n`)."},
	{Spelling: "tristate", Kind: Tristate, Category: CategoryType, Allowed: attrsOnSymbols, HelpText: "Declares the symbol's type as tristate (`y`/`m`/`n`)."},
	{Spelling: "string", Kind: StringType, Category: CategoryType, Allowed: attrsOnSymbols, HelpText: "Declares the symbol's type as a free-form string."},
	{Spelling: "hex", Kind: Hex, Category: CategoryType, Allowed: attrsOnSymbols, HelpText: "Declares the symbol's type as an unsigned hexadecimal integer."},
	{Spelling: "int", Kind: Int, Category: CategoryType, Allowed: attrsOnSymbols, HelpText: "Declares the symbol's type as a signed decimal integer."},

	{Spelling: "prompt", Kind: Prompt, Category: CategoryAttribute, Allowed: attrsOnSymbols | InComment, HelpText: "`prompt \"text\" [if EXPR]`\n\nSets (or overrides) the text shown for this symbol in the configuration UI, optionally gated by EXPR."},
	{Spelling: "default", Kind: Default, Category: CategoryAttribute, Allowed: attrsOnSymbols, HelpText: "`default VALUE [if EXPR]`\n\nSets the symbol's default value when no higher-priority default or user choice applies. Multiple defaults may stack; the first whose condition holds wins."},
	{Spelling: "def_bool", Kind: DefBool, Category: CategoryAttribute, Allowed: attrsOnSymbols, HelpText: "`def_bool VALUE [if EXPR]`\n\nShorthand for `bool` plus a `default`."},
	{Spelling: "def_tristate", Kind: DefTristate, Category: CategoryAttribute, Allowed: attrsOnSymbols, HelpText: "`def_tristate VALUE [if EXPR]`\n\nShorthand for `tristate` plus a `default`."},
	{Spelling: "depends", Kind: Depends, Category: CategoryAttribute, Allowed: attrsOnSymbols | InComment, HelpText: "`depends on EXPR`\n\nAdds EXPR as a prerequisite for every prompt, default, select, and implied value on this symbol."},
	{Spelling: "on", Kind: On, Category: CategoryMarker, Allowed: attrsOnSymbols | InComment, HelpText: "Pairs with `depends` to form `depends on EXPR`."},
	{Spelling: "select", Kind: Select, Category: CategoryAttribute, Allowed: attrsOnSymbols, HelpText: "`select OTHER [if EXPR]`\n\nForces OTHER to `y` (or `m`, per OTHER's type) whenever this symbol is set, ignoring OTHER's own dependencies."},
	{Spelling: "imply", Kind: Imply, Category: CategoryAttribute, Allowed: attrsOnSymbols, HelpText: "`imply OTHER [if EXPR]`\n\nLike `select`, but yields to OTHER's own dependencies and to an explicit user choice."},
	{Spelling: "visible", Kind: Visible, Category: CategoryAttribute, Allowed: attrsOnSymbols, HelpText: "`visible if EXPR`\n\nGates whether this symbol's prompt is shown, without affecting its value the way `depends on` does."},
	{Spelling: "range", Kind: Range, Category: CategoryAttribute, Allowed: attrsOnSymbols, HelpText: "`range LOW HIGH [if EXPR]`\n\nConstrains an `int`/`hex` symbol's value to [LOW, HIGH]."},
	{Spelling: "help", Kind: Help, Category: CategoryAttribute, Allowed: attrsOnSymbols | InComment, HelpText: "`help` followed by an indented block of free text describing the symbol; ends at the first non-blank line indented less than the block's first line of text."},
	{Spelling: "---help---", Kind: Help, Category: CategoryAttribute, Allowed: attrsOnSymbols | InComment, Legacy: true, HelpText: "Legacy spelling of `help`. Prefer `help`."},
	{Spelling: "modules", Kind: Modules, Category: CategoryAttribute, Allowed: InTopLevel, HelpText: "Marks this file's symbols as eligible for module (`m`) builds. Historical; rarely used outside the root Kconfig."},
	{Spelling: "transitional", Kind: Transitional, Category: CategoryAttribute, Allowed: attrsOnSymbols, HelpText: "Marks a `choice` symbol as transitional, hiding it once it is no longer selected."},
	{Spelling: "optional", Kind: Optional, Category: CategoryAttribute, Allowed: InChoice, HelpText: "Allows a `choice` to have no member selected."},
}

var bySpelling = func() map[string]Info {
	m := make(map[string]Info, len(catalog))
	for _, info := range catalog {
		m[info.Spelling] = info
	}
	return m
}()

var byKind = func() map[Kind][]Info {
	m := make(map[Kind][]Info)
	for _, info := range catalog {
		m[info.Kind] = append(m[info.Kind], info)
	}
	return m
}()

// Lookup resolves an exact spelling to its catalog entry.
func Lookup(spelling string) (Info, bool) {
	info, ok := bySpelling[spelling]
	return info, ok
}

// Canonical returns the non-legacy spelling for a Kind, e.g. Help -> "help".
func Canonical(k Kind) (Info, bool) {
	for _, info := range byKind[k] {
		if !info.Legacy {
			return info, true
		}
	}
	if infos := byKind[k]; len(infos) > 0 {
		return infos[0], true
	}
	return Info{}, false
}

// All returns every catalog row, in declaration order.
func All() []Info {
	out := make([]Info, len(catalog))
	copy(out, catalog)
	return out
}

// Completions returns the spellings legal at the given context, skipping
// legacy forms so completion lists only ever offer the modern spelling.
func Completions(ctx Context) []Info {
	var out []Info
	for _, info := range catalog {
		if info.Legacy {
			continue
		}
		if info.Allowed&ctx != 0 {
			out = append(out, info)
		}
	}
	return out
}

// IsTristateLiteral reports whether name is one of the three built-in
// tristate values, which are always defined and never require a symbol
// declaration of their own.
func IsTristateLiteral(name string) bool {
	return name == "y" || name == "n" || name == "m"
}
