package semindex_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/kconfig-ls/pkg/lexer"
	"github.com/walteh/kconfig-ls/pkg/semindex"
	"github.com/walteh/kconfig-ls/pkg/syntax"
)

func build(t *testing.T, src string) *semindex.Index {
	t.Helper()
	toks := lexer.Tokenize([]byte(src))
	tree, diags := syntax.Parse([]byte(src), toks)
	require.Empty(t, diags)
	return semindex.Build(tree)
}

func TestBuildDeclaresSymbols(t *testing.T) {
	idx := build(t, "config FOO\n\tbool \"Foo\"\nconfig BAR\n\tbool \"Bar\"\n")
	require.Len(t, idx.Symbols, 2)
	id, ok := idx.SymbolAt("FOO")
	require.True(t, ok)
	assert.Equal(t, "FOO", idx.Symbol(id).Name)
	assert.Equal(t, []string{"bool"}, idx.Symbol(id).DeclaredTypes)
}

func TestBuildMergesRepeatedDeclarations(t *testing.T) {
	idx := build(t, "config FOO\n\tbool \"Foo\"\nconfig FOO\n\tdefault y\n")
	require.Len(t, idx.Symbols, 1)
	id, _ := idx.SymbolAt("FOO")
	assert.Len(t, idx.Symbol(id).Defs, 2)
}

func TestBuildLinksReferencesToSymbolID(t *testing.T) {
	idx := build(t, "config FOO\n\tbool\n\tdepends on BAR\nconfig BAR\n\tbool\n")
	fooID, _ := idx.SymbolAt("FOO")
	barID, _ := idx.SymbolAt("BAR")
	refs := idx.ReferencesTo(barID)
	require.Len(t, refs, 1)
	assert.Equal(t, semindex.RefDependsOn, refs[0].Kind)
	assert.NotEqual(t, fooID, barID)
}

func TestBuildUndefinedReferenceGetsInvalidID(t *testing.T) {
	idx := build(t, "config FOO\n\tdepends on GHOST\n")
	require.Len(t, idx.References, 1)
	assert.Equal(t, semindex.InvalidSymbolID, idx.References[0].SymbolID)
	assert.Equal(t, "GHOST", idx.References[0].Name)
}

func TestBuildTristateLiteralsAreNotSymbols(t *testing.T) {
	idx := build(t, "config FOO\n\tdefault y\n")
	require.Len(t, idx.References, 1)
	assert.Equal(t, semindex.InvalidSymbolID, idx.References[0].SymbolID)
	_, ok := idx.SymbolAt("y")
	assert.False(t, ok)
}

func TestBuildSelectAndImplyReferences(t *testing.T) {
	idx := build(t, "config FOO\n\tselect BAR if BAZ\n\timply QUX\nconfig BAR\n\tbool\nconfig BAZ\n\tbool\nconfig QUX\n\tbool\n")
	barID, _ := idx.SymbolAt("BAR")
	bazID, _ := idx.SymbolAt("BAZ")
	quxID, _ := idx.SymbolAt("QUX")

	barRefs := idx.ReferencesTo(barID)
	require.Len(t, barRefs, 1)
	assert.Equal(t, semindex.RefSelect, barRefs[0].Kind)

	bazRefs := idx.ReferencesTo(bazID)
	require.Len(t, bazRefs, 1)

	quxRefs := idx.ReferencesTo(quxID)
	require.Len(t, quxRefs, 1)
	assert.Equal(t, semindex.RefImply, quxRefs[0].Kind)
}

func TestBuildAnonymousChoiceIsItsOwnSymbol(t *testing.T) {
	idx := build(t, "choice\n\tprompt \"pick\"\n\tconfig A\n\t\tbool \"A\"\nendchoice\n")
	require.Len(t, idx.Symbols, 2) // the choice itself, plus A
	var sawChoice bool
	for _, s := range idx.Symbols {
		if s.Kind == semindex.SymbolChoice {
			sawChoice = true
			assert.Empty(t, s.Name)
		}
	}
	assert.True(t, sawChoice)
}

func TestBuildMacroReferenceIsMarked(t *testing.T) {
	idx := build(t, "config FOO\n\tdepends on $(success,$(CC))\n")
	require.Len(t, idx.References, 1)
	assert.True(t, idx.References[0].IsMacro)
}

func TestBuildRecordsPromptAndHelp(t *testing.T) {
	idx := build(t, "config FOO\n\tbool \"Foo support\"\n\thelp\n\t  enables foo.\n\t  second line.\n")
	id, ok := idx.SymbolAt("FOO")
	require.True(t, ok)
	sym := idx.Symbol(id)
	assert.Equal(t, "Foo support", sym.Prompt)
	assert.Equal(t, "enables foo.\nsecond line.", sym.Help)
	require.Len(t, sym.HelpSpans, 1)
}

func TestBuildHelpAccumulatesAcrossRepeatedDeclarations(t *testing.T) {
	idx := build(t, "config FOO\n\thelp\n\t  first.\nconfig FOO\n\thelp\n\t  second.\n")
	id, _ := idx.SymbolAt("FOO")
	sym := idx.Symbol(id)
	assert.Equal(t, "first.\n\nsecond.", sym.Help)
	assert.Len(t, sym.HelpSpans, 2)
}

func TestBuildSymbolRecordsEnclosingMenuScope(t *testing.T) {
	idx := build(t, "menu \"M\"\nconfig A\n\tbool\nendmenu\n")
	id, ok := idx.SymbolAt("A")
	require.True(t, ok)
	sym := idx.Symbol(id)
	require.Len(t, sym.Scopes, 1)
	assert.Equal(t, semindex.ScopeMenu, sym.Scopes[0].Kind)
	assert.Equal(t, "M", sym.Scopes[0].Name)
}

func TestBuildSymbolRecordsNestedIfAndChoiceScope(t *testing.T) {
	idx := build(t, "if FOO\nchoice\n\tconfig A\n\t\tbool\nendchoice\nendif\nconfig FOO\n\tbool\n")
	id, ok := idx.SymbolAt("A")
	require.True(t, ok)
	sym := idx.Symbol(id)
	require.Len(t, sym.Scopes, 2)
	assert.Equal(t, semindex.ScopeIf, sym.Scopes[0].Kind)
	assert.Equal(t, semindex.ScopeChoice, sym.Scopes[1].Kind)
}
