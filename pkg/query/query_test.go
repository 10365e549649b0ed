package query_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/kconfig-ls/pkg/document"
	"github.com/walteh/kconfig-ls/pkg/query"
)

func TestHoverAtSymbolReference(t *testing.T) {
	src := "config FOO\n\tbool \"Foo\"\nconfig BAR\n\tdepends on FOO\n"
	doc := document.New("file:///Kconfig", src, 1)
	offset := strings.LastIndex(src, "FOO")
	hover, ok := query.HoverAt(doc, offset)
	require.True(t, ok)
	assert.Contains(t, hover.Contents, "FOO")
	assert.Contains(t, hover.Contents, "config")
}

func TestHoverAtSymbolReferenceIncludesPromptAndHelp(t *testing.T) {
	src := "config FOO\n\tbool \"Foo support\"\n\thelp\n\t  enables foo.\nconfig BAR\n\tdepends on FOO\n"
	doc := document.New("file:///Kconfig", src, 1)
	offset := strings.LastIndex(src, "FOO")
	hover, ok := query.HoverAt(doc, offset)
	require.True(t, ok)
	assert.Contains(t, hover.Contents, "Foo support")
	assert.Contains(t, hover.Contents, "enables foo.")
	assert.Contains(t, hover.Contents, "`bool`")
}

func TestHoverAtKeyword(t *testing.T) {
	src := "config FOO\n\tdepends on BAR\nconfig BAR\n\tbool\n"
	doc := document.New("file:///Kconfig", src, 1)
	offset := strings.Index(src, "depends")
	hover, ok := query.HoverAt(doc, offset)
	require.True(t, ok)
	assert.Contains(t, hover.Contents, "depends on")
}

func TestDefinitionAtFindsDeclaration(t *testing.T) {
	src := "config FOO\n\tbool\nconfig BAR\n\tdepends on FOO\n"
	doc := document.New("file:///Kconfig", src, 1)
	offset := strings.LastIndex(src, "FOO")
	spans, ok := query.DefinitionAt(doc, offset)
	require.True(t, ok)
	require.Len(t, spans, 1)
	assert.Equal(t, src[spans[0].Lo:spans[0].Lo+6], "config")
}

func TestReferencesAtIncludesDeclarationWhenRequested(t *testing.T) {
	src := "config FOO\n\tbool\nconfig BAR\n\tdepends on FOO\n\tselect FOO\n"
	doc := document.New("file:///Kconfig", src, 1)
	offset := strings.Index(src, "FOO")

	withDecl, ok := query.ReferencesAt(doc, offset, true)
	require.True(t, ok)
	assert.Len(t, withDecl, 3) // 1 declaration + 2 usages

	withoutDecl, ok := query.ReferencesAt(doc, offset, false)
	require.True(t, ok)
	assert.Len(t, withoutDecl, 2)
}

func TestCompleteAtOffersAttributeKeywordsInsideConfig(t *testing.T) {
	src := "config FOO\n\tbool \"Foo\"\n\t"
	doc := document.New("file:///Kconfig", src, 1)
	items := query.CompleteAt(doc, len(src))
	var labels []string
	for _, it := range items {
		labels = append(labels, it.Label)
	}
	assert.Contains(t, labels, "depends")
	assert.Contains(t, labels, "help")
	assert.NotContains(t, labels, "---help---")
}

func TestCompleteAtOffersDeclaredSymbolNames(t *testing.T) {
	src := "config FOO\n\tbool\nconfig BAR\n\t"
	doc := document.New("file:///Kconfig", src, 1)
	items := query.CompleteAt(doc, len(src))
	var labels []string
	for _, it := range items {
		labels = append(labels, it.Label)
	}
	assert.Contains(t, labels, "FOO")
	assert.Contains(t, labels, "BAR")
}

func TestCompleteAtNarrowsToSymbolsAfterDependsOn(t *testing.T) {
	src := "config FOO\n\tbool\nconfig BAR\n\tdepends on "
	doc := document.New("file:///Kconfig", src, 1)
	items := query.CompleteAt(doc, len(src))
	var sawKeyword bool
	var labels []string
	for _, it := range items {
		labels = append(labels, it.Label)
		if it.Kind == query.ItemKeyword {
			sawKeyword = true
		}
	}
	assert.False(t, sawKeyword, "expression position should not offer keywords")
	assert.Contains(t, labels, "FOO")
}

func TestCompleteAtFileStartOffersOnlyEntryKeywords(t *testing.T) {
	doc := document.New("file:///Kconfig", "", 1)
	items := query.CompleteAt(doc, 0)
	require.NotEmpty(t, items)
	for _, it := range items {
		assert.Equal(t, query.ItemKeyword, it.Kind)
	}
}

func TestDiagnosticsFlagsUndefinedSymbol(t *testing.T) {
	src := "config FOO\n\tdepends on GHOST\n"
	doc := document.New("file:///Kconfig", src, 1)
	diags := query.Diagnostics(doc)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "GHOST")
}

func TestDiagnosticsIgnoresTristateAndWellKnownSymbols(t *testing.T) {
	src := "config FOO\n\tdefault y\n\tdepends on MODULES\n"
	doc := document.New("file:///Kconfig", src, 1)
	diags := query.Diagnostics(doc)
	assert.Empty(t, diags)
}
