package lsp

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/kconfig-ls/pkg/lsp/protocol"
)

// fakeClient records every callback the server sends back, so tests can
// assert on published diagnostics without a real JSON-RPC connection.
type fakeClient struct {
	published []*protocol.PublishDiagnosticsParams
}

func (f *fakeClient) PublishDiagnostics(ctx context.Context, params *protocol.PublishDiagnosticsParams) error {
	f.published = append(f.published, params)
	return nil
}

func (f *fakeClient) LogMessage(ctx context.Context, params *protocol.LogMessageParams) error {
	return nil
}

func (f *fakeClient) ShowMessage(ctx context.Context, params *protocol.ShowMessageParams) error {
	return nil
}

func (f *fakeClient) Event(ctx context.Context, params *any) error {
	return nil
}

var _ protocol.Client = (*fakeClient)(nil)

func newOpenedServer(t *testing.T, uri, src string) (*Server, *fakeClient) {
	t.Helper()
	ctx := context.Background()
	s := NewServer(ctx)
	client := &fakeClient{}
	s.SetCallbackClient(client)

	_, err := s.Initialize(ctx, &protocol.ParamInitialize{})
	require.NoError(t, err)
	require.NoError(t, s.Initialized(ctx, &protocol.InitializedParams{}))

	require.NoError(t, s.DidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: protocol.DocumentURI(uri), Text: src, Version: 1},
	}))

	return s, client
}

func posOf(src, substr string) protocol.Position {
	idx := strings.Index(src, substr)
	line := strings.Count(src[:idx], "\n")
	col := idx - strings.LastIndex(src[:idx], "\n") - 1
	return protocol.Position{Line: uint32(line), Character: uint32(col)}
}

func posOfLast(src, substr string) protocol.Position {
	idx := strings.LastIndex(src, substr)
	line := strings.Count(src[:idx], "\n")
	col := idx - strings.LastIndex(src[:idx], "\n") - 1
	return protocol.Position{Line: uint32(line), Character: uint32(col)}
}

func TestServerInitializeAdvertisesCapabilities(t *testing.T) {
	ctx := context.Background()
	s := NewServer(ctx)

	result, err := s.Initialize(ctx, &protocol.ParamInitialize{RootURI: "file:///workspace"})
	require.NoError(t, err)
	assert.True(t, result.Capabilities.HoverProvider)
	assert.True(t, result.Capabilities.DefinitionProvider)
	assert.True(t, result.Capabilities.ReferencesProvider)
	assert.NotNil(t, result.Capabilities.CompletionProvider)
	assert.NotNil(t, result.Capabilities.DiagnosticProvider)
}

func TestDidOpenPublishesDiagnostics(t *testing.T) {
	src := "config FOO\n\tdepends on GHOST\n"
	_, client := newOpenedServer(t, "file:///Kconfig", src)

	require.Len(t, client.published, 1)
	assert.Len(t, client.published[0].Diagnostics, 1)
	assert.Contains(t, client.published[0].Diagnostics[0].Message, "GHOST")
}

func TestDidChangeReparsesAndRepublishes(t *testing.T) {
	ctx := context.Background()
	src := "config FOO\n\tdepends on GHOST\n"
	s, client := newOpenedServer(t, "file:///Kconfig", src)

	fixed := "config FOO\n\tbool\n"
	err := s.DidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: "file:///Kconfig"},
			Version:                2,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: fixed}},
	})
	require.NoError(t, err)
	require.Len(t, client.published, 2)
	assert.Empty(t, client.published[1].Diagnostics)
}

func TestDidChangeOnUnopenedDocumentErrors(t *testing.T) {
	ctx := context.Background()
	s := NewServer(ctx)
	s.SetCallbackClient(&fakeClient{})

	err := s.DidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: "file:///nope.Kconfig"},
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: "config FOO\n"}},
	})
	assert.Error(t, err)
}

func TestHoverReturnsSymbolInfo(t *testing.T) {
	ctx := context.Background()
	src := "config FOO\n\tbool \"Foo\"\nconfig BAR\n\tdepends on FOO\n"
	s, _ := newOpenedServer(t, "file:///Kconfig", src)

	hover, err := s.Hover(ctx, protocol.NewHoverParams("file:///Kconfig", posOfLast(src, "FOO")))
	require.NoError(t, err)
	require.NotNil(t, hover)
	assert.Contains(t, hover.Contents.Value, "FOO")
}

func TestDefinitionFindsDeclaration(t *testing.T) {
	ctx := context.Background()
	src := "config FOO\n\tbool\nconfig BAR\n\tdepends on FOO\n"
	s, _ := newOpenedServer(t, "file:///Kconfig", src)

	locs, err := s.Definition(ctx, &protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///Kconfig"},
			Position:     posOf(src, "FOO\n"),
		},
	})
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, protocol.DocumentURI("file:///Kconfig"), locs[0].URI)
}

func TestReferencesHonorsIncludeDeclaration(t *testing.T) {
	ctx := context.Background()
	src := "config FOO\n\tbool\nconfig BAR\n\tdepends on FOO\n\tselect FOO\n"
	s, _ := newOpenedServer(t, "file:///Kconfig", src)

	params := &protocol.ReferenceParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///Kconfig"},
			Position:     posOf(src, "FOO\n\tbool"),
		},
		Context: protocol.ReferenceContext{IncludeDeclaration: true},
	}
	withDecl, err := s.References(ctx, params)
	require.NoError(t, err)
	assert.Len(t, withDecl, 3)

	params.Context.IncludeDeclaration = false
	withoutDecl, err := s.References(ctx, params)
	require.NoError(t, err)
	assert.Len(t, withoutDecl, 2)
}

func TestCompletionOffersDeclaredSymbols(t *testing.T) {
	ctx := context.Background()
	src := "config FOO\n\tbool\nconfig BAR\n\t"
	s, _ := newOpenedServer(t, "file:///Kconfig", src)

	list, err := s.Completion(ctx, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///Kconfig"},
			Position:     protocol.Position{Line: 3, Character: 1},
		},
	})
	require.NoError(t, err)
	var labels []string
	for _, item := range list.Items {
		labels = append(labels, item.Label)
	}
	assert.Contains(t, labels, "FOO")
}

func TestDiagnosticOnUnknownDocumentErrors(t *testing.T) {
	ctx := context.Background()
	s := NewServer(ctx)
	_, err := s.Diagnostic(ctx, &protocol.DocumentDiagnosticParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///missing.Kconfig"},
	})
	assert.Error(t, err)
}

func TestShutdownAndExit(t *testing.T) {
	ctx := context.Background()
	s := NewServer(ctx)
	require.NoError(t, s.Shutdown(ctx))
	assert.True(t, s.shutdown)
	require.NoError(t, s.Exit(ctx))
}
