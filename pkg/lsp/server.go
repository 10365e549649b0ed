package lsp

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/fsnotify.v1"

	"github.com/walteh/kconfig-ls/pkg/document"
	"github.com/walteh/kconfig-ls/pkg/lsp/protocol"
	"github.com/walteh/kconfig-ls/pkg/query"
	"github.com/walteh/kconfig-ls/pkg/syntax"
	"github.com/walteh/kconfig-ls/pkg/token"
)

// normalizeURI strips the file:// scheme LSP URIs carry so the rest of the
// server can key documents by plain filesystem path.
func normalizeURI(uri string) string {
	uri = strings.TrimPrefix(uri, "file://")
	uri = strings.TrimPrefix(uri, "file:")
	return uri
}

var _ protocol.Server = (*Server)(nil)

// Server implements protocol.Server against the document/query packages:
// every request is a parse-state lookup followed by a pure query.HoverAt/
// CompleteAt/DefinitionAt/ReferencesAt/Diagnostics call, never a mutation.
type Server struct {
	documents *DocumentManager

	workspace          string
	workspaceFSWatcher *fsnotify.Watcher

	initialized bool
	shutdown    bool

	id string

	clientCapabilities protocol.ClientCapabilities
	serverCapabilities protocol.ServerCapabilities

	cancelFuncs *sync.Map // map[string]context.CancelFunc

	callbackClient protocol.Client
}

func NewServer(ctx context.Context) *Server {
	return &Server{
		id:          xid.New().String(),
		documents:   NewDocumentManager(),
		cancelFuncs: &sync.Map{},
	}
}

func (s *Server) SetCallbackClient(client protocol.Client) {
	s.callbackClient = client
}

func (s *Server) Documents() *DocumentManager {
	return s.documents
}

func (s *Server) Initialize(ctx context.Context, params *protocol.ParamInitialize) (*protocol.InitializeResult, error) {
	logger := zerolog.Ctx(ctx)

	s.clientCapabilities = params.Capabilities
	if params.RootURI != "" {
		s.workspace = normalizeURI(string(params.RootURI))
		if watcher, err := fsnotify.NewWatcher(); err != nil {
			logger.Warn().Err(err).Msg("failed to start workspace filesystem watcher")
		} else if err := watcher.Add(s.workspace); err != nil {
			logger.Warn().Err(err).Str("workspace", s.workspace).Msg("failed to watch workspace root")
			watcher.Close()
		} else {
			s.workspaceFSWatcher = watcher
			go s.watchWorkspace(ctx)
		}
	}

	s.serverCapabilities = protocol.ServerCapabilities{
		TextDocumentSync: protocol.TextDocumentSyncOptions{
			OpenClose: true,
			Change:    protocol.Full,
		},
		HoverProvider: true,
		CompletionProvider: &protocol.CompletionOptions{
			TriggerCharacters: []string{" ", "\t"},
		},
		DefinitionProvider: true,
		ReferencesProvider: true,
		DiagnosticProvider: &protocol.DiagnosticOptions{
			Identifier:            "kconfig-ls",
			InterFileDependencies: false,
			WorkspaceDiagnostics:  false,
		},
	}

	return &protocol.InitializeResult{
		Capabilities: s.serverCapabilities,
		ServerInfo:   &protocol.ServerInfo{Name: "kconfig-ls"},
	}, nil
}

func (s *Server) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	zerolog.Ctx(ctx).Debug().Str("instance", s.id).Msg("server initialized")
	s.initialized = true
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdown = true
	if s.workspaceFSWatcher != nil {
		return s.workspaceFSWatcher.Close()
	}
	return nil
}

func (s *Server) Exit(ctx context.Context) error {
	return nil
}

// watchWorkspace republishes diagnostics for any open document whose
// underlying file changes on disk outside the editor (a sourced fragment
// edited by another tool, a generated Kconfig regenerated by the build).
func (s *Server) watchWorkspace(ctx context.Context) {
	logger := zerolog.Ctx(ctx)
	for {
		select {
		case ev, ok := <-s.workspaceFSWatcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if doc, ok := s.documents.inner.Get(normalizeURI(ev.Name)); ok {
				s.publishDiagnostics(protocol.Detach(ctx), protocol.DocumentURI(doc.URI), doc)
			}
		case err, ok := <-s.workspaceFSWatcher.Errors:
			if !ok {
				return
			}
			logger.Warn().Err(err).Msg("workspace filesystem watcher error")
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	doc := s.documents.Open(params.TextDocument.URI, params.TextDocument.Text, params.TextDocument.Version)
	s.publishDiagnostics(ctx, params.TextDocument.URI, doc)
	return nil
}

func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	// The server advertises Full sync, so every change event carries the
	// document's entire new text; only the last one matters.
	text := params.ContentChanges[len(params.ContentChanges)-1].Text
	doc, ok := s.documents.Update(protocol.DocumentURI(params.TextDocument.URI), text, params.TextDocument.Version)
	if !ok {
		return errors.Errorf("document not open: %s", params.TextDocument.URI)
	}
	s.publishDiagnostics(ctx, protocol.DocumentURI(params.TextDocument.URI), doc)
	return nil
}

func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.documents.Delete(string(params.TextDocument.URI))
	return nil
}

func (s *Server) DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	return nil
}

func (s *Server) publishDiagnostics(ctx context.Context, uri protocol.DocumentURI, doc *document.Document) {
	if s.callbackClient == nil {
		return
	}
	diags := query.Diagnostics(doc)
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, toProtocolDiagnostic(doc, d))
	}
	if err := s.callbackClient.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Version:     doc.Version,
		Diagnostics: protocol.NonNilSlice(out),
	}); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("uri", string(uri)).Msg("failed to publish diagnostics")
	}
}

func toProtocolDiagnostic(doc *document.Document, d query.Diagnostic) protocol.Diagnostic {
	return protocol.Diagnostic{
		Range:    toProtocolRange(doc, d.Span),
		Severity: toProtocolSeverity(d.Severity),
		Source:   "kconfig-ls",
		Message:  d.Message,
	}
}

func toProtocolSeverity(sev syntax.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case syntax.SeverityError:
		return protocol.SeverityError
	case syntax.SeverityWarning:
		return protocol.SeverityWarning
	default:
		return protocol.SeverityInformation
	}
}

func toProtocolRange(doc *document.Document, span token.Span) protocol.Range {
	startLine, startCol := doc.LineIndex.LineCol(span.Lo)
	endLine, endCol := doc.LineIndex.LineCol(span.Hi)
	return protocol.Range{
		Start: protocol.Position{Line: uint32(startLine), Character: uint32(startCol)},
		End:   protocol.Position{Line: uint32(endLine), Character: uint32(endCol)},
	}
}

func offsetOf(doc *document.Document, pos protocol.Position) int {
	return doc.LineIndex.Offset(int(pos.Line), int(pos.Character))
}

func (s *Server) Hover(ctx context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, errors.Errorf("document not found: %s", params.TextDocument.URI)
	}
	h, ok := query.HoverAt(doc, offsetOf(doc, params.Position))
	if !ok {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: "markdown", Value: h.Contents},
		Range:    toProtocolRange(doc, h.Span),
	}, nil
}

func (s *Server) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, errors.Errorf("document not found: %s", params.TextDocument.URI)
	}
	items := query.CompleteAt(doc, offsetOf(doc, params.Position))
	out := make([]protocol.CompletionItem, 0, len(items))
	for _, it := range items {
		ci := protocol.CompletionItem{Label: it.Label}
		if it.Kind == query.ItemKeyword {
			ci.Kind = protocol.CompletionItemKindKeyword
		} else {
			ci.Kind = protocol.CompletionItemKindVariable
		}
		if it.Detail != "" {
			ci.Documentation = &protocol.MarkupContent{Kind: "markdown", Value: it.Detail}
		}
		out = append(out, ci)
	}
	return &protocol.CompletionList{Items: out}, nil
}

func (s *Server) Definition(ctx context.Context, params *protocol.DefinitionParams) ([]protocol.Location, error) {
	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, errors.Errorf("document not found: %s", params.TextDocument.URI)
	}
	spans, ok := query.DefinitionAt(doc, offsetOf(doc, params.Position))
	if !ok {
		return nil, nil
	}
	return toLocations(doc, params.TextDocument.URI, spans), nil
}

func (s *Server) References(ctx context.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, errors.Errorf("document not found: %s", params.TextDocument.URI)
	}
	spans, ok := query.ReferencesAt(doc, offsetOf(doc, params.Position), params.Context.IncludeDeclaration)
	if !ok {
		return nil, nil
	}
	return toLocations(doc, params.TextDocument.URI, spans), nil
}

func toLocations(doc *document.Document, uri protocol.DocumentURI, spans []token.Span) []protocol.Location {
	out := make([]protocol.Location, 0, len(spans))
	for _, span := range spans {
		out = append(out, protocol.Location{URI: uri, Range: toProtocolRange(doc, span)})
	}
	return out
}

func (s *Server) Diagnostic(ctx context.Context, params *protocol.DocumentDiagnosticParams) (*protocol.DocumentDiagnosticReport, error) {
	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, errors.Errorf("document not found: %s", params.TextDocument.URI)
	}
	diags := query.Diagnostics(doc)
	items := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		items = append(items, toProtocolDiagnostic(doc, d))
	}
	return &protocol.DocumentDiagnosticReport{
		FullDocumentDiagnosticReport: protocol.FullDocumentDiagnosticReport{
			Kind:  "full",
			Items: protocol.NonNilSlice(items),
		},
	}, nil
}
