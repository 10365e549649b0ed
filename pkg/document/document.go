// Package document owns the per-file state the LSP server and CLI both work
// from: a URI, its current text, and the tokens/tree/index derived from
// that text. Derived state is recomputed whenever the content changes
// rather than patched incrementally, matching the "nothing survives a
// content change" invariant the query layer relies on.
package document

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/xid"

	"github.com/walteh/kconfig-ls/pkg/lexer"
	"github.com/walteh/kconfig-ls/pkg/semindex"
	"github.com/walteh/kconfig-ls/pkg/syntax"
	"github.com/walteh/kconfig-ls/pkg/token"
)

// Document is one open Kconfig file and everything derived from its
// current text.
type Document struct {
	URI     string
	Version int32
	Content string

	// Revision changes every time Reparse runs, so a caller holding a
	// *Document from before an edit can tell its view is stale without
	// comparing the full text.
	Revision uuid.UUID

	Tokens      []token.Token
	Tree        *syntax.Node
	Diagnostics []syntax.Diagnostic
	Index       *semindex.Index
	LineIndex   *token.LineIndex
}

// New builds a Document and performs its first parse.
func New(uri, content string, version int32) *Document {
	d := &Document{URI: uri, Version: version}
	d.Reparse(content)
	return d
}

// Reparse replaces the document's content and rebuilds every derived field
// from scratch: tokens, tree, diagnostics, semantic index, and line index.
func (d *Document) Reparse(content string) {
	d.Content = content
	d.Revision = uuid.New()
	src := []byte(content)
	d.Tokens = lexer.Tokenize(src)
	d.Tree, d.Diagnostics = syntax.Parse(src, d.Tokens)
	d.Index = semindex.Build(d.Tree)
	d.LineIndex = token.NewLineIndex(src)
}

// Manager is the server-wide store of open documents, keyed by URI.
type Manager struct {
	mu       sync.RWMutex
	docs     map[string]*Document
	instance string
}

// NewManager returns an empty Manager. instance is a short id (wired via
// rs/xid, matching the server's own instance-id convention) exposed through
// InstanceID for log correlation.
func NewManager() *Manager {
	return &Manager{docs: map[string]*Document{}, instance: xid.New().String()}
}

// InstanceID returns this manager's log-correlation id.
func (m *Manager) InstanceID() string { return m.instance }

// Open creates or replaces the Document at uri with content/version.
func (m *Manager) Open(uri, content string, version int32) *Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := New(uri, content, version)
	m.docs[uri] = d
	return d
}

// Update reparses the Document at uri with new content, returning false if
// the document was never opened.
func (m *Manager) Update(uri, content string, version int32) (*Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[uri]
	if !ok {
		return nil, false
	}
	d.Version = version
	d.Reparse(content)
	return d, true
}

// Close drops the Document at uri.
func (m *Manager) Close(uri string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, uri)
}

// Get returns the Document at uri, if open.
func (m *Manager) Get(uri string) (*Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[uri]
	return d, ok
}

// All returns every currently open Document, in no particular order.
func (m *Manager) All() []*Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Document, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, d)
	}
	return out
}
