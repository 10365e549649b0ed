package lsp

import (
	"io"
	"os"

	"github.com/walteh/kconfig-ls/pkg/document"
	"github.com/walteh/kconfig-ls/pkg/lsp/protocol"
)

// DocumentManager adapts document.Manager to LSP's protocol.DocumentURI type
// and adds the filesystem fallback a language server needs when a client
// asks about a file it never sent a didOpen for (e.g. a sourced Kconfig
// fragment opened only by virtue of being referenced, not edited).
type DocumentManager struct {
	inner *document.Manager
}

func NewDocumentManager() *DocumentManager {
	return &DocumentManager{inner: document.NewManager()}
}

func (m *DocumentManager) Get(uri protocol.DocumentURI) (*document.Document, bool) {
	normalizedURI := normalizeURI(string(uri))
	if doc, ok := m.inner.Get(normalizedURI); ok {
		return doc, true
	}
	if doc, ok := m.inner.Get("file://" + normalizedURI); ok {
		return doc, true
	}

	file, err := os.Open(normalizedURI)
	if err != nil {
		return nil, false
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		return nil, false
	}
	return m.inner.Open(normalizedURI, string(content), 0), true
}

func (m *DocumentManager) Open(uri protocol.DocumentURI, content string, version int32) *document.Document {
	return m.inner.Open(normalizeURI(string(uri)), content, version)
}

func (m *DocumentManager) Update(uri protocol.DocumentURI, content string, version int32) (*document.Document, bool) {
	return m.inner.Update(normalizeURI(string(uri)), content, version)
}

func (m *DocumentManager) Delete(uri string) {
	m.inner.Close(normalizeURI(uri))
}
