// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package protocol

// Trimmed from the upstream gopls protocol/metaModel.json-generated
// tsserver.go down to the subset of textDocument/* and lifecycle methods a
// Kconfig language server actually implements. The full LSP surface
// (callHierarchy, semanticTokens, typeHierarchy, notebook documents, code
// actions, formatting, renaming, ...) has no corresponding operation in this
// server and would only add unused types and dead dispatch-map entries.

import (
	"context"

	"github.com/creachadair/jrpc2/handler"
)

type Server interface {
	Initialize(context.Context, *ParamInitialize) (*InitializeResult, error)
	Initialized(context.Context, *InitializedParams) error
	Shutdown(context.Context) error
	Exit(context.Context) error

	DidOpen(context.Context, *DidOpenTextDocumentParams) error
	DidChange(context.Context, *DidChangeTextDocumentParams) error
	DidClose(context.Context, *DidCloseTextDocumentParams) error
	DidSave(context.Context, *DidSaveTextDocumentParams) error

	Hover(context.Context, *HoverParams) (*Hover, error)
	Completion(context.Context, *CompletionParams) (*CompletionList, error)
	Definition(context.Context, *DefinitionParams) ([]Location, error)
	References(context.Context, *ReferenceParams) ([]Location, error)
	Diagnostic(context.Context, *DocumentDiagnosticParams) (*DocumentDiagnosticReport, error)
}

func buildServerDispatchMap(server Server) handler.Map {
	return handler.Map{
		"initialize":              createHandler(server.Initialize),
		"initialized":             createEmptyResultHandler(server.Initialized),
		"shutdown":                createEmptyHandler(server.Shutdown),
		"exit":                    createEmptyHandler(server.Exit),
		"textDocument/didOpen":    createEmptyResultHandler(server.DidOpen),
		"textDocument/didChange":  createEmptyResultHandler(server.DidChange),
		"textDocument/didClose":   createEmptyResultHandler(server.DidClose),
		"textDocument/didSave":    createEmptyResultHandler(server.DidSave),
		"textDocument/hover":      createHandler(server.Hover),
		"textDocument/completion": createHandler(server.Completion),
		"textDocument/definition": createHandler(server.Definition),
		"textDocument/references": createHandler(server.References),
		"textDocument/diagnostic": createHandler(server.Diagnostic),
	}
}
