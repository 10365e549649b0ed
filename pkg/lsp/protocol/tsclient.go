// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package protocol

// Trimmed from the upstream gopls protocol/metaModel.json-generated
// tsclient.go down to the notifications this server actually pushes:
// diagnostics, log messages forwarded from zerolog (see logging.go), and
// plain user-facing messages. Workspace-edit, progress, and refresh
// callbacks have no caller here.

import (
	"context"

	"github.com/creachadair/jrpc2/handler"
)

type Client interface {
	Event(context.Context, *any) error
	PublishDiagnostics(context.Context, *PublishDiagnosticsParams) error
	LogMessage(context.Context, *LogMessageParams) error
	ShowMessage(context.Context, *ShowMessageParams) error
}

func buildClientDispatchMap(client Client) handler.Map {
	return handler.Map{
		"telemetry/event":                 createEmptyResultHandler(client.Event),
		"textDocument/publishDiagnostics": createEmptyResultHandler(client.PublishDiagnostics),
		"window/logMessage":               createEmptyResultHandler(client.LogMessage),
		"window/showMessage":              createEmptyResultHandler(client.ShowMessage),
	}
}

func (s *CallbackClient) Event(ctx context.Context, params *any) error {
	return createNotify(ctx, s, "telemetry/event", params)
}
func (s *CallbackClient) PublishDiagnostics(ctx context.Context, params *PublishDiagnosticsParams) error {
	return createNotify(ctx, s, "textDocument/publishDiagnostics", params)
}
func (s *CallbackClient) LogMessage(ctx context.Context, params *LogMessageParams) error {
	return createNotify(ctx, s, "window/logMessage", params)
}
func (s *CallbackClient) ShowMessage(ctx context.Context, params *ShowMessageParams) error {
	return createNotify(ctx, s, "window/showMessage", params)
}
