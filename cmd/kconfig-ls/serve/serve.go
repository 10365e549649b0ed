// Package serve implements the `kconfig-ls serve` subcommand: a JSON-RPC
// language server speaking LSP over stdio.
package serve

import (
	"context"
	"os"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/kconfig-ls/pkg/lsp"
	"github.com/walteh/kconfig-ls/pkg/lsp/protocol"
)

type options struct {
	debug bool
}

func NewCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "start the Kconfig language server over stdio",
	}

	cmd.Flags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), opts)
	}

	return cmd
}

type rpcLogger struct{}

func (rpcLogger) LogRequest(ctx context.Context, req *jrpc2.Request) {
	zerolog.Ctx(ctx).Debug().Str("rpc_method", req.Method()).Str("rpc_id", req.ID()).Msg("client request")
}

func (rpcLogger) LogResponse(ctx context.Context, res *jrpc2.Response) {
	zerolog.Ctx(ctx).Debug().Str("rpc_id", res.ID()).Msg("server response")
}

func run(ctx context.Context, opts *options) error {
	level := zerolog.InfoLevel
	if opts.debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	ctx = logger.WithContext(ctx)

	server := lsp.NewServer(ctx)

	jsrv, callbackClient := protocol.NewServerServer(ctx, server, &jrpc2.ServerOptions{
		RPCLog: rpcLogger{},
	})
	server.SetCallbackClient(callbackClient)

	jsrv.Start(channel.LSP(os.Stdin, os.Stdout))

	if err := jsrv.Wait(); err != nil {
		return errors.Errorf("language server exited: %w", err)
	}

	return nil
}
