package protocol_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/creachadair/jrpc2/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/kconfig-ls/pkg/lsp/protocol"
)

// fakeServer is a hand-rolled protocol.Server stub for exercising the
// handshake over a real jrpc2 connection: the handler dispatch, method
// names, and lifecycle ordering matter here, not the query results.
type fakeServer struct {
	initializeCalled  chan struct{}
	initializedCalled chan struct{}
	shutdownCalled    chan struct{}
	exitCalled        chan struct{}
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		initializeCalled:  make(chan struct{}),
		initializedCalled: make(chan struct{}),
		shutdownCalled:    make(chan struct{}),
		exitCalled:        make(chan struct{}),
	}
}

func (f *fakeServer) Initialize(ctx context.Context, params *protocol.ParamInitialize) (*protocol.InitializeResult, error) {
	close(f.initializeCalled)
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{Change: protocol.Incremental},
		},
	}, nil
}

func (f *fakeServer) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	close(f.initializedCalled)
	return nil
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	close(f.shutdownCalled)
	return nil
}

func (f *fakeServer) Exit(ctx context.Context) error {
	close(f.exitCalled)
	return nil
}

func (f *fakeServer) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	return nil
}
func (f *fakeServer) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	return nil
}
func (f *fakeServer) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	return nil
}
func (f *fakeServer) DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	return nil
}

func (f *fakeServer) Hover(ctx context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	return nil, nil
}

func (f *fakeServer) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	return nil, nil
}

func (f *fakeServer) Definition(ctx context.Context, params *protocol.DefinitionParams) ([]protocol.Location, error) {
	return nil, nil
}

func (f *fakeServer) References(ctx context.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	return nil, nil
}

func (f *fakeServer) Diagnostic(ctx context.Context, params *protocol.DocumentDiagnosticParams) (*protocol.DocumentDiagnosticReport, error) {
	return nil, nil
}

var _ protocol.Server = (*fakeServer)(nil)

func TestInitializationHandshake(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	serverReader, clientWriter := io.Pipe()
	clientReader, serverWriter := io.Pipe()

	fake := newFakeServer()

	tracker := protocol.NewRPCTracker()
	since := time.Now()

	jsrv, _ := protocol.NewServerServer(ctx, fake, &jrpc2.ServerOptions{
		RPCLog: tracker,
	})

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- jsrv.Start(channel.LSP(serverReader, serverWriter)).Wait()
	}()

	client := jrpc2.NewClient(channel.LSP(clientReader, clientWriter), nil)
	defer client.Close()

	var initResult protocol.InitializeResult
	err := client.CallResult(ctx, "initialize", &protocol.ParamInitialize{
		RootURI: protocol.DocumentURI("file:///workspace"),
	}, &initResult)
	require.NoError(t, err, "initialize request should succeed")
	require.Equal(t, protocol.Incremental, initResult.Capabilities.TextDocumentSync.Change)

	select {
	case <-fake.initializeCalled:
	case <-time.After(2 * time.Second):
		t.Fatal("Initialize handler never ran")
	}

	require.NoError(t, client.Notify(ctx, "initialized", &protocol.InitializedParams{}))
	select {
	case <-fake.initializedCalled:
	case <-time.After(2 * time.Second):
		t.Fatal("Initialized handler never ran")
	}

	_, err = client.Call(ctx, "shutdown", nil)
	require.NoError(t, err)
	select {
	case <-fake.shutdownCalled:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown handler never ran")
	}

	require.NoError(t, client.Notify(ctx, "exit", nil))
	select {
	case <-fake.exitCalled:
	case <-time.After(2 * time.Second):
		t.Fatal("Exit handler never ran")
	}

	seen := tracker.MessagesSince(since)
	var methods []string
	for _, msg := range seen {
		methods = append(methods, msg.Method)
	}
	assert.Contains(t, methods, "initialize")
	assert.Contains(t, methods, "shutdown")

	clientWriter.Close()
	serverWriter.Close()

	select {
	case err := <-serverDone:
		if err != nil && err != io.ErrClosedPipe {
			t.Errorf("server exited with error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server shutdown timed out")
	}
}

func TestCustomLSPBuffering(t *testing.T) {
	t.Parallel()

	t.Run("large_message_handling", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		serverReader, clientWriter := io.Pipe()
		clientReader, serverWriter := io.Pipe()

		serverChans := channel.LSP(serverReader, serverWriter)
		clientChans := channel.LSP(clientReader, clientWriter)

		type LargeMessage struct {
			Data []byte `json:"data"`
		}
		largeData := make([]byte, 7*1024*1024)
		for i := range largeData {
			largeData[i] = byte(i % 256)
		}
		testMsg := LargeMessage{Data: largeData}

		serverOpts := &jrpc2.ServerOptions{
			RPCLog: protocol.NewTestLogger(t, nil),
		}
		server := jrpc2.NewServer(handler.Map{
			"test": handler.New(func(ctx context.Context, params *LargeMessage) (*LargeMessage, error) {
				return params, nil
			}),
		}, serverOpts)
		go func() {
			err := server.Start(serverChans).Wait()
			if err != nil && err != context.DeadlineExceeded {
				t.Logf("Server error: %v", err)
			}
		}()

		clientOpts := &jrpc2.ClientOptions{
			OnNotify: func(req *jrpc2.Request) {
				t.Logf("Client received notification: %s", req.Method())
			},
		}
		client := jrpc2.NewClient(clientChans, clientOpts)
		defer func() {
			if err := client.Close(); err != nil {
				t.Logf("Client close error: %v", err)
			}
		}()

		var response LargeMessage
		err := client.CallResult(ctx, "test", testMsg, &response)
		require.NoError(t, err, "large message should be handled")
		require.Equal(t, testMsg.Data, response.Data, "response should match sent data")
	})

	t.Run("concurrent_requests", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		serverReader, clientWriter := io.Pipe()
		clientReader, serverWriter := io.Pipe()

		serverChans := channel.LSP(serverReader, serverWriter)
		clientChans := channel.LSP(clientReader, clientWriter)

		type EchoMessage struct {
			Message string `json:"message"`
		}

		serverOpts := &jrpc2.ServerOptions{
			RPCLog: protocol.NewTestLogger(t, nil),
		}
		server := jrpc2.NewServer(handler.Map{
			"echo": handler.New(func(ctx context.Context, params *EchoMessage) (*EchoMessage, error) {
				time.Sleep(10 * time.Millisecond)
				return params, nil
			}),
		}, serverOpts)
		go func() {
			err := server.Start(serverChans).Wait()
			if err != nil && err != context.DeadlineExceeded {
				t.Logf("Server error: %v", err)
			}
		}()

		clientOpts := &jrpc2.ClientOptions{
			OnNotify: func(req *jrpc2.Request) {
				t.Logf("Client received notification: %s", req.Method())
			},
		}
		client := jrpc2.NewClient(clientChans, clientOpts)
		defer func() {
			if err := client.Close(); err != nil {
				t.Logf("Client close error: %v", err)
			}
		}()

		const numRequests = 10
		var wg sync.WaitGroup
		wg.Add(numRequests)

		for i := 0; i < numRequests; i++ {
			go func(id int) {
				defer wg.Done()
				msg := &EchoMessage{Message: fmt.Sprintf("test-%d", id)}
				var response EchoMessage
				err := client.CallResult(ctx, "echo", msg, &response)
				require.NoError(t, err, "concurrent request should succeed")
				require.Equal(t, msg.Message, response.Message, "response should match request")
			}(i)
		}

		wg.Wait()
	})
}

func TestSimpleRequestResponse(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	serverReader, clientWriter := io.Pipe()
	clientReader, serverWriter := io.Pipe()

	fake := newFakeServer()

	jsrv, _ := protocol.NewServerServer(ctx, fake, &jrpc2.ServerOptions{
		RPCLog: protocol.NewTestLogger(t, nil),
	})

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- jsrv.Start(channel.LSP(serverReader, serverWriter)).Wait()
	}()

	client := jrpc2.NewClient(channel.LSP(clientReader, clientWriter), nil)
	defer client.Close()

	var initResult protocol.InitializeResult
	err := client.CallResult(ctx, "initialize", &protocol.ParamInitialize{}, &initResult)
	require.NoError(t, err, "initialize request should succeed")

	require.NoError(t, client.Notify(ctx, "initialized", &protocol.InitializedParams{}))
	select {
	case <-fake.initializedCalled:
	case <-time.After(5 * time.Second):
		t.Fatal("server never received initialized notification")
	}

	_, err = client.Call(ctx, "shutdown", nil)
	require.NoError(t, err)
	require.NoError(t, client.Notify(ctx, "exit", nil))

	clientWriter.Close()
	serverWriter.Close()

	select {
	case err := <-serverDone:
		if err != nil && err != io.ErrClosedPipe {
			t.Errorf("server error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server shutdown timed out")
	}
}
