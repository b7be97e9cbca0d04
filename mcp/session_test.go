// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/mcpcore/mcpcore/internal/json"
	"github.com/mcpcore/mcpcore/jsonrpc"
)

type noArgs struct{}

func mustInputSchema(t *testing.T) *jsonschema.Schema {
	t.Helper()
	s, err := jsonschema.For[noArgs](nil)
	if err != nil {
		t.Fatalf("jsonschema.For: %v", err)
	}
	return s
}

func echoHandler(ctx context.Context, req *ServerRequest[*CallToolParams], args noArgs) (*CallToolResult, any, error) {
	return &CallToolResult{Content: []Content{&TextContent{Text: "ok"}}}, nil, nil
}

func progressHandler(ctx context.Context, req *ServerRequest[*CallToolParams], args noArgs) (*CallToolResult, any, error) {
	if err := req.Progress(ctx, "halfway", 0.5, 1); err != nil {
		return nil, nil, err
	}
	return &CallToolResult{Content: []Content{&TextContent{Text: "done"}}}, nil, nil
}

func connectPair(t *testing.T, srv *Server, copts ClientOptions) (*ClientSession, *ServerSession) {
	t.Helper()
	clientSide, serverSide := newPairedTransports()
	ctx := context.Background()

	client, err := NewClient(Implementation{Name: "test-client", Version: "v0"}, copts)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	cs, err := client.Connect(ctx, clientSide)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}
	ss, err := srv.Connect(ctx, serverSide)
	if err != nil {
		t.Fatalf("server.Connect: %v", err)
	}
	return cs, ss
}

// waitServerInitialized blocks until ss has handled the client's
// notifications/initialized, which the server processes asynchronously;
// until then the server session refuses to issue its own requests.
func waitServerInitialized(t *testing.T, ss *ServerSession) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for ss.s.getState() != StateInitialized {
		if time.Now().After(deadline) {
			t.Fatal("server session never reached the initialized state")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestInitializeRoundTrip(t *testing.T) {
	srv := NewServer(Implementation{Name: "test-server", Version: "v1"}, ServerOptions{})
	if err := AddTypedTool(srv, &Tool{Name: "echo", Description: "echoes", InputSchema: mustInputSchema(t)}, echoHandler); err != nil {
		t.Fatalf("AddTypedTool: %v", err)
	}
	cs, _ := connectPair(t, srv, ClientOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := cs.Initialize(ctx)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	want := &InitializeResult{
		ProtocolVersion: LatestProtocolVersion,
		Capabilities:    ServerCapabilities{Tools: &ToolCapabilities{}},
		ServerInfo:      Implementation{Name: "test-server", Version: "v1"},
	}
	if diff := cmp.Diff(want, result, cmp.AllowUnexported(InitializeResult{})); diff != "" {
		t.Errorf("Initialize() result mismatch (-want +got):\n%s", diff)
	}

	tools, err := cs.ListTools(ctx, "")
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(tools.Tools) != 1 || tools.Tools[0].Name != "echo" {
		t.Errorf("ListTools() = %+v, want one tool named echo", tools.Tools)
	}
}

func TestProtocolVersionMismatch(t *testing.T) {
	clientSide, peer := newPairedTransports()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := NewClient(Implementation{Name: "test-client", Version: "v0"}, ClientOptions{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	cs, err := client.Connect(ctx, clientSide)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}

	if err := peer.Start(ctx, func(ctx context.Context, msg jsonrpc.Message) error {
		req, ok := msg.(*jsonrpc.Request)
		if !ok || req.Method != methodInitialize {
			return nil
		}
		result := &InitializeResult{
			ProtocolVersion: "2000-01-01",
			ServerInfo:      Implementation{Name: "old-server", Version: "v0"},
		}
		data, err := json.Marshal(result)
		if err != nil {
			return err
		}
		return peer.Send(ctx, &jsonrpc.Response{ID: req.ID, Result: json.RawMessage(data)})
	}); err != nil {
		t.Fatalf("peer.Start: %v", err)
	}

	_, err = cs.Initialize(ctx)
	var mismatch *ProtocolVersionMismatch
	if !errors.As(err, &mismatch) {
		t.Fatalf("Initialize() error = %v, want *ProtocolVersionMismatch", err)
	}
	if mismatch.Got != "2000-01-01" || mismatch.Want != LatestProtocolVersion {
		t.Errorf("mismatch = %+v", mismatch)
	}
}

func TestToolListChangedPropagation(t *testing.T) {
	srv := NewServer(Implementation{Name: "test-server", Version: "v1"}, ServerOptions{ToolsListChanged: true})
	if err := AddTypedTool(srv, &Tool{Name: "echo", Description: "echoes", InputSchema: mustInputSchema(t)}, echoHandler); err != nil {
		t.Fatalf("AddTypedTool: %v", err)
	}

	changed := make(chan []*Tool, 1)
	cs, ss := connectPair(t, srv, ClientOptions{
		OnToolsChanged: func(ctx context.Context, tools []*Tool) { changed <- tools },
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cs.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if err := AddTypedTool(srv, &Tool{Name: "second", Description: "another tool", InputSchema: mustInputSchema(t)}, echoHandler); err != nil {
		t.Fatalf("AddTypedTool: %v", err)
	}
	if err := ss.NotifyToolListChanged(ctx); err != nil {
		t.Fatalf("NotifyToolListChanged: %v", err)
	}

	select {
	case tools := <-changed:
		if len(tools) != 2 {
			t.Errorf("OnToolsChanged callback saw %d tools, want 2", len(tools))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnToolsChanged callback")
	}
}

func TestRootsListRequest(t *testing.T) {
	srv := NewServer(Implementation{Name: "test-server", Version: "v1"}, ServerOptions{})
	want := []*Root{{URI: "file:///workspace", Name: "workspace"}}
	cs, ss := connectPair(t, srv, ClientOptions{RootsCapability: true, InitialRoots: want})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cs.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	waitServerInitialized(t, ss)

	result, err := ss.ListRoots(ctx)
	if err != nil {
		t.Fatalf("ListRoots: %v", err)
	}
	if diff := cmp.Diff(want, result.Roots); diff != "" {
		t.Errorf("ListRoots() mismatch (-want +got):\n%s", diff)
	}
}

func TestSamplingCapabilityMissing(t *testing.T) {
	srv := NewServer(Implementation{Name: "test-server", Version: "v1"}, ServerOptions{})
	cs, ss := connectPair(t, srv, ClientOptions{}) // no SamplingCapability, no handler

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cs.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	waitServerInitialized(t, ss)

	_, err := ss.CreateMessage(ctx, &CreateMessageParams{})
	if err == nil {
		t.Fatal("CreateMessage() succeeded against a client with no sampling handler registered")
	}
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) || protoErr.Code != jsonrpc.CodeMethodNotFound {
		t.Errorf("CreateMessage() error = %v, want a method-not-found ProtocolError", err)
	}
}

func TestSamplingCapabilityRequiresHandler(t *testing.T) {
	_, err := NewClient(Implementation{Name: "test-client", Version: "v0"}, ClientOptions{SamplingCapability: true})
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("NewClient() error = %v, want *ConfigurationError", err)
	}
}

func TestRequestTimeout(t *testing.T) {
	srv := NewServer(Implementation{Name: "test-server", Version: "v1"}, ServerOptions{})
	clientSide, _ := newPairedTransports()

	client, err := NewClient(Implementation{Name: "test-client", Version: "v0"}, ClientOptions{RequestTimeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx := context.Background()
	cs, err := client.Connect(ctx, clientSide)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}
	_ = srv // the peer side is never connected, so no response ever arrives

	start := time.Now()
	_, err = cs.Initialize(ctx)
	elapsed := time.Since(start)

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("Initialize() error = %v, want *TimeoutError", err)
	}
	if elapsed > 2*time.Second {
		t.Errorf("Initialize() took %s to time out, want close to 50ms", elapsed)
	}
}

func TestToolProgressNotification(t *testing.T) {
	srv := NewServer(Implementation{Name: "test-server", Version: "v1"}, ServerOptions{})
	if err := AddTypedTool(srv, &Tool{Name: "slow", Description: "reports progress", InputSchema: mustInputSchema(t)}, progressHandler); err != nil {
		t.Fatalf("AddTypedTool: %v", err)
	}

	updates := make(chan *ProgressNotificationParams, 1)
	cs, _ := connectPair(t, srv, ClientOptions{
		OnProgress: func(ctx context.Context, p *ProgressNotificationParams) { updates <- p },
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cs.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	var meta Meta
	meta.SetProgressToken("tok-1")
	params := &CallToolParamsRaw{Name: "slow", Arguments: json.RawMessage("{}")}
	params.SetMeta(meta)
	if _, err := cs.CallTool(ctx, params); err != nil {
		t.Fatalf("CallTool: %v", err)
	}

	select {
	case p := <-updates:
		if p.ProgressToken != "tok-1" || p.Progress != 0.5 {
			t.Errorf("OnProgress callback saw %+v, want token %q progress 0.5", p, "tok-1")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnProgress callback")
	}
}

func TestToolProgressWithoutTokenFails(t *testing.T) {
	srv := NewServer(Implementation{Name: "test-server", Version: "v1"}, ServerOptions{})
	if err := AddTypedTool(srv, &Tool{Name: "slow", Description: "reports progress", InputSchema: mustInputSchema(t)}, progressHandler); err != nil {
		t.Fatalf("AddTypedTool: %v", err)
	}
	cs, _ := connectPair(t, srv, ClientOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cs.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	params := &CallToolParamsRaw{Name: "slow", Arguments: json.RawMessage("{}")}
	result, err := cs.CallTool(ctx, params)
	if err != nil {
		t.Fatalf("CallTool returned a protocol error %v, want the missing-token error reported in-band", err)
	}
	if !result.IsError {
		t.Fatal("result.IsError = false, want true when the tool's Progress call has no progress token to report against")
	}
}
