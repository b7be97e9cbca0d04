// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"fmt"

	"github.com/mcpcore/mcpcore/internal/json"
	"github.com/mcpcore/mcpcore/jsonrpc"
)

// InboundHandler receives one message produced by a Transport. The
// transport's reader does not advance to the next message until the
// returned error (if any) has been observed — that is the transport's only
// backpressure contract toward its producer.
type InboundHandler func(context.Context, jsonrpc.Message) error

// Transport is an ordered duplex pipe of JSON-RPC messages. A session owns
// exactly one Transport for its lifetime.
//
// Implementations: [StdioTransport] frames messages as newline-delimited
// JSON over a child process's standard streams; [SSETransport] frames them
// as Server-Sent Events plus a companion POST endpoint.
type Transport interface {
	// Start begins producing inbound messages, handing each to handler in
	// wire-arrival order. Start returns once the transport is ready to
	// accept Send calls; message production continues in the background
	// until the transport is closed.
	Start(ctx context.Context, handler InboundHandler) error

	// Send enqueues one outbound message. Messages submitted to Send are
	// delivered to the peer in call order. Send fails only on a permanent
	// transport error.
	Send(ctx context.Context, msg jsonrpc.Message) error

	// CloseGracefully stops accepting new Sends, flushes anything already
	// queued, then releases the transport's resources.
	CloseGracefully(ctx context.Context) error

	// Close releases the transport's resources immediately, without
	// waiting for queued sends to flush.
	Close() error
}

// decodeParams unmarshals an inbound message's Params/Result field (left as
// a json.RawMessage by [jsonrpc.DecodeMessage]) into v. If raw is nil, v is
// left untouched.
func decodeParams(raw any, v any) error {
	if raw == nil {
		return nil
	}
	data, ok := raw.(json.RawMessage)
	if !ok {
		return fmt.Errorf("mcp: params/result of type %T is not raw JSON", raw)
	}
	return json.Unmarshal(data, v)
}
