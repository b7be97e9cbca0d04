// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"

	"github.com/mcpcore/mcpcore/jsonrpc"
)

// pairedTransport is an in-memory [Transport] connected to its twin by a
// pair of channels, standing in for a real transport in tests that need a
// full client/server round trip without a subprocess or socket.
type pairedTransport struct {
	out     chan jsonrpc.Message
	in      chan jsonrpc.Message
	done    chan struct{}
	handler InboundHandler
}

// newPairedTransports returns two transports, each other's peer.
func newPairedTransports() (*pairedTransport, *pairedTransport) {
	ab := make(chan jsonrpc.Message, 64)
	ba := make(chan jsonrpc.Message, 64)
	a := &pairedTransport{out: ab, in: ba, done: make(chan struct{})}
	b := &pairedTransport{out: ba, in: ab, done: make(chan struct{})}
	return a, b
}

func (t *pairedTransport) Start(ctx context.Context, handler InboundHandler) error {
	t.handler = handler
	go func() {
		for {
			select {
			case msg, ok := <-t.in:
				if !ok {
					return
				}
				_ = t.handler(ctx, msg)
			case <-t.done:
				return
			}
		}
	}()
	return nil
}

// Send round-trips msg through the same Encode/Decode a byte-oriented
// transport would apply, so a request's Params (or a response's Result)
// arrives on the peer side as json.RawMessage rather than the original typed
// value, matching what every real Transport implementation guarantees.
func (t *pairedTransport) Send(ctx context.Context, msg jsonrpc.Message) error {
	data, err := jsonrpc.EncodeMessage(msg)
	if err != nil {
		return err
	}
	decoded, err := jsonrpc.DecodeMessage(data)
	if err != nil {
		return err
	}
	select {
	case t.out <- decoded:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		return context.Canceled
	}
}

func (t *pairedTransport) CloseGracefully(ctx context.Context) error {
	return t.Close()
}

func (t *pairedTransport) Close() error {
	select {
	case <-t.done:
	default:
		close(t.done)
	}
	return nil
}
