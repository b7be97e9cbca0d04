// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package jsonrpc_test

import (
	"testing"

	"github.com/mcpcore/mcpcore/jsonrpc"
)

func TestEncodeDecodeRequestRoundTrip(t *testing.T) {
	req := &jsonrpc.Request{
		ID:     jsonrpc.NewID("1"),
		Method: "initialize",
		Params: map[string]any{"protocolVersion": "2025-06-18"},
	}
	data, err := jsonrpc.EncodeMessage(req)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	msg, err := jsonrpc.DecodeMessage(data)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	got, ok := msg.(*jsonrpc.Request)
	if !ok {
		t.Fatalf("DecodeMessage returned %T, want *Request", msg)
	}
	if got.ID.String() != "1" || got.Method != "initialize" {
		t.Errorf("got id=%q method=%q, want id=1 method=initialize", got.ID, got.Method)
	}
}

func TestDecodeMessageClassification(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string // "request", "notification", "response", "error"
	}{
		{"request", `{"jsonrpc":"2.0","id":"1","method":"ping"}`, "request"},
		{"notification", `{"jsonrpc":"2.0","method":"notifications/initialized"}`, "notification"},
		{"response-result", `{"jsonrpc":"2.0","id":"1","result":{}}`, "response"},
		{"response-error", `{"jsonrpc":"2.0","id":"1","error":{"code":-32601,"message":"nope"}}`, "response"},
		{"malformed-neither", `{"jsonrpc":"2.0"}`, "error"},
		{"malformed-both-result-error", `{"jsonrpc":"2.0","id":"1","result":{},"error":{"code":1,"message":"x"}}`, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := jsonrpc.DecodeMessage([]byte(tt.json))
			if tt.want == "error" {
				if err == nil {
					t.Fatalf("DecodeMessage(%s) = %v, want error", tt.json, msg)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeMessage(%s): %v", tt.json, err)
			}
			switch tt.want {
			case "request":
				if _, ok := msg.(*jsonrpc.Request); !ok {
					t.Errorf("got %T, want *Request", msg)
				}
			case "notification":
				if _, ok := msg.(*jsonrpc.Notification); !ok {
					t.Errorf("got %T, want *Notification", msg)
				}
			case "response":
				if _, ok := msg.(*jsonrpc.Response); !ok {
					t.Errorf("got %T, want *Response", msg)
				}
			}
		})
	}
}

func TestDecodeMessageRejectsKeySmuggling(t *testing.T) {
	attack := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"greet","Name":"secretTool"}}`
	if _, err := jsonrpc.DecodeMessage([]byte(attack)); err == nil {
		t.Fatal("DecodeMessage accepted a message with case-variant duplicate keys")
	}
}

func TestNumericIDRoundTrip(t *testing.T) {
	resp := &jsonrpc.Response{ID: jsonrpc.NewNumberID(7), Result: map[string]any{"ok": true}}
	data, err := jsonrpc.EncodeMessage(resp)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	msg, err := jsonrpc.DecodeMessage(data)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	got := msg.(*jsonrpc.Response)
	if got.ID.String() != "7" {
		t.Errorf("ID = %q, want 7", got.ID.String())
	}
}
