// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/mcpcore/mcpcore/internal/json"
)

func TestUnmarshalSchemaAppliesDefaultsAndValidates(t *testing.T) {
	schema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"x": {Type: "integer", Default: json.RawMessage("3")},
		},
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{ValidateDefaults: true})
	if err != nil {
		t.Fatal(err)
	}

	type S struct {
		X int `json:"x"`
	}

	for _, tt := range []struct {
		name string
		data string
		want int
	}{
		{"explicit value", `{"x": 1}`, 1},
		{"default applied", `{}`, 3},
		{"explicit zero wins over default", `{"x": 0}`, 0},
	} {
		t.Run(tt.name, func(t *testing.T) {
			var got S
			if err := unmarshalSchema(json.RawMessage(tt.data), resolved, &got); err != nil {
				t.Fatalf("unmarshalSchema(%q): %v", tt.data, err)
			}
			if got.X != tt.want {
				t.Errorf("unmarshalSchema(%q) = %+v, want X=%d", tt.data, got, tt.want)
			}
		})
	}
}

func TestUnmarshalSchemaRejectsUnknownFields(t *testing.T) {
	schema := &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{"x": {Type: "integer"}}}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{ValidateDefaults: true})
	if err != nil {
		t.Fatal(err)
	}
	type S struct {
		X int `json:"x"`
	}
	var got S
	if err := unmarshalSchema(json.RawMessage(`{"x": 1, "y": 2}`), resolved, &got); err == nil {
		t.Fatal("unmarshalSchema with unknown field y succeeded, want error")
	}
}

func TestNewServerToolRequiresInputSchema(t *testing.T) {
	_, err := newServerTool(&Tool{Name: "no-schema"}, func(ctx context.Context, req *ServerRequest[*CallToolParams], args any) (*CallToolResult, error) {
		return nil, nil
	})
	if err == nil {
		t.Fatal("newServerTool with nil InputSchema succeeded, want error")
	}
}

func TestServerToolHandlerReportsValidationErrorInBand(t *testing.T) {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: map[string]*jsonschema.Schema{"name": {Type: "string"}},
		Required:   []string{"name"},
	}
	st, err := newServerTool(&Tool{Name: "needs-name", InputSchema: schema}, func(ctx context.Context, req *ServerRequest[*CallToolParams], args any) (*CallToolResult, error) {
		return &CallToolResult{}, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	req := &ServerRequest[*CallToolParams]{Params: &CallToolParams{Name: "needs-name", Arguments: json.RawMessage(`{}`)}}
	result, err := st.handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned a protocol error %v, want an in-band tool error", err)
	}
	if !result.IsError {
		t.Fatal("result.IsError = false, want true for a tool call missing a required argument")
	}
}

func TestErrorTaxonomyMessages(t *testing.T) {
	for _, tt := range []struct {
		err  error
		want string
	}{
		{&MethodNotFoundError{Method: "tools/call:bogus"}, "Method not found: tools/call:bogus"},
	} {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestErrorsAsUnwrapsTypedErrors(t *testing.T) {
	var err error = &TimeoutError{Method: "tools/call"}
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatal("errors.As failed to find *TimeoutError")
	}
}
