// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/mcpcore/mcpcore/internal/json"
)

// ToolHandler handles a tools/call whose arguments have already been
// decoded and validated against the tool's input schema.
type ToolHandler func(ctx context.Context, req *ServerRequest[*CallToolParams], args any) (*CallToolResult, error)

type rawToolHandler func(ctx context.Context, req *ServerRequest[*CallToolParams]) (*CallToolResult, error)

// serverTool is a [Tool] definition bound to a handler, with its schemas
// resolved once at registration time rather than per call.
type serverTool struct {
	tool                           *Tool
	handler                        rawToolHandler
	inputResolved, outputResolved  *jsonschema.Resolved
	newArgs                        func() any
}

// TypedToolHandler handles a tools/call with typed, already-decoded
// arguments and produces a typed structured result.
type TypedToolHandler[In, Out any] func(context.Context, *ServerRequest[*CallToolParams], In) (*CallToolResult, Out, error)

func newServerTool(t *Tool, h ToolHandler) (*serverTool, error) {
	st := &serverTool{tool: t, newArgs: func() any { return &map[string]any{} }}
	if t.InputSchema == nil {
		return nil, errors.New("mcp: tool has no input schema")
	}
	schema, ok := t.InputSchema.(*jsonschema.Schema)
	if !ok {
		return nil, fmt.Errorf("mcp: tool input schema must be *jsonschema.Schema, got %T", t.InputSchema)
	}
	var err error
	st.inputResolved, err = schema.Resolve(&jsonschema.ResolveOptions{ValidateDefaults: true})
	if err != nil {
		return nil, fmt.Errorf("mcp: resolving input schema: %w", err)
	}
	if outSchema, ok := t.OutputSchema.(*jsonschema.Schema); ok && outSchema != nil {
		st.outputResolved, err = outSchema.Resolve(&jsonschema.ResolveOptions{ValidateDefaults: true})
		if err != nil {
			return nil, fmt.Errorf("mcp: resolving output schema: %w", err)
		}
	}

	st.handler = func(ctx context.Context, req *ServerRequest[*CallToolParams]) (*CallToolResult, error) {
		rawArgs, ok := req.Params.Arguments.(json.RawMessage)
		if !ok {
			rawArgs = json.RawMessage("{}")
		}
		args := st.newArgs()
		if err := unmarshalSchema(rawArgs, st.inputResolved, args); err != nil {
			result := &CallToolResult{}
			result.SetError(err)
			return result, nil
		}
		res, err := h(ctx, req, args)
		if err != nil {
			result := &CallToolResult{}
			result.SetError(err)
			return result, nil
		}
		return res, nil
	}
	return st, nil
}

// newTypedServerTool infers a schema from In (and Out, unless Out is any) and
// builds a serverTool around a typed handler.
func newTypedServerTool[In, Out any](t *Tool, h TypedToolHandler[In, Out]) (*serverTool, error) {
	var err error
	if t.InputSchema == nil {
		t.InputSchema, err = jsonschema.For[In](nil)
		if err != nil {
			return nil, err
		}
	}
	if t.OutputSchema == nil && reflect.TypeFor[Out]() != reflect.TypeFor[any]() {
		t.OutputSchema, err = jsonschema.For[Out](nil)
		if err != nil {
			return nil, err
		}
	}

	toolHandler := func(ctx context.Context, req *ServerRequest[*CallToolParams], args any) (*CallToolResult, error) {
		res, out, err := h(ctx, req, *args.(*In))
		if err != nil {
			return nil, err
		}
		if res == nil {
			res = &CallToolResult{}
		}
		res.StructuredContent = out
		return res, nil
	}
	st, err := newServerTool(t, toolHandler)
	if err != nil {
		return nil, err
	}
	assert(st.newArgs != nil, "newServerTool must set a default newArgs")
	st.newArgs = func() any { var x In; return &x }
	return st, nil
}

// unmarshalSchema decodes data into v, rejecting unknown fields, then
// applies schema defaults and validates the result.
func unmarshalSchema(data json.RawMessage, resolved *jsonschema.Resolved, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("mcp: unmarshaling tool arguments: %w", err)
	}
	if resolved != nil {
		if err := resolved.ApplyDefaults(v); err != nil {
			return fmt.Errorf("mcp: applying schema defaults: %w", err)
		}
		if err := resolved.Validate(v); err != nil {
			return fmt.Errorf("mcp: validating tool arguments: %w", err)
		}
	}
	return nil
}
