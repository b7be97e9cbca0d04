// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import "github.com/mcpcore/mcpcore/internal/json"

// The types below carry a Content interface field or slice. encoding/json
// (and its segmentio replacement) cannot decode into an interface without
// help, so each gets a wire-shaped twin decoded first and converted after.

func (r *CallToolResult) UnmarshalJSON(data []byte) error {
	var wire struct {
		Meta              Meta              `json:"_meta,omitempty"`
		Content           []json.RawMessage `json:"content"`
		StructuredContent any               `json:"structuredContent,omitempty"`
		IsError           bool              `json:"isError,omitempty"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	content, err := contentsFromRaw(wire.Content)
	if err != nil {
		return err
	}
	r.Meta = wire.Meta
	r.Content = content
	r.StructuredContent = wire.StructuredContent
	r.IsError = wire.IsError
	return nil
}

func (m *PromptMessage) UnmarshalJSON(data []byte) error {
	var wire struct {
		Role    Role            `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	c, err := unmarshalContent(wire.Content)
	if err != nil {
		return err
	}
	m.Role = wire.Role
	m.Content = c
	return nil
}

func (m *SamplingMessage) UnmarshalJSON(data []byte) error {
	var wire struct {
		Role    Role            `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	c, err := unmarshalContent(wire.Content)
	if err != nil {
		return err
	}
	m.Role = wire.Role
	m.Content = c
	return nil
}

func (r *CreateMessageResult) UnmarshalJSON(data []byte) error {
	var wire struct {
		Meta       Meta            `json:"_meta,omitempty"`
		Role       Role            `json:"role"`
		Content    json.RawMessage `json:"content"`
		Model      string          `json:"model"`
		StopReason string          `json:"stopReason,omitempty"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	c, err := unmarshalContent(wire.Content)
	if err != nil {
		return err
	}
	r.Meta = wire.Meta
	r.Role = wire.Role
	r.Content = c
	r.Model = wire.Model
	r.StopReason = wire.StopReason
	return nil
}

func (r *ReadResourceResult) UnmarshalJSON(data []byte) error {
	var wire struct {
		Meta     Meta                `json:"_meta,omitempty"`
		Contents []*ResourceContents `json:"contents"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	r.Meta = wire.Meta
	r.Contents = wire.Contents
	return nil
}
