// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"fmt"

	"github.com/mcpcore/mcpcore/internal/json"
)

// Content is one block of a tool result, prompt message, or sampling
// message. It is implemented by TextContent, ImageContent, AudioContent,
// ResourceLink, and EmbeddedResource.
type Content interface {
	MarshalJSON() ([]byte, error)
	fromWire(*wireContent)
}

// TextContent is a plain-text content block.
type TextContent struct {
	Text        string       `json:"text"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

func (c *TextContent) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireContent{Type: "text", Text: c.Text, Annotations: c.Annotations})
}

func (c *TextContent) fromWire(w *wireContent) {
	c.Text = w.Text
	c.Annotations = w.Annotations
}

// imageAudioWire is the shared shape of ImageContent and AudioContent.
type imageAudioWire struct {
	Data        string       `json:"data"`
	MIMEType    string       `json:"mimeType"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

// ImageContent is a base64-encoded image content block.
type ImageContent struct {
	Data        string
	MIMEType    string
	Annotations *Annotations
}

func (c *ImageContent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		imageAudioWire
	}{"image", imageAudioWire{c.Data, c.MIMEType, c.Annotations}})
}

func (c *ImageContent) fromWire(w *wireContent) {
	c.Data = w.Data
	c.MIMEType = w.MIMEType
	c.Annotations = w.Annotations
}

// AudioContent is a base64-encoded audio content block.
type AudioContent struct {
	Data        string
	MIMEType    string
	Annotations *Annotations
}

func (c *AudioContent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		imageAudioWire
	}{"audio", imageAudioWire{c.Data, c.MIMEType, c.Annotations}})
}

func (c *AudioContent) fromWire(w *wireContent) {
	c.Data = w.Data
	c.MIMEType = w.MIMEType
	c.Annotations = w.Annotations
}

// ResourceLink references a resource without embedding its contents.
type ResourceLink struct {
	URI         string
	Name        string
	Title       string
	Description string
	MIMEType    string
	Annotations *Annotations
}

func (c *ResourceLink) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Resource
	}{"resource_link", Resource{
		URI: c.URI, Name: c.Name, Title: c.Title, Description: c.Description,
		MIMEType: c.MIMEType, Annotations: c.Annotations,
	}})
}

func (c *ResourceLink) fromWire(w *wireContent) {
	c.URI = w.URI
	c.Name = w.Name
	c.Title = w.Title
	c.Description = w.Description
	c.MIMEType = w.MIMEType
	c.Annotations = w.Annotations
}

// ResourceContents is an embedded resource's content, either text or binary.
type ResourceContents struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// EmbeddedResource embeds a resource's contents inline.
type EmbeddedResource struct {
	Resource    *ResourceContents
	Annotations *Annotations
}

func (c *EmbeddedResource) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type        string            `json:"type"`
		Resource    *ResourceContents `json:"resource"`
		Annotations *Annotations      `json:"annotations,omitempty"`
	}{"resource", c.Resource, c.Annotations})
}

func (c *EmbeddedResource) fromWire(w *wireContent) {
	c.Resource = w.Resource
	c.Annotations = w.Annotations
}

// wireContent is the discriminated-union wire shape shared by all content
// variants, used only while decoding: [contentFromWire] switches on Type and
// fans out to the concrete type's fromWire.
type wireContent struct {
	Type        string            `json:"type"`
	Text        string            `json:"text,omitempty"`
	Data        string            `json:"data,omitempty"`
	MIMEType    string            `json:"mimeType,omitempty"`
	URI         string            `json:"uri,omitempty"`
	Name        string            `json:"name,omitempty"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Resource    *ResourceContents `json:"resource,omitempty"`
	Annotations *Annotations      `json:"annotations,omitempty"`
}

func contentFromWire(w *wireContent) (Content, error) {
	var c Content
	switch w.Type {
	case "text":
		c = &TextContent{}
	case "image":
		c = &ImageContent{}
	case "audio":
		c = &AudioContent{}
	case "resource_link":
		c = &ResourceLink{}
	case "resource":
		c = &EmbeddedResource{}
	default:
		return nil, fmt.Errorf("mcp: unknown content type %q", w.Type)
	}
	c.fromWire(w)
	return c, nil
}

func unmarshalContent(data []byte) (Content, error) {
	var w wireContent
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return contentFromWire(&w)
}

func contentsFromRaw(raws []json.RawMessage) ([]Content, error) {
	out := make([]Content, 0, len(raws))
	for _, raw := range raws {
		c, err := unmarshalContent(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
