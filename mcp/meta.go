// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

// progressTokenKey is the reserved key under which a progress token travels
// inside a request's _meta object.
const progressTokenKey = "progressToken"

// Meta carries the protocol's reserved "_meta" object, which every Params
// and Result type embeds. Implementations are free to stash arbitrary
// out-of-band data here; mcpcore only interprets the progress token.
type Meta map[string]any

// GetProgressToken returns the progress token carried in m, if any.
func (m Meta) GetProgressToken() any {
	if m == nil {
		return nil
	}
	return m[progressTokenKey]
}

// SetProgressToken stashes a progress token in m, allocating it if necessary.
func (m *Meta) SetProgressToken(token any) {
	if *m == nil {
		*m = make(Meta)
	}
	(*m)[progressTokenKey] = token
}

// Params is implemented by every request and notification payload type. It
// exists so the session layer can read/write the reserved _meta object
// without knowing the concrete payload type.
type Params interface {
	isParams()
	GetMeta() Meta
	SetMeta(Meta)
}

// Result is implemented by every response payload type, for the same reason
// as [Params].
type Result interface {
	isResult()
	GetMeta() Meta
	SetMeta(Meta)
}

// paramsMeta and resultMeta are embedded anonymously by concrete payload
// types to pick up the Params/Result plumbing without repeating it.
type paramsMeta struct {
	Meta Meta `json:"_meta,omitempty"`
}

func (paramsMeta) isParams() {}

func (p paramsMeta) GetMeta() Meta   { return p.Meta }
func (p *paramsMeta) SetMeta(m Meta) { p.Meta = m }

type resultMeta struct {
	Meta Meta `json:"_meta,omitempty"`
}

func (resultMeta) isResult() {}

func (r resultMeta) GetMeta() Meta   { return r.Meta }
func (r *resultMeta) SetMeta(m Meta) { r.Meta = m }
