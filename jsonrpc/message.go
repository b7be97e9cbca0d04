// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package jsonrpc is the public JSON-RPC 2.0 wire schema shared by every
// mcpcore transport: the tagged Request/Notification/Response message
// variants, the reserved error codes, and the codec used to move between
// wire bytes and typed Go values.
//
// The implementation lives in internal/jsonrpc2, which additionally
// defends decoding against field-name-case smuggling attacks; this package
// re-exports just the public surface a Transport or Session needs.
package jsonrpc

import "github.com/mcpcore/mcpcore/internal/jsonrpc2"

// Version is the only JSON-RPC version this module speaks.
const Version = jsonrpc2.Version

// Reserved JSON-RPC error codes.
const (
	CodeParseError     = jsonrpc2.CodeParseError
	CodeInvalidRequest = jsonrpc2.CodeInvalidRequest
	CodeMethodNotFound = jsonrpc2.CodeMethodNotFound
	CodeInvalidParams  = jsonrpc2.CodeInvalidParams
	CodeInternalError  = jsonrpc2.CodeInternalError
)

type (
	// ID identifies a request/response pair. See [jsonrpc2.ID].
	ID = jsonrpc2.ID
	// ErrorObject is the JSON-RPC error object carried by a failed Response.
	ErrorObject = jsonrpc2.ErrorObject
	// Message is implemented by Request, Notification, and Response.
	Message = jsonrpc2.Message
	// Request is a call that expects a matching Response.
	Request = jsonrpc2.Request
	// Notification is a call with no ID; it produces no Response.
	Notification = jsonrpc2.Notification
	// Response answers a Request carrying the same ID.
	Response = jsonrpc2.Response
)

// NewID returns a string-valued ID. Every ID mcpcore mints goes through
// this constructor, so correlation keys are a single concrete type
// internally even though the wire format allows numbers too.
func NewID(s string) ID { return jsonrpc2.NewID(s) }

// NewNumberID returns a number-valued ID, used only when decoding ids
// minted by a peer that prefers integers.
func NewNumberID(n int64) ID { return jsonrpc2.NewNumberID(n) }

// EncodeMessage marshals m to its wire form.
func EncodeMessage(m Message) ([]byte, error) { return jsonrpc2.EncodeMessage(m) }

// DecodeMessage parses one JSON object and classifies it as a Request,
// Notification, or Response. See [jsonrpc2.DecodeMessage] for the
// classification rules and the key-smuggling defense applied first.
func DecodeMessage(data []byte) (Message, error) { return jsonrpc2.DecodeMessage(data) }
