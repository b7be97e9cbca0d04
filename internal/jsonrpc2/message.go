// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package jsonrpc2

import (
	"fmt"
	"strconv"

	"github.com/mcpcore/mcpcore/internal/json"
	"github.com/mcpcore/mcpcore/internal/mcpdebug"
)

// Version is the only JSON-RPC version this module speaks.
const Version = "2.0"

// Reserved JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// ID identifies a request/response pair. The wire format allows a string or
// a number; mcpcore mints string ids for requests it originates, but
// decodes either form when reading a peer's message.
type ID struct {
	str      string
	num      int64
	isString bool
	isNum    bool
}

// NewID returns a string-valued ID.
func NewID(s string) ID { return ID{str: s, isString: true} }

// NewNumberID returns a number-valued ID, used only when decoding ids
// minted by a peer that prefers integers.
func NewNumberID(n int64) ID { return ID{num: n, isNum: true} }

// IsZero reports whether id is the zero ID (absent from the wire message).
func (id ID) IsZero() bool { return !id.isString && !id.isNum }

// String returns a human-readable, map-key-stable representation of id.
func (id ID) String() string {
	switch {
	case id.isString:
		return id.str
	case id.isNum:
		return strconv.FormatInt(id.num, 10)
	default:
		return ""
	}
}

func (id ID) MarshalJSON() ([]byte, error) {
	switch {
	case id.isString:
		return json.Marshal(id.str)
	case id.isNum:
		return json.Marshal(id.num)
	default:
		return []byte("null"), nil
	}
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID{str: s, isString: true}
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*id = ID{num: n, isNum: true}
		return nil
	}
	return fmt.Errorf("jsonrpc2: id %s is neither a string nor a number", data)
}

// ErrorObject is the JSON-RPC error object carried by a failed Response.
type ErrorObject struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *ErrorObject) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Message is implemented by Request, Notification, and Response: exactly
// one of these three shapes crosses the wire per JSON object.
type Message interface {
	isMessage()
}

// Request is a call that expects a Response carrying the same ID.
type Request struct {
	ID     ID     `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

func (*Request) isMessage() {}

// Notification is a call with no ID; the receiver must not reply.
type Notification struct {
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

func (*Notification) isMessage() {}

// Response answers a Request carrying the same ID. Exactly one of
// Result/Error is present.
type Response struct {
	ID     ID           `json:"id"`
	Result any          `json:"result,omitempty"`
	Error  *ErrorObject `json:"error,omitempty"`
}

func (*Response) isMessage() {}

// wireMessage is the superset shape used to classify an arbitrary incoming
// JSON object before it is known which variant it is.
type wireMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *ID             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// EncodeMessage marshals m to its wire form, stamping "jsonrpc":"2.0".
func EncodeMessage(m Message) ([]byte, error) {
	switch m := m.(type) {
	case *Request:
		return json.Marshal(struct {
			JSONRPC string `json:"jsonrpc"`
			ID      ID     `json:"id"`
			Method  string `json:"method"`
			Params  any    `json:"params,omitempty"`
		}{Version, m.ID, m.Method, m.Params})
	case *Notification:
		return json.Marshal(struct {
			JSONRPC string `json:"jsonrpc"`
			Method  string `json:"method"`
			Params  any    `json:"params,omitempty"`
		}{Version, m.Method, m.Params})
	case *Response:
		return json.Marshal(struct {
			JSONRPC string       `json:"jsonrpc"`
			ID      ID           `json:"id"`
			Result  any          `json:"result,omitempty"`
			Error   *ErrorObject `json:"error,omitempty"`
		}{Version, m.ID, m.Result, m.Error})
	default:
		return nil, fmt.Errorf("jsonrpc2: unknown message type %T", m)
	}
}

// DecodeMessage parses one JSON object and classifies it as Request,
// Notification, or Response by field presence:
//
//	has method + has id             -> Request
//	has method + no id              -> Notification
//	has id + (result xor error)     -> Response
//	otherwise                       -> error (caller should drop the line)
//
// Before anything else, it scans the whole object (recursively) for
// case-variant duplicate keys, which is how a field-name-smuggling attack
// like {"name":"greet","Name":"secretTool"} would otherwise slip a second
// value for the same logical field past a case-insensitive unmarshaller.
// Params and Result are left as json.RawMessage for the caller (normally a
// Transport or dispatcher) to unmarshal into a concrete type once the
// method is known.
func DecodeMessage(data []byte) (Message, error) {
	if mcpdebug.Value("allowkeysmuggling") != "1" {
		if err := DetectKeySmuggling(data); err != nil {
			return nil, fmt.Errorf("jsonrpc2: %w", err)
		}
	}
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("jsonrpc2: decode: %w", err)
	}
	hasID := w.ID != nil
	hasMethod := w.Method != ""
	hasResult := len(w.Result) > 0 && string(w.Result) != "null"
	hasError := w.Error != nil

	switch {
	case hasMethod && hasID:
		return &Request{ID: *w.ID, Method: w.Method, Params: rawOrNil(w.Params)}, nil
	case hasMethod && !hasID:
		return &Notification{Method: w.Method, Params: rawOrNil(w.Params)}, nil
	case hasID && (hasResult != hasError):
		return &Response{ID: *w.ID, Result: rawOrNil(w.Result), Error: w.Error}, nil
	default:
		return nil, fmt.Errorf("jsonrpc2: malformed message: not a request, notification, or response")
	}
}

func rawOrNil(r json.RawMessage) any {
	if len(r) == 0 {
		return nil
	}
	return r
}
