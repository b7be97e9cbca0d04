// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import "fmt"

// ProtocolError is a well-formed JSON-RPC error Response returned by the peer.
type ProtocolError struct {
	Code    int64
	Message string
	Data    any
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("mcp: protocol error %d: %s", e.Code, e.Message)
}

// TimeoutError reports that a request's deadline elapsed before a matching
// Response arrived.
type TimeoutError struct {
	Method string
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("mcp: request %q timed out", e.Method) }

// CancelledError reports that a request was abandoned because the caller
// cancelled it or the session closed while it was in flight.
type CancelledError struct {
	Method string
}

func (e *CancelledError) Error() string { return fmt.Sprintf("mcp: request %q cancelled", e.Method) }

// ProtocolVersionMismatch reports that a peer's initialize response named a
// protocol version this session does not speak.
type ProtocolVersionMismatch struct {
	Got, Want string
}

func (e *ProtocolVersionMismatch) Error() string {
	return fmt.Sprintf("mcp: protocol version mismatch: got %q, want %q", e.Got, e.Want)
}

// MethodNotFoundError reports that no handler is registered for an inbound
// method. It is also used to build the JSON-RPC -32601 error Response.
type MethodNotFoundError struct {
	Method string
}

func (e *MethodNotFoundError) Error() string { return fmt.Sprintf("Method not found: %s", e.Method) }

// ConfigurationError reports an invalid combination of options supplied at
// construction time, e.g. declaring a capability without the handler it
// requires.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string { return fmt.Sprintf("mcp: configuration error: %s", e.Reason) }

// StateError reports that an operation is illegal in the session's current
// lifecycle state.
type StateError struct {
	Op    string
	State SessionState
}

func (e *StateError) Error() string {
	return fmt.Sprintf("mcp: cannot %s in state %s", e.Op, e.State)
}

// ClosedError reports that an operation was attempted on a session that has
// begun or finished closing.
type ClosedError struct{}

func (e *ClosedError) Error() string { return "mcp: session closed" }

// NotInitializedError reports that an operation requiring a completed
// handshake was attempted before one occurred.
type NotInitializedError struct{}

func (e *NotInitializedError) Error() string { return "mcp: session not initialized" }

// AlreadyExistsError reports a duplicate-key mutation, e.g. adding a root
// whose uri is already registered.
type AlreadyExistsError struct {
	Key string
}

func (e *AlreadyExistsError) Error() string { return fmt.Sprintf("mcp: %q already exists", e.Key) }

// NotFoundError reports a mutation targeting a key that is not registered.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("mcp: %q not found", e.Key) }

// CapabilityMissingError reports that an operation requires a capability the
// session was not constructed with.
type CapabilityMissingError struct {
	Capability string
}

func (e *CapabilityMissingError) Error() string {
	return fmt.Sprintf("mcp: capability %q not declared", e.Capability)
}
