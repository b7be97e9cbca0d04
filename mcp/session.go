// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file holds the session layer: the state machine that multiplexes
// outbound requests against inbound responses and notifications on a single
// duplex message stream.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/mcpcore/mcpcore/jsonrpc"
)

// SessionState is one of the lifecycle states a session moves through.
type SessionState int

const (
	StateUnconnected SessionState = iota
	StateConnected
	StateInitialized
	StateClosing
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateUnconnected:
		return "unconnected"
	case StateConnected:
		return "connected"
	case StateInitialized:
		return "initialized"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// requestHandlerFunc answers an inbound Request. It returns the result to
// send back, or an error: a *ProtocolError's code/message are sent verbatim,
// a *ConfigurationError becomes CodeInvalidParams, a *MethodNotFoundError
// becomes CodeMethodNotFound, and anything else becomes CodeInternalError.
type requestHandlerFunc func(ctx context.Context, params any) (any, error)

// notificationHandlerFunc handles an inbound Notification. Any error it
// returns is logged and swallowed — notifications never produce a reply.
type notificationHandlerFunc func(ctx context.Context, params any) error

// pendingRequest is the completion sink for one outbound request awaiting a
// Response.
type pendingRequest struct {
	method string
	result chan pendingOutcome
	once   sync.Once
	timer  *time.Timer
}

type pendingOutcome struct {
	result any
	err    error
}

// session is the shared core behind [ClientSession] and [ServerSession]: the
// correlation/dispatch/timeout/shutdown state machine described at the top
// of this file. It is never constructed directly by users.
type session struct {
	transport      Transport
	requestTimeout time.Duration
	log            *slog.Logger
	pool           *workerPool

	// mu guards everything below: pending, nextID, and state form the
	// single serialized piece of session state the spec calls out as
	// owned by one serial executor.
	mu      sync.Mutex
	pending map[string]*pendingRequest
	nextID  int64
	state   SessionState

	requestHandlers      map[string]requestHandlerFunc
	notificationHandlers map[string]notificationHandlerFunc

	drainCh chan struct{}
}

func newSession(transport Transport, requestTimeout time.Duration, log *slog.Logger) *session {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &session{
		transport:            transport,
		requestTimeout:       requestTimeout,
		log:                  log,
		pool:                 newWorkerPool(defaultPoolSize, log),
		pending:              make(map[string]*pendingRequest),
		requestHandlers:      make(map[string]requestHandlerFunc),
		notificationHandlers: make(map[string]notificationHandlerFunc),
		state:                StateConnected,
		drainCh:              make(chan struct{}, 1),
	}
}

// start binds the session's inbound dispatch to its transport. Called once,
// immediately after construction.
func (s *session) start(ctx context.Context) error {
	return s.transport.Start(ctx, s.onInbound)
}

func (s *session) mintID() jsonrpc.ID {
	s.nextID++
	return jsonrpc.NewID(strconv.FormatInt(s.nextID, 10))
}

// request sends method/params and blocks until a Response, timeout, or
// session close completes it. result, if non-nil, receives the decoded
// payload on success.
func (s *session) request(ctx context.Context, method string, params Params, result Result) error {
	s.mu.Lock()
	switch s.state {
	case StateClosing, StateClosed:
		s.mu.Unlock()
		return &ClosedError{}
	case StateConnected:
		if method != methodInitialize {
			s.mu.Unlock()
			return &NotInitializedError{}
		}
	}
	id := s.mintID()
	pr := &pendingRequest{method: method, result: make(chan pendingOutcome, 1)}
	pr.timer = time.AfterFunc(s.requestTimeout, func() { s.completeTimeout(id.String(), method) })
	s.pending[id.String()] = pr
	s.mu.Unlock()

	req := &jsonrpc.Request{ID: id, Method: method, Params: params}
	if err := s.transport.Send(ctx, req); err != nil {
		s.mu.Lock()
		delete(s.pending, id.String())
		s.mu.Unlock()
		pr.timer.Stop()
		return fmt.Errorf("mcp: send %s: %w", method, err)
	}

	select {
	case outcome := <-pr.result:
		if outcome.err != nil {
			return outcome.err
		}
		if result != nil && outcome.result != nil {
			if err := decodeParams(outcome.result, result); err != nil {
				return fmt.Errorf("mcp: decode %s result: %w", method, err)
			}
		}
		return nil
	case <-ctx.Done():
		s.completeCancel(id.String(), method)
		return &CancelledError{Method: method}
	}
}

// notify sends a fire-and-forget notification.
func (s *session) notify(ctx context.Context, method string, params Params) error {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	if state == StateClosing || state == StateClosed {
		return &ClosedError{}
	}
	return s.transport.Send(ctx, &jsonrpc.Notification{Method: method, Params: params})
}

// completeTimeout fires when a pending request's deadline elapses. It is a
// no-op if the request already completed via response arrival — first wins.
func (s *session) completeTimeout(id, method string) {
	s.mu.Lock()
	pr, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	pr.once.Do(func() { pr.result <- pendingOutcome{err: &TimeoutError{Method: method}} })
}

// completeCancel fires when the caller's context is cancelled before a
// response arrives.
func (s *session) completeCancel(id, method string) {
	s.mu.Lock()
	pr, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	pr.timer.Stop()
	pr.once.Do(func() { pr.result <- pendingOutcome{err: &CancelledError{Method: method}} })
}

// onInbound classifies and dispatches one message produced by the transport.
func (s *session) onInbound(ctx context.Context, msg jsonrpc.Message) error {
	switch m := msg.(type) {
	case *jsonrpc.Response:
		s.completeResponse(m)
	case *jsonrpc.Request:
		s.dispatchRequest(ctx, m)
	case *jsonrpc.Notification:
		s.dispatchNotification(ctx, m)
	default:
		return fmt.Errorf("mcp: unrecognized message type %T", msg)
	}
	return nil
}

func (s *session) completeResponse(resp *jsonrpc.Response) {
	id := resp.ID.String()
	s.mu.Lock()
	pr, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()
	if !ok {
		s.log.Warn("mcp: dropping response with no matching pending request", "id", id)
		return
	}
	pr.timer.Stop()
	var outcome pendingOutcome
	if resp.Error != nil {
		outcome.err = &ProtocolError{Code: resp.Error.Code, Message: resp.Error.Message, Data: resp.Error.Data}
	} else {
		outcome.result = resp.Result
	}
	pr.once.Do(func() { pr.result <- outcome })
}

func (s *session) dispatchRequest(ctx context.Context, req *jsonrpc.Request) {
	s.mu.Lock()
	handler, ok := s.requestHandlers[req.Method]
	s.mu.Unlock()
	if !ok {
		s.replyError(ctx, req.ID, jsonrpc.CodeMethodNotFound, (&MethodNotFoundError{Method: req.Method}).Error())
		return
	}
	id := req.ID
	params := req.Params
	s.pool.Submit(func() {
		result, err := handler(ctx, params)
		if err != nil {
			code, msg := errorToWire(err)
			s.replyError(ctx, id, code, msg)
			return
		}
		if err := s.transport.Send(ctx, &jsonrpc.Response{ID: id, Result: result}); err != nil {
			s.log.Warn("mcp: failed to send response", "method", req.Method, "error", err)
		}
	})
}

func (s *session) dispatchNotification(ctx context.Context, n *jsonrpc.Notification) {
	s.mu.Lock()
	handler, ok := s.notificationHandlers[n.Method]
	s.mu.Unlock()
	if !ok {
		s.log.Debug("mcp: dropping notification with no handler", "method", n.Method)
		return
	}
	params := n.Params
	s.pool.Submit(func() {
		if err := handler(ctx, params); err != nil {
			s.log.Warn("mcp: notification handler failed", "method", n.Method, "error", err)
		}
	})
}

func (s *session) replyError(ctx context.Context, id jsonrpc.ID, code int64, message string) {
	err := s.transport.Send(ctx, &jsonrpc.Response{ID: id, Error: &jsonrpc.ErrorObject{Code: code, Message: message}})
	if err != nil {
		s.log.Warn("mcp: failed to send error response", "error", err)
	}
}

// errorToWire maps a handler error to a JSON-RPC error code/message pair.
func errorToWire(err error) (int64, string) {
	switch e := err.(type) {
	case *ProtocolError:
		return e.Code, e.Message
	case *ConfigurationError:
		return jsonrpc.CodeInvalidParams, err.Error()
	case *MethodNotFoundError:
		return jsonrpc.CodeMethodNotFound, err.Error()
	default:
		return jsonrpc.CodeInternalError, err.Error()
	}
}

// setState transitions the session's lifecycle state under lock.
func (s *session) setState(next SessionState) {
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
}

func (s *session) getState() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// closeGracefully stops accepting new work, waits (bounded) for in-flight
// requests to drain, then closes the transport.
func (s *session) closeGracefully(ctx context.Context, drainTimeout time.Duration) error {
	s.setState(StateClosing)
	if drainTimeout <= 0 {
		drainTimeout = 5 * time.Second
	}
	deadline := time.After(drainTimeout)
loop:
	for {
		s.mu.Lock()
		empty := len(s.pending) == 0
		s.mu.Unlock()
		if empty {
			break
		}
		select {
		case <-time.After(10 * time.Millisecond):
		case <-deadline:
			break loop
		case <-ctx.Done():
			break loop
		}
	}
	s.cancelAllPending()
	s.pool.Close()
	s.setState(StateClosed)
	return s.transport.CloseGracefully(ctx)
}

// close transitions to Closed immediately, cancelling every pending request,
// and asks the transport to close without waiting.
func (s *session) close() error {
	s.setState(StateClosed)
	s.cancelAllPending()
	go s.pool.Close()
	return s.transport.Close()
}

func (s *session) cancelAllPending() {
	s.mu.Lock()
	pending := s.pending
	s.pending = make(map[string]*pendingRequest)
	s.mu.Unlock()
	for _, pr := range pending {
		pr.timer.Stop()
		pr.once.Do(func() { pr.result <- pendingOutcome{err: &CancelledError{Method: pr.method}} })
	}
}
