// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/mcpcore/mcpcore/jsonrpc"
)

// SSEEndpoint is the default path an [SSETransport] mounts its POST message
// handler at, relative to the GET /sse route.
const SSEEndpoint = "/message"

// sseConnection is one peer's outbound queue and SSE flusher.
type sseConnection struct {
	id      string
	outbox  chan jsonrpc.Message
	limiter *rate.Limiter
	done    chan struct{}
}

// SSETransport implements the server side of the SSE transport: a GET /sse
// endpoint that upgrades to an event stream, and a POST endpoint that
// accepts one message per request body. Each connected peer gets its own
// outbound queue, so a slow SSE reader backpressures only its own session.
type SSETransport struct {
	router chi.Router
	log    *slog.Logger

	// RequestsPerSecond bounds how fast a single connection's writer drains
	// its outbox, guarding against a runaway handler flooding a slow
	// client. Zero disables the limit.
	RequestsPerSecond rate.Limit

	mu    sync.Mutex
	conns map[string]*sseConnection

	handler InboundHandler
}

// NewSSETransport returns an unstarted SSETransport. Call [SSETransport.Handler]
// to obtain the http.Handler to mount, and Start to begin accepting
// connections.
func NewSSETransport(log *slog.Logger) *SSETransport {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := chi.NewRouter()
	t := &SSETransport{
		router:            r,
		log:               log,
		RequestsPerSecond: rate.Inf,
		conns:             make(map[string]*sseConnection),
	}
	r.Get("/sse", t.handleSSE)
	r.Post(SSEEndpoint, t.handlePost)
	return t
}

// Handler returns the http.Handler to mount at the SSE transport's base path.
func (t *SSETransport) Handler() http.Handler { return t.router }

// Start records the inbound handler invoked for every message POSTed by a
// connected peer. The HTTP server itself is run by the caller.
func (t *SSETransport) Start(ctx context.Context, handler InboundHandler) error {
	t.handler = handler
	return nil
}

func (t *SSETransport) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	id := uuid.NewString()
	limit := t.RequestsPerSecond
	if limit == 0 {
		limit = rate.Inf
	}
	limiter := rate.NewLimiter(limit, 1)
	conn := &sseConnection{id: id, outbox: make(chan jsonrpc.Message, 64), limiter: limiter, done: make(chan struct{})}

	t.mu.Lock()
	t.conns[id] = conn
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.conns, id)
		t.mu.Unlock()
		close(conn.done)
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: endpoint\ndata: %s?sessionId=%s\n\n", SSEEndpoint, id)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-conn.outbox:
			if !ok {
				return
			}
			if err := conn.limiter.Wait(ctx); err != nil {
				return
			}
			data, err := jsonrpc.EncodeMessage(msg)
			if err != nil {
				t.log.Error("mcp: failed to encode SSE event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (t *SSETransport) handlePost(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	t.mu.Lock()
	conn, ok := t.conns[sessionID]
	t.mu.Unlock()
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	limit := effectiveMaxBodyBytes(DefaultMaxBodyBytes)
	body := r.Body
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		body = r.Body
	}
	var raw json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		if isMaxBytesError(err) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	msg, err := jsonrpc.DecodeMessage(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if t.handler != nil {
		ctx := WithSSESession(r.Context(), sessionID)
		if err := t.handler(ctx, msg); err != nil {
			t.log.Warn("mcp: inbound SSE handler returned error", "error", err)
		}
	}
	w.WriteHeader(http.StatusAccepted)
}

// Send delivers msg to the connection named by ctx's sessionId, set via
// [WithSSESession]. Send to a peer with no open GET /sse stream fails.
func (t *SSETransport) Send(ctx context.Context, msg jsonrpc.Message) error {
	id, _ := ctx.Value(sseSessionKey{}).(string)
	t.mu.Lock()
	conn, ok := t.conns[id]
	t.mu.Unlock()
	if !ok {
		return fmt.Errorf("mcp: no SSE connection for session %q", id)
	}
	select {
	case conn.outbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-conn.done:
		return errors.New("mcp: SSE connection closed")
	}
}

// CloseGracefully closes every connection's outbox, allowing in-flight
// events to flush before the stream ends.
func (t *SSETransport) CloseGracefully(ctx context.Context) error {
	t.mu.Lock()
	conns := make([]*sseConnection, 0, len(t.conns))
	for _, c := range t.conns {
		conns = append(conns, c)
	}
	t.mu.Unlock()
	for _, c := range conns {
		close(c.outbox)
	}
	deadline := time.After(5 * time.Second)
	for _, c := range conns {
		select {
		case <-c.done:
		case <-deadline:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Close ends every connection immediately.
func (t *SSETransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, c := range t.conns {
		close(c.outbox)
		delete(t.conns, id)
	}
	return nil
}

type sseSessionKey struct{}

// WithSSESession attaches the SSE session id a subsequent [SSETransport.Send]
// should route to, so one transport can serve many concurrent sessions.
func WithSSESession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sseSessionKey{}, sessionID)
}
