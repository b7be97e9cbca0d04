// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// WebSocketTransport is a bonus transport beyond the stdio and SSE pair the
// protocol names explicitly: a framing is a framing, and gorilla/websocket
// gives one for free over a single long-lived connection instead of SSE's
// GET-stream-plus-POST pair.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcpcore/mcpcore/internal/util"
	"github.com/mcpcore/mcpcore/jsonrpc"
)

// mcpSubprotocol is the WebSocket subprotocol this transport negotiates.
const mcpSubprotocol = "mcp"

// WebSocketTransport implements [Transport] over a single gorilla/websocket
// connection, usable on either end once dialed or accepted.
type WebSocketTransport struct {
	conn *websocket.Conn
	log  *slog.Logger

	writeMu sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}
}

func newWebSocketTransport(conn *websocket.Conn, log *slog.Logger) *WebSocketTransport {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("ws_conn", randText())
	return &WebSocketTransport{conn: conn, log: log, closed: make(chan struct{}), done: make(chan struct{})}
}

// DialWebSocket opens a client-side WebSocketTransport to url.
func DialWebSocket(ctx context.Context, url string, dialer *websocket.Dialer, header http.Header, log *slog.Logger) (*WebSocketTransport, error) {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	d := *dialer
	d.Subprotocols = []string{mcpSubprotocol}
	conn, resp, err := d.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("mcp: websocket dial: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("mcp: websocket dial: %w", err)
	}
	return newWebSocketTransport(conn, log), nil
}

// WebSocketUpgrader upgrades incoming HTTP requests to the mcp subprotocol,
// rejecting cross-origin requests that don't originate from a loopback
// address, unless AllowedOrigins says otherwise.
type WebSocketUpgrader struct {
	AllowedOrigins []string
	Log            *slog.Logger
}

// Upgrade upgrades one HTTP connection and returns its transport.
func (u *WebSocketUpgrader) Upgrade(w http.ResponseWriter, r *http.Request) (*WebSocketTransport, error) {
	upgrader := websocket.Upgrader{
		Subprotocols: []string{mcpSubprotocol},
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, o := range u.AllowedOrigins {
				if o == origin {
					return true
				}
			}
			originURL, err := url.Parse(origin)
			if err != nil {
				return false
			}
			return util.IsLoopback(originURL.Host)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("mcp: websocket upgrade: %w", err)
	}
	return newWebSocketTransport(conn, u.Log), nil
}

// Start launches the inbound reader goroutine.
func (t *WebSocketTransport) Start(ctx context.Context, handler InboundHandler) error {
	go t.readLoop(ctx, handler)
	return nil
}

func (t *WebSocketTransport) readLoop(ctx context.Context, handler InboundHandler) {
	defer close(t.done)
	for {
		messageType, data, err := t.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.log.Warn("mcp: websocket read error", "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		msg, err := jsonrpc.DecodeMessage(data)
		if err != nil {
			t.log.Warn("mcp: dropping malformed websocket frame", "error", err)
			continue
		}
		if err := handler(ctx, msg); err != nil {
			t.log.Warn("mcp: inbound handler returned error", "error", err)
		}
	}
}

// Send writes one message as a text frame.
func (t *WebSocketTransport) Send(ctx context.Context, msg jsonrpc.Message) error {
	data, err := jsonrpc.EncodeMessage(msg)
	if err != nil {
		return err
	}
	select {
	case <-t.closed:
		return errors.New("mcp: websocket transport closed")
	default:
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(deadline)
		defer t.conn.SetWriteDeadline(time.Time{})
	}
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

// CloseGracefully sends a close frame and waits for the reader to exit.
func (t *WebSocketTransport) CloseGracefully(ctx context.Context) error {
	t.closeOnce.Do(func() { close(t.closed) })
	deadline := time.Now().Add(2 * time.Second)
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	select {
	case <-t.done:
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
	}
	return t.conn.Close()
}

// Close closes the underlying connection immediately.
func (t *WebSocketTransport) Close() error {
	t.closeOnce.Do(func() { close(t.closed) })
	return t.conn.Close()
}
