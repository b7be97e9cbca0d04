// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/mcpcore/mcpcore/jsonrpc"
)

// StdioTransport frames one JSON-RPC message per line over an arbitrary
// pair of byte streams. A server normally constructs it over os.Stdin and
// os.Stdout; [CommandTransport] builds one over a spawned child process's
// pipes for the client side of a stdio-launched server.
type StdioTransport struct {
	in  io.Reader
	out io.Writer

	log *slog.Logger

	outbox    chan jsonrpc.Message
	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}
	drained   chan struct{}
}

// NewStdioTransport returns a transport that reads line-delimited JSON from
// in and writes it to out. A nil logger discards transport-level log lines.
func NewStdioTransport(in io.Reader, out io.Writer, log *slog.Logger) *StdioTransport {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &StdioTransport{
		in: in, out: out, log: log,
		outbox:  make(chan jsonrpc.Message, 64),
		closed:  make(chan struct{}),
		done:    make(chan struct{}),
		drained: make(chan struct{}),
	}
}

// NewStandardStdioTransport returns a StdioTransport over the process's own
// os.Stdin and os.Stdout, the usual wiring for a server launched as a child
// process by an MCP host.
func NewStandardStdioTransport(log *slog.Logger) *StdioTransport {
	return NewStdioTransport(os.Stdin, os.Stdout, log)
}

// Start launches the inbound reader and outbound writer goroutines. Each
// runs independently so a slow handler never blocks writes, and vice versa.
func (t *StdioTransport) Start(ctx context.Context, handler InboundHandler) error {
	go t.readLoop(ctx, handler)
	go t.writeLoop()
	return nil
}

func (t *StdioTransport) readLoop(ctx context.Context, handler InboundHandler) {
	defer close(t.done)
	scanner := bufio.NewScanner(t.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		msg, err := jsonrpc.DecodeMessage(line)
		if err != nil {
			t.log.Warn("mcp: dropping malformed stdio line", "error", err)
			continue
		}
		if err := handler(ctx, msg); err != nil {
			t.log.Warn("mcp: inbound handler returned error", "error", err)
		}
	}
	if err := scanner.Err(); err != nil {
		t.log.Warn("mcp: stdio read loop ended with error", "error", err)
	}
}

func (t *StdioTransport) writeLoop() {
	defer close(t.drained)
	for msg := range t.outbox {
		data, err := jsonrpc.EncodeMessage(msg)
		if err != nil {
			t.log.Error("mcp: failed to encode outbound message", "error", err)
			continue
		}
		data = append(data, '\n')
		if _, err := t.out.Write(data); err != nil {
			t.log.Error("mcp: stdio write failed", "error", err)
		}
	}
}

// Send enqueues msg for the writer goroutine.
func (t *StdioTransport) Send(ctx context.Context, msg jsonrpc.Message) error {
	select {
	case <-t.closed:
		return errors.New("mcp: stdio transport closed")
	default:
	}
	select {
	case t.outbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-t.closed:
		return errors.New("mcp: stdio transport closed")
	}
}

// CloseGracefully stops accepting new sends and waits for the outbound
// queue to drain before returning. It does not wait for the inbound side
// to observe EOF: over a plain in/out pair (the server's own stdin) nothing
// in this process ever closes the read end, so waiting on it here would
// hang every graceful shutdown. [CommandTransport.CloseGracefully] layers
// the inbound wait on top, once it has closed the child's stdin itself.
func (t *StdioTransport) CloseGracefully(ctx context.Context) error {
	t.closeOnce.Do(func() { close(t.closed); close(t.outbox) })
	select {
	case <-t.drained:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Close releases resources without waiting for the outbound queue to drain.
func (t *StdioTransport) Close() error {
	t.closeOnce.Do(func() { close(t.closed); close(t.outbox) })
	return nil
}

// CommandTransport is the client side of a stdio-launched server: it spawns
// a child process and frames messages over its stdin/stdout, republishing
// stderr lines through an error sink rather than the message stream.
type CommandTransport struct {
	*StdioTransport
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	Stderr func(line string)
}

// CommandTransportOptions configures [NewCommandTransport].
type CommandTransportOptions struct {
	Command string
	Args    []string
	Env     []string
	Dir     string
	Stderr  func(line string)
	Log     *slog.Logger
}

// NewCommandTransport spawns opts.Command with opts.Args and wires its
// stdin/stdout as an [StdioTransport]. The child's stderr is scanned
// line-by-line and handed to opts.Stderr, which may be nil to discard it.
func NewCommandTransport(opts CommandTransportOptions) (*CommandTransport, error) {
	cmd := exec.Command(opts.Command, opts.Args...)
	if len(opts.Env) > 0 {
		cmd.Env = opts.Env
	}
	cmd.Dir = opts.Dir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	t := &CommandTransport{
		StdioTransport: NewStdioTransport(stdout, stdin, opts.Log),
		cmd:            cmd,
		stdin:          stdin,
		Stderr:         opts.Stderr,
	}
	go t.drainStderr(stderr)
	return t, nil
}

func (t *CommandTransport) drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if t.Stderr != nil {
			t.Stderr(scanner.Text())
		}
	}
}

// CloseGracefully waits for the outbound queue to drain, closes the child's
// stdin (signalling EOF to its reader), waits for the inbound reader to see
// the child's own EOF on exit, then waits for the process to exit. The
// child normally exits because its stdin was closed, so stdin must close
// before anything waits on the child having exited.
func (t *CommandTransport) CloseGracefully(ctx context.Context) error {
	if err := t.StdioTransport.CloseGracefully(ctx); err != nil {
		return err
	}
	_ = t.stdin.Close()
	select {
	case <-t.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return t.cmd.Wait()
}

// Close kills the child process immediately.
func (t *CommandTransport) Close() error {
	_ = t.StdioTransport.Close()
	if t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
	}
	return nil
}
