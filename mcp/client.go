// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"log/slog"
	"time"
)

// SamplingHandler answers a server's sampling/createMessage request by
// asking the host's model to generate a message. It may be called
// concurrently and may block or perform I/O; the session never calls it from
// the transport's reader goroutine.
type SamplingHandler func(context.Context, *CreateMessageRequest) (*CreateMessageResult, error)

// ToolsChangedHandler, ResourcesChangedHandler, and PromptsChangedHandler are
// invoked after the client has re-fetched the corresponding list in response
// to a */list_changed notification.
type ToolsChangedHandler func(context.Context, []*Tool)
type ResourcesChangedHandler func(context.Context, []*Resource)
type PromptsChangedHandler func(context.Context, []*Prompt)

// ProgressHandler receives a notifications/progress update for a request
// this client made with a progress token attached.
type ProgressHandler func(context.Context, *ProgressNotificationParams)

// ClientOptions configures a [Client].
type ClientOptions struct {
	// RequestTimeout bounds how long an outbound request waits for a
	// response before completing with [TimeoutError]. Zero uses a 30s
	// default.
	RequestTimeout time.Duration

	RootsCapability     bool
	SamplingCapability  bool
	SamplingHandler     SamplingHandler
	InitialRoots        []*Root
	RootsListChanged    bool

	OnToolsChanged     ToolsChangedHandler
	OnResourcesChanged ResourcesChangedHandler
	OnPromptsChanged   PromptsChangedHandler
	OnProgress         ProgressHandler

	Logger *slog.Logger
}

// Client is a configured MCP client ready to be bound to a transport via
// [Client.Connect]. It holds no connection state itself, so the same Client
// can open multiple independent sessions.
type Client struct {
	info Implementation
	opts ClientOptions
}

// NewClient validates opts and returns a Client identifying itself to peers
// as info. Declaring the sampling capability without a handler fails fast,
// per the construction-time configuration contract.
func NewClient(info Implementation, opts ClientOptions) (*Client, error) {
	if opts.SamplingCapability && opts.SamplingHandler == nil {
		return nil, &ConfigurationError{Reason: "sampling capability declared without a SamplingHandler"}
	}
	return &Client{info: info, opts: opts}, nil
}

// ClientSession is a connected client: the session core plus the
// client-specific feature state (roots, sampling handler, change-notification
// consumers).
type ClientSession struct {
	s     *session
	c     *Client
	roots *rootSet
}

// Connect binds transport to a fresh session, installs the client's inbound
// handlers (roots/list, sampling/createMessage, */list_changed), starts the
// transport, and returns the session in the Connected state. Call
// [ClientSession.Initialize] to complete the handshake.
func (c *Client) Connect(ctx context.Context, transport Transport) (*ClientSession, error) {
	s := newSession(transport, c.opts.RequestTimeout, c.opts.Logger)
	cs := &ClientSession{s: s, c: c, roots: newRootSet(c.opts.InitialRoots)}

	s.requestHandlers[methodListRoots] = func(ctx context.Context, params any) (any, error) {
		return &ListRootsResult{Roots: cs.roots.list()}, nil
	}
	if c.opts.SamplingCapability {
		s.requestHandlers[methodCreateMessage] = func(ctx context.Context, params any) (any, error) {
			p := &CreateMessageParams{}
			if err := decodeParams(params, p); err != nil {
				return nil, err
			}
			return c.opts.SamplingHandler(ctx, &CreateMessageRequest{Session: cs, Params: p})
		}
	}

	s.notificationHandlers[notificationToolListChanged] = cs.coalescedToolsChanged
	s.notificationHandlers[notificationResourceListChanged] = cs.coalescedResourcesChanged
	s.notificationHandlers[notificationPromptListChanged] = cs.coalescedPromptsChanged
	s.notificationHandlers[notificationLoggingMessage] = func(ctx context.Context, params any) error { return nil }
	s.notificationHandlers[notificationProgress] = cs.handleProgress

	if err := s.start(ctx); err != nil {
		return nil, err
	}
	return cs, nil
}

func (cs *ClientSession) coalescedToolsChanged(ctx context.Context, params any) error {
	if cs.c.opts.OnToolsChanged == nil {
		return nil
	}
	res, err := cs.ListTools(ctx, "")
	if err != nil {
		return err
	}
	cs.c.opts.OnToolsChanged(ctx, res.Tools)
	return nil
}

func (cs *ClientSession) coalescedResourcesChanged(ctx context.Context, params any) error {
	if cs.c.opts.OnResourcesChanged == nil {
		return nil
	}
	res, err := cs.ListResources(ctx, "")
	if err != nil {
		return err
	}
	cs.c.opts.OnResourcesChanged(ctx, res.Resources)
	return nil
}

func (cs *ClientSession) handleProgress(ctx context.Context, params any) error {
	if cs.c.opts.OnProgress == nil {
		return nil
	}
	p := &ProgressNotificationParams{}
	if err := decodeParams(params, p); err != nil {
		return err
	}
	cs.c.opts.OnProgress(ctx, p)
	return nil
}

func (cs *ClientSession) coalescedPromptsChanged(ctx context.Context, params any) error {
	if cs.c.opts.OnPromptsChanged == nil {
		return nil
	}
	res, err := cs.ListPrompts(ctx, "")
	if err != nil {
		return err
	}
	cs.c.opts.OnPromptsChanged(ctx, res.Prompts)
	return nil
}

// Initialize performs the initialize/notifications-initialized handshake.
// It fails with [ProtocolVersionMismatch] if the peer names a different
// protocol version than [LatestProtocolVersion].
func (cs *ClientSession) Initialize(ctx context.Context) (*InitializeResult, error) {
	caps := ClientCapabilities{}
	if cs.c.opts.RootsCapability {
		caps.Roots = &RootCapabilities{ListChanged: cs.c.opts.RootsListChanged}
	}
	if cs.c.opts.SamplingCapability {
		caps.Sampling = &SamplingCapabilities{}
	}

	params := &InitializeParams{
		ProtocolVersion: LatestProtocolVersion,
		Capabilities:    caps,
		ClientInfo:      cs.c.info,
	}
	result := &InitializeResult{}
	if err := cs.s.request(ctx, methodInitialize, params, result); err != nil {
		return nil, err
	}
	if result.ProtocolVersion != LatestProtocolVersion {
		return nil, &ProtocolVersionMismatch{Got: result.ProtocolVersion, Want: LatestProtocolVersion}
	}
	cs.s.setState(StateInitialized)
	if err := cs.s.notify(ctx, notificationInitialized, &InitializedParams{}); err != nil {
		return nil, err
	}
	return result, nil
}

// Ping sends a liveness check.
func (cs *ClientSession) Ping(ctx context.Context) error {
	return cs.s.request(ctx, methodPing, &PingParams{}, nil)
}

// ListTools lists the server's tools, optionally starting from cursor.
func (cs *ClientSession) ListTools(ctx context.Context, cur string) (*ListToolsResult, error) {
	params := &ListToolsParams{cursor: cursor{Cursor: cur}}
	result := &ListToolsResult{}
	if err := cs.s.request(ctx, methodListTools, params, result); err != nil {
		return nil, err
	}
	return result, nil
}

// CallTool invokes a server tool.
func (cs *ClientSession) CallTool(ctx context.Context, params *CallToolParamsRaw) (*CallToolResult, error) {
	result := &CallToolResult{}
	if err := cs.s.request(ctx, methodCallTool, params, result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListResources lists the server's resources, optionally starting from cursor.
func (cs *ClientSession) ListResources(ctx context.Context, cur string) (*ListResourcesResult, error) {
	params := &ListResourcesParams{cursor: cursor{Cursor: cur}}
	result := &ListResourcesResult{}
	if err := cs.s.request(ctx, methodListResources, params, result); err != nil {
		return nil, err
	}
	return result, nil
}

// ReadResource reads one resource by uri.
func (cs *ClientSession) ReadResource(ctx context.Context, uri string) (*ReadResourceResult, error) {
	result := &ReadResourceResult{}
	if err := cs.s.request(ctx, methodReadResource, &ReadResourceParams{URI: uri}, result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListResourceTemplates lists the server's resource templates.
func (cs *ClientSession) ListResourceTemplates(ctx context.Context, cur string) (*ListResourceTemplatesResult, error) {
	params := &ListResourceTemplatesParams{cursor: cursor{Cursor: cur}}
	result := &ListResourceTemplatesResult{}
	if err := cs.s.request(ctx, methodListResourceTemplates, params, result); err != nil {
		return nil, err
	}
	return result, nil
}

// SubscribeResource asks the server to notify this client of updates to uri.
func (cs *ClientSession) SubscribeResource(ctx context.Context, uri string) error {
	return cs.s.request(ctx, methodSubscribe, &SubscribeParams{URI: uri}, nil)
}

// UnsubscribeResource cancels a prior SubscribeResource.
func (cs *ClientSession) UnsubscribeResource(ctx context.Context, uri string) error {
	return cs.s.request(ctx, methodUnsubscribe, &UnsubscribeParams{URI: uri}, nil)
}

// ListPrompts lists the server's prompts.
func (cs *ClientSession) ListPrompts(ctx context.Context, cur string) (*ListPromptsResult, error) {
	params := &ListPromptsParams{cursor: cursor{Cursor: cur}}
	result := &ListPromptsResult{}
	if err := cs.s.request(ctx, methodListPrompts, params, result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetPrompt renders one server prompt.
func (cs *ClientSession) GetPrompt(ctx context.Context, params *GetPromptParams) (*GetPromptResult, error) {
	result := &GetPromptResult{}
	if err := cs.s.request(ctx, methodGetPrompt, params, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AddRoot registers a new root, failing [AlreadyExistsError] if uri is
// already present and [CapabilityMissingError] if the client was not
// constructed with the roots capability.
func (cs *ClientSession) AddRoot(ctx context.Context, r *Root) error {
	if !cs.c.opts.RootsCapability {
		return &CapabilityMissingError{Capability: "roots"}
	}
	if err := cs.roots.add(r); err != nil {
		return err
	}
	if cs.c.opts.RootsListChanged {
		return cs.s.notify(ctx, notificationRootsListChanged, &RootsListChangedParams{})
	}
	return nil
}

// RemoveRoot unregisters a root, failing [NotFoundError] if uri is absent.
func (cs *ClientSession) RemoveRoot(ctx context.Context, uri string) error {
	if !cs.c.opts.RootsCapability {
		return &CapabilityMissingError{Capability: "roots"}
	}
	if err := cs.roots.remove(uri); err != nil {
		return err
	}
	if cs.c.opts.RootsListChanged {
		return cs.s.notify(ctx, notificationRootsListChanged, &RootsListChangedParams{})
	}
	return nil
}

// RootsListChangedNotification explicitly announces a roots change, for
// callers that mutated roots outside AddRoot/RemoveRoot.
func (cs *ClientSession) RootsListChangedNotification(ctx context.Context) error {
	return cs.s.notify(ctx, notificationRootsListChanged, &RootsListChangedParams{})
}

// CloseGracefully drains in-flight requests, then closes the transport.
func (cs *ClientSession) CloseGracefully(ctx context.Context) error {
	return cs.s.closeGracefully(ctx, 5*time.Second)
}

// Close closes the session immediately, cancelling in-flight requests.
func (cs *ClientSession) Close() error { return cs.s.close() }
