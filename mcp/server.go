// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/yosida95/uritemplate/v3"

	"github.com/mcpcore/mcpcore/internal/json"
)

// resourceTemplateBinding pairs a registered URI template with the handler
// that serves reads matching it and the regexp used to recognize a match.
type resourceTemplateBinding struct {
	template *ResourceTemplate
	re       *regexp.Regexp
	handler  ResourceHandler
}

// ResourceHandler reads one resource by uri.
type ResourceHandler func(ctx context.Context, req *ReadResourceRequest) (*ReadResourceResult, error)

// PromptHandler renders one prompt.
type PromptHandler func(ctx context.Context, req *GetPromptRequest) (*GetPromptResult, error)

// ServerOptions configures a [Server].
type ServerOptions struct {
	RequestTimeout time.Duration

	ToolsListChanged     bool
	ResourcesListChanged bool
	ResourcesSubscribe   bool
	PromptsListChanged   bool
	LoggingCapability    bool

	Instructions string
	Logger       *slog.Logger
}

// Server is a configured MCP server ready to be bound to a transport via
// [Server.Connect]. Tools, resources, and prompts are registered on the
// Server and shared by every session it accepts.
type Server struct {
	info Implementation
	opts ServerOptions

	mu        sync.Mutex
	tools     map[string]*serverTool
	resources map[string]*Resource
	resHandler ResourceHandler
	templates []*resourceTemplateBinding
	prompts   map[string]*Prompt
	promptHandler PromptHandler
}

// NewServer returns a Server identifying itself to peers as info.
func NewServer(info Implementation, opts ServerOptions) *Server {
	return &Server{
		info:      info,
		opts:      opts,
		tools:     make(map[string]*serverTool),
		resources: make(map[string]*Resource),
		prompts:   make(map[string]*Prompt),
	}
}

// AddTool registers a tool whose arguments are decoded into a map and
// validated against t.InputSchema, which must be set.
func (srv *Server) AddTool(t *Tool, h ToolHandler) error {
	st, err := newServerTool(t, h)
	if err != nil {
		return fmt.Errorf("mcp: adding tool %q: %w", t.Name, err)
	}
	srv.mu.Lock()
	srv.tools[t.Name] = st
	srv.mu.Unlock()
	return nil
}

// AddTypedTool registers a tool whose input (and, unless Out is any, output)
// schema is inferred from the handler's type parameters.
func AddTypedTool[In, Out any](srv *Server, t *Tool, h TypedToolHandler[In, Out]) error {
	st, err := newTypedServerTool(t, h)
	if err != nil {
		return fmt.Errorf("mcp: adding tool %q: %w", t.Name, err)
	}
	srv.mu.Lock()
	srv.tools[t.Name] = st
	srv.mu.Unlock()
	return nil
}

// RemoveTool unregisters a tool by name.
func (srv *Server) RemoveTool(name string) {
	srv.mu.Lock()
	delete(srv.tools, name)
	srv.mu.Unlock()
}

// AddResource registers a statically-described resource. Reads against it
// are served by handler.
func (srv *Server) AddResource(r *Resource, handler ResourceHandler) {
	srv.mu.Lock()
	srv.resources[r.URI] = r
	srv.resHandler = handler
	srv.mu.Unlock()
}

// AddResourceTemplate registers a resource template returned by
// resources/templates/list. A read whose URI matches t.URITemplate and has
// no more specific static resource registered via [Server.AddResource] is
// served by handler.
func (srv *Server) AddResourceTemplate(t *ResourceTemplate, handler ResourceHandler) error {
	tmpl, err := uritemplate.New(t.URITemplate)
	if err != nil {
		return fmt.Errorf("mcp: parsing resource template %q: %w", t.URITemplate, err)
	}
	re, err := tmpl.Regexp()
	if err != nil {
		return fmt.Errorf("mcp: compiling resource template %q: %w", t.URITemplate, err)
	}
	srv.mu.Lock()
	srv.templates = append(srv.templates, &resourceTemplateBinding{template: t, re: re, handler: handler})
	srv.mu.Unlock()
	return nil
}

// AddPrompt registers a prompt. Renders are served by handler.
func (srv *Server) AddPrompt(p *Prompt, handler PromptHandler) {
	srv.mu.Lock()
	srv.prompts[p.Name] = p
	srv.promptHandler = handler
	srv.mu.Unlock()
}

// ServerSession is a connected server: the session core plus a reference to
// the Server whose tools/resources/prompts it serves.
type ServerSession struct {
	s    *session
	srv  *Server
	init bool
}

// Connect binds transport to a fresh session, installs the server's inbound
// handlers, starts the transport, and returns the session. The session
// enters Initialized once it has processed the client's initialize request
// and received notifications/initialized.
func (srv *Server) Connect(ctx context.Context, transport Transport) (*ServerSession, error) {
	s := newSession(transport, srv.opts.RequestTimeout, srv.opts.Logger)
	ss := &ServerSession{s: s, srv: srv}

	s.requestHandlers[methodInitialize] = ss.handleInitialize
	s.requestHandlers[methodPing] = func(ctx context.Context, params any) (any, error) { return map[string]any{}, nil }
	s.requestHandlers[methodListTools] = ss.handleListTools
	s.requestHandlers[methodCallTool] = ss.handleCallTool
	s.requestHandlers[methodListResources] = ss.handleListResources
	s.requestHandlers[methodReadResource] = ss.handleReadResource
	s.requestHandlers[methodListResourceTemplates] = ss.handleListResourceTemplates
	s.requestHandlers[methodSubscribe] = ss.handleSubscribe
	s.requestHandlers[methodUnsubscribe] = ss.handleUnsubscribe
	s.requestHandlers[methodListPrompts] = ss.handleListPrompts
	s.requestHandlers[methodGetPrompt] = ss.handleGetPrompt
	if srv.opts.LoggingCapability {
		s.requestHandlers[methodSetLevel] = func(ctx context.Context, params any) (any, error) { return map[string]any{}, nil }
	}

	s.notificationHandlers[notificationInitialized] = func(ctx context.Context, params any) error {
		s.setState(StateInitialized)
		ss.init = true
		return nil
	}
	s.notificationHandlers[notificationCancelled] = func(ctx context.Context, params any) error { return nil }
	s.notificationHandlers[notificationRootsListChanged] = func(ctx context.Context, params any) error { return nil }

	if err := s.start(ctx); err != nil {
		return nil, err
	}
	return ss, nil
}

func (ss *ServerSession) handleInitialize(ctx context.Context, params any) (any, error) {
	p := &InitializeParams{}
	if err := decodeParams(params, p); err != nil {
		return nil, err
	}
	caps := ServerCapabilities{}
	if len(ss.srv.tools) > 0 || ss.srv.opts.ToolsListChanged {
		caps.Tools = &ToolCapabilities{ListChanged: ss.srv.opts.ToolsListChanged}
	}
	if len(ss.srv.resources) > 0 || ss.srv.opts.ResourcesListChanged || ss.srv.opts.ResourcesSubscribe {
		caps.Resources = &ResourceCapabilities{ListChanged: ss.srv.opts.ResourcesListChanged, Subscribe: ss.srv.opts.ResourcesSubscribe}
	}
	if len(ss.srv.prompts) > 0 || ss.srv.opts.PromptsListChanged {
		caps.Prompts = &PromptCapabilities{ListChanged: ss.srv.opts.PromptsListChanged}
	}
	if ss.srv.opts.LoggingCapability {
		caps.Logging = &LoggingCapabilities{}
	}
	return &InitializeResult{
		ProtocolVersion: LatestProtocolVersion,
		Capabilities:    caps,
		ServerInfo:      ss.srv.info,
		Instructions:    ss.srv.opts.Instructions,
	}, nil
}

func (ss *ServerSession) handleListTools(ctx context.Context, params any) (any, error) {
	ss.srv.mu.Lock()
	defer ss.srv.mu.Unlock()
	tools := make([]*Tool, 0, len(ss.srv.tools))
	for _, st := range ss.srv.tools {
		tools = append(tools, st.tool)
	}
	return &ListToolsResult{Tools: tools}, nil
}

func (ss *ServerSession) handleCallTool(ctx context.Context, params any) (any, error) {
	raw := &CallToolParamsRaw{}
	if err := decodeParams(params, raw); err != nil {
		return nil, err
	}
	ss.srv.mu.Lock()
	st, ok := ss.srv.tools[raw.Name]
	ss.srv.mu.Unlock()
	if !ok {
		return nil, &MethodNotFoundError{Method: "tools/call:" + raw.Name}
	}
	req := &ServerRequest[*CallToolParams]{
		Session: ss,
		Params:  &CallToolParams{paramsMeta: raw.paramsMeta, Name: raw.Name, Arguments: json.RawMessage(raw.Arguments)},
	}
	return st.handler(ctx, req)
}

func (ss *ServerSession) handleListResources(ctx context.Context, params any) (any, error) {
	ss.srv.mu.Lock()
	defer ss.srv.mu.Unlock()
	resources := make([]*Resource, 0, len(ss.srv.resources))
	for _, r := range ss.srv.resources {
		resources = append(resources, r)
	}
	return &ListResourcesResult{Resources: resources}, nil
}

func (ss *ServerSession) handleReadResource(ctx context.Context, params any) (any, error) {
	p := &ReadResourceParams{}
	if err := decodeParams(params, p); err != nil {
		return nil, err
	}
	ss.srv.mu.Lock()
	_, isStatic := ss.srv.resources[p.URI]
	handler := ss.srv.resHandler
	var templateHandler ResourceHandler
	if !isStatic {
		for _, b := range ss.srv.templates {
			if b.re.MatchString(p.URI) {
				templateHandler = b.handler
				break
			}
		}
	}
	ss.srv.mu.Unlock()

	if isStatic && handler != nil {
		return handler(ctx, &ServerRequest[*ReadResourceParams]{Session: ss, Params: p})
	}
	if templateHandler != nil {
		return templateHandler(ctx, &ServerRequest[*ReadResourceParams]{Session: ss, Params: p})
	}
	if handler != nil {
		return handler(ctx, &ServerRequest[*ReadResourceParams]{Session: ss, Params: p})
	}
	return nil, &MethodNotFoundError{Method: "resources/read:" + p.URI}
}

func (ss *ServerSession) handleListResourceTemplates(ctx context.Context, params any) (any, error) {
	ss.srv.mu.Lock()
	defer ss.srv.mu.Unlock()
	templates := make([]*ResourceTemplate, 0, len(ss.srv.templates))
	for _, b := range ss.srv.templates {
		templates = append(templates, b.template)
	}
	return &ListResourceTemplatesResult{ResourceTemplates: templates}, nil
}

func (ss *ServerSession) handleSubscribe(ctx context.Context, params any) (any, error) {
	return map[string]any{}, nil
}

func (ss *ServerSession) handleUnsubscribe(ctx context.Context, params any) (any, error) {
	return map[string]any{}, nil
}

func (ss *ServerSession) handleListPrompts(ctx context.Context, params any) (any, error) {
	ss.srv.mu.Lock()
	defer ss.srv.mu.Unlock()
	prompts := make([]*Prompt, 0, len(ss.srv.prompts))
	for _, p := range ss.srv.prompts {
		prompts = append(prompts, p)
	}
	return &ListPromptsResult{Prompts: prompts}, nil
}

func (ss *ServerSession) handleGetPrompt(ctx context.Context, params any) (any, error) {
	p := &GetPromptParams{}
	if err := decodeParams(params, p); err != nil {
		return nil, err
	}
	ss.srv.mu.Lock()
	handler := ss.srv.promptHandler
	ss.srv.mu.Unlock()
	if handler == nil {
		return nil, &MethodNotFoundError{Method: "prompts/get:" + p.Name}
	}
	return handler(ctx, &ServerRequest[*GetPromptParams]{Session: ss, Params: p})
}

// ListRoots asks the connected client to list its roots.
func (ss *ServerSession) ListRoots(ctx context.Context) (*ListRootsResult, error) {
	result := &ListRootsResult{}
	if err := ss.s.request(ctx, methodListRoots, &ListRootsParams{}, result); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateMessage asks the connected client's sampling handler to generate a
// message.
func (ss *ServerSession) CreateMessage(ctx context.Context, params *CreateMessageParams) (*CreateMessageResult, error) {
	result := &CreateMessageResult{}
	if err := ss.s.request(ctx, methodCreateMessage, params, result); err != nil {
		return nil, err
	}
	return result, nil
}

// NotifyProgress sends a progress notification for an in-flight request.
func (ss *ServerSession) NotifyProgress(ctx context.Context, params *ProgressNotificationParams) error {
	return ss.s.notify(ctx, notificationProgress, params)
}

// NotifyToolListChanged tells the client its cached tool list is stale.
func (ss *ServerSession) NotifyToolListChanged(ctx context.Context) error {
	return ss.s.notify(ctx, notificationToolListChanged, &ToolListChangedParams{})
}

// NotifyResourceListChanged tells the client its cached resource list is stale.
func (ss *ServerSession) NotifyResourceListChanged(ctx context.Context) error {
	return ss.s.notify(ctx, notificationResourceListChanged, &ResourceListChangedParams{})
}

// NotifyResourceUpdated tells the client a subscribed resource changed.
func (ss *ServerSession) NotifyResourceUpdated(ctx context.Context, uri string) error {
	return ss.s.notify(ctx, notificationResourceUpdated, &ResourceUpdatedNotificationParams{URI: uri})
}

// NotifyPromptListChanged tells the client its cached prompt list is stale.
func (ss *ServerSession) NotifyPromptListChanged(ctx context.Context) error {
	return ss.s.notify(ctx, notificationPromptListChanged, &PromptListChangedParams{})
}

// Log sends a notifications/message to the client.
func (ss *ServerSession) Log(ctx context.Context, level LoggingLevel, logger string, data any) error {
	return ss.s.notify(ctx, notificationLoggingMessage, &LoggingMessageParams{Level: level, Logger: logger, Data: data})
}

// CloseGracefully drains in-flight requests, then closes the transport.
func (ss *ServerSession) CloseGracefully(ctx context.Context) error {
	return ss.s.closeGracefully(ctx, 5*time.Second)
}

// Close closes the session immediately, cancelling in-flight requests.
func (ss *ServerSession) Close() error { return ss.s.close() }
