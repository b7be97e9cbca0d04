// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file holds the generic request wrapper types and the concrete
// request aliases built from them.
package mcp

// ServerRequest wraps an inbound request's params together with the
// [ServerSession] it arrived on, so a handler can both read the payload and
// reply out of band (e.g. [ServerRequest.Progress]).
type ServerRequest[P Params] struct {
	Session *ServerSession
	Params  P
}

// ClientRequest is the client-side analogue of [ServerRequest], used for
// requests and notifications a server sends to a client (roots/list,
// sampling/createMessage, and the */list_changed notifications).
type ClientRequest[P Params] struct {
	Session *ClientSession
	Params  P
}

type (
	CallToolRequest              = ServerRequest[*CallToolParams]
	GetPromptRequest             = ServerRequest[*GetPromptParams]
	InitializedRequest           = ServerRequest[*InitializedParams]
	ListPromptsRequest           = ServerRequest[*ListPromptsParams]
	ListResourcesRequest         = ServerRequest[*ListResourcesParams]
	ListResourceTemplatesRequest = ServerRequest[*ListResourceTemplatesParams]
	ListToolsRequest             = ServerRequest[*ListToolsParams]
	ReadResourceRequest          = ServerRequest[*ReadResourceParams]
	SubscribeRequest             = ServerRequest[*SubscribeParams]
	UnsubscribeRequest           = ServerRequest[*UnsubscribeParams]
	SetLoggingLevelRequest       = ServerRequest[*SetLoggingLevelParams]
)

type (
	CreateMessageRequest    = ClientRequest[*CreateMessageParams]
	InitializeRequest       = ClientRequest[*InitializeParams]
	ListRootsRequest        = ClientRequest[*ListRootsParams]
	LoggingMessageRequest   = ClientRequest[*LoggingMessageParams]
	PromptListChangedRequest = ClientRequest[*PromptListChangedParams]
	ResourceListChangedRequest = ClientRequest[*ResourceListChangedParams]
	ResourceUpdatedNotificationRequest = ClientRequest[*ResourceUpdatedNotificationParams]
	ToolListChangedRequest  = ClientRequest[*ToolListChangedParams]
)
