// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file holds the MCP feature payload types: the Params/Result structs
// carried by each method in the table below, plus the capability structs
// negotiated during initialize.
package mcp

import "github.com/mcpcore/mcpcore/internal/json"

// LatestProtocolVersion is the protocol version this module speaks during
// initialize. A peer naming any other version fails the handshake with
// [ProtocolVersionMismatch].
const LatestProtocolVersion = "2025-06-18"

// Method names, grouped by feature. These are the wire strings used as the
// JSON-RPC "method" field; they are never exposed to callers directly.
const (
	methodInitialize = "initialize"
	methodPing       = "ping"
	methodListTools  = "tools/list"
	methodCallTool   = "tools/call"

	methodListResources         = "resources/list"
	methodListResourceTemplates = "resources/templates/list"
	methodReadResource          = "resources/read"
	methodSubscribe             = "resources/subscribe"
	methodUnsubscribe           = "resources/unsubscribe"

	methodListPrompts = "prompts/list"
	methodGetPrompt   = "prompts/get"

	methodListRoots     = "roots/list"
	methodCreateMessage = "sampling/createMessage"
	methodSetLevel      = "logging/setLevel"

	notificationInitialized         = "notifications/initialized"
	notificationCancelled           = "notifications/cancelled"
	notificationProgress            = "notifications/progress"
	notificationToolListChanged     = "notifications/tools/list_changed"
	notificationResourceListChanged = "notifications/resources/list_changed"
	notificationResourceUpdated     = "notifications/resources/updated"
	notificationPromptListChanged   = "notifications/prompts/list_changed"
	notificationRootsListChanged    = "notifications/roots/list_changed"
	notificationLoggingMessage      = "notifications/message"
)

// Implementation describes either end of a session: the host application or
// the capability provider.
type Implementation struct {
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Version string `json:"version"`
}

// --- Capabilities ---------------------------------------------------------

// RootCapabilities is the client's roots sub-capability.
type RootCapabilities struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// SamplingCapabilities is the client's sampling sub-capability. An empty
// struct still means "sampling is supported"; presence, not content, is what
// the wire format tests.
type SamplingCapabilities struct{}

// ClientCapabilities is what a client declares in InitializeParams.
type ClientCapabilities struct {
	Roots        *RootCapabilities     `json:"roots,omitempty"`
	Sampling     *SamplingCapabilities `json:"sampling,omitempty"`
	Experimental map[string]any        `json:"experimental,omitempty"`
}

// ToolCapabilities, ResourceCapabilities, PromptCapabilities, and
// LoggingCapabilities are the server's per-feature sub-capabilities.
type ToolCapabilities struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type ResourceCapabilities struct {
	ListChanged bool `json:"listChanged,omitempty"`
	Subscribe   bool `json:"subscribe,omitempty"`
}

type PromptCapabilities struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type LoggingCapabilities struct{}

// ServerCapabilities is what a server declares in InitializeResult.
type ServerCapabilities struct {
	Tools        *ToolCapabilities     `json:"tools,omitempty"`
	Resources    *ResourceCapabilities `json:"resources,omitempty"`
	Prompts      *PromptCapabilities   `json:"prompts,omitempty"`
	Logging      *LoggingCapabilities  `json:"logging,omitempty"`
	Experimental map[string]any        `json:"experimental,omitempty"`
}

// --- Lifecycle --------------------------------------------------------

type InitializeParams struct {
	paramsMeta
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      Implementation     `json:"clientInfo"`
}

type InitializeResult struct {
	resultMeta
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

type InitializedParams struct {
	paramsMeta
}

type PingParams struct {
	paramsMeta
}

type CancelledParams struct {
	paramsMeta
	RequestID string `json:"requestId"`
	Reason    string `json:"reason,omitempty"`
}

type ProgressNotificationParams struct {
	paramsMeta
	ProgressToken any     `json:"progressToken"`
	Progress      float64 `json:"progress"`
	Total         float64 `json:"total,omitempty"`
	Message       string  `json:"message,omitempty"`
}

// --- Pagination -------------------------------------------------------

// cursor is embedded by every *ListParams type.
type cursor struct {
	Cursor string `json:"cursor,omitempty"`
}

// nextCursor is embedded by every *ListResult type.
type nextCursor struct {
	NextCursor string `json:"nextCursor,omitempty"`
}

// --- Tools --------------------------------------------------------------

type ListToolsParams struct {
	paramsMeta
	cursor
}

type ListToolsResult struct {
	resultMeta
	nextCursor
	Tools []*Tool `json:"tools"`
}

// ToolAnnotations are additional, trust-but-verify hints about tool
// behavior, provided by the tool author.
type ToolAnnotations struct {
	Title           string `json:"title,omitempty"`
	ReadOnlyHint    bool   `json:"readOnlyHint,omitempty"`
	DestructiveHint *bool  `json:"destructiveHint,omitempty"`
	IdempotentHint  bool   `json:"idempotentHint,omitempty"`
	OpenWorldHint   *bool  `json:"openWorldHint,omitempty"`
}

// Tool describes a tool the server exposes through tools/call.
type Tool struct {
	Name         string           `json:"name"`
	Title        string           `json:"title,omitempty"`
	Description  string           `json:"description,omitempty"`
	InputSchema  any              `json:"inputSchema"`
	OutputSchema any              `json:"outputSchema,omitempty"`
	Annotations  *ToolAnnotations `json:"annotations,omitempty"`
}

type ToolListChangedParams struct {
	paramsMeta
}

// CallToolParamsRaw is the wire shape of tools/call, with Arguments left
// undecoded (as raw JSON) until the named tool's input schema is known.
type CallToolParamsRaw struct {
	paramsMeta
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// CallToolParams is the decoded shape handed to a typed [ToolHandler].
type CallToolParams struct {
	paramsMeta
	Name      string `json:"name"`
	Arguments any    `json:"arguments,omitempty"`
}

// CallToolResult is the result of a tools/call.
type CallToolResult struct {
	resultMeta
	Content           []Content `json:"content"`
	StructuredContent any       `json:"structuredContent,omitempty"`
	IsError           bool      `json:"isError,omitempty"`
}

// SetError replaces Content with a single text block carrying err's message
// and sets IsError. SetError never returns a protocol-level error: per the
// protocol, failed tool calls are reported in-band.
func (r *CallToolResult) SetError(err error) {
	r.IsError = true
	r.Content = []Content{&TextContent{Text: err.Error()}}
}

// --- Resources ------------------------------------------------------------

type Annotations struct {
	Audience     []Role  `json:"audience,omitempty"`
	Priority     float64 `json:"priority,omitempty"`
	LastModified string  `json:"lastModified,omitempty"`
}

// Role identifies the intended audience of an annotated value.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Resource struct {
	URI         string       `json:"uri"`
	Name        string       `json:"name"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	MIMEType    string       `json:"mimeType,omitempty"`
	Size        int64        `json:"size,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

type ResourceTemplate struct {
	URITemplate string       `json:"uriTemplate"`
	Name        string       `json:"name"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	MIMEType    string       `json:"mimeType,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

type ListResourcesParams struct {
	paramsMeta
	cursor
}

type ListResourcesResult struct {
	resultMeta
	nextCursor
	Resources []*Resource `json:"resources"`
}

type ListResourceTemplatesParams struct {
	paramsMeta
	cursor
}

type ListResourceTemplatesResult struct {
	resultMeta
	nextCursor
	ResourceTemplates []*ResourceTemplate `json:"resourceTemplates"`
}

type ReadResourceParams struct {
	paramsMeta
	URI string `json:"uri"`
}

type ReadResourceResult struct {
	resultMeta
	Contents []*ResourceContents `json:"contents"`
}

type SubscribeParams struct {
	paramsMeta
	URI string `json:"uri"`
}

type UnsubscribeParams struct {
	paramsMeta
	URI string `json:"uri"`
}

type ResourceUpdatedNotificationParams struct {
	paramsMeta
	URI string `json:"uri"`
}

type ResourceListChangedParams struct {
	paramsMeta
}

// --- Prompts ----------------------------------------------------------

type PromptArgument struct {
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

type Prompt struct {
	Name        string            `json:"name"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Arguments   []*PromptArgument `json:"arguments,omitempty"`
}

type PromptMessage struct {
	Role    Role    `json:"role"`
	Content Content `json:"content"`
}

type ListPromptsParams struct {
	paramsMeta
	cursor
}

type ListPromptsResult struct {
	resultMeta
	nextCursor
	Prompts []*Prompt `json:"prompts"`
}

type GetPromptParams struct {
	paramsMeta
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

type GetPromptResult struct {
	resultMeta
	Description string           `json:"description,omitempty"`
	Messages    []*PromptMessage `json:"messages"`
}

type PromptListChangedParams struct {
	paramsMeta
}

// --- Roots ------------------------------------------------------------

// Root is a filesystem-or-URI boundary the client advertises to the server.
type Root struct {
	URI  string `json:"uri"`
	Name string `json:"name,omitempty"`
}

type ListRootsParams struct {
	paramsMeta
}

type ListRootsResult struct {
	resultMeta
	Roots []*Root `json:"roots"`
}

type RootsListChangedParams struct {
	paramsMeta
}

// --- Sampling -----------------------------------------------------------

type SamplingMessage struct {
	Role    Role    `json:"role"`
	Content Content `json:"content"`
}

// ModelHint is a loose hint about a desired model family.
type ModelHint struct {
	Name string `json:"name,omitempty"`
}

type ModelPreferences struct {
	Hints                []*ModelHint `json:"hints,omitempty"`
	CostPriority         float64      `json:"costPriority,omitempty"`
	SpeedPriority        float64      `json:"speedPriority,omitempty"`
	IntelligencePriority float64      `json:"intelligencePriority,omitempty"`
}

type CreateMessageParams struct {
	paramsMeta
	Messages         []*SamplingMessage `json:"messages"`
	ModelPreferences *ModelPreferences  `json:"modelPreferences,omitempty"`
	SystemPrompt     string             `json:"systemPrompt,omitempty"`
	MaxTokens        int64              `json:"maxTokens"`
	Temperature      float64            `json:"temperature,omitempty"`
	StopSequences    []string           `json:"stopSequences,omitempty"`
}

type CreateMessageResult struct {
	resultMeta
	Role       Role    `json:"role"`
	Content    Content `json:"content"`
	Model      string  `json:"model"`
	StopReason string  `json:"stopReason,omitempty"`
}

// --- Logging --------------------------------------------------------

// LoggingLevel mirrors RFC 5424 severity names, as used by logging/setLevel
// and notifications/message.
type LoggingLevel string

const (
	LoggingLevelDebug     LoggingLevel = "debug"
	LoggingLevelInfo      LoggingLevel = "info"
	LoggingLevelNotice    LoggingLevel = "notice"
	LoggingLevelWarning   LoggingLevel = "warning"
	LoggingLevelError     LoggingLevel = "error"
	LoggingLevelCritical  LoggingLevel = "critical"
	LoggingLevelAlert     LoggingLevel = "alert"
	LoggingLevelEmergency LoggingLevel = "emergency"
)

type SetLoggingLevelParams struct {
	paramsMeta
	Level LoggingLevel `json:"level"`
}

type LoggingMessageParams struct {
	paramsMeta
	Level  LoggingLevel `json:"level"`
	Logger string       `json:"logger,omitempty"`
	Data   any          `json:"data"`
}
