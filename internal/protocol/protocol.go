// Package protocol implements a JSON-RPC 2.0 server over
// newline-delimited stdio, speaking the Model Context Protocol. One
// complete JSON object per line, requests answered in order, request
// ids echoed back byte-for-byte.
package protocol

import (
	"encoding/json"
	"errors"
)

const (
	// JSONRPCVersion is the fixed jsonrpc envelope version.
	JSONRPCVersion = "2.0"
	// MCPVersion is the protocol revision reported by initialize.
	MCPVersion = "2024-11-05"
)

// JSON-RPC error codes. The -327xx block is the standard set; the
// -320xx block is ours.
const (
	CodeParseError       = -32700
	CodeInvalidRequest   = -32600
	CodeMethodNotFound   = -32601
	CodeInvalidParams    = -32602
	CodeInternalError    = -32603
	CodeNotInitialized   = -32002
	CodeUnknownTool      = -32010
	CodeMissingArgument  = -32011
	CodeResourceNotFound = -32012
)

// Request is an incoming JSON-RPC message. ID stays raw so string,
// number and null ids are echoed verbatim.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request carries no id and so must
// not be answered.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response is an outgoing JSON-RPC message.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the error member of a failed response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// NewError creates an RPCError with the given code.
func NewError(code int, message string) *RPCError {
	return &RPCError{Code: code, Message: message}
}

// ErrUnknownResource is returned by a ResourceProvider asked for a URI
// it does not serve, letting the registry try the next provider.
var ErrUnknownResource = errors.New("unknown resource uri")

// ToolDef describes one callable tool.
type ToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Content is one block of tool or prompt output.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// TextContent wraps plain text in the standard content block.
func TextContent(text string) []Content {
	return []Content{{Type: "text", Text: text}}
}

// ToolResult is the result of a tools/call.
type ToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// ResourceDef describes one readable resource.
type ResourceDef struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceContents is the payload of a resources/read.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text"`
}

// PromptArgument describes one argument a prompt accepts.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// PromptDef describes one prompt template.
type PromptDef struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// PromptMessage is one message of a rendered prompt.
type PromptMessage struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// PromptResult is the result of a prompts/get.
type PromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

// ServerInfo identifies the server in the initialize handshake.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is the initialize response payload.
type InitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      ServerInfo     `json:"serverInfo"`
}

// callParams is the tools/call and prompts/get parameter shape.
type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// readParams is the resources/read parameter shape.
type readParams struct {
	URI string `json:"uri"`
}
