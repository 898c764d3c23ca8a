// Package rpc implements the JSON-RPC 2.0 surface the server exposes to
// agents: initialize, tools/list, and tools/call. Policy rejections are
// successful tool responses with status "rejected"; protocol errors are
// reserved for malformed envelopes and infrastructure failures.
package rpc

import "encoding/json"

const jsonrpcVersion = "2.0"

// ProtocolVersion identifies the tool protocol revision spoken by this server
const ProtocolVersion = "2024-11-05"

// JSON-RPC 2.0 error codes
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request is a JSON-RPC 2.0 request envelope. A nil ID marks a notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request expects no response
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response is a JSON-RPC 2.0 response envelope
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC 2.0 error object
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewResponse builds a successful response for the given request ID
func NewResponse(id json.RawMessage, result interface{}) *Response {
	return &Response{JSONRPC: jsonrpcVersion, ID: id, Result: result}
}

// NewErrorResponse builds an error response for the given request ID
func NewErrorResponse(id json.RawMessage, code int, message string, data interface{}) *Response {
	return &Response{
		JSONRPC: jsonrpcVersion,
		ID:      id,
		Error:   &Error{Code: code, Message: message, Data: data},
	}
}

// ContentBlock is one element of a tool result payload
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult wraps a tool invocation outcome. IsError marks in-band tool
// failures such as argument validation; it never carries policy rejections,
// which are ordinary results.
type ToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"is_error,omitempty"`
}

// textResult marshals a payload into a single text content block
func textResult(payload interface{}) (*ToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &ToolResult{
		Content: []ContentBlock{{Type: "text", Text: string(raw)}},
	}, nil
}

// toolError builds an in-band tool error with optional field details
func toolError(message string, fields map[string]string) *ToolResult {
	payload := map[string]interface{}{"error": message}
	if len(fields) > 0 {
		payload["fields"] = fields
	}
	raw, _ := json.Marshal(payload)
	return &ToolResult{
		Content: []ContentBlock{{Type: "text", Text: string(raw)}},
		IsError: true,
	}
}

// ToolDescriptor describes one tool for tools/list
type ToolDescriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// ServerInfo identifies this server during initialize
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is the response payload for the initialize method
type InitializeResult struct {
	ProtocolVersion string                 `json:"protocol_version"`
	ServerInfo      ServerInfo             `json:"server_info"`
	Capabilities    map[string]interface{} `json:"capabilities"`
}

// ListToolsResult is the response payload for tools/list
type ListToolsResult struct {
	Tools []ToolDescriptor `json:"tools"`
}

// CallParams carries the tool name and raw arguments for tools/call
type CallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}
