package agent

import (
	"context"
	"encoding/json"
)

// Message is one turn of a conversation as seen by a provider.
type Message struct {
	Role       string      `json:"role"` // "user", "assistant" or "tool"
	Content    string      `json:"content"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// Tool describes a capability offered to the model.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// ToolCall is a structured invocation proposed by the model.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResult carries the outcome of a tool call back into the message
// list.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
}

type ChatRequest struct {
	SystemPrompt string
	Messages     []Message
	Tools        []Tool
	MaxTokens    int
	Temperature  float32
}

type ChatResponse struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string // "stop" or "tool_use"
}

// StreamChunk is one fragment of a streamed completion. A chunk with a
// non-nil Err terminates the stream.
type StreamChunk struct {
	Content string
	Err     error
}

// Provider is the two-operation model capability: a blocking call that
// may propose tool calls, and a token stream. All providers satisfy the
// same interface and differ only in connection parameters.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
	Stream(ctx context.Context, req ChatRequest) (<-chan StreamChunk, error)
}
