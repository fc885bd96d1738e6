package core

import (
	"fmt"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleSystem marks instructions injected by the framework.
	RoleSystem Role = "system"
	// RoleUser marks input originating from the user (or an orchestrator
	// acting on the user's behalf).
	RoleUser Role = "user"
	// RoleAssistant marks output produced by the reasoning model.
	RoleAssistant Role = "assistant"
	// RoleTool marks the observed result of a tool invocation.
	RoleTool Role = "tool"
)

// Message is a single conversation turn. Messages are immutable once
// appended to a Memory; ordering is significant and insertion-ordered.
type Message struct {
	Role        Role       `json:"role"`
	Content     string     `json:"content,omitempty"`
	ToolCalls   []ToolCall `json:"tool_calls,omitempty"`
	Name        string     `json:"name,omitempty"`         // tool name, set on tool messages
	ToolCallID  string     `json:"tool_call_id,omitempty"` // correlates a tool message with its call
	Base64Image string     `json:"base64_image,omitempty"` // optional opaque media attachment
}

// SystemMessage creates a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant-role message with plain text content.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// FromToolCalls creates an assistant message carrying the tool calls proposed
// by the reasoning model alongside any free-text content.
func FromToolCalls(content string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolMessage creates a tool-role message recording the observation for a
// single tool call. The media attachment may be empty.
func ToolMessage(content, name, toolCallID, base64Image string) Message {
	return Message{
		Role:        RoleTool,
		Content:     content,
		Name:        name,
		ToolCallID:  toolCallID,
		Base64Image: base64Image,
	}
}

// String renders a compact human-readable form used in logs.
func (m Message) String() string {
	if len(m.ToolCalls) > 0 {
		return fmt.Sprintf("%s: %s (%d tool calls)", m.Role, m.Content, len(m.ToolCalls))
	}
	return fmt.Sprintf("%s: %s", m.Role, m.Content)
}

// NewID generates a unique identifier for tool calls, plans and runs.
func NewID() string { return uuid.NewString() }
