// Package llm provides the provider boundary for streaming chat
// completions: the chat message model, the typed chunk sequence
// providers emit, and the Provider interface with one implementation
// per upstream model API.
package llm

import "encoding/json"

// Role is the internal chat-role enumeration.
type Role int

const (
	// RoleSystem is the system prompt.
	RoleSystem Role = iota
	// RoleUser is a user turn.
	RoleUser
	// RoleAssistant is a model turn.
	RoleAssistant
	// RoleTool is a tool result turn.
	RoleTool
)

// Wire maps the internal role to the role string the upstream protocols
// understand. The mapping is total: unknown roles map to "user".
func (r Role) Wire() string {
	switch r {
	case RoleSystem:
		return "system"
	case RoleAssistant:
		return "assistant"
	case RoleTool:
		return "tool"
	default:
		return "user"
	}
}

// Message is one immutable chat turn.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall // assistant turns that requested tool calls
	ToolCallID string     // tool result turns
}

// ToolCall records a tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// SystemMessage creates a system turn.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user turn.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant turn.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// BuildMessages assembles the ordered message sequence for one request:
// the conversation history followed by the new prompt as the final user
// turn. The inputs are not modified.
func BuildMessages(history []Message, prompt string) []Message {
	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, UserMessage(prompt))
	return messages
}
