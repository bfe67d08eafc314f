// Package chat coordinates the conversation loop: session lifecycle,
// message exchange, streaming consumption, and transcript state.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleError     Role = "error"
)

// Tool call display statuses.
const (
	ToolPending   = "pending"
	ToolCompleted = "completed"
	ToolFailed    = "failed"
)

// ToolCallView is a tool invocation as shown in the transcript.
type ToolCallView struct {
	Name   string
	Status string
}

// Message is one transcript entry. Streaming marks an assistant message
// still being filled in by an open stream.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
	ToolCalls []ToolCallView
	Streaming bool
}

func newMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// clone returns a deep copy so callers never alias internal state.
func (m Message) clone() Message {
	out := m
	if m.ToolCalls != nil {
		out.ToolCalls = make([]ToolCallView, len(m.ToolCalls))
		copy(out.ToolCalls, m.ToolCalls)
	}
	return out
}
