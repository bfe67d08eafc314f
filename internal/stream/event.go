// Package stream consumes the backend's server-sent event feed and turns
// it into a typed, cancellable event sequence.
package stream

import "github.com/parleyhq/parley/internal/api"

// Event is one item in a streaming response. The set of variants is
// closed: Start, Chunk, ToolCall, ToolResult, End, and ErrorEvent.
// Consumers switch on the concrete type; there is nothing to forget to
// handle because the compiler knows every variant.
type Event interface {
	streamEvent()
}

// Start opens a streamed response and names the session serving it.
type Start struct {
	SessionID string
}

// Chunk is one increment of assistant text.
type Chunk struct {
	Content string
}

// ToolCall reports a tool the agent has started running.
type ToolCall struct {
	Tool   string
	Status string
}

// ToolResult reports a tool finishing, successfully or not.
type ToolResult struct {
	Tool   string
	Status string
}

// End terminates the stream. Every stream delivers exactly one terminal
// event (End or ErrorEvent) before the channel closes, synthesized if
// the server hung up without sending one.
type End struct {
	SessionID string
	Metadata  api.ResponseMetadata
}

// ErrorEvent terminates the stream with a failure.
type ErrorEvent struct {
	Err *api.APIError
}

func (Start) streamEvent()      {}
func (Chunk) streamEvent()      {}
func (ToolCall) streamEvent()   {}
func (ToolResult) streamEvent() {}
func (End) streamEvent()        {}
func (ErrorEvent) streamEvent() {}
