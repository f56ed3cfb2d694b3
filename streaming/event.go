// Package streaming turns a model's incremental output into typed
// events the orchestrator can act on as they arrive. Text fragments
// are surfaced immediately; a tool call is surfaced once its input
// JSON has fully streamed, so tools can be dispatched mid-stream
// without waiting for the message to finish.
package streaming

import "encoding/json"

// EventType represents the type of streaming event.
type EventType string

const (
	// EventTypeTextDelta indicates a new fragment of assistant text.
	EventTypeTextDelta EventType = "text_delta"

	// EventTypeToolCall indicates a complete tool invocation is ready to
	// be applied.
	EventTypeToolCall EventType = "tool_call"

	// EventTypeMessageStop indicates the message has ended.
	EventTypeMessageStop EventType = "message_stop"
)

// Event represents a streaming event.
type Event interface {
	Type() EventType
}

// TextDeltaEvent carries a fragment of assistant text.
type TextDeltaEvent struct {
	Delta string
}

func (e *TextDeltaEvent) Type() EventType {
	return EventTypeTextDelta
}

// ToolCallEvent carries one complete tool invocation. Input is the
// fully accumulated raw JSON, "{}" when the model streamed none.
type ToolCallEvent struct {
	ID    string
	Name  string
	Input json.RawMessage
}

func (e *ToolCallEvent) Type() EventType {
	return EventTypeToolCall
}

// MessageStopEvent is emitted when the message ends.
type MessageStopEvent struct {
	StopReason string
}

func (e *MessageStopEvent) Type() EventType {
	return EventTypeMessageStop
}
