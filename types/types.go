package types

import (
	"encoding/json"
	"time"
)

// Mode identifies which kind of artifact a session edits.
// A session's mode is fixed at creation and never changes.
type Mode string

const (
	// ModeBlockly sessions edit a structured block workspace serialized as JSON.
	ModeBlockly Mode = "blockly"

	// ModeJavascript sessions edit a flat game-loop source string.
	ModeJavascript Mode = "javascript"
)

// IsValid returns true if the mode is a known value.
func (m Mode) IsValid() bool {
	switch m {
	case ModeBlockly, ModeJavascript:
		return true
	default:
		return false
	}
}

// String returns the string representation of the mode.
func (m Mode) String() string {
	return string(m)
}

// Role represents the message role.
type Role string

const (
	// RoleUser represents a user message
	RoleUser Role = "user"

	// RoleAssistant represents an assistant message
	RoleAssistant Role = "assistant"

	// RoleTool represents a tool result message
	RoleTool Role = "tool"
)

// Artifact is the single mutable game definition a session is building.
// Version starts at 0 and increments by exactly 1 on every accepted
// mutation; prior (version, content) pairs are only recoverable through
// checkpoints.
type Artifact struct {
	Mode    Mode   `json:"mode"`
	Content string `json:"content"`
	Version int    `json:"version"`
}

// Clone returns a copy of the artifact.
func (a *Artifact) Clone() Artifact {
	return Artifact{Mode: a.Mode, Content: a.Content, Version: a.Version}
}

// Session represents one game-building conversation.
type Session struct {
	ID        string         `json:"id"`
	Title     string         `json:"title,omitempty"`
	Mode      Mode           `json:"mode"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ToolCallStatus is the outcome of a single tool application.
type ToolCallStatus string

const (
	// ToolCallOK means the edit was validated and committed.
	ToolCallOK ToolCallStatus = "ok"

	// ToolCallFailed means the edit was rejected and the artifact untouched.
	ToolCallFailed ToolCallStatus = "failed"
)

// ToolCallRecord captures one model-issued edit and its outcome, stored
// with the assistant message that carried it.
type ToolCallRecord struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Input   json.RawMessage `json:"input"`
	Status  ToolCallStatus  `json:"status"`
	Result  string          `json:"result,omitempty"`
	Changed bool            `json:"changed,omitempty"`
}

// Message is one entry in a session's transcript. Messages are immutable
// once appended; Position is strictly increasing and gapless per session.
type Message struct {
	ID        string           `json:"id"`
	SessionID string           `json:"session_id"`
	Role      Role             `json:"role"`
	Text      string           `json:"text"`
	Position  int              `json:"position"`
	ToolCalls []ToolCallRecord `json:"tool_calls,omitempty"`

	// Truncated marks an assistant message whose stream was cancelled
	// before completion. Any edits already applied stay applied.
	Truncated bool `json:"truncated,omitempty"`

	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Checkpoint is an immutable snapshot of the artifact taken after a tool
// call materially changed it. Deleting a checkpoint never touches the
// live artifact or any other checkpoint.
type Checkpoint struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`

	// Label is derived from the user instruction that triggered the edit.
	Label string `json:"label"`

	// MessagePosition is the ordinal of the message the snapshot was
	// taken after. Creation order of checkpoints is insertion order and
	// is independent of MessagePosition ordering.
	MessagePosition int `json:"message_position"`

	Snapshot  Artifact  `json:"snapshot"`
	CreatedAt time.Time `json:"created_at"`
}

// Helper functions for working with pointers

// Ptr returns a pointer to the given value.
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns the value pointed to by p, or the zero value if p is nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// DerefOr returns the value pointed to by p, or the default value if p is nil.
func DerefOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
