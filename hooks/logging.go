package hooks

import (
	"context"
	"encoding/json"
	"log"

	"github.com/vibegamedev/vibegame/types"
)

// LoggingHooks provides built-in logging hooks for observability
type LoggingHooks struct {
	logger *log.Logger
}

// NewLoggingHooks creates logging hooks with the provided logger
func NewLoggingHooks(logger *log.Logger) *LoggingHooks {
	return &LoggingHooks{logger: logger}
}

// DefaultLoggingHooks creates logging hooks with the default logger
func DefaultLoggingHooks() *LoggingHooks {
	return &LoggingHooks{logger: log.Default()}
}

// Register attaches all logging hooks to a registry
func (h *LoggingHooks) Register(r *Registry) {
	r.OnBeforeTurn(h.BeforeTurn)
	r.OnAfterTurn(h.AfterTurn)
	r.OnToolCall(h.ToolCall)
	r.OnCheckpoint(h.Checkpoint)
}

// BeforeTurn logs the start of a turn
func (h *LoggingHooks) BeforeTurn(ctx context.Context, sessionID, userMessage string) error {
	preview := userMessage
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	h.logger.Printf("[vibegame] session %s: turn started: %s", sessionID, preview)
	return nil
}

// AfterTurn logs the completion of a turn
func (h *LoggingHooks) AfterTurn(ctx context.Context, sessionID string, assistant *types.Message) error {
	h.logger.Printf("[vibegame] session %s: turn complete: %d tool calls, truncated=%t",
		sessionID, len(assistant.ToolCalls), assistant.Truncated)
	return nil
}

// ToolCall logs each tool application
func (h *LoggingHooks) ToolCall(ctx context.Context, sessionID, toolName string, input json.RawMessage, record *types.ToolCallRecord, err error) error {
	if err != nil {
		h.logger.Printf("[vibegame] session %s: tool '%s' failed: %v", sessionID, toolName, err)
		return nil
	}
	h.logger.Printf("[vibegame] session %s: tool '%s' applied, changed=%t", sessionID, toolName, record.Changed)
	return nil
}

// Checkpoint logs checkpoint creation and restores
func (h *LoggingHooks) Checkpoint(ctx context.Context, checkpoint *types.Checkpoint) error {
	h.logger.Printf("[vibegame] session %s: checkpoint %q at version %d",
		checkpoint.SessionID, checkpoint.Label, checkpoint.Snapshot.Version)
	return nil
}
