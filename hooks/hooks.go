// Package hooks provides lifecycle callbacks around turns, tool
// applications, and checkpoints.
package hooks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/vibegamedev/vibegame/types"
)

// BeforeTurnHook is called before a turn starts streaming
type BeforeTurnHook func(ctx context.Context, sessionID, userMessage string) error

// AfterTurnHook is called after a turn completes, with the appended
// assistant message
type AfterTurnHook func(ctx context.Context, sessionID string, assistant *types.Message) error

// ToolCallHook is called after each tool application
// Parameters: ctx, sessionID, toolName, input, record, error
type ToolCallHook func(ctx context.Context, sessionID, toolName string, input json.RawMessage, record *types.ToolCallRecord, err error) error

// CheckpointHook is called after a checkpoint is created or restored
type CheckpointHook func(ctx context.Context, checkpoint *types.Checkpoint) error

// Registry holds all registered hooks
type Registry struct {
	mu         sync.RWMutex
	beforeTurn []BeforeTurnHook
	afterTurn  []AfterTurnHook
	toolCall   []ToolCallHook
	checkpoint []CheckpointHook
}

// NewRegistry creates a new hook registry
func NewRegistry() *Registry {
	return &Registry{
		beforeTurn: []BeforeTurnHook{},
		afterTurn:  []AfterTurnHook{},
		toolCall:   []ToolCallHook{},
		checkpoint: []CheckpointHook{},
	}
}

// OnBeforeTurn registers a hook to be called before a turn starts
func (r *Registry) OnBeforeTurn(hook BeforeTurnHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeTurn = append(r.beforeTurn, hook)
}

// OnAfterTurn registers a hook to be called after a turn completes
func (r *Registry) OnAfterTurn(hook AfterTurnHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterTurn = append(r.afterTurn, hook)
}

// OnToolCall registers a hook to be called after each tool application
func (r *Registry) OnToolCall(hook ToolCallHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toolCall = append(r.toolCall, hook)
}

// OnCheckpoint registers a hook to be called after checkpoint
// creation or restore
func (r *Registry) OnCheckpoint(hook CheckpointHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkpoint = append(r.checkpoint, hook)
}

// TriggerBeforeTurn calls all registered before-turn hooks
func (r *Registry) TriggerBeforeTurn(ctx context.Context, sessionID, userMessage string) error {
	r.mu.RLock()
	hooks := make([]BeforeTurnHook, len(r.beforeTurn))
	copy(hooks, r.beforeTurn)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, sessionID, userMessage); err != nil {
			return err
		}
	}
	return nil
}

// TriggerAfterTurn calls all registered after-turn hooks
func (r *Registry) TriggerAfterTurn(ctx context.Context, sessionID string, assistant *types.Message) error {
	r.mu.RLock()
	hooks := make([]AfterTurnHook, len(r.afterTurn))
	copy(hooks, r.afterTurn)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, sessionID, assistant); err != nil {
			return err
		}
	}
	return nil
}

// TriggerToolCall calls all registered tool-call hooks
func (r *Registry) TriggerToolCall(ctx context.Context, sessionID, toolName string, input json.RawMessage, record *types.ToolCallRecord, err error) error {
	r.mu.RLock()
	hooks := make([]ToolCallHook, len(r.toolCall))
	copy(hooks, r.toolCall)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if hookErr := hook(ctx, sessionID, toolName, input, record, err); hookErr != nil {
			return hookErr
		}
	}
	return nil
}

// TriggerCheckpoint calls all registered checkpoint hooks
func (r *Registry) TriggerCheckpoint(ctx context.Context, checkpoint *types.Checkpoint) error {
	r.mu.RLock()
	hooks := make([]CheckpointHook, len(r.checkpoint))
	copy(hooks, r.checkpoint)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, checkpoint); err != nil {
			return err
		}
	}
	return nil
}
