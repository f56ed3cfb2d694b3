package vibegame

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/vibegamedev/vibegame/checkpoint"
	"github.com/vibegamedev/vibegame/compaction"
	"github.com/vibegamedev/vibegame/model"
	"github.com/vibegamedev/vibegame/storage"
	"github.com/vibegamedev/vibegame/streaming"
	"github.com/vibegamedev/vibegame/toolcall"
	"github.com/vibegamedev/vibegame/turnstate"
	"github.com/vibegamedev/vibegame/types"
)

// Engine orchestrates game-building sessions: one active turn per
// session at a time, turns across sessions fully independent.
type Engine struct {
	config      *internalConfig
	store       storage.Store
	executor    *toolcall.Executor
	checkpoints *checkpoint.Manager
	compactor   *compaction.Compactor

	mu    sync.Mutex
	turns map[string]turnstate.TurnState
}

// New creates an engine on the given store.
func New(store storage.Store, cfg Config, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	config := newInternalConfig(cfg)
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}
	if err := config.finalize(); err != nil {
		return nil, err
	}

	compactor, err := compaction.NewCompactor(config.summarizer, config.compaction)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	checkpoints := checkpoint.NewManager(store)
	checkpoints.SetLabelLimit(config.checkpointLabelLimit)

	return &Engine{
		config:      config,
		store:       store,
		executor:    toolcall.NewExecutor(store),
		checkpoints: checkpoints,
		compactor:   compactor,
		turns:       make(map[string]turnstate.TurnState),
	}, nil
}

// TurnResult is the outcome of one conversational turn.
type TurnResult struct {
	// UserMessage is the appended user message.
	UserMessage *types.Message

	// AssistantMessage is the appended assistant message, carrying the
	// streamed text and the tool-call records of the turn. Truncated is
	// set when the stream was cancelled or timed out mid-way.
	AssistantMessage *types.Message

	// Checkpoint is non-nil when a tool call materially changed the
	// artifact this turn.
	Checkpoint *types.Checkpoint

	// State is the terminal turn state: StateIdle on success and on
	// cancellation, StateFailed on timeout or stream error.
	State turnstate.TurnState
}

// TurnState reports the current turn state for a session. StateIdle
// when no turn is running.
func (e *Engine) TurnState(sessionID string) turnstate.TurnState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.turns[sessionID]; ok {
		return s
	}
	return turnstate.StateIdle
}

// Turn runs one conversational turn: appends the user message, streams
// the model response, applies tool calls as they arrive, and creates a
// checkpoint when an edit materially changed the artifact.
//
// Turns are serialized per session; a second Turn while one is running
// returns ErrTurnInProgress. Cancelling ctx mid-stream keeps any edits
// already applied and marks the assistant message truncated; the
// partial result is returned without error. A turn exceeding the
// configured timeout, or a stream error, returns the partial result
// together with an error wrapping ErrTurnFailed.
func (e *Engine) Turn(ctx context.Context, sessionID, userText string) (*TurnResult, error) {
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, NewSessionErrorWithSession("Turn", sessionID, err)
	}

	if err := e.beginTurn(sessionID); err != nil {
		return nil, err
	}
	defer e.endTurn(sessionID)

	if err := e.config.hooks.TriggerBeforeTurn(ctx, sessionID, userText); err != nil {
		return nil, NewSessionErrorWithSession("Turn", sessionID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.turnTimeout)
	defer cancel()

	userMsg, err := e.store.AddMessage(ctx, &types.Message{
		SessionID: sessionID,
		Role:      types.RoleUser,
		Text:      userText,
	})
	if err != nil {
		return nil, NewSessionErrorWithSession("Turn", sessionID, err)
	}

	result, err := e.runTurn(ctx, session, userMsg)
	if result != nil {
		result.UserMessage = userMsg
	}
	if err != nil {
		return result, err
	}

	if hookErr := e.config.hooks.TriggerAfterTurn(context.WithoutCancel(ctx), sessionID, result.AssistantMessage); hookErr != nil {
		e.config.logger.Printf("[vibegame] session %s: after-turn hook: %v", sessionID, hookErr)
	}
	return result, nil
}

// runTurn drives the per-turn state machine from Streaming back to a
// terminal state.
func (e *Engine) runTurn(ctx context.Context, session *types.Session, userMsg *types.Message) (*TurnResult, error) {
	sessionID := session.ID

	if err := e.advance(sessionID, turnstate.StateIdle, turnstate.StateStreaming); err != nil {
		return nil, err
	}

	req, err := e.buildRequest(ctx, session)
	if err != nil {
		e.advance(sessionID, turnstate.StateStreaming, turnstate.StateFailed)
		return &TurnResult{State: turnstate.StateFailed}, NewSessionErrorWithSession("Turn", sessionID, err)
	}

	stream, err := e.config.modelClient.Stream(ctx, req)
	if err != nil {
		e.advance(sessionID, turnstate.StateStreaming, turnstate.StateFailed)
		return &TurnResult{State: turnstate.StateFailed},
			NewSessionErrorWithSession("Turn", sessionID, fmt.Errorf("%w: %v", ErrTurnFailed, err))
	}
	defer stream.Close()

	var (
		text      strings.Builder
		records   []types.ToolCallRecord
		changed   bool
		streamErr error
	)

	for {
		ev, recvErr := stream.Recv()
		if recvErr == io.EOF {
			break
		}
		if recvErr != nil {
			streamErr = recvErr
			break
		}

		switch event := ev.(type) {
		case *streaming.TextDeltaEvent:
			text.WriteString(event.Delta)

		case *streaming.ToolCallEvent:
			if err := e.advance(sessionID, turnstate.StateStreaming, turnstate.StateApplyingTools); err != nil {
				return nil, err
			}
			record := e.applyToolCall(ctx, session, event)
			records = append(records, record)
			if record.Changed {
				changed = true
			}
			if err := e.advance(sessionID, turnstate.StateApplyingTools, turnstate.StateStreaming); err != nil {
				return nil, err
			}

		case *streaming.MessageStopEvent:
			// Recv returns io.EOF right after; nothing to do.
		}
	}

	// Persist the assistant message even when the stream died: partial
	// progress is kept, never rolled back.
	persistCtx := context.WithoutCancel(ctx)
	truncated := streamErr != nil

	assistantMsg, msgErr := e.store.AddMessage(persistCtx, &types.Message{
		SessionID: sessionID,
		Role:      types.RoleAssistant,
		Text:      text.String(),
		ToolCalls: records,
		Truncated: truncated,
	})
	if msgErr != nil {
		e.advance(sessionID, turnstate.StateStreaming, turnstate.StateFailed)
		return &TurnResult{State: turnstate.StateFailed}, NewSessionErrorWithSession("Turn", sessionID, msgErr)
	}

	result := &TurnResult{AssistantMessage: assistantMsg}

	if streamErr != nil {
		if errors.Is(streamErr, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			// User cancellation: applied edits stay, message is
			// truncated, the turn itself did not fail.
			e.advance(sessionID, turnstate.StateStreaming, turnstate.StateIdle)
			result.State = turnstate.StateIdle
			return result, nil
		}
		e.advance(sessionID, turnstate.StateStreaming, turnstate.StateFailed)
		result.State = turnstate.StateFailed
		return result, NewSessionErrorWithSession("Turn", sessionID, fmt.Errorf("%w: %v", ErrTurnFailed, streamErr))
	}

	if changed {
		if err := e.advance(sessionID, turnstate.StateStreaming, turnstate.StateCheckpointing); err != nil {
			return nil, err
		}

		artifact, err := e.store.GetArtifact(persistCtx, sessionID)
		if err != nil {
			return result, NewSessionErrorWithSession("Turn", sessionID, err)
		}
		cp, err := e.checkpoints.Create(persistCtx, sessionID, userMsg.Text, *artifact, assistantMsg.Position)
		if err != nil {
			return result, NewSessionErrorWithSession("Turn", sessionID, err)
		}
		result.Checkpoint = cp

		if hookErr := e.config.hooks.TriggerCheckpoint(persistCtx, cp); hookErr != nil {
			e.config.logger.Printf("[vibegame] session %s: checkpoint hook: %v", sessionID, hookErr)
		}

		e.advance(sessionID, turnstate.StateCheckpointing, turnstate.StateIdle)
	} else {
		e.advance(sessionID, turnstate.StateStreaming, turnstate.StateIdle)
	}

	result.State = turnstate.StateIdle
	return result, nil
}

// applyToolCall applies one streamed tool call, retrying exactly once
// on a version conflict. Failures become failed tool-call records, not
// turn errors.
func (e *Engine) applyToolCall(ctx context.Context, session *types.Session, event *streaming.ToolCallEvent) types.ToolCallRecord {
	call := toolcall.Call{ID: event.ID, Name: event.Name, Input: event.Input}

	res, err := e.executor.Apply(ctx, session.ID, session.Mode, call)
	if errors.Is(err, storage.ErrVersionConflict) {
		res, err = e.executor.Apply(ctx, session.ID, session.Mode, call)
	}

	record := types.ToolCallRecord{
		ID:    event.ID,
		Name:  event.Name,
		Input: event.Input,
	}
	if err != nil {
		record.Status = types.ToolCallFailed
		record.Result = err.Error()
	} else {
		record.Status = types.ToolCallOK
		record.Changed = res.Changed
		record.Result = fmt.Sprintf("applied, artifact version %d", res.Artifact.Version)
	}

	if hookErr := e.config.hooks.TriggerToolCall(ctx, session.ID, event.Name, event.Input, &record, err); hookErr != nil {
		e.config.logger.Printf("[vibegame] session %s: tool-call hook: %v", session.ID, hookErr)
	}
	return record
}

// buildRequest assembles the model input: mode system prompt with the
// compacted artifact context spliced in, the message history, and the
// mode's tool schemas.
func (e *Engine) buildRequest(ctx context.Context, session *types.Session) (model.Request, error) {
	artifact, err := e.store.GetArtifact(ctx, session.ID)
	if err != nil {
		return model.Request{}, err
	}

	artifactCtx := e.compactor.Context(ctx, session.ID, artifact)
	system := fmt.Sprintf(systemPromptTemplate(session.Mode), artifactCtx.Text)

	history, err := e.store.ListMessages(ctx, session.ID)
	if err != nil {
		return model.Request{}, err
	}

	messages := make([]model.Message, 0, len(history))
	for _, msg := range history {
		messages = append(messages, model.Message{
			Role: msg.Role,
			Text: formatHistoryText(msg),
		})
	}

	return model.Request{
		System:      system,
		Messages:    messages,
		Tools:       toolcall.Schemas(session.Mode),
		MaxTokens:   e.config.maxTokens,
		Temperature: e.config.temperature,
	}, nil
}

// formatHistoryText renders a stored message for the model context,
// folding tool-call records into the text so prior edits stay visible.
func formatHistoryText(msg *types.Message) string {
	if len(msg.ToolCalls) == 0 {
		return msg.Text
	}

	var sb strings.Builder
	sb.WriteString(msg.Text)
	for _, call := range msg.ToolCalls {
		sb.WriteString(fmt.Sprintf("\n[%s: %s]", call.Name, call.Status))
	}
	return sb.String()
}

// beginTurn reserves the per-session turn slot.
func (e *Engine) beginTurn(sessionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.turns[sessionID]; ok {
		return NewSessionErrorWithSession("Turn", sessionID, ErrTurnInProgress)
	}
	e.turns[sessionID] = turnstate.StateIdle
	return nil
}

// endTurn releases the per-session turn slot.
func (e *Engine) endTurn(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.turns, sessionID)
}

// advance moves the session's turn state, validating the transition.
func (e *Engine) advance(sessionID string, from, to turnstate.TurnState) error {
	transition := turnstate.Transition{From: from, To: to}
	if err := transition.Validate(); err != nil {
		return NewSessionErrorWithSession("Turn", sessionID, err)
	}
	e.mu.Lock()
	e.turns[sessionID] = to
	e.mu.Unlock()
	return nil
}
