package vibegame

import (
	"context"
	"errors"
	"fmt"

	"github.com/vibegamedev/vibegame/storage"
	"github.com/vibegamedev/vibegame/types"
)

// NewSession creates a session in the given mode with a version-0
// artifact holding the mode's default content. The mode is fixed for
// the session's lifetime.
func (e *Engine) NewSession(ctx context.Context, mode types.Mode) (*types.Session, error) {
	if !mode.IsValid() {
		return nil, NewSessionError("NewSession", fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, mode))
	}

	session := &types.Session{Mode: mode}
	artifact := &types.Artifact{
		Mode:    mode,
		Content: defaultContent(mode),
		Version: 0,
	}

	if err := e.store.CreateSession(ctx, session, artifact); err != nil {
		return nil, NewSessionError("NewSession", err)
	}
	return session, nil
}

// GetSession returns a session by id.
func (e *Engine) GetSession(ctx context.Context, sessionID string) (*types.Session, error) {
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, NewSessionErrorWithSession("GetSession", sessionID, err)
	}
	return session, nil
}

// DeleteSession removes a session with its artifact, messages, and
// checkpoints, and drops any cached artifact summary.
func (e *Engine) DeleteSession(ctx context.Context, sessionID string) error {
	if err := e.store.DeleteSession(ctx, sessionID); err != nil {
		return NewSessionErrorWithSession("DeleteSession", sessionID, err)
	}
	e.compactor.Forget(sessionID)
	return nil
}

// Artifact returns the session's current artifact.
func (e *Engine) Artifact(ctx context.Context, sessionID string) (*types.Artifact, error) {
	artifact, err := e.store.GetArtifact(ctx, sessionID)
	if err != nil {
		return nil, NewSessionErrorWithSession("Artifact", sessionID, err)
	}
	return artifact, nil
}

// Transcript returns the session's messages in position order.
func (e *Engine) Transcript(ctx context.Context, sessionID string) ([]*types.Message, error) {
	messages, err := e.store.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, NewSessionErrorWithSession("Transcript", sessionID, err)
	}
	return messages, nil
}

// GenerateTitle derives a session title from the first user message
// and stores it. Title generation degrades gracefully: without a title
// generator, or when generation fails, the title is left empty and no
// error is returned unless the session itself is missing.
func (e *Engine) GenerateTitle(ctx context.Context, sessionID string) (string, error) {
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return "", NewSessionErrorWithSession("GenerateTitle", sessionID, err)
	}
	if session.Title != "" {
		return session.Title, nil
	}
	if e.config.titles == nil {
		return "", nil
	}

	messages, err := e.store.ListMessages(ctx, sessionID)
	if err != nil {
		return "", NewSessionErrorWithSession("GenerateTitle", sessionID, err)
	}
	var first string
	for _, msg := range messages {
		if msg.Role == types.RoleUser {
			first = msg.Text
			break
		}
	}
	if first == "" {
		return "", nil
	}

	title, err := e.config.titles.Title(ctx, session.Mode, first)
	if err != nil {
		e.config.logger.Printf("[vibegame] session %s: title generation: %v", sessionID, err)
		return "", nil
	}

	if err := e.store.UpdateSessionTitle(ctx, sessionID, title); err != nil {
		return "", NewSessionErrorWithSession("GenerateTitle", sessionID, err)
	}
	return title, nil
}

// ListCheckpoints returns the session's checkpoints in creation order.
func (e *Engine) ListCheckpoints(ctx context.Context, sessionID string) ([]*types.Checkpoint, error) {
	checkpoints, err := e.checkpoints.List(ctx, sessionID)
	if err != nil {
		return nil, NewSessionErrorWithSession("ListCheckpoints", sessionID, err)
	}
	return checkpoints, nil
}

// RestoreCheckpoint writes the checkpoint's snapshot content as a new
// artifact version. The restore itself is a mutation: the version
// advances, it never rewinds. Restoring while a turn is streaming is
// rejected with ErrTurnInProgress.
func (e *Engine) RestoreCheckpoint(ctx context.Context, sessionID, checkpointID string) (*types.Artifact, error) {
	if err := e.beginTurn(sessionID); err != nil {
		return nil, err
	}
	defer e.endTurn(sessionID)

	artifact, err := e.checkpoints.Restore(ctx, sessionID, checkpointID)
	if errors.Is(err, storage.ErrVersionConflict) {
		artifact, err = e.checkpoints.Restore(ctx, sessionID, checkpointID)
	}
	if err != nil {
		return nil, NewSessionErrorWithSession("RestoreCheckpoint", sessionID, err)
	}

	if cp, cpErr := e.checkpoints.Get(ctx, sessionID, checkpointID); cpErr == nil {
		if hookErr := e.config.hooks.TriggerCheckpoint(ctx, cp); hookErr != nil {
			e.config.logger.Printf("[vibegame] session %s: checkpoint hook: %v", sessionID, hookErr)
		}
	}
	return artifact, nil
}

// DeleteCheckpoint removes a checkpoint. The live artifact and every
// other checkpoint are unaffected.
func (e *Engine) DeleteCheckpoint(ctx context.Context, sessionID, checkpointID string) error {
	if err := e.checkpoints.Delete(ctx, sessionID, checkpointID); err != nil {
		return NewSessionErrorWithSession("DeleteCheckpoint", sessionID, err)
	}
	return nil
}
