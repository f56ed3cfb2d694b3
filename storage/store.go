// Package storage defines the persistence contract for sessions,
// artifacts, messages, and checkpoints, plus the backends that satisfy
// it (in-memory, pgx/v5, database/sql).
//
// The artifact write path is the single concurrency guard in the whole
// system: PutArtifact is compare-and-set on the artifact version, so a
// caller racing another writer gets ErrVersionConflict and must re-read
// before retrying.
package storage

import (
	"context"
	"errors"

	"github.com/vibegamedev/vibegame/types"
)

// Storage errors. Callers match these with errors.Is.
var (
	// ErrSessionNotFound is returned when a session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrVersionConflict is returned by PutArtifact when the expected
	// version does not match the stored version. The stored artifact is
	// not mutated.
	ErrVersionConflict = errors.New("artifact version conflict")

	// ErrCheckpointNotFound is returned when a checkpoint does not exist.
	ErrCheckpointNotFound = errors.New("checkpoint not found")

	// ErrSessionExists is returned when creating a session with an id
	// that is already taken.
	ErrSessionExists = errors.New("session already exists")
)

// Store is the persistence contract. Every operation is scoped to a
// session id. Messages and checkpoints are append-only; the artifact is
// mutated only through the compare-and-set PutArtifact.
type Store interface {
	// CreateSession persists a new session together with its initial
	// artifact (version 0). Exactly one live artifact exists per session.
	CreateSession(ctx context.Context, session *types.Session, artifact *types.Artifact) error

	// GetSession retrieves a session by id.
	GetSession(ctx context.Context, sessionID string) (*types.Session, error)

	// UpdateSessionTitle sets the generated title for a session.
	UpdateSessionTitle(ctx context.Context, sessionID, title string) error

	// DeleteSession removes the session and everything scoped to it.
	DeleteSession(ctx context.Context, sessionID string) error

	// GetArtifact reads the current artifact for a session.
	GetArtifact(ctx context.Context, sessionID string) (*types.Artifact, error)

	// PutArtifact replaces the artifact content iff the stored version
	// equals expectedVersion, advancing the version by exactly 1. On
	// mismatch it fails with ErrVersionConflict and changes nothing.
	PutArtifact(ctx context.Context, sessionID string, expectedVersion int, content string) (*types.Artifact, error)

	// AddMessage appends a message to the session transcript, assigning
	// the next gapless position. The returned message carries the
	// assigned id, position, and timestamp.
	AddMessage(ctx context.Context, msg *types.Message) (*types.Message, error)

	// ListMessages returns the session transcript in position order.
	ListMessages(ctx context.Context, sessionID string) ([]*types.Message, error)

	// AddCheckpoint appends an immutable checkpoint. Creation order is
	// insertion order.
	AddCheckpoint(ctx context.Context, cp *types.Checkpoint) (*types.Checkpoint, error)

	// GetCheckpoint retrieves one checkpoint by id.
	GetCheckpoint(ctx context.Context, sessionID, checkpointID string) (*types.Checkpoint, error)

	// ListCheckpoints returns checkpoints in creation order.
	ListCheckpoints(ctx context.Context, sessionID string) ([]*types.Checkpoint, error)

	// RemoveCheckpoint deletes one checkpoint. The artifact and every
	// other checkpoint are untouched.
	RemoveCheckpoint(ctx context.Context, sessionID, checkpointID string) error
}

// SessionLister is an optional Store extension for browsing sessions,
// newest first. All provided backends implement it.
type SessionLister interface {
	ListSessions(ctx context.Context, limit int) ([]*types.Session, error)
}
