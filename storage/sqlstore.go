package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/vibegamedev/vibegame/types"
)

// SQLStore implements Store over database/sql. It targets PostgreSQL
// through lib/pq and exists for hosts whose stack is built on *sql.DB
// rather than a pgx pool. Schema and semantics are identical to
// PostgresStore.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a Store backed by a *sql.DB.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// CreateSession persists a new session with its initial artifact.
func (s *SQLStore) CreateSession(ctx context.Context, session *types.Session, artifact *types.Artifact) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}

	metadataJSON, err := json.Marshal(session.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO vibegame_sessions (id, title, mode, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`, session.ID, session.Title, string(session.Mode), metadataJSON)
	if err != nil {
		if isPQUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrSessionExists, session.ID)
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO vibegame_artifacts (session_id, mode, content, version, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, session.ID, string(artifact.Mode), artifact.Content, artifact.Version)
	if err != nil {
		return fmt.Errorf("failed to create artifact: %w", err)
	}

	return tx.Commit()
}

// GetSession retrieves a session by id.
func (s *SQLStore) GetSession(ctx context.Context, sessionID string) (*types.Session, error) {
	var session types.Session
	var mode string
	var metadataJSON []byte

	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, mode, metadata, created_at, updated_at
		FROM vibegame_sessions
		WHERE id = $1
	`, sessionID).Scan(
		&session.ID, &session.Title, &mode, &metadataJSON,
		&session.CreatedAt, &session.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session.Mode = types.Mode(mode)
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &session.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &session, nil
}

// UpdateSessionTitle sets the session title.
func (s *SQLStore) UpdateSessionTitle(ctx context.Context, sessionID, title string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE vibegame_sessions SET title = $2, updated_at = NOW() WHERE id = $1
	`, sessionID, title)
	if err != nil {
		return fmt.Errorf("failed to update session title: %w", err)
	}
	return requireRows(res, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID))
}

// DeleteSession removes the session and everything scoped to it.
func (s *SQLStore) DeleteSession(ctx context.Context, sessionID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM vibegame_sessions WHERE id = $1
	`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return requireRows(res, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID))
}

// ListSessions returns sessions newest first, up to limit.
func (s *SQLStore) ListSessions(ctx context.Context, limit int) ([]*types.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, mode, metadata, created_at, updated_at
		FROM vibegame_sessions
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []*types.Session
	for rows.Next() {
		var session types.Session
		var mode string
		var metadataJSON []byte

		if err := rows.Scan(&session.ID, &session.Title, &mode, &metadataJSON,
			&session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		session.Mode = types.Mode(mode)
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &session.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		out = append(out, &session)
	}
	return out, rows.Err()
}

// GetArtifact reads the current artifact.
func (s *SQLStore) GetArtifact(ctx context.Context, sessionID string) (*types.Artifact, error) {
	var artifact types.Artifact
	var mode string

	err := s.db.QueryRowContext(ctx, `
		SELECT mode, content, version FROM vibegame_artifacts WHERE session_id = $1
	`, sessionID).Scan(&mode, &artifact.Content, &artifact.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}

	artifact.Mode = types.Mode(mode)
	return &artifact, nil
}

// PutArtifact performs the compare-and-set write.
func (s *SQLStore) PutArtifact(ctx context.Context, sessionID string, expectedVersion int, content string) (*types.Artifact, error) {
	var artifact types.Artifact
	var mode string

	err := s.db.QueryRowContext(ctx, `
		UPDATE vibegame_artifacts
		SET content = $3, version = version + 1, updated_at = NOW()
		WHERE session_id = $1 AND version = $2
		RETURNING mode, content, version
	`, sessionID, expectedVersion, content).Scan(&mode, &artifact.Content, &artifact.Version)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := s.GetArtifact(ctx, sessionID); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("%w: expected %d", ErrVersionConflict, expectedVersion)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to put artifact: %w", err)
	}

	artifact.Mode = types.Mode(mode)
	return &artifact, nil
}

// AddMessage appends a message with the next gapless position.
func (s *SQLStore) AddMessage(ctx context.Context, msg *types.Message) (*types.Message, error) {
	mc := *msg
	if mc.ID == "" {
		mc.ID = uuid.New().String()
	}

	toolCallsJSON, err := json.Marshal(mc.ToolCalls)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool calls: %w", err)
	}
	metadataJSON, err := json.Marshal(mc.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO vibegame_messages (id, session_id, role, text, position, tool_calls, truncated, metadata, created_at)
		SELECT $1, $2, $3, $4,
		       COALESCE(MAX(position) + 1, 0),
		       $5, $6, $7, NOW()
		FROM vibegame_messages WHERE session_id = $2
		RETURNING position, created_at
	`, mc.ID, mc.SessionID, string(mc.Role), mc.Text, toolCallsJSON, mc.Truncated, metadataJSON).
		Scan(&mc.Position, &mc.CreatedAt)
	if err != nil {
		if isPQForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, mc.SessionID)
		}
		return nil, fmt.Errorf("failed to add message: %w", err)
	}

	return &mc, nil
}

// ListMessages returns the transcript in position order.
func (s *SQLStore) ListMessages(ctx context.Context, sessionID string) ([]*types.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, role, text, position, tool_calls, truncated, metadata, created_at
		FROM vibegame_messages
		WHERE session_id = $1
		ORDER BY position
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var out []*types.Message
	for rows.Next() {
		var msg types.Message
		var role string
		var toolCallsJSON, metadataJSON []byte

		if err := rows.Scan(&msg.ID, &msg.SessionID, &role, &msg.Text, &msg.Position,
			&toolCallsJSON, &msg.Truncated, &metadataJSON, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Role = types.Role(role)
		if len(toolCallsJSON) > 0 {
			if err := json.Unmarshal(toolCallsJSON, &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tool calls: %w", err)
			}
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &msg.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		out = append(out, &msg)
	}
	return out, rows.Err()
}

// AddCheckpoint appends a checkpoint.
func (s *SQLStore) AddCheckpoint(ctx context.Context, cp *types.Checkpoint) (*types.Checkpoint, error) {
	cc := *cp
	if cc.ID == "" {
		cc.ID = uuid.New().String()
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO vibegame_checkpoints
			(id, session_id, label, message_position, snapshot_mode, snapshot_content, snapshot_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`, cc.ID, cc.SessionID, cc.Label, cc.MessagePosition,
		string(cc.Snapshot.Mode), cc.Snapshot.Content, cc.Snapshot.Version).
		Scan(&cc.CreatedAt)
	if err != nil {
		if isPQForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, cc.SessionID)
		}
		return nil, fmt.Errorf("failed to add checkpoint: %w", err)
	}

	return &cc, nil
}

// GetCheckpoint retrieves one checkpoint by id.
func (s *SQLStore) GetCheckpoint(ctx context.Context, sessionID, checkpointID string) (*types.Checkpoint, error) {
	var cp types.Checkpoint
	var mode string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, label, message_position, snapshot_mode, snapshot_content, snapshot_version, created_at
		FROM vibegame_checkpoints
		WHERE session_id = $1 AND id = $2
	`, sessionID, checkpointID).Scan(
		&cp.ID, &cp.SessionID, &cp.Label, &cp.MessagePosition,
		&mode, &cp.Snapshot.Content, &cp.Snapshot.Version, &cp.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrCheckpointNotFound, checkpointID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkpoint: %w", err)
	}

	cp.Snapshot.Mode = types.Mode(mode)
	return &cp, nil
}

// ListCheckpoints returns checkpoints in creation order.
func (s *SQLStore) ListCheckpoints(ctx context.Context, sessionID string) ([]*types.Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, label, message_position, snapshot_mode, snapshot_content, snapshot_version, created_at
		FROM vibegame_checkpoints
		WHERE session_id = $1
		ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []*types.Checkpoint
	for rows.Next() {
		var cp types.Checkpoint
		var mode string
		if err := rows.Scan(&cp.ID, &cp.SessionID, &cp.Label, &cp.MessagePosition,
			&mode, &cp.Snapshot.Content, &cp.Snapshot.Version, &cp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint: %w", err)
		}
		cp.Snapshot.Mode = types.Mode(mode)
		out = append(out, &cp)
	}
	return out, rows.Err()
}

// RemoveCheckpoint deletes one checkpoint.
func (s *SQLStore) RemoveCheckpoint(ctx context.Context, sessionID, checkpointID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM vibegame_checkpoints WHERE session_id = $1 AND id = $2
	`, sessionID, checkpointID)
	if err != nil {
		return fmt.Errorf("failed to remove checkpoint: %w", err)
	}
	return requireRows(res, fmt.Errorf("%w: %s", ErrCheckpointNotFound, checkpointID))
}

func requireRows(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isPQUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isPQForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
