package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vibegamedev/vibegame/types"
)

// txContextKey is the context key for storing pgx.Tx
type txContextKey struct{}

// WithTx returns a new context with the given transaction. Store calls
// made with this context run inside the transaction, which lets callers
// combine engine writes with their own database operations atomically.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// TxFromContext retrieves the transaction from context, or nil if not present
func TxFromContext(ctx context.Context) pgx.Tx {
	if tx, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		return tx
	}
	return nil
}

// querier is a common interface for pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using PostgreSQL with pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// getQuerier returns the transaction from context if present, otherwise the pool
func (s *PostgresStore) getQuerier(ctx context.Context) querier {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

// CreateSession persists a new session with its initial artifact.
func (s *PostgresStore) CreateSession(ctx context.Context, session *types.Session, artifact *types.Artifact) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}

	metadataJSON, err := json.Marshal(session.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	q := s.getQuerier(ctx)

	_, err = q.Exec(ctx, `
		INSERT INTO vibegame_sessions (id, title, mode, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`, session.ID, session.Title, string(session.Mode), metadataJSON)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrSessionExists, session.ID)
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	_, err = q.Exec(ctx, `
		INSERT INTO vibegame_artifacts (session_id, mode, content, version, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, session.ID, string(artifact.Mode), artifact.Content, artifact.Version)
	if err != nil {
		return fmt.Errorf("failed to create artifact: %w", err)
	}

	return nil
}

// GetSession retrieves a session by id.
func (s *PostgresStore) GetSession(ctx context.Context, sessionID string) (*types.Session, error) {
	var session types.Session
	var mode string
	var metadataJSON []byte

	err := s.getQuerier(ctx).QueryRow(ctx, `
		SELECT id, title, mode, metadata, created_at, updated_at
		FROM vibegame_sessions
		WHERE id = $1
	`, sessionID).Scan(
		&session.ID,
		&session.Title,
		&mode,
		&metadataJSON,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
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
func (s *PostgresStore) UpdateSessionTitle(ctx context.Context, sessionID, title string) error {
	tag, err := s.getQuerier(ctx).Exec(ctx, `
		UPDATE vibegame_sessions SET title = $2, updated_at = NOW() WHERE id = $1
	`, sessionID, title)
	if err != nil {
		return fmt.Errorf("failed to update session title: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return nil
}

// DeleteSession removes the session; artifacts, messages, and
// checkpoints go with it via ON DELETE CASCADE.
func (s *PostgresStore) DeleteSession(ctx context.Context, sessionID string) error {
	tag, err := s.getQuerier(ctx).Exec(ctx, `
		DELETE FROM vibegame_sessions WHERE id = $1
	`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return nil
}

// ListSessions returns sessions newest first, up to limit.
func (s *PostgresStore) ListSessions(ctx context.Context, limit int) ([]*types.Session, error) {
	rows, err := s.getQuerier(ctx).Query(ctx, `
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
func (s *PostgresStore) GetArtifact(ctx context.Context, sessionID string) (*types.Artifact, error) {
	var artifact types.Artifact
	var mode string

	err := s.getQuerier(ctx).QueryRow(ctx, `
		SELECT mode, content, version FROM vibegame_artifacts WHERE session_id = $1
	`, sessionID).Scan(&mode, &artifact.Content, &artifact.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}

	artifact.Mode = types.Mode(mode)
	return &artifact, nil
}

// PutArtifact performs the compare-and-set write. The WHERE clause on
// version makes the database the arbiter: zero rows affected means the
// expected version lost the race (or the session is gone).
func (s *PostgresStore) PutArtifact(ctx context.Context, sessionID string, expectedVersion int, content string) (*types.Artifact, error) {
	var artifact types.Artifact
	var mode string

	err := s.getQuerier(ctx).QueryRow(ctx, `
		UPDATE vibegame_artifacts
		SET content = $3, version = version + 1, updated_at = NOW()
		WHERE session_id = $1 AND version = $2
		RETURNING mode, content, version
	`, sessionID, expectedVersion, content).Scan(&mode, &artifact.Content, &artifact.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a missing session from a lost race.
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
func (s *PostgresStore) AddMessage(ctx context.Context, msg *types.Message) (*types.Message, error) {
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

	err = s.getQuerier(ctx).QueryRow(ctx, `
		INSERT INTO vibegame_messages (id, session_id, role, text, position, tool_calls, truncated, metadata, created_at)
		SELECT $1, $2, $3, $4,
		       COALESCE(MAX(position) + 1, 0),
		       $5, $6, $7, NOW()
		FROM vibegame_messages WHERE session_id = $2
		RETURNING position, created_at
	`, mc.ID, mc.SessionID, string(mc.Role), mc.Text, toolCallsJSON, mc.Truncated, metadataJSON).
		Scan(&mc.Position, &mc.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, mc.SessionID)
		}
		return nil, fmt.Errorf("failed to add message: %w", err)
	}

	return &mc, nil
}

// ListMessages returns the transcript in position order.
func (s *PostgresStore) ListMessages(ctx context.Context, sessionID string) ([]*types.Message, error) {
	rows, err := s.getQuerier(ctx).Query(ctx, `
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
func (s *PostgresStore) AddCheckpoint(ctx context.Context, cp *types.Checkpoint) (*types.Checkpoint, error) {
	cc := *cp
	if cc.ID == "" {
		cc.ID = uuid.New().String()
	}

	err := s.getQuerier(ctx).QueryRow(ctx, `
		INSERT INTO vibegame_checkpoints
			(id, session_id, label, message_position, snapshot_mode, snapshot_content, snapshot_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`, cc.ID, cc.SessionID, cc.Label, cc.MessagePosition,
		string(cc.Snapshot.Mode), cc.Snapshot.Content, cc.Snapshot.Version).
		Scan(&cc.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, cc.SessionID)
		}
		return nil, fmt.Errorf("failed to add checkpoint: %w", err)
	}

	return &cc, nil
}

// GetCheckpoint retrieves one checkpoint by id.
func (s *PostgresStore) GetCheckpoint(ctx context.Context, sessionID, checkpointID string) (*types.Checkpoint, error) {
	cp, err := scanCheckpoint(s.getQuerier(ctx).QueryRow(ctx, `
		SELECT id, session_id, label, message_position, snapshot_mode, snapshot_content, snapshot_version, created_at
		FROM vibegame_checkpoints
		WHERE session_id = $1 AND id = $2
	`, sessionID, checkpointID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrCheckpointNotFound, checkpointID)
		}
		return nil, fmt.Errorf("failed to get checkpoint: %w", err)
	}
	return cp, nil
}

// ListCheckpoints returns checkpoints in creation order.
func (s *PostgresStore) ListCheckpoints(ctx context.Context, sessionID string) ([]*types.Checkpoint, error) {
	rows, err := s.getQuerier(ctx).Query(ctx, `
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
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint: %w", err)
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

// RemoveCheckpoint deletes one checkpoint.
func (s *PostgresStore) RemoveCheckpoint(ctx context.Context, sessionID, checkpointID string) error {
	tag, err := s.getQuerier(ctx).Exec(ctx, `
		DELETE FROM vibegame_checkpoints WHERE session_id = $1 AND id = $2
	`, sessionID, checkpointID)
	if err != nil {
		return fmt.Errorf("failed to remove checkpoint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrCheckpointNotFound, checkpointID)
	}
	return nil
}

func scanCheckpoint(row pgx.Row) (*types.Checkpoint, error) {
	var cp types.Checkpoint
	var mode string
	if err := row.Scan(&cp.ID, &cp.SessionID, &cp.Label, &cp.MessagePosition,
		&mode, &cp.Snapshot.Content, &cp.Snapshot.Version, &cp.CreatedAt); err != nil {
		return nil, err
	}
	cp.Snapshot.Mode = types.Mode(mode)
	return &cp, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
