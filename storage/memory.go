package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vibegamedev/vibegame/types"
)

// MemoryStore is an in-memory Store implementation. It is used by tests
// and examples; production deployments use PostgresStore or SQLStore.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*types.Session
	artifacts   map[string]*types.Artifact
	messages    map[string][]*types.Message
	checkpoints map[string][]*types.Checkpoint
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:    make(map[string]*types.Session),
		artifacts:   make(map[string]*types.Artifact),
		messages:    make(map[string][]*types.Message),
		checkpoints: make(map[string][]*types.Checkpoint),
	}
}

// CreateSession persists a new session with its initial artifact.
func (s *MemoryStore) CreateSession(ctx context.Context, session *types.Session, artifact *types.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if _, ok := s.sessions[session.ID]; ok {
		return fmt.Errorf("%w: %s", ErrSessionExists, session.ID)
	}

	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	sc := *session
	ac := artifact.Clone()
	s.sessions[session.ID] = &sc
	s.artifacts[session.ID] = &ac
	return nil
}

// GetSession retrieves a session by id.
func (s *MemoryStore) GetSession(ctx context.Context, sessionID string) (*types.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	sc := *sess
	return &sc, nil
}

// UpdateSessionTitle sets the session title.
func (s *MemoryStore) UpdateSessionTitle(ctx context.Context, sessionID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	sess.Title = title
	sess.UpdatedAt = time.Now()
	return nil
}

// DeleteSession removes the session and everything scoped to it.
func (s *MemoryStore) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	delete(s.sessions, sessionID)
	delete(s.artifacts, sessionID)
	delete(s.messages, sessionID)
	delete(s.checkpoints, sessionID)
	return nil
}

// ListSessions returns sessions newest first, up to limit.
func (s *MemoryStore) ListSessions(ctx context.Context, limit int) ([]*types.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*types.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sc := *sess
		sessions = append(sessions, &sc)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

// GetArtifact reads the current artifact.
func (s *MemoryStore) GetArtifact(ctx context.Context, sessionID string) (*types.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.artifacts[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	ac := a.Clone()
	return &ac, nil
}

// PutArtifact performs the compare-and-set write.
func (s *MemoryStore) PutArtifact(ctx context.Context, sessionID string, expectedVersion int, content string) (*types.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.artifacts[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if a.Version != expectedVersion {
		return nil, fmt.Errorf("%w: expected %d, have %d", ErrVersionConflict, expectedVersion, a.Version)
	}

	a.Content = content
	a.Version++

	ac := a.Clone()
	return &ac, nil
}

// AddMessage appends a message, assigning the next gapless position.
func (s *MemoryStore) AddMessage(ctx context.Context, msg *types.Message) (*types.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[msg.SessionID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, msg.SessionID)
	}

	mc := *msg
	if mc.ID == "" {
		mc.ID = uuid.New().String()
	}
	if mc.CreatedAt.IsZero() {
		mc.CreatedAt = time.Now()
	}
	mc.Position = len(s.messages[msg.SessionID])
	mc.ToolCalls = append([]types.ToolCallRecord(nil), msg.ToolCalls...)

	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], &mc)

	out := mc
	return &out, nil
}

// ListMessages returns the transcript in position order.
func (s *MemoryStore) ListMessages(ctx context.Context, sessionID string) ([]*types.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	msgs := s.messages[sessionID]
	out := make([]*types.Message, len(msgs))
	for i, m := range msgs {
		mc := *m
		out[i] = &mc
	}
	return out, nil
}

// AddCheckpoint appends an immutable checkpoint.
func (s *MemoryStore) AddCheckpoint(ctx context.Context, cp *types.Checkpoint) (*types.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[cp.SessionID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, cp.SessionID)
	}

	cc := *cp
	if cc.ID == "" {
		cc.ID = uuid.New().String()
	}
	if cc.CreatedAt.IsZero() {
		cc.CreatedAt = time.Now()
	}

	s.checkpoints[cp.SessionID] = append(s.checkpoints[cp.SessionID], &cc)

	out := cc
	return &out, nil
}

// GetCheckpoint retrieves one checkpoint by id.
func (s *MemoryStore) GetCheckpoint(ctx context.Context, sessionID, checkpointID string) (*types.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cp := range s.checkpoints[sessionID] {
		if cp.ID == checkpointID {
			cc := *cp
			return &cc, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCheckpointNotFound, checkpointID)
}

// ListCheckpoints returns checkpoints in creation order.
func (s *MemoryStore) ListCheckpoints(ctx context.Context, sessionID string) ([]*types.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cps := s.checkpoints[sessionID]
	out := make([]*types.Checkpoint, len(cps))
	for i, cp := range cps {
		cc := *cp
		out[i] = &cc
	}
	return out, nil
}

// RemoveCheckpoint deletes one checkpoint.
func (s *MemoryStore) RemoveCheckpoint(ctx context.Context, sessionID, checkpointID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cps := s.checkpoints[sessionID]
	for i, cp := range cps {
		if cp.ID == checkpointID {
			s.checkpoints[sessionID] = append(cps[:i:i], cps[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrCheckpointNotFound, checkpointID)
}
