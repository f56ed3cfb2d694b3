// Package checkpoint manages immutable artifact snapshots and restores.
//
// A checkpoint captures the artifact's (version, content) at the moment
// a tool call materially changed it. Restoring never rewinds history:
// it writes the snapshot content as a brand-new version on top of the
// current one, so the artifact's version sequence stays gapless and
// every checkpoint taken after the restored one stays valid.
package checkpoint

import (
	"context"
	"strings"
	"unicode"

	"github.com/vibegamedev/vibegame/storage"
	"github.com/vibegamedev/vibegame/types"
)

// DefaultLabelLimit is the maximum rune length of a derived checkpoint
// label.
const DefaultLabelLimit = 80

// Manager creates, restores, lists, and deletes checkpoints for a
// session.
type Manager struct {
	store      storage.Store
	labelLimit int
}

// NewManager returns a checkpoint manager backed by the given store.
func NewManager(store storage.Store) *Manager {
	return &Manager{store: store, labelLimit: DefaultLabelLimit}
}

// SetLabelLimit overrides the maximum rune length of derived labels.
// Non-positive values are ignored.
func (m *Manager) SetLabelLimit(limit int) {
	if limit > 0 {
		m.labelLimit = limit
	}
}

// Create records a snapshot of the given artifact state, labeled from
// the user instruction that triggered the change. messagePosition is
// the ordinal of the message the snapshot was taken after.
func (m *Manager) Create(ctx context.Context, sessionID, instruction string, snapshot types.Artifact, messagePosition int) (*types.Checkpoint, error) {
	cp := &types.Checkpoint{
		SessionID:       sessionID,
		Label:           LabelFromInstruction(instruction, m.labelLimit),
		MessagePosition: messagePosition,
		Snapshot:        snapshot.Clone(),
	}
	return m.store.AddCheckpoint(ctx, cp)
}

// Restore writes the checkpoint's snapshot content as a new artifact
// version on top of the current one. The checkpoint itself is
// untouched and can be restored again later. A concurrent write
// between the read and the put surfaces as storage.ErrVersionConflict.
func (m *Manager) Restore(ctx context.Context, sessionID, checkpointID string) (*types.Artifact, error) {
	cp, err := m.store.GetCheckpoint(ctx, sessionID, checkpointID)
	if err != nil {
		return nil, err
	}

	current, err := m.store.GetArtifact(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return m.store.PutArtifact(ctx, sessionID, current.Version, cp.Snapshot.Content)
}

// List returns the session's checkpoints in creation order.
func (m *Manager) List(ctx context.Context, sessionID string) ([]*types.Checkpoint, error) {
	return m.store.ListCheckpoints(ctx, sessionID)
}

// Get returns a single checkpoint by id.
func (m *Manager) Get(ctx context.Context, sessionID, checkpointID string) (*types.Checkpoint, error) {
	return m.store.GetCheckpoint(ctx, sessionID, checkpointID)
}

// Delete removes a checkpoint. The live artifact and every other
// checkpoint are unaffected.
func (m *Manager) Delete(ctx context.Context, sessionID, checkpointID string) error {
	return m.store.RemoveCheckpoint(ctx, sessionID, checkpointID)
}

// LabelFromInstruction derives a checkpoint label from the user
// instruction that triggered the edit: whitespace is collapsed and the
// text is truncated to limit runes with a trailing ellipsis.
func LabelFromInstruction(instruction string, limit int) string {
	label := strings.Join(strings.Fields(instruction), " ")
	if label == "" {
		return "untitled checkpoint"
	}
	if limit <= 0 {
		limit = DefaultLabelLimit
	}

	runes := []rune(label)
	if len(runes) <= limit {
		return label
	}

	// Cut at the last word boundary before the limit when one is close
	// enough, otherwise cut mid-word.
	cut := limit
	for i := limit - 1; i > limit/2; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}
	return strings.TrimRight(string(runes[:cut]), " ") + "…"
}
