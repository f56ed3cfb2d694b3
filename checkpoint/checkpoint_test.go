package checkpoint

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vibegamedev/vibegame/storage"
	"github.com/vibegamedev/vibegame/types"
)

func newTestSession(t *testing.T, store storage.Store) string {
	t.Helper()
	session := &types.Session{ID: "session-1", Mode: types.ModeBlockly}
	artifact := &types.Artifact{Mode: types.ModeBlockly, Content: `{"blocks":[]}`, Version: 0}
	if err := store.CreateSession(context.Background(), session, artifact); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return session.ID
}

func putContent(t *testing.T, store storage.Store, sessionID, content string) *types.Artifact {
	t.Helper()
	current, err := store.GetArtifact(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("GetArtifact: %v", err)
	}
	updated, err := store.PutArtifact(context.Background(), sessionID, current.Version, content)
	if err != nil {
		t.Fatalf("PutArtifact: %v", err)
	}
	return updated
}

func TestRestoreWritesNewVersion(t *testing.T) {
	store := storage.NewMemoryStore()
	sessionID := newTestSession(t, store)
	mgr := NewManager(store)
	ctx := context.Background()

	v1 := putContent(t, store, sessionID, `{"blocks":[{"id":"b1","type":"on_start"}]}`)
	cp, err := mgr.Create(ctx, sessionID, "add a start block", *v1, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if cp.Snapshot.Version != 1 {
		t.Errorf("expected snapshot version 1, got %d", cp.Snapshot.Version)
	}

	putContent(t, store, sessionID, `{"blocks":[{"id":"b1","type":"on_start"},{"id":"b2","type":"move","parent":"b1"}]}`)

	restored, err := mgr.Restore(ctx, sessionID, cp.ID)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Version != 3 {
		t.Errorf("expected restore to produce version 3, got %d", restored.Version)
	}
	if restored.Content != v1.Content {
		t.Errorf("expected restored content to match snapshot:\n got %s\nwant %s", restored.Content, v1.Content)
	}
}

func TestRestoreLeavesCheckpointReusable(t *testing.T) {
	store := storage.NewMemoryStore()
	sessionID := newTestSession(t, store)
	mgr := NewManager(store)
	ctx := context.Background()

	v1 := putContent(t, store, sessionID, `{"blocks":[{"id":"b1","type":"on_start"}]}`)
	cp, err := mgr.Create(ctx, sessionID, "first edit", *v1, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := mgr.Restore(ctx, sessionID, cp.ID); err != nil {
		t.Fatalf("first restore: %v", err)
	}
	putContent(t, store, sessionID, `{"blocks":[{"id":"b9","type":"score"}]}`)

	restored, err := mgr.Restore(ctx, sessionID, cp.ID)
	if err != nil {
		t.Fatalf("second restore: %v", err)
	}
	if restored.Content != v1.Content {
		t.Error("second restore did not reproduce the snapshot content")
	}
	if restored.Version != 4 {
		t.Errorf("expected version 4 after second restore, got %d", restored.Version)
	}
}

func TestDeleteLeavesArtifactUntouched(t *testing.T) {
	store := storage.NewMemoryStore()
	sessionID := newTestSession(t, store)
	mgr := NewManager(store)
	ctx := context.Background()

	v1 := putContent(t, store, sessionID, `{"blocks":[{"id":"b1","type":"on_start"}]}`)
	cp, err := mgr.Create(ctx, sessionID, "add a start block", *v1, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	putContent(t, store, sessionID, `{"blocks":[{"id":"b1","type":"on_start"},{"id":"b2","type":"move","parent":"b1"}]}`)
	v3, err := mgr.Restore(ctx, sessionID, cp.ID)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if err := mgr.Delete(ctx, sessionID, cp.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	after, err := store.GetArtifact(ctx, sessionID)
	if err != nil {
		t.Fatalf("GetArtifact: %v", err)
	}
	if after.Version != v3.Version || after.Content != v3.Content {
		t.Error("deleting the checkpoint modified the live artifact")
	}

	if _, err := mgr.Restore(ctx, sessionID, cp.ID); !errors.Is(err, storage.ErrCheckpointNotFound) {
		t.Errorf("expected ErrCheckpointNotFound after delete, got %v", err)
	}
}

func TestRestoreMissingCheckpoint(t *testing.T) {
	store := storage.NewMemoryStore()
	sessionID := newTestSession(t, store)
	mgr := NewManager(store)

	_, err := mgr.Restore(context.Background(), sessionID, "no-such-id")
	if !errors.Is(err, storage.ErrCheckpointNotFound) {
		t.Errorf("expected ErrCheckpointNotFound, got %v", err)
	}
}

func TestLabelFromInstruction(t *testing.T) {
	tests := []struct {
		name        string
		instruction string
		limit       int
		want        string
	}{
		{
			name:        "short instruction unchanged",
			instruction: "make the player jump higher",
			limit:       80,
			want:        "make the player jump higher",
		},
		{
			name:        "whitespace collapsed",
			instruction: "  add   a\n\tscore counter  ",
			limit:       80,
			want:        "add a score counter",
		},
		{
			name:        "empty instruction",
			instruction: "   ",
			limit:       80,
			want:        "untitled checkpoint",
		},
		{
			name:        "truncated at word boundary",
			instruction: "add an enemy spawner that creates a new enemy every three seconds near the edges",
			limit:       40,
			want:        "add an enemy spawner that creates a new…",
		},
		{
			name:        "long single word cut mid-word",
			instruction: strings.Repeat("x", 100),
			limit:       10,
			want:        strings.Repeat("x", 10) + "…",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LabelFromInstruction(tt.instruction, tt.limit)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if tt.limit > 0 {
				runes := []rune(got)
				if len(runes) > tt.limit+1 {
					t.Errorf("label exceeds limit: %d runes", len(runes))
				}
			}
		})
	}
}
