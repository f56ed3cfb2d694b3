package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/vibegamedev/vibegame/internal/testutil"
	"github.com/vibegamedev/vibegame/types"
)

// These tests run against a real database when DATABASE_URL is set and
// skip otherwise. Apply Schema to the target database first.

func newIntegrationStore(t *testing.T) (*PostgresStore, *testutil.TestDB) {
	t.Helper()

	db := testutil.NewTestDB(t)
	ctx := context.Background()

	if _, err := db.Pool.Exec(ctx, Schema); err != nil {
		db.Close()
		t.Fatalf("Failed to apply schema: %v", err)
	}
	if err := db.CleanTables(ctx); err != nil {
		db.Close()
		t.Fatalf("Failed to clean tables: %v", err)
	}

	t.Cleanup(db.Close)
	return NewPostgresStore(db.Pool), db
}

func TestPostgresSessionRoundTrip(t *testing.T) {
	store, _ := newIntegrationStore(t)
	ctx := context.Background()

	session := &types.Session{
		Mode:     types.ModeBlockly,
		Metadata: map[string]any{"owner": "integration"},
	}
	artifact := &types.Artifact{Mode: types.ModeBlockly, Content: `{"blocks":[]}`, Version: 0}

	if err := store.CreateSession(ctx, session, artifact); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if session.ID == "" {
		t.Fatal("Expected generated session ID")
	}

	got, err := store.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.Mode != types.ModeBlockly {
		t.Errorf("Expected mode blockly, got %s", got.Mode)
	}
	if got.Metadata["owner"] != "integration" {
		t.Errorf("Expected metadata to round-trip, got %v", got.Metadata)
	}

	if err := store.UpdateSessionTitle(ctx, session.ID, "platformer"); err != nil {
		t.Fatalf("UpdateSessionTitle failed: %v", err)
	}
	got, err = store.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession after title update failed: %v", err)
	}
	if got.Title != "platformer" {
		t.Errorf("Expected title platformer, got %q", got.Title)
	}

	sessions, err := store.ListSessions(ctx, 10)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("Expected 1 session, got %d", len(sessions))
	}

	if err := store.DeleteSession(ctx, session.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := store.GetSession(ctx, session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound after delete, got %v", err)
	}
}

func TestPostgresArtifactVersioning(t *testing.T) {
	store, _ := newIntegrationStore(t)
	ctx := context.Background()

	session := &types.Session{Mode: types.ModeBlockly}
	artifact := &types.Artifact{Mode: types.ModeBlockly, Content: `{"blocks":[]}`, Version: 0}
	if err := store.CreateSession(ctx, session, artifact); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	updated, err := store.PutArtifact(ctx, session.ID, 0, `{"blocks":[{"id":"b1","type":"sprite"}]}`)
	if err != nil {
		t.Fatalf("PutArtifact failed: %v", err)
	}
	if updated.Version != 1 {
		t.Errorf("Expected version 1, got %d", updated.Version)
	}

	// A stale expected version must not write.
	_, err = store.PutArtifact(ctx, session.ID, 0, `{"blocks":[]}`)
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("Expected ErrVersionConflict, got %v", err)
	}

	current, err := store.GetArtifact(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetArtifact failed: %v", err)
	}
	if current.Version != 1 {
		t.Errorf("Expected version to stay at 1 after conflict, got %d", current.Version)
	}
}

func TestPostgresMessagePositions(t *testing.T) {
	store, db := newIntegrationStore(t)
	ctx := context.Background()

	sessionID := db.SetupTestSession(ctx, t)

	for i := 0; i < 3; i++ {
		msg, err := store.AddMessage(ctx, &types.Message{
			SessionID: sessionID,
			Role:      types.RoleUser,
			Text:      "add a coin",
		})
		if err != nil {
			t.Fatalf("AddMessage %d failed: %v", i, err)
		}
		if msg.Position != i {
			t.Errorf("Expected position %d, got %d", i, msg.Position)
		}
	}

	msgs, err := store.ListMessages(ctx, sessionID)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(msgs))
	}
	for i, msg := range msgs {
		if msg.Position != i {
			t.Errorf("Expected gapless position %d, got %d", i, msg.Position)
		}
	}
}

func TestPostgresCheckpointLifecycle(t *testing.T) {
	store, db := newIntegrationStore(t)
	ctx := context.Background()

	sessionID := db.SetupTestSession(ctx, t)

	cp, err := store.AddCheckpoint(ctx, &types.Checkpoint{
		SessionID:       sessionID,
		Label:           "add a coin",
		MessagePosition: 1,
		Snapshot: types.Artifact{
			Mode:    types.ModeBlockly,
			Content: `{"blocks":[{"id":"b1","type":"sprite"}]}`,
			Version: 1,
		},
	})
	if err != nil {
		t.Fatalf("AddCheckpoint failed: %v", err)
	}

	got, err := store.GetCheckpoint(ctx, sessionID, cp.ID)
	if err != nil {
		t.Fatalf("GetCheckpoint failed: %v", err)
	}
	if got.Snapshot.Version != 1 || got.Snapshot.Content != cp.Snapshot.Content {
		t.Errorf("Snapshot did not round-trip: %+v", got.Snapshot)
	}

	list, err := store.ListCheckpoints(ctx, sessionID)
	if err != nil {
		t.Fatalf("ListCheckpoints failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("Expected 1 checkpoint, got %d", len(list))
	}

	if err := store.RemoveCheckpoint(ctx, sessionID, cp.ID); err != nil {
		t.Fatalf("RemoveCheckpoint failed: %v", err)
	}
	if _, err := store.GetCheckpoint(ctx, sessionID, cp.ID); !errors.Is(err, ErrCheckpointNotFound) {
		t.Errorf("Expected ErrCheckpointNotFound after remove, got %v", err)
	}
}
