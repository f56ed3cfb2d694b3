package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vibegamedev/vibegame/storage"
	"github.com/vibegamedev/vibegame/types"
)

func seedSession(t *testing.T, store storage.Store) *types.Session {
	t.Helper()
	ctx := context.Background()

	session := &types.Session{Mode: types.ModeBlockly, Title: "jump game"}
	artifact := &types.Artifact{Mode: types.ModeBlockly, Content: `{"blocks":[]}`, Version: 0}
	if err := store.CreateSession(ctx, session, artifact); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if _, err := store.AddMessage(ctx, &types.Message{
		SessionID: session.ID,
		Role:      types.RoleUser,
		Text:      "add a player sprite",
	}); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}
	if _, err := store.AddMessage(ctx, &types.Message{
		SessionID: session.ID,
		Role:      types.RoleAssistant,
		Text:      "Added a **player** sprite.",
		ToolCalls: []types.ToolCallRecord{
			{ID: "t1", Name: "add_block", Status: types.ToolCallOK, Changed: true},
		},
	}); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}

	if _, err := store.AddCheckpoint(ctx, &types.Checkpoint{
		SessionID:       session.ID,
		Label:           "add a player sprite",
		MessagePosition: 1,
		Snapshot:        types.Artifact{Mode: types.ModeBlockly, Content: `{"blocks":[]}`, Version: 1},
	}); err != nil {
		t.Fatalf("AddCheckpoint failed: %v", err)
	}

	return session
}

func TestHandlerServesTranscript(t *testing.T) {
	store := storage.NewMemoryStore()
	session := seedSession(t, store)

	h := Handler(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+session.ID, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()

	if !strings.Contains(body, "jump game") {
		t.Error("Expected session title in page")
	}
	if !strings.Contains(body, "<strong>player</strong>") {
		t.Error("Expected assistant markdown to render")
	}
	if !strings.Contains(body, "add_block: ok") {
		t.Error("Expected tool call line in page")
	}
	if !strings.Contains(body, "snapshot v1") {
		t.Error("Expected checkpoint listing in page")
	}
}

func TestHandlerSessionNotFound(t *testing.T) {
	h := Handler(storage.NewMemoryStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/sessions/missing", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
}

func TestHandlerSessionList(t *testing.T) {
	store := storage.NewMemoryStore()
	session := seedSession(t, store)

	h := Handler(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, session.ID) {
		t.Error("Expected session link in listing")
	}
	if !strings.Contains(body, "jump game") {
		t.Error("Expected session title in listing")
	}
}
