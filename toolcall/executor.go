package toolcall

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vibegamedev/vibegame/source"
	"github.com/vibegamedev/vibegame/storage"
	"github.com/vibegamedev/vibegame/types"
	"github.com/vibegamedev/vibegame/workspace"
)

// Call is a single tool invocation emitted by the model.
type Call struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// Result is the outcome of an accepted tool application.
type Result struct {
	// Artifact is the post-application artifact state.
	Artifact *types.Artifact

	// Changed reports whether the content actually differs from the
	// prior version. A no-op edit still advances the version.
	Changed bool
}

// Executor applies validated tool calls to a session's artifact with a
// compare-and-swap write per call.
type Executor struct {
	store storage.Store
}

// NewExecutor returns an executor backed by the given store.
func NewExecutor(store storage.Store) *Executor {
	return &Executor{store: store}
}

// Apply validates the call for the session's mode, applies the edit to
// the current artifact content, and writes the result with a CAS on
// the version read at the start. On any validation or application
// failure the artifact is left byte-for-byte identical at its prior
// version. A concurrent write surfaces as storage.ErrVersionConflict;
// callers retry against the refreshed artifact.
func (e *Executor) Apply(ctx context.Context, sessionID string, mode types.Mode, call Call) (*Result, error) {
	edit, err := ParseEdit(mode, call.Name, call.Input)
	if err != nil {
		return nil, err
	}

	current, err := e.store.GetArtifact(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	next, err := applyEdit(edit, current.Content)
	if err != nil {
		return nil, err
	}

	updated, err := e.store.PutArtifact(ctx, sessionID, current.Version, next)
	if err != nil {
		return nil, err
	}

	return &Result{Artifact: updated, Changed: next != current.Content}, nil
}

// applyEdit produces the new artifact content for an edit against the
// current content, without touching storage.
func applyEdit(edit Edit, content string) (string, error) {
	switch ed := edit.(type) {
	case ReplaceSource:
		if err := source.Validate(ed.Source); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidSource, err)
		}
		return ed.Source, nil

	case AddBlock:
		ws, err := parseWorkspace(content)
		if err != nil {
			return "", err
		}
		if err := ws.Add(ed.Block); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedEdit, err)
		}
		return serializeWorkspace(ws)

	case UpdateBlock:
		ws, err := parseWorkspace(content)
		if err != nil {
			return "", err
		}
		if err := ws.Update(ed.ID, ed.Fields); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedEdit, err)
		}
		return serializeWorkspace(ws)

	case RemoveBlock:
		ws, err := parseWorkspace(content)
		if err != nil {
			return "", err
		}
		if err := ws.Remove(ed.ID); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedEdit, err)
		}
		return serializeWorkspace(ws)

	case ReplaceWorkspace:
		ws := workspace.New()
		if err := ws.ReplaceAll(ed.Blocks); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedEdit, err)
		}
		return serializeWorkspace(ws)
	}

	return "", fmt.Errorf("%w: %s", ErrUnknownTool, edit.ToolName())
}

func parseWorkspace(content string) (*workspace.Workspace, error) {
	ws, err := workspace.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: current workspace content: %v", ErrMalformedEdit, err)
	}
	return ws, nil
}

func serializeWorkspace(ws *workspace.Workspace) (string, error) {
	out, err := ws.Serialize()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedEdit, err)
	}
	return out, nil
}
