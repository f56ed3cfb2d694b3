package toolcall

import (
	"encoding/json"
	"fmt"

	"github.com/vibegamedev/vibegame/types"
	"github.com/vibegamedev/vibegame/workspace"
)

// Edit is a validated, typed tool input. The set of implementations is
// closed: one per tool name.
type Edit interface {
	// ToolName returns the wire name of the tool this edit decodes.
	ToolName() string
}

// AddBlock inserts a single block into the workspace.
type AddBlock struct {
	Block workspace.Block
}

func (AddBlock) ToolName() string { return ToolAddBlock }

// UpdateBlock merges field values into an existing block. A nil field
// value deletes that field.
type UpdateBlock struct {
	ID     string
	Fields map[string]any
}

func (UpdateBlock) ToolName() string { return ToolUpdateBlock }

// RemoveBlock removes a block and every block nested under it.
type RemoveBlock struct {
	ID string
}

func (RemoveBlock) ToolName() string { return ToolRemoveBlock }

// ReplaceWorkspace swaps the entire block set atomically.
type ReplaceWorkspace struct {
	Blocks []workspace.Block
}

func (ReplaceWorkspace) ToolName() string { return ToolReplaceWorkspace }

// ReplaceSource replaces the entire source text.
type ReplaceSource struct {
	Source string
}

func (ReplaceSource) ToolName() string { return ToolReplaceSource }

// ParseEdit validates raw tool input against the tool's schema for the
// given mode and decodes it into its typed edit. A tool from the other
// mode's family fails with ErrModeMismatch; a name outside both
// families fails with ErrUnknownTool; anything that fails schema
// validation fails with ErrMalformedEdit.
func ParseEdit(mode types.Mode, name string, input json.RawMessage) (Edit, error) {
	schema, ok := schemaFor(mode, name)
	if !ok {
		if knownTool(name) {
			return nil, fmt.Errorf("%w: %s is not available in %s mode", ErrModeMismatch, name, mode)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	if err := validateInput(schema, input); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedEdit, name, err)
	}

	switch name {
	case ToolAddBlock:
		var payload struct {
			Block blockInput `json:"block"`
		}
		if err := json.Unmarshal(input, &payload); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedEdit, name, err)
		}
		return AddBlock{Block: payload.Block.toBlock()}, nil

	case ToolUpdateBlock:
		var payload struct {
			ID     string         `json:"id"`
			Fields map[string]any `json:"fields"`
		}
		if err := json.Unmarshal(input, &payload); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedEdit, name, err)
		}
		return UpdateBlock{ID: payload.ID, Fields: payload.Fields}, nil

	case ToolRemoveBlock:
		var payload struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(input, &payload); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedEdit, name, err)
		}
		return RemoveBlock{ID: payload.ID}, nil

	case ToolReplaceWorkspace:
		var payload struct {
			Blocks []blockInput `json:"blocks"`
		}
		if err := json.Unmarshal(input, &payload); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedEdit, name, err)
		}
		blocks := make([]workspace.Block, len(payload.Blocks))
		for i, b := range payload.Blocks {
			blocks[i] = b.toBlock()
		}
		return ReplaceWorkspace{Blocks: blocks}, nil

	case ToolReplaceSource:
		var payload struct {
			Source string `json:"source"`
		}
		if err := json.Unmarshal(input, &payload); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedEdit, name, err)
		}
		return ReplaceSource{Source: payload.Source}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

// blockInput mirrors the block schema fragment on the wire.
type blockInput struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Parent string         `json:"parent,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

func (b blockInput) toBlock() workspace.Block {
	return workspace.Block{
		ID:       b.ID,
		Type:     b.Type,
		ParentID: b.Parent,
		Fields:   b.Fields,
	}
}
