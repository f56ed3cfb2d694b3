// Package workspace implements the structured block-workspace artifact
// model used by blockly-mode sessions.
//
// Blocks are kept as a flat, insertion-ordered collection of records
// keyed by stable id. Parent/child relations are expressed as id
// references rather than nested ownership, which keeps every structured
// edit an O(1) lookup and rules out ownership cycles in the serialized
// form.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Package errors returned by workspace operations.
var (
	// ErrBlockNotFound is returned when an edit references an id that
	// does not exist in the workspace.
	ErrBlockNotFound = errors.New("block not found")

	// ErrDuplicateBlock is returned when adding a block whose id is
	// already present.
	ErrDuplicateBlock = errors.New("duplicate block id")

	// ErrUnknownParent is returned when a block references a parent id
	// that does not exist.
	ErrUnknownParent = errors.New("unknown parent block")

	// ErrInvalidBlock is returned when a block record is structurally
	// invalid (missing id or type).
	ErrInvalidBlock = errors.New("invalid block")

	// ErrMalformedContent is returned when the serialized workspace
	// cannot be parsed.
	ErrMalformedContent = errors.New("malformed workspace content")
)

// Block is a single block record. Fields holds the block's editable
// field values (sprite names, coordinates, expressions) as loose JSON.
type Block struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	ParentID string         `json:"parent,omitempty"`
	Fields   map[string]any `json:"fields,omitempty"`
}

// validate checks the block record itself, not its relations.
func (b *Block) validate() error {
	if b.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidBlock)
	}
	if b.Type == "" {
		return fmt.Errorf("%w: block %q has no type", ErrInvalidBlock, b.ID)
	}
	return nil
}

// envelope is the serialized workspace form: {"blocks":[...]}.
type envelope struct {
	Blocks []Block `json:"blocks"`
}

// Workspace is an in-memory, mutable view of a block workspace.
// Insertion order is preserved across serialize/parse round-trips so
// that replaying the same edit sequence reproduces identical content.
type Workspace struct {
	blocks []Block
	index  map[string]int
}

// New returns an empty workspace.
func New() *Workspace {
	return &Workspace{index: make(map[string]int)}
}

// Parse decodes serialized workspace content. It fails with
// ErrMalformedContent wrapping the cause if the content is not a valid
// workspace document.
func Parse(content string) (*Workspace, error) {
	var env envelope
	if err := json.Unmarshal([]byte(content), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}

	w := New()
	for _, b := range env.Blocks {
		if err := b.validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedContent, err)
		}
		if _, ok := w.index[b.ID]; ok {
			return nil, fmt.Errorf("%w: %v: %s", ErrMalformedContent, ErrDuplicateBlock, b.ID)
		}
		w.index[b.ID] = len(w.blocks)
		w.blocks = append(w.blocks, b)
	}

	// Parents are checked after the full set is indexed, so forward
	// references in the serialized order are accepted.
	for _, b := range w.blocks {
		if b.ParentID == "" {
			continue
		}
		if _, ok := w.index[b.ParentID]; !ok {
			return nil, fmt.Errorf("%w: %v: block %s references %s", ErrMalformedContent, ErrUnknownParent, b.ID, b.ParentID)
		}
	}

	return w, nil
}

// Serialize encodes the workspace back to its canonical content form.
func (w *Workspace) Serialize() (string, error) {
	env := envelope{Blocks: w.blocks}
	if env.Blocks == nil {
		env.Blocks = []Block{}
	}
	data, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Len returns the number of blocks.
func (w *Workspace) Len() int {
	return len(w.blocks)
}

// Get returns the block with the given id.
func (w *Workspace) Get(id string) (Block, bool) {
	i, ok := w.index[id]
	if !ok {
		return Block{}, false
	}
	return w.blocks[i], true
}

// Add inserts a new block. The id must be unused and the parent, if
// set, must already exist.
func (w *Workspace) Add(b Block) error {
	if err := b.validate(); err != nil {
		return err
	}
	if _, ok := w.index[b.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateBlock, b.ID)
	}
	if b.ParentID != "" {
		if _, ok := w.index[b.ParentID]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownParent, b.ParentID)
		}
	}
	w.index[b.ID] = len(w.blocks)
	w.blocks = append(w.blocks, b)
	return nil
}

// Update merges field values into an existing block. Only fields present
// in the input are touched; a nil field value deletes that field.
func (w *Workspace) Update(id string, fields map[string]any) error {
	i, ok := w.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}

	b := &w.blocks[i]
	if b.Fields == nil && len(fields) > 0 {
		b.Fields = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		if v == nil {
			delete(b.Fields, k)
			continue
		}
		b.Fields[k] = v
	}
	return nil
}

// Remove deletes a block and, transitively, every block parented under it.
func (w *Workspace) Remove(id string) error {
	if _, ok := w.index[id]; !ok {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}

	doomed := map[string]bool{id: true}
	// Children may appear in any order, so sweep until stable.
	for changed := true; changed; {
		changed = false
		for _, b := range w.blocks {
			if doomed[b.ID] || b.ParentID == "" {
				continue
			}
			if doomed[b.ParentID] {
				doomed[b.ID] = true
				changed = true
			}
		}
	}

	kept := w.blocks[:0]
	for _, b := range w.blocks {
		if !doomed[b.ID] {
			kept = append(kept, b)
		}
	}
	w.blocks = kept
	w.reindex()
	return nil
}

// ReplaceAll swaps the entire block set after validating it as a whole.
// On any validation failure the workspace is left unchanged.
func (w *Workspace) ReplaceAll(blocks []Block) error {
	index := make(map[string]int, len(blocks))
	for i, b := range blocks {
		if err := b.validate(); err != nil {
			return err
		}
		if _, ok := index[b.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateBlock, b.ID)
		}
		index[b.ID] = i
	}
	for _, b := range blocks {
		if b.ParentID == "" {
			continue
		}
		if _, ok := index[b.ParentID]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownParent, b.ParentID)
		}
	}

	w.blocks = append([]Block(nil), blocks...)
	w.reindex()
	return nil
}

func (w *Workspace) reindex() {
	w.index = make(map[string]int, len(w.blocks))
	for i, b := range w.blocks {
		w.index[b.ID] = i
	}
}
