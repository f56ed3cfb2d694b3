// Package toolcall turns assistant tool invocations into validated
// artifact mutations.
//
// Tool inputs arrive as untyped JSON from the model and are treated as
// untrusted: each input is validated against the tool's schema and
// decoded into a closed set of typed edit variants before any state is
// touched. The tool schemas double as the wire protocol between model
// and executor, so field names and types here must stay stable across
// model-provider swaps.
package toolcall

import (
	"github.com/vibegamedev/vibegame/types"
)

// Tool names, split by session mode. Structured-edit tools are only
// declared to blockly sessions, the replacement tool only to javascript
// sessions.
const (
	ToolAddBlock         = "add_block"
	ToolUpdateBlock      = "update_block"
	ToolRemoveBlock      = "remove_block"
	ToolReplaceWorkspace = "replace_workspace"
	ToolReplaceSource    = "replace_source"
)

// Schema defines the JSON Schema for a tool's input parameters.
type Schema struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	// Type must be "object"
	Type string `json:"type"`

	// Properties defines the tool's parameters
	Properties map[string]PropertyDef `json:"properties"`

	// Required lists the names of required parameters
	Required []string `json:"required,omitempty"`
}

// PropertyDef defines a single property in a tool schema.
type PropertyDef struct {
	// Type is the JSON Schema type (string, number, boolean, array, object)
	Type string `json:"type"`

	// Description explains what this parameter is for
	Description string `json:"description,omitempty"`

	// Enum restricts the parameter to specific values
	Enum []string `json:"enum,omitempty"`

	// Items defines the schema for array items (when Type is "array")
	Items *PropertyDef `json:"items,omitempty"`

	// Properties defines nested object properties (when Type is "object")
	Properties map[string]PropertyDef `json:"properties,omitempty"`

	// Required lists required nested properties (when Type is "object")
	Required []string `json:"required,omitempty"`
}

// blockDef is the schema fragment shared by every tool that carries a
// block record.
func blockDef() PropertyDef {
	return PropertyDef{
		Type:        "object",
		Description: "A single block record",
		Properties: map[string]PropertyDef{
			"id":     {Type: "string", Description: "Stable block identifier, unique within the workspace"},
			"type":   {Type: "string", Description: "Block type, e.g. \"move\", \"on_key\", \"score\""},
			"parent": {Type: "string", Description: "Id of the parent block, if nested"},
			"fields": {Type: "object", Description: "Field values keyed by field name"},
		},
		Required: []string{"id", "type"},
	}
}

// Schemas returns the tool schemas declared to the model for the given
// session mode.
func Schemas(mode types.Mode) []Schema {
	switch mode {
	case types.ModeBlockly:
		return []Schema{
			{
				Name:        ToolAddBlock,
				Description: "Add a new block to the workspace",
				Type:        "object",
				Properties: map[string]PropertyDef{
					"block": blockDef(),
				},
				Required: []string{"block"},
			},
			{
				Name:        ToolUpdateBlock,
				Description: "Update field values on an existing block",
				Type:        "object",
				Properties: map[string]PropertyDef{
					"id":     {Type: "string", Description: "Id of the block to update"},
					"fields": {Type: "object", Description: "Field values to merge; null deletes a field"},
				},
				Required: []string{"id", "fields"},
			},
			{
				Name:        ToolRemoveBlock,
				Description: "Remove a block and every block nested under it",
				Type:        "object",
				Properties: map[string]PropertyDef{
					"id": {Type: "string", Description: "Id of the block to remove"},
				},
				Required: []string{"id"},
			},
			{
				Name:        ToolReplaceWorkspace,
				Description: "Replace the entire workspace with a new block set",
				Type:        "object",
				Properties: map[string]PropertyDef{
					"blocks": {
						Type:        "array",
						Description: "The complete new block set",
						Items:       types.Ptr(blockDef()),
					},
				},
				Required: []string{"blocks"},
			},
		}
	case types.ModeJavascript:
		return []Schema{
			{
				Name:        ToolReplaceSource,
				Description: "Replace the entire game source. Must define update(dt) and draw(ctx).",
				Type:        "object",
				Properties: map[string]PropertyDef{
					"source": {Type: "string", Description: "The complete new source text"},
				},
				Required: []string{"source"},
			},
		}
	default:
		return nil
	}
}

// schemaFor returns the schema for a tool name, and whether the tool
// belongs to the given mode.
func schemaFor(mode types.Mode, name string) (Schema, bool) {
	for _, s := range Schemas(mode) {
		if s.Name == name {
			return s, true
		}
	}
	return Schema{}, false
}

// knownTool reports whether the name belongs to either tool family.
func knownTool(name string) bool {
	switch name {
	case ToolAddBlock, ToolUpdateBlock, ToolRemoveBlock, ToolReplaceWorkspace, ToolReplaceSource:
		return true
	default:
		return false
	}
}
