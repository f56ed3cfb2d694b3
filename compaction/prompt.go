package compaction

import "github.com/vibegamedev/vibegame/types"

// SummarizationSystemPrompt instructs the summarizer to describe the
// game's current semantics, not its encoding. The summary replaces the
// raw artifact content in the model input, so it must carry everything
// the model needs to reason about the next edit.
const SummarizationSystemPrompt = `You summarize the current state of a 2D game under construction. Your summary replaces the full game definition in a conversation with an AI assistant that edits the game, so it must preserve everything needed to make a correct next edit.

Describe, in this order:

1. **Genre and objective** — what kind of game this is and how the player wins or loses.
2. **Mechanics** — player controls, movement, collisions, spawning, scoring rules.
3. **Key entities** — every named game object (player, enemies, items, UI elements) and its important properties.
4. **State variables** — counters, flags, and timers the game tracks, with their roles.
5. **Structure notes** — identifiers the assistant may need to reference in edits (block ids in block mode, function and variable names in source mode).

Guidelines:

- Be dense and factual; no commentary about code quality.
- Keep identifiers exactly as they appear in the content.
- If a section has no relevant content, write "None".
- Stay under 300 words.`

// BuildSummarizationUserPrompt creates the user message for a
// summarization call over the given artifact content.
func BuildSummarizationUserPrompt(mode types.Mode, content string) string {
	var kind string
	switch mode {
	case types.ModeBlockly:
		kind = "a block-workspace JSON document"
	case types.ModeJavascript:
		kind = "JavaScript source"
	default:
		kind = "a game definition"
	}

	return `Summarize the following game definition (` + kind + `) according to your instructions.

<game_definition>
` + content + `
</game_definition>`
}
