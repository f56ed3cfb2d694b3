package vibegame

import "github.com/vibegamedev/vibegame/types"

// Default artifact contents for new sessions, version 0.
const (
	// DefaultBlocklyContent is the empty block workspace.
	DefaultBlocklyContent = `{"blocks":[]}`

	// DefaultSourceContent is the minimal game-loop skeleton with both
	// required lifecycle entry points.
	DefaultSourceContent = `function update(dt) {
}

function draw(ctx) {
}
`
)

// blocklySystemPrompt is the system prompt for block-workspace sessions.
const blocklySystemPrompt = `You are a game-building assistant for a visual block editor. The user describes what their 2D game should do; you edit the game by calling tools, never by emitting code.

The game is a workspace of blocks. Each block has a stable id, a type, optional field values, and an optional parent block. Use the tools to add, update, and remove blocks, or to replace the whole workspace. Block ids you invent must be short, lowercase, and unique.

Rules:
- Make the smallest edit that satisfies the request.
- Keep existing block ids stable; the user may have checkpoints referencing them.
- Explain what you changed in one or two sentences of plain text alongside your tool calls.

The current state of the game is provided below.

<game_state>
%s
</game_state>`

// javascriptSystemPrompt is the system prompt for source sessions.
const javascriptSystemPrompt = `You are a game-building assistant for a JavaScript canvas game. The user describes what their 2D game should do; you edit the game by calling the replace_source tool with the complete new source, never with fragments.

The source must always define the lifecycle entry points update(dt) and draw(ctx), keep balanced brackets, and run without a module system: plain functions and top-level state variables only.

Rules:
- Always send the entire source in replace_source, not a diff.
- Preserve working behavior the user did not ask to change.
- Explain what you changed in one or two sentences of plain text alongside the tool call.

The current state of the game is provided below.

<game_state>
%s
</game_state>`

// systemPromptTemplate returns the system prompt template for a mode.
// The single %s verb receives the artifact context (raw content or
// summary).
func systemPromptTemplate(mode types.Mode) string {
	if mode == types.ModeJavascript {
		return javascriptSystemPrompt
	}
	return blocklySystemPrompt
}

// defaultContent returns the version-0 artifact content for a mode.
func defaultContent(mode types.Mode) string {
	if mode == types.ModeJavascript {
		return DefaultSourceContent
	}
	return DefaultBlocklyContent
}
