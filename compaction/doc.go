// Package compaction bounds the artifact context sent to the model each
// turn.
//
// Small artifact content is passed through raw for fidelity. Once the
// content crosses a configured size threshold, the compactor substitutes
// a short natural-language summary of the game's current semantics,
// regenerating it whenever the artifact version moves past the version
// the last summary was computed against, or when the summary grows too
// old in turns. The summary is derived state: it is never the source of
// truth and a failed summarization degrades to a fixed placeholder
// instead of blocking the turn.
package compaction
