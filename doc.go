// Package vibegame drives AI-assisted 2D game building sessions.
//
// A session owns a single mutable game artifact: a structured block
// workspace in blockly mode, or a flat JavaScript source in javascript
// mode. Each conversational turn streams a model response, applies any
// tool calls it proposes against the artifact with compare-and-set
// writes, and checkpoints the artifact when an edit materially changed
// it. Checkpoints are immutable snapshots; restoring one writes the
// snapshot content as a new artifact version rather than rewinding
// history.
//
// Basic usage:
//
//	client := anthropic.NewClient()
//	engine, err := vibegame.New(storage.NewMemoryStore(), vibegame.Config{
//	    Client: &client,
//	    Model:  "claude-sonnet-4-5-20250929",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session, _ := engine.NewSession(ctx, types.ModeBlockly)
//	result, err := engine.Turn(ctx, session.ID, "make a game where a cat catches fish")
//
// Persistence is pluggable through storage.Store; storage.MemoryStore,
// storage.PostgresStore (pgx), and storage.SQLStore (database/sql) are
// provided.
package vibegame
