// Package ui provides an embedded read-only web view of game-building
// sessions: the session list, per-session transcripts with tool-call
// outcomes, and checkpoints.
//
// Assistant messages are markdown; they are rendered to HTML and
// sanitized before display, since model output is untrusted.
//
// # Quick Start
//
//	store := storage.NewMemoryStore()
//	mux := http.NewServeMux()
//	mux.Handle("/ui/", http.StripPrefix("/ui", ui.Handler(store, nil)))
//	http.ListenAndServe(":8080", mux)
//
// The handler is a standard http.Handler and composes with any router
// or middleware chain.
package ui
