// Package model is the boundary to the model provider. The orchestrator
// speaks the Client and Stream interfaces only; the Anthropic
// implementations live here so a provider swap never touches the turn
// logic.
package model

import (
	"context"

	"github.com/vibegamedev/vibegame/streaming"
	"github.com/vibegamedev/vibegame/toolcall"
	"github.com/vibegamedev/vibegame/types"
)

// Message is one entry of the conversational context sent to the model.
type Message struct {
	Role types.Role
	Text string
}

// Request is an assembled model invocation: a mode-specific system
// prompt, the message context, and the declared tool schemas.
type Request struct {
	System      string
	Messages    []Message
	Tools       []toolcall.Schema
	MaxTokens   int
	Temperature *float64
}

// Stream yields typed events from an in-flight model response. Recv
// returns io.EOF when the response is complete; cancellation of the
// request context surfaces as the context's error.
type Stream interface {
	Recv() (streaming.Event, error)
	Close() error
}

// Client starts model invocations.
type Client interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}
