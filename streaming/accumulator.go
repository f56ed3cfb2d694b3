package streaming

import (
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// Accumulator accumulates raw provider stream events and emits typed
// events as soon as they are actionable.
type Accumulator struct {
	text       strings.Builder
	stopReason string
	stopped    bool

	// Content blocks still being streamed, keyed by block index.
	currentBlocks map[int]*contentBlock
}

// contentBlock is a provider content block under accumulation.
type contentBlock struct {
	blockType string
	toolID    string
	toolName  string
	toolInput strings.Builder
}

// NewAccumulator creates a new stream accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		currentBlocks: make(map[int]*contentBlock),
	}
}

// Process consumes one event from the Anthropic streaming API and
// returns any typed events it completes. Text deltas produce an event
// per fragment; a tool call produces exactly one event, at the stop of
// its content block when the input JSON is complete.
func (a *Accumulator) Process(event anthropic.MessageStreamEventUnion) []Event {
	switch e := event.AsAny().(type) {
	case anthropic.ContentBlockStartEvent:
		block := &contentBlock{}

		switch content := e.ContentBlock.AsAny().(type) {
		case anthropic.TextBlock:
			block.blockType = "text"
			if content.Text != "" {
				a.text.WriteString(content.Text)
				a.currentBlocks[int(e.Index)] = block
				return []Event{&TextDeltaEvent{Delta: content.Text}}
			}

		case anthropic.ToolUseBlock:
			block.blockType = "tool_use"
			block.toolID = content.ID
			block.toolName = content.Name
		}

		a.currentBlocks[int(e.Index)] = block

	case anthropic.ContentBlockDeltaEvent:
		block, exists := a.currentBlocks[int(e.Index)]
		if !exists {
			return nil
		}

		switch delta := e.Delta.AsAny().(type) {
		case anthropic.TextDelta:
			a.text.WriteString(delta.Text)
			return []Event{&TextDeltaEvent{Delta: delta.Text}}

		case anthropic.InputJSONDelta:
			block.toolInput.WriteString(delta.PartialJSON)
		}

	case anthropic.ContentBlockStopEvent:
		if ev := a.stopBlock(int(e.Index)); ev != nil {
			return []Event{ev}
		}

	case anthropic.MessageDeltaEvent:
		a.stopReason = string(e.Delta.StopReason)

	case anthropic.MessageStopEvent:
		a.stopped = true
		return []Event{&MessageStopEvent{StopReason: a.stopReason}}

	default:
		// Ignore message_start, ping, and unknown events.
	}

	return nil
}

// stopBlock finishes the block at index and returns the tool-call
// event it completes, if any.
func (a *Accumulator) stopBlock(index int) Event {
	block, exists := a.currentBlocks[index]
	if !exists {
		return nil
	}
	delete(a.currentBlocks, index)

	if block.blockType != "tool_use" {
		return nil
	}

	input := block.toolInput.String()
	if input == "" {
		input = "{}"
	}
	return &ToolCallEvent{
		ID:    block.toolID,
		Name:  block.toolName,
		Input: json.RawMessage(input),
	}
}

// Text returns the assistant text accumulated so far. Valid mid-stream;
// after cancellation it holds the partial message.
func (a *Accumulator) Text() string {
	return a.text.String()
}

// StopReason returns the provider stop reason, empty until the message
// delta carrying it arrives.
func (a *Accumulator) StopReason() string {
	return a.stopReason
}

// Stopped reports whether the message stop event was seen.
func (a *Accumulator) Stopped() bool {
	return a.stopped
}
