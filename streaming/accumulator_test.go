package streaming

import (
	"testing"
)

func TestStopBlock_ToolInput(t *testing.T) {
	tests := []struct {
		name         string
		toolInputStr string
		wantRaw      string
	}{
		{
			name:         "empty tool input defaults to empty object",
			toolInputStr: "",
			wantRaw:      "{}",
		},
		{
			name:         "accumulated tool input preserved",
			toolInputStr: `{"block":{"id":"b1","type":"move"}}`,
			wantRaw:      `{"block":{"id":"b1","type":"move"}}`,
		},
		{
			name:         "empty object input preserved",
			toolInputStr: "{}",
			wantRaw:      "{}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := NewAccumulator()

			block := &contentBlock{
				blockType: "tool_use",
				toolID:    "call-1",
				toolName:  "add_block",
			}
			block.toolInput.WriteString(tt.toolInputStr)
			acc.currentBlocks[0] = block

			ev := acc.stopBlock(0)
			call, ok := ev.(*ToolCallEvent)
			if !ok {
				t.Fatalf("expected ToolCallEvent, got %T", ev)
			}

			if call.ID != "call-1" || call.Name != "add_block" {
				t.Errorf("tool identity lost: %+v", call)
			}
			if string(call.Input) != tt.wantRaw {
				t.Errorf("Input = %q, want %q", string(call.Input), tt.wantRaw)
			}
			if len(acc.currentBlocks) != 0 {
				t.Error("block not removed after stop")
			}
		})
	}
}

func TestStopBlock_TextBlockEmitsNoEvent(t *testing.T) {
	acc := NewAccumulator()
	acc.currentBlocks[0] = &contentBlock{blockType: "text"}

	if ev := acc.stopBlock(0); ev != nil {
		t.Errorf("expected no event for text block stop, got %T", ev)
	}
}

func TestStopBlock_UnknownIndex(t *testing.T) {
	acc := NewAccumulator()
	if ev := acc.stopBlock(3); ev != nil {
		t.Errorf("expected no event for unknown index, got %T", ev)
	}
}

func TestTextAccumulation(t *testing.T) {
	acc := NewAccumulator()
	acc.text.WriteString("I added ")
	acc.text.WriteString("a move block.")

	if got := acc.Text(); got != "I added a move block." {
		t.Errorf("Text() = %q", got)
	}
}

func TestEventTypes(t *testing.T) {
	tests := []struct {
		event Event
		want  EventType
	}{
		{&TextDeltaEvent{Delta: "hi"}, EventTypeTextDelta},
		{&ToolCallEvent{Name: "add_block"}, EventTypeToolCall},
		{&MessageStopEvent{StopReason: "end_turn"}, EventTypeMessageStop},
	}
	for _, tt := range tests {
		if got := tt.event.Type(); got != tt.want {
			t.Errorf("%T.Type() = %q, want %q", tt.event, got, tt.want)
		}
	}
}
