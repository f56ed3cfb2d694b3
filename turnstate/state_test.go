package turnstate

import (
	"testing"
)

func TestTurnState_IsValid(t *testing.T) {
	tests := []struct {
		state TurnState
		valid bool
	}{
		{StateIdle, true},
		{StateStreaming, true},
		{StateApplyingTools, true},
		{StateCheckpointing, true},
		{StateFailed, true},
		{TurnState("invalid"), false},
		{TurnState(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestTurnState_IsBusy(t *testing.T) {
	tests := []struct {
		state TurnState
		busy  bool
	}{
		{StateIdle, false},
		{StateStreaming, true},
		{StateApplyingTools, true},
		{StateCheckpointing, true},
		{StateFailed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsBusy(); got != tt.busy {
				t.Errorf("IsBusy() = %v, want %v", got, tt.busy)
			}
		})
	}
}

func TestTurnState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from  TurnState
		to    TurnState
		valid bool
	}{
		// Valid transitions
		{StateIdle, StateStreaming, true},
		{StateStreaming, StateApplyingTools, true},
		{StateStreaming, StateCheckpointing, true},
		{StateStreaming, StateIdle, true},
		{StateStreaming, StateFailed, true},
		{StateApplyingTools, StateStreaming, true},
		{StateApplyingTools, StateCheckpointing, true},
		{StateApplyingTools, StateFailed, true},
		{StateCheckpointing, StateIdle, true},
		{StateFailed, StateIdle, true},

		// Invalid transitions
		{StateIdle, StateApplyingTools, false},
		{StateIdle, StateCheckpointing, false},
		{StateIdle, StateFailed, false},
		{StateApplyingTools, StateIdle, false},
		{StateCheckpointing, StateStreaming, false},
		{StateCheckpointing, StateFailed, false},
		{StateFailed, StateStreaming, false},

		// Same state is never a transition
		{StateIdle, StateIdle, false},
		{StateStreaming, StateStreaming, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.valid {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestTransition_Validate(t *testing.T) {
	if err := (Transition{From: StateIdle, To: StateStreaming}).Validate(); err != nil {
		t.Errorf("valid transition returned error: %v", err)
	}
	if err := (Transition{From: StateIdle, To: StateFailed}).Validate(); err == nil {
		t.Error("expected error for invalid transition")
	}
	if err := (Transition{From: TurnState("bogus"), To: StateIdle}).Validate(); err == nil {
		t.Error("expected error for invalid source state")
	}
}

func TestValidTransitions_AllValidate(t *testing.T) {
	for _, tr := range ValidTransitions() {
		if err := tr.Validate(); err != nil {
			t.Errorf("transition %s -> %s should validate: %v", tr.From, tr.To, err)
		}
	}
}

func TestTurnState_Scan(t *testing.T) {
	var s TurnState
	if err := s.Scan("streaming"); err != nil {
		t.Fatalf("Scan(string) error: %v", err)
	}
	if s != StateStreaming {
		t.Errorf("Scan(string) = %q, want %q", s, StateStreaming)
	}

	if err := s.Scan([]byte("idle")); err != nil {
		t.Fatalf("Scan([]byte) error: %v", err)
	}
	if s != StateIdle {
		t.Errorf("Scan([]byte) = %q, want %q", s, StateIdle)
	}

	if err := s.Scan("nope"); err == nil {
		t.Error("expected error for unknown state")
	}
	if err := s.Scan(42); err == nil {
		t.Error("expected error for unsupported type")
	}
}
