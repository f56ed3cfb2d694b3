// Package turnstate provides the state machine definition for
// conversational turns.
//
// A turn is one user message and everything that follows from it: the
// streamed assistant response, any tool applications against the
// artifact, and an optional automatic checkpoint. Each turn progresses
// through the state machine and always returns to idle.
//
// State Machine:
//
//	idle -> streaming                 (user message accepted)
//	streaming -> applying_tools       (tool call intercepted mid-stream)
//	applying_tools -> streaming       (tool resolved, stream continues)
//	streaming -> checkpointing        (stream ended, artifact changed)
//	applying_tools -> checkpointing   (stream ended during tool work)
//	streaming -> idle                 (stream ended, nothing changed)
//	checkpointing -> idle             (checkpoint recorded)
//	streaming -> failed               (unrecoverable error or timeout)
//	applying_tools -> failed          (unrecoverable error or timeout)
//	failed -> idle                    (turn reported to transcript)
//
// Committed artifact mutations are kept on every path, including failed
// and cancelled turns.
package turnstate

import (
	"database/sql/driver"
	"fmt"
)

// TurnState represents the current state of a conversational turn.
type TurnState string

const (
	// StateIdle indicates no turn is in progress for the session.
	StateIdle TurnState = "idle"

	// StateStreaming indicates model output is arriving incrementally.
	StateStreaming TurnState = "streaming"

	// StateApplyingTools indicates an intercepted tool call is being
	// validated and applied to the artifact.
	StateApplyingTools TurnState = "applying_tools"

	// StateCheckpointing indicates the turn materially changed the
	// artifact and a checkpoint is being recorded.
	StateCheckpointing TurnState = "checkpointing"

	// StateFailed indicates the turn hit an unrecoverable error. Any
	// mutations already committed stay committed.
	StateFailed TurnState = "failed"
)

// AllStates returns all possible turn states.
func AllStates() []TurnState {
	return []TurnState{
		StateIdle,
		StateStreaming,
		StateApplyingTools,
		StateCheckpointing,
		StateFailed,
	}
}

// IsValid returns true if the state is a valid TurnState value.
func (s TurnState) IsValid() bool {
	switch s {
	case StateIdle, StateStreaming, StateApplyingTools, StateCheckpointing, StateFailed:
		return true
	default:
		return false
	}
}

// IsBusy returns true if a turn is actively running in this state.
// A session accepts a new user message only when not busy.
func (s TurnState) IsBusy() bool {
	switch s {
	case StateStreaming, StateApplyingTools, StateCheckpointing:
		return true
	default:
		return false
	}
}

// CanTransitionTo returns true if a transition from this state to the
// target state is valid.
func (s TurnState) CanTransitionTo(target TurnState) bool {
	if s == target {
		return false
	}

	switch s {
	case StateIdle:
		return target == StateStreaming
	case StateStreaming:
		return target == StateApplyingTools || target == StateCheckpointing ||
			target == StateIdle || target == StateFailed
	case StateApplyingTools:
		return target == StateStreaming || target == StateCheckpointing ||
			target == StateFailed
	case StateCheckpointing:
		return target == StateIdle
	case StateFailed:
		return target == StateIdle
	}

	return false
}

// String returns the string representation of the state.
func (s TurnState) String() string {
	return string(s)
}

// Value implements driver.Valuer for database serialization.
func (s TurnState) Value() (driver.Value, error) {
	return string(s), nil
}

// Scan implements sql.Scanner for database deserialization.
func (s *TurnState) Scan(src any) error {
	switch v := src.(type) {
	case string:
		state := TurnState(v)
		if !state.IsValid() {
			return fmt.Errorf("turnstate: invalid state %q", v)
		}
		*s = state
		return nil
	case []byte:
		state := TurnState(v)
		if !state.IsValid() {
			return fmt.Errorf("turnstate: invalid state %q", v)
		}
		*s = state
		return nil
	default:
		return fmt.Errorf("turnstate: cannot scan type %T into TurnState", src)
	}
}

// Transition represents a state transition with validation.
type Transition struct {
	From TurnState
	To   TurnState
}

// Validate returns an error if the transition is invalid.
func (t Transition) Validate() error {
	if !t.From.IsValid() {
		return fmt.Errorf("turnstate: invalid source state %q", t.From)
	}
	if !t.To.IsValid() {
		return fmt.Errorf("turnstate: invalid target state %q", t.To)
	}
	if !t.From.CanTransitionTo(t.To) {
		return fmt.Errorf("turnstate: invalid transition from %q to %q", t.From, t.To)
	}
	return nil
}

// ValidTransitions returns all valid state transitions.
func ValidTransitions() []Transition {
	return []Transition{
		// From idle
		{From: StateIdle, To: StateStreaming},
		// From streaming
		{From: StateStreaming, To: StateApplyingTools},
		{From: StateStreaming, To: StateCheckpointing},
		{From: StateStreaming, To: StateIdle},
		{From: StateStreaming, To: StateFailed},
		// From applying_tools
		{From: StateApplyingTools, To: StateStreaming},
		{From: StateApplyingTools, To: StateCheckpointing},
		{From: StateApplyingTools, To: StateFailed},
		// From checkpointing
		{From: StateCheckpointing, To: StateIdle},
		// From failed
		{From: StateFailed, To: StateIdle},
	}
}
