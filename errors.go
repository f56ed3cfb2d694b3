package vibegame

import (
	"errors"
	"fmt"

	"github.com/vibegamedev/vibegame/storage"
	"github.com/vibegamedev/vibegame/toolcall"
)

// Common errors
var (
	// ErrInvalidConfig is returned when the engine configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrTurnInProgress is returned when a turn is started while another
	// turn is still running for the same session
	ErrTurnInProgress = errors.New("turn already in progress")

	// ErrTurnFailed is returned when a turn ends in the failed state
	ErrTurnFailed = errors.New("turn failed")

	// =========================================================================
	// Re-exported storage errors
	// =========================================================================

	// ErrSessionNotFound is returned when a session does not exist
	ErrSessionNotFound = storage.ErrSessionNotFound

	// ErrVersionConflict is returned when a compare-and-set artifact
	// write lost to a concurrent writer even after the automatic retry
	ErrVersionConflict = storage.ErrVersionConflict

	// ErrCheckpointNotFound is returned when a checkpoint does not exist
	ErrCheckpointNotFound = storage.ErrCheckpointNotFound

	// =========================================================================
	// Re-exported tool errors
	// =========================================================================

	// ErrMalformedEdit is returned for structured edits that fail
	// validation or reference unknown blocks
	ErrMalformedEdit = toolcall.ErrMalformedEdit

	// ErrInvalidSource is returned for source replacements that fail the
	// well-formedness check
	ErrInvalidSource = toolcall.ErrInvalidSource

	// ErrModeMismatch is returned for tool calls from the wrong mode family
	ErrModeMismatch = toolcall.ErrModeMismatch
)

// SessionError represents an error with additional context
type SessionError struct {
	Op        string         // Operation that failed
	Err       error          // Underlying error
	SessionID string         // Session ID if applicable
	Context   map[string]any // Additional context
}

// Error implements the error interface
func (e *SessionError) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("%s (session=%s): %v", e.Op, e.SessionID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *SessionError) Unwrap() error {
	return e.Err
}

// WithContext adds additional context to the error
func (e *SessionError) WithContext(key string, value any) *SessionError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// NewSessionError creates a new SessionError
func NewSessionError(op string, err error) *SessionError {
	return &SessionError{
		Op:  op,
		Err: err,
	}
}

// NewSessionErrorWithSession creates a new SessionError with session ID
func NewSessionErrorWithSession(op string, sessionID string, err error) *SessionError {
	return &SessionError{
		Op:        op,
		Err:       err,
		SessionID: sessionID,
	}
}
