package toolcall

import "errors"

// Executor errors. Every failure leaves the artifact at its prior
// (version, content); callers match with errors.Is.
var (
	// ErrMalformedEdit is returned when a structured-edit input fails
	// schema validation, references a non-existent block id, or the
	// current workspace content cannot be parsed.
	ErrMalformedEdit = errors.New("malformed edit")

	// ErrInvalidSource is returned when a full-replacement source fails
	// the well-formedness check. Broken code is never committed.
	ErrInvalidSource = errors.New("invalid source")

	// ErrModeMismatch is returned when a tool call belongs to the other
	// session mode. Calls are rejected, never coerced.
	ErrModeMismatch = errors.New("tool does not match session mode")

	// ErrUnknownTool is returned for tool names outside either family.
	ErrUnknownTool = errors.New("unknown tool")
)
