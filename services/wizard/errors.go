package wizard

import "fmt"

// ValidationError reports a step-gate failure. It is an expected, frequent
// condition: the caller keeps the user on the current step and points at the
// missing field.
type ValidationError struct {
	Step  int
	Field string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("step %d is not valid", e.Step)
	}
	return fmt.Sprintf("step %d is not valid: missing %s", e.Step, e.Field)
}

func NewValidationError(step int, field string) error {
	return &ValidationError{Step: step, Field: field}
}

// ConflictError means the requested slot is unavailable, whether detected by
// the advisory probe or by the authoritative submission-time re-check.
type ConflictError struct {
	Date string
	Time string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot %s %s is already booked", e.Date, e.Time)
}

// TransportError wraps a network or service failure during an external call.
// It must never be read as "no conflict".
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SubmissionError means the conflict re-check passed but the commit was not
// confirmed. The draft is preserved; retry is safe because the creation call
// carries the draft's idempotency key.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("reservation submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// UnknownOptionError reports a selection id that did not resolve against the
// catalogs. A client-side problem, not a session or server fault.
type UnknownOptionError struct {
	Field string
	ID    string
	Err   error
}

func (e *UnknownOptionError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Field, e.ID)
}

func (e *UnknownOptionError) Unwrap() error { return e.Err }

// InvalidTransitionError reports a state machine operation that is not legal
// from the current state.
type InvalidTransitionError struct {
	From State
	Op   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s from state %s", e.Op, e.From)
}
