// Package errors defines the error taxonomy shared by the validator, anchor
// resolver, and both execution engines. All errors are non-retryable by
// default; callers decide whether to retry, typically by asking the planner
// to regenerate the plan.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library helpers so callers can import only this package.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
)

// ErrHostUnavailable indicates the Document Host capability surface does not
// exist in the current environment. Every entry point checks for this
// condition before attempting any host call.
var ErrHostUnavailable = New("document host unavailable")

// Type identifies an error category in structured results.
type Type string

const (
	TypeValidation     Type = "validation"
	TypeAnchorNotFound Type = "anchor_not_found"
	TypeExecution      Type = "execution_failed"
)

// ValidationError reports a schema or semantic violation in an incoming plan.
// It is always surfaced before any document mutation is attempted.
type ValidationError struct {
	Message string
	// Details holds machine-readable context for the first violation found,
	// e.g. {"field": "actions[2].blocks", "max": 100}.
	Details map[string]any
}

// NewValidationError creates a ValidationError with optional details.
func NewValidationError(message string, details map[string]any) *ValidationError {
	return &ValidationError{Message: message, Details: details}
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return "validation: " + e.Message
	}
	parts := make([]string, 0, len(e.Details))
	for k, v := range e.Details {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return fmt.Sprintf("validation: %s [%s]", e.Message, strings.Join(parts, ", "))
}

// Is reports a match against any other *ValidationError, enabling
// errors.Is(err, &ValidationError{}) category checks.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// AnchorNotFoundError reports that every resolution strategy failed for an
// anchor. The unresolved anchor string is preserved for caller diagnostics.
type AnchorNotFoundError struct {
	Anchor string
}

func NewAnchorNotFoundError(anchor string) *AnchorNotFoundError {
	return &AnchorNotFoundError{Anchor: anchor}
}

func (e *AnchorNotFoundError) Error() string {
	return fmt.Sprintf("anchor %q not found in document", e.Anchor)
}

func (e *AnchorNotFoundError) Is(target error) bool {
	_, ok := target.(*AnchorNotFoundError)
	return ok
}

// ExecutionError reports a failed plan action or semantic operation. Prior
// mutations are not rolled back; the caller must treat the document as
// partially modified.
type ExecutionError struct {
	Message string
	Cause   error
}

func NewExecutionError(message string, cause error) *ExecutionError {
	return &ExecutionError{Message: message, Cause: cause}
}

func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("execution: %s: %v", e.Message, e.Cause)
	}
	return "execution: " + e.Message
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

func (e *ExecutionError) Is(target error) bool {
	if _, ok := target.(*ExecutionError); ok {
		return true
	}
	return false
}

// HostUnavailable wraps ErrHostUnavailable in an ExecutionError, the form in
// which the condition crosses every public entry point.
func HostUnavailable() *ExecutionError {
	return NewExecutionError("no document host in current environment", ErrHostUnavailable)
}

// TypeOf classifies err into the taxonomy for structured results. Unknown
// errors classify as execution failures.
func TypeOf(err error) Type {
	var ve *ValidationError
	if As(err, &ve) {
		return TypeValidation
	}
	var ae *AnchorNotFoundError
	if As(err, &ae) {
		return TypeAnchorNotFound
	}
	return TypeExecution
}
