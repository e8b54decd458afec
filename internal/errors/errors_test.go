package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestTypeOf(t *testing.T) {
	tests := []struct {
		err  error
		want Type
	}{
		{NewValidationError("bad field", nil), TypeValidation},
		{NewAnchorNotFoundError("summary"), TypeAnchorNotFound},
		{NewExecutionError("flush failed", nil), TypeExecution},
		{HostUnavailable(), TypeExecution},
		{New("plain"), TypeExecution},
		{fmt.Errorf("wrapped: %w", NewAnchorNotFoundError("x")), TypeAnchorNotFound},
	}
	for _, tt := range tests {
		if got := TypeOf(tt.err); got != tt.want {
			t.Errorf("TypeOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := NewValidationError("too many actions", map[string]any{"field": "actions"})
	if !strings.Contains(err.Error(), "too many actions") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !strings.Contains(err.Error(), "field=actions") {
		t.Errorf("Error() = %q, want details in the message", err.Error())
	}

	bare := NewValidationError("bad", nil)
	if bare.Error() != "validation: bad" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestCategoryIs(t *testing.T) {
	if !Is(NewValidationError("a", nil), &ValidationError{}) {
		t.Error("ValidationError category match failed")
	}
	if !Is(NewAnchorNotFoundError("a"), &AnchorNotFoundError{}) {
		t.Error("AnchorNotFoundError category match failed")
	}
	if Is(NewValidationError("a", nil), &AnchorNotFoundError{}) {
		t.Error("cross-category match succeeded")
	}
}

func TestExecutionErrorUnwrap(t *testing.T) {
	cause := New("io failure")
	err := NewExecutionError("applying op", cause)
	if !Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if !strings.Contains(err.Error(), "io failure") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestHostUnavailable(t *testing.T) {
	err := HostUnavailable()
	if !Is(err, ErrHostUnavailable) {
		t.Error("sentinel not reachable")
	}
	if TypeOf(err) != TypeExecution {
		t.Errorf("TypeOf = %q", TypeOf(err))
	}
}
