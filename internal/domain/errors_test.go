package domain

import (
	"errors"
	"testing"
)

func TestFieldError(t *testing.T) {
	err := NewFieldError("title", "required")
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("FieldError must unwrap to ErrInvalidInput")
	}
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "title" {
		t.Errorf("errors.As failed: %v", err)
	}
	if got := err.Error(); got != "invalid input: title: required" {
		t.Errorf("Error() = %q", got)
	}
}
