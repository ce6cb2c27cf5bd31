package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput signals malformed client input rejected before any upstream call.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyExists signals a duplicate contribution.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUpstreamUnavailable signals a store, storage or fetch failure.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrNotConfigured signals an optional integration without credentials.
	ErrNotConfigured = errors.New("not configured")
	// ErrUnsupportedMedia signals a download that is not an image.
	ErrUnsupportedMedia = errors.New("unsupported media type")
)

// FieldError wraps ErrInvalidInput with the offending field name.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidInput.Error(), e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrInvalidInput }

// NewFieldError creates a validation error for a single field.
func NewFieldError(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}
