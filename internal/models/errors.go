package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a line item lookup matches nothing.
var ErrNotFound = errors.New("line item not found")

// ValidationError reports a missing or malformed field on an inbound form.
// It names the offending field so the front end can highlight it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid form data (%s): %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid form data (%s)", e.Field)
}

// NewValidationError builds a ValidationError for a required field that is
// missing or empty.
func NewValidationError(field string) *ValidationError {
	return &ValidationError{Field: field}
}

// ResolutionError is returned when a custom-targeting key or value name
// cannot be resolved to a platform ID. Kept distinct from generic assembly
// failures so callers can show a targeting-specific message.
type ResolutionError struct {
	Kind string // "key" or "value"
	Name string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve targeting %s %q: %v", e.Kind, e.Name, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// RemoteError wraps a failure from the ad platform, preserving the upstream
// message. Operations are never retried automatically; the first failure is
// surfaced as-is. StatusCode is zero when the request never got a response.
type RemoteError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("line item %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a form validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsResolution reports whether err is a targeting name resolution failure.
func IsResolution(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}
