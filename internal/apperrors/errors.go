// Package apperrors defines the error kinds surfaced by the availability
// subsystem. Validation failures name the offending field, conflicts carry
// the reason of the record they collided with, and missing rows map to
// ErrNotFound. Reads of hours/policy never produce ErrNotFound because both
// are defaulted lazily; only explicit update/delete on a missing row does.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an update or delete targets a row that does
// not exist for the organization.
var ErrNotFound = errors.New("not found")

// ValidationError reports invalid caller input. Recoverable by correcting
// the named field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validation builds a ValidationError for a field.
func Validation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports a collision with existing data, e.g. an exception
// whose date range intersects another one. Surfaced distinctly from
// validation so callers can offer "view/replace existing" flows.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	if e.Reason == "" {
		return "conflict with existing record"
	}
	return fmt.Sprintf("conflict with existing record: %s", e.Reason)
}

// Conflict builds a ConflictError.
func Conflict(format string, args ...any) *ConflictError {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
