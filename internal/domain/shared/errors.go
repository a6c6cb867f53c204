// Package shared contains common domain types, errors and events that are used
// across domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation    = errors.New("validation error")
	ErrInvalidID     = errors.New("invalid ID")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidFormat = errors.New("invalid format")

	// State errors
	ErrInvalidState = errors.New("invalid state")
	ErrDeclined     = errors.New("declined by operator")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "student", "grade", "slot"
	Op      string // Operation that failed, e.g., "Load", "Delete"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Gradebook errors
var (
	ErrStudentNotFound    = NewDomainError("student", "Find", ErrNotFound, "student not found")
	ErrAssessmentNotFound = NewDomainError("assessment", "Find", ErrNotFound, "assessment not found")
	ErrGradeNotFound      = NewDomainError("grade", "Find", ErrNotFound, "grade not found")
	ErrDeleteDeclined     = NewDomainError("gradebook", "Delete", ErrDeclined, "deletion was not confirmed")
)

// Persistence errors
var (
	ErrSlotEmpty    = NewDomainError("slot", "Read", ErrNotFound, "durable slot is empty")
	ErrCorruptState = NewDomainError("slot", "Load", ErrInvalidFormat, "persisted state is malformed")
	ErrNotLoaded    = NewDomainError("state", "Save", ErrInvalidState, "state has not been loaded yet")
)

// External service errors
var (
	ErrNarratorUnconfigured = NewDomainError("narrator", "Configure", ErrInvalidInput, "narrator API key is missing")
	ErrNarratorUnavailable  = NewDomainError("narrator", "Request", ErrServiceUnavailable, "narrator service is unavailable")
	ErrNarratorBadResponse  = NewDomainError("narrator", "Parse", ErrInvalidFormat, "invalid response from narrator service")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput)
}

// IsDeclined checks if the operator declined a confirmation gate.
func IsDeclined(err error) bool {
	return errors.Is(err, ErrDeclined)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
