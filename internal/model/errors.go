package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an order, invoice or settings row does not exist
	ErrNotFound = errors.New("efatura: not found")

	// ErrNotConfigured is returned when e-Fatura is missing or disabled for a business
	ErrNotConfigured = errors.New("efatura: not configured")

	// ErrConflict is returned when an order already has an invoice
	ErrConflict = errors.New("efatura: conflict")

	// ErrInvalidTransition is returned when a lifecycle action is not allowed
	// from the invoice's current status
	ErrInvalidTransition = errors.New("efatura: invalid status transition")

	// ErrValidation marks rejected input
	ErrValidation = errors.New("efatura: validation failed")

	// ErrPortal is returned when the GIB portal refuses or fails a request
	ErrPortal = errors.New("efatura: portal request failed")
)

// ServiceError is a user-actionable failure from the assembly service.
// Kind is one of the sentinels above and is matched by errors.Is.
type ServiceError struct {
	Kind    error
	Field   string
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%v: %s (%v)", e.Kind, msg, e.Cause)
	}
	return fmt.Sprintf("%v: %s", e.Kind, msg)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// Is matches the error kind so errors.Is(err, ErrConflict) works
// regardless of the wrapped cause.
func (e *ServiceError) Is(target error) bool {
	return e.Kind == target
}

// NewNotFoundError reports a missing entity
func NewNotFoundError(field, message string) *ServiceError {
	return &ServiceError{Kind: ErrNotFound, Field: field, Message: message}
}

// NewNotConfiguredError reports missing or disabled settings
func NewNotConfiguredError(message string) *ServiceError {
	return &ServiceError{Kind: ErrNotConfigured, Field: "settings", Message: message}
}

// NewConflictError reports a duplicate invoice
func NewConflictError(field, message string, cause error) *ServiceError {
	return &ServiceError{Kind: ErrConflict, Field: field, Message: message, Cause: cause}
}

// NewTransitionError reports a forbidden status change
func NewTransitionError(from, to GIBStatus) *ServiceError {
	return &ServiceError{
		Kind:    ErrInvalidTransition,
		Field:   "gibStatus",
		Message: fmt.Sprintf("cannot move from %s to %s", from, to),
	}
}

// NewPortalFailure reports a failed portal call. Field carries the portal
// error code when there is one.
func NewPortalFailure(code, message string, cause error) *ServiceError {
	return &ServiceError{Kind: ErrPortal, Field: code, Message: message, Cause: cause}
}

// NewServiceValidationError wraps a rejected input
func NewServiceValidationError(field, message string, cause error) *ServiceError {
	return &ServiceError{Kind: ErrValidation, Field: field, Message: message, Cause: cause}
}

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation failed on %s: %s (value=%v, rule=%s)", e.Field, e.Message, e.Value, e.Rule)
	}
	return fmt.Sprintf("validation failed on %s: %s (rule=%s)", e.Field, e.Message, e.Rule)
}

// Is lets errors.Is(err, ErrValidation) match field-level failures
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, rule, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Rule:    rule,
		Message: message,
	}
}
