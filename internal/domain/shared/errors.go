// Package shared contains common domain errors and helpers used across all
// domain packages. This package has zero external dependencies.
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
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrConflict        = errors.New("conflict")
	ErrStateTransition = errors.New("invalid state transition")

	// Infrastructure errors
	ErrTransient = errors.New("transient failure")
	ErrTimeout   = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "collaboration", "mentorship"
	Op      string // Operation that failed, e.g., "Accept", "Propose"
	Kind    error  // Base error type for errors.Is() checking
	Code    string // Stable wire code, e.g., "DUPLICATE_CARD"
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

// Is implements errors.Is() matching. Two domain errors with the same code
// are considered equal regardless of the operation that produced them.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if errors.As(target, &t) && t.Code != "" {
		return e.Code == t.Code
	}
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// WithOp returns a copy of the error attributed to another operation.
func (e *DomainError) WithOp(op string) *DomainError {
	c := *e
	c.Op = op
	return &c
}

// WithErr returns a copy of the error carrying an underlying cause.
func (e *DomainError) WithErr(err error) *DomainError {
	c := *e
	c.Err = err
	return &c
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

// NewCodedError creates a domain error carrying a wire code.
func NewCodedError(domain, op string, kind error, code, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Code:    code,
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

// Wire codes shared by several domains.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeTransient  = "TRANSIENT_ERROR"
	CodeInternal   = "INTERNAL_ERROR"
)

// Transient wraps an infrastructure failure that is safe to retry.
func Transient(op, message string, err error) *DomainError {
	return &DomainError{
		Domain:  "storage",
		Op:      op,
		Kind:    ErrTransient,
		Code:    CodeTransient,
		Message: message,
		Err:     err,
	}
}

// CodeOf extracts the wire code of the outermost coded DomainError in the chain.
func CodeOf(err error) string {
	for err != nil {
		if de, ok := err.(*DomainError); ok && de.Code != "" {
			return de.Code
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// MessageOf returns the human-readable message of the first DomainError in the chain.
func MessageOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsConflict checks if the error reflects a real state conflict the caller
// must resolve by re-fetching.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrStateTransition) ||
		errors.Is(err, ErrAlreadyExists)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) ||
		errors.Is(err, ErrTimeout)
}
