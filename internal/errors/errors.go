package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a pantry error code.
type ErrorCode string

const (
	ErrValidation     ErrorCode = "VALIDATION"      // 400
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrConflict       ErrorCode = "CONFLICT"        // 409
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// PantryError represents a structured error with code, status, and details.
type PantryError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *PantryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidation creates a 400 error for values that break a domain rule
// (quantity out of range, malformed reference, missing owner).
func NewValidation(field, msg string) *PantryError {
	return &PantryError{
		Code:    ErrValidation,
		Status:  400,
		Message: fmt.Sprintf("%s: %s", field, msg),
		Details: map[string]any{"field": field},
	}
}

// NewInvalidRequest creates a 400 error for malformed request payloads.
func NewInvalidRequest(msg string) *PantryError {
	return &PantryError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error. kind names the entity ("recipe", "inventory entry").
// Rows owned by someone else are reported exactly like rows that do not exist.
func NewNotFound(kind, identifier string) *PantryError {
	return &PantryError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewConflict creates a 409 error for uniqueness conflicts.
func NewConflict(msg string) *PantryError {
	return &PantryError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *PantryError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &PantryError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) a PantryError with the given code.
func Is(err error, code ErrorCode) bool {
	var pErr *PantryError
	if stderrors.As(err, &pErr) {
		return pErr.Code == code
	}
	return false
}

// As returns the PantryError in err's chain, or nil.
func As(err error) *PantryError {
	var pErr *PantryError
	if stderrors.As(err, &pErr) {
		return pErr
	}
	return nil
}
