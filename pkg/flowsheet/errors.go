// Package flowsheet provides the core types for assembling process
// flowsheets: unit blocks, ports, stream states, directed arcs, and the
// initialization-order graph derived from them.
package flowsheet

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of a model error.
type ErrorClass string

const (
	// ErrorClassConfig indicates a configuration problem: an unrecognized
	// variant, a duplicate unit name, a malformed case file.
	ErrorClassConfig ErrorClass = "config"

	// ErrorClassModel indicates a structural model problem: an unsupported
	// operation for a unit variant, an under-specified system, a propagation
	// attempt from an uninitialized unit.
	ErrorClassModel ErrorClass = "model"

	// ErrorClassSolver indicates a solve failure: the nonlinear system did
	// not converge within the iteration budget.
	ErrorClassSolver ErrorClass = "solver"
)

// ModelError represents a classified error with flowsheet context.
// Every failure in this module is fatal; there is no retry machinery.
type ModelError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Unit is the unit block that caused the error, if applicable.
	Unit string `json:"unit,omitempty"`

	// Operation is the operation being performed when the error occurred.
	Operation string `json:"operation,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	switch {
	case e.Unit != "" && e.Operation != "":
		return fmt.Sprintf("[%s] %s (unit=%s, operation=%s)%s",
			e.Class, e.Message, e.Unit, e.Operation, e.unwrapSuffix())
	case e.Unit != "":
		return fmt.Sprintf("[%s] %s (unit=%s)%s", e.Class, e.Message, e.Unit, e.unwrapSuffix())
	default:
		return fmt.Sprintf("[%s] %s%s", e.Class, e.Message, e.unwrapSuffix())
	}
}

// Unwrap returns the underlying error for error chain inspection.
func (e *ModelError) Unwrap() error {
	return e.Err
}

func (e *ModelError) unwrapSuffix() string {
	if e.Err != nil {
		return ": " + e.Err.Error()
	}
	return ""
}

// Is implements error equality checking for errors.Is.
func (e *ModelError) Is(target error) bool {
	t, ok := target.(*ModelError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string, err error) *ModelError {
	return &ModelError{Class: ErrorClassConfig, Message: message, Err: err}
}

// NewModelError creates a new structural model error.
func NewModelError(message string, err error) *ModelError {
	return &ModelError{Class: ErrorClassModel, Message: message, Err: err}
}

// NewSolverError creates a new solver error.
func NewSolverError(message string, err error) *ModelError {
	return &ModelError{Class: ErrorClassSolver, Message: message, Err: err}
}

// WithUnit adds unit context to an error.
func (e *ModelError) WithUnit(unit string) *ModelError {
	e.Unit = unit
	return e
}

// WithOperation adds operation context to an error.
func (e *ModelError) WithOperation(operation string) *ModelError {
	e.Operation = operation
	return e
}

// WithCode adds an error code to an error.
func (e *ModelError) WithCode(code string) *ModelError {
	e.Code = code
	return e
}

// hasCode reports whether err carries the given ModelError code.
func hasCode(err error, code string) bool {
	var e *ModelError
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsUnimplemented returns true if the error reports an operation with no
// defined implementation for the requested unit variant.
func IsUnimplemented(err error) bool {
	return hasCode(err, ErrCodeUnimplemented)
}

// IsInvalidArgument returns true if the error reports an unrecognized
// variant or option value.
func IsInvalidArgument(err error) bool {
	return hasCode(err, ErrCodeInvalidArgument)
}

// IsUnderSpecified returns true if the error reports nonzero remaining
// degrees of freedom.
func IsUnderSpecified(err error) bool {
	return hasCode(err, ErrCodeUnderSpecified)
}

// IsNotConverged returns true if the error reports a failed solve.
func IsNotConverged(err error) bool {
	return hasCode(err, ErrCodeNotConverged)
}

// Common error codes.
const (
	ErrCodeUnimplemented   = "UNIMPLEMENTED"
	ErrCodeInvalidArgument = "INVALID_ARGUMENT"
	ErrCodeUnderSpecified  = "UNDER_SPECIFIED"
	ErrCodeNotConverged    = "NOT_CONVERGED"
	ErrCodeNotInitialized  = "NOT_INITIALIZED"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeAlreadyExists   = "ALREADY_EXISTS"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeInternal        = "INTERNAL_ERROR"
)
