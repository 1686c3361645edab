// Package validation resolves user-supplied configuration values against a
// template's field schema. This is part of the Functional Core - no I/O
// happens here; secret generation draws from the process-local random source.
package validation

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrMissingRequiredField  = errors.New("missing required field")
	ErrCyclicFieldDependency = errors.New("cyclic field visibility dependency")
	ErrUnknownField          = errors.New("value supplied for unknown field")
	ErrInvalidValue          = errors.New("value violates field constraints")
	ErrInvalidCondition      = errors.New("malformed visibility condition")
)

// ValidationError names the offending service, field and reason for a
// configuration defect. Fatal to the build; never downgraded to a warning.
type ValidationError struct {
	Service string
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: field %q: %s", e.Service, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(service, field, message string, err error) *ValidationError {
	return &ValidationError{
		Service: service,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
