// Package compose synthesizes the merged Docker Compose document and the
// generated environment mapping from a resolved service set. This is part of
// the Functional Core - no I/O; the shell writes the artifacts.
package compose

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrUnknownServiceOutput  = errors.New("reference to unpublished service output")
	ErrUnresolvedPlaceholder = errors.New("unresolvable placeholder")
	ErrUnknownGenerator      = errors.New("unknown secret generator kind")
	ErrDuplicateEnvKey       = errors.New("conflicting values for environment key")
	ErrInvalidDocument       = errors.New("synthesized document failed compose validation")
)

// SynthesisError names the service and key that broke synthesis. Any single
// failure aborts the whole build; no partial document is ever produced.
type SynthesisError struct {
	Service string
	Key     string
	Message string
	Err     error
}

func (e *SynthesisError) Error() string {
	switch {
	case e.Service != "" && e.Key != "":
		return fmt.Sprintf("%s: %s: %s", e.Service, e.Key, e.Message)
	case e.Service != "":
		return fmt.Sprintf("%s: %s", e.Service, e.Message)
	default:
		return e.Message
	}
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

func newSynthesisError(service, key, message string, err error) *SynthesisError {
	return &SynthesisError{
		Service: service,
		Key:     key,
		Message: message,
		Err:     err,
	}
}
