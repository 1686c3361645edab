// Package resolver expands a requested service set to its dependency closure,
// detects cycles and conflicts, and computes a deterministic deployment
// order. This is part of the Functional Core - all functions are pure.
package resolver

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrUnknownService      = errors.New("requested service is not in the catalog")
	ErrDependencyCycle     = errors.New("dependency cycle detected")
	ErrConflictingServices = errors.New("conflicting services in resolution")
)

// ResolutionError describes why the requested service set cannot be resolved.
// Cycle holds the member ids in discovery order for ErrDependencyCycle;
// ConflictA/ConflictB name the pair for ErrConflictingServices.
type ResolutionError struct {
	Service   string
	Cycle     []string
	ConflictA string
	ConflictB string
	Err       error
}

func (e *ResolutionError) Error() string {
	switch {
	case len(e.Cycle) > 0:
		return fmt.Sprintf("dependency cycle detected: %s -> %s",
			strings.Join(e.Cycle, " -> "), e.Cycle[0])
	case e.ConflictA != "":
		return fmt.Sprintf("services %q and %q conflict and cannot be enabled together",
			e.ConflictA, e.ConflictB)
	case e.Service != "":
		return fmt.Sprintf("service %q is not in the catalog", e.Service)
	default:
		return e.Err.Error()
	}
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
