// Package catalog loads a directory of service-template documents into an
// immutable in-memory catalog. Loading is side-effect-free: no network, no
// container calls, only local file reads.
package catalog

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Directory-level errors
	ErrDirNotFound = errors.New("template directory not found")
	ErrNoTemplates = errors.New("no template documents found")
	ErrInvalidYAML = errors.New("invalid YAML syntax")

	// Catalog integrity errors
	ErrDuplicateID       = errors.New("duplicate service id")
	ErrUnknownDependency = errors.New("dependency references unknown service id")
	ErrUnknownConflict   = errors.New("conflicts_with references unknown service id")
	ErrInvalidTemplate   = errors.New("invalid template declaration")
	ErrUnknownFieldRef   = errors.New("reference to unknown field key")
)

// CatalogError wraps a catalog-integrity failure with the offending file and
// service id. All catalog errors are fatal before any resolution runs.
type CatalogError struct {
	File    string // source file the defect was found in
	Service string // offending service id, if known
	Message string
	Err     error
}

func (e *CatalogError) Error() string {
	switch {
	case e.File != "" && e.Service != "":
		return fmt.Sprintf("%s: service %q: %s", e.File, e.Service, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	default:
		return e.Message
	}
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

// NewCatalogError creates a new CatalogError.
func NewCatalogError(file, service, message string, err error) *CatalogError {
	return &CatalogError{
		File:    file,
		Service: service,
		Message: message,
		Err:     err,
	}
}
