package cam

import (
	"fmt"

	"github.com/propmoney/cam-engine/generic"
)

// =============================================================================
// STRUCTURED ERRORS - Wrap generic sentinels with CAM context
// =============================================================================

// ValidationError names the request field that is missing or invalid.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return generic.ErrValidation }

// NotFoundError reports a missing property, unit or lease.
type NotFoundError struct {
	Kind string // "property", "unit", "lease", "settings"
	ID   string
}

func (e *NotFoundError) Error() string {
	switch e.Kind {
	case "property":
		return "Property not found"
	case "unit":
		return "Unit not found"
	case "lease":
		return fmt.Sprintf("Lease %s not found", e.ID)
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return generic.ErrNotFound }

// NoUnitsError is returned when a property has nothing to allocate across.
type NoUnitsError struct {
	PropertyID PropertyID
}

func (e *NoUnitsError) Error() string { return "No units found for this property" }

func (e *NoUnitsError) Unwrap() error { return generic.ErrNoUnits }

// PersistenceError wraps a store failure during a settings or charge write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the category and the store error.
func (e *PersistenceError) Unwrap() []error { return []error{generic.ErrPersistence, e.Err} }

// AccessDeniedError is returned by Authorize.
type AccessDeniedError struct {
	PropertyID PropertyID
	UserID     string
}

func (e *AccessDeniedError) Error() string {
	return "Access denied - you don't have permission to modify this property"
}

func (e *AccessDeniedError) Unwrap() error { return generic.ErrAccessDenied }

// DuplicateUnitError is returned when a unit number is reused within a property.
type DuplicateUnitError struct {
	PropertyID PropertyID
	UnitNumber string
}

func (e *DuplicateUnitError) Error() string {
	return fmt.Sprintf("Unit number %s already exists in this building", e.UnitNumber)
}

func (e *DuplicateUnitError) Unwrap() error { return generic.ErrDuplicate }

// DuplicateError is returned when a create names an id that is already taken.
type DuplicateError struct {
	Kind string // "property", "unit", "lease"
	ID   string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Kind, e.ID)
}

func (e *DuplicateError) Unwrap() error { return generic.ErrDuplicate }

func missing(field string) error {
	return &ValidationError{Field: field}
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
