/*
errors.go - Centralized sentinel errors

PURPOSE:
  All error categories in one place for consistency and discoverability.
  The cam package wraps these in structured errors that carry the field,
  record or operation involved, so callers can branch with errors.Is
  and still show a precise message.

ERROR CATEGORIES:
  1. Validation errors  - missing or out-of-range input
  2. Lookup errors      - property, unit or lease absent
  3. Allocation errors  - nothing to allocate across
  4. Store errors       - write failures, uniqueness violations
  5. Access errors      - caller may not act on the property

USAGE:
  if errors.Is(err, generic.ErrNotFound) {
      // 404
  }

SEE ALSO:
  - cam/errors.go: Structured errors wrapping these sentinels
  - api/handlers.go: Maps categories to HTTP status codes
*/
package generic

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned when a request field is missing or invalid.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrNoUnits is returned when a property has no units to allocate across.
	ErrNoUnits = errors.New("no units found for this property")

	// ErrPersistence is returned when a write to the store fails.
	ErrPersistence = errors.New("persistence failed")

	// ErrDuplicate is returned when a unique key already exists.
	ErrDuplicate = errors.New("duplicate record")

	// ErrAccessDenied is returned when a user may not modify or view a property.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidArea is returned when an area used as a denominator is not positive.
	ErrInvalidArea = errors.New("area must be positive")

	// ErrUnitMismatch is returned when amounts of different units are combined.
	ErrUnitMismatch = errors.New("unit mismatch")
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidArea) ||
		errors.Is(err, ErrUnitMismatch)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
