package generic

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PROPORTIONAL SHARES
// =============================================================================

// Share returns part/whole as a plain fraction.
// Both amounts must use the same unit and whole must be positive.
func Share(part, whole Amount) (decimal.Decimal, error) {
	if part.Unit != whole.Unit {
		return decimal.Zero, fmt.Errorf("%w: share of %s in %s", ErrUnitMismatch, part.Unit, whole.Unit)
	}
	if !whole.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: whole is %s", ErrInvalidArea, whole.Value)
	}
	return part.Value.Div(whole.Value), nil
}

// Apportion returns the slice of total that corresponds to part/whole.
// It multiplies before dividing so the result carries a single rounding step.
func Apportion(total, part, whole Amount) (Amount, error) {
	if part.Unit != whole.Unit {
		return total.Zero(), fmt.Errorf("%w: apportion %s over %s", ErrUnitMismatch, part.Unit, whole.Unit)
	}
	if !whole.IsPositive() {
		return total.Zero(), fmt.Errorf("%w: whole is %s", ErrInvalidArea, whole.Value)
	}
	return Amount{Value: total.Value.Mul(part.Value).Div(whole.Value), Unit: total.Unit}, nil
}

// WithinTolerance reports whether |a-b| <= tolerance.
func WithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
