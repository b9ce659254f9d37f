/*
Package generic provides the domain-agnostic primitives of the CAM engine.

PURPOSE:
  Money and floor area flow through every calculation in this service.
  This package holds the small value types and arithmetic they share, so
  the cam package can talk about charges and shares without worrying about
  floating-point drift.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: a decimal quantity with a unit (e.g., 250 m2, 50000 NOK)
  - Unit:   what an Amount measures (area or currency)

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal, never float64, for stored values
  2. Type Safety: Area and money carry their unit so they are not mixed up
  3. Presentation rounding happens at the edges (Cents), not mid-calculation

USAGE:
  area := generic.NewArea(250)
  rate := generic.NewMoney(200)
  charge := rate.Mul(area.Value) // 50000 NOK

SEE ALSO:
  - share.go: Proportional share arithmetic
  - errors.go: Sentinel errors shared by all packages
  - time.go: Day-granularity time points
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitSquareMeters Unit = "m2"
	UnitCurrency     Unit = "NOK"
)

// CentsPlaces is the number of decimals persisted for currency values.
const CentsPlaces int32 = 2

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewAmountFromDecimal(value decimal.Decimal, unit Unit) Amount {
	return Amount{Value: value, Unit: unit}
}

func NewArea(sqm float64) Amount  { return NewAmount(sqm, UnitSquareMeters) }
func NewMoney(nok float64) Amount { return NewAmount(nok, UnitCurrency) }

// MustParseDecimal parses a decimal literal and panics on bad input.
// Use it for constants and fixtures, never for stored or user data.
func MustParseDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Unit: a.Unit} }
func (a Amount) Div(s decimal.Decimal) Amount { return Amount{Value: a.Value.Div(s), Unit: a.Unit} }
func (a Amount) Abs() Amount                  { return Amount{Value: a.Value.Abs(), Unit: a.Unit} }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }

// Cents rounds a currency amount to the persisted precision.
func (a Amount) Cents() Amount {
	return Amount{Value: a.Value.Round(CentsPlaces), Unit: a.Unit}
}

// Float64 is for JSON presentation only.
func (a Amount) Float64() float64 {
	f, _ := a.Value.Float64()
	return f
}

func (a Amount) String() string {
	return a.Value.String() + " " + string(a.Unit)
}

// Sum adds amounts of the same unit. An empty slice sums to zero of unit.
func Sum(unit Unit, amounts ...Amount) Amount {
	total := Amount{Value: decimal.Zero, Unit: unit}
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
