/*
engine.go - Allocation Engine

PURPOSE:
  Computes each unit's CAM charge for one property and year. The engine
  reads a snapshot of the property and its units (with active leases),
  then runs a pure allocation over it. It never writes.

ALGORITHM:
  FIXED_RATE  (needs fixed rate per m2 > 0):
    total       = totalBRA x rate
    annual(u)   = u.bra x rate
  ACTUAL_COST (needs total annual cost > 0):
    total       = input
    annual(u)   = total x u.bra / totalBRA
  For both:
    share(u)    = u.bra / totalBRA   (fraction of property area,
                                      NOT of the summed unit areas)
    monthly(u)  = annual(u) / 12

  Units with no active lease are still charged; the checker lists them.

ERRORS:
  *ValidationError  missing/invalid field (named), or totalBRA <= 0
  *NotFoundError    property absent
  *NoUnitsError     property has no units

SEE ALSO:
  - checker.go: Consistency checks over the result
  - persister.go: Writes the result per lease
*/
package cam

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/propmoney/cam-engine/generic"
)

var monthsPerYear = decimal.NewFromInt(12)

// Calculator runs allocations against a Registry.
type Calculator struct {
	Registry Registry

	// Clock decides which leases are active. Defaults to generic.Today.
	Clock func() generic.TimePoint
}

func NewCalculator(registry Registry) *Calculator {
	return &Calculator{Registry: registry, Clock: generic.Today}
}

// Calculate validates the request, reads the property snapshot and allocates.
func (c *Calculator) Calculate(ctx context.Context, req CalculationRequest) (*AllocationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	property, err := c.Registry.GetProperty(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, &NotFoundError{Kind: "property", ID: string(req.PropertyID)}
	}

	asOf := generic.Today()
	if c.Clock != nil {
		asOf = c.Clock()
	}
	units, err := c.Registry.UnitsWithActiveLeases(ctx, req.PropertyID, asOf)
	if err != nil {
		return nil, err
	}

	return Allocate(*property, units, req)
}

// Validate checks the fields required by the chosen method.
func (req CalculationRequest) Validate() error {
	if req.PropertyID == "" {
		return missing("propertyId")
	}
	if req.Year <= 0 {
		return invalid("year", "year must be a positive number")
	}
	switch req.Method {
	case MethodFixedRate:
		if req.FixedRatePerSquareMeter == nil || !req.FixedRatePerSquareMeter.IsPositive() {
			return invalid("fixedRatePerSquareMeter",
				"Fixed rate per square meter is required for FIXED_RATE calculation method")
		}
	case MethodActualCost:
		if req.TotalAnnualCost == nil || !req.TotalAnnualCost.IsPositive() {
			return invalid("totalAnnualCost",
				"Total annual cost is required for ACTUAL_COST calculation method")
		}
	case "":
		return missing("calculationMethod")
	default:
		return invalid("calculationMethod", "unknown calculation method %q", req.Method)
	}
	return nil
}

// Allocate is the pure allocation step. The request must already be valid.
func Allocate(property Property, units []UnitWithLeases, req CalculationRequest) (*AllocationResult, error) {
	totalBRA := property.TotalBRA
	if !totalBRA.IsPositive() {
		return nil, invalid("totalBRA", "property total BRA must be greater than zero")
	}
	if len(units) == 0 {
		return nil, &NoUnitsError{PropertyID: property.ID}
	}

	var totalCost generic.Amount
	switch req.Method {
	case MethodFixedRate:
		totalCost = generic.NewAmountFromDecimal(totalBRA.Value.Mul(*req.FixedRatePerSquareMeter), generic.UnitCurrency)
	case MethodActualCost:
		totalCost = generic.NewAmountFromDecimal(*req.TotalAnnualCost, generic.UnitCurrency)
	default:
		return nil, invalid("calculationMethod", "unknown calculation method %q", req.Method)
	}

	charges := make([]UnitCharge, 0, len(units))
	for _, u := range units {
		share, err := generic.Share(u.BRA, totalBRA)
		if err != nil {
			return nil, err
		}

		var annual generic.Amount
		if req.Method == MethodFixedRate {
			annual = generic.NewAmountFromDecimal(u.BRA.Value.Mul(*req.FixedRatePerSquareMeter), generic.UnitCurrency)
		} else {
			annual, err = generic.Apportion(totalCost, u.BRA, totalBRA)
			if err != nil {
				return nil, err
			}
		}

		leaseIDs := append([]LeaseID{}, u.ActiveLeases...)
		sort.Slice(leaseIDs, func(i, j int) bool { return leaseIDs[i] < leaseIDs[j] })

		charges = append(charges, UnitCharge{
			UnitID:           u.ID,
			UnitNumber:       u.UnitNumber,
			BRA:              u.BRA,
			CommonAreaFactor: u.CommonAreaFactor,
			LeaseIDs:         leaseIDs,
			Share:            share,
			AnnualCharge:     annual,
			MonthlyCharge:    annual.Div(monthsPerYear),
		})
	}

	return &AllocationResult{
		PropertyID:       property.ID,
		Year:             req.Year,
		Method:           req.Method,
		UnitCharges:      charges,
		TotalPropertyBRA: totalBRA,
		TotalAnnualCost:  totalCost,
	}, nil
}
