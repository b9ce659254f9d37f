/*
checker.go - Consistency checks over an AllocationResult

PURPOSE:
  Catches area data-entry mistakes before charges are committed. The
  checks are advisory: they never block a save and never mutate the
  result. The calculate preview and the /check endpoint both call Check,
  so thresholds live here and nowhere else.

CHECKS (each evaluated independently):
  1. Share sum:   |1 - sum(share)| > 0.001 is a discrepancy. Units that
                  leave common area out legitimately sum below 1; it is
                  still reported.
  2. Cost sum:    |total - sum(annual)| > 1 currency unit is a discrepancy.
  3. Uncovered:   units with no active lease (charged, nobody to bill).
  4. Outliers:    units with share < 0.01 or share > 0.5.

  No finding at all means Consistent.
*/
package cam

import (
	"github.com/shopspring/decimal"

	"github.com/propmoney/cam-engine/generic"
)

var (
	ShareTolerance = decimal.RequireFromString("0.001")
	CostTolerance  = decimal.NewFromInt(1)
	MinUnitShare   = decimal.RequireFromString("0.01")
	MaxUnitShare   = decimal.RequireFromString("0.5")
)

// Discrepancy compares an expected total with the computed one.
type Discrepancy struct {
	Expected   decimal.Decimal
	Actual     decimal.Decimal
	Difference decimal.Decimal // Expected - Actual
}

// UnitFlag points at a unit worth reviewing.
type UnitFlag struct {
	UnitID     UnitID
	UnitNumber string
	BRA        generic.Amount
	Share      decimal.Decimal
}

// Report is the checker output.
type Report struct {
	Consistent bool

	TotalShare       decimal.Decimal
	ShareDiscrepancy *Discrepancy

	TotalCharged    generic.Amount
	CostDiscrepancy *Discrepancy

	UncoveredUnits []UnitFlag
	OutlierUnits   []UnitFlag
}

// Check evaluates all four checks over result.
func Check(result *AllocationResult) Report {
	report := Report{
		TotalShare:   decimal.Zero,
		TotalCharged: generic.Sum(generic.UnitCurrency),
	}
	if result == nil {
		report.Consistent = true
		return report
	}
	report.TotalCharged = generic.Sum(result.TotalAnnualCost.Unit)

	for _, uc := range result.UnitCharges {
		report.TotalShare = report.TotalShare.Add(uc.Share)
		report.TotalCharged = report.TotalCharged.Add(uc.AnnualCharge)

		flag := UnitFlag{UnitID: uc.UnitID, UnitNumber: uc.UnitNumber, BRA: uc.BRA, Share: uc.Share}
		if len(uc.LeaseIDs) == 0 {
			report.UncoveredUnits = append(report.UncoveredUnits, flag)
		}
		if uc.Share.LessThan(MinUnitShare) || uc.Share.GreaterThan(MaxUnitShare) {
			report.OutlierUnits = append(report.OutlierUnits, flag)
		}
	}

	one := decimal.NewFromInt(1)
	if !generic.WithinTolerance(one, report.TotalShare, ShareTolerance) {
		report.ShareDiscrepancy = &Discrepancy{
			Expected:   one,
			Actual:     report.TotalShare,
			Difference: one.Sub(report.TotalShare),
		}
	}

	expected := result.TotalAnnualCost.Value
	if !generic.WithinTolerance(expected, report.TotalCharged.Value, CostTolerance) {
		report.CostDiscrepancy = &Discrepancy{
			Expected:   expected,
			Actual:     report.TotalCharged.Value,
			Difference: expected.Sub(report.TotalCharged.Value),
		}
	}

	report.Consistent = report.ShareDiscrepancy == nil &&
		report.CostDiscrepancy == nil &&
		len(report.UncoveredUnits) == 0 &&
		len(report.OutlierUnits) == 0
	return report
}
