/*
Package cam implements Common Area Maintenance (CAM) cost allocation.

PURPOSE:
  Landlords bill tenants for the operating cost of shared areas. This
  package splits a property's annual CAM cost across its units by floor
  area, flags suspicious allocations, stores per-property settings, and
  writes the resulting per-lease charges.

KEY CONCEPTS IN THIS FILE (types.go):
  - Property, Unit, Lease: the registry data the engine reads
  - CamSettings:           per-property preferences (upserted by property)
  - CamCharge:             per-(lease, year) estimate (upserted by lease+year)
  - CamExpenseItem:        descriptive line items under a charge
  - AllocationResult:      what the engine computes, never persisted as-is

COMPONENTS:
  Calculator      (engine.go)    computes UnitCharges from area shares
  Check           (checker.go)   flags share/cost/coverage anomalies
  SettingsService (settings.go)  partial upsert of CamSettings
  ChargePersister (persister.go) atomic upsert of CamCharge rows
  Authorize       (authz.go)     landlord-or-manager predicate

SEE ALSO:
  - store.go: Persistence interfaces
  - generic/share.go: Proportional share arithmetic
*/
package cam

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/propmoney/cam-engine/generic"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PropertyID string
type UnitID string
type LeaseID string

// =============================================================================
// REGISTRY - Properties, units and leases
// =============================================================================

// Property is a building whose usable area is shared out between units.
type Property struct {
	ID             PropertyID
	Name           string
	Address        string
	TotalBRA       generic.Amount // usable area, m2
	CommonAreaBRA  generic.Amount // shared area, m2 (informational)
	LandlordUserID string
	ManagerUserIDs []string
	CreatedAt      time.Time
}

// Unit is a leasable part of a property.
type Unit struct {
	ID               UnitID
	PropertyID       PropertyID
	UnitNumber       string
	Floor            int
	BRA              generic.Amount
	CommonAreaFactor decimal.Decimal
	Description      string
	CreatedAt        time.Time
}

type LeaseStatus string

const (
	LeaseActive     LeaseStatus = "ACTIVE"
	LeasePending    LeaseStatus = "PENDING"
	LeaseExpired    LeaseStatus = "EXPIRED"
	LeaseTerminated LeaseStatus = "TERMINATED"
)

func (s LeaseStatus) Valid() bool {
	switch s {
	case LeaseActive, LeasePending, LeaseExpired, LeaseTerminated:
		return true
	}
	return false
}

// Lease attaches a tenant to a unit.
type Lease struct {
	ID         LeaseID
	UnitID     UnitID
	TenantName string
	Status     LeaseStatus
	StartDate  generic.TimePoint
	EndDate    *generic.TimePoint // nil = open-ended
	CreatedAt  time.Time
}

// IsActiveOn reports whether the lease should carry CAM charges on asOf.
// A lease runs through its end date inclusive.
func (l Lease) IsActiveOn(asOf generic.TimePoint) bool {
	if l.Status != LeaseActive {
		return false
	}
	return l.EndDate == nil || l.EndDate.AfterOrEqual(asOf)
}

// UnitWithLeases is a unit plus the leases active on the read date.
type UnitWithLeases struct {
	Unit
	ActiveLeases []LeaseID
}

// =============================================================================
// CALCULATION METHODS
// =============================================================================

type CalculationMethod string

const (
	// MethodFixedRate charges every unit area x rate.
	MethodFixedRate CalculationMethod = "FIXED_RATE"
	// MethodActualCost splits a known annual cost by area share.
	MethodActualCost CalculationMethod = "ACTUAL_COST"
)

func (m CalculationMethod) Valid() bool {
	return m == MethodFixedRate || m == MethodActualCost
}

type EstimationMethod string

const (
	EstimatePreviousYear EstimationMethod = "PREVIOUS_YEAR"
	EstimateBudget       EstimationMethod = "BUDGET"
	EstimateFixed        EstimationMethod = "FIXED"
)

func (m EstimationMethod) Valid() bool {
	switch m {
	case EstimatePreviousYear, EstimateBudget, EstimateFixed:
		return true
	}
	return false
}

// =============================================================================
// SETTINGS AND CHARGES - Persisted records
// =============================================================================

// CamSettings holds one property's CAM preferences. One row per property.
type CamSettings struct {
	ID                  string
	PropertyID          PropertyID
	ReconciliationMonth int
	EstimationMethod    EstimationMethod
	AdminFeePercentage  decimal.Decimal

	// Calculator preferences; nil until the user saves them.
	CalculationMethod       *CalculationMethod
	FixedRatePerSquareMeter *decimal.Decimal
	TotalAnnualCost         *decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Defaults applied when settings are created for a property.
const (
	DefaultReconciliationMonth = 12
	DefaultEstimationMethod    = EstimatePreviousYear
)

// CamCharge is the CAM estimate billed to one lease for one year.
type CamCharge struct {
	ID              string
	LeaseID         LeaseID
	Year            int
	MonthlyEstimate generic.Amount
	AnnualEstimate  generic.Amount
	Reconciled      bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CamExpenseItem is a descriptive line under a CamCharge.
type CamExpenseItem struct {
	ID          string
	CamChargeID string
	Category    string
	Description string
	Estimate    generic.Amount
}

// =============================================================================
// ENGINE INPUT / OUTPUT
// =============================================================================

// CalculationRequest asks the engine to allocate one year's CAM cost.
type CalculationRequest struct {
	PropertyID              PropertyID
	Year                    int
	Method                  CalculationMethod
	FixedRatePerSquareMeter *decimal.Decimal // required for FIXED_RATE
	TotalAnnualCost         *decimal.Decimal // required for ACTUAL_COST
}

// UnitCharge is one unit's slice of the annual cost.
type UnitCharge struct {
	UnitID           UnitID
	UnitNumber       string
	BRA              generic.Amount
	CommonAreaFactor decimal.Decimal
	LeaseIDs         []LeaseID
	Share            decimal.Decimal
	AnnualCharge     generic.Amount
	MonthlyCharge    generic.Amount
}

// AllocationResult is the engine output. It is not persisted directly.
type AllocationResult struct {
	PropertyID       PropertyID
	Year             int
	Method           CalculationMethod
	UnitCharges      []UnitCharge
	TotalPropertyBRA generic.Amount
	TotalAnnualCost  generic.Amount
}

// SaveRequest is what the persister writes: the engine output minus display fields.
type SaveRequest struct {
	PropertyID      PropertyID
	Year            int
	Method          CalculationMethod
	TotalAnnualCost generic.Amount
	UnitCharges     []UnitChargeInput
}

type UnitChargeInput struct {
	UnitID        UnitID
	LeaseIDs      []LeaseID
	AnnualCharge  generic.Amount
	MonthlyCharge generic.Amount
}

// ToSaveRequest strips the display-only fields from a result.
func (r *AllocationResult) ToSaveRequest() SaveRequest {
	inputs := make([]UnitChargeInput, len(r.UnitCharges))
	for i, uc := range r.UnitCharges {
		inputs[i] = UnitChargeInput{
			UnitID:        uc.UnitID,
			LeaseIDs:      append([]LeaseID(nil), uc.LeaseIDs...),
			AnnualCharge:  uc.AnnualCharge,
			MonthlyCharge: uc.MonthlyCharge,
		}
	}
	return SaveRequest{
		PropertyID:      r.PropertyID,
		Year:            r.Year,
		Method:          r.Method,
		TotalAnnualCost: r.TotalAnnualCost,
		UnitCharges:     inputs,
	}
}
