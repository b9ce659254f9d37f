/*
persister.go - Charge Persister

PURPOSE:
  Writes the engine's per-unit charges as CamCharge rows, one per active
  lease and year. Units without an active lease are skipped, so no orphan
  charge rows exist.

ATOMICITY:
  The whole save runs in one store transaction. If any upsert fails the
  transaction is rolled back and the caller gets a *PersistenceError;
  a partially written run is never reported as success.

IDEMPOTENCY:
  Rows are keyed by (lease, year). Saving the same result twice rewrites
  identical values and leaves the row count unchanged.
*/
package cam

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/propmoney/cam-engine/generic"
)

type ChargePersister struct {
	Store TxStore
	Now   func() time.Time
}

func NewChargePersister(store TxStore) *ChargePersister {
	return &ChargePersister{Store: store, Now: time.Now}
}

// Validate checks the save request envelope.
func (req SaveRequest) Validate() error {
	if req.PropertyID == "" {
		return missing("propertyId")
	}
	if req.Year <= 0 {
		return invalid("year", "year must be a positive number")
	}
	if !req.Method.Valid() {
		return invalid("calculationMethod", "unknown calculation method %q", req.Method)
	}
	for _, uc := range req.UnitCharges {
		if uc.UnitID == "" {
			return missing("unitCharges.unitId")
		}
		if uc.AnnualCharge.IsNegative() || uc.MonthlyCharge.IsNegative() {
			return invalid("unitCharges", "charges for unit %s must not be negative", uc.UnitID)
		}
	}
	return nil
}

// Save upserts one CamCharge per (lease, year) and returns how many rows were written.
func (p *ChargePersister) Save(ctx context.Context, req SaveRequest) (int, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}

	now := p.Now().UTC()
	written := make(map[LeaseID]bool)

	err := p.Store.WithTx(ctx, func(tx Store) error {
		for _, uc := range req.UnitCharges {
			if len(uc.LeaseIDs) == 0 {
				continue
			}
			if err := checkOwnership(ctx, tx, req.PropertyID, uc); err != nil {
				return err
			}
			for _, leaseID := range uc.LeaseIDs {
				charge := CamCharge{
					ID:              uuid.NewString(),
					LeaseID:         leaseID,
					Year:            req.Year,
					MonthlyEstimate: currency(uc.MonthlyCharge),
					AnnualEstimate:  currency(uc.AnnualCharge),
					CreatedAt:       now,
					UpdatedAt:       now,
				}
				if err := tx.UpsertCharge(ctx, charge); err != nil {
					return &PersistenceError{Op: "upsert cam charge for lease " + string(leaseID), Err: err}
				}
				written[leaseID] = true
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(written), nil
}

// checkOwnership rejects units outside the property and leases outside the unit.
func checkOwnership(ctx context.Context, tx Store, propertyID PropertyID, uc UnitChargeInput) error {
	unit, err := tx.GetUnit(ctx, uc.UnitID)
	if err != nil {
		return &PersistenceError{Op: "read unit " + string(uc.UnitID), Err: err}
	}
	if unit == nil {
		return &NotFoundError{Kind: "unit", ID: string(uc.UnitID)}
	}
	if unit.PropertyID != propertyID {
		return invalid("unitCharges.unitId", "unit %s does not belong to property %s", uc.UnitID, propertyID)
	}
	leases, err := tx.ListLeases(ctx, uc.UnitID)
	if err != nil {
		return &PersistenceError{Op: "read leases of unit " + string(uc.UnitID), Err: err}
	}
	known := make(map[LeaseID]bool, len(leases))
	for _, l := range leases {
		known[l.ID] = true
	}
	for _, id := range uc.LeaseIDs {
		if !known[id] {
			return &NotFoundError{Kind: "lease", ID: string(id)}
		}
	}
	return nil
}

// Charges lists the stored charges of one lease.
func (p *ChargePersister) Charges(ctx context.Context, leaseID LeaseID) ([]CamCharge, error) {
	return p.Store.ListChargesByLease(ctx, leaseID)
}

// ChargesForProperty lists the stored charges of every lease in the property for year.
func (p *ChargePersister) ChargesForProperty(ctx context.Context, propertyID PropertyID, year int) ([]CamCharge, error) {
	property, err := p.Store.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, &NotFoundError{Kind: "property", ID: string(propertyID)}
	}
	return p.Store.ListChargesByProperty(ctx, propertyID, year)
}

// AddExpenseItems attaches breakdown lines to the (lease, year) charge.
func (p *ChargePersister) AddExpenseItems(ctx context.Context, leaseID LeaseID, year int, items []CamExpenseItem) ([]CamExpenseItem, error) {
	var saved []CamExpenseItem
	err := p.Store.WithTx(ctx, func(tx Store) error {
		charge, err := tx.GetCharge(ctx, leaseID, year)
		if err != nil {
			return err
		}
		if charge == nil {
			return &NotFoundError{Kind: "cam charge", ID: string(leaseID)}
		}
		saved = make([]CamExpenseItem, len(items))
		for i, item := range items {
			if item.Category == "" {
				return missing("category")
			}
			item.ID = uuid.NewString()
			item.CamChargeID = charge.ID
			item.Estimate = currency(item.Estimate)
			saved[i] = item
		}
		if err := tx.AddExpenseItems(ctx, saved); err != nil {
			return &PersistenceError{Op: "add cam expense items", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// ExpenseItems lists the breakdown of the (lease, year) charge.
func (p *ChargePersister) ExpenseItems(ctx context.Context, leaseID LeaseID, year int) ([]CamExpenseItem, error) {
	charge, err := p.Store.GetCharge(ctx, leaseID, year)
	if err != nil {
		return nil, err
	}
	if charge == nil {
		return nil, &NotFoundError{Kind: "cam charge", ID: string(leaseID)}
	}
	return p.Store.ListExpenseItems(ctx, charge.ID)
}

func currency(a generic.Amount) generic.Amount {
	return generic.NewAmountFromDecimal(a.Value, generic.UnitCurrency).Cents()
}
