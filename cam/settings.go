package cam

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// SETTINGS STORE - One CamSettings row per property, partial updates
// =============================================================================

var (
	maxAdminFee = decimal.NewFromInt(100)
)

// SettingsUpdate is a partial update. Nil fields are left unchanged.
type SettingsUpdate struct {
	PropertyID              PropertyID
	ReconciliationMonth     *int
	EstimationMethod        *EstimationMethod
	AdminFeePercentage      *decimal.Decimal
	CalculationMethod       *CalculationMethod
	FixedRatePerSquareMeter *decimal.Decimal
	TotalAnnualCost         *decimal.Decimal
}

// Validate applies the range checks.
func (u SettingsUpdate) Validate() error {
	if u.PropertyID == "" {
		return missing("propertyId")
	}
	if m := u.ReconciliationMonth; m != nil && (*m < 1 || *m > 12) {
		return invalid("reconciliationMonth", "reconciliationMonth must be between 1 and 12")
	}
	if m := u.EstimationMethod; m != nil && !m.Valid() {
		return invalid("estimationMethod", "unknown estimation method %q", *m)
	}
	if f := u.AdminFeePercentage; f != nil && (f.IsNegative() || f.GreaterThan(maxAdminFee)) {
		return invalid("adminFeePercentage", "adminFeePercentage must be between 0 and 100")
	}
	if m := u.CalculationMethod; m != nil && !m.Valid() {
		return invalid("calculationMethod", "unknown calculation method %q", *m)
	}
	if r := u.FixedRatePerSquareMeter; r != nil && r.IsNegative() {
		return invalid("fixedRatePerSquareMeter", "fixedRatePerSquareMeter must not be negative")
	}
	if c := u.TotalAnnualCost; c != nil && c.IsNegative() {
		return invalid("totalAnnualCost", "totalAnnualCost must not be negative")
	}
	return nil
}

// Apply merges the update into s.
func (u SettingsUpdate) Apply(s *CamSettings) {
	if u.ReconciliationMonth != nil {
		s.ReconciliationMonth = *u.ReconciliationMonth
	}
	if u.EstimationMethod != nil {
		s.EstimationMethod = *u.EstimationMethod
	}
	if u.AdminFeePercentage != nil {
		s.AdminFeePercentage = *u.AdminFeePercentage
	}
	if u.CalculationMethod != nil {
		m := *u.CalculationMethod
		s.CalculationMethod = &m
	}
	if u.FixedRatePerSquareMeter != nil {
		r := *u.FixedRatePerSquareMeter
		s.FixedRatePerSquareMeter = &r
	}
	if u.TotalAnnualCost != nil {
		c := *u.TotalAnnualCost
		s.TotalAnnualCost = &c
	}
}

// NewSettings returns the defaults for a property without settings.
func NewSettings(propertyID PropertyID) CamSettings {
	return CamSettings{
		ID:                  uuid.NewString(),
		PropertyID:          propertyID,
		ReconciliationMonth: DefaultReconciliationMonth,
		EstimationMethod:    DefaultEstimationMethod,
		AdminFeePercentage:  decimal.Zero,
	}
}

// SettingsService upserts CamSettings.
type SettingsService struct {
	Store TxStore
	Now   func() time.Time
}

func NewSettingsService(store TxStore) *SettingsService {
	return &SettingsService{Store: store, Now: time.Now}
}

// Get returns the property's settings, or the defaults when none are stored.
func (s *SettingsService) Get(ctx context.Context, propertyID PropertyID) (*CamSettings, error) {
	property, err := s.Store.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, &NotFoundError{Kind: "property", ID: string(propertyID)}
	}
	settings, err := s.Store.GetSettings(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		d := NewSettings(propertyID)
		d.ID = ""
		return &d, nil
	}
	return settings, nil
}

// Upsert creates the property's settings or overwrites only the provided fields.
func (s *SettingsService) Upsert(ctx context.Context, update SettingsUpdate) (*CamSettings, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	var saved CamSettings
	err := s.Store.WithTx(ctx, func(tx Store) error {
		property, err := tx.GetProperty(ctx, update.PropertyID)
		if err != nil {
			return err
		}
		if property == nil {
			return &NotFoundError{Kind: "property", ID: string(update.PropertyID)}
		}

		current, err := tx.GetSettings(ctx, update.PropertyID)
		if err != nil {
			return err
		}
		now := s.Now().UTC()
		if current == nil {
			fresh := NewSettings(update.PropertyID)
			fresh.CreatedAt = now
			current = &fresh
		}
		update.Apply(current)
		current.UpdatedAt = now

		if err := tx.UpsertSettings(ctx, *current); err != nil {
			return &PersistenceError{Op: "upsert cam settings", Err: err}
		}
		saved = *current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}
