package cam

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/propmoney/cam-engine/generic"
)

// =============================================================================
// REGISTRY SERVICE - Validated writes for properties, units and leases
// =============================================================================

// RegistryService keeps the registry invariants the engine relies on:
// positive areas, unique unit numbers per property, leases on known units.
type RegistryService struct {
	Store RegistryStore
	Now   func() time.Time
}

func NewRegistryService(store RegistryStore) *RegistryService {
	return &RegistryService{Store: store, Now: time.Now}
}

func (s *RegistryService) AddProperty(ctx context.Context, p Property) (*Property, error) {
	if p.Name == "" {
		return nil, missing("name")
	}
	if !p.TotalBRA.IsPositive() {
		return nil, invalid("totalBRA", "totalBRA must be greater than zero")
	}
	if p.CommonAreaBRA.IsNegative() {
		return nil, invalid("commonAreaBRA", "commonAreaBRA must not be negative")
	}
	if p.LandlordUserID == "" {
		return nil, missing("landlordUserId")
	}
	if p.ID == "" {
		p.ID = PropertyID(uuid.NewString())
	} else if existing, err := s.Store.GetProperty(ctx, p.ID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, &DuplicateError{Kind: "property", ID: string(p.ID)}
	}
	p.TotalBRA.Unit = generic.UnitSquareMeters
	p.CommonAreaBRA.Unit = generic.UnitSquareMeters
	p.CreatedAt = s.Now().UTC()

	if err := s.Store.CreateProperty(ctx, p); err != nil {
		if errors.Is(err, generic.ErrDuplicate) {
			return nil, &DuplicateError{Kind: "property", ID: string(p.ID)}
		}
		return nil, &PersistenceError{Op: "create property", Err: err}
	}
	return &p, nil
}

func (s *RegistryService) GetProperty(ctx context.Context, id PropertyID) (*Property, error) {
	p, err := s.Store.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NotFoundError{Kind: "property", ID: string(id)}
	}
	return p, nil
}

func (s *RegistryService) AddUnit(ctx context.Context, u Unit) (*Unit, error) {
	if u.UnitNumber == "" {
		return nil, missing("unitNumber")
	}
	if !u.BRA.IsPositive() {
		return nil, invalid("bra", "bra must be greater than zero")
	}
	if !u.CommonAreaFactor.IsPositive() {
		return nil, invalid("commonAreaFactor", "commonAreaFactor must be greater than zero")
	}
	if _, err := s.GetProperty(ctx, u.PropertyID); err != nil {
		return nil, err
	}
	if u.ID == "" {
		u.ID = UnitID(uuid.NewString())
	} else if existing, err := s.Store.GetUnit(ctx, u.ID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, &DuplicateError{Kind: "unit", ID: string(u.ID)}
	}
	u.BRA.Unit = generic.UnitSquareMeters
	u.CreatedAt = s.Now().UTC()

	if err := s.Store.CreateUnit(ctx, u); err != nil {
		if errors.Is(err, generic.ErrDuplicate) {
			return nil, &DuplicateUnitError{PropertyID: u.PropertyID, UnitNumber: u.UnitNumber}
		}
		return nil, &PersistenceError{Op: "create unit", Err: err}
	}
	return &u, nil
}

func (s *RegistryService) ListUnits(ctx context.Context, propertyID PropertyID) ([]Unit, error) {
	if _, err := s.GetProperty(ctx, propertyID); err != nil {
		return nil, err
	}
	return s.Store.ListUnits(ctx, propertyID)
}

func (s *RegistryService) AddLease(ctx context.Context, l Lease) (*Lease, error) {
	if l.Status == "" {
		l.Status = LeaseActive
	}
	if !l.Status.Valid() {
		return nil, invalid("status", "unknown lease status %q", l.Status)
	}
	if l.StartDate.IsZero() {
		return nil, missing("startDate")
	}
	if l.EndDate != nil && l.EndDate.Before(l.StartDate) {
		return nil, invalid("endDate", "endDate must not be before startDate")
	}
	unit, err := s.Store.GetUnit(ctx, l.UnitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, &NotFoundError{Kind: "unit", ID: string(l.UnitID)}
	}
	if l.ID == "" {
		l.ID = LeaseID(uuid.NewString())
	}
	l.CreatedAt = s.Now().UTC()

	if err := s.Store.CreateLease(ctx, l); err != nil {
		if errors.Is(err, generic.ErrDuplicate) {
			return nil, &DuplicateError{Kind: "lease", ID: string(l.ID)}
		}
		return nil, &PersistenceError{Op: "create lease", Err: err}
	}
	return &l, nil
}

// PropertyOfUnit resolves the owning property, for authorization of unit-scoped calls.
func (s *RegistryService) PropertyOfUnit(ctx context.Context, unitID UnitID) (*Property, error) {
	unit, err := s.Store.GetUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, &NotFoundError{Kind: "unit", ID: string(unitID)}
	}
	return s.GetProperty(ctx, unit.PropertyID)
}
