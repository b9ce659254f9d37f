package cam_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propmoney/cam-engine/cam"
	"github.com/propmoney/cam-engine/generic"
)

func TestRegistry_AddPropertyAssignsID(t *testing.T) {
	f := newFixture(t)

	p, err := f.registry.AddProperty(context.Background(), cam.Property{
		Name:           "Oslo Business Center",
		TotalBRA:       generic.NewArea(4500),
		CommonAreaBRA:  generic.NewArea(500),
		LandlordUserID: "owner",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())

	stored, err := f.registry.GetProperty(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Oslo Business Center", stored.Name)
	assert.True(t, stored.TotalBRA.Value.Equal(decimal.NewFromInt(4500)))
}

func TestRegistry_AddPropertyValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		p     cam.Property
		field string
	}{
		{"no name", cam.Property{TotalBRA: generic.NewArea(10), LandlordUserID: "o"}, "name"},
		{"zero area", cam.Property{Name: "x", TotalBRA: generic.NewArea(0), LandlordUserID: "o"}, "totalBRA"},
		{"negative common area", cam.Property{Name: "x", TotalBRA: generic.NewArea(10), CommonAreaBRA: generic.NewArea(-1), LandlordUserID: "o"}, "commonAreaBRA"},
		{"no landlord", cam.Property{Name: "x", TotalBRA: generic.NewArea(10)}, "landlordUserId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.registry.AddProperty(ctx, tt.p)
			var vErr *cam.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestRegistry_DuplicateUnitNumber(t *testing.T) {
	// GIVEN: Unit A101 exists in the property
	// WHEN: Adding another A101
	// THEN: DuplicateUnitError, while the same number in another property is fine

	f := newFixture(t)
	f.seedProperty(t, "p1", 1000, unitSeed{number: "A101", bra: 100})
	f.seedProperty(t, "p2", 1000, unitSeed{number: "A101", bra: 100})

	_, err := f.registry.AddUnit(context.Background(), cam.Unit{
		PropertyID:       "p1",
		UnitNumber:       "A101",
		BRA:              generic.NewArea(50),
		CommonAreaFactor: decimal.NewFromInt(1),
	})

	var dupErr *cam.DuplicateUnitError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "Unit number A101 already exists in this building", err.Error())
	assert.ErrorIs(t, err, generic.ErrDuplicate)
}

func TestRegistry_AddUnitValidation(t *testing.T) {
	f := newFixture(t)
	f.seedProperty(t, "p1", 1000)
	ctx := context.Background()

	_, err := f.registry.AddUnit(ctx, cam.Unit{PropertyID: "p1", UnitNumber: "X", BRA: generic.NewArea(0), CommonAreaFactor: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, generic.ErrValidation)

	_, err = f.registry.AddUnit(ctx, cam.Unit{PropertyID: "p1", UnitNumber: "X", BRA: generic.NewArea(10)})
	assert.ErrorIs(t, err, generic.ErrValidation, "commonAreaFactor must be positive")

	_, err = f.registry.AddUnit(ctx, cam.Unit{PropertyID: "ghost", UnitNumber: "X", BRA: generic.NewArea(10), CommonAreaFactor: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestRegistry_AddLease(t *testing.T) {
	f := newFixture(t)
	f.seedProperty(t, "p1", 1000, unitSeed{number: "A", bra: 100})
	ctx := context.Background()
	start := generic.NewTimePoint(2025, time.January, 1)

	lease, err := f.registry.AddLease(ctx, cam.Lease{UnitID: "p1-A", StartDate: start})
	require.NoError(t, err)
	assert.Equal(t, cam.LeaseActive, lease.Status, "status defaults to ACTIVE")
	assert.NotEmpty(t, lease.ID)

	before := start.AddDays(-1)
	_, err = f.registry.AddLease(ctx, cam.Lease{UnitID: "p1-A", StartDate: start, EndDate: &before})
	assert.ErrorIs(t, err, generic.ErrValidation)

	_, err = f.registry.AddLease(ctx, cam.Lease{UnitID: "p1-A", StartDate: start, Status: "SIGNED"})
	assert.ErrorIs(t, err, generic.ErrValidation)

	_, err = f.registry.AddLease(ctx, cam.Lease{UnitID: "p1-A"})
	assert.ErrorIs(t, err, generic.ErrValidation)

	_, err = f.registry.AddLease(ctx, cam.Lease{UnitID: "ghost", StartDate: start})
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestRegistry_PropertyOfUnit(t *testing.T) {
	f := newFixture(t)
	f.seedProperty(t, "p1", 1000, unitSeed{number: "A", bra: 100})

	p, err := f.registry.PropertyOfUnit(context.Background(), "p1-A")
	require.NoError(t, err)
	assert.Equal(t, cam.PropertyID("p1"), p.ID)

	_, err = f.registry.PropertyOfUnit(context.Background(), "nope")
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestRegistry_CreateNeverOverwritesExistingIDs(t *testing.T) {
	// GIVEN: p1 with unit A and lease l1, owned by landlord-p1
	// WHEN: Another landlord creates records reusing those ids
	// THEN: Each create is a DuplicateError and the originals are untouched

	f := newFixture(t)
	f.seedProperty(t, "p1", 1000, unitSeed{number: "A", bra: 100, lease: "l1"})
	f.seedProperty(t, "p2", 1000)
	ctx := context.Background()

	_, err := f.registry.AddProperty(ctx, cam.Property{
		ID: "p1", Name: "Taken", TotalBRA: generic.NewArea(10), LandlordUserID: "attacker",
	})
	var dupErr *cam.DuplicateError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "property", dupErr.Kind)
	assert.ErrorIs(t, err, generic.ErrDuplicate)

	_, err = f.registry.AddUnit(ctx, cam.Unit{
		ID: "p1-A", PropertyID: "p2", UnitNumber: "Z", BRA: generic.NewArea(999), CommonAreaFactor: decimal.NewFromInt(1),
	})
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "unit", dupErr.Kind)

	_, err = f.registry.AddLease(ctx, cam.Lease{
		ID: "l1", UnitID: "p1-A", TenantName: "Someone else", StartDate: generic.NewTimePoint(2030, time.January, 1),
	})
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "lease", dupErr.Kind)

	p, err := f.registry.GetProperty(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "landlord-p1", p.LandlordUserID)

	u, err := f.store.GetUnit(ctx, "p1-A")
	require.NoError(t, err)
	assert.Equal(t, cam.PropertyID("p1"), u.PropertyID)
	assert.True(t, u.BRA.Value.Equal(decimal.NewFromInt(100)))

	leases, err := f.store.ListLeases(ctx, "p1-A")
	require.NoError(t, err)
	require.Len(t, leases, 1)
	assert.True(t, leases[0].StartDate.Equal(generic.NewTimePoint(2024, time.January, 1)))
}
