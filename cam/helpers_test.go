package cam_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/propmoney/cam-engine/cam"
	"github.com/propmoney/cam-engine/cam/store"
	"github.com/propmoney/cam-engine/generic"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testToday = generic.NewTimePoint(2025, time.June, 1)

type fixture struct {
	store      *store.TxMemory
	registry   *cam.RegistryService
	calculator *cam.Calculator
	settings   *cam.SettingsService
	persister  *cam.ChargePersister
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := store.NewTxMemory()
	calc := cam.NewCalculator(s)
	calc.Clock = func() generic.TimePoint { return testToday }
	return &fixture{
		store:      s,
		registry:   cam.NewRegistryService(s),
		calculator: calc,
		settings:   cam.NewSettingsService(s),
		persister:  cam.NewChargePersister(s),
	}
}

// unitSeed describes a seeded unit. A non-empty lease gets an open-ended ACTIVE lease.
type unitSeed struct {
	number string
	bra    float64
	lease  cam.LeaseID
}

func (f *fixture) seedProperty(t *testing.T, id cam.PropertyID, totalBRA float64, units ...unitSeed) {
	t.Helper()
	ctx := context.Background()

	_, err := f.registry.AddProperty(ctx, cam.Property{
		ID:             id,
		Name:           "Property " + string(id),
		TotalBRA:       generic.NewArea(totalBRA),
		LandlordUserID: "landlord-" + string(id),
		ManagerUserIDs: []string{"manager-" + string(id)},
	})
	require.NoError(t, err)

	for _, u := range units {
		unitID := cam.UnitID(string(id) + "-" + u.number)
		_, err := f.registry.AddUnit(ctx, cam.Unit{
			ID:               unitID,
			PropertyID:       id,
			UnitNumber:       u.number,
			BRA:              generic.NewArea(u.bra),
			CommonAreaFactor: decimal.NewFromInt(1),
		})
		require.NoError(t, err)
		if u.lease != "" {
			f.seedLease(t, u.lease, unitID, cam.LeaseActive, nil)
		}
	}
}

func (f *fixture) seedLease(t *testing.T, id cam.LeaseID, unitID cam.UnitID, status cam.LeaseStatus, end *generic.TimePoint) {
	t.Helper()
	_, err := f.registry.AddLease(context.Background(), cam.Lease{
		ID:         id,
		UnitID:     unitID,
		TenantName: "Tenant " + string(id),
		Status:     status,
		StartDate:  generic.NewTimePoint(2024, time.January, 1),
		EndDate:    end,
	})
	require.NoError(t, err)
}

func fixedRate(propertyID cam.PropertyID, rate string) cam.CalculationRequest {
	r := generic.MustParseDecimal(rate)
	return cam.CalculationRequest{
		PropertyID:              propertyID,
		Year:                    2025,
		Method:                  cam.MethodFixedRate,
		FixedRatePerSquareMeter: &r,
	}
}

func actualCost(propertyID cam.PropertyID, total string) cam.CalculationRequest {
	c := generic.MustParseDecimal(total)
	return cam.CalculationRequest{
		PropertyID:      propertyID,
		Year:            2025,
		Method:          cam.MethodActualCost,
		TotalAnnualCost: &c,
	}
}

func dec(s string) decimal.Decimal { return generic.MustParseDecimal(s) }

func unitCharge(t *testing.T, result *cam.AllocationResult, number string) cam.UnitCharge {
	t.Helper()
	for _, uc := range result.UnitCharges {
		if uc.UnitNumber == number {
			return uc
		}
	}
	t.Fatalf("unit %s not in result", number)
	return cam.UnitCharge{}
}
