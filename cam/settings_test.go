package cam_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propmoney/cam-engine/cam"
	"github.com/propmoney/cam-engine/generic"
)

func intPtr(i int) *int { return &i }

func TestSettings_GetReturnsDefaults(t *testing.T) {
	f := newFixture(t)
	f.seedProperty(t, "p1", 1000)

	settings, err := f.settings.Get(context.Background(), "p1")
	require.NoError(t, err)

	assert.Empty(t, settings.ID, "defaults are not persisted")
	assert.Equal(t, 12, settings.ReconciliationMonth)
	assert.Equal(t, cam.EstimatePreviousYear, settings.EstimationMethod)
	assert.True(t, settings.AdminFeePercentage.IsZero())
	assert.Nil(t, settings.CalculationMethod)
}

func TestSettings_UpsertCreatesThenMergesPartially(t *testing.T) {
	// GIVEN: A property with no settings
	// WHEN: Setting reconciliationMonth, then only the admin fee
	// THEN: The second update keeps the month and the row id

	f := newFixture(t)
	f.seedProperty(t, "p1", 1000)
	ctx := context.Background()

	first, err := f.settings.Upsert(ctx, cam.SettingsUpdate{PropertyID: "p1", ReconciliationMonth: intPtr(6)})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, 6, first.ReconciliationMonth)
	assert.Equal(t, cam.EstimatePreviousYear, first.EstimationMethod, "unset fields take defaults")

	fee := dec("7.5")
	second, err := f.settings.Upsert(ctx, cam.SettingsUpdate{PropertyID: "p1", AdminFeePercentage: &fee})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 6, second.ReconciliationMonth)
	assert.True(t, second.AdminFeePercentage.Equal(fee))

	stored, err := f.settings.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, 6, stored.ReconciliationMonth)
}

func TestSettings_ZeroAdminFeeIsStored(t *testing.T) {
	f := newFixture(t)
	f.seedProperty(t, "p1", 1000)
	ctx := context.Background()

	ten := dec("10")
	_, err := f.settings.Upsert(ctx, cam.SettingsUpdate{PropertyID: "p1", AdminFeePercentage: &ten})
	require.NoError(t, err)

	zero := dec("0")
	updated, err := f.settings.Upsert(ctx, cam.SettingsUpdate{PropertyID: "p1", AdminFeePercentage: &zero})
	require.NoError(t, err)

	assert.True(t, updated.AdminFeePercentage.IsZero(), "an explicit 0 overwrites the previous fee")
}

func TestSettings_StoresCalculatorPreferences(t *testing.T) {
	f := newFixture(t)
	f.seedProperty(t, "p1", 1000)

	method := cam.MethodFixedRate
	rate := dec("185")
	saved, err := f.settings.Upsert(context.Background(), cam.SettingsUpdate{
		PropertyID:              "p1",
		CalculationMethod:       &method,
		FixedRatePerSquareMeter: &rate,
	})
	require.NoError(t, err)

	require.NotNil(t, saved.CalculationMethod)
	assert.Equal(t, cam.MethodFixedRate, *saved.CalculationMethod)
	require.NotNil(t, saved.FixedRatePerSquareMeter)
	assert.True(t, saved.FixedRatePerSquareMeter.Equal(rate))
	assert.Nil(t, saved.TotalAnnualCost)
}

func TestSettings_UpdatedAtAdvances(t *testing.T) {
	f := newFixture(t)
	f.seedProperty(t, "p1", 1000)
	ctx := context.Background()

	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	f.settings.Now = func() time.Time { return clock }
	first, err := f.settings.Upsert(ctx, cam.SettingsUpdate{PropertyID: "p1", ReconciliationMonth: intPtr(3)})
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	second, err := f.settings.Upsert(ctx, cam.SettingsUpdate{PropertyID: "p1", ReconciliationMonth: intPtr(4)})
	require.NoError(t, err)

	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestSettings_RangeValidation(t *testing.T) {
	badEstimation := cam.EstimationMethod("GUESS")
	badMethod := cam.CalculationMethod("PER_HEAD")
	negative := dec("-1")
	overHundred := dec("100.01")

	tests := []struct {
		name   string
		update cam.SettingsUpdate
		field  string
	}{
		{"month zero", cam.SettingsUpdate{PropertyID: "p1", ReconciliationMonth: intPtr(0)}, "reconciliationMonth"},
		{"month thirteen", cam.SettingsUpdate{PropertyID: "p1", ReconciliationMonth: intPtr(13)}, "reconciliationMonth"},
		{"unknown estimation", cam.SettingsUpdate{PropertyID: "p1", EstimationMethod: &badEstimation}, "estimationMethod"},
		{"negative fee", cam.SettingsUpdate{PropertyID: "p1", AdminFeePercentage: &negative}, "adminFeePercentage"},
		{"fee over 100", cam.SettingsUpdate{PropertyID: "p1", AdminFeePercentage: &overHundred}, "adminFeePercentage"},
		{"unknown method", cam.SettingsUpdate{PropertyID: "p1", CalculationMethod: &badMethod}, "calculationMethod"},
		{"negative rate", cam.SettingsUpdate{PropertyID: "p1", FixedRatePerSquareMeter: &negative}, "fixedRatePerSquareMeter"},
		{"negative cost", cam.SettingsUpdate{PropertyID: "p1", TotalAnnualCost: &negative}, "totalAnnualCost"},
		{"missing property", cam.SettingsUpdate{ReconciliationMonth: intPtr(1)}, "propertyId"},
	}

	f := newFixture(t)
	f.seedProperty(t, "p1", 1000)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.settings.Upsert(context.Background(), tt.update)

			var vErr *cam.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}

	stored, err := f.store.GetSettings(context.Background(), "p1")
	require.NoError(t, err)
	assert.Nil(t, stored, "rejected updates write nothing")
}

func TestSettings_BoundaryValuesAccepted(t *testing.T) {
	f := newFixture(t)
	f.seedProperty(t, "p1", 1000)
	hundred := dec("100")

	for _, month := range []int{1, 12} {
		_, err := f.settings.Upsert(context.Background(), cam.SettingsUpdate{
			PropertyID:          "p1",
			ReconciliationMonth: intPtr(month),
			AdminFeePercentage:  &hundred,
		})
		assert.NoError(t, err, "month %d", month)
	}
}

func TestSettings_PropertyNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.settings.Upsert(context.Background(), cam.SettingsUpdate{PropertyID: "ghost", ReconciliationMonth: intPtr(1)})
	assert.ErrorIs(t, err, generic.ErrNotFound)

	_, err = f.settings.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, generic.ErrNotFound)
}
