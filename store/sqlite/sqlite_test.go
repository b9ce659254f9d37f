package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propmoney/cam-engine/cam"
	"github.com/propmoney/cam-engine/generic"
	"github.com/propmoney/cam-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var jan1 = generic.NewTimePoint(2025, time.January, 1)

func seedBuilding(t *testing.T, s *sqlite.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.CreateProperty(ctx, cam.Property{
		ID:             "p1",
		Name:           "Oslo Business Center",
		Address:        "Osloveien 123",
		TotalBRA:       generic.NewArea(4500),
		CommonAreaBRA:  generic.NewArea(500),
		LandlordUserID: "owner",
		ManagerUserIDs: []string{"m1", "m2"},
		CreatedAt:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}))
	for _, u := range []cam.Unit{
		{ID: "u1", PropertyID: "p1", UnitNumber: "A101", Floor: 1, BRA: generic.NewArea(300), CommonAreaFactor: generic.MustParseDecimal("1.15")},
		{ID: "u2", PropertyID: "p1", UnitNumber: "B205", Floor: 2, BRA: generic.NewArea(500), CommonAreaFactor: generic.MustParseDecimal("1.15")},
	} {
		require.NoError(t, s.CreateUnit(ctx, u))
	}
}

func createLease(t *testing.T, s *sqlite.Store, id cam.LeaseID, unit cam.UnitID, status cam.LeaseStatus, end *generic.TimePoint) {
	t.Helper()
	require.NoError(t, s.CreateLease(context.Background(), cam.Lease{
		ID: id, UnitID: unit, Status: status, StartDate: jan1, EndDate: end,
	}))
}

// =============================================================================
// REGISTRY
// =============================================================================

func TestStore_PropertyRoundTrip(t *testing.T) {
	s := newTestStore(t)
	seedBuilding(t, s)

	p, err := s.GetProperty(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, "Oslo Business Center", p.Name)
	assert.True(t, p.TotalBRA.Value.Equal(decimal.NewFromInt(4500)))
	assert.Equal(t, generic.UnitSquareMeters, p.TotalBRA.Unit)
	assert.ElementsMatch(t, []string{"m1", "m2"}, p.ManagerUserIDs)

	missing, err := s.GetProperty(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_DuplicateUnitNumber(t *testing.T) {
	s := newTestStore(t)
	seedBuilding(t, s)

	err := s.CreateUnit(context.Background(), cam.Unit{
		ID: "u3", PropertyID: "p1", UnitNumber: "A101", BRA: generic.NewArea(10), CommonAreaFactor: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, generic.ErrDuplicate)
}

func TestStore_CreateRejectsExistingIDs(t *testing.T) {
	s := newTestStore(t)
	seedBuilding(t, s)
	createLease(t, s, "l1", "u1", cam.LeaseActive, nil)
	ctx := context.Background()

	err := s.CreateProperty(ctx, cam.Property{
		ID: "p1", Name: "Taken", TotalBRA: generic.NewArea(10), LandlordUserID: "attacker",
	})
	assert.ErrorIs(t, err, generic.ErrDuplicate)

	err = s.CreateUnit(ctx, cam.Unit{
		ID: "u1", PropertyID: "p1", UnitNumber: "Z9", BRA: generic.NewArea(999), CommonAreaFactor: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, generic.ErrDuplicate)

	err = s.CreateLease(ctx, cam.Lease{ID: "l1", UnitID: "u2", Status: cam.LeasePending, StartDate: jan1})
	assert.ErrorIs(t, err, generic.ErrDuplicate)

	p, err := s.GetProperty(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "owner", p.LandlordUserID)
	assert.ElementsMatch(t, []string{"m1", "m2"}, p.ManagerUserIDs, "failed create leaves managers alone")

	u, err := s.GetUnit(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, u.BRA.Value.Equal(decimal.NewFromInt(300)))

	leases, err := s.ListLeases(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, leases, 1)
	assert.Equal(t, cam.LeaseActive, leases[0].Status)
}

func TestStore_UnitsWithActiveLeases(t *testing.T) {
	// GIVEN: A101 with an active, an ended and a pending lease; B205 vacant
	// WHEN: Reading on 2025-06-01
	// THEN: Both units come back, A101 with only the active lease

	s := newTestStore(t)
	seedBuilding(t, s)

	ended := generic.NewTimePoint(2025, time.May, 31)
	endsToday := generic.NewTimePoint(2025, time.June, 1)
	createLease(t, s, "l-active", "u1", cam.LeaseActive, nil)
	createLease(t, s, "l-ended", "u1", cam.LeaseActive, &ended)
	createLease(t, s, "l-pending", "u1", cam.LeasePending, nil)
	createLease(t, s, "l-today", "u1", cam.LeaseActive, &endsToday)

	units, err := s.UnitsWithActiveLeases(context.Background(), "p1", generic.NewTimePoint(2025, time.June, 1))
	require.NoError(t, err)
	require.Len(t, units, 2)

	assert.Equal(t, "A101", units[0].UnitNumber)
	assert.Equal(t, []cam.LeaseID{"l-active", "l-today"}, units[0].ActiveLeases)
	assert.True(t, units[0].BRA.Value.Equal(decimal.NewFromInt(300)))
	assert.True(t, units[0].CommonAreaFactor.Equal(generic.MustParseDecimal("1.15")))

	assert.Equal(t, "B205", units[1].UnitNumber)
	assert.Empty(t, units[1].ActiveLeases)
}

func TestStore_ListLeasesParsesDates(t *testing.T) {
	s := newTestStore(t)
	seedBuilding(t, s)
	end := generic.NewTimePoint(2027, time.December, 31)
	createLease(t, s, "l1", "u1", cam.LeaseActive, &end)

	leases, err := s.ListLeases(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, leases, 1)
	assert.Equal(t, jan1, leases[0].StartDate)
	require.NotNil(t, leases[0].EndDate)
	assert.Equal(t, end, *leases[0].EndDate)
}

// =============================================================================
// SETTINGS AND CHARGES
// =============================================================================

func TestStore_SettingsUpsertKeepsOneRow(t *testing.T) {
	s := newTestStore(t)
	seedBuilding(t, s)
	ctx := context.Background()

	first := cam.NewSettings("p1")
	require.NoError(t, s.UpsertSettings(ctx, first))

	second := cam.NewSettings("p1")
	method := cam.MethodActualCost
	cost := decimal.NewFromInt(720000)
	second.CalculationMethod = &method
	second.TotalAnnualCost = &cost
	second.AdminFeePercentage = generic.MustParseDecimal("7.5")
	require.NoError(t, s.UpsertSettings(ctx, second))

	got, err := s.GetSettings(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID, "the conflict target keeps the original row")
	require.NotNil(t, got.CalculationMethod)
	assert.Equal(t, cam.MethodActualCost, *got.CalculationMethod)
	require.NotNil(t, got.TotalAnnualCost)
	assert.True(t, got.TotalAnnualCost.Equal(cost))
	assert.Nil(t, got.FixedRatePerSquareMeter)
	assert.True(t, got.AdminFeePercentage.Equal(generic.MustParseDecimal("7.5")))
}

func TestStore_EndToEndSaveIsIdempotent(t *testing.T) {
	// GIVEN: The SQLite store behind the calculator and persister
	// WHEN: Saving the same FIXED_RATE calculation twice
	// THEN: One row per active lease, with stable ids

	s := newTestStore(t)
	seedBuilding(t, s)
	createLease(t, s, "l1", "u1", cam.LeaseActive, nil)
	ctx := context.Background()

	calc := cam.NewCalculator(s)
	calc.Clock = func() generic.TimePoint { return generic.NewTimePoint(2025, time.June, 1) }
	persister := cam.NewChargePersister(s)

	rate := decimal.NewFromInt(200)
	req := cam.CalculationRequest{PropertyID: "p1", Year: 2025, Method: cam.MethodFixedRate, FixedRatePerSquareMeter: &rate}

	var ids []string
	for i := 0; i < 2; i++ {
		result, err := calc.Calculate(ctx, req)
		require.NoError(t, err)
		n, err := persister.Save(ctx, result.ToSaveRequest())
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		charges, err := s.ListChargesByProperty(ctx, "p1", 2025)
		require.NoError(t, err)
		require.Len(t, charges, 1)
		ids = append(ids, charges[0].ID)
		assert.True(t, charges[0].AnnualEstimate.Value.Equal(decimal.NewFromInt(60000)))
		assert.True(t, charges[0].MonthlyEstimate.Value.Equal(decimal.NewFromInt(5000)))
		assert.False(t, charges[0].Reconciled)
	}
	assert.Equal(t, ids[0], ids[1])
}

func TestStore_ExpenseItems(t *testing.T) {
	s := newTestStore(t)
	seedBuilding(t, s)
	createLease(t, s, "l1", "u1", cam.LeaseActive, nil)
	ctx := context.Background()

	require.NoError(t, s.UpsertCharge(ctx, cam.CamCharge{
		ID: "c1", LeaseID: "l1", Year: 2025,
		AnnualEstimate: generic.NewMoney(1200), MonthlyEstimate: generic.NewMoney(100),
	}))
	require.NoError(t, s.AddExpenseItems(ctx, []cam.CamExpenseItem{
		{ID: "i1", CamChargeID: "c1", Category: "Cleaning", Estimate: generic.NewMoney(700)},
		{ID: "i2", CamChargeID: "c1", Category: "Energy", Description: "Common area lighting", Estimate: generic.NewMoney(500)},
	}))

	items, err := s.ListExpenseItems(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Cleaning", items[0].Category)
	assert.True(t, items[1].Estimate.Value.Equal(decimal.NewFromInt(500)))
}

func TestStore_ResetClearsEverything(t *testing.T) {
	s := newTestStore(t)
	seedBuilding(t, s)

	require.NoError(t, s.Reset(context.Background()))

	props, err := s.ListProperties(context.Background())
	require.NoError(t, err)
	assert.Empty(t, props)
}

// =============================================================================
// TRANSACTIONS (sqlmock)
// =============================================================================

func TestWithTx_RollsBackOnUpsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := sqlite.NewWithDB(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO cam_charges").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err = store.WithTx(ctx, func(tx cam.Store) error {
		return tx.UpsertCharge(ctx, cam.CamCharge{
			ID: "c1", LeaseID: "l1", Year: 2025,
			AnnualEstimate: generic.NewMoney(1200), MonthlyEstimate: generic.NewMoney(100),
		})
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upsert cam charge")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := sqlite.NewWithDB(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO cam_charges").
		WithArgs("c1", "l1", 2025, "100", "1200", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = store.WithTx(ctx, func(tx cam.Store) error {
		return tx.UpsertCharge(ctx, cam.CamCharge{
			ID: "c1", LeaseID: "l1", Year: 2025,
			AnnualEstimate: generic.NewMoney(1200), MonthlyEstimate: generic.NewMoney(100),
		})
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_BeginFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("database is locked"))

	called := false
	err = sqlite.NewWithDB(db).WithTx(context.Background(), func(cam.Store) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, called)
	assert.Contains(t, err.Error(), "failed to begin transaction")
}

func TestStore_CorruptDecimalIsAnError(t *testing.T) {
	// GIVEN: A unit row whose bra column holds non-numeric text
	// WHEN: Reading it
	// THEN: The read fails instead of yielding a zero area

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	columns := []string{"id", "property_id", "unit_number", "floor", "bra", "common_area_factor", "description", "created_at"}
	mock.ExpectQuery(`SELECT .* FROM units u WHERE u\.id = \?`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("u1", "p1", "A101", 1, "three hundred", "1.15", "", "2025-01-01T00:00:00Z"))

	s := sqlite.NewWithDB(db)
	u, err := s.GetUnit(context.Background(), "u1")

	assert.Nil(t, u)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `corrupt units.bra value "three hundred"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
