package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/propmoney/cam-engine/cam"
	"github.com/propmoney/cam-engine/generic"
)

// =============================================================================
// LOCKED ACCESS (cam.Store interface)
// =============================================================================

func (s *Store) q() queries { return queries{db: s.db} }

func (s *Store) CreateProperty(ctx context.Context, p cam.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Property row and manager rows change together.
	return s.withSQLTx(ctx, func(q queries) error { return q.createProperty(ctx, p) })
}

func (s *Store) GetProperty(ctx context.Context, id cam.PropertyID) (*cam.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q().getProperty(ctx, id)
}

func (s *Store) ListProperties(ctx context.Context) ([]cam.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q().listProperties(ctx)
}

func (s *Store) CreateUnit(ctx context.Context, u cam.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().createUnit(ctx, u)
}

func (s *Store) GetUnit(ctx context.Context, id cam.UnitID) (*cam.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q().getUnit(ctx, id)
}

func (s *Store) ListUnits(ctx context.Context, propertyID cam.PropertyID) ([]cam.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q().listUnits(ctx, propertyID)
}

func (s *Store) UnitsWithActiveLeases(ctx context.Context, propertyID cam.PropertyID, asOf generic.TimePoint) ([]cam.UnitWithLeases, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q().unitsWithActiveLeases(ctx, propertyID, asOf)
}

func (s *Store) CreateLease(ctx context.Context, l cam.Lease) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().createLease(ctx, l)
}

func (s *Store) ListLeases(ctx context.Context, unitID cam.UnitID) ([]cam.Lease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q().listLeases(ctx, unitID)
}

func (s *Store) GetSettings(ctx context.Context, propertyID cam.PropertyID) (*cam.CamSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q().getSettings(ctx, propertyID)
}

func (s *Store) UpsertSettings(ctx context.Context, st cam.CamSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().upsertSettings(ctx, st)
}

func (s *Store) UpsertCharge(ctx context.Context, c cam.CamCharge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().upsertCharge(ctx, c)
}

func (s *Store) GetCharge(ctx context.Context, leaseID cam.LeaseID, year int) (*cam.CamCharge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q().getCharge(ctx, leaseID, year)
}

func (s *Store) ListChargesByLease(ctx context.Context, leaseID cam.LeaseID) ([]cam.CamCharge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q().listChargesByLease(ctx, leaseID)
}

func (s *Store) ListChargesByProperty(ctx context.Context, propertyID cam.PropertyID, year int) ([]cam.CamCharge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q().listChargesByProperty(ctx, propertyID, year)
}

func (s *Store) AddExpenseItems(ctx context.Context, items []cam.CamExpenseItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withSQLTx(ctx, func(q queries) error { return q.addExpenseItems(ctx, items) })
}

func (s *Store) ListExpenseItems(ctx context.Context, chargeID string) ([]cam.CamExpenseItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q().listExpenseItems(ctx, chargeID)
}

// =============================================================================
// TRANSACTIONAL STORE (cam.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(cam.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withSQLTx(ctx, func(q queries) error {
		return fn(&txStore{q: q})
	})
}

// withSQLTx must be called with the write lock held.
func (s *Store) withSQLTx(ctx context.Context, fn func(queries) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(queries{db: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore is the cam.Store view handed to WithTx callbacks.
type txStore struct {
	q queries
}

var _ dbtx = (*sql.Tx)(nil)

func (ts *txStore) CreateProperty(ctx context.Context, p cam.Property) error {
	return ts.q.createProperty(ctx, p)
}

func (ts *txStore) GetProperty(ctx context.Context, id cam.PropertyID) (*cam.Property, error) {
	return ts.q.getProperty(ctx, id)
}

func (ts *txStore) ListProperties(ctx context.Context) ([]cam.Property, error) {
	return ts.q.listProperties(ctx)
}

func (ts *txStore) CreateUnit(ctx context.Context, u cam.Unit) error {
	return ts.q.createUnit(ctx, u)
}

func (ts *txStore) GetUnit(ctx context.Context, id cam.UnitID) (*cam.Unit, error) {
	return ts.q.getUnit(ctx, id)
}

func (ts *txStore) ListUnits(ctx context.Context, propertyID cam.PropertyID) ([]cam.Unit, error) {
	return ts.q.listUnits(ctx, propertyID)
}

func (ts *txStore) UnitsWithActiveLeases(ctx context.Context, propertyID cam.PropertyID, asOf generic.TimePoint) ([]cam.UnitWithLeases, error) {
	return ts.q.unitsWithActiveLeases(ctx, propertyID, asOf)
}

func (ts *txStore) CreateLease(ctx context.Context, l cam.Lease) error {
	return ts.q.createLease(ctx, l)
}

func (ts *txStore) ListLeases(ctx context.Context, unitID cam.UnitID) ([]cam.Lease, error) {
	return ts.q.listLeases(ctx, unitID)
}

func (ts *txStore) GetSettings(ctx context.Context, propertyID cam.PropertyID) (*cam.CamSettings, error) {
	return ts.q.getSettings(ctx, propertyID)
}

func (ts *txStore) UpsertSettings(ctx context.Context, st cam.CamSettings) error {
	return ts.q.upsertSettings(ctx, st)
}

func (ts *txStore) UpsertCharge(ctx context.Context, c cam.CamCharge) error {
	return ts.q.upsertCharge(ctx, c)
}

func (ts *txStore) GetCharge(ctx context.Context, leaseID cam.LeaseID, year int) (*cam.CamCharge, error) {
	return ts.q.getCharge(ctx, leaseID, year)
}

func (ts *txStore) ListChargesByLease(ctx context.Context, leaseID cam.LeaseID) ([]cam.CamCharge, error) {
	return ts.q.listChargesByLease(ctx, leaseID)
}

func (ts *txStore) ListChargesByProperty(ctx context.Context, propertyID cam.PropertyID, year int) ([]cam.CamCharge, error) {
	return ts.q.listChargesByProperty(ctx, propertyID, year)
}

func (ts *txStore) AddExpenseItems(ctx context.Context, items []cam.CamExpenseItem) error {
	return ts.q.addExpenseItems(ctx, items)
}

func (ts *txStore) ListExpenseItems(ctx context.Context, chargeID string) ([]cam.CamExpenseItem, error) {
	return ts.q.listExpenseItems(ctx, chargeID)
}

var (
	_ cam.TxStore = (*Store)(nil)
	_ cam.Store   = (*txStore)(nil)
)
