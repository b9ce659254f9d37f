/*
Package sqlite provides a SQLite-backed implementation of the cam storage interfaces.

PURPOSE:
  Implements cam.TxStore (registry, settings, charges, expense items)
  using SQLite. The same SQL runs on PostgreSQL with minor dialect changes
  (placeholders, boolean literals).

KEY TABLES:
  properties:         Buildings with total usable area (BRA)
  property_managers:  Users allowed to manage a property besides the landlord
  units:              Leasable units, unique (property_id, unit_number)
  leases:             Tenancies on units
  cam_settings:       One row per property (UNIQUE property_id)
  cam_charges:        One row per lease and year (UNIQUE lease_id, year)
  cam_expense_items:  Breakdown lines under a charge

UPSERTS:
  cam_settings and cam_charges are written with INSERT ... ON CONFLICT DO
  UPDATE, so a repeated save never creates a second row for the same key.
  Charge upserts leave reconciled and created_at untouched.

MONEY AND AREA:
  Stored as TEXT decimal strings and parsed back with shopspring/decimal.
  Dates are stored as YYYY-MM-DD so string comparison orders them.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. WithTx holds the write lock for the
  whole transaction. In-memory databases are pinned to one connection.

USAGE:
  store, err := sqlite.New("./data/cam.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool with versioned migrations.

SEE ALSO:
  - cam/store.go: Interface definitions
  - cam/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/propmoney/cam-engine/cam"
	"github.com/propmoney/cam-engine/generic"
)

// Store implements cam.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := NewWithDB(db)
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// NewWithDB wraps an already opened, already migrated database.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS properties (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT,
		total_bra TEXT NOT NULL,
		common_area_bra TEXT NOT NULL DEFAULT '0',
		landlord_user_id TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS property_managers (
		property_id TEXT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		PRIMARY KEY (property_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS units (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		unit_number TEXT NOT NULL,
		floor INTEGER NOT NULL DEFAULT 0,
		bra TEXT NOT NULL,
		common_area_factor TEXT NOT NULL DEFAULT '1',
		description TEXT,
		created_at TEXT NOT NULL,
		UNIQUE(property_id, unit_number)
	);

	CREATE INDEX IF NOT EXISTS idx_units_property
		ON units(property_id);

	CREATE TABLE IF NOT EXISTS leases (
		id TEXT PRIMARY KEY,
		unit_id TEXT NOT NULL REFERENCES units(id) ON DELETE CASCADE,
		tenant_name TEXT,
		status TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		created_at TEXT NOT NULL
	);

	-- Active-lease lookup for allocation (hot path)
	CREATE INDEX IF NOT EXISTS idx_leases_unit_status
		ON leases(unit_id, status, end_date);

	CREATE TABLE IF NOT EXISTS cam_settings (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL UNIQUE REFERENCES properties(id) ON DELETE CASCADE,
		reconciliation_month INTEGER NOT NULL DEFAULT 12,
		estimation_method TEXT NOT NULL DEFAULT 'PREVIOUS_YEAR',
		admin_fee_percentage TEXT NOT NULL DEFAULT '0',
		calculation_method TEXT,
		fixed_rate_per_sqm TEXT,
		total_annual_cost TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cam_charges (
		id TEXT PRIMARY KEY,
		lease_id TEXT NOT NULL REFERENCES leases(id) ON DELETE CASCADE,
		year INTEGER NOT NULL,
		monthly_estimate TEXT NOT NULL,
		annual_estimate TEXT NOT NULL,
		reconciled BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(lease_id, year)
	);

	CREATE INDEX IF NOT EXISTS idx_cam_charges_year
		ON cam_charges(year);

	CREATE TABLE IF NOT EXISTS cam_expense_items (
		id TEXT PRIMARY KEY,
		cam_charge_id TEXT NOT NULL REFERENCES cam_charges(id) ON DELETE CASCADE,
		category TEXT NOT NULL,
		description TEXT,
		estimate TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cam_expense_items_charge
		ON cam_expense_items(cam_charge_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds the SQL; Store and txStore decide locking and connection.
type queries struct {
	db dbtx
}

// =============================================================================
// REGISTRY
// =============================================================================

func (q queries) createProperty(ctx context.Context, p cam.Property) error {
	query := `
		INSERT INTO properties (id, name, address, total_bra, common_area_bra, landlord_user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Address,
		p.TotalBRA.Value.String(), p.CommonAreaBRA.Value.String(),
		p.LandlordUserID, formatTime(p.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicate
		}
		return fmt.Errorf("failed to create property: %w", err)
	}

	for _, userID := range p.ManagerUserIDs {
		if _, err := q.db.ExecContext(ctx,
			`INSERT INTO property_managers (property_id, user_id) VALUES (?, ?)`, p.ID, userID); err != nil {
			return fmt.Errorf("failed to add property manager: %w", err)
		}
	}
	return nil
}

func (q queries) getProperty(ctx context.Context, id cam.PropertyID) (*cam.Property, error) {
	query := `
		SELECT id, name, COALESCE(address, ''), total_bra, common_area_bra, landlord_user_id, created_at
		FROM properties WHERE id = ?
	`
	p, err := scanProperty(q.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	managers, err := q.propertyManagers(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.ManagerUserIDs = managers
	return &p, nil
}

func (q queries) listProperties(ctx context.Context) ([]cam.Property, error) {
	query := `
		SELECT id, name, COALESCE(address, ''), total_bra, common_area_bra, landlord_user_id, created_at
		FROM properties ORDER BY name
	`
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	var props []cam.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		props = append(props, p)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	for i := range props {
		managers, err := q.propertyManagers(ctx, props[i].ID)
		if err != nil {
			return nil, err
		}
		props[i].ManagerUserIDs = managers
	}
	return props, nil
}

func (q queries) propertyManagers(ctx context.Context, id cam.PropertyID) ([]string, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT user_id FROM property_managers WHERE property_id = ? ORDER BY user_id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (q queries) createUnit(ctx context.Context, u cam.Unit) error {
	query := `
		INSERT INTO units (id, property_id, unit_number, floor, bra, common_area_factor, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.db.ExecContext(ctx, query,
		u.ID, u.PropertyID, u.UnitNumber, u.Floor,
		u.BRA.Value.String(), u.CommonAreaFactor.String(),
		nullString(u.Description), formatTime(u.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicate
		}
		return fmt.Errorf("failed to create unit: %w", err)
	}
	return nil
}

const unitColumns = `u.id, u.property_id, u.unit_number, u.floor, u.bra, u.common_area_factor,
		       COALESCE(u.description, ''), u.created_at`

func (q queries) getUnit(ctx context.Context, id cam.UnitID) (*cam.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM units u WHERE u.id = ?`
	u, err := scanUnit(q.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (q queries) listUnits(ctx context.Context, propertyID cam.PropertyID) ([]cam.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM units u WHERE u.property_id = ? ORDER BY u.unit_number`
	rows, err := q.db.QueryContext(ctx, query, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []cam.Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// unitsWithActiveLeases reads units and their active leases in one joined query.
func (q queries) unitsWithActiveLeases(ctx context.Context, propertyID cam.PropertyID, asOf generic.TimePoint) ([]cam.UnitWithLeases, error) {
	query := `
		SELECT ` + unitColumns + `, l.id
		FROM units u
		LEFT JOIN leases l
			ON l.unit_id = u.id
			AND l.status = 'ACTIVE'
			AND (l.end_date IS NULL OR l.end_date >= ?)
		WHERE u.property_id = ?
		ORDER BY u.unit_number, l.id
	`
	rows, err := q.db.QueryContext(ctx, query, asOf.String(), propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []cam.UnitWithLeases
	for rows.Next() {
		var (
			u       cam.Unit
			bra     string
			factor  string
			created string
			leaseID sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.PropertyID, &u.UnitNumber, &u.Floor, &bra, &factor,
			&u.Description, &created, &leaseID); err != nil {
			return nil, err
		}
		if n := len(result); n == 0 || result[n-1].ID != u.ID {
			var d decimals
			u.BRA = d.amount("units.bra", bra, generic.UnitSquareMeters)
			u.CommonAreaFactor = d.parse("units.common_area_factor", factor)
			if d.err != nil {
				return nil, d.err
			}
			u.CreatedAt = parseTime(created)
			result = append(result, cam.UnitWithLeases{Unit: u})
		}
		if leaseID.Valid {
			last := &result[len(result)-1]
			last.ActiveLeases = append(last.ActiveLeases, cam.LeaseID(leaseID.String))
		}
	}
	return result, rows.Err()
}

func (q queries) createLease(ctx context.Context, l cam.Lease) error {
	query := `
		INSERT INTO leases (id, unit_id, tenant_name, status, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	var end sql.NullString
	if l.EndDate != nil {
		end = sql.NullString{String: l.EndDate.String(), Valid: true}
	}
	_, err := q.db.ExecContext(ctx, query,
		l.ID, l.UnitID, nullString(l.TenantName), l.Status,
		l.StartDate.String(), end, formatTime(l.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicate
		}
		return fmt.Errorf("failed to create lease: %w", err)
	}
	return nil
}

func (q queries) listLeases(ctx context.Context, unitID cam.UnitID) ([]cam.Lease, error) {
	query := `
		SELECT id, unit_id, COALESCE(tenant_name, ''), status, start_date, end_date, created_at
		FROM leases WHERE unit_id = ? ORDER BY start_date
	`
	rows, err := q.db.QueryContext(ctx, query, unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leases []cam.Lease
	for rows.Next() {
		var (
			l       cam.Lease
			start   string
			end     sql.NullString
			created string
		)
		if err := rows.Scan(&l.ID, &l.UnitID, &l.TenantName, &l.Status, &start, &end, &created); err != nil {
			return nil, err
		}
		l.StartDate, _ = generic.ParseDate(start)
		if end.Valid {
			if tp, err := generic.ParseDate(end.String); err == nil {
				l.EndDate = &tp
			}
		}
		l.CreatedAt = parseTime(created)
		leases = append(leases, l)
	}
	return leases, rows.Err()
}

// =============================================================================
// SETTINGS
// =============================================================================

func (q queries) getSettings(ctx context.Context, propertyID cam.PropertyID) (*cam.CamSettings, error) {
	query := `
		SELECT id, property_id, reconciliation_month, estimation_method, admin_fee_percentage,
		       calculation_method, fixed_rate_per_sqm, total_annual_cost, created_at, updated_at
		FROM cam_settings WHERE property_id = ?
	`
	var (
		st                   cam.CamSettings
		fee                  string
		method, rate, cost   sql.NullString
		createdAt, updatedAt string
	)
	err := q.db.QueryRowContext(ctx, query, propertyID).Scan(
		&st.ID, &st.PropertyID, &st.ReconciliationMonth, &st.EstimationMethod, &fee,
		&method, &rate, &cost, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var d decimals
	st.AdminFeePercentage = d.parse("cam_settings.admin_fee_percentage", fee)
	if method.Valid {
		m := cam.CalculationMethod(method.String)
		st.CalculationMethod = &m
	}
	if rate.Valid {
		r := d.parse("cam_settings.fixed_rate_per_sqm", rate.String)
		st.FixedRatePerSquareMeter = &r
	}
	if cost.Valid {
		c := d.parse("cam_settings.total_annual_cost", cost.String)
		st.TotalAnnualCost = &c
	}
	if d.err != nil {
		return nil, d.err
	}
	st.CreatedAt = parseTime(createdAt)
	st.UpdatedAt = parseTime(updatedAt)
	return &st, nil
}

func (q queries) upsertSettings(ctx context.Context, st cam.CamSettings) error {
	query := `
		INSERT INTO cam_settings
		(id, property_id, reconciliation_month, estimation_method, admin_fee_percentage,
		 calculation_method, fixed_rate_per_sqm, total_annual_cost, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(property_id) DO UPDATE SET
			reconciliation_month = excluded.reconciliation_month,
			estimation_method = excluded.estimation_method,
			admin_fee_percentage = excluded.admin_fee_percentage,
			calculation_method = excluded.calculation_method,
			fixed_rate_per_sqm = excluded.fixed_rate_per_sqm,
			total_annual_cost = excluded.total_annual_cost,
			updated_at = excluded.updated_at
	`
	var method, rate, cost sql.NullString
	if st.CalculationMethod != nil {
		method = sql.NullString{String: string(*st.CalculationMethod), Valid: true}
	}
	if st.FixedRatePerSquareMeter != nil {
		rate = sql.NullString{String: st.FixedRatePerSquareMeter.String(), Valid: true}
	}
	if st.TotalAnnualCost != nil {
		cost = sql.NullString{String: st.TotalAnnualCost.String(), Valid: true}
	}

	_, err := q.db.ExecContext(ctx, query,
		st.ID, st.PropertyID, st.ReconciliationMonth, st.EstimationMethod,
		st.AdminFeePercentage.String(), method, rate, cost,
		formatTime(st.CreatedAt), formatTime(st.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cam settings: %w", err)
	}
	return nil
}

// =============================================================================
// CHARGES
// =============================================================================

func (q queries) upsertCharge(ctx context.Context, c cam.CamCharge) error {
	query := `
		INSERT INTO cam_charges
		(id, lease_id, year, monthly_estimate, annual_estimate, reconciled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, FALSE, ?, ?)
		ON CONFLICT(lease_id, year) DO UPDATE SET
			monthly_estimate = excluded.monthly_estimate,
			annual_estimate = excluded.annual_estimate,
			updated_at = excluded.updated_at
	`
	_, err := q.db.ExecContext(ctx, query,
		c.ID, c.LeaseID, c.Year,
		c.MonthlyEstimate.Value.String(), c.AnnualEstimate.Value.String(),
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cam charge: %w", err)
	}
	return nil
}

const chargeColumns = `c.id, c.lease_id, c.year, c.monthly_estimate, c.annual_estimate,
		       c.reconciled, c.created_at, c.updated_at`

func (q queries) getCharge(ctx context.Context, leaseID cam.LeaseID, year int) (*cam.CamCharge, error) {
	query := `SELECT ` + chargeColumns + ` FROM cam_charges c WHERE c.lease_id = ? AND c.year = ?`
	c, err := scanCharge(q.db.QueryRowContext(ctx, query, leaseID, year))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (q queries) listChargesByLease(ctx context.Context, leaseID cam.LeaseID) ([]cam.CamCharge, error) {
	query := `SELECT ` + chargeColumns + ` FROM cam_charges c WHERE c.lease_id = ? ORDER BY c.year`
	return q.queryCharges(ctx, query, leaseID)
}

func (q queries) listChargesByProperty(ctx context.Context, propertyID cam.PropertyID, year int) ([]cam.CamCharge, error) {
	query := `
		SELECT ` + chargeColumns + `
		FROM cam_charges c
		JOIN leases l ON l.id = c.lease_id
		JOIN units u ON u.id = l.unit_id
		WHERE u.property_id = ? AND c.year = ?
		ORDER BY c.lease_id
	`
	return q.queryCharges(ctx, query, propertyID, year)
}

func (q queries) queryCharges(ctx context.Context, query string, args ...any) ([]cam.CamCharge, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var charges []cam.CamCharge
	for rows.Next() {
		c, err := scanCharge(rows)
		if err != nil {
			return nil, err
		}
		charges = append(charges, c)
	}
	return charges, rows.Err()
}

func (q queries) addExpenseItems(ctx context.Context, items []cam.CamExpenseItem) error {
	query := `
		INSERT INTO cam_expense_items (id, cam_charge_id, category, description, estimate)
		VALUES (?, ?, ?, ?, ?)
	`
	for _, item := range items {
		if _, err := q.db.ExecContext(ctx, query,
			item.ID, item.CamChargeID, item.Category, nullString(item.Description),
			item.Estimate.Value.String(),
		); err != nil {
			return fmt.Errorf("failed to add cam expense item: %w", err)
		}
	}
	return nil
}

func (q queries) listExpenseItems(ctx context.Context, chargeID string) ([]cam.CamExpenseItem, error) {
	query := `
		SELECT id, cam_charge_id, category, COALESCE(description, ''), estimate
		FROM cam_expense_items WHERE cam_charge_id = ? ORDER BY category, id
	`
	rows, err := q.db.QueryContext(ctx, query, chargeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []cam.CamExpenseItem
	for rows.Next() {
		var (
			item     cam.CamExpenseItem
			estimate string
		)
		if err := rows.Scan(&item.ID, &item.CamChargeID, &item.Category, &item.Description, &estimate); err != nil {
			return nil, err
		}
		var d decimals
		item.Estimate = d.amount("cam_expense_items.estimate", estimate, generic.UnitCurrency)
		if d.err != nil {
			return nil, d.err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// =============================================================================
// SCANNERS
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanProperty(row scanner) (cam.Property, error) {
	var (
		p             cam.Property
		total, common string
		created       string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Address, &total, &common, &p.LandlordUserID, &created); err != nil {
		return cam.Property{}, err
	}
	var d decimals
	p.TotalBRA = d.amount("properties.total_bra", total, generic.UnitSquareMeters)
	p.CommonAreaBRA = d.amount("properties.common_area_bra", common, generic.UnitSquareMeters)
	p.CreatedAt = parseTime(created)
	return p, d.err
}

func scanUnit(row scanner) (cam.Unit, error) {
	var (
		u       cam.Unit
		bra     string
		factor  string
		created string
	)
	if err := row.Scan(&u.ID, &u.PropertyID, &u.UnitNumber, &u.Floor, &bra, &factor, &u.Description, &created); err != nil {
		return cam.Unit{}, err
	}
	var d decimals
	u.BRA = d.amount("units.bra", bra, generic.UnitSquareMeters)
	u.CommonAreaFactor = d.parse("units.common_area_factor", factor)
	u.CreatedAt = parseTime(created)
	return u, d.err
}

func scanCharge(row scanner) (cam.CamCharge, error) {
	var (
		c                    cam.CamCharge
		monthly, annual      string
		createdAt, updatedAt string
	)
	if err := row.Scan(&c.ID, &c.LeaseID, &c.Year, &monthly, &annual, &c.Reconciled, &createdAt, &updatedAt); err != nil {
		return cam.CamCharge{}, err
	}
	var d decimals
	c.MonthlyEstimate = d.amount("cam_charges.monthly_estimate", monthly, generic.UnitCurrency)
	c.AnnualEstimate = d.amount("cam_charges.annual_estimate", annual, generic.UnitCurrency)
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return c, d.err
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for demo scenarios).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"cam_expense_items", "cam_charges", "cam_settings", "leases", "units", "property_managers", "properties"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// decimals parses stored TEXT decimals and keeps the first failure.
type decimals struct {
	err error
}

func (d *decimals) parse(column, value string) decimal.Decimal {
	v, err := decimal.NewFromString(value)
	if err != nil && d.err == nil {
		d.err = fmt.Errorf("corrupt %s value %q: %w", column, value, err)
	}
	return v
}

func (d *decimals) amount(column, value string, unit generic.Unit) generic.Amount {
	return generic.NewAmountFromDecimal(d.parse(column, value), unit)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
