/*
store.go - Persistence interfaces for the CAM domain

PURPOSE:
  Defines the boundary between CAM logic and the database. The engine
  only reads (Registry); the settings service and the charge persister
  write through ChargeStore / SettingsStore inside a transaction.

KEY INTERFACES:
  Registry:      Read properties and units with their active leases
  RegistryStore: Registry plus the writes that feed it (seeding, CRUD glue)
  SettingsStore: One CamSettings row per property
  ChargeStore:   One CamCharge row per (lease, year), plus expense items
  TxStore:       Runs a function over a transactional Store view

UPSERT CONTRACT:
  UpsertSettings and UpsertCharge never create a second row for the same
  key. Concurrent writers to the same key are last-write-wins.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - cam/store/memory.go:    In-memory for testing

SEE ALSO:
  - persister.go: Uses TxStore for atomic saves
  - engine.go:    Uses Registry
*/
package cam

import (
	"context"

	"github.com/propmoney/cam-engine/generic"
)

// Registry is the read side the engine depends on.
type Registry interface {
	// GetProperty returns (nil, nil) when the property does not exist.
	GetProperty(ctx context.Context, id PropertyID) (*Property, error)

	// UnitsWithActiveLeases returns every unit of the property, each with the
	// ids of leases active on asOf. Units without an active lease are included.
	UnitsWithActiveLeases(ctx context.Context, propertyID PropertyID, asOf generic.TimePoint) ([]UnitWithLeases, error)
}

// RegistryStore adds the registry writes used by the API and demo scenarios.
type RegistryStore interface {
	Registry

	// Create* insert new rows and return generic.ErrDuplicate when the id exists.
	CreateProperty(ctx context.Context, p Property) error
	ListProperties(ctx context.Context) ([]Property, error)

	// CreateUnit also returns generic.ErrDuplicate when the unit number is taken.
	CreateUnit(ctx context.Context, u Unit) error
	GetUnit(ctx context.Context, id UnitID) (*Unit, error)
	ListUnits(ctx context.Context, propertyID PropertyID) ([]Unit, error)

	CreateLease(ctx context.Context, l Lease) error
	ListLeases(ctx context.Context, unitID UnitID) ([]Lease, error)
}

// SettingsStore persists CamSettings keyed by property.
type SettingsStore interface {
	// GetSettings returns (nil, nil) when no row exists.
	GetSettings(ctx context.Context, propertyID PropertyID) (*CamSettings, error)
	UpsertSettings(ctx context.Context, s CamSettings) error
}

// ChargeStore persists CamCharge rows keyed by (lease, year).
type ChargeStore interface {
	// UpsertCharge updates the estimates of an existing (lease, year) row or
	// creates it. Reconciled and CreatedAt are preserved on update.
	UpsertCharge(ctx context.Context, c CamCharge) error
	GetCharge(ctx context.Context, leaseID LeaseID, year int) (*CamCharge, error)
	ListChargesByLease(ctx context.Context, leaseID LeaseID) ([]CamCharge, error)
	ListChargesByProperty(ctx context.Context, propertyID PropertyID, year int) ([]CamCharge, error)

	AddExpenseItems(ctx context.Context, items []CamExpenseItem) error
	ListExpenseItems(ctx context.Context, chargeID string) ([]CamExpenseItem, error)
}

// Store is everything a transaction can touch.
type Store interface {
	RegistryStore
	SettingsStore
	ChargeStore
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
