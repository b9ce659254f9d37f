// Package store provides in-memory cam.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/propmoney/cam-engine/cam"
	"github.com/propmoney/cam-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	properties map[cam.PropertyID]cam.Property
	units      map[cam.UnitID]cam.Unit
	leases     map[cam.LeaseID]cam.Lease
	settings   map[cam.PropertyID]cam.CamSettings
	charges    map[chargeKey]cam.CamCharge
	items      map[string][]cam.CamExpenseItem
}

type chargeKey struct {
	LeaseID cam.LeaseID
	Year    int
}

func NewMemory() *Memory {
	m := &Memory{}
	m.reset()
	return m
}

func (m *Memory) reset() {
	m.properties = make(map[cam.PropertyID]cam.Property)
	m.units = make(map[cam.UnitID]cam.Unit)
	m.leases = make(map[cam.LeaseID]cam.Lease)
	m.settings = make(map[cam.PropertyID]cam.CamSettings)
	m.charges = make(map[chargeKey]cam.CamCharge)
	m.items = make(map[string][]cam.CamExpenseItem)
}

// Reset clears all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
	return nil
}

// =============================================================================
// REGISTRY
// =============================================================================

func (m *Memory) CreateProperty(_ context.Context, p cam.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createProperty(p)
}

func (m *Memory) createProperty(p cam.Property) error {
	if _, ok := m.properties[p.ID]; ok {
		return generic.ErrDuplicate
	}
	p.ManagerUserIDs = append([]string(nil), p.ManagerUserIDs...)
	m.properties[p.ID] = p
	return nil
}

func (m *Memory) GetProperty(_ context.Context, id cam.PropertyID) (*cam.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getProperty(id), nil
}

func (m *Memory) getProperty(id cam.PropertyID) *cam.Property {
	p, ok := m.properties[id]
	if !ok {
		return nil
	}
	p.ManagerUserIDs = append([]string(nil), p.ManagerUserIDs...)
	return &p
}

func (m *Memory) ListProperties(_ context.Context) ([]cam.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]cam.Property, 0, len(m.properties))
	for id := range m.properties {
		result = append(result, *m.getProperty(id))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *Memory) CreateUnit(_ context.Context, u cam.Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createUnit(u)
}

func (m *Memory) createUnit(u cam.Unit) error {
	if _, ok := m.units[u.ID]; ok {
		return generic.ErrDuplicate
	}
	for _, existing := range m.units {
		if existing.PropertyID == u.PropertyID && existing.UnitNumber == u.UnitNumber {
			return generic.ErrDuplicate
		}
	}
	m.units[u.ID] = u
	return nil
}

func (m *Memory) GetUnit(_ context.Context, id cam.UnitID) (*cam.Unit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.units[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *Memory) ListUnits(_ context.Context, propertyID cam.PropertyID) ([]cam.Unit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listUnits(propertyID), nil
}

func (m *Memory) listUnits(propertyID cam.PropertyID) []cam.Unit {
	var result []cam.Unit
	for _, u := range m.units {
		if u.PropertyID == propertyID {
			result = append(result, u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UnitNumber < result[j].UnitNumber })
	return result
}

func (m *Memory) UnitsWithActiveLeases(_ context.Context, propertyID cam.PropertyID, asOf generic.TimePoint) ([]cam.UnitWithLeases, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	units := m.listUnits(propertyID)
	result := make([]cam.UnitWithLeases, len(units))
	for i, u := range units {
		result[i] = cam.UnitWithLeases{Unit: u}
		for _, l := range m.leases {
			if l.UnitID == u.ID && l.IsActiveOn(asOf) {
				result[i].ActiveLeases = append(result[i].ActiveLeases, l.ID)
			}
		}
	}
	return result, nil
}

func (m *Memory) CreateLease(_ context.Context, l cam.Lease) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLease(l)
}

func (m *Memory) createLease(l cam.Lease) error {
	if _, ok := m.units[l.UnitID]; !ok {
		return generic.ErrNotFound
	}
	if _, ok := m.leases[l.ID]; ok {
		return generic.ErrDuplicate
	}
	m.leases[l.ID] = l
	return nil
}

func (m *Memory) ListLeases(_ context.Context, unitID cam.UnitID) ([]cam.Lease, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []cam.Lease
	for _, l := range m.leases {
		if l.UnitID == unitID {
			result = append(result, l)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.Before(result[j].StartDate) })
	return result, nil
}

// =============================================================================
// SETTINGS
// =============================================================================

func (m *Memory) GetSettings(_ context.Context, propertyID cam.PropertyID) (*cam.CamSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getSettings(propertyID), nil
}

func (m *Memory) getSettings(propertyID cam.PropertyID) *cam.CamSettings {
	s, ok := m.settings[propertyID]
	if !ok {
		return nil
	}
	return &s
}

func (m *Memory) UpsertSettings(_ context.Context, s cam.CamSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertSettings(s)
}

func (m *Memory) upsertSettings(s cam.CamSettings) error {
	if _, ok := m.properties[s.PropertyID]; !ok {
		return generic.ErrNotFound
	}
	if existing, ok := m.settings[s.PropertyID]; ok {
		s.ID = existing.ID
		s.CreatedAt = existing.CreatedAt
	}
	m.settings[s.PropertyID] = s
	return nil
}

// =============================================================================
// CHARGES
// =============================================================================

func (m *Memory) UpsertCharge(_ context.Context, c cam.CamCharge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertCharge(c)
}

func (m *Memory) upsertCharge(c cam.CamCharge) error {
	if _, ok := m.leases[c.LeaseID]; !ok {
		return generic.ErrNotFound
	}
	k := chargeKey{LeaseID: c.LeaseID, Year: c.Year}
	if existing, ok := m.charges[k]; ok {
		existing.MonthlyEstimate = c.MonthlyEstimate
		existing.AnnualEstimate = c.AnnualEstimate
		existing.UpdatedAt = c.UpdatedAt
		m.charges[k] = existing
		return nil
	}
	c.Reconciled = false
	m.charges[k] = c
	return nil
}

func (m *Memory) GetCharge(_ context.Context, leaseID cam.LeaseID, year int) (*cam.CamCharge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getCharge(leaseID, year), nil
}

func (m *Memory) getCharge(leaseID cam.LeaseID, year int) *cam.CamCharge {
	c, ok := m.charges[chargeKey{LeaseID: leaseID, Year: year}]
	if !ok {
		return nil
	}
	return &c
}

func (m *Memory) ListChargesByLease(_ context.Context, leaseID cam.LeaseID) ([]cam.CamCharge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []cam.CamCharge
	for k, c := range m.charges {
		if k.LeaseID == leaseID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Year < result[j].Year })
	return result, nil
}

func (m *Memory) ListChargesByProperty(_ context.Context, propertyID cam.PropertyID, year int) ([]cam.CamCharge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []cam.CamCharge
	for k, c := range m.charges {
		if k.Year != year {
			continue
		}
		lease, ok := m.leases[k.LeaseID]
		if !ok {
			continue
		}
		if unit, ok := m.units[lease.UnitID]; ok && unit.PropertyID == propertyID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LeaseID < result[j].LeaseID })
	return result, nil
}

func (m *Memory) AddExpenseItems(_ context.Context, items []cam.CamExpenseItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addExpenseItems(items)
}

func (m *Memory) addExpenseItems(items []cam.CamExpenseItem) error {
	for _, item := range items {
		m.items[item.CamChargeID] = append(m.items[item.CamChargeID], item)
	}
	return nil
}

func (m *Memory) ListExpenseItems(_ context.Context, chargeID string) ([]cam.CamExpenseItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]cam.CamExpenseItem(nil), m.items[chargeID]...), nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(cam.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()

	if err := fn(&txMemoryView{parent: tm.Memory}); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	properties map[cam.PropertyID]cam.Property
	units      map[cam.UnitID]cam.Unit
	leases     map[cam.LeaseID]cam.Lease
	settings   map[cam.PropertyID]cam.CamSettings
	charges    map[chargeKey]cam.CamCharge
	items      map[string][]cam.CamExpenseItem
}

func (tm *TxMemory) snapshot() memorySnapshot {
	s := memorySnapshot{
		properties: make(map[cam.PropertyID]cam.Property, len(tm.properties)),
		units:      make(map[cam.UnitID]cam.Unit, len(tm.units)),
		leases:     make(map[cam.LeaseID]cam.Lease, len(tm.leases)),
		settings:   make(map[cam.PropertyID]cam.CamSettings, len(tm.settings)),
		charges:    make(map[chargeKey]cam.CamCharge, len(tm.charges)),
		items:      make(map[string][]cam.CamExpenseItem, len(tm.items)),
	}
	for k, v := range tm.properties {
		s.properties[k] = v
	}
	for k, v := range tm.units {
		s.units[k] = v
	}
	for k, v := range tm.leases {
		s.leases[k] = v
	}
	for k, v := range tm.settings {
		s.settings[k] = v
	}
	for k, v := range tm.charges {
		s.charges[k] = v
	}
	for k, v := range tm.items {
		s.items[k] = append([]cam.CamExpenseItem(nil), v...)
	}
	return s
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.properties = s.properties
	tm.units = s.units
	tm.leases = s.leases
	tm.settings = s.settings
	tm.charges = s.charges
	tm.items = s.items
}

// txMemoryView runs under the parent's write lock, so it calls the unlocked helpers.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) GetProperty(_ context.Context, id cam.PropertyID) (*cam.Property, error) {
	return tv.parent.getProperty(id), nil
}

func (tv *txMemoryView) UnitsWithActiveLeases(_ context.Context, propertyID cam.PropertyID, asOf generic.TimePoint) ([]cam.UnitWithLeases, error) {
	units := tv.parent.listUnits(propertyID)
	result := make([]cam.UnitWithLeases, len(units))
	for i, u := range units {
		result[i] = cam.UnitWithLeases{Unit: u}
		for _, l := range tv.parent.leases {
			if l.UnitID == u.ID && l.IsActiveOn(asOf) {
				result[i].ActiveLeases = append(result[i].ActiveLeases, l.ID)
			}
		}
	}
	return result, nil
}

func (tv *txMemoryView) CreateProperty(_ context.Context, p cam.Property) error {
	return tv.parent.createProperty(p)
}

func (tv *txMemoryView) ListProperties(_ context.Context) ([]cam.Property, error) {
	result := make([]cam.Property, 0, len(tv.parent.properties))
	for id := range tv.parent.properties {
		result = append(result, *tv.parent.getProperty(id))
	}
	return result, nil
}

func (tv *txMemoryView) CreateUnit(_ context.Context, u cam.Unit) error {
	return tv.parent.createUnit(u)
}

func (tv *txMemoryView) GetUnit(_ context.Context, id cam.UnitID) (*cam.Unit, error) {
	u, ok := tv.parent.units[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (tv *txMemoryView) ListUnits(_ context.Context, propertyID cam.PropertyID) ([]cam.Unit, error) {
	return tv.parent.listUnits(propertyID), nil
}

func (tv *txMemoryView) CreateLease(_ context.Context, l cam.Lease) error {
	return tv.parent.createLease(l)
}

func (tv *txMemoryView) ListLeases(_ context.Context, unitID cam.UnitID) ([]cam.Lease, error) {
	var result []cam.Lease
	for _, l := range tv.parent.leases {
		if l.UnitID == unitID {
			result = append(result, l)
		}
	}
	return result, nil
}

func (tv *txMemoryView) GetSettings(_ context.Context, propertyID cam.PropertyID) (*cam.CamSettings, error) {
	return tv.parent.getSettings(propertyID), nil
}

func (tv *txMemoryView) UpsertSettings(_ context.Context, s cam.CamSettings) error {
	return tv.parent.upsertSettings(s)
}

func (tv *txMemoryView) UpsertCharge(_ context.Context, c cam.CamCharge) error {
	return tv.parent.upsertCharge(c)
}

func (tv *txMemoryView) GetCharge(_ context.Context, leaseID cam.LeaseID, year int) (*cam.CamCharge, error) {
	return tv.parent.getCharge(leaseID, year), nil
}

func (tv *txMemoryView) ListChargesByLease(_ context.Context, leaseID cam.LeaseID) ([]cam.CamCharge, error) {
	var result []cam.CamCharge
	for k, c := range tv.parent.charges {
		if k.LeaseID == leaseID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (tv *txMemoryView) ListChargesByProperty(_ context.Context, propertyID cam.PropertyID, year int) ([]cam.CamCharge, error) {
	var result []cam.CamCharge
	for k, c := range tv.parent.charges {
		lease, ok := tv.parent.leases[k.LeaseID]
		if !ok || k.Year != year {
			continue
		}
		if unit, ok := tv.parent.units[lease.UnitID]; ok && unit.PropertyID == propertyID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (tv *txMemoryView) AddExpenseItems(_ context.Context, items []cam.CamExpenseItem) error {
	return tv.parent.addExpenseItems(items)
}

func (tv *txMemoryView) ListExpenseItems(_ context.Context, chargeID string) ([]cam.CamExpenseItem, error) {
	return append([]cam.CamExpenseItem(nil), tv.parent.items[chargeID]...), nil
}
