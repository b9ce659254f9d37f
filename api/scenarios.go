/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	properties, units and leases. Each scenario exercises a specific part
	of the allocation engine or the consistency checker.

AVAILABLE SCENARIOS:

	oslo-business-center:  Office building, one leased and one vacant unit
	bergen-retail-center:  Retail centre with settings and saved charges
	fixed-rate-single:     One 250 m2 unit of 1000 m2 at 200 NOK/m2
	actual-cost-split:     100/900 m2 split of 200 000 NOK
	outlier-share:         One unit holding 60% of the property

HOW SCENARIOS WORK:
 1. Reset store (clear all data)
 2. Create properties via the registry service
 3. Create units and leases
 4. Optionally store settings and charges

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "actual-cost-split"}

All demo properties are owned by DemoLandlord.

NOTE:

	Scenarios reset the store. The routes are only mounted when
	CAM_ENABLE_SCENARIOS is set.

SEE ALSO:
  - handlers.go: ResetDatabase handler
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/propmoney/cam-engine/cam"
	"github.com/propmoney/cam-engine/generic"
)

// DemoLandlord owns every scenario property.
const DemoLandlord = "user-landlord"

// DemoManager manages the Bergen property.
const DemoManager = "user-manager"

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "oslo-business-center",
		Name:        "Oslo Business Center",
		Description: "Office building (4500 m2) with one leased and one vacant unit",
	},
	{
		ID:          "bergen-retail-center",
		Name:        "Bergen Retail Center",
		Description: "Retail centre (7200 m2) with CAM settings and charges saved for the current year",
	},
	{
		ID:          "fixed-rate-single",
		Name:        "Fixed Rate, Single Unit",
		Description: "250 m2 of 1000 m2 at 200 NOK/m2: 50 000 NOK per year",
	},
	{
		ID:          "actual-cost-split",
		Name:        "Actual Cost Split",
		Description: "200 000 NOK split across 100 m2 and 900 m2 units",
	},
	{
		ID:          "outlier-share",
		Name:        "Outlier Share",
		Description: "A 600 m2 unit in a 1000 m2 property, flagged by the checker",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	current := h.CurrentScenario()
	if current == "" {
		writeJSON(w, http.StatusOK, Result{Success: true})
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeSuccess(w, http.StatusOK, s)
			return
		}
	}
	writeSuccess(w, http.StatusOK, ScenarioDTO{
		ID:          current,
		Name:        current,
		Description: "Currently loaded scenario",
	})
}

// CurrentScenario returns the id of the loaded scenario, or "".
func (h *Handler) CurrentScenario() string {
	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()
	return h.currentScenario
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, r, &cam.ValidationError{Field: "body", Message: "Invalid request body"})
		return
	}

	if err := h.LoadScenarioByID(r.Context(), req.ScenarioID); err != nil {
		h.fail(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// LoadScenarioByID resets the store and seeds the named scenario.
func (h *Handler) LoadScenarioByID(ctx context.Context, id string) error {
	loader, ok := scenarioLoaders[id]
	if !ok {
		return &cam.ValidationError{Field: "scenario_id", Message: "Unknown scenario"}
	}

	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		return err
	}
	h.currentScenario = ""

	if err := loader(h, ctx); err != nil {
		return fmt.Errorf("load scenario %s: %w", id, err)
	}
	h.currentScenario = id
	return nil
}

var scenarioLoaders = map[string]func(*Handler, context.Context) error{
	"oslo-business-center": (*Handler).loadOsloScenario,
	"bergen-retail-center": (*Handler).loadBergenScenario,
	"fixed-rate-single":    (*Handler).loadFixedRateScenario,
	"actual-cost-split":    (*Handler).loadActualCostScenario,
	"outlier-share":        (*Handler).loadOutlierScenario,
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadOsloScenario(ctx context.Context) error {
	p, err := h.Registry.AddProperty(ctx, cam.Property{
		ID:             "prop-oslo",
		Name:           "Oslo Business Center",
		Address:        "Osloveien 123, 0370 Oslo",
		TotalBRA:       generic.NewArea(4500),
		CommonAreaBRA:  generic.NewArea(500),
		LandlordUserID: DemoLandlord,
	})
	if err != nil {
		return err
	}
	if err := h.seedUnit(ctx, p.ID, "unit-a101", "A101", 1, 300, "1.15", "Corner unit with good exposure"); err != nil {
		return err
	}
	if err := h.seedUnit(ctx, p.ID, "unit-b205", "B205", 2, 500, "1.15", "Open-plan office with meeting rooms"); err != nil {
		return err
	}
	// B205 stays vacant so the checker reports it as uncovered.
	return h.seedLease(ctx, "lease-a101", "unit-a101", "Nordlys Consulting AS")
}

func (h *Handler) loadBergenScenario(ctx context.Context) error {
	p, err := h.Registry.AddProperty(ctx, cam.Property{
		ID:             "prop-bergen",
		Name:           "Bergen Retail Center",
		Address:        "Strandkaien 10, 5003 Bergen",
		TotalBRA:       generic.NewArea(7200),
		CommonAreaBRA:  generic.NewArea(800),
		LandlordUserID: DemoLandlord,
		ManagerUserIDs: []string{DemoManager},
	})
	if err != nil {
		return err
	}
	units := []struct {
		id     cam.UnitID
		number string
		floor  int
		bra    float64
		factor string
	}{
		{"unit-r101", "R101", 1, 150, "1.25"},
		{"unit-r102", "R102", 1, 200, "1.25"},
		{"unit-r201", "R201", 2, 350, "1.2"},
	}
	for _, u := range units {
		if err := h.seedUnit(ctx, p.ID, u.id, u.number, u.floor, u.bra, u.factor, ""); err != nil {
			return err
		}
	}
	if err := h.seedLease(ctx, "lease-r201", "unit-r201", "Fjellet Sport AS"); err != nil {
		return err
	}

	method := cam.MethodActualCost
	cost := decimal.NewFromInt(720000)
	fee := decimal.NewFromInt(10)
	if _, err := h.Settings.Upsert(ctx, cam.SettingsUpdate{
		PropertyID:         p.ID,
		AdminFeePercentage: &fee,
		CalculationMethod:  &method,
		TotalAnnualCost:    &cost,
	}); err != nil {
		return err
	}

	result, err := h.Calculator.Calculate(ctx, cam.CalculationRequest{
		PropertyID:      p.ID,
		Year:            generic.Today().Year(),
		Method:          method,
		TotalAnnualCost: &cost,
	})
	if err != nil {
		return err
	}
	_, err = h.Charges.Save(ctx, result.ToSaveRequest())
	return err
}

func (h *Handler) loadFixedRateScenario(ctx context.Context) error {
	return h.seedSimpleProperty(ctx, "prop-fixed", "Fixed Rate Building", []float64{250})
}

func (h *Handler) loadActualCostScenario(ctx context.Context) error {
	return h.seedSimpleProperty(ctx, "prop-split", "Split Cost Building", []float64{100, 900})
}

func (h *Handler) loadOutlierScenario(ctx context.Context) error {
	return h.seedSimpleProperty(ctx, "prop-outlier", "Outlier Building", []float64{600, 400})
}

// seedSimpleProperty creates a 1000 m2 property with one leased unit per area.
func (h *Handler) seedSimpleProperty(ctx context.Context, id cam.PropertyID, name string, areas []float64) error {
	p, err := h.Registry.AddProperty(ctx, cam.Property{
		ID:             id,
		Name:           name,
		TotalBRA:       generic.NewArea(1000),
		LandlordUserID: DemoLandlord,
	})
	if err != nil {
		return err
	}
	for i, bra := range areas {
		unitID := cam.UnitID(fmt.Sprintf("%s-u%d", id, i+1))
		if err := h.seedUnit(ctx, p.ID, unitID, fmt.Sprintf("U%d", i+1), 1, bra, "1", ""); err != nil {
			return err
		}
		leaseID := cam.LeaseID(fmt.Sprintf("%s-l%d", id, i+1))
		if err := h.seedLease(ctx, leaseID, unitID, fmt.Sprintf("Tenant %d", i+1)); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) seedUnit(ctx context.Context, propertyID cam.PropertyID, id cam.UnitID, number string, floor int, bra float64, factor, description string) error {
	_, err := h.Registry.AddUnit(ctx, cam.Unit{
		ID:               id,
		PropertyID:       propertyID,
		UnitNumber:       number,
		Floor:            floor,
		BRA:              generic.NewArea(bra),
		CommonAreaFactor: generic.MustParseDecimal(factor),
		Description:      description,
	})
	return err
}

// seedLease starts an active lease a year ago, running two more years.
func (h *Handler) seedLease(ctx context.Context, id cam.LeaseID, unitID cam.UnitID, tenant string) error {
	today := generic.Today()
	end := today.AddYears(2)
	_, err := h.Registry.AddLease(ctx, cam.Lease{
		ID:         id,
		UnitID:     unitID,
		TenantName: tenant,
		Status:     cam.LeaseActive,
		StartDate:  today.AddYears(-1),
		EndDate:    &end,
	})
	return err
}
