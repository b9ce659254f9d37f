/*
handlers.go - HTTP API handlers for the CAM charge engine

PURPOSE:
  Exposes the allocation engine, settings and charge persistence via REST.
  Handles HTTP request/response, JSON serialization, authorization, and
  delegates to the cam package.

ENDPOINTS:
  CAM:
    POST   /api/cam/calculate                     Allocation preview (+ checks)
    POST   /api/cam/check                         Checks only
    POST   /api/cam/charges                       Persist a calculation
    GET    /api/properties/{id}/cam/charges?year= Stored charges of a property
    GET    /api/properties/{id}/cam/settings      Settings (defaults if none)
    PUT    /api/properties/{id}/cam/settings      Partial settings update
    GET    /api/leases/{id}/cam/charges           Stored charges of a lease
    GET    /api/leases/{id}/cam/{year}/items      Expense breakdown
    POST   /api/leases/{id}/cam/{year}/items      Add expense breakdown lines

  Registry:
    GET    /api/properties                        List properties
    POST   /api/properties                        Create property
    GET    /api/properties/{id}                   Property details
    GET    /api/properties/{id}/units             List units
    POST   /api/properties/{id}/units             Create unit
    GET    /api/units/{id}/leases                 List leases
    POST   /api/units/{id}/leases                 Create lease

  Scenarios:
    GET    /api/scenarios                         List demo scenarios
    POST   /api/scenarios/load                    Load a demo scenario
    POST   /api/scenarios/reset                   Clear all data

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store:      Transactional storage (sqlite in production)
  - Calculator, Settings, Charges, Registry: cam services over Store
  - Logger:     zap, one entry per failed request

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (struct tags)
  3. Authorize the caller against the property
  4. Call the cam service
  5. Serialize the {success, error, data} envelope

ERROR HANDLING:
  - 400: Validation errors, invalid input
  - 403: Caller is neither landlord nor manager
  - 404: Property, unit, lease or charge not found
  - 409: Duplicate unit number
  - 422: Property has no units
  - 500: Persistence and internal errors

AUTHENTICATION:
  The caller is identified by the X-User-ID header, set by the gateway in
  front of this service. With RequireUser off, requests without the header
  skip authorization (local development).

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/propmoney/cam-engine/cam"
	"github.com/propmoney/cam-engine/generic"
)

// UserHeader carries the authenticated user id.
const UserHeader = "X-User-ID"

// Store is the storage the API needs: cam.TxStore plus demo reset.
type Store interface {
	cam.TxStore
	Reset(ctx context.Context) error
}

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      Store
	Calculator *cam.Calculator
	Settings   *cam.SettingsService
	Charges    *cam.ChargePersister
	Registry   *cam.RegistryService
	Logger     *zap.Logger

	// RequireUser rejects requests without X-User-ID.
	RequireUser bool

	// EnableScenarios mounts the demo scenario routes, which reset the store.
	EnableScenarios bool

	validate *validator.Validate

	// scenarioMu serializes scenario loads and resets and guards currentScenario.
	scenarioMu      sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store Store, logger *zap.Logger, requireUser bool) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:       store,
		Calculator:  cam.NewCalculator(store),
		Settings:    cam.NewSettingsService(store),
		Charges:     cam.NewChargePersister(store),
		Registry:    cam.NewRegistryService(store),
		Logger:      logger,
		RequireUser: requireUser,
		validate:    newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// =============================================================================
// CAM HANDLERS
// =============================================================================

// CalculateCharges returns the allocation preview with its consistency report.
func (h *Handler) CalculateCharges(w http.ResponseWriter, r *http.Request) {
	result, ok := h.calculate(w, r)
	if !ok {
		return
	}
	dto := toCalculationDTO(result)
	report := toCheckReportDTO(cam.Check(result))
	dto.Checks = &report
	writeSuccess(w, http.StatusOK, dto)
}

// CheckCharges runs the same calculation and returns only the report.
func (h *Handler) CheckCharges(w http.ResponseWriter, r *http.Request) {
	result, ok := h.calculate(w, r)
	if !ok {
		return
	}
	writeSuccess(w, http.StatusOK, toCheckReportDTO(cam.Check(result)))
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) (*cam.AllocationResult, bool) {
	var req CalculateCamChargesRequest
	if !h.decode(w, r, &req) {
		return nil, false
	}
	calc := toCalculationRequest(req)
	if err := calc.Validate(); err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	if _, err := h.authorizeProperty(r, calc.PropertyID); err != nil {
		h.fail(w, r, err)
		return nil, false
	}

	result, err := h.Calculator.Calculate(r.Context(), calc)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return result, true
}

// SaveCharges persists one charge per active lease.
func (h *Handler) SaveCharges(w http.ResponseWriter, r *http.Request) {
	var req SaveCamChargesRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := h.authorizeProperty(r, cam.PropertyID(req.PropertyID)); err != nil {
		h.fail(w, r, err)
		return
	}

	count, err := h.Charges.Save(r.Context(), toSaveRequest(req))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.Logger.Info("cam charges saved",
		zap.String("property_id", req.PropertyID),
		zap.Int("year", req.Year),
		zap.Int("saved", count),
	)
	writeSuccess(w, http.StatusOK, SaveResultDTO{SavedCharges: count})
}

// ListPropertyCharges returns stored charges of a property for ?year=.
func (h *Handler) ListPropertyCharges(w http.ResponseWriter, r *http.Request) {
	propertyID := cam.PropertyID(chi.URLParam(r, "id"))
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year <= 0 {
		h.fail(w, r, &cam.ValidationError{Field: "year", Message: "year query parameter must be a positive number"})
		return
	}
	if _, err := h.authorizeProperty(r, propertyID); err != nil {
		h.fail(w, r, err)
		return
	}

	charges, err := h.Charges.ChargesForProperty(r.Context(), propertyID, year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, toCamChargeDTOs(charges))
}

// ListLeaseCharges returns every stored charge of a lease.
func (h *Handler) ListLeaseCharges(w http.ResponseWriter, r *http.Request) {
	leaseID := cam.LeaseID(chi.URLParam(r, "id"))
	if _, err := h.authorizeLease(r, leaseID); err != nil {
		h.fail(w, r, err)
		return
	}
	charges, err := h.Charges.Charges(r.Context(), leaseID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, toCamChargeDTOs(charges))
}

// ListExpenseItems returns the breakdown of one (lease, year) charge.
func (h *Handler) ListExpenseItems(w http.ResponseWriter, r *http.Request) {
	leaseID, year, ok := h.leaseYear(w, r)
	if !ok {
		return
	}
	items, err := h.Charges.ExpenseItems(r.Context(), leaseID, year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, toExpenseItemDTOs(items))
}

// AddExpenseItems attaches breakdown lines to one (lease, year) charge.
func (h *Handler) AddExpenseItems(w http.ResponseWriter, r *http.Request) {
	leaseID, year, ok := h.leaseYear(w, r)
	if !ok {
		return
	}
	var req AddExpenseItemsRequest
	if !h.decode(w, r, &req) {
		return
	}

	items := make([]cam.CamExpenseItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = cam.CamExpenseItem{
			Category:    it.Category,
			Description: it.Description,
			Estimate:    generic.NewMoney(it.Estimate),
		}
	}
	saved, err := h.Charges.AddExpenseItems(r.Context(), leaseID, year, items)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, toExpenseItemDTOs(saved))
}

func (h *Handler) leaseYear(w http.ResponseWriter, r *http.Request) (cam.LeaseID, int, bool) {
	leaseID := cam.LeaseID(chi.URLParam(r, "id"))
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year <= 0 {
		h.fail(w, r, &cam.ValidationError{Field: "year", Message: "year must be a positive number"})
		return "", 0, false
	}
	if _, err := h.authorizeLease(r, leaseID); err != nil {
		h.fail(w, r, err)
		return "", 0, false
	}
	return leaseID, year, true
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetSettings returns the stored settings, or the defaults.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	propertyID := cam.PropertyID(chi.URLParam(r, "id"))
	if _, err := h.authorizeProperty(r, propertyID); err != nil {
		h.fail(w, r, err)
		return
	}
	settings, err := h.Settings.Get(r.Context(), propertyID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, toSettingsDTO(settings))
}

// UpdateSettings applies a partial update.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "id")
	var req UpdateCamSettingsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := h.authorizeProperty(r, cam.PropertyID(propertyID)); err != nil {
		h.fail(w, r, err)
		return
	}

	settings, err := h.Settings.Upsert(r.Context(), toSettingsUpdate(propertyID, req))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, toSettingsDTO(settings))
}

// =============================================================================
// REGISTRY HANDLERS
// =============================================================================

// ListProperties returns the properties the caller may manage.
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	properties, err := h.Store.ListProperties(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	userID := r.Header.Get(UserHeader)
	dtos := make([]PropertyDTO, 0, len(properties))
	for _, p := range properties {
		if userID != "" || h.RequireUser {
			if cam.Authorize(&p, userID) != nil {
				continue
			}
		}
		dtos = append(dtos, toPropertyDTO(p))
	}
	writeSuccess(w, http.StatusOK, dtos)
}

// CreateProperty registers a property; the caller becomes landlord unless one is named.
func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var req CreatePropertyRequest
	if !h.decode(w, r, &req) {
		return
	}
	landlord := req.LandlordUserID
	if landlord == "" {
		landlord = r.Header.Get(UserHeader)
	}

	p, err := h.Registry.AddProperty(r.Context(), cam.Property{
		ID:             cam.PropertyID(req.ID),
		Name:           req.Name,
		Address:        req.Address,
		TotalBRA:       generic.NewArea(req.TotalBra),
		CommonAreaBRA:  generic.NewArea(req.CommonAreaBra),
		LandlordUserID: landlord,
		ManagerUserIDs: req.ManagerUserIDs,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, toPropertyDTO(*p))
}

// GetProperty returns one property.
func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	p, err := h.authorizeProperty(r, cam.PropertyID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, toPropertyDTO(*p))
}

// ListUnits returns the units of a property.
func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	propertyID := cam.PropertyID(chi.URLParam(r, "id"))
	if _, err := h.authorizeProperty(r, propertyID); err != nil {
		h.fail(w, r, err)
		return
	}
	units, err := h.Registry.ListUnits(r.Context(), propertyID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]UnitDTO, len(units))
	for i, u := range units {
		dtos[i] = toUnitDTO(u)
	}
	writeSuccess(w, http.StatusOK, dtos)
}

// CreateUnit adds a unit to a property.
func (h *Handler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	propertyID := cam.PropertyID(chi.URLParam(r, "id"))
	var req CreateUnitRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := h.authorizeProperty(r, propertyID); err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.Registry.AddUnit(r.Context(), cam.Unit{
		ID:               cam.UnitID(req.ID),
		PropertyID:       propertyID,
		UnitNumber:       req.UnitNumber,
		Floor:            req.Floor,
		BRA:              generic.NewArea(req.Bra),
		CommonAreaFactor: decimalOf(req.CommonAreaFactor),
		Description:      req.Description,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, toUnitDTO(*u))
}

// ListLeases returns the leases of a unit.
func (h *Handler) ListLeases(w http.ResponseWriter, r *http.Request) {
	unitID := cam.UnitID(chi.URLParam(r, "id"))
	if _, err := h.authorizeUnit(r, unitID); err != nil {
		h.fail(w, r, err)
		return
	}
	leases, err := h.Store.ListLeases(r.Context(), unitID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]LeaseDTO, len(leases))
	for i, l := range leases {
		dtos[i] = toLeaseDTO(l)
	}
	writeSuccess(w, http.StatusOK, dtos)
}

// CreateLease adds a lease to a unit.
func (h *Handler) CreateLease(w http.ResponseWriter, r *http.Request) {
	unitID := cam.UnitID(chi.URLParam(r, "id"))
	var req CreateLeaseRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := h.authorizeUnit(r, unitID); err != nil {
		h.fail(w, r, err)
		return
	}

	start, err := generic.ParseDate(req.StartDate)
	if err != nil {
		h.fail(w, r, &cam.ValidationError{Field: "startDate", Message: "startDate must be YYYY-MM-DD"})
		return
	}
	lease := cam.Lease{
		ID:         cam.LeaseID(req.ID),
		UnitID:     unitID,
		TenantName: req.TenantName,
		Status:     cam.LeaseStatus(req.Status),
		StartDate:  start,
	}
	if req.EndDate != nil {
		end, err := generic.ParseDate(*req.EndDate)
		if err != nil {
			h.fail(w, r, &cam.ValidationError{Field: "endDate", Message: "endDate must be YYYY-MM-DD"})
			return
		}
		lease.EndDate = &end
	}

	saved, err := h.Registry.AddLease(r.Context(), lease)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, toLeaseDTO(*saved))
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	h.currentScenario = ""
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// AUTHORIZATION
// =============================================================================

// authorizeProperty loads the property and checks the caller may manage it.
func (h *Handler) authorizeProperty(r *http.Request, id cam.PropertyID) (*cam.Property, error) {
	if id == "" {
		return nil, &cam.ValidationError{Field: "propertyId"}
	}
	p, err := h.Registry.GetProperty(r.Context(), id)
	if err != nil {
		return nil, err
	}
	userID := r.Header.Get(UserHeader)
	if userID == "" && !h.RequireUser {
		return p, nil
	}
	if err := cam.Authorize(p, userID); err != nil {
		return nil, err
	}
	return p, nil
}

func (h *Handler) authorizeUnit(r *http.Request, id cam.UnitID) (*cam.Property, error) {
	p, err := h.Registry.PropertyOfUnit(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return h.authorizeProperty(r, p.ID)
}

// authorizeLease resolves lease -> unit -> property by scanning the caller's units.
func (h *Handler) authorizeLease(r *http.Request, id cam.LeaseID) (*cam.Property, error) {
	ctx := r.Context()
	properties, err := h.Store.ListProperties(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range properties {
		units, err := h.Store.ListUnits(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		for _, u := range units {
			leases, err := h.Store.ListLeases(ctx, u.ID)
			if err != nil {
				return nil, err
			}
			for _, l := range leases {
				if l.ID == id {
					return h.authorizeProperty(r, p.ID)
				}
			}
		}
	}
	return nil, &cam.NotFoundError{Kind: "lease", ID: string(id)}
}

// =============================================================================
// HELPERS
// =============================================================================

// decode reads and validates a JSON body, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.fail(w, r, &cam.ValidationError{Field: "body", Message: "Invalid request body"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.fail(w, r, validationError(err))
		return false
	}
	return true
}

// validationError turns the first validator failure into a named ValidationError.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &cam.ValidationError{Field: "body", Message: err.Error()}
	}
	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return &cam.ValidationError{Field: field}
	case "oneof":
		return &cam.ValidationError{Field: field, Message: field + " must be one of: " + fe.Param()}
	case "datetime":
		return &cam.ValidationError{Field: field, Message: field + " must be YYYY-MM-DD"}
	case "gt":
		return &cam.ValidationError{Field: field, Message: field + " must be greater than " + fe.Param()}
	case "gte", "min":
		return &cam.ValidationError{Field: field, Message: field + " must be at least " + fe.Param()}
	case "max":
		return &cam.ValidationError{Field: field, Message: field + " must be at most " + fe.Param()}
	}
	return &cam.ValidationError{Field: field, Message: field + " is invalid"}
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, generic.ErrAccessDenied):
		return http.StatusForbidden
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, generic.ErrNoUnits):
		return http.StatusUnprocessableEntity
	case errors.Is(err, generic.ErrDuplicate):
		return http.StatusConflict
	case generic.IsClientError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// fail logs err and writes the failure envelope.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	fields := []zap.Field{
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	message := err.Error()
	if status >= http.StatusInternalServerError {
		h.Logger.Error("request failed", fields...)
		if !errors.Is(err, generic.ErrPersistence) {
			message = "Internal server error"
		}
	} else {
		h.Logger.Debug("request rejected", fields...)
	}
	writeJSON(w, status, Result{Success: false, Error: message})
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Result{Success: true, Data: data})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func toCamChargeDTOs(charges []cam.CamCharge) []CamChargeDTO {
	dtos := make([]CamChargeDTO, len(charges))
	for i, c := range charges {
		dtos[i] = toCamChargeDTO(c)
	}
	return dtos
}

func toExpenseItemDTOs(items []cam.CamExpenseItem) []CamExpenseItemDTO {
	dtos := make([]CamExpenseItemDTO, len(items))
	for i, it := range items {
		dtos[i] = CamExpenseItemDTO{
			ID:          it.ID,
			Category:    it.Category,
			Description: it.Description,
			Estimate:    it.Estimate.Float64(),
		}
	}
	return dtos
}
