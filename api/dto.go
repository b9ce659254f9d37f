/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the cam domain model (decimal values, typed ids) from the wire contract
  the calculator UI consumes (plain numbers, camelCase keys).

NAMING CONVENTION:
  - *DTO:     Response payloads
  - *Request: Request bodies
  - Result:   The {success, error, data} envelope every endpoint returns

TYPES:
  CAM:
    CalculateCamChargesRequest, CalculationDTO, UnitChargeDTO,
    SaveCamChargesRequest, SaveResultDTO, CheckReportDTO

  Settings:
    UpdateCamSettingsRequest, CamSettingsDTO

  Registry:
    PropertyDTO, UnitDTO, LeaseDTO and their Create*Request bodies

VALIDATION:
  Struct tags are checked with go-playground/validator before the request
  reaches the cam package. Method-specific rules (rate for FIXED_RATE,
  cost for ACTUAL_COST) live in cam.CalculationRequest.Validate.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/propmoney/cam-engine/cam"
	"github.com/propmoney/cam-engine/generic"
)

// Result is the envelope of every response.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// =============================================================================
// CAM CALCULATION
// =============================================================================

// CalculateCamChargesRequest asks for an allocation preview.
type CalculateCamChargesRequest struct {
	PropertyID              string   `json:"propertyId" validate:"required"`
	Year                    int      `json:"year" validate:"required,gt=0"`
	CalculationMethod       string   `json:"calculationMethod" validate:"required,oneof=FIXED_RATE ACTUAL_COST"`
	FixedRatePerSquareMeter *float64 `json:"fixedRatePerSquareMeter,omitempty" validate:"omitempty,gte=0"`
	TotalAnnualCost         *float64 `json:"totalAnnualCost,omitempty" validate:"omitempty,gte=0"`
}

// UnitChargeDTO is one row of the calculator table.
type UnitChargeDTO struct {
	UnitID           string   `json:"unitId"`
	UnitNumber       string   `json:"unitNumber"`
	Bra              float64  `json:"bra"`
	CommonAreaFactor float64  `json:"commonAreaFactor"`
	LeaseIDs         []string `json:"leaseIds"`
	AnnualCamCharge  float64  `json:"annualCamCharge"`
	MonthlyCamCharge float64  `json:"monthlyCamCharge"`
	Share            float64  `json:"share"`
}

// CalculationDTO is the calculate response payload.
type CalculationDTO struct {
	PropertyID        string          `json:"propertyId"`
	Year              int             `json:"year"`
	CalculationMethod string          `json:"calculationMethod"`
	UnitCharges       []UnitChargeDTO `json:"unitCharges"`
	TotalPropertyBra  float64         `json:"totalPropertyBra"`
	TotalAnnualCost   float64         `json:"totalAnnualCost"`
	Checks            *CheckReportDTO `json:"checks,omitempty"`
}

// DiscrepancyDTO compares an expected and a computed total.
type DiscrepancyDTO struct {
	Expected   float64 `json:"expected"`
	Actual     float64 `json:"actual"`
	Difference float64 `json:"difference"`
}

// UnitFlagDTO points at a unit worth reviewing.
type UnitFlagDTO struct {
	UnitID     string  `json:"unitId"`
	UnitNumber string  `json:"unitNumber"`
	Bra        float64 `json:"bra"`
	Share      float64 `json:"share"`
}

// CheckReportDTO is the consistency checker output.
type CheckReportDTO struct {
	Consistent       bool            `json:"consistent"`
	TotalShare       float64         `json:"totalShare"`
	ShareDiscrepancy *DiscrepancyDTO `json:"shareDiscrepancy,omitempty"`
	TotalCharged     float64         `json:"totalCharged"`
	CostDiscrepancy  *DiscrepancyDTO `json:"costDiscrepancy,omitempty"`
	UncoveredUnits   []UnitFlagDTO   `json:"uncoveredUnits"`
	OutlierUnits     []UnitFlagDTO   `json:"outlierUnits"`
}

// SaveCamChargesRequest persists a calculation.
type SaveCamChargesRequest struct {
	PropertyID        string              `json:"propertyId" validate:"required"`
	Year              int                 `json:"year" validate:"required,gt=0"`
	CalculationMethod string              `json:"calculationMethod" validate:"required,oneof=FIXED_RATE ACTUAL_COST"`
	TotalAnnualCost   float64             `json:"totalAnnualCost" validate:"gte=0"`
	UnitCharges       []SaveUnitChargeDTO `json:"unitCharges" validate:"dive"`
}

type SaveUnitChargeDTO struct {
	UnitID           string   `json:"unitId" validate:"required"`
	LeaseIDs         []string `json:"leaseIds"`
	AnnualCamCharge  float64  `json:"annualCamCharge" validate:"gte=0"`
	MonthlyCamCharge float64  `json:"monthlyCamCharge" validate:"gte=0"`
}

type SaveResultDTO struct {
	SavedCharges int `json:"savedCharges"`
}

// CamChargeDTO is a persisted charge.
type CamChargeDTO struct {
	ID              string  `json:"id"`
	LeaseID         string  `json:"leaseId"`
	Year            int     `json:"year"`
	MonthlyEstimate float64 `json:"monthlyEstimate"`
	AnnualEstimate  float64 `json:"annualEstimate"`
	Reconciled      bool    `json:"reconciled"`
	UpdatedAt       string  `json:"updatedAt,omitempty"`
}

// CamExpenseItemDTO is a breakdown line under a charge.
type CamExpenseItemDTO struct {
	ID          string  `json:"id,omitempty"`
	Category    string  `json:"category" validate:"required"`
	Description string  `json:"description,omitempty"`
	Estimate    float64 `json:"estimate" validate:"gte=0"`
}

type AddExpenseItemsRequest struct {
	Items []CamExpenseItemDTO `json:"items" validate:"required,min=1,dive"`
}

// =============================================================================
// SETTINGS
// =============================================================================

// UpdateCamSettingsRequest is a partial update; omitted fields stay unchanged.
type UpdateCamSettingsRequest struct {
	PropertyID              string   `json:"propertyId,omitempty"`
	ReconciliationMonth     *int     `json:"reconciliationMonth,omitempty" validate:"omitempty,min=1,max=12"`
	EstimationMethod        *string  `json:"estimationMethod,omitempty" validate:"omitempty,oneof=PREVIOUS_YEAR BUDGET FIXED"`
	AdminFeePercentage      *float64 `json:"adminFeePercentage,omitempty" validate:"omitempty,min=0,max=100"`
	CalculationMethod       *string  `json:"calculationMethod,omitempty" validate:"omitempty,oneof=FIXED_RATE ACTUAL_COST"`
	FixedRatePerSquareMeter *float64 `json:"fixedRatePerSquareMeter,omitempty" validate:"omitempty,gte=0"`
	TotalAnnualCost         *float64 `json:"totalAnnualCost,omitempty" validate:"omitempty,gte=0"`
}

type CamSettingsDTO struct {
	ID                      string   `json:"id,omitempty"`
	PropertyID              string   `json:"propertyId"`
	ReconciliationMonth     int      `json:"reconciliationMonth"`
	EstimationMethod        string   `json:"estimationMethod"`
	AdminFeePercentage      float64  `json:"adminFeePercentage"`
	CalculationMethod       *string  `json:"calculationMethod,omitempty"`
	FixedRatePerSquareMeter *float64 `json:"fixedRatePerSquareMeter,omitempty"`
	TotalAnnualCost         *float64 `json:"totalAnnualCost,omitempty"`
}

// =============================================================================
// REGISTRY
// =============================================================================

type PropertyDTO struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Address        string   `json:"address,omitempty"`
	TotalBra       float64  `json:"totalBra"`
	CommonAreaBra  float64  `json:"commonAreaBra"`
	LandlordUserID string   `json:"landlordUserId"`
	ManagerUserIDs []string `json:"managerUserIds"`
}

type CreatePropertyRequest struct {
	ID             string   `json:"id,omitempty"`
	Name           string   `json:"name" validate:"required"`
	Address        string   `json:"address,omitempty"`
	TotalBra       float64  `json:"totalBra" validate:"gt=0"`
	CommonAreaBra  float64  `json:"commonAreaBra" validate:"gte=0"`
	LandlordUserID string   `json:"landlordUserId,omitempty"`
	ManagerUserIDs []string `json:"managerUserIds,omitempty"`
}

type UnitDTO struct {
	ID               string  `json:"id"`
	PropertyID       string  `json:"propertyId"`
	UnitNumber       string  `json:"unitNumber"`
	Floor            int     `json:"floor"`
	Bra              float64 `json:"bra"`
	CommonAreaFactor float64 `json:"commonAreaFactor"`
	Description      string  `json:"description,omitempty"`
}

type CreateUnitRequest struct {
	ID               string  `json:"id,omitempty"`
	UnitNumber       string  `json:"unitNumber" validate:"required"`
	Floor            int     `json:"floor"`
	Bra              float64 `json:"bra" validate:"gt=0"`
	CommonAreaFactor float64 `json:"commonAreaFactor" validate:"gt=0"`
	Description      string  `json:"description,omitempty"`
}

type LeaseDTO struct {
	ID         string  `json:"id"`
	UnitID     string  `json:"unitId"`
	TenantName string  `json:"tenantName,omitempty"`
	Status     string  `json:"status"`
	StartDate  string  `json:"startDate"`
	EndDate    *string `json:"endDate,omitempty"`
}

type CreateLeaseRequest struct {
	ID         string  `json:"id,omitempty"`
	TenantName string  `json:"tenantName,omitempty"`
	Status     string  `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE PENDING EXPIRED TERMINATED"`
	StartDate  string  `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate    *string `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toCalculationRequest(req CalculateCamChargesRequest) cam.CalculationRequest {
	return cam.CalculationRequest{
		PropertyID:              cam.PropertyID(req.PropertyID),
		Year:                    req.Year,
		Method:                  cam.CalculationMethod(req.CalculationMethod),
		FixedRatePerSquareMeter: decimalPtr(req.FixedRatePerSquareMeter),
		TotalAnnualCost:         decimalPtr(req.TotalAnnualCost),
	}
}

func toCalculationDTO(result *cam.AllocationResult) CalculationDTO {
	charges := make([]UnitChargeDTO, len(result.UnitCharges))
	for i, uc := range result.UnitCharges {
		share, _ := uc.Share.Float64()
		factor, _ := uc.CommonAreaFactor.Float64()
		charges[i] = UnitChargeDTO{
			UnitID:           string(uc.UnitID),
			UnitNumber:       uc.UnitNumber,
			Bra:              uc.BRA.Float64(),
			CommonAreaFactor: factor,
			LeaseIDs:         leaseIDStrings(uc.LeaseIDs),
			AnnualCamCharge:  uc.AnnualCharge.Float64(),
			MonthlyCamCharge: uc.MonthlyCharge.Float64(),
			Share:            share,
		}
	}
	return CalculationDTO{
		PropertyID:        string(result.PropertyID),
		Year:              result.Year,
		CalculationMethod: string(result.Method),
		UnitCharges:       charges,
		TotalPropertyBra:  result.TotalPropertyBRA.Float64(),
		TotalAnnualCost:   result.TotalAnnualCost.Float64(),
	}
}

func toCheckReportDTO(r cam.Report) CheckReportDTO {
	share, _ := r.TotalShare.Float64()
	return CheckReportDTO{
		Consistent:       r.Consistent,
		TotalShare:       share,
		ShareDiscrepancy: toDiscrepancyDTO(r.ShareDiscrepancy),
		TotalCharged:     r.TotalCharged.Float64(),
		CostDiscrepancy:  toDiscrepancyDTO(r.CostDiscrepancy),
		UncoveredUnits:   toUnitFlagDTOs(r.UncoveredUnits),
		OutlierUnits:     toUnitFlagDTOs(r.OutlierUnits),
	}
}

func toDiscrepancyDTO(d *cam.Discrepancy) *DiscrepancyDTO {
	if d == nil {
		return nil
	}
	expected, _ := d.Expected.Float64()
	actual, _ := d.Actual.Float64()
	diff, _ := d.Difference.Float64()
	return &DiscrepancyDTO{Expected: expected, Actual: actual, Difference: diff}
}

func toUnitFlagDTOs(flags []cam.UnitFlag) []UnitFlagDTO {
	dtos := make([]UnitFlagDTO, len(flags))
	for i, f := range flags {
		share, _ := f.Share.Float64()
		dtos[i] = UnitFlagDTO{
			UnitID:     string(f.UnitID),
			UnitNumber: f.UnitNumber,
			Bra:        f.BRA.Float64(),
			Share:      share,
		}
	}
	return dtos
}

func toSaveRequest(req SaveCamChargesRequest) cam.SaveRequest {
	inputs := make([]cam.UnitChargeInput, len(req.UnitCharges))
	for i, uc := range req.UnitCharges {
		leaseIDs := make([]cam.LeaseID, len(uc.LeaseIDs))
		for j, id := range uc.LeaseIDs {
			leaseIDs[j] = cam.LeaseID(id)
		}
		inputs[i] = cam.UnitChargeInput{
			UnitID:        cam.UnitID(uc.UnitID),
			LeaseIDs:      leaseIDs,
			AnnualCharge:  generic.NewMoney(uc.AnnualCamCharge),
			MonthlyCharge: generic.NewMoney(uc.MonthlyCamCharge),
		}
	}
	return cam.SaveRequest{
		PropertyID:      cam.PropertyID(req.PropertyID),
		Year:            req.Year,
		Method:          cam.CalculationMethod(req.CalculationMethod),
		TotalAnnualCost: generic.NewMoney(req.TotalAnnualCost),
		UnitCharges:     inputs,
	}
}

func toCamChargeDTO(c cam.CamCharge) CamChargeDTO {
	return CamChargeDTO{
		ID:              c.ID,
		LeaseID:         string(c.LeaseID),
		Year:            c.Year,
		MonthlyEstimate: c.MonthlyEstimate.Float64(),
		AnnualEstimate:  c.AnnualEstimate.Float64(),
		Reconciled:      c.Reconciled,
		UpdatedAt:       formatTimestamp(c.UpdatedAt),
	}
}

func toSettingsUpdate(propertyID string, req UpdateCamSettingsRequest) cam.SettingsUpdate {
	update := cam.SettingsUpdate{
		PropertyID:              cam.PropertyID(propertyID),
		ReconciliationMonth:     req.ReconciliationMonth,
		AdminFeePercentage:      decimalPtr(req.AdminFeePercentage),
		FixedRatePerSquareMeter: decimalPtr(req.FixedRatePerSquareMeter),
		TotalAnnualCost:         decimalPtr(req.TotalAnnualCost),
	}
	if req.EstimationMethod != nil {
		m := cam.EstimationMethod(*req.EstimationMethod)
		update.EstimationMethod = &m
	}
	if req.CalculationMethod != nil {
		m := cam.CalculationMethod(*req.CalculationMethod)
		update.CalculationMethod = &m
	}
	return update
}

func toSettingsDTO(s *cam.CamSettings) CamSettingsDTO {
	fee, _ := s.AdminFeePercentage.Float64()
	dto := CamSettingsDTO{
		ID:                      s.ID,
		PropertyID:              string(s.PropertyID),
		ReconciliationMonth:     s.ReconciliationMonth,
		EstimationMethod:        string(s.EstimationMethod),
		AdminFeePercentage:      fee,
		FixedRatePerSquareMeter: floatPtr(s.FixedRatePerSquareMeter),
		TotalAnnualCost:         floatPtr(s.TotalAnnualCost),
	}
	if s.CalculationMethod != nil {
		m := string(*s.CalculationMethod)
		dto.CalculationMethod = &m
	}
	return dto
}

func toPropertyDTO(p cam.Property) PropertyDTO {
	managers := p.ManagerUserIDs
	if managers == nil {
		managers = []string{}
	}
	return PropertyDTO{
		ID:             string(p.ID),
		Name:           p.Name,
		Address:        p.Address,
		TotalBra:       p.TotalBRA.Float64(),
		CommonAreaBra:  p.CommonAreaBRA.Float64(),
		LandlordUserID: p.LandlordUserID,
		ManagerUserIDs: managers,
	}
}

func toUnitDTO(u cam.Unit) UnitDTO {
	factor, _ := u.CommonAreaFactor.Float64()
	return UnitDTO{
		ID:               string(u.ID),
		PropertyID:       string(u.PropertyID),
		UnitNumber:       u.UnitNumber,
		Floor:            u.Floor,
		Bra:              u.BRA.Float64(),
		CommonAreaFactor: factor,
		Description:      u.Description,
	}
}

func toLeaseDTO(l cam.Lease) LeaseDTO {
	dto := LeaseDTO{
		ID:         string(l.ID),
		UnitID:     string(l.UnitID),
		TenantName: l.TenantName,
		Status:     string(l.Status),
		StartDate:  l.StartDate.String(),
	}
	if l.EndDate != nil {
		end := l.EndDate.String()
		dto.EndDate = &end
	}
	return dto
}

func leaseIDStrings(ids []cam.LeaseID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func decimalPtr(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}

func decimalOf(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func floatPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return &f
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
