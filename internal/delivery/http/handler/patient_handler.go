package handler

import (
	"net/http"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/usecase"
	"clinic-management-api/pkg/response"
	"clinic-management-api/pkg/validator"
)

type PatientHandler struct {
	patientUsecase     usecase.PatientUsecase
	carePackageUsecase usecase.CarePackageUsecase
	validator          *validator.CustomValidator
}

func NewPatientHandler(patientUsecase usecase.PatientUsecase, carePackageUsecase usecase.CarePackageUsecase, validator *validator.CustomValidator) *PatientHandler {
	return &PatientHandler{
		patientUsecase:     patientUsecase,
		carePackageUsecase: carePackageUsecase,
		validator:          validator,
	}
}

// CreatePatient registers a patient. A record number is generated when none is given.
// @Summary Create patient
// @Tags Patients
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreatePatientRequest true "Create Patient Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /patients [post]
func (h *PatientHandler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePatientRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	patient, err := h.patientUsecase.Create(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to create patient")
		return
	}

	response.Success(w, http.StatusCreated, "Patient created successfully", patient)
}

func (h *PatientHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := dto.PatientListRequest{
		Search: q.Get("search"),
		Status: q.Get("status"),
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
	}
	if !validateQuery(w, h.validator, &req) {
		return
	}

	patients, err := h.patientUsecase.List(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to get patients")
		return
	}

	response.Success(w, http.StatusOK, "Patients retrieved successfully", patients)
}

func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "patient")
	if !ok {
		return
	}

	patient, err := h.patientUsecase.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "Failed to get patient")
		return
	}

	response.Success(w, http.StatusOK, "Patient retrieved successfully", patient)
}

func (h *PatientHandler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "patient")
	if !ok {
		return
	}

	var req dto.UpdatePatientRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	patient, err := h.patientUsecase.Update(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Failed to update patient")
		return
	}

	response.Success(w, http.StatusOK, "Patient updated successfully", patient)
}

func (h *PatientHandler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "patient")
	if !ok {
		return
	}

	if err := h.patientUsecase.Delete(r.Context(), id); err != nil {
		writeError(w, err, "Failed to delete patient")
		return
	}

	response.Success(w, http.StatusOK, "Patient deleted successfully", nil)
}

func (h *PatientHandler) RestorePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "patient")
	if !ok {
		return
	}

	patient, err := h.patientUsecase.Restore(r.Context(), id)
	if err != nil {
		writeError(w, err, "Failed to restore patient")
		return
	}

	response.Success(w, http.StatusOK, "Patient restored successfully", patient)
}

func (h *PatientHandler) AddAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "patient")
	if !ok {
		return
	}

	var req dto.AddAlertRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	patient, err := h.patientUsecase.AddAlert(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Failed to add alert")
		return
	}

	response.Success(w, http.StatusCreated, "Alert added successfully", patient)
}

func (h *PatientHandler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "patient")
	if !ok {
		return
	}
	alertID, ok := pathUUID(w, r, "alertId", "alert")
	if !ok {
		return
	}

	patient, err := h.patientUsecase.ResolveAlert(r.Context(), id, alertID)
	if err != nil {
		writeError(w, err, "Failed to resolve alert")
		return
	}

	response.Success(w, http.StatusOK, "Alert resolved successfully", patient)
}

// ReferralPayout handles POST /patients/{id}/referral/payout
// @Summary Pay referral bonus
// @Description Marks the referral bonus paid and records a manual_bonus_payout audit log
// @Tags Patients
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Patient ID"
// @Param request body dto.ReferralPayoutRequest false "Payout Request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /patients/{id}/referral/payout [post]
func (h *PatientHandler) ReferralPayout(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "patient")
	if !ok {
		return
	}

	var req dto.ReferralPayoutRequest
	if !decodeOptional(w, r, h.validator, &req) {
		return
	}

	patient, err := h.patientUsecase.ReferralPayout(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Failed to record referral payout")
		return
	}

	response.Success(w, http.StatusOK, "Referral bonus paid successfully", patient)
}

// CarePackages handles GET /patients/{id}/care-packages
func (h *PatientHandler) CarePackages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "patient")
	if !ok {
		return
	}

	pkgs, err := h.carePackageUsecase.ListByPatient(r.Context(), id)
	if err != nil {
		writeError(w, err, "Failed to get care packages")
		return
	}

	response.Success(w, http.StatusOK, "Care packages retrieved successfully", pkgs)
}
