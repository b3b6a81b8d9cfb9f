package handler

import (
	"net/http"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/usecase"
	"clinic-management-api/pkg/response"
	"clinic-management-api/pkg/validator"
)

type ClinicHandler struct {
	clinicUsecase usecase.ClinicUsecase
	validator     *validator.CustomValidator
}

func NewClinicHandler(clinicUsecase usecase.ClinicUsecase, validator *validator.CustomValidator) *ClinicHandler {
	return &ClinicHandler{
		clinicUsecase: clinicUsecase,
		validator:     validator,
	}
}

func (h *ClinicHandler) CreateClinic(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateClinicRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	clinic, err := h.clinicUsecase.Create(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to create clinic")
		return
	}

	response.Success(w, http.StatusCreated, "Clinic created successfully", clinic)
}

func (h *ClinicHandler) ListClinics(w http.ResponseWriter, r *http.Request) {
	clinics, err := h.clinicUsecase.List(r.Context(), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, err, "Failed to get clinics")
		return
	}

	response.Success(w, http.StatusOK, "Clinics retrieved successfully", clinics)
}

func (h *ClinicHandler) GetClinic(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "clinic")
	if !ok {
		return
	}

	clinic, err := h.clinicUsecase.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "Failed to get clinic")
		return
	}

	response.Success(w, http.StatusOK, "Clinic retrieved successfully", clinic)
}

func (h *ClinicHandler) UpdateClinic(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "clinic")
	if !ok {
		return
	}

	var req dto.UpdateClinicRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	clinic, err := h.clinicUsecase.Update(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Failed to update clinic")
		return
	}

	response.Success(w, http.StatusOK, "Clinic updated successfully", clinic)
}

// SetClinicActive handles PATCH /clinics/{id}/active
func (h *ClinicHandler) SetClinicActive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "clinic")
	if !ok {
		return
	}

	var req dto.SetClinicActiveRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	clinic, err := h.clinicUsecase.SetActive(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Failed to change clinic status")
		return
	}

	response.Success(w, http.StatusOK, "Clinic status updated successfully", clinic)
}
