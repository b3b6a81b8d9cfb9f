package handler

import (
	"net/http"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/usecase"
	"clinic-management-api/pkg/response"
	"clinic-management-api/pkg/validator"
)

type ReferenceHandler struct {
	referenceUsecase usecase.ReferenceUsecase
	validator        *validator.CustomValidator
}

func NewReferenceHandler(referenceUsecase usecase.ReferenceUsecase, validator *validator.CustomValidator) *ReferenceHandler {
	return &ReferenceHandler{
		referenceUsecase: referenceUsecase,
		validator:        validator,
	}
}

// BillingCodes handles GET /billing-codes?q=
func (h *ReferenceHandler) BillingCodes(w http.ResponseWriter, r *http.Request) {
	req := dto.CodeSearchRequest{Query: r.URL.Query().Get("q")}
	if !validateQuery(w, h.validator, &req) {
		return
	}

	codes, err := h.referenceUsecase.BillingCodes(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to get billing codes")
		return
	}

	response.Success(w, http.StatusOK, "Billing codes retrieved successfully", codes)
}

// DiagnosticCodes handles GET /diagnostic-codes?q=
func (h *ReferenceHandler) DiagnosticCodes(w http.ResponseWriter, r *http.Request) {
	req := dto.CodeSearchRequest{Query: r.URL.Query().Get("q")}
	if !validateQuery(w, h.validator, &req) {
		return
	}

	codes, err := h.referenceUsecase.DiagnosticCodes(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to get diagnostic codes")
		return
	}

	response.Success(w, http.StatusOK, "Diagnostic codes retrieved successfully", codes)
}

// Refresh reloads the code tables without a restart.
func (h *ReferenceHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.referenceUsecase.Refresh(r.Context()); err != nil {
		writeError(w, err, "Failed to reload reference codes")
		return
	}

	response.Success(w, http.StatusOK, "Reference codes reloaded successfully", nil)
}
