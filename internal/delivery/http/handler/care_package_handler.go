package handler

import (
	"net/http"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/usecase"
	"clinic-management-api/pkg/response"
	"clinic-management-api/pkg/validator"
)

type CarePackageHandler struct {
	carePackageUsecase usecase.CarePackageUsecase
	validator          *validator.CustomValidator
}

func NewCarePackageHandler(carePackageUsecase usecase.CarePackageUsecase, validator *validator.CustomValidator) *CarePackageHandler {
	return &CarePackageHandler{
		carePackageUsecase: carePackageUsecase,
		validator:          validator,
	}
}

func (h *CarePackageHandler) CreateCarePackage(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCarePackageRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	pkg, err := h.carePackageUsecase.Create(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to create care package")
		return
	}

	response.Success(w, http.StatusCreated, "Care package created successfully", pkg)
}

func (h *CarePackageHandler) GetCarePackage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "care package")
	if !ok {
		return
	}

	pkg, err := h.carePackageUsecase.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "Failed to get care package")
		return
	}

	response.Success(w, http.StatusOK, "Care package retrieved successfully", pkg)
}

// UseSession handles POST /care-packages/{id}/use-session
func (h *CarePackageHandler) UseSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "care package")
	if !ok {
		return
	}

	var req dto.UseSessionRequest
	if !decodeOptional(w, r, h.validator, &req) {
		return
	}

	pkg, err := h.carePackageUsecase.UseSession(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Failed to use care package session")
		return
	}

	response.Success(w, http.StatusOK, "Session used successfully", pkg)
}

func (h *CarePackageHandler) CancelCarePackage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "care package")
	if !ok {
		return
	}

	pkg, err := h.carePackageUsecase.Cancel(r.Context(), id)
	if err != nil {
		writeError(w, err, "Failed to cancel care package")
		return
	}

	response.Success(w, http.StatusOK, "Care package cancelled successfully", pkg)
}
