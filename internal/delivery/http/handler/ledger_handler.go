package handler

import (
	"net/http"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/usecase"
	"clinic-management-api/pkg/response"
	"clinic-management-api/pkg/validator"
)

type LedgerHandler struct {
	ledgerUsecase usecase.LedgerUsecase
	validator     *validator.CustomValidator
}

func NewLedgerHandler(ledgerUsecase usecase.LedgerUsecase, validator *validator.CustomValidator) *LedgerHandler {
	return &LedgerHandler{
		ledgerUsecase: ledgerUsecase,
		validator:     validator,
	}
}

// Checkout settles an appointment. Served by both POST /ledger and POST /checkout/complete.
// @Summary Checkout appointment
// @Description Creates the ledger entry, checks the appointment out, consumes a care package
// @Description session and records the visit audit log in one transaction.
// @Tags Billing
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CheckoutRequest true "Checkout Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /checkout/complete [post]
func (h *LedgerHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckoutRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	result, err := h.ledgerUsecase.Checkout(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to complete checkout")
		return
	}

	response.Success(w, http.StatusCreated, "Checkout completed successfully", result)
}

func (h *LedgerHandler) ListLedger(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := dto.LedgerListRequest{
		PatientID:     queryUUID(r, "patient_id"),
		PaymentStatus: q.Get("payment_status"),
		DateFrom:      q.Get("date_from"),
		DateTo:        q.Get("date_to"),
		Page:          queryInt(r, "page"),
		Limit:         queryInt(r, "limit"),
	}
	if v := queryBool(r, "include_voided"); v != nil {
		req.IncludeVoided = *v
	}
	if !validateQuery(w, h.validator, &req) {
		return
	}

	entries, err := h.ledgerUsecase.List(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to get ledger entries")
		return
	}

	response.Success(w, http.StatusOK, "Ledger entries retrieved successfully", entries)
}

func (h *LedgerHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "ledger")
	if !ok {
		return
	}

	entry, err := h.ledgerUsecase.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "Failed to get ledger entry")
		return
	}

	response.Success(w, http.StatusOK, "Ledger entry retrieved successfully", entry)
}

func (h *LedgerHandler) UpdateLedger(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "ledger")
	if !ok {
		return
	}

	var req dto.UpdateLedgerRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	entry, err := h.ledgerUsecase.Update(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Failed to update ledger entry")
		return
	}

	response.Success(w, http.StatusOK, "Ledger entry updated successfully", entry)
}

func (h *LedgerHandler) VoidLedger(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "ledger")
	if !ok {
		return
	}

	var req dto.VoidLedgerRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	entry, err := h.ledgerUsecase.Void(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Failed to void ledger entry")
		return
	}

	response.Success(w, http.StatusOK, "Ledger entry voided successfully", entry)
}

// PatientSummary handles GET /ledger/patient/{patientId}/summary
func (h *LedgerHandler) PatientSummary(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathUUID(w, r, "patientId", "patient")
	if !ok {
		return
	}

	summary, err := h.ledgerUsecase.PatientSummary(r.Context(), patientID)
	if err != nil {
		writeError(w, err, "Failed to get patient balance")
		return
	}

	response.Success(w, http.StatusOK, "Patient balance retrieved successfully", summary)
}
