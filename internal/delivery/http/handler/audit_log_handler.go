package handler

import (
	"net/http"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/usecase"
	"clinic-management-api/pkg/response"
	"clinic-management-api/pkg/validator"
)

type AuditLogHandler struct {
	auditLogUsecase usecase.AuditLogUsecase
	validator       *validator.CustomValidator
}

func NewAuditLogHandler(auditLogUsecase usecase.AuditLogUsecase, validator *validator.CustomValidator) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUsecase: auditLogUsecase,
		validator:       validator,
	}
}

func (h *AuditLogHandler) CreateAuditLog(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAuditLogRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	auditLog, err := h.auditLogUsecase.Create(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to create audit log")
		return
	}

	response.Success(w, http.StatusCreated, "Audit log created successfully", auditLog)
}

// ListAuditLogs handles GET /audit
// @Summary List audit logs
// @Tags Audit
// @Security BearerAuth
// @Produce json
// @Param patient_id query string false "Patient ID"
// @Param action query string false "Action"
// @Param flagged_only query bool false "Only records with compliance flags"
// @Param date_from query string false "From date (YYYY-MM-DD)"
// @Param date_to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Response
// @Router /audit [get]
func (h *AuditLogHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := dto.AuditLogListRequest{
		PatientID: queryUUID(r, "patient_id"),
		Action:    q.Get("action"),
		DateFrom:  q.Get("date_from"),
		DateTo:    q.Get("date_to"),
		Page:      queryInt(r, "page"),
		Limit:     queryInt(r, "limit"),
	}
	if v := queryBool(r, "flagged_only"); v != nil {
		req.FlaggedOnly = *v
	}
	if !validateQuery(w, h.validator, &req) {
		return
	}

	logs, err := h.auditLogUsecase.List(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to get audit logs")
		return
	}

	response.Success(w, http.StatusOK, "Audit logs retrieved successfully", logs)
}

func (h *AuditLogHandler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "audit log")
	if !ok {
		return
	}

	auditLog, err := h.auditLogUsecase.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "Failed to get audit log")
		return
	}

	response.Success(w, http.StatusOK, "Audit log retrieved successfully", auditLog)
}

func (h *AuditLogHandler) UpdateAuditLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "audit log")
	if !ok {
		return
	}

	var req dto.UpdateAuditLogRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	auditLog, err := h.auditLogUsecase.Update(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Failed to update audit log")
		return
	}

	response.Success(w, http.StatusOK, "Audit log updated successfully", auditLog)
}

func (h *AuditLogHandler) LockAuditLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "audit log")
	if !ok {
		return
	}

	var req dto.LockAuditLogRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	auditLog, err := h.auditLogUsecase.Lock(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Failed to lock audit log")
		return
	}

	response.Success(w, http.StatusOK, "Audit log locked successfully", auditLog)
}

func (h *AuditLogHandler) FlagAuditLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "audit log")
	if !ok {
		return
	}

	var req dto.FlagAuditLogRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	auditLog, err := h.auditLogUsecase.Flag(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Failed to flag audit log")
		return
	}

	response.Success(w, http.StatusOK, "Audit log flagged for review", auditLog)
}

func (h *AuditLogHandler) ExportAuditLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "audit log")
	if !ok {
		return
	}

	export, err := h.auditLogUsecase.Export(r.Context(), id)
	if err != nil {
		writeError(w, err, "Failed to export audit log")
		return
	}

	response.Success(w, http.StatusOK, "Audit log exported successfully", export)
}

// ComplianceReport handles GET /audit/reports/compliance
func (h *AuditLogHandler) ComplianceReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := dto.ComplianceReportRequest{
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
	}
	if !validateQuery(w, h.validator, &req) {
		return
	}

	report, err := h.auditLogUsecase.ComplianceReport(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to build compliance report")
		return
	}

	response.Success(w, http.StatusOK, "Compliance report retrieved successfully", report)
}
