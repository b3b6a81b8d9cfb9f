package handler

import (
	"context"
	"net/http"
	"strconv"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/usecase"
	"clinic-management-api/pkg/response"
	"clinic-management-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
	reportUsecase      usecase.ReportUsecase
	validator          *validator.CustomValidator
}

func NewAppointmentHandler(appointmentUsecase usecase.AppointmentUsecase, reportUsecase usecase.ReportUsecase, validator *validator.CustomValidator) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
		reportUsecase:      reportUsecase,
		validator:          validator,
	}
}

// CreateAppointment handles booking and walk-in creation
// @Summary Create appointment
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateAppointmentRequest true "Create Appointment Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /appointments [post]
func (h *AppointmentHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAppointmentRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	appt, err := h.appointmentUsecase.Create(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to create appointment")
		return
	}

	response.Success(w, http.StatusCreated, "Appointment created successfully", appt)
}

// ListAppointments handles filtered appointment listing
// @Summary List appointments
// @Tags Appointments
// @Security BearerAuth
// @Produce json
// @Param patient_id query string false "Patient ID"
// @Param provider_id query string false "Provider ID"
// @Param status query string false "Status"
// @Param date_from query string false "From date (YYYY-MM-DD)"
// @Param date_to query string false "To date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response
// @Router /appointments [get]
func (h *AppointmentHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := dto.AppointmentListRequest{
		PatientID:  queryUUID(r, "patient_id"),
		ProviderID: queryUUID(r, "provider_id"),
		Status:     q.Get("status"),
		DateFrom:   q.Get("date_from"),
		DateTo:     q.Get("date_to"),
		Page:       queryInt(r, "page"),
		Limit:      queryInt(r, "limit"),
	}
	if !validateQuery(w, h.validator, &req) {
		return
	}

	appts, err := h.appointmentUsecase.List(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appts)
}

func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	appt, err := h.appointmentUsecase.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "Failed to get appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment retrieved successfully", appt)
}

func (h *AppointmentHandler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	var req dto.UpdateAppointmentRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	appt, err := h.appointmentUsecase.Update(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Failed to update appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment updated successfully", appt)
}

func (h *AppointmentHandler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	if err := h.appointmentUsecase.Delete(r.Context(), id); err != nil {
		writeError(w, err, "Failed to delete appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment deleted successfully", nil)
}

type transitionFunc func(ctx context.Context, id uuid.UUID, req *dto.TransitionRequest) (*dto.AppointmentResponse, error)

// transition runs one of the lifecycle actions that take only optional notes.
func (h *AppointmentHandler) transition(w http.ResponseWriter, r *http.Request, action transitionFunc, message, fallback string) {
	id, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	var req dto.TransitionRequest
	if !decodeOptional(w, r, h.validator, &req) {
		return
	}

	appt, err := action(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, fallback)
		return
	}

	response.Success(w, http.StatusOK, message, appt)
}

// CheckIn handles POST /appointments/{id}/check-in
func (h *AppointmentHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.appointmentUsecase.CheckIn, "Patient checked in successfully", "Failed to check in appointment")
}

// Uncheck handles POST /appointments/{id}/uncheck
func (h *AppointmentHandler) Uncheck(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.appointmentUsecase.Uncheck, "Check-in reverted successfully", "Failed to revert check-in")
}

// Start handles POST /appointments/{id}/start
func (h *AppointmentHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.appointmentUsecase.Start, "Appointment started successfully", "Failed to start appointment")
}

// MarkNoShow handles POST /appointments/{id}/no-show
func (h *AppointmentHandler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.appointmentUsecase.MarkNoShow, "Appointment marked as no-show", "Failed to mark appointment as no-show")
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	var req dto.CancelAppointmentRequest
	if !decodeOptional(w, r, h.validator, &req) {
		return
	}

	appt, err := h.appointmentUsecase.Cancel(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Failed to cancel appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment cancelled successfully", appt)
}

func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	var req dto.RescheduleRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	appt, err := h.appointmentUsecase.Reschedule(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Failed to reschedule appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment rescheduled successfully", appt)
}

// UpdateStatus maps a requested status onto the matching lifecycle action.
// @Summary Change appointment status
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param request body dto.UpdateStatusRequest true "Status Request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /appointments/{id}/status [patch]
func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	appt, err := h.appointmentUsecase.UpdateStatus(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, "Failed to update appointment status")
		return
	}

	response.Success(w, http.StatusOK, "Appointment status updated successfully", appt)
}

func (h *AppointmentHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	history, err := h.appointmentUsecase.History(r.Context(), id)
	if err != nil {
		writeError(w, err, "Failed to get appointment history")
		return
	}

	response.Success(w, http.StatusOK, "Appointment history retrieved successfully", history)
}

// Calendar handles GET /appointments/calendar/{year}/{month}
func (h *AppointmentHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	year, errYear := strconv.Atoi(vars["year"])
	month, errMonth := strconv.Atoi(vars["month"])
	if errYear != nil || errMonth != nil {
		response.BadRequest(w, "Invalid year or month")
		return
	}

	calendar, err := h.appointmentUsecase.Calendar(r.Context(), year, month)
	if err != nil {
		writeError(w, err, "Failed to get calendar")
		return
	}

	response.Success(w, http.StatusOK, "Calendar retrieved successfully", calendar)
}

// Daily handles GET /appointments/daily/{date}
func (h *AppointmentHandler) Daily(w http.ResponseWriter, r *http.Request) {
	daily, err := h.appointmentUsecase.Daily(r.Context(), mux.Vars(r)["date"])
	if err != nil {
		writeError(w, err, "Failed to get daily appointments")
		return
	}

	response.Success(w, http.StatusOK, "Daily appointments retrieved successfully", daily)
}

// DailyReport handles GET /appointments/reports/daily/{date}
func (h *AppointmentHandler) DailyReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reportUsecase.DailyReport(r.Context(), mux.Vars(r)["date"])
	if err != nil {
		writeError(w, err, "Failed to build daily report")
		return
	}

	response.Success(w, http.StatusOK, "Daily report retrieved successfully", report)
}
