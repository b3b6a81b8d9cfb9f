package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/usecase"
	"clinic-management-api/pkg/response"
	"clinic-management-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// errorStatus maps usecase sentinel errors onto HTTP status codes.
var errorStatus = []struct {
	err    error
	status int
}{
	{usecase.ErrUnauthenticated, http.StatusUnauthorized},
	{usecase.ErrInvalidCredentials, http.StatusUnauthorized},
	{usecase.ErrInvalidToken, http.StatusUnauthorized},
	{usecase.ErrTokenRevoked, http.StatusUnauthorized},
	{usecase.ErrUserInactive, http.StatusForbidden},
	{usecase.ErrClinicInactive, http.StatusForbidden},
	{usecase.ErrClinicRequired, http.StatusForbidden},
	{usecase.ErrForbidden, http.StatusForbidden},

	{usecase.ErrAppointmentNotFound, http.StatusNotFound},
	{usecase.ErrPatientNotFound, http.StatusNotFound},
	{usecase.ErrLedgerNotFound, http.StatusNotFound},
	{usecase.ErrAuditLogNotFound, http.StatusNotFound},
	{usecase.ErrCarePackageNotFound, http.StatusNotFound},
	{usecase.ErrClinicNotFound, http.StatusNotFound},
	{usecase.ErrUserNotFound, http.StatusNotFound},
	{usecase.ErrSOAPNoteNotFound, http.StatusNotFound},
	{usecase.ErrAlertNotFound, http.StatusNotFound},
	{usecase.ErrProviderNotFound, http.StatusNotFound},

	{usecase.ErrSlotConflict, http.StatusConflict},
	{usecase.ErrAlreadyCheckedOut, http.StatusConflict},
	{usecase.ErrRecordNumberExists, http.StatusConflict},
	{usecase.ErrEmailAlreadyExists, http.StatusConflict},
	{usecase.ErrUsernameAlreadyExists, http.StatusConflict},
	{usecase.ErrClinicCodeExists, http.StatusConflict},
	{usecase.ErrClinicEmailExists, http.StatusConflict},
	{usecase.ErrAuditLocked, http.StatusConflict},
	{usecase.ErrNoteSigned, http.StatusConflict},
	{usecase.ErrNoteConflict, http.StatusConflict},
	{usecase.ErrBonusAlreadyPaid, http.StatusConflict},
	{entity.ErrSessionAlreadyUsed, http.StatusConflict},

	{usecase.ErrOutsideBusinessHours, http.StatusBadRequest},
	{usecase.ErrAppointmentClosed, http.StatusBadRequest},
	{usecase.ErrCheckoutRequiresBilling, http.StatusBadRequest},
	{usecase.ErrInvalidMonth, http.StatusBadRequest},
	{usecase.ErrInvalidDate, http.StatusBadRequest},
	{usecase.ErrLedgerVoided, http.StatusBadRequest},
	{usecase.ErrUnknownBillingCode, http.StatusBadRequest},
	{usecase.ErrInvalidAmount, http.StatusBadRequest},
	{usecase.ErrInvalidExpiry, http.StatusBadRequest},
	{usecase.ErrPatientNotDeleted, http.StatusBadRequest},
	{usecase.ErrNoReferrer, http.StatusBadRequest},
	{usecase.ErrCannotModifySelf, http.StatusBadRequest},
	{usecase.ErrBusinessHourDayDup, http.StatusBadRequest},
	{usecase.ErrNoteEmpty, http.StatusBadRequest},
	{entity.ErrNoSessionsRemaining, http.StatusBadRequest},
	{entity.ErrPackageNotActive, http.StatusBadRequest},
}

// writeError renders err with the status its sentinel maps to. Unknown errors
// become a 500 carrying fallback as the message.
func writeError(w http.ResponseWriter, err error, fallback string) {
	var transitionErr *entity.StatusTransitionError
	if errors.As(err, &transitionErr) {
		response.Error(w, http.StatusBadRequest, transitionErr.Error(), map[string]string{
			"currentStatus": string(transitionErr.CurrentStatus),
		})
		return
	}

	if errors.Is(err, usecase.ErrServiceTimeout) {
		response.ServiceUnavailable(w, "service_timeout", err.Error())
		return
	}

	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			response.Error(w, m.status, err.Error(), nil)
			return
		}
	}

	response.InternalServerError(w, fallback, err)
}

// decode reads a JSON body into dst and validates it. It writes the error response itself.
func decode(w http.ResponseWriter, r *http.Request, v *validator.CustomValidator, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}

	if err := v.Validate(dst); err != nil {
		response.ValidationError(w, v.FormatValidationErrors(err))
		return false
	}
	return true
}

// decodeOptional is decode for endpoints whose body may be empty.
func decodeOptional(w http.ResponseWriter, r *http.Request, v *validator.CustomValidator, dst interface{}) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	return decode(w, r, v, dst)
}

// validateQuery validates a request struct built from query parameters.
func validateQuery(w http.ResponseWriter, v *validator.CustomValidator, req interface{}) bool {
	if err := v.Validate(req); err != nil {
		response.ValidationError(w, v.FormatValidationErrors(err))
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid "+label+" ID", nil)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func queryUUID(r *http.Request, key string) *uuid.UUID {
	id, err := uuid.Parse(r.URL.Query().Get(key))
	if err != nil {
		return nil
	}
	return &id
}

func queryBool(r *http.Request, key string) *bool {
	b, err := strconv.ParseBool(r.URL.Query().Get(key))
	if err != nil {
		return nil
	}
	return &b
}
