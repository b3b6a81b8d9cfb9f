package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/usecase"
	"clinic-management-api/pkg/response"
	"clinic-management-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type envelope struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
	Errors  map[string]string      `json:"errors"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
		wantData   map[string]string
	}{
		{
			name:       "transition guard",
			err:        &entity.StatusTransitionError{Action: entity.ActionCheckIn, CurrentStatus: entity.StatusCancelled},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Cannot check in appointment with status: cancelled",
			wantData:   map[string]string{"currentStatus": "cancelled"},
		},
		{
			name:       "login timeout",
			err:        usecase.ErrServiceTimeout,
			wantStatus: http.StatusServiceUnavailable,
			wantMsg:    usecase.ErrServiceTimeout.Error(),
			wantData:   map[string]string{"code": "service_timeout"},
		},
		{name: "not found", err: usecase.ErrAppointmentNotFound, wantStatus: http.StatusNotFound, wantMsg: usecase.ErrAppointmentNotFound.Error()},
		{name: "slot conflict", err: usecase.ErrSlotConflict, wantStatus: http.StatusConflict, wantMsg: usecase.ErrSlotConflict.Error()},
		{name: "duplicate checkout", err: usecase.ErrAlreadyCheckedOut, wantStatus: http.StatusConflict, wantMsg: usecase.ErrAlreadyCheckedOut.Error()},
		{
			name:       "wrapped billing code",
			err:        fmt.Errorf("%w: XYZ", usecase.ErrUnknownBillingCode),
			wantStatus: http.StatusBadRequest,
			wantMsg:    usecase.ErrUnknownBillingCode.Error() + ": XYZ",
		},
		{name: "no sessions", err: entity.ErrNoSessionsRemaining, wantStatus: http.StatusBadRequest, wantMsg: entity.ErrNoSessionsRemaining.Error()},
		{name: "locked audit", err: usecase.ErrAuditLocked, wantStatus: http.StatusConflict, wantMsg: usecase.ErrAuditLocked.Error()},
		{name: "missing clinic", err: usecase.ErrClinicRequired, wantStatus: http.StatusForbidden, wantMsg: usecase.ErrClinicRequired.Error()},
		{name: "unknown", err: errors.New("pq: connection refused"), wantStatus: http.StatusInternalServerError, wantMsg: "Failed to do thing"},
	}

	response.ExposeInternalErrors(false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err, "Failed to do thing")

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			env := decodeEnvelope(t, rec)
			if env.Status != response.StatusError || env.Message != tt.wantMsg {
				t.Errorf("envelope = %+v", env)
			}
			for k, v := range tt.wantData {
				if env.Data[k] != v {
					t.Errorf("data[%s] = %q, want %q", k, env.Data[k], v)
				}
			}
			if tt.wantStatus == http.StatusInternalServerError && len(env.Data) != 0 {
				t.Errorf("internal error details leaked: %v", env.Data)
			}
		})
	}
}

// fakeAppointmentUsecase answers the calls the handler tests make.
type fakeAppointmentUsecase struct {
	usecase.AppointmentUsecase
	created *dto.CreateAppointmentRequest
	checkIn error
}

func (f *fakeAppointmentUsecase) Create(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	f.created = req
	return &dto.AppointmentResponse{ID: uuid.New(), Date: req.Date, Time: req.Time, Status: string(entity.StatusScheduled)}, nil
}

func (f *fakeAppointmentUsecase) CheckIn(ctx context.Context, id uuid.UUID, req *dto.TransitionRequest) (*dto.AppointmentResponse, error) {
	if f.checkIn != nil {
		return nil, f.checkIn
	}
	return &dto.AppointmentResponse{ID: id, Status: string(entity.StatusCheckedIn)}, nil
}

func newAppointmentRouter(uc usecase.AppointmentUsecase) *mux.Router {
	h := NewAppointmentHandler(uc, nil, validator.NewValidator())
	r := mux.NewRouter()
	r.HandleFunc("/appointments", h.CreateAppointment).Methods(http.MethodPost)
	r.HandleFunc("/appointments/{id}/check-in", h.CheckIn).Methods(http.MethodPost)
	return r
}

func TestCreateAppointmentHandler(t *testing.T) {
	patientID := uuid.New()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantErrors []string
	}{
		{
			name:       "valid",
			body:       fmt.Sprintf(`{"patient_id":%q,"date":"2024-03-04","time":"09:30","type":"follow-up"}`, patientID),
			wantStatus: http.StatusCreated,
		},
		{
			name:       "bad clock and type",
			body:       fmt.Sprintf(`{"patient_id":%q,"date":"2024-03-04","time":"9.30","type":"spa"}`, patientID),
			wantStatus: http.StatusBadRequest,
			wantErrors: []string{"time", "type"},
		},
		{
			name:       "missing patient",
			body:       `{"date":"2024-03-04","time":"09:30","type":"initial"}`,
			wantStatus: http.StatusBadRequest,
			wantErrors: []string{"patient_id"},
		},
		{
			name:       "malformed json",
			body:       `{"date":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &fakeAppointmentUsecase{}
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(tt.body))
			newAppointmentRouter(uc).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			env := decodeEnvelope(t, rec)
			for _, field := range tt.wantErrors {
				if _, ok := env.Errors[field]; !ok {
					t.Errorf("missing validation error for %s: %v", field, env.Errors)
				}
			}
			if tt.wantStatus != http.StatusCreated && uc.created != nil {
				t.Error("usecase must not be called for an invalid request")
			}
		})
	}
}

func TestCheckInHandler(t *testing.T) {
	t.Run("rejected transition reports current status", func(t *testing.T) {
		uc := &fakeAppointmentUsecase{checkIn: &entity.StatusTransitionError{Action: entity.ActionCheckIn, CurrentStatus: entity.StatusCheckedOut}}
		rec := httptest.NewRecorder()
		newAppointmentRouter(uc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/appointments/"+uuid.NewString()+"/check-in", nil))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		if env := decodeEnvelope(t, rec); env.Data["currentStatus"] != "checked-out" {
			t.Errorf("data = %v", env.Data)
		}
	})

	t.Run("empty body is accepted", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newAppointmentRouter(&fakeAppointmentUsecase{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/appointments/"+uuid.NewString()+"/check-in", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("bad id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newAppointmentRouter(&fakeAppointmentUsecase{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/appointments/42/check-in", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}
