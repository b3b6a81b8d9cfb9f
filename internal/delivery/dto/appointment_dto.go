package dto

import (
	"time"

	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type AppointmentAlertRequest struct {
	Type     string `json:"type" validate:"required,max=50"`
	Message  string `json:"message" validate:"required,max=1000"`
	Priority string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

type CreateAppointmentRequest struct {
	PatientID     uuid.UUID                 `json:"patient_id" validate:"required"`
	ProviderID    *uuid.UUID                `json:"provider_id"`
	Date          string                    `json:"date" validate:"required,date"`
	Time          string                    `json:"time" validate:"required,clock"`
	Duration      int                       `json:"duration" validate:"omitempty,min=5,max=480"`
	Type          string                    `json:"type" validate:"required,oneof=initial follow-up re-evaluation maintenance emergency consultation"`
	VisitType     string                    `json:"visit_type" validate:"omitempty,oneof=new-patient established treatment therapy examination telehealth"`
	Reason        string                    `json:"reason" validate:"omitempty,max=1000"`
	Notes         string                    `json:"notes" validate:"omitempty,max=5000"`
	CarePackageID *uuid.UUID                `json:"care_package_id"`
	IsWalkIn      bool                      `json:"is_walk_in"`
	Alerts        []AppointmentAlertRequest `json:"alerts" validate:"omitempty,dive"`
}

// UpdateAppointmentRequest changes details. Date and time changes re-check the slot.
type UpdateAppointmentRequest struct {
	ProviderID    *uuid.UUID                `json:"provider_id"`
	Date          string                    `json:"date" validate:"omitempty,date"`
	Time          string                    `json:"time" validate:"omitempty,clock"`
	Duration      int                       `json:"duration" validate:"omitempty,min=5,max=480"`
	Type          string                    `json:"type" validate:"omitempty,oneof=initial follow-up re-evaluation maintenance emergency consultation"`
	VisitType     string                    `json:"visit_type" validate:"omitempty,oneof=new-patient established treatment therapy examination telehealth"`
	Reason        *string                   `json:"reason" validate:"omitempty,max=1000"`
	Notes         *string                   `json:"notes" validate:"omitempty,max=5000"`
	CarePackageID *uuid.UUID                `json:"care_package_id"`
	Alerts        []AppointmentAlertRequest `json:"alerts" validate:"omitempty,dive"`
}

type RescheduleRequest struct {
	Date        string `json:"date" validate:"required,date"`
	Time        string `json:"time" validate:"required,clock"`
	Reason      string `json:"reason" validate:"omitempty,max=1000"`
	InitiatedBy string `json:"initiated_by" validate:"omitempty,oneof=patient clinic provider"`
}

type CancelAppointmentRequest struct {
	Reason       string          `json:"reason" validate:"omitempty,max=1000"`
	RefundIssued bool            `json:"refund_issued"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

type TransitionRequest struct {
	Notes string `json:"notes" validate:"omitempty,max=1000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=scheduled checked-in in-progress checked-out cancelled no-show"`
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

type AppointmentListRequest struct {
	PatientID  *uuid.UUID `json:"patient_id"`
	ProviderID *uuid.UUID `json:"provider_id"`
	Status     string     `json:"status" validate:"omitempty,oneof=scheduled checked-in in-progress checked-out cancelled no-show"`
	DateFrom   string     `json:"date_from" validate:"omitempty,date"`
	DateTo     string     `json:"date_to" validate:"omitempty,date"`
	Page       int        `json:"page" validate:"omitempty,min=1"`
	Limit      int        `json:"limit" validate:"omitempty,min=1,max=100"`
}

// Response DTOs

type AppointmentResponse struct {
	ID                 uuid.UUID                `json:"id"`
	ClinicID           uuid.UUID                `json:"clinic_id"`
	PatientID          uuid.UUID                `json:"patient_id"`
	Patient            *PatientSummary          `json:"patient,omitempty"`
	ProviderID         *uuid.UUID               `json:"provider_id,omitempty"`
	Provider           *ActorResponse           `json:"provider,omitempty"`
	Date               string                   `json:"date"`
	Time               string                   `json:"time"`
	Duration           int                      `json:"duration"`
	Type               string                   `json:"type"`
	VisitType          string                   `json:"visit_type,omitempty"`
	Status             string                   `json:"status"`
	Reason             string                   `json:"reason,omitempty"`
	Notes              string                   `json:"notes,omitempty"`
	CheckInTime        *time.Time               `json:"check_in_time"`
	CheckOutTime       *time.Time               `json:"check_out_time"`
	ActualStartTime    *time.Time               `json:"actual_start_time"`
	ActualEndTime      *time.Time               `json:"actual_end_time"`
	BillingCodes       entity.BillingLineItems  `json:"billing_codes"`
	TotalAmount        decimal.Decimal          `json:"total_amount"`
	AmountPaid         decimal.Decimal          `json:"amount_paid"`
	Signature          *SignatureResponse       `json:"signature,omitempty"`
	Alerts             entity.AppointmentAlerts `json:"alerts"`
	CarePackageID      *uuid.UUID               `json:"care_package_id,omitempty"`
	IsWalkIn           bool                     `json:"is_walk_in"`
	CancelledBy        *uuid.UUID               `json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time               `json:"cancelled_at,omitempty"`
	CancellationReason string                   `json:"cancellation_reason,omitempty"`
	CreatedBy          *uuid.UUID               `json:"created_by,omitempty"`
	LastModifiedBy     *uuid.UUID               `json:"last_modified_by,omitempty"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Pagination   Pagination            `json:"pagination"`
}

type AppointmentHistoryResponse struct {
	ID                  uuid.UUID                   `json:"id"`
	AppointmentID       uuid.UUID                   `json:"appointment_id"`
	ChangeType          string                      `json:"change_type"`
	PreviousValues      entity.JSON                 `json:"previous_values,omitempty"`
	NewValues           entity.JSON                 `json:"new_values,omitempty"`
	ChangedBy           *uuid.UUID                  `json:"changed_by,omitempty"`
	ChangedAt           time.Time                   `json:"changed_at"`
	RescheduleDetails   *entity.RescheduleDetails   `json:"reschedule_details,omitempty"`
	CancellationDetails *entity.CancellationDetails `json:"cancellation_details,omitempty"`
	Notes               string                      `json:"notes,omitempty"`
}

// CalendarDay holds per-status counts for one date.
type CalendarDay struct {
	Date   string           `json:"date"`
	Total  int64            `json:"total"`
	Counts map[string]int64 `json:"counts"`
}

type CalendarResponse struct {
	Year  int           `json:"year"`
	Month int           `json:"month"`
	Days  []CalendarDay `json:"days"`
}

type DailyAppointmentsResponse struct {
	Date         string                `json:"date"`
	Total        int                   `json:"total"`
	Appointments []AppointmentResponse `json:"appointments"`
}

type DailyReportResponse struct {
	Date         string                   `json:"date"`
	Appointments map[string]int64         `json:"appointments"`
	Total        int64                    `json:"total"`
	Revenue      entity.RevenueSummary    `json:"revenue"`
	Compliance   *entity.ComplianceReport `json:"compliance"`
}
