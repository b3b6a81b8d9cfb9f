package dto

import (
	"time"

	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type CreateCarePackageRequest struct {
	PatientID     uuid.UUID       `json:"patient_id" validate:"required"`
	Name          string          `json:"name" validate:"required,max=255"`
	Description   string          `json:"description" validate:"omitempty,max=2000"`
	TotalSessions int             `json:"total_sessions" validate:"required,min=1,max=500"`
	BillingCodes  []string        `json:"billing_codes" validate:"omitempty,max=20,dive,max=20"`
	Price         decimal.Decimal `json:"price"`
	PurchaseDate  string          `json:"purchase_date" validate:"omitempty,date"`
	ExpiryDate    string          `json:"expiry_date" validate:"omitempty,date"`
}

type UseSessionRequest struct {
	AppointmentID *uuid.UUID `json:"appointment_id"`
	CodesUsed     []string   `json:"codes_used" validate:"omitempty,max=20,dive,max=20"`
	Notes         string     `json:"notes" validate:"omitempty,max=1000"`
}

// Response DTOs

type CarePackageResponse struct {
	ID                uuid.UUID             `json:"id"`
	ClinicID          uuid.UUID             `json:"clinic_id"`
	PatientID         uuid.UUID             `json:"patient_id"`
	Name              string                `json:"name"`
	Description       string                `json:"description,omitempty"`
	TotalSessions     int                   `json:"total_sessions"`
	RemainingSessions int                   `json:"remaining_sessions"`
	UsedSessions      int                   `json:"used_sessions"`
	BillingCodes      entity.StringList     `json:"billing_codes"`
	Price             decimal.Decimal       `json:"price"`
	Status            string                `json:"status"`
	PurchaseDate      time.Time             `json:"purchase_date"`
	ExpiryDate        *time.Time            `json:"expiry_date,omitempty"`
	SessionHistory    entity.SessionHistory `json:"session_history"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}
