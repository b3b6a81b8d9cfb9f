package dto

import (
	"time"

	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
)

// Request DTOs

type SaveSOAPNoteRequest struct {
	Subjective      string                  `json:"subjective" validate:"omitempty,max=20000"`
	Objective       string                  `json:"objective" validate:"omitempty,max=20000"`
	Assessment      string                  `json:"assessment" validate:"omitempty,max=20000"`
	Plan            string                  `json:"plan" validate:"omitempty,max=20000"`
	DiagnosticCodes []DiagnosticCodeRequest `json:"diagnostic_codes" validate:"omitempty,max=20,dive"`
}

type SignSOAPNoteRequest struct {
	Signature SignatureRequest `json:"signature"`
}

// Response DTOs

type SOAPNoteResponse struct {
	ID              uuid.UUID                `json:"id"`
	AppointmentID   uuid.UUID                `json:"appointment_id"`
	PatientID       uuid.UUID                `json:"patient_id"`
	ProviderID      *uuid.UUID               `json:"provider_id,omitempty"`
	Sections        entity.SOAPSections      `json:"sections"`
	DiagnosticCodes entity.DiagnosticEntries `json:"diagnostic_codes"`
	Signature       *SignatureResponse       `json:"signature,omitempty"`
	IsSigned        bool                     `json:"is_signed"`
	SignedBy        *uuid.UUID               `json:"signed_by,omitempty"`
	SignedAt        *time.Time               `json:"signed_at,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}
