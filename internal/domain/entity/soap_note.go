package entity

import (
	"time"

	"github.com/google/uuid"
)

// SOAPNote is the clinical documentation of one appointment. Signed notes are immutable.
type SOAPNote struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ClinicID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"clinic_id"`
	AppointmentID   uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex" json:"appointment_id"`
	PatientID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	ProviderID      *uuid.UUID        `gorm:"type:uuid" json:"provider_id,omitempty"`
	Sections        SOAPSections      `gorm:"embedded" json:"sections"`
	DiagnosticCodes DiagnosticEntries `gorm:"type:jsonb" json:"diagnostic_codes"`
	Signature       Signature         `gorm:"embedded;embeddedPrefix:signature_" json:"signature"`
	IsSigned        bool              `gorm:"not null;default:false" json:"is_signed"`
	SignedBy        *uuid.UUID        `gorm:"type:uuid" json:"signed_by,omitempty"`
	SignedAt        *time.Time        `json:"signed_at,omitempty"`
	CreatedBy       *uuid.UUID        `gorm:"type:uuid" json:"created_by,omitempty"`
	UpdatedBy       *uuid.UUID        `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SOAPNote) TableName() string {
	return "soap_notes"
}

// Sign freezes the note.
func (n *SOAPNote) Sign(actor uuid.UUID, now time.Time) {
	n.IsSigned = true
	n.SignedBy = &actor
	n.SignedAt = &now
	if n.Signature.SignedAt == nil && !n.Signature.IsEmpty() {
		n.Signature.SignedAt = &now
	}
}
