package dto

import (
	"time"

	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
)

// Request DTOs

type PaymentDetailsRequest struct {
	Method        string                `json:"method" validate:"omitempty,oneof=cash card check insurance care-package other"`
	CopayOverride *CopayOverrideRequest `json:"copay_override"`
}

// CreateAuditLogRequest documents a visit outside checkout.
type CreateAuditLogRequest struct {
	PatientID       uuid.UUID                `json:"patient_id" validate:"required"`
	AppointmentID   *uuid.UUID               `json:"appointment_id"`
	LedgerID        *uuid.UUID               `json:"ledger_id"`
	ProviderID      *uuid.UUID               `json:"provider_id"`
	VisitDate       string                   `json:"visit_date" validate:"required,date"`
	VisitTime       string                   `json:"visit_time" validate:"omitempty,clock"`
	VisitType       string                   `json:"visit_type" validate:"omitempty,max=30"`
	BillingCodes    []BillingLineItemRequest `json:"billing_codes" validate:"omitempty,max=50,dive"`
	DiagnosticCodes []DiagnosticCodeRequest  `json:"diagnostic_codes" validate:"omitempty,max=20,dive"`
	SOAP            SOAPRequest              `json:"soap"`
	Signature       *SignatureRequest        `json:"signature"`
	Payment         *PaymentDetailsRequest   `json:"payment"`
}

// UpdateAuditLogRequest replaces the given blocks. Omitted blocks are kept.
type UpdateAuditLogRequest struct {
	VisitType       string                   `json:"visit_type" validate:"omitempty,max=30"`
	BillingCodes    []BillingLineItemRequest `json:"billing_codes" validate:"omitempty,max=50,dive"`
	DiagnosticCodes []DiagnosticCodeRequest  `json:"diagnostic_codes" validate:"omitempty,max=20,dive"`
	SOAP            *SOAPRequest             `json:"soap"`
	Signature       *SignatureRequest        `json:"signature"`
	Payment         *PaymentDetailsRequest   `json:"payment"`
}

type LockAuditLogRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type FlagAuditLogRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type AuditLogListRequest struct {
	PatientID   *uuid.UUID `json:"patient_id"`
	Action      string     `json:"action" validate:"omitempty,oneof=visit_documentation manual_bonus_payout"`
	FlaggedOnly bool       `json:"flagged_only"`
	DateFrom    string     `json:"date_from" validate:"omitempty,date"`
	DateTo      string     `json:"date_to" validate:"omitempty,date"`
	Page        int        `json:"page" validate:"omitempty,min=1"`
	Limit       int        `json:"limit" validate:"omitempty,min=1,max=100"`
}

type ComplianceReportRequest struct {
	DateFrom string `json:"date_from" validate:"omitempty,date"`
	DateTo   string `json:"date_to" validate:"omitempty,date"`
}

// Response DTOs

type AuditLogResponse struct {
	ID               uuid.UUID                `json:"id"`
	ClinicID         uuid.UUID                `json:"clinic_id"`
	Action           string                   `json:"action"`
	PatientID        uuid.UUID                `json:"patient_id"`
	AppointmentID    *uuid.UUID               `json:"appointment_id,omitempty"`
	LedgerID         *uuid.UUID               `json:"ledger_id,omitempty"`
	ProviderID       *uuid.UUID               `json:"provider_id,omitempty"`
	VisitDate        string                   `json:"visit_date"`
	VisitTime        string                   `json:"visit_time,omitempty"`
	VisitType        string                   `json:"visit_type,omitempty"`
	BillingCodes     entity.BillingLineItems  `json:"billing_codes"`
	DiagnosticCodes  entity.DiagnosticEntries `json:"diagnostic_codes"`
	SOAP             entity.SOAPSections      `json:"soap"`
	Signature        *SignatureResponse       `json:"signature,omitempty"`
	Payment          entity.PaymentDetails    `json:"payment"`
	ComplianceFlags  entity.ComplianceFlags   `json:"compliance_flags"`
	FlaggedForReview bool                     `json:"flagged_for_review"`
	ReviewReason     string                   `json:"review_reason,omitempty"`
	AuditEvents      entity.AuditEvents       `json:"audit_events"`
	IsLocked         bool                     `json:"is_locked"`
	LockedBy         *uuid.UUID               `json:"locked_by,omitempty"`
	LockedAt         *time.Time               `json:"locked_at,omitempty"`
	LockReason       string                   `json:"lock_reason,omitempty"`
	FirstSavedAt     *time.Time               `json:"first_saved_at,omitempty"`
	Metadata         entity.JSON              `json:"metadata,omitempty"`
	CreatedBy        *uuid.UUID               `json:"created_by,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

type AuditLogListResponse struct {
	Logs       []AuditLogResponse `json:"logs"`
	Pagination Pagination         `json:"pagination"`
}

// AuditExportResponse is the export payload of one record.
type AuditExportResponse struct {
	ExportedAt time.Time         `json:"exported_at"`
	ExportedBy uuid.UUID         `json:"exported_by"`
	Record     *AuditLogResponse `json:"record"`
}
