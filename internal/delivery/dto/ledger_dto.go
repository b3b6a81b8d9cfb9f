package dto

import (
	"time"

	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type InsuranceClaimRequest struct {
	Provider     string `json:"provider" validate:"omitempty,max=255"`
	PolicyNumber string `json:"policy_number" validate:"omitempty,max=100"`
	ClaimNumber  string `json:"claim_number" validate:"omitempty,max=100"`
	ClaimStatus  string `json:"claim_status" validate:"omitempty,oneof=draft submitted approved denied paid"`
}

type CopayOverrideRequest struct {
	OriginalAmount decimal.Decimal `json:"original_amount"`
	NewAmount      decimal.Decimal `json:"new_amount"`
	Reason         string          `json:"reason" validate:"required,max=1000"`
	ApprovedBy     *uuid.UUID      `json:"approved_by"`
}

// CheckoutRequest settles an appointment. Both checkout entrypoints accept it.
type CheckoutRequest struct {
	AppointmentID   uuid.UUID                `json:"appointment_id" validate:"required"`
	BillingCodes    []BillingLineItemRequest `json:"billing_codes" validate:"required,min=1,max=50,dive"`
	Discounts       []DiscountRequest        `json:"discounts" validate:"omitempty,max=10,dive"`
	PaymentMethod   string                   `json:"payment_method" validate:"required,oneof=cash card check insurance care-package other"`
	AmountPaid      decimal.Decimal          `json:"amount_paid"`
	Signature       SignatureRequest         `json:"signature"`
	Notes           string                   `json:"notes" validate:"omitempty,max=5000"`
	CarePackageID   *uuid.UUID               `json:"care_package_id"`
	Insurance       *InsuranceClaimRequest   `json:"insurance"`
	SOAP            *SOAPRequest             `json:"soap"`
	DiagnosticCodes []DiagnosticCodeRequest  `json:"diagnostic_codes" validate:"omitempty,max=20,dive"`
	CopayOverride   *CopayOverrideRequest    `json:"copay_override"`
}

type UpdateLedgerRequest struct {
	BillingCodes  []BillingLineItemRequest `json:"billing_codes" validate:"omitempty,min=1,max=50,dive"`
	Discounts     []DiscountRequest        `json:"discounts" validate:"omitempty,max=10,dive"`
	PaymentMethod string                   `json:"payment_method" validate:"omitempty,oneof=cash card check insurance care-package other"`
	AmountPaid    *decimal.Decimal         `json:"amount_paid"`
	Notes         *string                  `json:"notes" validate:"omitempty,max=5000"`
	Insurance     *InsuranceClaimRequest   `json:"insurance"`
}

type VoidLedgerRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type LedgerListRequest struct {
	PatientID     *uuid.UUID `json:"patient_id"`
	PaymentStatus string     `json:"payment_status" validate:"omitempty,oneof=pending partial paid"`
	DateFrom      string     `json:"date_from" validate:"omitempty,date"`
	DateTo        string     `json:"date_to" validate:"omitempty,date"`
	IncludeVoided bool       `json:"include_voided"`
	Page          int        `json:"page" validate:"omitempty,min=1"`
	Limit         int        `json:"limit" validate:"omitempty,min=1,max=100"`
}

// Response DTOs

type LedgerResponse struct {
	ID            uuid.UUID               `json:"id"`
	ClinicID      uuid.UUID               `json:"clinic_id"`
	PatientID     uuid.UUID               `json:"patient_id"`
	AppointmentID uuid.UUID               `json:"appointment_id"`
	ProviderID    *uuid.UUID              `json:"provider_id,omitempty"`
	VisitDate     string                  `json:"visit_date"`
	VisitType     string                  `json:"visit_type,omitempty"`
	BillingCodes  entity.BillingLineItems `json:"billing_codes"`
	Subtotal      decimal.Decimal         `json:"subtotal"`
	Discounts     entity.Discounts        `json:"discounts"`
	TotalDiscount decimal.Decimal         `json:"total_discount"`
	TotalAmount   decimal.Decimal         `json:"total_amount"`
	AmountPaid    decimal.Decimal         `json:"amount_paid"`
	Balance       decimal.Decimal         `json:"balance"`
	PaymentStatus string                  `json:"payment_status"`
	PaymentMethod string                  `json:"payment_method,omitempty"`
	Insurance     *entity.InsuranceClaim  `json:"insurance,omitempty"`
	Signature     *SignatureResponse      `json:"signature,omitempty"`
	Notes         string                  `json:"notes,omitempty"`
	CarePackageID *uuid.UUID              `json:"care_package_id,omitempty"`
	IsVoided      bool                    `json:"is_voided"`
	VoidReason    string                  `json:"void_reason,omitempty"`
	VoidedBy      *uuid.UUID              `json:"voided_by,omitempty"`
	VoidedAt      *time.Time              `json:"voided_at,omitempty"`
	CreatedBy     *uuid.UUID              `json:"created_by,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

type LedgerListResponse struct {
	Entries    []LedgerResponse `json:"entries"`
	Pagination Pagination       `json:"pagination"`
}

// CheckoutResponse carries every record the checkout wrote.
type CheckoutResponse struct {
	Ledger      *LedgerResponse      `json:"ledger"`
	Appointment *AppointmentResponse `json:"appointment"`
	AuditLog    *AuditLogResponse    `json:"audit_log"`
	CarePackage *CarePackageResponse `json:"care_package,omitempty"`
}
