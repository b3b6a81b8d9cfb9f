package entity

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentStatus is derived from balance and amount paid.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// Payment methods
const (
	PaymentMethodCash        = "cash"
	PaymentMethodCard        = "card"
	PaymentMethodCheck       = "check"
	PaymentMethodInsurance   = "insurance"
	PaymentMethodCarePackage = "care-package"
	PaymentMethodOther       = "other"
)

var hundred = decimal.NewFromInt(100)

// BillingLineItem is one coded charge. TotalPrice is always derived.
type BillingLineItem struct {
	Code            string          `json:"code"`
	Description     string          `json:"description,omitempty"`
	Units           int             `json:"units"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	CoveragePercent decimal.Decimal `json:"coverage_percent"`
}

type BillingLineItems []BillingLineItem

func (b BillingLineItems) Value() (driver.Value, error)  { return jsonValue(b) }
func (b *BillingLineItems) Scan(value interface{}) error { return jsonScan(b, value) }

// Codes lists the billing codes in order.
func (b BillingLineItems) Codes() []string {
	codes := make([]string, 0, len(b))
	for _, item := range b {
		codes = append(codes, item.Code)
	}
	return codes
}

type Discount struct {
	Type        string          `json:"type,omitempty"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

type Discounts []Discount

func (d Discounts) Value() (driver.Value, error)  { return jsonValue(d) }
func (d *Discounts) Scan(value interface{}) error { return jsonScan(d, value) }

// InsuranceClaim is informational; it never changes the balance.
type InsuranceClaim struct {
	Provider              string          `json:"provider,omitempty"`
	PolicyNumber          string          `json:"policy_number,omitempty"`
	ClaimNumber           string          `json:"claim_number,omitempty"`
	ClaimStatus           string          `json:"claim_status,omitempty"`
	CoveredAmount         decimal.Decimal `json:"covered_amount"`
	PatientResponsibility decimal.Decimal `json:"patient_responsibility"`
	SubmittedAt           *time.Time      `json:"submitted_at,omitempty"`
}

func (c InsuranceClaim) Value() (driver.Value, error)  { return jsonValue(c) }
func (c *InsuranceClaim) Scan(value interface{}) error { return jsonScan(c, value) }

// Ledger is the settlement record produced at checkout.
type Ledger struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ClinicID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"clinic_id"`
	PatientID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"patient_id"`
	AppointmentID uuid.UUID        `gorm:"type:uuid;not null;index" json:"appointment_id"`
	ProviderID    *uuid.UUID       `gorm:"type:uuid" json:"provider_id,omitempty"`
	VisitDate     string           `gorm:"type:varchar(10);not null;index" json:"visit_date"`
	VisitType     string           `gorm:"type:varchar(30)" json:"visit_type,omitempty"`
	BillingCodes  BillingLineItems `gorm:"type:jsonb" json:"billing_codes"`
	Subtotal      decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0" json:"subtotal"`
	Discounts     Discounts        `gorm:"type:jsonb" json:"discounts"`
	TotalDiscount decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0" json:"total_discount"`
	TotalAmount   decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0" json:"total_amount"`
	AmountPaid    decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0" json:"amount_paid"`
	Balance       decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0" json:"balance"`
	PaymentStatus PaymentStatus    `gorm:"type:varchar(20);not null;default:'pending';index" json:"payment_status"`
	PaymentMethod string           `gorm:"type:varchar(30)" json:"payment_method,omitempty"`
	Insurance     *InsuranceClaim  `gorm:"type:jsonb" json:"insurance,omitempty"`
	Signature     Signature        `gorm:"embedded;embeddedPrefix:signature_" json:"signature"`
	Notes         string           `gorm:"type:text" json:"notes,omitempty"`
	CarePackageID *uuid.UUID       `gorm:"type:uuid" json:"care_package_id,omitempty"`
	IsVoided      bool             `gorm:"not null;default:false;index" json:"is_voided"`
	VoidReason    string           `gorm:"type:text" json:"void_reason,omitempty"`
	VoidedBy      *uuid.UUID       `gorm:"type:uuid" json:"voided_by,omitempty"`
	VoidedAt      *time.Time       `json:"voided_at,omitempty"`
	CreatedBy     *uuid.UUID       `gorm:"type:uuid" json:"created_by,omitempty"`
	UpdatedBy     *uuid.UUID       `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Ledger) TableName() string {
	return "ledgers"
}

// BeforeSave re-derives every computed money field so stored totals never
// come from client input.
func (l *Ledger) BeforeSave(tx *gorm.DB) error {
	l.Recalculate()
	return nil
}

// Recalculate derives line totals, subtotal, discount, total, balance,
// payment status and the insurance split. Calling it twice is a no-op.
func (l *Ledger) Recalculate() {
	subtotal := decimal.Zero
	covered := decimal.Zero
	for i := range l.BillingCodes {
		item := &l.BillingCodes[i]
		if item.Units <= 0 {
			item.Units = 1
		}
		item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Units))).Round(2)
		subtotal = subtotal.Add(item.TotalPrice)
		if item.CoveragePercent.IsPositive() {
			covered = covered.Add(item.TotalPrice.Mul(item.CoveragePercent).Div(hundred))
		}
	}

	totalDiscount := decimal.Zero
	for _, d := range l.Discounts {
		totalDiscount = totalDiscount.Add(d.Amount)
	}

	total := subtotal.Sub(totalDiscount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	l.Subtotal = subtotal
	l.TotalDiscount = totalDiscount
	l.TotalAmount = total
	l.Balance = total.Sub(l.AmountPaid)
	l.PaymentStatus = derivePaymentStatus(l.Balance, l.AmountPaid)

	if l.Insurance != nil {
		covered = decimal.Min(total, covered.Round(2))
		l.Insurance.CoveredAmount = covered
		l.Insurance.PatientResponsibility = total.Sub(covered)
	}
}

func derivePaymentStatus(balance, amountPaid decimal.Decimal) PaymentStatus {
	switch {
	case !balance.IsPositive():
		return PaymentPaid
	case amountPaid.IsPositive():
		return PaymentPartial
	default:
		return PaymentPending
	}
}

// Void marks the entry voided. Voiding is terminal.
func (l *Ledger) Void(actor uuid.UUID, reason string, now time.Time) {
	l.IsVoided = true
	l.VoidReason = reason
	l.VoidedBy = &actor
	l.VoidedAt = &now
}

// LedgerFilter is a domain-level filter for listing ledger entries.
type LedgerFilter struct {
	PatientID     *uuid.UUID
	PaymentStatus PaymentStatus
	DateFrom      string
	DateTo        string
	IncludeVoided bool
	Page          int
	Limit         int
}

// BalanceSummary aggregates a patient's non-voided ledger entries.
type BalanceSummary struct {
	PatientID    uuid.UUID       `json:"patient_id"`
	EntryCount   int64           `json:"entry_count"`
	TotalBilled  decimal.Decimal `json:"total_billed"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	PendingCount int64           `json:"pending_count"`
	PartialCount int64           `json:"partial_count"`
}
