package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pagination describes one page of a list result.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

type SignatureRequest struct {
	Data     string     `json:"data" validate:"required"`
	SignedAt *time.Time `json:"signed_at"`
}

type SignatureResponse struct {
	Data      string     `json:"data,omitempty"`
	SignedAt  *time.Time `json:"signed_at,omitempty"`
	IPAddress string     `json:"ip_address,omitempty"`
}

type BillingLineItemRequest struct {
	Code            string          `json:"code" validate:"required,max=20"`
	Description     string          `json:"description" validate:"omitempty,max=255"`
	Units           int             `json:"units" validate:"omitempty,min=1,max=100"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	CoveragePercent decimal.Decimal `json:"coverage_percent"`
}

type DiscountRequest struct {
	Type        string          `json:"type" validate:"omitempty,max=50"`
	Description string          `json:"description" validate:"omitempty,max=255"`
	Amount      decimal.Decimal `json:"amount"`
}

type DiagnosticCodeRequest struct {
	Code        string `json:"code" validate:"required,max=20"`
	Description string `json:"description" validate:"omitempty,max=255"`
	IsPrimary   bool   `json:"is_primary"`
}

type SOAPRequest struct {
	Subjective string `json:"subjective"`
	Objective  string `json:"objective"`
	Assessment string `json:"assessment"`
	Plan       string `json:"plan"`
}

// ActorResponse is a short reference to a user.
type ActorResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
