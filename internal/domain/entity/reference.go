package entity

import (
	"github.com/shopspring/decimal"
)

// BillingCode is global reference data, not tenant scoped.
type BillingCode struct {
	Code         string          `gorm:"type:varchar(20);primaryKey" json:"code"`
	Description  string          `gorm:"type:varchar(255);not null" json:"description"`
	Category     string          `gorm:"type:varchar(50)" json:"category,omitempty"`
	DefaultPrice decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"default_price"`
	IsActive     bool            `gorm:"not null;default:true" json:"is_active"`
}

func (BillingCode) TableName() string {
	return "billing_codes"
}

// DiagnosticCode is an ICD-10 entry.
type DiagnosticCode struct {
	Code        string `gorm:"type:varchar(20);primaryKey" json:"code"`
	Description string `gorm:"type:varchar(255);not null" json:"description"`
	Category    string `gorm:"type:varchar(50)" json:"category,omitempty"`
	IsActive    bool   `gorm:"not null;default:true" json:"is_active"`
}

func (DiagnosticCode) TableName() string {
	return "diagnostic_codes"
}
