package entity

import "github.com/shopspring/decimal"

// StatusCount is one row of a status aggregate.
type StatusCount struct {
	Date   string            `json:"date,omitempty"`
	Status AppointmentStatus `json:"status"`
	Count  int64             `json:"count"`
}

// RevenueSummary totals non-voided ledger entries.
type RevenueSummary struct {
	Billed      decimal.Decimal `json:"billed"`
	Collected   decimal.Decimal `json:"collected"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Entries     int64           `json:"entries"`
}
