package entity

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChangeType classifies an AppointmentHistory row.
type ChangeType string

const (
	ChangeCreate     ChangeType = "create"
	ChangeModify     ChangeType = "modify"
	ChangeReschedule ChangeType = "reschedule"
	ChangeCancel     ChangeType = "cancel"
	ChangeCheckIn    ChangeType = "check-in"
	ChangeCheckOut   ChangeType = "check-out"
	ChangeNoShow     ChangeType = "no-show"
)

// ChangeTypeFor returns the history change type recorded for an action.
func ChangeTypeFor(action Action) ChangeType {
	switch action {
	case ActionCheckIn:
		return ChangeCheckIn
	case ActionCheckout:
		return ChangeCheckOut
	case ActionCancel:
		return ChangeCancel
	case ActionNoShow:
		return ChangeNoShow
	case ActionReschedule:
		return ChangeReschedule
	default:
		return ChangeModify
	}
}

// AppointmentHistory is append-only. Rows are never updated or deleted.
type AppointmentHistory struct {
	ID                  uuid.UUID            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ClinicID            uuid.UUID            `gorm:"type:uuid;not null;index" json:"clinic_id"`
	AppointmentID       uuid.UUID            `gorm:"type:uuid;not null;index" json:"appointment_id"`
	PatientID           uuid.UUID            `gorm:"type:uuid;not null;index" json:"patient_id"`
	ChangeType          ChangeType           `gorm:"type:varchar(20);not null" json:"change_type"`
	PreviousValues      JSON                 `gorm:"type:jsonb" json:"previous_values,omitempty"`
	NewValues           JSON                 `gorm:"type:jsonb" json:"new_values,omitempty"`
	ChangedBy           *uuid.UUID           `gorm:"type:uuid" json:"changed_by,omitempty"`
	ChangedAt           time.Time            `gorm:"not null" json:"changed_at"`
	RescheduleDetails   *RescheduleDetails   `gorm:"type:jsonb" json:"reschedule_details,omitempty"`
	CancellationDetails *CancellationDetails `gorm:"type:jsonb" json:"cancellation_details,omitempty"`
	Notes               string               `gorm:"type:text" json:"notes,omitempty"`
}

func (AppointmentHistory) TableName() string {
	return "appointment_histories"
}

type RescheduleDetails struct {
	Reason       string `json:"reason,omitempty"`
	InitiatedBy  string `json:"initiated_by,omitempty"`
	OriginalDate string `json:"original_date"`
	OriginalTime string `json:"original_time"`
}

func (d RescheduleDetails) Value() (driver.Value, error)  { return jsonValue(d) }
func (d *RescheduleDetails) Scan(value interface{}) error { return jsonScan(d, value) }

type CancellationDetails struct {
	Reason       string          `json:"reason,omitempty"`
	RefundIssued bool            `json:"refund_issued"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

func (d CancellationDetails) Value() (driver.Value, error)  { return jsonValue(d) }
func (d *CancellationDetails) Scan(value interface{}) error { return jsonScan(d, value) }

// Snapshot captures the fields history rows compare before and after a change.
func (a *Appointment) Snapshot() JSON {
	snap := JSON{
		"status":   string(a.Status),
		"date":     a.Date,
		"time":     a.Time,
		"duration": a.Duration,
		"type":     a.Type,
	}
	if a.ProviderID != nil {
		snap["provider_id"] = a.ProviderID.String()
	}
	if a.CheckInTime != nil {
		snap["check_in_time"] = a.CheckInTime.UTC().Format(time.RFC3339)
	}
	if a.CheckOutTime != nil {
		snap["check_out_time"] = a.CheckOutTime.UTC().Format(time.RFC3339)
	}
	if !a.TotalAmount.IsZero() {
		snap["total_amount"] = a.TotalAmount.StringFixed(2)
	}
	return snap
}
