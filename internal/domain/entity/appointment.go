package entity

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Date and clock layouts used by appointment fields.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// DefaultDuration is the visit length in minutes when none is given.
const DefaultDuration = 30

// Appointment types
const (
	AppointmentTypeInitial      = "initial"
	AppointmentTypeFollowUp     = "follow-up"
	AppointmentTypeReEvaluation = "re-evaluation"
	AppointmentTypeMaintenance  = "maintenance"
	AppointmentTypeEmergency    = "emergency"
	AppointmentTypeConsultation = "consultation"
)

// Visit types
const (
	VisitTypeNewPatient  = "new-patient"
	VisitTypeEstablished = "established"
	VisitTypeTreatment   = "treatment"
	VisitTypeTherapy     = "therapy"
	VisitTypeExamination = "examination"
	VisitTypeTelehealth  = "telehealth"
)

// Appointment is one scheduled visit. Status only changes through Transition.
type Appointment struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ClinicID        uuid.UUID         `gorm:"type:uuid;not null;index:idx_appointments_clinic_date" json:"clinic_id"`
	PatientID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	ProviderID      *uuid.UUID        `gorm:"type:uuid;index" json:"provider_id,omitempty"`
	Date            string            `gorm:"type:varchar(10);not null;index:idx_appointments_clinic_date" json:"date"`
	Time            string            `gorm:"type:varchar(5);not null" json:"time"`
	Duration        int               `gorm:"not null;default:30" json:"duration"`
	Type            string            `gorm:"type:varchar(30);not null" json:"type"`
	VisitType       string            `gorm:"type:varchar(30)" json:"visit_type,omitempty"`
	Status          AppointmentStatus `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
	Reason          string            `gorm:"type:text" json:"reason,omitempty"`
	Notes           string            `gorm:"type:text" json:"notes,omitempty"`
	CheckInTime     *time.Time        `json:"check_in_time"`
	CheckOutTime    *time.Time        `json:"check_out_time"`
	ActualStartTime *time.Time        `json:"actual_start_time"`
	ActualEndTime   *time.Time        `json:"actual_end_time"`
	BillingCodes    BillingLineItems  `gorm:"type:jsonb" json:"billing_codes"`
	TotalAmount     decimal.Decimal   `gorm:"type:numeric(12,2);not null;default:0" json:"total_amount"`
	AmountPaid      decimal.Decimal   `gorm:"type:numeric(12,2);not null;default:0" json:"amount_paid"`
	Signature       Signature         `gorm:"embedded;embeddedPrefix:signature_" json:"signature"`
	Alerts          AppointmentAlerts `gorm:"type:jsonb" json:"alerts"`
	CarePackageID   *uuid.UUID        `gorm:"type:uuid" json:"care_package_id,omitempty"`
	IsWalkIn        bool              `gorm:"not null;default:false" json:"is_walk_in"`
	CancelledBy     *uuid.UUID        `gorm:"type:uuid" json:"cancelled_by,omitempty"`
	CancelledAt     *time.Time        `json:"cancelled_at,omitempty"`
	CancelReason    string            `gorm:"column:cancellation_reason;type:text" json:"cancellation_reason,omitempty"`
	ReminderSentAt  *time.Time        `json:"reminder_sent_at,omitempty"`
	CreatedBy       *uuid.UUID        `gorm:"type:uuid" json:"created_by,omitempty"`
	LastModifiedBy  *uuid.UUID        `gorm:"type:uuid" json:"last_modified_by,omitempty"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient  *Patient `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Provider *User    `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// OccupiesSlot reports whether the appointment blocks its (date, time) slot.
func (a *Appointment) OccupiesSlot() bool {
	return a.Status != StatusCancelled && a.Status != StatusNoShow
}

// VisitDate parses Date in UTC. Zero time on malformed input.
func (a *Appointment) VisitDate() time.Time {
	t, _ := time.Parse(DateLayout, a.Date)
	return t
}

// StartsAt combines Date and Time into one instant in loc.
func (a *Appointment) StartsAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout+" "+ClockLayout, a.Date+" "+a.Time, loc)
}

// Touch records who modified the appointment last. A nil actor is the system.
func (a *Appointment) Touch(actor uuid.UUID, now time.Time) {
	if actor == uuid.Nil {
		a.LastModifiedBy = nil
	} else {
		a.LastModifiedBy = &actor
	}
	a.UpdatedAt = now
}

// MirrorLedger copies the settlement snapshot from a ledger entry.
func (a *Appointment) MirrorLedger(l *Ledger) {
	a.BillingCodes = l.BillingCodes
	a.TotalAmount = l.TotalAmount
	a.AmountPaid = l.AmountPaid
	if !l.Signature.IsEmpty() {
		a.Signature = l.Signature
	}
}

// Signature is a captured patient signature.
type Signature struct {
	Data      string     `gorm:"type:text" json:"data,omitempty"`
	SignedAt  *time.Time `json:"signed_at,omitempty"`
	IPAddress string     `gorm:"type:varchar(64)" json:"ip_address,omitempty"`
}

// IsEmpty reports whether no signature data was captured.
func (s Signature) IsEmpty() bool {
	return s.Data == ""
}

type AppointmentAlert struct {
	Type     string    `json:"type"`
	Message  string    `json:"message"`
	Priority string    `json:"priority,omitempty"`
	AddedBy  uuid.UUID `json:"added_by"`
	AddedAt  time.Time `json:"added_at"`
}

type AppointmentAlerts []AppointmentAlert

func (a AppointmentAlerts) Value() (driver.Value, error)  { return jsonValue(a) }
func (a *AppointmentAlerts) Scan(value interface{}) error { return jsonScan(a, value) }

// AppointmentFilter is a domain-level filter for listing appointments.
type AppointmentFilter struct {
	PatientID  *uuid.UUID
	ProviderID *uuid.UUID
	Status     AppointmentStatus
	DateFrom   string // YYYY-MM-DD
	DateTo     string // YYYY-MM-DD
	Page       int
	Limit      int
}
