package entity

import (
	"database/sql/driver"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNoSessionsRemaining is returned by UseSession on an exhausted package.
var ErrNoSessionsRemaining = errors.New("no sessions remaining in care package")

// ErrPackageNotActive is returned by UseSession on a cancelled or expired package.
var ErrPackageNotActive = errors.New("care package is not active")

// ErrSessionAlreadyUsed is returned by UseSession when the appointment already consumed a session.
var ErrSessionAlreadyUsed = errors.New("a session of this care package was already used for the appointment")

// CarePackageStatus is the lifecycle state of a care package.
type CarePackageStatus string

const (
	CarePackageActive    CarePackageStatus = "active"
	CarePackageCompleted CarePackageStatus = "completed"
	CarePackageExpired   CarePackageStatus = "expired"
	CarePackageCancelled CarePackageStatus = "cancelled"
)

// CarePackage is a prepaid bundle of sessions owned by a patient.
type CarePackage struct {
	ID                uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ClinicID          uuid.UUID         `gorm:"type:uuid;not null;index" json:"clinic_id"`
	PatientID         uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	Name              string            `gorm:"type:varchar(255);not null" json:"name"`
	Description       string            `gorm:"type:text" json:"description,omitempty"`
	TotalSessions     int               `gorm:"not null" json:"total_sessions"`
	RemainingSessions int               `gorm:"not null" json:"remaining_sessions"`
	BillingCodes      StringList        `gorm:"type:jsonb" json:"billing_codes"`
	Price             decimal.Decimal   `gorm:"type:numeric(12,2);not null;default:0" json:"price"`
	Status            CarePackageStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	PurchaseDate      time.Time         `gorm:"not null" json:"purchase_date"`
	ExpiryDate        *time.Time        `json:"expiry_date,omitempty"`
	SessionHistory    SessionHistory    `gorm:"type:jsonb" json:"session_history"`
	CreatedBy         *uuid.UUID        `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt         time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CarePackage) TableName() string {
	return "care_packages"
}

type SessionUse struct {
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	CodesUsed     []string   `json:"codes_used,omitempty"`
	UsedBy        uuid.UUID  `json:"used_by"`
	UsedAt        time.Time  `json:"used_at"`
	Notes         string     `json:"notes,omitempty"`
}

type SessionHistory []SessionUse

func (h SessionHistory) Value() (driver.Value, error)  { return jsonValue(h) }
func (h *SessionHistory) Scan(value interface{}) error { return jsonScan(h, value) }

// Covers reports whether a session was used for appointmentID.
func (h SessionHistory) Covers(appointmentID uuid.UUID) bool {
	for _, use := range h {
		if use.AppointmentID != nil && *use.AppointmentID == appointmentID {
			return true
		}
	}
	return false
}

// IsExpired reports whether the expiry date has passed at now.
func (c *CarePackage) IsExpired(now time.Time) bool {
	return c.ExpiryDate != nil && now.After(*c.ExpiryDate)
}

// UseSession consumes exactly one session. On failure the package is unchanged.
// Reaching zero completes the package. An appointment consumes at most one session.
func (c *CarePackage) UseSession(use SessionUse) error {
	if c.Status != CarePackageActive {
		if c.Status == CarePackageCompleted {
			return ErrNoSessionsRemaining
		}
		return ErrPackageNotActive
	}
	if c.RemainingSessions <= 0 {
		return ErrNoSessionsRemaining
	}
	if use.AppointmentID != nil && c.SessionHistory.Covers(*use.AppointmentID) {
		return ErrSessionAlreadyUsed
	}
	c.RemainingSessions--
	c.SessionHistory = append(c.SessionHistory, use)
	if c.RemainingSessions == 0 {
		c.Status = CarePackageCompleted
	}
	return nil
}

// UsedSessions is the number of sessions consumed so far.
func (c *CarePackage) UsedSessions() int {
	return c.TotalSessions - c.RemainingSessions
}
