package entity

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// Subscription plans and statuses
const (
	PlanBasic        = "basic"
	PlanProfessional = "professional"
	PlanEnterprise   = "enterprise"

	SubscriptionActive    = "active"
	SubscriptionTrial     = "trial"
	SubscriptionSuspended = "suspended"
	SubscriptionCancelled = "cancelled"
)

// Clinic is the tenant root. Every other record is partitioned by its ID.
type Clinic struct {
	ID                 uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name               string        `gorm:"type:varchar(255);not null" json:"name"`
	Code               string        `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	Email              string        `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone              string        `gorm:"type:varchar(30)" json:"phone,omitempty"`
	Address            Address       `gorm:"type:jsonb" json:"address"`
	BusinessHours      BusinessHours `gorm:"type:jsonb" json:"business_hours,omitempty"`
	TimeZone           string        `gorm:"column:timezone;type:varchar(64);not null;default:'UTC'" json:"timezone"`
	SubscriptionPlan   string        `gorm:"type:varchar(30);not null;default:'basic'" json:"subscription_plan"`
	SubscriptionStatus string        `gorm:"type:varchar(30);not null;default:'trial'" json:"subscription_status"`
	IsActive           bool          `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt          time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Clinic) TableName() string {
	return "clinics"
}

// Location resolves TimeZone. Unknown or empty zones fall back to UTC.
func (c *Clinic) Location() *time.Location {
	return LoadLocation(c.TimeZone)
}

// LoadLocation is time.LoadLocation with a UTC fallback.
func LoadLocation(zone string) *time.Location {
	if zone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

func (a Address) Value() (driver.Value, error)  { return jsonValue(a) }
func (a *Address) Scan(value interface{}) error { return jsonScan(a, value) }

// BusinessHour is the opening window of one weekday. Day uses time.Weekday numbering.
type BusinessHour struct {
	Day    time.Weekday `json:"day"`
	Open   string       `json:"open"`
	Close  string       `json:"close"`
	Closed bool         `json:"closed"`
}

type BusinessHours []BusinessHour

func (b BusinessHours) Value() (driver.Value, error)  { return jsonValue(b) }
func (b *BusinessHours) Scan(value interface{}) error { return jsonScan(b, value) }

// Allows reports whether a visit starting at clock (HH:MM) on date fits the
// configured hours. A clinic without configured hours allows everything.
func (b BusinessHours) Allows(date time.Time, clock string) bool {
	if len(b) == 0 {
		return true
	}
	for _, h := range b {
		if h.Day != date.Weekday() {
			continue
		}
		if h.Closed {
			return false
		}
		// HH:MM strings compare correctly as text.
		return clock >= h.Open && clock < h.Close
	}
	return false
}
