package entity

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PatientStatus is the soft-delete state of a patient record.
type PatientStatus string

const (
	PatientStatusActive   PatientStatus = "active"
	PatientStatusInactive PatientStatus = "inactive"
	PatientStatusDeleted  PatientStatus = "deleted"
)

// Gender constants
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Patient is scoped to one clinic and never hard-deleted.
type Patient struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ClinicID       uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:idx_patients_clinic_record" json:"clinic_id"`
	RecordNumber   string            `gorm:"type:varchar(50);not null;uniqueIndex:idx_patients_clinic_record" json:"record_number"`
	FirstName      string            `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName       string            `gorm:"type:varchar(100);not null" json:"last_name"`
	DateOfBirth    *time.Time        `gorm:"type:date" json:"date_of_birth,omitempty"`
	Gender         string            `gorm:"type:varchar(10)" json:"gender,omitempty"`
	Email          string            `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone          string            `gorm:"type:varchar(30);index" json:"phone,omitempty"`
	Address        Address           `gorm:"type:jsonb" json:"address"`
	Insurance      InsurancePolicies `gorm:"type:jsonb" json:"insurance"`
	Referral       Referral          `gorm:"type:jsonb" json:"referral"`
	ActivePackages UUIDList          `gorm:"type:jsonb" json:"active_packages"`
	Alerts         PatientAlerts     `gorm:"type:jsonb" json:"alerts"`
	MedicalHistory MedicalHistory    `gorm:"type:jsonb" json:"medical_history"`
	Status         PatientStatus     `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	DeletedAt      *time.Time        `json:"deleted_at,omitempty"`
	DeletedBy      *uuid.UUID        `gorm:"type:uuid" json:"deleted_by,omitempty"`
	CreatedBy      *uuid.UUID        `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt      time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Patient) TableName() string {
	return "patients"
}

// FullName joins first and last name.
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// IsDeleted checks if the patient has been soft-deleted
func (p *Patient) IsDeleted() bool {
	return p.Status == PatientStatusDeleted
}

// SoftDelete flips the status and stamps who and when.
func (p *Patient) SoftDelete(actor uuid.UUID, now time.Time) {
	p.Status = PatientStatusDeleted
	p.DeletedAt = &now
	p.DeletedBy = &actor
}

// Restore brings a soft-deleted patient back to active.
func (p *Patient) Restore() {
	p.Status = PatientStatusActive
	p.DeletedAt = nil
	p.DeletedBy = nil
}

// PrimaryInsurance returns the policy flagged primary, or the first one.
func (p *Patient) PrimaryInsurance() *InsurancePolicy {
	for i := range p.Insurance {
		if p.Insurance[i].IsPrimary {
			return &p.Insurance[i]
		}
	}
	if len(p.Insurance) > 0 {
		return &p.Insurance[0]
	}
	return nil
}

type InsurancePolicy struct {
	Provider      string          `json:"provider"`
	PolicyNumber  string          `json:"policy_number"`
	GroupNumber   string          `json:"group_number,omitempty"`
	Copay         decimal.Decimal `json:"copay"`
	Deductible    decimal.Decimal `json:"deductible"`
	CoverageStart *time.Time      `json:"coverage_start,omitempty"`
	CoverageEnd   *time.Time      `json:"coverage_end,omitempty"`
	IsPrimary     bool            `json:"is_primary"`
}

// CoversDate reports whether the coverage window includes t.
func (i InsurancePolicy) CoversDate(t time.Time) bool {
	if i.CoverageStart != nil && t.Before(*i.CoverageStart) {
		return false
	}
	if i.CoverageEnd != nil && t.After(*i.CoverageEnd) {
		return false
	}
	return true
}

type InsurancePolicies []InsurancePolicy

func (p InsurancePolicies) Value() (driver.Value, error)  { return jsonValue(p) }
func (p *InsurancePolicies) Scan(value interface{}) error { return jsonScan(p, value) }

// Referral records who referred the patient and the bonus payout state.
type Referral struct {
	ReferredByPatientID *uuid.UUID      `json:"referred_by_patient_id,omitempty"`
	ReferrerName        string          `json:"referrer_name,omitempty"`
	Source              string          `json:"source,omitempty"`
	BonusAmount         decimal.Decimal `json:"bonus_amount"`
	BonusPaid           bool            `json:"bonus_paid"`
	PayoutDate          *time.Time      `json:"payout_date,omitempty"`
	HandledBy           *uuid.UUID      `json:"handled_by,omitempty"`
	Notes               []string        `json:"notes,omitempty"`
}

func (r Referral) Value() (driver.Value, error)  { return jsonValue(r) }
func (r *Referral) Scan(value interface{}) error { return jsonScan(r, value) }

// HasReferrer reports whether anyone is recorded as the referrer.
func (r Referral) HasReferrer() bool {
	return r.ReferredByPatientID != nil || r.ReferrerName != ""
}

// Alert types
const (
	AlertTypeMedical  = "medical"
	AlertTypeBilling  = "billing"
	AlertTypeAllergy  = "allergy"
	AlertTypeBehavior = "behavior"
	AlertTypeGeneral  = "general"
)

// Alert priorities
const (
	AlertPriorityLow    = "low"
	AlertPriorityMedium = "medium"
	AlertPriorityHigh   = "high"
	AlertPriorityUrgent = "urgent"
)

type PatientAlert struct {
	ID         uuid.UUID  `json:"id"`
	Type       string     `json:"type"`
	Priority   string     `json:"priority"`
	Message    string     `json:"message"`
	IsResolved bool       `json:"is_resolved"`
	ResolvedBy *uuid.UUID `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedBy  uuid.UUID  `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
}

type PatientAlerts []PatientAlert

func (a PatientAlerts) Value() (driver.Value, error)  { return jsonValue(a) }
func (a *PatientAlerts) Scan(value interface{}) error { return jsonScan(a, value) }

type MedicalHistory struct {
	Conditions  []string `json:"conditions,omitempty"`
	Allergies   []string `json:"allergies,omitempty"`
	Medications []string `json:"medications,omitempty"`
	Surgeries   []string `json:"surgeries,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

func (m MedicalHistory) Value() (driver.Value, error)  { return jsonValue(m) }
func (m *MedicalHistory) Scan(value interface{}) error { return jsonScan(m, value) }
