package dto

import (
	"time"

	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type InsurancePolicyRequest struct {
	Provider      string          `json:"provider" validate:"required,max=255"`
	PolicyNumber  string          `json:"policy_number" validate:"required,max=100"`
	GroupNumber   string          `json:"group_number" validate:"omitempty,max=100"`
	Copay         decimal.Decimal `json:"copay"`
	Deductible    decimal.Decimal `json:"deductible"`
	CoverageStart string          `json:"coverage_start" validate:"omitempty,date"`
	CoverageEnd   string          `json:"coverage_end" validate:"omitempty,date"`
	IsPrimary     bool            `json:"is_primary"`
}

type ReferralRequest struct {
	ReferredByPatientID *uuid.UUID      `json:"referred_by_patient_id"`
	ReferrerName        string          `json:"referrer_name" validate:"omitempty,max=255"`
	Source              string          `json:"source" validate:"omitempty,max=100"`
	BonusAmount         decimal.Decimal `json:"bonus_amount"`
}

type MedicalHistoryRequest struct {
	Conditions  []string `json:"conditions"`
	Allergies   []string `json:"allergies"`
	Medications []string `json:"medications"`
	Surgeries   []string `json:"surgeries"`
	Notes       string   `json:"notes"`
}

type CreatePatientRequest struct {
	RecordNumber   string                   `json:"record_number" validate:"omitempty,max=50"`
	FirstName      string                   `json:"first_name" validate:"required,max=100"`
	LastName       string                   `json:"last_name" validate:"required,max=100"`
	DateOfBirth    string                   `json:"date_of_birth" validate:"omitempty,date"`
	Gender         string                   `json:"gender" validate:"omitempty,oneof=male female other"`
	Email          string                   `json:"email" validate:"omitempty,email"`
	Phone          string                   `json:"phone" validate:"omitempty,max=30"`
	Address        AddressRequest           `json:"address"`
	Insurance      []InsurancePolicyRequest `json:"insurance" validate:"omitempty,dive"`
	Referral       *ReferralRequest         `json:"referral"`
	MedicalHistory *MedicalHistoryRequest   `json:"medical_history"`
}

type UpdatePatientRequest struct {
	FirstName      string                   `json:"first_name" validate:"omitempty,max=100"`
	LastName       string                   `json:"last_name" validate:"omitempty,max=100"`
	DateOfBirth    string                   `json:"date_of_birth" validate:"omitempty,date"`
	Gender         string                   `json:"gender" validate:"omitempty,oneof=male female other"`
	Email          string                   `json:"email" validate:"omitempty,email"`
	Phone          string                   `json:"phone" validate:"omitempty,max=30"`
	Address        *AddressRequest          `json:"address"`
	Insurance      []InsurancePolicyRequest `json:"insurance" validate:"omitempty,dive"`
	Referral       *ReferralRequest         `json:"referral"`
	MedicalHistory *MedicalHistoryRequest   `json:"medical_history"`
	Status         string                   `json:"status" validate:"omitempty,oneof=active inactive"`
}

type PatientListRequest struct {
	Search string `json:"search" validate:"omitempty,max=100"`
	Status string `json:"status" validate:"omitempty,oneof=active inactive deleted"`
	Page   int    `json:"page" validate:"omitempty,min=1"`
	Limit  int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

type AddAlertRequest struct {
	Type     string `json:"type" validate:"required,oneof=medical billing allergy behavior general"`
	Priority string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Message  string `json:"message" validate:"required,max=1000"`
}

type ReferralPayoutRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Note   string           `json:"note" validate:"omitempty,max=1000"`
}

// Response DTOs

type PatientResponse struct {
	ID             uuid.UUID                `json:"id"`
	ClinicID       uuid.UUID                `json:"clinic_id"`
	RecordNumber   string                   `json:"record_number"`
	FirstName      string                   `json:"first_name"`
	LastName       string                   `json:"last_name"`
	FullName       string                   `json:"full_name"`
	DateOfBirth    string                   `json:"date_of_birth,omitempty"`
	Gender         string                   `json:"gender,omitempty"`
	Email          string                   `json:"email,omitempty"`
	Phone          string                   `json:"phone,omitempty"`
	Address        entity.Address           `json:"address"`
	Insurance      entity.InsurancePolicies `json:"insurance"`
	Referral       entity.Referral          `json:"referral"`
	ActivePackages entity.UUIDList          `json:"active_packages"`
	Alerts         entity.PatientAlerts     `json:"alerts"`
	MedicalHistory entity.MedicalHistory    `json:"medical_history"`
	Status         string                   `json:"status"`
	DeletedAt      *time.Time               `json:"deleted_at,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

// PatientSummary is the short patient block embedded in other responses.
type PatientSummary struct {
	ID           uuid.UUID `json:"id"`
	RecordNumber string    `json:"record_number"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone,omitempty"`
}

type PatientListResponse struct {
	Patients   []PatientResponse `json:"patients"`
	Pagination Pagination        `json:"pagination"`
}
