package dto

import (
	"time"

	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
)

// Request DTOs

type AddressRequest struct {
	Street     string `json:"street" validate:"omitempty,max=255"`
	City       string `json:"city" validate:"omitempty,max=100"`
	State      string `json:"state" validate:"omitempty,max=100"`
	PostalCode string `json:"postal_code" validate:"omitempty,max=20"`
	Country    string `json:"country" validate:"omitempty,max=100"`
}

type BusinessHourRequest struct {
	Day    int    `json:"day" validate:"min=0,max=6"`
	Open   string `json:"open" validate:"required_unless=Closed true,omitempty,clock"`
	Close  string `json:"close" validate:"required_unless=Closed true,omitempty,clock"`
	Closed bool   `json:"closed"`
}

type CreateClinicRequest struct {
	Name             string                `json:"name" validate:"required,max=255"`
	Code             string                `json:"code" validate:"required,alphanum,min=2,max=20"`
	Email            string                `json:"email" validate:"required,email"`
	Phone            string                `json:"phone" validate:"omitempty,max=30"`
	Address          AddressRequest        `json:"address"`
	BusinessHours    []BusinessHourRequest `json:"business_hours" validate:"omitempty,max=7,dive"`
	TimeZone         string                `json:"timezone" validate:"omitempty,timezone"`
	SubscriptionPlan string                `json:"subscription_plan" validate:"omitempty,oneof=basic professional enterprise"`
}

type UpdateClinicRequest struct {
	Name               string                `json:"name" validate:"omitempty,max=255"`
	Email              string                `json:"email" validate:"omitempty,email"`
	Phone              string                `json:"phone" validate:"omitempty,max=30"`
	Address            *AddressRequest       `json:"address"`
	BusinessHours      []BusinessHourRequest `json:"business_hours" validate:"omitempty,max=7,dive"`
	TimeZone           string                `json:"timezone" validate:"omitempty,timezone"`
	SubscriptionPlan   string                `json:"subscription_plan" validate:"omitempty,oneof=basic professional enterprise"`
	SubscriptionStatus string                `json:"subscription_status" validate:"omitempty,oneof=active trial suspended cancelled"`
}

type SetClinicActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// Response DTOs

type ClinicResponse struct {
	ID                 uuid.UUID            `json:"id"`
	Name               string               `json:"name"`
	Code               string               `json:"code"`
	Email              string               `json:"email"`
	Phone              string               `json:"phone,omitempty"`
	Address            entity.Address       `json:"address"`
	BusinessHours      entity.BusinessHours `json:"business_hours"`
	TimeZone           string               `json:"timezone"`
	SubscriptionPlan   string               `json:"subscription_plan"`
	SubscriptionStatus string               `json:"subscription_status"`
	IsActive           bool                 `json:"is_active"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

type ClinicListResponse struct {
	Clinics    []ClinicResponse `json:"clinics"`
	Pagination Pagination       `json:"pagination"`
}
