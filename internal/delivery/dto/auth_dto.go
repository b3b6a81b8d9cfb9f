package dto

import (
	"time"

	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
)

// Request DTOs

// LoginRequest accepts a username or an email. Superusers log in without a clinic code.
type LoginRequest struct {
	ClinicCode string `json:"clinic_code" validate:"omitempty,max=20"`
	Username   string `json:"username" validate:"required_without=Email,omitempty,max=100"`
	Email      string `json:"email" validate:"required_without=Username,omitempty,email"`
	Password   string `json:"password" validate:"required"`
}

// Identifier returns the login name the user supplied.
func (r *LoginRequest) Identifier() string {
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Response DTOs

type TokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	User         *UserResponse `json:"user,omitempty"`
}

type UserResponse struct {
	ID          uuid.UUID          `json:"id"`
	ClinicID    *uuid.UUID         `json:"clinic_id,omitempty"`
	Username    string             `json:"username"`
	Email       string             `json:"email"`
	FirstName   string             `json:"first_name"`
	LastName    string             `json:"last_name"`
	FullName    string             `json:"full_name"`
	Role        string             `json:"role"`
	Permissions entity.Permissions `json:"permissions"`
	IsActive    bool               `json:"is_active"`
	LastLoginAt *time.Time         `json:"last_login_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}
