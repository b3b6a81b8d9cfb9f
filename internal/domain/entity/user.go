package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is a staff member scoped to exactly one clinic. Superusers have no clinic.
type User struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ClinicID    *uuid.UUID  `gorm:"type:uuid;index" json:"clinic_id,omitempty"`
	Username    string      `gorm:"type:varchar(100);not null" json:"username"`
	Email       string      `gorm:"type:varchar(255);not null" json:"email"`
	Password    string      `gorm:"type:text;not null" json:"-"`
	FirstName   string      `gorm:"type:varchar(100)" json:"first_name"`
	LastName    string      `gorm:"type:varchar(100)" json:"last_name"`
	Role        string      `gorm:"type:varchar(20);not null;index" json:"role"`
	Permissions Permissions `gorm:"type:jsonb" json:"permissions"`
	IsActive    bool        `gorm:"not null;default:true;index" json:"is_active"`
	LastLoginAt *time.Time  `json:"last_login_at,omitempty"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Clinic *Clinic `gorm:"foreignKey:ClinicID" json:"clinic,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// FullName joins first and last name.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// ApplyRole sets the role and re-derives permission defaults.
func (u *User) ApplyRole(role string) {
	u.Role = role
	u.Permissions = DefaultPermissions(role)
}
