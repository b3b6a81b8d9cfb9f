package repository

import (
	"time"

	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(db *gorm.DB, user *entity.User) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.User, error)
	FindByIDInClinic(db *gorm.DB, clinicID, id uuid.UUID) (*entity.User, error)
	// FindByLogin matches username or email. A nil clinicID searches superusers.
	FindByLogin(db *gorm.DB, clinicID *uuid.UUID, identifier string) (*entity.User, error)
	FindAll(db *gorm.DB, clinicID uuid.UUID, filter entity.UserFilter) ([]entity.User, int64, error)
	Update(db *gorm.DB, user *entity.User) error
	UpdateLastLogin(db *gorm.DB, id uuid.UUID, at time.Time) error
}
