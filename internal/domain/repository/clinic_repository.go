package repository

import (
	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClinicRepository interface {
	Create(db *gorm.DB, clinic *entity.Clinic) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Clinic, error)
	FindByCode(db *gorm.DB, code string) (*entity.Clinic, error)
	FindAll(db *gorm.DB, page, limit int) ([]entity.Clinic, int64, error)
	Update(db *gorm.DB, clinic *entity.Clinic) error
	// FindTimeZones returns the distinct zones of active clinics.
	FindTimeZones(db *gorm.DB) ([]string, error)
}
