package repository

import (
	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PatientRepository interface {
	Create(db *gorm.DB, patient *entity.Patient) error
	FindByID(db *gorm.DB, clinicID, id uuid.UUID) (*entity.Patient, error)
	FindByIDForUpdate(db *gorm.DB, clinicID, id uuid.UUID) (*entity.Patient, error)
	FindAll(db *gorm.DB, clinicID uuid.UUID, filter entity.PatientFilter) ([]entity.Patient, int64, error)
	Update(db *gorm.DB, patient *entity.Patient) error
	CountByRecordPrefix(db *gorm.DB, clinicID uuid.UUID, prefix string) (int64, error)
}
