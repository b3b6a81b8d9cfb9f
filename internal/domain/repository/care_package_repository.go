package repository

import (
	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CarePackageRepository interface {
	Create(db *gorm.DB, pkg *entity.CarePackage) error
	FindByID(db *gorm.DB, clinicID, id uuid.UUID) (*entity.CarePackage, error)
	FindByIDForUpdate(db *gorm.DB, clinicID, id uuid.UUID) (*entity.CarePackage, error)
	FindByPatient(db *gorm.DB, clinicID, patientID uuid.UUID) ([]entity.CarePackage, error)
	Update(db *gorm.DB, pkg *entity.CarePackage) error
}
