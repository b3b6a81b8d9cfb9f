package repository

import (
	"errors"

	"clinic-management-api/internal/domain/entity"
	domainRepo "clinic-management-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type carePackageRepository struct{}

func NewCarePackageRepository() domainRepo.CarePackageRepository {
	return &carePackageRepository{}
}

func (r *carePackageRepository) Create(db *gorm.DB, pkg *entity.CarePackage) error {
	return db.Create(pkg).Error
}

func (r *carePackageRepository) FindByID(db *gorm.DB, clinicID, id uuid.UUID) (*entity.CarePackage, error) {
	return r.find(db, clinicID, id)
}

func (r *carePackageRepository) FindByIDForUpdate(db *gorm.DB, clinicID, id uuid.UUID) (*entity.CarePackage, error) {
	return r.find(forUpdate(db), clinicID, id)
}

func (r *carePackageRepository) find(db *gorm.DB, clinicID, id uuid.UUID) (*entity.CarePackage, error) {
	var pkg entity.CarePackage
	err := db.Scopes(inClinic(clinicID)).Where("id = ?", id).First(&pkg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pkg, nil
}

func (r *carePackageRepository) FindByPatient(db *gorm.DB, clinicID, patientID uuid.UUID) ([]entity.CarePackage, error) {
	var pkgs []entity.CarePackage
	err := db.Scopes(inClinic(clinicID)).
		Where("patient_id = ?", patientID).
		Order("purchase_date DESC").
		Find(&pkgs).Error
	if err != nil {
		return nil, err
	}
	return pkgs, nil
}

func (r *carePackageRepository) Update(db *gorm.DB, pkg *entity.CarePackage) error {
	return db.Save(pkg).Error
}
