package repository

import (
	"clinic-management-api/internal/domain/entity"
	domainRepo "clinic-management-api/internal/domain/repository"

	"gorm.io/gorm"
)

type referenceRepository struct{}

func NewReferenceRepository() domainRepo.ReferenceRepository {
	return &referenceRepository{}
}

func (r *referenceRepository) FindBillingCodes(db *gorm.DB) ([]entity.BillingCode, error) {
	var codes []entity.BillingCode
	if err := db.Where("is_active = ?", true).Order("code ASC").Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *referenceRepository) FindDiagnosticCodes(db *gorm.DB) ([]entity.DiagnosticCode, error) {
	var codes []entity.DiagnosticCode
	if err := db.Where("is_active = ?", true).Order("code ASC").Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}
