package repository

import (
	"clinic-management-api/internal/domain/entity"

	"gorm.io/gorm"
)

type ReferenceRepository interface {
	FindBillingCodes(db *gorm.DB) ([]entity.BillingCode, error)
	FindDiagnosticCodes(db *gorm.DB) ([]entity.DiagnosticCode, error)
}
