package repository

import (
	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LedgerRepository interface {
	Create(db *gorm.DB, ledger *entity.Ledger) error
	FindByID(db *gorm.DB, clinicID, id uuid.UUID) (*entity.Ledger, error)
	FindByIDForUpdate(db *gorm.DB, clinicID, id uuid.UUID) (*entity.Ledger, error)
	FindActiveByAppointment(db *gorm.DB, clinicID, appointmentID uuid.UUID) (*entity.Ledger, error)
	FindAll(db *gorm.DB, clinicID uuid.UUID, filter entity.LedgerFilter) ([]entity.Ledger, int64, error)
	Update(db *gorm.DB, ledger *entity.Ledger) error
	PatientSummary(db *gorm.DB, clinicID, patientID uuid.UUID) (*entity.BalanceSummary, error)
	RevenueForDate(db *gorm.DB, clinicID uuid.UUID, date string) (*entity.RevenueSummary, error)
}
