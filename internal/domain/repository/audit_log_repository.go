package repository

import (
	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditLogRepository interface {
	Create(db *gorm.DB, auditLog *entity.AuditLog) error
	FindByID(db *gorm.DB, clinicID, id uuid.UUID) (*entity.AuditLog, error)
	FindByIDForUpdate(db *gorm.DB, clinicID, id uuid.UUID) (*entity.AuditLog, error)
	FindAll(db *gorm.DB, clinicID uuid.UUID, filter entity.AuditFilter) ([]entity.AuditLog, int64, error)
	Update(db *gorm.DB, auditLog *entity.AuditLog) error
	// AppendEvent adds to audit_events without rewriting the row. Allowed on locked records.
	AppendEvent(db *gorm.DB, clinicID, id uuid.UUID, event entity.AuditEvent) error
	ComplianceReport(db *gorm.DB, clinicID uuid.UUID, dateFrom, dateTo string) (*entity.ComplianceReport, error)
}
