package repository

import (
	"encoding/json"
	"errors"

	"clinic-management-api/internal/domain/entity"
	domainRepo "clinic-management-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type auditLogRepository struct{}

func NewAuditLogRepository() domainRepo.AuditLogRepository {
	return &auditLogRepository{}
}

func (r *auditLogRepository) Create(db *gorm.DB, log *entity.AuditLog) error {
	return db.Create(log).Error
}

func (r *auditLogRepository) FindByID(db *gorm.DB, clinicID, id uuid.UUID) (*entity.AuditLog, error) {
	return r.find(db, clinicID, id)
}

func (r *auditLogRepository) FindByIDForUpdate(db *gorm.DB, clinicID, id uuid.UUID) (*entity.AuditLog, error) {
	return r.find(forUpdate(db), clinicID, id)
}

func (r *auditLogRepository) find(db *gorm.DB, clinicID, id uuid.UUID) (*entity.AuditLog, error) {
	var log entity.AuditLog
	err := db.Scopes(inClinic(clinicID)).Where("id = ?", id).First(&log).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}

func (r *auditLogRepository) FindAll(db *gorm.DB, clinicID uuid.UUID, filter entity.AuditFilter) ([]entity.AuditLog, int64, error) {
	query := db.Model(&entity.AuditLog{}).Scopes(inClinic(clinicID))
	if filter.PatientID != nil {
		query = query.Where("patient_id = ?", *filter.PatientID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.FlaggedOnly {
		query = query.Where(`(flag_missing_signature OR flag_missing_notes OR flag_incomplete_soap
			OR flag_copay_override OR flag_late_documentation OR flag_missing_diagnosis OR flagged_for_review)`)
	}
	if filter.DateFrom != "" {
		query = query.Where("visit_date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		query = query.Where("visit_date <= ?", filter.DateTo)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []entity.AuditLog
	err := query.Scopes(paginate(filter.Page, filter.Limit)).
		Order("visit_date DESC, created_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// Update refuses locked rows at the statement level as well.
func (r *auditLogRepository) Update(db *gorm.DB, log *entity.AuditLog) error {
	result := db.Model(log).
		Where("is_locked = ?", false).
		Select("*").
		Omit("id", "clinic_id", "created_at").
		Updates(log)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainRepo.ErrRecordLocked
	}
	return nil
}

func (r *auditLogRepository) AppendEvent(db *gorm.DB, clinicID, id uuid.UUID, event entity.AuditEvent) error {
	payload, err := json.Marshal([]entity.AuditEvent{event})
	if err != nil {
		return err
	}
	return db.Model(&entity.AuditLog{}).
		Scopes(inClinic(clinicID)).
		Where("id = ?", id).
		UpdateColumn("audit_events", gorm.Expr("COALESCE(audit_events, '[]'::jsonb) || ?::jsonb", string(payload))).Error
}

func (r *auditLogRepository) ComplianceReport(db *gorm.DB, clinicID uuid.UUID, dateFrom, dateTo string) (*entity.ComplianceReport, error) {
	query := db.Model(&entity.AuditLog{}).
		Select(`
			COUNT(*) AS total_records,
			COUNT(*) FILTER (WHERE flag_missing_signature OR flag_missing_notes OR flag_incomplete_soap
				OR flag_copay_override OR flag_late_documentation OR flag_missing_diagnosis) AS flagged_records,
			COUNT(*) FILTER (WHERE is_locked) AS locked_records,
			COUNT(*) FILTER (WHERE flag_missing_signature) AS missing_signature,
			COUNT(*) FILTER (WHERE flag_missing_notes) AS missing_notes,
			COUNT(*) FILTER (WHERE flag_incomplete_soap) AS incomplete_soap,
			COUNT(*) FILTER (WHERE flag_copay_override) AS copay_override,
			COUNT(*) FILTER (WHERE flag_late_documentation) AS late_documentation,
			COUNT(*) FILTER (WHERE flag_missing_diagnosis) AS missing_diagnosis,
			COUNT(*) FILTER (WHERE flagged_for_review) AS review_requested
		`).
		Scopes(inClinic(clinicID)).
		Where("action = ?", entity.AuditActionVisitDocumentation)
	if dateFrom != "" {
		query = query.Where("visit_date >= ?", dateFrom)
	}
	if dateTo != "" {
		query = query.Where("visit_date <= ?", dateTo)
	}

	var report entity.ComplianceReport
	if err := query.Scan(&report).Error; err != nil {
		return nil, err
	}
	report.DateFrom = dateFrom
	report.DateTo = dateTo
	return &report, nil
}
