package repository

import (
	"errors"

	"clinic-management-api/internal/domain/entity"
	domainRepo "clinic-management-api/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ledgerRepository struct{}

func NewLedgerRepository() domainRepo.LedgerRepository {
	return &ledgerRepository{}
}

func (r *ledgerRepository) Create(db *gorm.DB, ledger *entity.Ledger) error {
	return db.Create(ledger).Error
}

func (r *ledgerRepository) FindByID(db *gorm.DB, clinicID, id uuid.UUID) (*entity.Ledger, error) {
	return r.find(db.Scopes(inClinic(clinicID)).Where("id = ?", id))
}

func (r *ledgerRepository) FindByIDForUpdate(db *gorm.DB, clinicID, id uuid.UUID) (*entity.Ledger, error) {
	return r.find(forUpdate(db).Scopes(inClinic(clinicID)).Where("id = ?", id))
}

func (r *ledgerRepository) FindActiveByAppointment(db *gorm.DB, clinicID, appointmentID uuid.UUID) (*entity.Ledger, error) {
	return r.find(db.Scopes(inClinic(clinicID)).Where("appointment_id = ? AND is_voided = ?", appointmentID, false))
}

func (r *ledgerRepository) find(query *gorm.DB) (*entity.Ledger, error) {
	var ledger entity.Ledger
	err := query.First(&ledger).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ledger, nil
}

func (r *ledgerRepository) FindAll(db *gorm.DB, clinicID uuid.UUID, filter entity.LedgerFilter) ([]entity.Ledger, int64, error) {
	query := db.Model(&entity.Ledger{}).Scopes(inClinic(clinicID))
	if !filter.IncludeVoided {
		query = query.Where("is_voided = ?", false)
	}
	if filter.PatientID != nil {
		query = query.Where("patient_id = ?", *filter.PatientID)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
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

	var ledgers []entity.Ledger
	err := query.Scopes(paginate(filter.Page, filter.Limit)).
		Order("visit_date DESC, created_at DESC").
		Find(&ledgers).Error
	if err != nil {
		return nil, 0, err
	}
	return ledgers, total, nil
}

func (r *ledgerRepository) Update(db *gorm.DB, ledger *entity.Ledger) error {
	return db.Save(ledger).Error
}

type balanceRow struct {
	EntryCount   int64
	TotalBilled  decimal.Decimal
	TotalPaid    decimal.Decimal
	Outstanding  decimal.Decimal
	PendingCount int64
	PartialCount int64
}

func (r *ledgerRepository) PatientSummary(db *gorm.DB, clinicID, patientID uuid.UUID) (*entity.BalanceSummary, error) {
	var row balanceRow
	err := db.Model(&entity.Ledger{}).
		Select(`
			COUNT(*) AS entry_count,
			COALESCE(SUM(total_amount), 0) AS total_billed,
			COALESCE(SUM(amount_paid), 0) AS total_paid,
			COALESCE(SUM(GREATEST(balance, 0)), 0) AS outstanding,
			COUNT(*) FILTER (WHERE payment_status = ?) AS pending_count,
			COUNT(*) FILTER (WHERE payment_status = ?) AS partial_count
		`, entity.PaymentPending, entity.PaymentPartial).
		Scopes(inClinic(clinicID)).
		Where("patient_id = ? AND is_voided = ?", patientID, false).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &entity.BalanceSummary{
		PatientID:    patientID,
		EntryCount:   row.EntryCount,
		TotalBilled:  row.TotalBilled,
		TotalPaid:    row.TotalPaid,
		Outstanding:  row.Outstanding,
		PendingCount: row.PendingCount,
		PartialCount: row.PartialCount,
	}, nil
}

func (r *ledgerRepository) RevenueForDate(db *gorm.DB, clinicID uuid.UUID, date string) (*entity.RevenueSummary, error) {
	var summary entity.RevenueSummary
	err := db.Model(&entity.Ledger{}).
		Select(`
			COALESCE(SUM(total_amount), 0) AS billed,
			COALESCE(SUM(amount_paid), 0) AS collected,
			COALESCE(SUM(GREATEST(balance, 0)), 0) AS outstanding,
			COUNT(*) AS entries
		`).
		Scopes(inClinic(clinicID)).
		Where("visit_date = ? AND is_voided = ?", date, false).
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
