package repository

import (
	"errors"
	"time"

	"clinic-management-api/internal/domain/entity"
	domainRepo "clinic-management-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func (r *appointmentRepository) Create(db *gorm.DB, appointment *entity.Appointment) error {
	return db.Omit("Patient", "Provider").Create(appointment).Error
}

func (r *appointmentRepository) FindByID(db *gorm.DB, clinicID, id uuid.UUID) (*entity.Appointment, error) {
	return r.find(db.Preload("Patient").Preload("Provider"), clinicID, id)
}

// FindByIDForUpdate locks the row for the rest of the transaction. Relations are not loaded.
func (r *appointmentRepository) FindByIDForUpdate(db *gorm.DB, clinicID, id uuid.UUID) (*entity.Appointment, error) {
	return r.find(forUpdate(db), clinicID, id)
}

func (r *appointmentRepository) find(db *gorm.DB, clinicID, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Scopes(inClinic(clinicID)).Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindAll(db *gorm.DB, clinicID uuid.UUID, filter entity.AppointmentFilter) ([]entity.Appointment, int64, error) {
	query := db.Model(&entity.Appointment{}).Scopes(inClinic(clinicID))
	if filter.PatientID != nil {
		query = query.Where("patient_id = ?", *filter.PatientID)
	}
	if filter.ProviderID != nil {
		query = query.Where("provider_id = ?", *filter.ProviderID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DateFrom != "" {
		query = query.Where("date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		query = query.Where("date <= ?", filter.DateTo)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var appointments []entity.Appointment
	err := query.Preload("Patient").
		Scopes(paginate(filter.Page, filter.Limit)).
		Order("date DESC, time DESC").
		Find(&appointments).Error
	if err != nil {
		return nil, 0, err
	}
	return appointments, total, nil
}

func (r *appointmentRepository) FindByDate(db *gorm.DB, clinicID uuid.UUID, date string) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Preload("Patient").Preload("Provider").
		Scopes(inClinic(clinicID)).
		Where("date = ?", date).
		Order("time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) Update(db *gorm.DB, appointment *entity.Appointment) error {
	return db.Omit("Patient", "Provider").Save(appointment).Error
}

func (r *appointmentRepository) Delete(db *gorm.DB, clinicID, id uuid.UUID) error {
	return db.Scopes(inClinic(clinicID)).Where("id = ?", id).Delete(&entity.Appointment{}).Error
}

func (r *appointmentRepository) ExistsInSlot(db *gorm.DB, clinicID uuid.UUID, date, clock string, excludeID *uuid.UUID) (bool, error) {
	query := db.Model(&entity.Appointment{}).
		Scopes(inClinic(clinicID)).
		Where("date = ? AND time = ?", date, clock).
		Where("status NOT IN ?", []entity.AppointmentStatus{entity.StatusCancelled, entity.StatusNoShow})
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *appointmentRepository) CountByStatus(db *gorm.DB, clinicID uuid.UUID, dateFrom, dateTo string) ([]entity.StatusCount, error) {
	var rows []entity.StatusCount
	err := db.Model(&entity.Appointment{}).
		Select("date, status, COUNT(*) AS count").
		Scopes(inClinic(clinicID)).
		Where("date >= ? AND date <= ?", dateFrom, dateTo).
		Group("date, status").
		Order("date ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *appointmentRepository) FindOverdueScheduled(db *gorm.DB, timeZone, before string, limit int) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Scopes(inClinicZone(timeZone)).
		Where("status = ? AND date < ?", entity.StatusScheduled, before).
		Order("date ASC, time ASC").
		Limit(limit).
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindForReminder(db *gorm.DB, timeZone, date string) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Scopes(inClinicZone(timeZone)).
		Preload("Patient").
		Where("status = ? AND date = ? AND reminder_sent_at IS NULL", entity.StatusScheduled, date).
		Order("time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) MarkReminderSent(db *gorm.DB, id uuid.UUID, at time.Time) error {
	return db.Model(&entity.Appointment{}).Where("id = ?", id).Update("reminder_sent_at", at).Error
}

type appointmentHistoryRepository struct{}

func NewAppointmentHistoryRepository() domainRepo.AppointmentHistoryRepository {
	return &appointmentHistoryRepository{}
}

func (r *appointmentHistoryRepository) Create(db *gorm.DB, history *entity.AppointmentHistory) error {
	return db.Create(history).Error
}

func (r *appointmentHistoryRepository) FindByAppointment(db *gorm.DB, clinicID, appointmentID uuid.UUID) ([]entity.AppointmentHistory, error) {
	var rows []entity.AppointmentHistory
	err := db.Scopes(inClinic(clinicID)).
		Where("appointment_id = ?", appointmentID).
		Order("changed_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
