package repository

import (
	"time"

	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	FindByID(db *gorm.DB, clinicID, id uuid.UUID) (*entity.Appointment, error)
	FindByIDForUpdate(db *gorm.DB, clinicID, id uuid.UUID) (*entity.Appointment, error)
	FindAll(db *gorm.DB, clinicID uuid.UUID, filter entity.AppointmentFilter) ([]entity.Appointment, int64, error)
	FindByDate(db *gorm.DB, clinicID uuid.UUID, date string) ([]entity.Appointment, error)
	Update(db *gorm.DB, appointment *entity.Appointment) error
	Delete(db *gorm.DB, clinicID, id uuid.UUID) error
	// ExistsInSlot reports whether a slot-occupying appointment holds (date, clock).
	ExistsInSlot(db *gorm.DB, clinicID uuid.UUID, date, clock string, excludeID *uuid.UUID) (bool, error)
	CountByStatus(db *gorm.DB, clinicID uuid.UUID, dateFrom, dateTo string) ([]entity.StatusCount, error)
	// FindOverdueScheduled returns scheduled appointments dated before the given date,
	// across the active clinics in timeZone.
	FindOverdueScheduled(db *gorm.DB, timeZone, before string, limit int) ([]entity.Appointment, error)
	// FindForReminder returns scheduled appointments on date without a sent reminder,
	// across the active clinics in timeZone.
	FindForReminder(db *gorm.DB, timeZone, date string) ([]entity.Appointment, error)
	MarkReminderSent(db *gorm.DB, id uuid.UUID, at time.Time) error
}

type AppointmentHistoryRepository interface {
	Create(db *gorm.DB, history *entity.AppointmentHistory) error
	FindByAppointment(db *gorm.DB, clinicID, appointmentID uuid.UUID) ([]entity.AppointmentHistory, error)
}
