package repository

import (
	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SOAPNoteRepository interface {
	Create(db *gorm.DB, note *entity.SOAPNote) error
	FindByAppointment(db *gorm.DB, clinicID, appointmentID uuid.UUID) (*entity.SOAPNote, error)
	Update(db *gorm.DB, note *entity.SOAPNote) error
}
