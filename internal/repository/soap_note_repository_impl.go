package repository

import (
	"errors"

	"clinic-management-api/internal/domain/entity"
	domainRepo "clinic-management-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type soapNoteRepository struct{}

func NewSOAPNoteRepository() domainRepo.SOAPNoteRepository {
	return &soapNoteRepository{}
}

func (r *soapNoteRepository) Create(db *gorm.DB, note *entity.SOAPNote) error {
	return db.Create(note).Error
}

func (r *soapNoteRepository) FindByAppointment(db *gorm.DB, clinicID, appointmentID uuid.UUID) (*entity.SOAPNote, error) {
	var note entity.SOAPNote
	err := db.Scopes(inClinic(clinicID)).Where("appointment_id = ?", appointmentID).First(&note).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &note, nil
}

// Update only touches unsigned notes.
// Update only touches unsigned notes. A signed note yields ErrRecordLocked.
func (r *soapNoteRepository) Update(db *gorm.DB, note *entity.SOAPNote) error {
	result := db.Model(note).
		Where("is_signed = ?", false).
		Select("*").
		Omit("id", "clinic_id", "appointment_id", "created_at").
		Updates(note)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainRepo.ErrRecordLocked
	}
	return nil
}
