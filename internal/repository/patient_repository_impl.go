package repository

import (
	"errors"

	"clinic-management-api/internal/domain/entity"
	domainRepo "clinic-management-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type patientRepository struct{}

func NewPatientRepository() domainRepo.PatientRepository {
	return &patientRepository{}
}

func (r *patientRepository) Create(db *gorm.DB, patient *entity.Patient) error {
	return db.Create(patient).Error
}

func (r *patientRepository) FindByID(db *gorm.DB, clinicID, id uuid.UUID) (*entity.Patient, error) {
	return r.find(db, clinicID, id)
}

func (r *patientRepository) FindByIDForUpdate(db *gorm.DB, clinicID, id uuid.UUID) (*entity.Patient, error) {
	return r.find(forUpdate(db), clinicID, id)
}

func (r *patientRepository) find(db *gorm.DB, clinicID, id uuid.UUID) (*entity.Patient, error) {
	var patient entity.Patient
	err := db.Scopes(inClinic(clinicID)).Where("id = ?", id).First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &patient, nil
}

// FindAll excludes deleted patients unless the filter asks for them explicitly.
func (r *patientRepository) FindAll(db *gorm.DB, clinicID uuid.UUID, filter entity.PatientFilter) ([]entity.Patient, int64, error) {
	query := db.Model(&entity.Patient{}).Scopes(inClinic(clinicID))
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	} else {
		query = query.Where("status <> ?", entity.PatientStatusDeleted)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where(
			"(first_name ILIKE ? OR last_name ILIKE ? OR record_number ILIKE ? OR phone ILIKE ? OR email ILIKE ?)",
			like, like, like, like, like,
		)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var patients []entity.Patient
	err := query.Scopes(paginate(filter.Page, filter.Limit)).
		Order("last_name ASC, first_name ASC").
		Find(&patients).Error
	if err != nil {
		return nil, 0, err
	}
	return patients, total, nil
}

func (r *patientRepository) Update(db *gorm.DB, patient *entity.Patient) error {
	return db.Save(patient).Error
}

func (r *patientRepository) CountByRecordPrefix(db *gorm.DB, clinicID uuid.UUID, prefix string) (int64, error) {
	var count int64
	err := db.Model(&entity.Patient{}).
		Scopes(inClinic(clinicID)).
		Where("record_number LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}
