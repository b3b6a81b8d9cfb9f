package repository

import (
	"errors"

	"clinic-management-api/internal/domain/entity"
	domainRepo "clinic-management-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type clinicRepository struct{}

func NewClinicRepository() domainRepo.ClinicRepository {
	return &clinicRepository{}
}

func (r *clinicRepository) Create(db *gorm.DB, clinic *entity.Clinic) error {
	return db.Create(clinic).Error
}

func (r *clinicRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Clinic, error) {
	var clinic entity.Clinic
	err := db.Where("id = ?", id).First(&clinic).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &clinic, nil
}

func (r *clinicRepository) FindByCode(db *gorm.DB, code string) (*entity.Clinic, error) {
	var clinic entity.Clinic
	err := db.Where("UPPER(code) = UPPER(?)", code).First(&clinic).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &clinic, nil
}

func (r *clinicRepository) FindAll(db *gorm.DB, page, limit int) ([]entity.Clinic, int64, error) {
	var total int64
	if err := db.Model(&entity.Clinic{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var clinics []entity.Clinic
	err := db.Scopes(paginate(page, limit)).Order("name ASC").Find(&clinics).Error
	if err != nil {
		return nil, 0, err
	}
	return clinics, total, nil
}

func (r *clinicRepository) FindTimeZones(db *gorm.DB) ([]string, error) {
	var zones []string
	err := db.Model(&entity.Clinic{}).
		Where("is_active = ?", true).
		Distinct().
		Order("timezone ASC").
		Pluck("timezone", &zones).Error
	if err != nil {
		return nil, err
	}
	return zones, nil
}

func (r *clinicRepository) Update(db *gorm.DB, clinic *entity.Clinic) error {
	return db.Save(clinic).Error
}
