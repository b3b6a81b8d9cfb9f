package repository

import (
	"errors"
	"time"

	"clinic-management-api/internal/domain/entity"
	domainRepo "clinic-management-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository struct{}

func NewUserRepository() domainRepo.UserRepository {
	return &userRepository{}
}

func (r *userRepository) Create(db *gorm.DB, user *entity.User) error {
	return db.Omit("Clinic").Create(user).Error
}

func (r *userRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	err := db.Preload("Clinic").Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByIDInClinic(db *gorm.DB, clinicID, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	err := db.Scopes(inClinic(clinicID)).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByLogin(db *gorm.DB, clinicID *uuid.UUID, identifier string) (*entity.User, error) {
	query := db.Where("(LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?))", identifier, identifier)
	if clinicID != nil {
		query = query.Where("clinic_id = ?", *clinicID)
	} else {
		query = query.Where("clinic_id IS NULL AND role = ?", entity.RoleSuperuser)
	}

	var user entity.User
	err := query.Preload("Clinic").First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindAll(db *gorm.DB, clinicID uuid.UUID, filter entity.UserFilter) ([]entity.User, int64, error) {
	query := db.Model(&entity.User{}).Scopes(inClinic(clinicID))
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []entity.User
	err := query.Scopes(paginate(filter.Page, filter.Limit)).
		Order("last_name ASC, first_name ASC").
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) Update(db *gorm.DB, user *entity.User) error {
	return db.Omit("Clinic").Save(user).Error
}

func (r *userRepository) UpdateLastLogin(db *gorm.DB, id uuid.UUID, at time.Time) error {
	return db.Model(&entity.User{}).Where("id = ?", id).Update("last_login_at", at).Error
}
