package usecase

import (
	"context"
	"errors"
	"strings"

	"clinic-management-api/internal/converter"
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrClinicNotFound     = errors.New("clinic not found")
	ErrClinicCodeExists   = errors.New("clinic code already exists")
	ErrClinicEmailExists  = errors.New("clinic email already exists")
	ErrClinicInactive     = errors.New("clinic is inactive")
	ErrForbidden          = errors.New("access to this resource is not allowed")
	ErrBusinessHourDayDup = errors.New("business hours list a weekday more than once")
)

type ClinicUsecase interface {
	Create(ctx context.Context, req *dto.CreateClinicRequest) (*dto.ClinicResponse, error)
	List(ctx context.Context, page, limit int) (*dto.ClinicListResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ClinicResponse, error)
	Update(ctx context.Context, id uuid.UUID, req *dto.UpdateClinicRequest) (*dto.ClinicResponse, error)
	SetActive(ctx context.Context, id uuid.UUID, req *dto.SetClinicActiveRequest) (*dto.ClinicResponse, error)
	// TimeZones lists the zones of active clinics. It needs no caller identity.
	TimeZones(ctx context.Context) ([]string, error)
}

type clinicUsecase struct {
	txManager  repository.TxManager
	log        *logrus.Logger
	clinicRepo repository.ClinicRepository
}

func NewClinicUsecase(
	txManager repository.TxManager,
	log *logrus.Logger,
	clinicRepo repository.ClinicRepository,
) ClinicUsecase {
	return &clinicUsecase{
		txManager:  txManager,
		log:        log,
		clinicRepo: clinicRepo,
	}
}

func (u *clinicUsecase) Create(ctx context.Context, req *dto.CreateClinicRequest) (*dto.ClinicResponse, error) {
	if err := checkBusinessDays(req.BusinessHours); err != nil {
		return nil, err
	}

	clinic := &entity.Clinic{
		Name:               req.Name,
		Code:               strings.ToUpper(req.Code),
		Email:              strings.ToLower(req.Email),
		Phone:              req.Phone,
		Address:            converter.AddressFromRequest(req.Address),
		BusinessHours:      converter.BusinessHoursFromRequest(req.BusinessHours),
		TimeZone:           req.TimeZone,
		SubscriptionPlan:   req.SubscriptionPlan,
		SubscriptionStatus: "trial",
		IsActive:           true,
	}
	if clinic.TimeZone == "" {
		clinic.TimeZone = "UTC"
	}
	if clinic.SubscriptionPlan == "" {
		clinic.SubscriptionPlan = "basic"
	}

	if err := u.clinicRepo.Create(u.txManager.DB(ctx), clinic); err != nil {
		if err := clinicConflict(err); err != nil {
			return nil, err
		}
		u.log.Warnf("Failed to create clinic: %+v", err)
		return nil, err
	}

	return converter.ClinicToResponse(clinic), nil
}

func (u *clinicUsecase) List(ctx context.Context, page, limit int) (*dto.ClinicListResponse, error) {
	page, limit = entity.Normalize(page, limit)

	clinics, total, err := u.clinicRepo.FindAll(u.txManager.DB(ctx), page, limit)
	if err != nil {
		u.log.Warnf("Failed to list clinics: %+v", err)
		return nil, err
	}

	return &dto.ClinicListResponse{
		Clinics:    converter.ClinicsToResponses(clinics),
		Pagination: pagination(page, limit, total),
	}, nil
}

// Get lets clinic staff read only their own clinic.
func (u *clinicUsecase) Get(ctx context.Context, id uuid.UUID) (*dto.ClinicResponse, error) {
	if err := u.authorize(ctx, id); err != nil {
		return nil, err
	}

	clinic, err := u.clinicRepo.FindByID(u.txManager.DB(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find clinic: %+v", err)
		return nil, err
	}
	if clinic == nil {
		return nil, ErrClinicNotFound
	}

	return converter.ClinicToResponse(clinic), nil
}

func (u *clinicUsecase) Update(ctx context.Context, id uuid.UUID, req *dto.UpdateClinicRequest) (*dto.ClinicResponse, error) {
	if err := u.authorize(ctx, id); err != nil {
		return nil, err
	}
	if err := checkBusinessDays(req.BusinessHours); err != nil {
		return nil, err
	}

	return u.mutate(ctx, id, func(clinic *entity.Clinic) {
		if req.Name != "" {
			clinic.Name = req.Name
		}
		if req.Email != "" {
			clinic.Email = strings.ToLower(req.Email)
		}
		if req.Phone != "" {
			clinic.Phone = req.Phone
		}
		if req.Address != nil {
			clinic.Address = converter.AddressFromRequest(*req.Address)
		}
		if req.BusinessHours != nil {
			clinic.BusinessHours = converter.BusinessHoursFromRequest(req.BusinessHours)
		}
		if req.TimeZone != "" {
			clinic.TimeZone = req.TimeZone
		}
		if req.SubscriptionPlan != "" {
			clinic.SubscriptionPlan = req.SubscriptionPlan
		}
		if req.SubscriptionStatus != "" {
			clinic.SubscriptionStatus = req.SubscriptionStatus
		}
	})
}

func (u *clinicUsecase) SetActive(ctx context.Context, id uuid.UUID, req *dto.SetClinicActiveRequest) (*dto.ClinicResponse, error) {
	return u.mutate(ctx, id, func(clinic *entity.Clinic) {
		clinic.IsActive = req.IsActive
	})
}

func (u *clinicUsecase) mutate(ctx context.Context, id uuid.UUID, fn func(*entity.Clinic)) (*dto.ClinicResponse, error) {
	var clinic *entity.Clinic
	err := u.txManager.WithTx(ctx, func(tx *gorm.DB) error {
		found, err := u.clinicRepo.FindByID(tx, id)
		if err != nil {
			u.log.Warnf("Failed to find clinic: %+v", err)
			return err
		}
		if found == nil {
			return ErrClinicNotFound
		}

		fn(found)
		if err := u.clinicRepo.Update(tx, found); err != nil {
			if err := clinicConflict(err); err != nil {
				return err
			}
			u.log.Warnf("Failed to update clinic: %+v", err)
			return err
		}
		clinic = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return converter.ClinicToResponse(clinic), nil
}

func (u *clinicUsecase) authorize(ctx context.Context, id uuid.UUID) error {
	identity, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	if identity.IsSuperuser() {
		return nil
	}
	if identity.ClinicID == nil || *identity.ClinicID != id {
		return ErrForbidden
	}
	return nil
}

func clinicConflict(err error) error {
	name, ok := repository.UniqueViolation(err)
	if !ok {
		return nil
	}
	switch name {
	case repository.ConstraintClinicCode:
		return ErrClinicCodeExists
	case repository.ConstraintClinicEmail:
		return ErrClinicEmailExists
	}
	return nil
}

func checkBusinessDays(hours []dto.BusinessHourRequest) error {
	seen := map[int]bool{}
	for _, h := range hours {
		if seen[h.Day] {
			return ErrBusinessHourDayDup
		}
		seen[h.Day] = true
		if !h.Closed && h.Open >= h.Close {
			return ErrOutsideBusinessHours
		}
	}
	return nil
}

func (u *clinicUsecase) TimeZones(ctx context.Context) ([]string, error) {
	zones, err := u.clinicRepo.FindTimeZones(u.txManager.DB(ctx))
	if err != nil {
		u.log.Warnf("Failed to list clinic time zones: %+v", err)
		return nil, err
	}
	return zones, nil
}
