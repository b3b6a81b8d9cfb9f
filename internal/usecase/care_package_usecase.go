package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"clinic-management-api/internal/converter"
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrCarePackageNotFound = errors.New("care package not found")
	ErrInvalidExpiry       = errors.New("expiry date must be after purchase date")
)

type CarePackageUsecase interface {
	Create(ctx context.Context, req *dto.CreateCarePackageRequest) (*dto.CarePackageResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.CarePackageResponse, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]dto.CarePackageResponse, error)
	UseSession(ctx context.Context, id uuid.UUID, req *dto.UseSessionRequest) (*dto.CarePackageResponse, error)
	Cancel(ctx context.Context, id uuid.UUID) (*dto.CarePackageResponse, error)
}

type carePackageUsecase struct {
	txManager       repository.TxManager
	log             *logrus.Logger
	carePackageRepo repository.CarePackageRepository
	patientRepo     repository.PatientRepository
	apptRepo        repository.AppointmentRepository
	now             func() time.Time
}

func NewCarePackageUsecase(
	txManager repository.TxManager,
	log *logrus.Logger,
	carePackageRepo repository.CarePackageRepository,
	patientRepo repository.PatientRepository,
	apptRepo repository.AppointmentRepository,
) CarePackageUsecase {
	return &carePackageUsecase{
		txManager:       txManager,
		log:             log,
		carePackageRepo: carePackageRepo,
		patientRepo:     patientRepo,
		apptRepo:        apptRepo,
		now:             time.Now,
	}
}

func (u *carePackageUsecase) Create(ctx context.Context, req *dto.CreateCarePackageRequest) (*dto.CarePackageResponse, error) {
	identity, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, ErrInvalidAmount
	}

	purchase := u.now()
	if req.PurchaseDate != "" {
		if purchase, err = parseDate(req.PurchaseDate); err != nil {
			return nil, err
		}
	}
	var expiry *time.Time
	if req.ExpiryDate != "" {
		t, err := parseDate(req.ExpiryDate)
		if err != nil {
			return nil, err
		}
		if !t.After(purchase) {
			return nil, ErrInvalidExpiry
		}
		expiry = &t
	}

	codes := make(entity.StringList, 0, len(req.BillingCodes))
	for _, c := range req.BillingCodes {
		codes = append(codes, strings.ToUpper(strings.TrimSpace(c)))
	}

	pkg := &entity.CarePackage{
		ClinicID:          clinicID,
		PatientID:         req.PatientID,
		Name:              req.Name,
		Description:       req.Description,
		TotalSessions:     req.TotalSessions,
		RemainingSessions: req.TotalSessions,
		BillingCodes:      codes,
		Price:             req.Price,
		Status:            entity.CarePackageActive,
		PurchaseDate:      purchase,
		ExpiryDate:        expiry,
		SessionHistory:    entity.SessionHistory{},
		CreatedBy:         actorRef(identity.UserID),
	}

	err = u.txManager.WithTx(ctx, func(tx *gorm.DB) error {
		patient, err := u.patientRepo.FindByIDForUpdate(tx, clinicID, req.PatientID)
		if err != nil {
			u.log.Warnf("Failed to lock patient: %+v", err)
			return err
		}
		if patient == nil || patient.IsDeleted() {
			return ErrPatientNotFound
		}

		if err := u.carePackageRepo.Create(tx, pkg); err != nil {
			u.log.Warnf("Failed to create care package: %+v", err)
			return err
		}

		patient.ActivePackages = append(patient.ActivePackages, pkg.ID)
		if err := u.patientRepo.Update(tx, patient); err != nil {
			u.log.Warnf("Failed to attach care package to patient: %+v", err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return converter.CarePackageToResponse(pkg), nil
}

func (u *carePackageUsecase) Get(ctx context.Context, id uuid.UUID) (*dto.CarePackageResponse, error) {
	_, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	pkg, err := u.carePackageRepo.FindByID(u.txManager.DB(ctx), clinicID, id)
	if err != nil {
		u.log.Warnf("Failed to find care package: %+v", err)
		return nil, err
	}
	if pkg == nil {
		return nil, ErrCarePackageNotFound
	}

	return converter.CarePackageToResponse(pkg), nil
}

func (u *carePackageUsecase) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]dto.CarePackageResponse, error) {
	_, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	pkgs, err := u.carePackageRepo.FindByPatient(u.txManager.DB(ctx), clinicID, patientID)
	if err != nil {
		u.log.Warnf("Failed to find care packages: %+v", err)
		return nil, err
	}

	return converter.CarePackagesToResponses(pkgs), nil
}

// UseSession consumes one session outside checkout. An expired package is marked expired.
func (u *carePackageUsecase) UseSession(ctx context.Context, id uuid.UUID, req *dto.UseSessionRequest) (*dto.CarePackageResponse, error) {
	identity, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var (
		pkg    *entity.CarePackage
		useErr error
	)
	err = u.txManager.WithTx(ctx, func(tx *gorm.DB) error {
		found, err := u.carePackageRepo.FindByIDForUpdate(tx, clinicID, id)
		if err != nil {
			u.log.Warnf("Failed to lock care package: %+v", err)
			return err
		}
		if found == nil {
			return ErrCarePackageNotFound
		}

		if req.AppointmentID != nil {
			appt, err := u.apptRepo.FindByID(tx, clinicID, *req.AppointmentID)
			if err != nil {
				u.log.Warnf("Failed to find appointment: %+v", err)
				return err
			}
			if appt == nil || appt.PatientID != found.PatientID {
				return ErrAppointmentNotFound
			}
		}

		now := u.now()
		if found.Status == entity.CarePackageActive && found.IsExpired(now) {
			found.Status = entity.CarePackageExpired
			useErr = entity.ErrPackageNotActive
		} else {
			useErr = found.UseSession(entity.SessionUse{
				AppointmentID: req.AppointmentID,
				CodesUsed:     req.CodesUsed,
				UsedBy:        identity.UserID,
				UsedAt:        now,
				Notes:         req.Notes,
			})
			if useErr != nil {
				return useErr
			}
		}

		if err := u.carePackageRepo.Update(tx, found); err != nil {
			u.log.Warnf("Failed to update care package: %+v", err)
			return err
		}
		pkg = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	if pkg.Status != entity.CarePackageActive {
		if err := detachPackage(u.txManager.DB(ctx), u.patientRepo, clinicID, pkg); err != nil {
			u.log.Warnf("Failed to detach finished care package %s: %+v", pkg.ID, err)
		}
	}
	// Expiry is persisted, then reported.
	if useErr != nil {
		return nil, useErr
	}

	return converter.CarePackageToResponse(pkg), nil
}

func (u *carePackageUsecase) Cancel(ctx context.Context, id uuid.UUID) (*dto.CarePackageResponse, error) {
	_, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var pkg *entity.CarePackage
	err = u.txManager.WithTx(ctx, func(tx *gorm.DB) error {
		found, err := u.carePackageRepo.FindByIDForUpdate(tx, clinicID, id)
		if err != nil {
			u.log.Warnf("Failed to lock care package: %+v", err)
			return err
		}
		if found == nil {
			return ErrCarePackageNotFound
		}
		if found.Status != entity.CarePackageActive {
			return entity.ErrPackageNotActive
		}

		found.Status = entity.CarePackageCancelled
		if err := u.carePackageRepo.Update(tx, found); err != nil {
			u.log.Warnf("Failed to cancel care package: %+v", err)
			return err
		}
		pkg = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := detachPackage(u.txManager.DB(ctx), u.patientRepo, clinicID, pkg); err != nil {
		u.log.Warnf("Failed to detach cancelled care package %s: %+v", pkg.ID, err)
	}

	return converter.CarePackageToResponse(pkg), nil
}
