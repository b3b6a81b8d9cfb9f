package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinic-management-api/internal/converter"
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrPatientNotFound       = errors.New("patient not found")
	ErrPatientNotDeleted     = errors.New("patient is not deleted")
	ErrRecordNumberExists    = errors.New("record number already exists")
	ErrAlertNotFound         = errors.New("alert not found")
	ErrNoReferrer            = errors.New("patient has no referrer")
	ErrBonusAlreadyPaid      = errors.New("referral bonus already paid")
	errRecordNumberExhausted = errors.New("could not allocate a record number")
)

// recordNumberAttempts bounds retries when two registrations race for the same sequence.
const recordNumberAttempts = 3

type PatientUsecase interface {
	Create(ctx context.Context, req *dto.CreatePatientRequest) (*dto.PatientResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.PatientResponse, error)
	List(ctx context.Context, req *dto.PatientListRequest) (*dto.PatientListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req *dto.UpdatePatientRequest) (*dto.PatientResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) (*dto.PatientResponse, error)
	AddAlert(ctx context.Context, id uuid.UUID, req *dto.AddAlertRequest) (*dto.PatientResponse, error)
	ResolveAlert(ctx context.Context, id, alertID uuid.UUID) (*dto.PatientResponse, error)
	// ReferralPayout marks the referral bonus paid and writes a manual_bonus_payout audit record.
	ReferralPayout(ctx context.Context, id uuid.UUID, req *dto.ReferralPayoutRequest) (*dto.PatientResponse, error)
}

type patientUsecase struct {
	txManager    repository.TxManager
	log          *logrus.Logger
	patientRepo  repository.PatientRepository
	clinicRepo   repository.ClinicRepository
	auditLogRepo repository.AuditLogRepository
	now          func() time.Time
}

func NewPatientUsecase(
	txManager repository.TxManager,
	log *logrus.Logger,
	patientRepo repository.PatientRepository,
	clinicRepo repository.ClinicRepository,
	auditLogRepo repository.AuditLogRepository,
) PatientUsecase {
	return &patientUsecase{
		txManager:    txManager,
		log:          log,
		patientRepo:  patientRepo,
		clinicRepo:   clinicRepo,
		auditLogRepo: auditLogRepo,
		now:          time.Now,
	}
}

func (u *patientUsecase) Create(ctx context.Context, req *dto.CreatePatientRequest) (*dto.PatientResponse, error) {
	identity, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	db := u.txManager.DB(ctx)

	patient := &entity.Patient{
		ClinicID:       clinicID,
		RecordNumber:   req.RecordNumber,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		DateOfBirth:    converter.ParseDate(req.DateOfBirth),
		Gender:         req.Gender,
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        converter.AddressFromRequest(req.Address),
		Insurance:      converter.InsuranceFromRequest(req.Insurance),
		Referral:       converter.ReferralFromRequest(req.Referral),
		MedicalHistory: converter.MedicalHistoryFromRequest(req.MedicalHistory),
		ActivePackages: entity.UUIDList{},
		Alerts:         entity.PatientAlerts{},
		Status:         entity.PatientStatusActive,
		CreatedBy:      actorRef(identity.UserID),
	}

	if req.RecordNumber != "" {
		if err := u.patientRepo.Create(db, patient); err != nil {
			if repository.IsUniqueViolationOf(err, repository.ConstraintPatientRecord) {
				return nil, ErrRecordNumberExists
			}
			u.log.Warnf("Failed to create patient: %+v", err)
			return nil, err
		}
		return converter.PatientToResponse(patient), nil
	}

	clinic, err := u.clinicRepo.FindByID(db, clinicID)
	if err != nil {
		u.log.Warnf("Failed to find clinic: %+v", err)
		return nil, err
	}
	if clinic == nil {
		return nil, ErrClinicNotFound
	}

	prefix := fmt.Sprintf("%s-%s-", clinic.Code, u.now().In(clinic.Location()).Format("20060102"))
	for attempt := 0; attempt < recordNumberAttempts; attempt++ {
		count, err := u.patientRepo.CountByRecordPrefix(db, clinicID, prefix)
		if err != nil {
			u.log.Warnf("Failed to count record numbers: %+v", err)
			return nil, err
		}
		patient.RecordNumber = fmt.Sprintf("%s%04d", prefix, count+1+int64(attempt))

		err = u.patientRepo.Create(db, patient)
		if err == nil {
			return converter.PatientToResponse(patient), nil
		}
		if !repository.IsUniqueViolationOf(err, repository.ConstraintPatientRecord) {
			u.log.Warnf("Failed to create patient: %+v", err)
			return nil, err
		}
	}

	u.log.Warnf("Failed to create patient: %+v", errRecordNumberExhausted)
	return nil, errRecordNumberExhausted
}

func (u *patientUsecase) Get(ctx context.Context, id uuid.UUID) (*dto.PatientResponse, error) {
	_, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	patient, err := u.patientRepo.FindByID(u.txManager.DB(ctx), clinicID, id)
	if err != nil {
		u.log.Warnf("Failed to find patient: %+v", err)
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	return converter.PatientToResponse(patient), nil
}

func (u *patientUsecase) List(ctx context.Context, req *dto.PatientListRequest) (*dto.PatientListResponse, error) {
	_, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	page, limit := entity.Normalize(req.Page, req.Limit)
	filter := entity.PatientFilter{
		Search: req.Search,
		Status: entity.PatientStatus(req.Status),
		Page:   page,
		Limit:  limit,
	}

	patients, total, err := u.patientRepo.FindAll(u.txManager.DB(ctx), clinicID, filter)
	if err != nil {
		u.log.Warnf("Failed to list patients: %+v", err)
		return nil, err
	}

	return &dto.PatientListResponse{
		Patients:   converter.PatientsToResponses(patients),
		Pagination: pagination(page, limit, total),
	}, nil
}

func (u *patientUsecase) Update(ctx context.Context, id uuid.UUID, req *dto.UpdatePatientRequest) (*dto.PatientResponse, error) {
	return u.mutate(ctx, id, func(patient *entity.Patient, _ uuid.UUID, _ time.Time) error {
		if patient.IsDeleted() {
			return ErrPatientNotFound
		}
		if req.FirstName != "" {
			patient.FirstName = req.FirstName
		}
		if req.LastName != "" {
			patient.LastName = req.LastName
		}
		if req.DateOfBirth != "" {
			patient.DateOfBirth = converter.ParseDate(req.DateOfBirth)
		}
		if req.Gender != "" {
			patient.Gender = req.Gender
		}
		if req.Email != "" {
			patient.Email = req.Email
		}
		if req.Phone != "" {
			patient.Phone = req.Phone
		}
		if req.Address != nil {
			patient.Address = converter.AddressFromRequest(*req.Address)
		}
		if req.Insurance != nil {
			patient.Insurance = converter.InsuranceFromRequest(req.Insurance)
		}
		if req.Referral != nil {
			// Payout state survives edits to the referrer.
			referral := converter.ReferralFromRequest(req.Referral)
			referral.BonusPaid = patient.Referral.BonusPaid
			referral.PayoutDate = patient.Referral.PayoutDate
			referral.HandledBy = patient.Referral.HandledBy
			referral.Notes = patient.Referral.Notes
			patient.Referral = referral
		}
		if req.MedicalHistory != nil {
			patient.MedicalHistory = converter.MedicalHistoryFromRequest(req.MedicalHistory)
		}
		if req.Status != "" {
			patient.Status = entity.PatientStatus(req.Status)
		}
		return nil
	})
}

// Delete is a soft delete. Appointments, ledger entries and audit records are kept.
func (u *patientUsecase) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := u.mutate(ctx, id, func(patient *entity.Patient, actor uuid.UUID, now time.Time) error {
		if patient.IsDeleted() {
			return ErrPatientNotFound
		}
		patient.SoftDelete(actor, now)
		return nil
	})
	return err
}

func (u *patientUsecase) Restore(ctx context.Context, id uuid.UUID) (*dto.PatientResponse, error) {
	return u.mutate(ctx, id, func(patient *entity.Patient, _ uuid.UUID, _ time.Time) error {
		if !patient.IsDeleted() {
			return ErrPatientNotDeleted
		}
		patient.Restore()
		return nil
	})
}

func (u *patientUsecase) AddAlert(ctx context.Context, id uuid.UUID, req *dto.AddAlertRequest) (*dto.PatientResponse, error) {
	return u.mutate(ctx, id, func(patient *entity.Patient, actor uuid.UUID, now time.Time) error {
		priority := req.Priority
		if priority == "" {
			priority = entity.AlertPriorityMedium
		}
		patient.Alerts = append(patient.Alerts, entity.PatientAlert{
			ID:        uuid.New(),
			Type:      req.Type,
			Priority:  priority,
			Message:   req.Message,
			CreatedBy: actor,
			CreatedAt: now,
		})
		return nil
	})
}

func (u *patientUsecase) ResolveAlert(ctx context.Context, id, alertID uuid.UUID) (*dto.PatientResponse, error) {
	return u.mutate(ctx, id, func(patient *entity.Patient, actor uuid.UUID, now time.Time) error {
		for i := range patient.Alerts {
			alert := &patient.Alerts[i]
			if alert.ID != alertID {
				continue
			}
			if !alert.IsResolved {
				alert.IsResolved = true
				alert.ResolvedBy = &actor
				alert.ResolvedAt = &now
			}
			return nil
		}
		return ErrAlertNotFound
	})
}

func (u *patientUsecase) ReferralPayout(ctx context.Context, id uuid.UUID, req *dto.ReferralPayoutRequest) (*dto.PatientResponse, error) {
	identity, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var patient *entity.Patient
	err = u.txManager.WithTx(ctx, func(tx *gorm.DB) error {
		found, err := u.patientRepo.FindByIDForUpdate(tx, clinicID, id)
		if err != nil {
			u.log.Warnf("Failed to lock patient: %+v", err)
			return err
		}
		if found == nil || found.IsDeleted() {
			return ErrPatientNotFound
		}
		if !found.Referral.HasReferrer() {
			return ErrNoReferrer
		}
		if found.Referral.BonusPaid {
			return ErrBonusAlreadyPaid
		}

		amount := found.Referral.BonusAmount
		if req.Amount != nil {
			amount = *req.Amount
		}
		if !amount.IsPositive() {
			return ErrInvalidAmount
		}

		now := u.now()
		found.Referral.BonusAmount = amount
		found.Referral.BonusPaid = true
		found.Referral.PayoutDate = &now
		found.Referral.HandledBy = actorRef(identity.UserID)
		if req.Note != "" {
			found.Referral.Notes = append(found.Referral.Notes, req.Note)
		}
		if err := u.patientRepo.Update(tx, found); err != nil {
			u.log.Warnf("Failed to update patient referral: %+v", err)
			return err
		}

		if err := u.auditLogRepo.Create(tx, payoutAuditLog(identity.UserID, found, amount, req.Note, now, auditEvent(identity, entity.AuditEventCreated, now))); err != nil {
			u.log.Warnf("Failed to create payout audit log: %+v", err)
			return err
		}

		patient = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return converter.PatientToResponse(patient), nil
}

// mutate applies fn to the patient under a row lock and saves it.
func (u *patientUsecase) mutate(ctx context.Context, id uuid.UUID, fn func(*entity.Patient, uuid.UUID, time.Time) error) (*dto.PatientResponse, error) {
	identity, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var patient *entity.Patient
	err = u.txManager.WithTx(ctx, func(tx *gorm.DB) error {
		found, err := u.patientRepo.FindByIDForUpdate(tx, clinicID, id)
		if err != nil {
			u.log.Warnf("Failed to lock patient: %+v", err)
			return err
		}
		if found == nil {
			return ErrPatientNotFound
		}
		if err := fn(found, identity.UserID, u.now()); err != nil {
			return err
		}
		if err := u.patientRepo.Update(tx, found); err != nil {
			u.log.Warnf("Failed to update patient: %+v", err)
			return err
		}
		patient = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return converter.PatientToResponse(patient), nil
}

func payoutAuditLog(actor uuid.UUID, patient *entity.Patient, amount decimal.Decimal, note string, now time.Time, event entity.AuditEvent) *entity.AuditLog {
	metadata := entity.JSON{
		"referrer_name": patient.Referral.ReferrerName,
		"amount":        amount.StringFixed(2),
	}
	if patient.Referral.ReferredByPatientID != nil {
		metadata["referred_by_patient_id"] = patient.Referral.ReferredByPatientID.String()
	}
	if note != "" {
		metadata["note"] = note
	}

	auditLog := &entity.AuditLog{
		ClinicID:  patient.ClinicID,
		Action:    entity.AuditActionManualBonusPayout,
		PatientID: patient.ID,
		VisitDate: now.Format(entity.DateLayout),
		Payment: entity.PaymentDetails{
			Method:      entity.PaymentMethodOther,
			TotalAmount: amount,
			AmountPaid:  amount,
		},
		Metadata:  metadata,
		CreatedBy: actorRef(actor),
	}
	auditLog.AppendEvent(event)
	auditLog.RecomputeComplianceFlags(now)
	return auditLog
}
