package usecase

import (
	"context"
	"errors"
	"time"

	"clinic-management-api/internal/converter"
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/repository"
	"clinic-management-api/internal/observability/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAuditLogNotFound = errors.New("audit log not found")
	ErrAuditLocked      = errors.New("audit record is locked")
)

// Compliance flag names used in metrics and reports.
const (
	FlagMissingSignature  = "missing_signature"
	FlagMissingNotes      = "missing_notes"
	FlagIncompleteSOAP    = "incomplete_soap"
	FlagCopayOverride     = "copay_override"
	FlagLateDocumentation = "late_documentation"
	FlagMissingDiagnosis  = "missing_diagnosis"
)

type AuditLogUsecase interface {
	Create(ctx context.Context, req *dto.CreateAuditLogRequest) (*dto.AuditLogResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.AuditLogResponse, error)
	List(ctx context.Context, req *dto.AuditLogListRequest) (*dto.AuditLogListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req *dto.UpdateAuditLogRequest) (*dto.AuditLogResponse, error)
	Lock(ctx context.Context, id uuid.UUID, req *dto.LockAuditLogRequest) (*dto.AuditLogResponse, error)
	Flag(ctx context.Context, id uuid.UUID, req *dto.FlagAuditLogRequest) (*dto.AuditLogResponse, error)
	Export(ctx context.Context, id uuid.UUID) (*dto.AuditExportResponse, error)
	ComplianceReport(ctx context.Context, req *dto.ComplianceReportRequest) (*entity.ComplianceReport, error)
}

type auditLogUsecase struct {
	txManager    repository.TxManager
	log          *logrus.Logger
	auditLogRepo repository.AuditLogRepository
	patientRepo  repository.PatientRepository
	apptRepo     repository.AppointmentRepository
	clinicRepo   repository.ClinicRepository
	now          func() time.Time
}

func NewAuditLogUsecase(
	txManager repository.TxManager,
	log *logrus.Logger,
	auditLogRepo repository.AuditLogRepository,
	patientRepo repository.PatientRepository,
	apptRepo repository.AppointmentRepository,
	clinicRepo repository.ClinicRepository,
) AuditLogUsecase {
	return &auditLogUsecase{
		txManager:    txManager,
		log:          log,
		auditLogRepo: auditLogRepo,
		patientRepo:  patientRepo,
		apptRepo:     apptRepo,
		clinicRepo:   clinicRepo,
		now:          time.Now,
	}
}

func (u *auditLogUsecase) Create(ctx context.Context, req *dto.CreateAuditLogRequest) (*dto.AuditLogResponse, error) {
	identity, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	db := u.txManager.DB(ctx)

	patient, err := u.patientRepo.FindByID(db, clinicID, req.PatientID)
	if err != nil {
		u.log.Warnf("Failed to find patient: %+v", err)
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	if req.AppointmentID != nil {
		appt, err := u.apptRepo.FindByID(db, clinicID, *req.AppointmentID)
		if err != nil {
			u.log.Warnf("Failed to find appointment: %+v", err)
			return nil, err
		}
		if appt == nil || appt.PatientID != req.PatientID {
			return nil, ErrAppointmentNotFound
		}
	}

	now := u.now()
	auditLog := &entity.AuditLog{
		ClinicID:        clinicID,
		Action:          entity.AuditActionVisitDocumentation,
		PatientID:       req.PatientID,
		AppointmentID:   req.AppointmentID,
		LedgerID:        req.LedgerID,
		ProviderID:      req.ProviderID,
		VisitDate:       req.VisitDate,
		VisitTime:       req.VisitTime,
		VisitType:       req.VisitType,
		BillingCodes:    converter.LineItemsFromRequest(req.BillingCodes),
		DiagnosticCodes: converter.DiagnosticCodesFromRequest(req.DiagnosticCodes),
		SOAP:            converter.SOAPFromRequest(req.SOAP),
		CreatedBy:       actorRef(identity.UserID),
		VisitLocation:   clinicLocation(db, u.clinicRepo, clinicID, u.log),
	}
	if req.Signature != nil {
		auditLog.Signature = converter.SignatureFromRequest(*req.Signature, identity.IP, now)
	}
	if req.Payment != nil {
		auditLog.Payment = entity.PaymentDetails{
			Method:        req.Payment.Method,
			CopayOverride: converter.CopayOverrideFromRequest(req.Payment.CopayOverride),
		}
	}
	auditLog.AppendEvent(auditEvent(identity, entity.AuditEventCreated, now))
	auditLog.RecomputeComplianceFlags(now)

	if err := u.auditLogRepo.Create(db, auditLog); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
		return nil, err
	}

	for _, flag := range complianceFlagNames(auditLog.ComplianceFlags) {
		metrics.ObserveComplianceFlag(flag)
	}

	return converter.AuditLogToResponse(auditLog), nil
}

// Get records a viewed event. A failed event write does not fail the read.
func (u *auditLogUsecase) Get(ctx context.Context, id uuid.UUID) (*dto.AuditLogResponse, error) {
	identity, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	db := u.txManager.DB(ctx)

	auditLog, err := u.auditLogRepo.FindByID(db, clinicID, id)
	if err != nil {
		u.log.Warnf("Failed to find audit log: %+v", err)
		return nil, err
	}
	if auditLog == nil {
		return nil, ErrAuditLogNotFound
	}

	event := auditEvent(identity, entity.AuditEventViewed, u.now())
	if err := u.auditLogRepo.AppendEvent(db, clinicID, id, event); err != nil {
		u.log.Warnf("Failed to record audit view: %+v", err)
	} else {
		auditLog.AppendEvent(event)
	}

	return converter.AuditLogToResponse(auditLog), nil
}

func (u *auditLogUsecase) List(ctx context.Context, req *dto.AuditLogListRequest) (*dto.AuditLogListResponse, error) {
	_, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	page, limit := entity.Normalize(req.Page, req.Limit)
	filter := entity.AuditFilter{
		PatientID:   req.PatientID,
		Action:      req.Action,
		FlaggedOnly: req.FlaggedOnly,
		DateFrom:    req.DateFrom,
		DateTo:      req.DateTo,
		Page:        page,
		Limit:       limit,
	}

	logs, total, err := u.auditLogRepo.FindAll(u.txManager.DB(ctx), clinicID, filter)
	if err != nil {
		u.log.Warnf("Failed to list audit logs: %+v", err)
		return nil, err
	}

	return &dto.AuditLogListResponse{
		Logs:       converter.AuditLogsToResponses(logs),
		Pagination: pagination(page, limit, total),
	}, nil
}

func (u *auditLogUsecase) Update(ctx context.Context, id uuid.UUID, req *dto.UpdateAuditLogRequest) (*dto.AuditLogResponse, error) {
	identity, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var auditLog *entity.AuditLog
	err = u.txManager.WithTx(ctx, func(tx *gorm.DB) error {
		found, err := u.auditLogRepo.FindByIDForUpdate(tx, clinicID, id)
		if err != nil {
			u.log.Warnf("Failed to lock audit log: %+v", err)
			return err
		}
		if found == nil {
			return ErrAuditLogNotFound
		}
		if found.IsLocked {
			return ErrAuditLocked
		}

		now := u.now()
		changes := entity.JSON{}
		if req.VisitType != "" && req.VisitType != found.VisitType {
			changes["visit_type"] = entity.JSON{"from": found.VisitType, "to": req.VisitType}
			found.VisitType = req.VisitType
		}
		if req.BillingCodes != nil {
			changes["billing_codes"] = entity.JSON{"from": found.BillingCodes.Codes(), "to": billingCodesOf(req.BillingCodes)}
			found.BillingCodes = converter.LineItemsFromRequest(req.BillingCodes)
		}
		if req.DiagnosticCodes != nil {
			changes["diagnostic_codes"] = len(req.DiagnosticCodes)
			found.DiagnosticCodes = converter.DiagnosticCodesFromRequest(req.DiagnosticCodes)
		}
		if req.SOAP != nil {
			changes["soap"] = "updated"
			found.SOAP = converter.SOAPFromRequest(*req.SOAP)
		}
		if req.Signature != nil {
			changes["signature"] = "captured"
			found.Signature = converter.SignatureFromRequest(*req.Signature, identity.IP, now)
		}
		if req.Payment != nil {
			changes["payment"] = "updated"
			if req.Payment.Method != "" {
				found.Payment.Method = req.Payment.Method
			}
			if req.Payment.CopayOverride != nil {
				found.Payment.CopayOverride = converter.CopayOverrideFromRequest(req.Payment.CopayOverride)
			}
		}

		event := auditEvent(identity, entity.AuditEventModified, now)
		event.Changes = changes
		found.AppendEvent(event)
		found.RecomputeComplianceFlags(now)

		if err := u.auditLogRepo.Update(tx, found); err != nil {
			if errors.Is(err, repository.ErrRecordLocked) {
				return ErrAuditLocked
			}
			u.log.Warnf("Failed to update audit log: %+v", err)
			return err
		}
		auditLog = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return converter.AuditLogToResponse(auditLog), nil
}

// Lock is one-way. Locked records only accept appended events.
func (u *auditLogUsecase) Lock(ctx context.Context, id uuid.UUID, req *dto.LockAuditLogRequest) (*dto.AuditLogResponse, error) {
	return u.mutate(ctx, id, entity.AuditEventLocked, req.Reason, func(auditLog *entity.AuditLog, actor uuid.UUID, now time.Time) {
		auditLog.Lock(actor, req.Reason, now)
	})
}

func (u *auditLogUsecase) Flag(ctx context.Context, id uuid.UUID, req *dto.FlagAuditLogRequest) (*dto.AuditLogResponse, error) {
	return u.mutate(ctx, id, entity.AuditEventFlagged, req.Reason, func(auditLog *entity.AuditLog, _ uuid.UUID, _ time.Time) {
		auditLog.FlaggedForReview = true
		auditLog.ReviewReason = req.Reason
	})
}

// mutate applies fn to an unlocked record under a row lock and appends one event.
func (u *auditLogUsecase) mutate(ctx context.Context, id uuid.UUID, eventType, reason string, fn func(*entity.AuditLog, uuid.UUID, time.Time)) (*dto.AuditLogResponse, error) {
	identity, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var auditLog *entity.AuditLog
	err = u.txManager.WithTx(ctx, func(tx *gorm.DB) error {
		found, err := u.auditLogRepo.FindByIDForUpdate(tx, clinicID, id)
		if err != nil {
			u.log.Warnf("Failed to lock audit log: %+v", err)
			return err
		}
		if found == nil {
			return ErrAuditLogNotFound
		}
		if found.IsLocked {
			return ErrAuditLocked
		}

		now := u.now()
		fn(found, identity.UserID, now)
		event := auditEvent(identity, eventType, now)
		event.Reason = reason
		found.AppendEvent(event)

		if err := u.auditLogRepo.Update(tx, found); err != nil {
			if errors.Is(err, repository.ErrRecordLocked) {
				return ErrAuditLocked
			}
			u.log.Warnf("Failed to update audit log: %+v", err)
			return err
		}
		auditLog = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return converter.AuditLogToResponse(auditLog), nil
}

// Export is allowed on locked records.
func (u *auditLogUsecase) Export(ctx context.Context, id uuid.UUID) (*dto.AuditExportResponse, error) {
	identity, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	db := u.txManager.DB(ctx)

	auditLog, err := u.auditLogRepo.FindByID(db, clinicID, id)
	if err != nil {
		u.log.Warnf("Failed to find audit log: %+v", err)
		return nil, err
	}
	if auditLog == nil {
		return nil, ErrAuditLogNotFound
	}

	now := u.now()
	event := auditEvent(identity, entity.AuditEventExported, now)
	if err := u.auditLogRepo.AppendEvent(db, clinicID, id, event); err != nil {
		u.log.Warnf("Failed to record audit export: %+v", err)
		return nil, err
	}
	auditLog.AppendEvent(event)

	return &dto.AuditExportResponse{
		ExportedAt: now,
		ExportedBy: identity.UserID,
		Record:     converter.AuditLogToResponse(auditLog),
	}, nil
}

func (u *auditLogUsecase) ComplianceReport(ctx context.Context, req *dto.ComplianceReportRequest) (*entity.ComplianceReport, error) {
	_, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	report, err := u.auditLogRepo.ComplianceReport(u.txManager.DB(ctx), clinicID, req.DateFrom, req.DateTo)
	if err != nil {
		u.log.Warnf("Failed to build compliance report: %+v", err)
		return nil, err
	}
	return report, nil
}

func billingCodesOf(reqs []dto.BillingLineItemRequest) []string {
	codes := make([]string, 0, len(reqs))
	for _, r := range reqs {
		codes = append(codes, r.Code)
	}
	return codes
}

// complianceFlagNames lists the raised flags in a stable order.
func complianceFlagNames(f entity.ComplianceFlags) []string {
	var names []string
	if f.MissingSignature {
		names = append(names, FlagMissingSignature)
	}
	if f.MissingNotes {
		names = append(names, FlagMissingNotes)
	}
	if f.IncompleteSOAP {
		names = append(names, FlagIncompleteSOAP)
	}
	if f.CopayOverride {
		names = append(names, FlagCopayOverride)
	}
	if f.LateDocumentation {
		names = append(names, FlagLateDocumentation)
	}
	if f.MissingDiagnosis {
		names = append(names, FlagMissingDiagnosis)
	}
	return names
}
