package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinic-management-api/internal/converter"
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/repository"
	"clinic-management-api/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrLedgerNotFound     = errors.New("ledger entry not found")
	ErrLedgerVoided       = errors.New("ledger entry is voided")
	ErrAlreadyCheckedOut  = errors.New("appointment already has an active ledger entry")
	ErrUnknownBillingCode = errors.New("unknown billing code")
	ErrInvalidAmount      = errors.New("amounts must not be negative")
)

type LedgerUsecase interface {
	// Checkout settles an appointment: ledger entry, status, package session and audit record commit together.
	Checkout(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	List(ctx context.Context, req *dto.LedgerListRequest) (*dto.LedgerListResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.LedgerResponse, error)
	Update(ctx context.Context, id uuid.UUID, req *dto.UpdateLedgerRequest) (*dto.LedgerResponse, error)
	Void(ctx context.Context, id uuid.UUID, req *dto.VoidLedgerRequest) (*dto.LedgerResponse, error)
	PatientSummary(ctx context.Context, patientID uuid.UUID) (*entity.BalanceSummary, error)
}

type ledgerUsecase struct {
	txManager       repository.TxManager
	log             *logrus.Logger
	ledgerRepo      repository.LedgerRepository
	apptRepo        repository.AppointmentRepository
	patientRepo     repository.PatientRepository
	carePackageRepo repository.CarePackageRepository
	auditLogRepo    repository.AuditLogRepository
	soapNoteRepo    repository.SOAPNoteRepository
	clinicRepo      repository.ClinicRepository
	catalog         service.ReferenceCatalog
	history         service.HistoryService
	now             func() time.Time
}

func NewLedgerUsecase(
	txManager repository.TxManager,
	log *logrus.Logger,
	ledgerRepo repository.LedgerRepository,
	apptRepo repository.AppointmentRepository,
	patientRepo repository.PatientRepository,
	carePackageRepo repository.CarePackageRepository,
	auditLogRepo repository.AuditLogRepository,
	soapNoteRepo repository.SOAPNoteRepository,
	clinicRepo repository.ClinicRepository,
	catalog service.ReferenceCatalog,
	history service.HistoryService,
) LedgerUsecase {
	return &ledgerUsecase{
		txManager:       txManager,
		log:             log,
		ledgerRepo:      ledgerRepo,
		apptRepo:        apptRepo,
		patientRepo:     patientRepo,
		carePackageRepo: carePackageRepo,
		auditLogRepo:    auditLogRepo,
		soapNoteRepo:    soapNoteRepo,
		clinicRepo:      clinicRepo,
		catalog:         catalog,
		history:         history,
		now:             time.Now,
	}
}

func (u *ledgerUsecase) List(ctx context.Context, req *dto.LedgerListRequest) (*dto.LedgerListResponse, error) {
	_, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	page, limit := entity.Normalize(req.Page, req.Limit)
	filter := entity.LedgerFilter{
		PatientID:     req.PatientID,
		PaymentStatus: entity.PaymentStatus(req.PaymentStatus),
		DateFrom:      req.DateFrom,
		DateTo:        req.DateTo,
		IncludeVoided: req.IncludeVoided,
		Page:          page,
		Limit:         limit,
	}

	ledgers, total, err := u.ledgerRepo.FindAll(u.txManager.DB(ctx), clinicID, filter)
	if err != nil {
		u.log.Warnf("Failed to list ledger entries: %+v", err)
		return nil, err
	}

	return &dto.LedgerListResponse{
		Entries:    converter.LedgersToResponses(ledgers),
		Pagination: pagination(page, limit, total),
	}, nil
}

func (u *ledgerUsecase) Get(ctx context.Context, id uuid.UUID) (*dto.LedgerResponse, error) {
	_, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	ledger, err := u.ledgerRepo.FindByID(u.txManager.DB(ctx), clinicID, id)
	if err != nil {
		u.log.Warnf("Failed to find ledger entry: %+v", err)
		return nil, err
	}
	if ledger == nil {
		return nil, ErrLedgerNotFound
	}

	return converter.LedgerToResponse(ledger), nil
}

// Update edits a non-voided entry and re-mirrors the totals onto its appointment.
func (u *ledgerUsecase) Update(ctx context.Context, id uuid.UUID, req *dto.UpdateLedgerRequest) (*dto.LedgerResponse, error) {
	identity, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var ledger *entity.Ledger
	err = u.txManager.WithTx(ctx, func(tx *gorm.DB) error {
		found, err := u.ledgerRepo.FindByIDForUpdate(tx, clinicID, id)
		if err != nil {
			u.log.Warnf("Failed to lock ledger entry: %+v", err)
			return err
		}
		if found == nil {
			return ErrLedgerNotFound
		}
		if found.IsVoided {
			return ErrLedgerVoided
		}

		if req.BillingCodes != nil {
			items := converter.LineItemsFromRequest(req.BillingCodes)
			if err := u.resolveLineItems(items); err != nil {
				return err
			}
			found.BillingCodes = items
		}
		if req.Discounts != nil {
			found.Discounts = converter.DiscountsFromRequest(req.Discounts)
		}
		if req.PaymentMethod != "" {
			found.PaymentMethod = req.PaymentMethod
		}
		if req.AmountPaid != nil {
			found.AmountPaid = *req.AmountPaid
		}
		if req.Notes != nil {
			found.Notes = *req.Notes
		}
		if req.Insurance != nil {
			found.Insurance = converter.InsuranceClaimFromRequest(req.Insurance)
		}
		if err := validateAmounts(found.BillingCodes, found.Discounts, found.AmountPaid); err != nil {
			return err
		}

		found.UpdatedBy = actorRef(identity.UserID)
		found.Recalculate()
		if err := u.ledgerRepo.Update(tx, found); err != nil {
			u.log.Warnf("Failed to update ledger entry: %+v", err)
			return err
		}

		appt, err := u.apptRepo.FindByIDForUpdate(tx, clinicID, found.AppointmentID)
		if err != nil {
			u.log.Warnf("Failed to lock appointment: %+v", err)
			return err
		}
		if appt != nil {
			appt.MirrorLedger(found)
			appt.Touch(identity.UserID, u.now())
			if err := u.apptRepo.Update(tx, appt); err != nil {
				u.log.Warnf("Failed to mirror ledger onto appointment: %+v", err)
				return err
			}
		}

		ledger = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return converter.LedgerToResponse(ledger), nil
}

// Void is terminal. The appointment keeps its checked-out status.
func (u *ledgerUsecase) Void(ctx context.Context, id uuid.UUID, req *dto.VoidLedgerRequest) (*dto.LedgerResponse, error) {
	identity, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var ledger *entity.Ledger
	err = u.txManager.WithTx(ctx, func(tx *gorm.DB) error {
		found, err := u.ledgerRepo.FindByIDForUpdate(tx, clinicID, id)
		if err != nil {
			u.log.Warnf("Failed to lock ledger entry: %+v", err)
			return err
		}
		if found == nil {
			return ErrLedgerNotFound
		}
		if found.IsVoided {
			return ErrLedgerVoided
		}

		found.Void(identity.UserID, req.Reason, u.now())
		found.UpdatedBy = actorRef(identity.UserID)
		if err := u.ledgerRepo.Update(tx, found); err != nil {
			u.log.Warnf("Failed to void ledger entry: %+v", err)
			return err
		}
		ledger = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.WithFields(logrus.Fields{
		"ledger_id":      ledger.ID,
		"appointment_id": ledger.AppointmentID,
		"voided_by":      identity.UserID,
	}).Info("Ledger entry voided")

	return converter.LedgerToResponse(ledger), nil
}

func (u *ledgerUsecase) PatientSummary(ctx context.Context, patientID uuid.UUID) (*entity.BalanceSummary, error) {
	_, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	db := u.txManager.DB(ctx)

	patient, err := u.patientRepo.FindByID(db, clinicID, patientID)
	if err != nil {
		u.log.Warnf("Failed to find patient: %+v", err)
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	summary, err := u.ledgerRepo.PatientSummary(db, clinicID, patientID)
	if err != nil {
		u.log.Warnf("Failed to summarize patient balance: %+v", err)
		return nil, err
	}
	return summary, nil
}

// resolveLineItems normalizes codes and fills description and price from the catalog.
// A code outside the catalog is accepted only with an explicit price.
func (u *ledgerUsecase) resolveLineItems(items entity.BillingLineItems) error {
	for i := range items {
		item := &items[i]
		item.Code = strings.ToUpper(strings.TrimSpace(item.Code))

		ref, ok := u.catalog.BillingCode(item.Code)
		if !ok {
			if item.UnitPrice.IsZero() {
				return fmt.Errorf("%w: %s", ErrUnknownBillingCode, item.Code)
			}
			continue
		}
		if item.Description == "" {
			item.Description = ref.Description
		}
		if item.UnitPrice.IsZero() {
			item.UnitPrice = ref.DefaultPrice
		}
	}
	return nil
}

func (u *ledgerUsecase) resolveDiagnoses(entries entity.DiagnosticEntries) entity.DiagnosticEntries {
	for i := range entries {
		entry := &entries[i]
		entry.Code = strings.ToUpper(strings.TrimSpace(entry.Code))
		if entry.Description != "" {
			continue
		}
		if ref, ok := u.catalog.DiagnosticCode(entry.Code); ok {
			entry.Description = ref.Description
		}
	}
	return entries
}

func validateAmounts(items entity.BillingLineItems, discounts entity.Discounts, amountPaid decimal.Decimal) error {
	if amountPaid.IsNegative() {
		return ErrInvalidAmount
	}
	for _, item := range items {
		if item.UnitPrice.IsNegative() || item.CoveragePercent.IsNegative() || item.CoveragePercent.GreaterThan(decimal.NewFromInt(100)) {
			return ErrInvalidAmount
		}
	}
	for _, d := range discounts {
		if d.Amount.IsNegative() {
			return ErrInvalidAmount
		}
	}
	return nil
}
