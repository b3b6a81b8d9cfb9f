package usecase

import (
	"context"
	"errors"
	"time"

	"clinic-management-api/internal/converter"
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/delivery/http/middleware"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/repository"
	"clinic-management-api/internal/observability/metrics"
	"clinic-management-api/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type checkoutResult struct {
	appt     *entity.Appointment
	previous entity.JSON
	ledger   *entity.Ledger
	auditLog *entity.AuditLog
	pkg      *entity.CarePackage
}

func (u *ledgerUsecase) Checkout(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	start := u.now()
	identity, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	items := converter.LineItemsFromRequest(req.BillingCodes)
	if err := u.resolveLineItems(items); err != nil {
		metrics.ObserveCheckout(checkoutOutcome(err), time.Since(start))
		return nil, err
	}
	discounts := converter.DiscountsFromRequest(req.Discounts)
	if err := validateAmounts(items, discounts, req.AmountPaid); err != nil {
		metrics.ObserveCheckout(checkoutOutcome(err), time.Since(start))
		return nil, err
	}
	diagnoses := u.resolveDiagnoses(converter.DiagnosticCodesFromRequest(req.DiagnosticCodes))

	now := u.now()
	signature := converter.SignatureFromRequest(req.Signature, identity.IP, now)

	var result checkoutResult
	err = u.txManager.WithTx(ctx, func(tx *gorm.DB) error {
		appt, err := u.apptRepo.FindByIDForUpdate(tx, clinicID, req.AppointmentID)
		if err != nil {
			u.log.Warnf("Failed to lock appointment: %+v", err)
			return err
		}
		if appt == nil {
			return ErrAppointmentNotFound
		}
		if !entity.CanApply(entity.ActionCheckout, appt.Status) {
			return &entity.StatusTransitionError{Action: entity.ActionCheckout, CurrentStatus: appt.Status}
		}
		result.previous = appt.Snapshot()

		existing, err := u.ledgerRepo.FindActiveByAppointment(tx, clinicID, appt.ID)
		if err != nil {
			u.log.Warnf("Failed to find active ledger entry: %+v", err)
			return err
		}
		if existing != nil {
			return ErrAlreadyCheckedOut
		}

		packageID := req.CarePackageID
		if packageID == nil {
			packageID = appt.CarePackageID
		}
		if packageID != nil {
			pkg, err := u.useCheckoutSession(tx, identity, clinicID, appt, *packageID, items.Codes(), now)
			if err != nil {
				return err
			}
			result.pkg = pkg
		}

		visitType := appt.VisitType
		if visitType == "" {
			visitType = appt.Type
		}
		ledger := &entity.Ledger{
			ClinicID:      clinicID,
			PatientID:     appt.PatientID,
			AppointmentID: appt.ID,
			ProviderID:    appt.ProviderID,
			VisitDate:     appt.Date,
			VisitType:     visitType,
			BillingCodes:  items,
			Discounts:     discounts,
			AmountPaid:    req.AmountPaid,
			PaymentMethod: req.PaymentMethod,
			Insurance:     converter.InsuranceClaimFromRequest(req.Insurance),
			Signature:     signature,
			Notes:         req.Notes,
			CarePackageID: packageID,
			CreatedBy:     actorRef(identity.UserID),
			UpdatedBy:     actorRef(identity.UserID),
		}
		ledger.Recalculate()
		if err := u.ledgerRepo.Create(tx, ledger); err != nil {
			if repository.IsUniqueViolationOf(err, repository.ConstraintActiveLedger) {
				return ErrAlreadyCheckedOut
			}
			u.log.Warnf("Failed to create ledger entry: %+v", err)
			return err
		}

		if err := appt.Transition(entity.ActionCheckout, entity.TransitionInput{Actor: identity.UserID, Now: now}); err != nil {
			return err
		}
		appt.MirrorLedger(ledger)
		appt.CarePackageID = packageID
		if err := u.apptRepo.Update(tx, appt); err != nil {
			u.log.Warnf("Failed to check out appointment: %+v", err)
			return err
		}

		auditLog, err := u.documentVisit(tx, identity, appt, ledger, req, diagnoses, now)
		if err != nil {
			return err
		}

		result.appt = appt
		result.ledger = ledger
		result.auditLog = auditLog
		return nil
	})
	if err != nil {
		metrics.ObserveCheckout(checkoutOutcome(err), time.Since(start))
		metrics.ObserveTransition(string(entity.ActionCheckout), transitionResult(err))
		return nil, err
	}

	metrics.ObserveCheckout("ok", time.Since(start))
	metrics.ObserveTransition(string(entity.ActionCheckout), "ok")
	metrics.AddCheckoutAmounts(result.ledger.TotalAmount.InexactFloat64(), result.ledger.AmountPaid.InexactFloat64())
	for _, flag := range complianceFlagNames(result.auditLog.ComplianceFlags) {
		metrics.ObserveComplianceFlag(flag)
	}

	db := u.txManager.DB(ctx)
	u.history.Record(ctx, db, service.HistoryEntry{
		Appointment: result.appt,
		ChangeType:  entity.ChangeCheckOut,
		Previous:    result.previous,
		Actor:       actorRef(identity.UserID),
		Notes:       "checked out with ledger " + result.ledger.ID.String(),
	})

	if result.pkg != nil && result.pkg.Status != entity.CarePackageActive {
		if err := detachPackage(db, u.patientRepo, clinicID, result.pkg); err != nil {
			u.log.Warnf("Failed to detach finished care package %s: %+v", result.pkg.ID, err)
		}
	}

	u.log.WithFields(logrus.Fields{
		"appointment_id": result.appt.ID,
		"ledger_id":      result.ledger.ID,
		"total":          result.ledger.TotalAmount.StringFixed(2),
		"status":         result.ledger.PaymentStatus,
	}).Info("Appointment checked out")

	resp := &dto.CheckoutResponse{
		Ledger:      converter.LedgerToResponse(result.ledger),
		Appointment: converter.AppointmentToResponse(result.appt),
		AuditLog:    converter.AuditLogToResponse(result.auditLog),
	}
	if result.pkg != nil {
		resp.CarePackage = converter.CarePackageToResponse(result.pkg)
	}
	return resp, nil
}

// useCheckoutSession consumes one session of the package under a row lock.
func (u *ledgerUsecase) useCheckoutSession(tx *gorm.DB, identity middleware.Identity, clinicID uuid.UUID, appt *entity.Appointment, packageID uuid.UUID, codes []string, now time.Time) (*entity.CarePackage, error) {
	pkg, err := u.carePackageRepo.FindByIDForUpdate(tx, clinicID, packageID)
	if err != nil {
		u.log.Warnf("Failed to lock care package: %+v", err)
		return nil, err
	}
	if pkg == nil || pkg.PatientID != appt.PatientID {
		return nil, ErrCarePackageNotFound
	}
	if pkg.IsExpired(now) {
		return nil, entity.ErrPackageNotActive
	}

	apptID := appt.ID
	err = pkg.UseSession(entity.SessionUse{
		AppointmentID: &apptID,
		CodesUsed:     codes,
		UsedBy:        identity.UserID,
		UsedAt:        now,
		Notes:         "used at checkout",
	})
	if err != nil {
		return nil, err
	}
	if err := u.carePackageRepo.Update(tx, pkg); err != nil {
		u.log.Warnf("Failed to update care package: %+v", err)
		return nil, err
	}
	return pkg, nil
}

// documentVisit writes the visit_documentation record for a checkout. SOAP and
// diagnoses fall back to the appointment's saved note when the request has none.
func (u *ledgerUsecase) documentVisit(tx *gorm.DB, identity middleware.Identity, appt *entity.Appointment, ledger *entity.Ledger, req *dto.CheckoutRequest, diagnoses entity.DiagnosticEntries, now time.Time) (*entity.AuditLog, error) {
	var soap entity.SOAPSections
	if req.SOAP != nil {
		soap = converter.SOAPFromRequest(*req.SOAP)
	}

	if req.SOAP == nil || len(diagnoses) == 0 {
		note, err := u.soapNoteRepo.FindByAppointment(tx, appt.ClinicID, appt.ID)
		if err != nil {
			u.log.Warnf("Failed to find SOAP note: %+v", err)
			return nil, err
		}
		if note != nil {
			if req.SOAP == nil {
				soap = note.Sections
			}
			if len(diagnoses) == 0 {
				diagnoses = note.DiagnosticCodes
			}
		}
	}

	apptID, ledgerID := appt.ID, ledger.ID
	auditLog := &entity.AuditLog{
		ClinicID:        appt.ClinicID,
		Action:          entity.AuditActionVisitDocumentation,
		PatientID:       appt.PatientID,
		AppointmentID:   &apptID,
		LedgerID:        &ledgerID,
		ProviderID:      appt.ProviderID,
		VisitDate:       appt.Date,
		VisitTime:       appt.Time,
		VisitType:       ledger.VisitType,
		BillingCodes:    ledger.BillingCodes,
		DiagnosticCodes: diagnoses,
		SOAP:            soap,
		Signature:       ledger.Signature,
		Payment: entity.PaymentDetails{
			Method:        ledger.PaymentMethod,
			TotalAmount:   ledger.TotalAmount,
			AmountPaid:    ledger.AmountPaid,
			Balance:       ledger.Balance,
			CopayOverride: converter.CopayOverrideFromRequest(req.CopayOverride),
		},
		CreatedBy:     actorRef(identity.UserID),
		VisitLocation: clinicLocation(tx, u.clinicRepo, appt.ClinicID, u.log),
	}
	auditLog.AppendEvent(auditEvent(identity, entity.AuditEventCreated, now))
	auditLog.RecomputeComplianceFlags(now)

	if err := u.auditLogRepo.Create(tx, auditLog); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
		return nil, err
	}
	return auditLog, nil
}

// detachPackage drops a finished package from the patient's active list.
func detachPackage(db *gorm.DB, patientRepo repository.PatientRepository, clinicID uuid.UUID, pkg *entity.CarePackage) error {
	patient, err := patientRepo.FindByID(db, clinicID, pkg.PatientID)
	if err != nil {
		return err
	}
	if patient == nil || !patient.ActivePackages.Contains(pkg.ID) {
		return nil
	}
	patient.ActivePackages = patient.ActivePackages.Without(pkg.ID)
	return patientRepo.Update(db, patient)
}

func checkoutOutcome(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyCheckedOut):
		return "duplicate"
	case errors.Is(err, ErrUnknownBillingCode),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrCarePackageNotFound),
		errors.Is(err, entity.ErrNoSessionsRemaining),
		errors.Is(err, entity.ErrPackageNotActive):
		return "rejected"
	default:
		return transitionResult(err)
	}
}
