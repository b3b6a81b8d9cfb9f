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
	"clinic-management-api/internal/observability/metrics"
	"clinic-management-api/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrSOAPNoteNotFound = errors.New("SOAP note not found")
	ErrNoteSigned       = errors.New("SOAP note is signed and can no longer be changed")
	ErrNoteEmpty        = errors.New("SOAP note has no content to sign")
	ErrNoteConflict     = errors.New("SOAP note was saved concurrently, try again")
)

type SOAPNoteUsecase interface {
	Save(ctx context.Context, appointmentID uuid.UUID, req *dto.SaveSOAPNoteRequest) (*dto.SOAPNoteResponse, error)
	Get(ctx context.Context, appointmentID uuid.UUID) (*dto.SOAPNoteResponse, error)
	Sign(ctx context.Context, appointmentID uuid.UUID, req *dto.SignSOAPNoteRequest) (*dto.SOAPNoteResponse, error)
}

type soapNoteUsecase struct {
	txManager    repository.TxManager
	log          *logrus.Logger
	soapNoteRepo repository.SOAPNoteRepository
	apptRepo     repository.AppointmentRepository
	catalog      service.ReferenceCatalog
	history      service.HistoryService
	now          func() time.Time
}

func NewSOAPNoteUsecase(
	txManager repository.TxManager,
	log *logrus.Logger,
	soapNoteRepo repository.SOAPNoteRepository,
	apptRepo repository.AppointmentRepository,
	catalog service.ReferenceCatalog,
	history service.HistoryService,
) SOAPNoteUsecase {
	return &soapNoteUsecase{
		txManager:    txManager,
		log:          log,
		soapNoteRepo: soapNoteRepo,
		apptRepo:     apptRepo,
		catalog:      catalog,
		history:      history,
		now:          time.Now,
	}
}

// Save creates the note for an appointment or replaces the sections of an unsigned one.
func (u *soapNoteUsecase) Save(ctx context.Context, appointmentID uuid.UUID, req *dto.SaveSOAPNoteRequest) (*dto.SOAPNoteResponse, error) {
	identity, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	sections := entity.SOAPSections{
		Subjective: req.Subjective,
		Objective:  req.Objective,
		Assessment: req.Assessment,
		Plan:       req.Plan,
	}
	diagnoses := u.describeDiagnoses(converter.DiagnosticCodesFromRequest(req.DiagnosticCodes))

	var note *entity.SOAPNote
	err = u.txManager.WithTx(ctx, func(tx *gorm.DB) error {
		appt, err := u.apptRepo.FindByID(tx, clinicID, appointmentID)
		if err != nil {
			u.log.Warnf("Failed to find appointment: %+v", err)
			return err
		}
		if appt == nil {
			return ErrAppointmentNotFound
		}
		if appt.Status == entity.StatusCancelled || appt.Status == entity.StatusNoShow {
			return ErrAppointmentClosed
		}

		found, err := u.soapNoteRepo.FindByAppointment(tx, clinicID, appointmentID)
		if err != nil {
			u.log.Warnf("Failed to find SOAP note: %+v", err)
			return err
		}

		if found == nil {
			note = &entity.SOAPNote{
				ClinicID:        clinicID,
				AppointmentID:   appt.ID,
				PatientID:       appt.PatientID,
				ProviderID:      appt.ProviderID,
				Sections:        sections,
				DiagnosticCodes: diagnoses,
				CreatedBy:       actorRef(identity.UserID),
				UpdatedBy:       actorRef(identity.UserID),
			}
			if err := u.soapNoteRepo.Create(tx, note); err != nil {
				if repository.IsUniqueViolationOf(err, repository.ConstraintSOAPAppointment) {
					return ErrNoteConflict
				}
				u.log.Warnf("Failed to create SOAP note: %+v", err)
				return err
			}
			return nil
		}

		if found.IsSigned {
			return ErrNoteSigned
		}
		found.Sections = sections
		found.DiagnosticCodes = diagnoses
		found.UpdatedBy = actorRef(identity.UserID)
		if err := u.soapNoteRepo.Update(tx, found); err != nil {
			if errors.Is(err, repository.ErrRecordLocked) {
				return ErrNoteSigned
			}
			u.log.Warnf("Failed to update SOAP note: %+v", err)
			return err
		}
		note = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return converter.SOAPNoteToResponse(note), nil
}

func (u *soapNoteUsecase) Get(ctx context.Context, appointmentID uuid.UUID) (*dto.SOAPNoteResponse, error) {
	_, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	note, err := u.soapNoteRepo.FindByAppointment(u.txManager.DB(ctx), clinicID, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find SOAP note: %+v", err)
		return nil, err
	}
	if note == nil {
		return nil, ErrSOAPNoteNotFound
	}

	return converter.SOAPNoteToResponse(note), nil
}

// Sign freezes the note. A checked-in appointment moves to in-progress with it.
func (u *soapNoteUsecase) Sign(ctx context.Context, appointmentID uuid.UUID, req *dto.SignSOAPNoteRequest) (*dto.SOAPNoteResponse, error) {
	identity, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var (
		note     *entity.SOAPNote
		started  *entity.Appointment
		previous entity.JSON
	)
	err = u.txManager.WithTx(ctx, func(tx *gorm.DB) error {
		appt, err := u.apptRepo.FindByIDForUpdate(tx, clinicID, appointmentID)
		if err != nil {
			u.log.Warnf("Failed to lock appointment: %+v", err)
			return err
		}
		if appt == nil {
			return ErrAppointmentNotFound
		}

		found, err := u.soapNoteRepo.FindByAppointment(tx, clinicID, appointmentID)
		if err != nil {
			u.log.Warnf("Failed to find SOAP note: %+v", err)
			return err
		}
		if found == nil {
			return ErrSOAPNoteNotFound
		}
		if found.IsSigned {
			return ErrNoteSigned
		}
		if found.Sections.EmptySections() == 4 {
			return ErrNoteEmpty
		}

		now := u.now()
		if req != nil && req.Signature.Data != "" {
			found.Signature = converter.SignatureFromRequest(req.Signature, identity.IP, now)
		}
		found.Sign(identity.UserID, now)
		found.UpdatedBy = actorRef(identity.UserID)
		if err := u.soapNoteRepo.Update(tx, found); err != nil {
			if errors.Is(err, repository.ErrRecordLocked) {
				return ErrNoteSigned
			}
			u.log.Warnf("Failed to sign SOAP note: %+v", err)
			return err
		}
		note = found

		if appt.Status != entity.StatusCheckedIn {
			return nil
		}
		previous = appt.Snapshot()
		if err := appt.Transition(entity.ActionStart, entity.TransitionInput{Actor: identity.UserID, Now: now}); err != nil {
			return err
		}
		if err := u.apptRepo.Update(tx, appt); err != nil {
			u.log.Warnf("Failed to start appointment: %+v", err)
			return err
		}
		started = appt
		return nil
	})
	if err != nil {
		return nil, err
	}

	if started != nil {
		metrics.ObserveTransition(string(entity.ActionStart), "ok")
		u.history.Record(ctx, u.txManager.DB(ctx), service.HistoryEntry{
			Appointment: started,
			ChangeType:  entity.ChangeTypeFor(entity.ActionStart),
			Previous:    previous,
			Actor:       actorRef(identity.UserID),
			Notes:       "SOAP note signed",
		})
	}

	return converter.SOAPNoteToResponse(note), nil
}

// describeDiagnoses fills missing descriptions from the catalog.
func (u *soapNoteUsecase) describeDiagnoses(entries entity.DiagnosticEntries) entity.DiagnosticEntries {
	for i := range entries {
		entries[i].Code = strings.ToUpper(strings.TrimSpace(entries[i].Code))
		if entries[i].Description != "" {
			continue
		}
		if ref, ok := u.catalog.DiagnosticCode(entries[i].Code); ok {
			entries[i].Description = ref.Description
		}
	}
	return entries
}
