package usecase

import (
	"context"
	"errors"
	"sort"
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
	ErrAppointmentNotFound     = errors.New("appointment not found")
	ErrSlotConflict            = errors.New("appointment slot is already booked")
	ErrOutsideBusinessHours    = errors.New("appointment time is outside clinic business hours")
	ErrProviderNotFound        = errors.New("provider not found")
	ErrAppointmentClosed       = errors.New("appointment can no longer be modified")
	ErrCheckoutRequiresBilling = errors.New("checked-out status can only be reached through checkout")
	ErrInvalidMonth            = errors.New("invalid year or month")
)

// Slot conflict detection layers reported in metrics.
const (
	slotLayerLock  = "lock"
	slotLayerQuery = "query"
	slotLayerIndex = "index"
)

type AppointmentUsecase interface {
	Create(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error)
	List(ctx context.Context, req *dto.AppointmentListRequest) (*dto.AppointmentListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req *dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CheckIn(ctx context.Context, id uuid.UUID, req *dto.TransitionRequest) (*dto.AppointmentResponse, error)
	Uncheck(ctx context.Context, id uuid.UUID, req *dto.TransitionRequest) (*dto.AppointmentResponse, error)
	Start(ctx context.Context, id uuid.UUID, req *dto.TransitionRequest) (*dto.AppointmentResponse, error)
	Cancel(ctx context.Context, id uuid.UUID, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error)
	MarkNoShow(ctx context.Context, id uuid.UUID, req *dto.TransitionRequest) (*dto.AppointmentResponse, error)
	Reschedule(ctx context.Context, id uuid.UUID, req *dto.RescheduleRequest) (*dto.AppointmentResponse, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req *dto.UpdateStatusRequest) (*dto.AppointmentResponse, error)
	History(ctx context.Context, id uuid.UUID) ([]dto.AppointmentHistoryResponse, error)
	Calendar(ctx context.Context, year, month int) (*dto.CalendarResponse, error)
	Daily(ctx context.Context, date string) (*dto.DailyAppointmentsResponse, error)
	// SweepNoShows marks scheduled appointments of clinics in timeZone dated before
	// the given date as no-show.
	SweepNoShows(ctx context.Context, timeZone, before string, limit int) (int, error)
}

type appointmentUsecase struct {
	txManager       repository.TxManager
	log             *logrus.Logger
	apptRepo        repository.AppointmentRepository
	historyRepo     repository.AppointmentHistoryRepository
	patientRepo     repository.PatientRepository
	userRepo        repository.UserRepository
	clinicRepo      repository.ClinicRepository
	carePackageRepo repository.CarePackageRepository
	history         service.HistoryService
	slotLocker      service.SlotLocker
	now             func() time.Time
}

func NewAppointmentUsecase(
	txManager repository.TxManager,
	log *logrus.Logger,
	apptRepo repository.AppointmentRepository,
	historyRepo repository.AppointmentHistoryRepository,
	patientRepo repository.PatientRepository,
	userRepo repository.UserRepository,
	clinicRepo repository.ClinicRepository,
	carePackageRepo repository.CarePackageRepository,
	history service.HistoryService,
	slotLocker service.SlotLocker,
) AppointmentUsecase {
	return &appointmentUsecase{
		txManager:       txManager,
		log:             log,
		apptRepo:        apptRepo,
		historyRepo:     historyRepo,
		patientRepo:     patientRepo,
		userRepo:        userRepo,
		clinicRepo:      clinicRepo,
		carePackageRepo: carePackageRepo,
		history:         history,
		slotLocker:      slotLocker,
		now:             time.Now,
	}
}

func (u *appointmentUsecase) Create(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
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
	if patient == nil || patient.IsDeleted() {
		return nil, ErrPatientNotFound
	}

	if req.ProviderID != nil {
		if err := u.checkProvider(db, clinicID, *req.ProviderID); err != nil {
			return nil, err
		}
	}
	if req.CarePackageID != nil {
		if err := u.checkCarePackage(db, clinicID, req.PatientID, *req.CarePackageID); err != nil {
			return nil, err
		}
	}
	if err := u.checkBusinessHours(db, clinicID, req.Date, req.Time); err != nil {
		return nil, err
	}

	now := u.now()
	duration := req.Duration
	if duration == 0 {
		duration = entity.DefaultDuration
	}

	appt := &entity.Appointment{
		ClinicID:      clinicID,
		PatientID:     req.PatientID,
		ProviderID:    req.ProviderID,
		Date:          req.Date,
		Time:          req.Time,
		Duration:      duration,
		Type:          req.Type,
		VisitType:     req.VisitType,
		Status:        entity.StatusScheduled,
		Reason:        req.Reason,
		Notes:         req.Notes,
		CarePackageID: req.CarePackageID,
		Alerts:        alertsFromRequest(req.Alerts, identity.UserID, now),
		CreatedBy:     actorRef(identity.UserID),
	}
	appt.Touch(identity.UserID, now)

	notes := ""
	if req.IsWalkIn {
		appt.CheckInWalkIn(identity.UserID, now)
		notes = "walk-in"
	}

	release, err := u.lockSlot(ctx, clinicID, req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := u.ensureSlotFree(db, clinicID, req.Date, req.Time, nil); err != nil {
		return nil, err
	}

	if err := u.apptRepo.Create(db, appt); err != nil {
		if repository.IsUniqueViolationOf(err, repository.ConstraintAppointmentSlot) {
			metrics.ObserveSlotConflict(slotLayerIndex)
			return nil, ErrSlotConflict
		}
		u.log.Warnf("Failed to create appointment: %+v", err)
		return nil, err
	}

	u.history.Record(ctx, db, service.HistoryEntry{
		Appointment: appt,
		ChangeType:  entity.ChangeCreate,
		Actor:       actorRef(identity.UserID),
		Notes:       notes,
	})

	appt.Patient = patient
	return converter.AppointmentToResponse(appt), nil
}

func (u *appointmentUsecase) Get(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error) {
	_, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	appt, err := u.apptRepo.FindByID(u.txManager.DB(ctx), clinicID, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment: %+v", err)
		return nil, err
	}
	if appt == nil {
		return nil, ErrAppointmentNotFound
	}

	return converter.AppointmentToResponse(appt), nil
}

func (u *appointmentUsecase) List(ctx context.Context, req *dto.AppointmentListRequest) (*dto.AppointmentListResponse, error) {
	_, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	page, limit := entity.Normalize(req.Page, req.Limit)
	filter := entity.AppointmentFilter{
		PatientID:  req.PatientID,
		ProviderID: req.ProviderID,
		Status:     entity.AppointmentStatus(req.Status),
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		Page:       page,
		Limit:      limit,
	}

	appts, total, err := u.apptRepo.FindAll(u.txManager.DB(ctx), clinicID, filter)
	if err != nil {
		u.log.Warnf("Failed to list appointments: %+v", err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appts),
		Pagination:   pagination(page, limit, total),
	}, nil
}

func (u *appointmentUsecase) Update(ctx context.Context, id uuid.UUID, req *dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error) {
	identity, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	db := u.txManager.DB(ctx)

	current, err := u.apptRepo.FindByID(db, clinicID, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment: %+v", err)
		return nil, err
	}
	if current == nil {
		return nil, ErrAppointmentNotFound
	}

	targetDate, targetTime := current.Date, current.Time
	if req.Date != "" {
		targetDate = req.Date
	}
	if req.Time != "" {
		targetTime = req.Time
	}
	slotChanged := targetDate != current.Date || targetTime != current.Time

	if slotChanged {
		release, err := u.lockSlot(ctx, clinicID, targetDate, targetTime)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	var (
		appt     *entity.Appointment
		previous entity.JSON
		details  *entity.RescheduleDetails
	)
	err = u.txManager.WithTx(ctx, func(tx *gorm.DB) error {
		found, err := u.apptRepo.FindByIDForUpdate(tx, clinicID, id)
		if err != nil {
			u.log.Warnf("Failed to lock appointment: %+v", err)
			return err
		}
		if found == nil {
			return ErrAppointmentNotFound
		}
		if found.Status.IsTerminal() {
			return ErrAppointmentClosed
		}
		previous = found.Snapshot()

		if slotChanged {
			if !entity.CanApply(entity.ActionReschedule, found.Status) {
				return &entity.StatusTransitionError{Action: entity.ActionReschedule, CurrentStatus: found.Status}
			}
			if err := u.checkBusinessHours(tx, clinicID, targetDate, targetTime); err != nil {
				return err
			}
			if err := u.ensureSlotFree(tx, clinicID, targetDate, targetTime, &found.ID); err != nil {
				return err
			}
			details = &entity.RescheduleDetails{
				Reason:       "details updated",
				InitiatedBy:  "clinic",
				OriginalDate: found.Date,
				OriginalTime: found.Time,
			}
			found.Date, found.Time = targetDate, targetTime
			found.ReminderSentAt = nil
		}

		if req.ProviderID != nil {
			if err := u.checkProvider(tx, clinicID, *req.ProviderID); err != nil {
				return err
			}
			found.ProviderID = req.ProviderID
		}
		if req.CarePackageID != nil {
			if err := u.checkCarePackage(tx, clinicID, found.PatientID, *req.CarePackageID); err != nil {
				return err
			}
			found.CarePackageID = req.CarePackageID
		}
		if req.Duration != 0 {
			found.Duration = req.Duration
		}
		if req.Type != "" {
			found.Type = req.Type
		}
		if req.VisitType != "" {
			found.VisitType = req.VisitType
		}
		if req.Reason != nil {
			found.Reason = *req.Reason
		}
		if req.Notes != nil {
			found.Notes = *req.Notes
		}
		if req.Alerts != nil {
			found.Alerts = alertsFromRequest(req.Alerts, identity.UserID, u.now())
		}
		found.Touch(identity.UserID, u.now())

		if err := u.apptRepo.Update(tx, found); err != nil {
			if repository.IsUniqueViolationOf(err, repository.ConstraintAppointmentSlot) {
				metrics.ObserveSlotConflict(slotLayerIndex)
				return ErrSlotConflict
			}
			u.log.Warnf("Failed to update appointment: %+v", err)
			return err
		}
		appt = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	changeType := entity.ChangeModify
	if slotChanged {
		changeType = entity.ChangeReschedule
	}
	u.history.Record(ctx, db, service.HistoryEntry{
		Appointment:       appt,
		ChangeType:        changeType,
		Previous:          previous,
		Actor:             actorRef(identity.UserID),
		RescheduleDetails: details,
	})

	return converter.AppointmentToResponse(appt), nil
}

func (u *appointmentUsecase) Delete(ctx context.Context, id uuid.UUID) error {
	identity, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return err
	}

	var deleted *entity.Appointment
	err = u.txManager.WithTx(ctx, func(tx *gorm.DB) error {
		found, err := u.apptRepo.FindByIDForUpdate(tx, clinicID, id)
		if err != nil {
			u.log.Warnf("Failed to lock appointment: %+v", err)
			return err
		}
		if found == nil {
			return ErrAppointmentNotFound
		}
		if !entity.CanApply(entity.ActionDelete, found.Status) {
			return &entity.StatusTransitionError{Action: entity.ActionDelete, CurrentStatus: found.Status}
		}
		if err := u.apptRepo.Delete(tx, clinicID, id); err != nil {
			u.log.Warnf("Failed to delete appointment: %+v", err)
			return err
		}
		deleted = found
		return nil
	})
	if err != nil {
		return err
	}

	u.history.Record(ctx, u.txManager.DB(ctx), service.HistoryEntry{
		Appointment: deleted,
		ChangeType:  entity.ChangeModify,
		Previous:    deleted.Snapshot(),
		Actor:       actorRef(identity.UserID),
		Notes:       "appointment deleted",
	})
	return nil
}

func (u *appointmentUsecase) CheckIn(ctx context.Context, id uuid.UUID, req *dto.TransitionRequest) (*dto.AppointmentResponse, error) {
	return u.applyTransition(ctx, id, entity.ActionCheckIn, transitionOptions{notes: req.Notes})
}

func (u *appointmentUsecase) Uncheck(ctx context.Context, id uuid.UUID, req *dto.TransitionRequest) (*dto.AppointmentResponse, error) {
	return u.applyTransition(ctx, id, entity.ActionUncheck, transitionOptions{notes: req.Notes})
}

func (u *appointmentUsecase) Start(ctx context.Context, id uuid.UUID, req *dto.TransitionRequest) (*dto.AppointmentResponse, error) {
	return u.applyTransition(ctx, id, entity.ActionStart, transitionOptions{notes: req.Notes})
}

func (u *appointmentUsecase) MarkNoShow(ctx context.Context, id uuid.UUID, req *dto.TransitionRequest) (*dto.AppointmentResponse, error) {
	return u.applyTransition(ctx, id, entity.ActionNoShow, transitionOptions{notes: req.Notes})
}

func (u *appointmentUsecase) Cancel(ctx context.Context, id uuid.UUID, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error) {
	return u.applyTransition(ctx, id, entity.ActionCancel, transitionOptions{
		reason: req.Reason,
		cancellation: &entity.CancellationDetails{
			Reason:       req.Reason,
			RefundIssued: req.RefundIssued,
			RefundAmount: req.RefundAmount,
		},
	})
}

// UpdateStatus maps the requested status onto the guarded action that reaches it.
func (u *appointmentUsecase) UpdateStatus(ctx context.Context, id uuid.UUID, req *dto.UpdateStatusRequest) (*dto.AppointmentResponse, error) {
	action, ok := entity.ActionForStatus(entity.AppointmentStatus(req.Status))
	if !ok {
		return nil, ErrCheckoutRequiresBilling
	}

	opts := transitionOptions{reason: req.Reason, notes: "status set to " + req.Status}
	if action == entity.ActionCancel {
		opts.cancellation = &entity.CancellationDetails{Reason: req.Reason}
	}
	return u.applyTransition(ctx, id, action, opts)
}

func (u *appointmentUsecase) Reschedule(ctx context.Context, id uuid.UUID, req *dto.RescheduleRequest) (*dto.AppointmentResponse, error) {
	identity, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	db := u.txManager.DB(ctx)

	if err := u.checkBusinessHours(db, clinicID, req.Date, req.Time); err != nil {
		return nil, err
	}

	release, err := u.lockSlot(ctx, clinicID, req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		appt     *entity.Appointment
		previous entity.JSON
		details  *entity.RescheduleDetails
	)
	err = u.txManager.WithTx(ctx, func(tx *gorm.DB) error {
		found, err := u.apptRepo.FindByIDForUpdate(tx, clinicID, id)
		if err != nil {
			u.log.Warnf("Failed to lock appointment: %+v", err)
			return err
		}
		if found == nil {
			return ErrAppointmentNotFound
		}
		previous = found.Snapshot()
		details = &entity.RescheduleDetails{
			Reason:       req.Reason,
			InitiatedBy:  req.InitiatedBy,
			OriginalDate: found.Date,
			OriginalTime: found.Time,
		}

		if err := found.Transition(entity.ActionReschedule, entity.TransitionInput{Actor: identity.UserID, Now: u.now()}); err != nil {
			return err
		}
		if err := u.ensureSlotFree(tx, clinicID, req.Date, req.Time, &found.ID); err != nil {
			return err
		}
		found.Date, found.Time = req.Date, req.Time
		found.ReminderSentAt = nil

		if err := u.apptRepo.Update(tx, found); err != nil {
			if repository.IsUniqueViolationOf(err, repository.ConstraintAppointmentSlot) {
				metrics.ObserveSlotConflict(slotLayerIndex)
				return ErrSlotConflict
			}
			u.log.Warnf("Failed to reschedule appointment: %+v", err)
			return err
		}
		appt = found
		return nil
	})
	if err != nil {
		metrics.ObserveTransition(string(entity.ActionReschedule), transitionResult(err))
		return nil, err
	}
	metrics.ObserveTransition(string(entity.ActionReschedule), "ok")

	u.history.Record(ctx, db, service.HistoryEntry{
		Appointment:       appt,
		ChangeType:        entity.ChangeReschedule,
		Previous:          previous,
		Actor:             actorRef(identity.UserID),
		RescheduleDetails: details,
	})

	return converter.AppointmentToResponse(appt), nil
}

func (u *appointmentUsecase) History(ctx context.Context, id uuid.UUID) ([]dto.AppointmentHistoryResponse, error) {
	_, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	db := u.txManager.DB(ctx)

	rows, err := u.historyRepo.FindByAppointment(db, clinicID, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment history: %+v", err)
		return nil, err
	}

	// Deleted appointments keep their trail. Only an unknown id is a 404.
	if len(rows) == 0 {
		appt, err := u.apptRepo.FindByID(db, clinicID, id)
		if err != nil {
			u.log.Warnf("Failed to find appointment: %+v", err)
			return nil, err
		}
		if appt == nil {
			return nil, ErrAppointmentNotFound
		}
	}

	return converter.HistoryToResponses(rows), nil
}

func (u *appointmentUsecase) Calendar(ctx context.Context, year, month int) (*dto.CalendarResponse, error) {
	_, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if year < 1900 || year > 2999 || month < 1 || month > 12 {
		return nil, ErrInvalidMonth
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	rows, err := u.apptRepo.CountByStatus(u.txManager.DB(ctx), clinicID, first.Format(entity.DateLayout), last.Format(entity.DateLayout))
	if err != nil {
		u.log.Warnf("Failed to count appointments by status: %+v", err)
		return nil, err
	}

	byDate := map[string]*dto.CalendarDay{}
	for _, row := range rows {
		day, ok := byDate[row.Date]
		if !ok {
			day = &dto.CalendarDay{Date: row.Date, Counts: map[string]int64{}}
			byDate[row.Date] = day
		}
		day.Counts[string(row.Status)] += row.Count
		day.Total += row.Count
	}

	days := make([]dto.CalendarDay, 0, len(byDate))
	for _, day := range byDate {
		days = append(days, *day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	return &dto.CalendarResponse{Year: year, Month: month, Days: days}, nil
}

func (u *appointmentUsecase) Daily(ctx context.Context, date string) (*dto.DailyAppointmentsResponse, error) {
	_, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := parseDate(date); err != nil {
		return nil, err
	}

	appts, err := u.apptRepo.FindByDate(u.txManager.DB(ctx), clinicID, date)
	if err != nil {
		u.log.Warnf("Failed to find appointments by date: %+v", err)
		return nil, err
	}

	return &dto.DailyAppointmentsResponse{
		Date:         date,
		Total:        len(appts),
		Appointments: converter.AppointmentsToResponses(appts),
	}, nil
}

func (u *appointmentUsecase) SweepNoShows(ctx context.Context, timeZone, before string, limit int) (int, error) {
	candidates, err := u.apptRepo.FindOverdueScheduled(u.txManager.DB(ctx), timeZone, before, limit)
	if err != nil {
		u.log.Warnf("Failed to find overdue appointments: %+v", err)
		return 0, err
	}

	marked := 0
	for i := range candidates {
		candidate := candidates[i]

		var (
			appt     *entity.Appointment
			previous entity.JSON
		)
		err := u.txManager.WithTx(ctx, func(tx *gorm.DB) error {
			found, err := u.apptRepo.FindByIDForUpdate(tx, candidate.ClinicID, candidate.ID)
			if err != nil {
				return err
			}
			// Moved on since the scan.
			if found == nil || found.Status != entity.StatusScheduled {
				return nil
			}
			previous = found.Snapshot()
			if err := found.Transition(entity.ActionNoShow, entity.TransitionInput{Now: u.now()}); err != nil {
				return err
			}
			if err := u.apptRepo.Update(tx, found); err != nil {
				return err
			}
			appt = found
			return nil
		})
		if err != nil {
			u.log.Warnf("Failed to mark appointment %s as no-show: %+v", candidate.ID, err)
			continue
		}
		if appt == nil {
			continue
		}

		marked++
		metrics.ObserveTransition(string(entity.ActionNoShow), "ok")
		u.history.Record(ctx, u.txManager.DB(ctx), service.HistoryEntry{
			Appointment: appt,
			ChangeType:  entity.ChangeNoShow,
			Previous:    previous,
			Notes:       "marked no-show by overnight sweep",
		})
	}

	return marked, nil
}

type transitionOptions struct {
	reason       string
	notes        string
	cancellation *entity.CancellationDetails
}

// applyTransition runs one guarded action under a row lock and records history after commit.
func (u *appointmentUsecase) applyTransition(ctx context.Context, id uuid.UUID, action entity.Action, opts transitionOptions) (*dto.AppointmentResponse, error) {
	identity, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var (
		appt     *entity.Appointment
		previous entity.JSON
	)
	err = u.txManager.WithTx(ctx, func(tx *gorm.DB) error {
		found, err := u.apptRepo.FindByIDForUpdate(tx, clinicID, id)
		if err != nil {
			u.log.Warnf("Failed to lock appointment: %+v", err)
			return err
		}
		if found == nil {
			return ErrAppointmentNotFound
		}
		previous = found.Snapshot()

		in := entity.TransitionInput{Actor: identity.UserID, Now: u.now(), Reason: opts.reason}
		if err := found.Transition(action, in); err != nil {
			return err
		}
		if err := u.apptRepo.Update(tx, found); err != nil {
			u.log.Warnf("Failed to %s appointment: %+v", action, err)
			return err
		}
		appt = found
		return nil
	})
	if err != nil {
		metrics.ObserveTransition(string(action), transitionResult(err))
		return nil, err
	}
	metrics.ObserveTransition(string(action), "ok")

	u.history.Record(ctx, u.txManager.DB(ctx), service.HistoryEntry{
		Appointment:         appt,
		ChangeType:          entity.ChangeTypeFor(action),
		Previous:            previous,
		Actor:               actorRef(identity.UserID),
		CancellationDetails: opts.cancellation,
		Notes:               opts.notes,
	})

	return converter.AppointmentToResponse(appt), nil
}

func (u *appointmentUsecase) lockSlot(ctx context.Context, clinicID uuid.UUID, date, clock string) (func(), error) {
	release, err := u.slotLocker.Acquire(ctx, clinicID, date, clock)
	if err != nil {
		if errors.Is(err, service.ErrSlotBusy) {
			metrics.ObserveSlotConflict(slotLayerLock)
			return nil, ErrSlotConflict
		}
		u.log.Warnf("Failed to acquire slot lock: %+v", err)
		return nil, err
	}
	return release, nil
}

func (u *appointmentUsecase) ensureSlotFree(db *gorm.DB, clinicID uuid.UUID, date, clock string, exclude *uuid.UUID) error {
	taken, err := u.apptRepo.ExistsInSlot(db, clinicID, date, clock, exclude)
	if err != nil {
		u.log.Warnf("Failed to check appointment slot: %+v", err)
		return err
	}
	if taken {
		metrics.ObserveSlotConflict(slotLayerQuery)
		return ErrSlotConflict
	}
	return nil
}

func (u *appointmentUsecase) checkBusinessHours(db *gorm.DB, clinicID uuid.UUID, date, clock string) error {
	day, err := parseDate(date)
	if err != nil {
		return err
	}

	clinic, err := u.clinicRepo.FindByID(db, clinicID)
	if err != nil {
		u.log.Warnf("Failed to find clinic: %+v", err)
		return err
	}
	if clinic == nil {
		return ErrClinicNotFound
	}
	if !clinic.BusinessHours.Allows(day, clock) {
		return ErrOutsideBusinessHours
	}
	return nil
}

func (u *appointmentUsecase) checkProvider(db *gorm.DB, clinicID, providerID uuid.UUID) error {
	provider, err := u.userRepo.FindByIDInClinic(db, clinicID, providerID)
	if err != nil {
		u.log.Warnf("Failed to find provider: %+v", err)
		return err
	}
	if provider == nil || !provider.IsActive {
		return ErrProviderNotFound
	}
	if provider.Role != entity.RoleDoctor && provider.Role != entity.RoleAdmin {
		return ErrProviderNotFound
	}
	return nil
}

func (u *appointmentUsecase) checkCarePackage(db *gorm.DB, clinicID, patientID, packageID uuid.UUID) error {
	pkg, err := u.carePackageRepo.FindByID(db, clinicID, packageID)
	if err != nil {
		u.log.Warnf("Failed to find care package: %+v", err)
		return err
	}
	if pkg == nil || pkg.PatientID != patientID {
		return ErrCarePackageNotFound
	}
	if pkg.Status != entity.CarePackageActive {
		return entity.ErrPackageNotActive
	}
	return nil
}

func alertsFromRequest(reqs []dto.AppointmentAlertRequest, actor uuid.UUID, now time.Time) entity.AppointmentAlerts {
	alerts := make(entity.AppointmentAlerts, 0, len(reqs))
	for _, r := range reqs {
		alerts = append(alerts, entity.AppointmentAlert{
			Type:     r.Type,
			Message:  r.Message,
			Priority: r.Priority,
			AddedBy:  actor,
			AddedAt:  now,
		})
	}
	return alerts
}

// transitionResult labels a failed transition for metrics.
func transitionResult(err error) string {
	var guard *entity.StatusTransitionError
	switch {
	case errors.As(err, &guard):
		return "rejected"
	case errors.Is(err, ErrAppointmentNotFound):
		return "not_found"
	case errors.Is(err, ErrSlotConflict):
		return "conflict"
	default:
		return "error"
	}
}
