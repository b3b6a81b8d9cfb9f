package usecase

import (
	"context"
	"fmt"
	"time"

	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/repository"
	"clinic-management-api/internal/observability/metrics"
	"clinic-management-api/internal/service"

	"github.com/sirupsen/logrus"
)

type ReminderUsecase interface {
	// SendReminders notifies patients of clinics in timeZone about their scheduled
	// appointments on date. It returns the number of reminders delivered.
	SendReminders(ctx context.Context, timeZone, date string) (int, error)
}

type reminderUsecase struct {
	txManager repository.TxManager
	log       *logrus.Logger
	apptRepo  repository.AppointmentRepository
	notifier  service.Notifier
	now       func() time.Time
}

func NewReminderUsecase(
	txManager repository.TxManager,
	log *logrus.Logger,
	apptRepo repository.AppointmentRepository,
	notifier service.Notifier,
) ReminderUsecase {
	return &reminderUsecase{
		txManager: txManager,
		log:       log,
		apptRepo:  apptRepo,
		notifier:  notifier,
		now:       time.Now,
	}
}

func (u *reminderUsecase) SendReminders(ctx context.Context, timeZone, date string) (int, error) {
	if _, err := parseDate(date); err != nil {
		return 0, err
	}

	db := u.txManager.DB(ctx)
	appts, err := u.apptRepo.FindForReminder(db, timeZone, date)
	if err != nil {
		u.log.Warnf("Failed to find appointments for reminder: %+v", err)
		return 0, err
	}

	channel := u.notifier.Channel()
	sent := 0
	for i := range appts {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		appt := &appts[i]
		if appt.Patient == nil || appt.Patient.Phone == "" {
			metrics.ObserveReminder(channel, "skipped")
			continue
		}

		sid, err := u.notifier.Send(ctx, appt.Patient.Phone, reminderText(appt))
		if err != nil {
			metrics.ObserveReminder(channel, "failed")
			u.log.WithField("appointment_id", appt.ID).Warnf("Failed to send reminder: %+v", err)
			continue
		}
		if err := u.apptRepo.MarkReminderSent(db, appt.ID, u.now()); err != nil {
			u.log.Warnf("Failed to mark reminder sent: %+v", err)
		}
		metrics.ObserveReminder(channel, "sent")
		u.log.WithFields(logrus.Fields{
			"appointment_id": appt.ID,
			"message_id":     sid,
		}).Debug("Reminder sent")
		sent++
	}

	return sent, nil
}

func reminderText(appt *entity.Appointment) string {
	return fmt.Sprintf("Hi %s, this is a reminder of your appointment on %s at %s.",
		appt.Patient.FirstName, appt.Date, appt.Time)
}
