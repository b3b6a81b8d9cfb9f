package scheduler

import (
	"context"
	"fmt"
	"time"

	"clinic-management-api/config"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/observability/metrics"
	"clinic-management-api/internal/usecase"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	JobNoShowSweep = "no_show_sweep"
	JobReminders   = "appointment_reminders"

	sweepBatchSize = 500
	jobTimeout     = 10 * time.Minute
)

// Scheduler runs the clinic's periodic maintenance jobs.
type Scheduler struct {
	cron        *cron.Cron
	log         *logrus.Logger
	cfg         config.SchedulerConfig
	clinic      usecase.ClinicUsecase
	appointment usecase.AppointmentUsecase
	reminder    usecase.ReminderUsecase
	now         func() time.Time
}

func New(cfg config.SchedulerConfig, log *logrus.Logger, clinic usecase.ClinicUsecase, appointment usecase.AppointmentUsecase, reminder usecase.ReminderUsecase) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		log:         log,
		cfg:         cfg,
		clinic:      clinic,
		appointment: appointment,
		reminder:    reminder,
		now:         time.Now,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.NoShowSpec, func() { s.run(JobNoShowSweep, s.SweepNoShows) }); err != nil {
		return fmt.Errorf("schedule %s: %w", JobNoShowSweep, err)
	}
	if _, err := s.cron.AddFunc(s.cfg.ReminderSpec, func() { s.run(JobReminders, s.SendReminders) }); err != nil {
		return fmt.Errorf("schedule %s: %w", JobReminders, err)
	}

	s.cron.Start()
	s.log.WithFields(logrus.Fields{
		"no_show_spec":  s.cfg.NoShowSpec,
		"reminder_spec": s.cfg.ReminderSpec,
	}).Info("Scheduler started")
	return nil
}

// Stop waits for running jobs or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("Scheduler stopped before running jobs finished")
	}
}

// SweepNoShows marks every still-scheduled appointment from before the clinic's
// local today as no-show.
func (s *Scheduler) SweepNoShows(ctx context.Context) (int, error) {
	zones, err := s.clinic.TimeZones(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, zone := range zones {
		today := s.localNow(zone).Format(entity.DateLayout)
		marked, err := s.sweepZone(ctx, zone, today)
		total += marked
		if err != nil {
			return total, fmt.Errorf("sweep %s: %w", zone, err)
		}
	}
	return total, nil
}

func (s *Scheduler) sweepZone(ctx context.Context, zone, today string) (int, error) {
	total := 0
	for {
		marked, err := s.appointment.SweepNoShows(ctx, zone, today, sweepBatchSize)
		total += marked
		if err != nil {
			return total, err
		}
		// Rows that fail to update come back in the next scan.
		if marked < sweepBatchSize {
			return total, nil
		}
	}
}

// SendReminders notifies patients booked for the clinic's local tomorrow.
func (s *Scheduler) SendReminders(ctx context.Context) (int, error) {
	zones, err := s.clinic.TimeZones(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, zone := range zones {
		tomorrow := s.localNow(zone).AddDate(0, 0, 1).Format(entity.DateLayout)
		sent, err := s.reminder.SendReminders(ctx, zone, tomorrow)
		total += sent
		if err != nil {
			return total, fmt.Errorf("reminders %s: %w", zone, err)
		}
	}
	return total, nil
}

func (s *Scheduler) localNow(zone string) time.Time {
	return s.now().In(entity.LoadLocation(zone))
}

func (s *Scheduler) run(job string, fn func(ctx context.Context) (int, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	count, err := fn(ctx)
	entry := s.log.WithFields(logrus.Fields{
		"job":      job,
		"count":    count,
		"duration": time.Since(start).String(),
	})
	if err != nil {
		metrics.ObserveJob(job, "error")
		entry.Errorf("Job failed: %+v", err)
		return
	}
	metrics.ObserveJob(job, "ok")
	entry.Info("Job finished")
}
