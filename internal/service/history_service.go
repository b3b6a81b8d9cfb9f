package service

import (
	"context"
	"time"

	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// HistoryEntry describes one appointment change to record.
type HistoryEntry struct {
	Appointment         *entity.Appointment
	ChangeType          entity.ChangeType
	Previous            entity.JSON
	Actor               *uuid.UUID
	RescheduleDetails   *entity.RescheduleDetails
	CancellationDetails *entity.CancellationDetails
	Notes               string
}

// HistoryService writes AppointmentHistory rows. Recording is best-effort:
// failures are logged and never undo the change being recorded.
type HistoryService interface {
	Record(ctx context.Context, db *gorm.DB, entry HistoryEntry)
}

type historyService struct {
	log         *logrus.Logger
	historyRepo repository.AppointmentHistoryRepository
	now         func() time.Time
}

func NewHistoryService(log *logrus.Logger, historyRepo repository.AppointmentHistoryRepository) HistoryService {
	return &historyService{
		log:         log,
		historyRepo: historyRepo,
		now:         time.Now,
	}
}

func (s *historyService) Record(ctx context.Context, db *gorm.DB, entry HistoryEntry) {
	appt := entry.Appointment
	row := &entity.AppointmentHistory{
		ClinicID:            appt.ClinicID,
		AppointmentID:       appt.ID,
		PatientID:           appt.PatientID,
		ChangeType:          entry.ChangeType,
		PreviousValues:      entry.Previous,
		NewValues:           appt.Snapshot(),
		ChangedBy:           entry.Actor,
		ChangedAt:           s.now(),
		RescheduleDetails:   entry.RescheduleDetails,
		CancellationDetails: entry.CancellationDetails,
		Notes:               entry.Notes,
	}

	if err := s.historyRepo.Create(db, row); err != nil {
		s.log.WithFields(logrus.Fields{
			"appointment_id": appt.ID,
			"change_type":    entry.ChangeType,
		}).Warnf("Failed to record appointment history: %+v", err)
	}
}
