package usecase

import (
	"context"
	"errors"
	"time"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/delivery/http/middleware"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrClinicRequired  = errors.New("clinic context is required")
	ErrInvalidDate     = errors.New("invalid date, use YYYY-MM-DD")
)

// callerFromContext returns the authenticated caller.
func callerFromContext(ctx context.Context) (middleware.Identity, error) {
	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		return middleware.Identity{}, ErrUnauthenticated
	}
	return identity, nil
}

// tenantFromContext returns the caller and the clinic every query must be scoped to.
func tenantFromContext(ctx context.Context) (middleware.Identity, uuid.UUID, error) {
	identity, err := callerFromContext(ctx)
	if err != nil {
		return identity, uuid.Nil, err
	}
	if identity.ClinicID == nil {
		return identity, uuid.Nil, ErrClinicRequired
	}
	return identity, *identity.ClinicID, nil
}

// actorRef returns nil for the system actor.
func actorRef(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// clinicLocation resolves the zone the clinic keeps its calendar in. Lookup failures fall back to UTC.
func clinicLocation(db *gorm.DB, clinicRepo repository.ClinicRepository, clinicID uuid.UUID, log *logrus.Logger) *time.Location {
	clinic, err := clinicRepo.FindByID(db, clinicID)
	if err != nil {
		log.Warnf("Failed to find clinic, using UTC: %+v", err)
		return time.UTC
	}
	if clinic == nil {
		return time.UTC
	}
	return clinic.Location()
}

func pagination(page, limit int, total int64) dto.Pagination {
	return dto.Pagination{Page: page, Limit: limit, Total: total}
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(entity.DateLayout, value)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// auditEvent builds an event stamped with the caller's request details.
func auditEvent(identity middleware.Identity, eventType string, now time.Time) entity.AuditEvent {
	return entity.AuditEvent{
		Type:      eventType,
		Actor:     actorRef(identity.UserID),
		ActorName: identity.Username,
		IPAddress: identity.IP,
		UserAgent: identity.UserAgent,
		At:        now,
	}
}
