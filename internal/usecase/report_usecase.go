package usecase

import (
	"context"
	"time"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type ReportUsecase interface {
	// DailyReport summarises one clinic day. An empty date means today.
	DailyReport(ctx context.Context, date string) (*dto.DailyReportResponse, error)
}

type reportUsecase struct {
	txManager    repository.TxManager
	log          *logrus.Logger
	apptRepo     repository.AppointmentRepository
	ledgerRepo   repository.LedgerRepository
	auditLogRepo repository.AuditLogRepository
	now          func() time.Time
}

func NewReportUsecase(
	txManager repository.TxManager,
	log *logrus.Logger,
	apptRepo repository.AppointmentRepository,
	ledgerRepo repository.LedgerRepository,
	auditLogRepo repository.AuditLogRepository,
) ReportUsecase {
	return &reportUsecase{
		txManager:    txManager,
		log:          log,
		apptRepo:     apptRepo,
		ledgerRepo:   ledgerRepo,
		auditLogRepo: auditLogRepo,
		now:          time.Now,
	}
}

func (u *reportUsecase) DailyReport(ctx context.Context, date string) (*dto.DailyReportResponse, error) {
	_, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if date == "" {
		date = u.now().Format(entity.DateLayout)
	} else if _, err := parseDate(date); err != nil {
		return nil, err
	}

	var (
		counts     []entity.StatusCount
		revenue    *entity.RevenueSummary
		compliance *entity.ComplianceReport
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := u.apptRepo.CountByStatus(u.txManager.DB(gctx), clinicID, date, date)
		if err != nil {
			u.log.Warnf("Failed to count appointments by status: %+v", err)
			return err
		}
		counts = rows
		return nil
	})
	g.Go(func() error {
		summary, err := u.ledgerRepo.RevenueForDate(u.txManager.DB(gctx), clinicID, date)
		if err != nil {
			u.log.Warnf("Failed to sum revenue: %+v", err)
			return err
		}
		revenue = summary
		return nil
	})
	g.Go(func() error {
		report, err := u.auditLogRepo.ComplianceReport(u.txManager.DB(gctx), clinicID, date, date)
		if err != nil {
			u.log.Warnf("Failed to build compliance report: %+v", err)
			return err
		}
		compliance = report
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp := &dto.DailyReportResponse{
		Date:         date,
		Appointments: map[string]int64{},
		Compliance:   compliance,
	}
	for _, c := range counts {
		resp.Appointments[string(c.Status)] += c.Count
		resp.Total += c.Count
	}
	if revenue != nil {
		resp.Revenue = *revenue
	}

	return resp, nil
}
