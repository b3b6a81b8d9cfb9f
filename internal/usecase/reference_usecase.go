package usecase

import (
	"context"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/service"

	"github.com/sirupsen/logrus"
)

type ReferenceUsecase interface {
	BillingCodes(ctx context.Context, req *dto.CodeSearchRequest) (*dto.BillingCodeListResponse, error)
	DiagnosticCodes(ctx context.Context, req *dto.CodeSearchRequest) (*dto.DiagnosticCodeListResponse, error)
	// Refresh reloads both code tables from the database.
	Refresh(ctx context.Context) error
}

// CatalogLoader is a ReferenceCatalog that can be reloaded.
type CatalogLoader interface {
	service.ReferenceCatalog
	Load(ctx context.Context) error
}

type referenceUsecase struct {
	log     *logrus.Logger
	catalog CatalogLoader
}

func NewReferenceUsecase(log *logrus.Logger, catalog CatalogLoader) ReferenceUsecase {
	return &referenceUsecase{
		log:     log,
		catalog: catalog,
	}
}

func (u *referenceUsecase) BillingCodes(ctx context.Context, req *dto.CodeSearchRequest) (*dto.BillingCodeListResponse, error) {
	if _, err := callerFromContext(ctx); err != nil {
		return nil, err
	}

	codes := u.catalog.SearchBillingCodes(req.Query)
	return &dto.BillingCodeListResponse{Codes: codes, Total: len(codes)}, nil
}

func (u *referenceUsecase) DiagnosticCodes(ctx context.Context, req *dto.CodeSearchRequest) (*dto.DiagnosticCodeListResponse, error) {
	if _, err := callerFromContext(ctx); err != nil {
		return nil, err
	}

	codes := u.catalog.SearchDiagnosticCodes(req.Query)
	return &dto.DiagnosticCodeListResponse{Codes: codes, Total: len(codes)}, nil
}

func (u *referenceUsecase) Refresh(ctx context.Context) error {
	if err := u.catalog.Load(ctx); err != nil {
		u.log.Warnf("Failed to reload reference codes: %+v", err)
		return err
	}
	return nil
}
