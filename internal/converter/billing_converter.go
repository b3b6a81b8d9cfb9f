package converter

import (
	"time"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
)

func LedgerToResponse(ledger *entity.Ledger) *dto.LedgerResponse {
	if ledger == nil {
		return nil
	}

	return &dto.LedgerResponse{
		ID:            ledger.ID,
		ClinicID:      ledger.ClinicID,
		PatientID:     ledger.PatientID,
		AppointmentID: ledger.AppointmentID,
		ProviderID:    ledger.ProviderID,
		VisitDate:     ledger.VisitDate,
		VisitType:     ledger.VisitType,
		BillingCodes:  ledger.BillingCodes,
		Subtotal:      ledger.Subtotal,
		Discounts:     ledger.Discounts,
		TotalDiscount: ledger.TotalDiscount,
		TotalAmount:   ledger.TotalAmount,
		AmountPaid:    ledger.AmountPaid,
		Balance:       ledger.Balance,
		PaymentStatus: string(ledger.PaymentStatus),
		PaymentMethod: ledger.PaymentMethod,
		Insurance:     ledger.Insurance,
		Signature:     SignatureToResponse(ledger.Signature),
		Notes:         ledger.Notes,
		CarePackageID: ledger.CarePackageID,
		IsVoided:      ledger.IsVoided,
		VoidReason:    ledger.VoidReason,
		VoidedBy:      ledger.VoidedBy,
		VoidedAt:      ledger.VoidedAt,
		CreatedBy:     ledger.CreatedBy,
		CreatedAt:     ledger.CreatedAt,
		UpdatedAt:     ledger.UpdatedAt,
	}
}

func LedgersToResponses(ledgers []entity.Ledger) []dto.LedgerResponse {
	responses := make([]dto.LedgerResponse, 0, len(ledgers))
	for i := range ledgers {
		responses = append(responses, *LedgerToResponse(&ledgers[i]))
	}
	return responses
}

// LineItemsFromRequest copies client line items. Totals are left for Recalculate.
func LineItemsFromRequest(reqs []dto.BillingLineItemRequest) entity.BillingLineItems {
	items := make(entity.BillingLineItems, 0, len(reqs))
	for _, r := range reqs {
		items = append(items, entity.BillingLineItem{
			Code:            r.Code,
			Description:     r.Description,
			Units:           r.Units,
			UnitPrice:       r.UnitPrice,
			CoveragePercent: r.CoveragePercent,
		})
	}
	return items
}

func DiscountsFromRequest(reqs []dto.DiscountRequest) entity.Discounts {
	discounts := make(entity.Discounts, 0, len(reqs))
	for _, r := range reqs {
		discounts = append(discounts, entity.Discount{
			Type:        r.Type,
			Description: r.Description,
			Amount:      r.Amount,
		})
	}
	return discounts
}

func DiagnosticCodesFromRequest(reqs []dto.DiagnosticCodeRequest) entity.DiagnosticEntries {
	entries := make(entity.DiagnosticEntries, 0, len(reqs))
	for _, r := range reqs {
		entries = append(entries, entity.DiagnosticEntry{
			Code:        r.Code,
			Description: r.Description,
			IsPrimary:   r.IsPrimary,
		})
	}
	return entries
}

func SOAPFromRequest(req dto.SOAPRequest) entity.SOAPSections {
	return entity.SOAPSections{
		Subjective: req.Subjective,
		Objective:  req.Objective,
		Assessment: req.Assessment,
		Plan:       req.Plan,
	}
}

// SignatureFromRequest stamps the capture time and client address.
func SignatureFromRequest(req dto.SignatureRequest, ip string, now time.Time) entity.Signature {
	signedAt := now
	if req.SignedAt != nil {
		signedAt = *req.SignedAt
	}
	return entity.Signature{
		Data:      req.Data,
		SignedAt:  &signedAt,
		IPAddress: ip,
	}
}

func InsuranceClaimFromRequest(req *dto.InsuranceClaimRequest) *entity.InsuranceClaim {
	if req == nil {
		return nil
	}
	return &entity.InsuranceClaim{
		Provider:     req.Provider,
		PolicyNumber: req.PolicyNumber,
		ClaimNumber:  req.ClaimNumber,
		ClaimStatus:  req.ClaimStatus,
	}
}

func CopayOverrideFromRequest(req *dto.CopayOverrideRequest) *entity.CopayOverride {
	if req == nil {
		return nil
	}
	return &entity.CopayOverride{
		OriginalAmount: req.OriginalAmount,
		NewAmount:      req.NewAmount,
		Reason:         req.Reason,
		ApprovedBy:     req.ApprovedBy,
	}
}

func CarePackageToResponse(pkg *entity.CarePackage) *dto.CarePackageResponse {
	if pkg == nil {
		return nil
	}

	return &dto.CarePackageResponse{
		ID:                pkg.ID,
		ClinicID:          pkg.ClinicID,
		PatientID:         pkg.PatientID,
		Name:              pkg.Name,
		Description:       pkg.Description,
		TotalSessions:     pkg.TotalSessions,
		RemainingSessions: pkg.RemainingSessions,
		UsedSessions:      pkg.UsedSessions(),
		BillingCodes:      pkg.BillingCodes,
		Price:             pkg.Price,
		Status:            string(pkg.Status),
		PurchaseDate:      pkg.PurchaseDate,
		ExpiryDate:        pkg.ExpiryDate,
		SessionHistory:    pkg.SessionHistory,
		CreatedAt:         pkg.CreatedAt,
		UpdatedAt:         pkg.UpdatedAt,
	}
}

func CarePackagesToResponses(pkgs []entity.CarePackage) []dto.CarePackageResponse {
	responses := make([]dto.CarePackageResponse, 0, len(pkgs))
	for i := range pkgs {
		responses = append(responses, *CarePackageToResponse(&pkgs[i]))
	}
	return responses
}
