package dto

import "clinic-management-api/internal/domain/entity"

type CodeSearchRequest struct {
	Query string `json:"q" validate:"omitempty,max=100"`
}

type BillingCodeListResponse struct {
	Codes []entity.BillingCode `json:"codes"`
	Total int                  `json:"total"`
}

type DiagnosticCodeListResponse struct {
	Codes []entity.DiagnosticCode `json:"codes"`
	Total int                     `json:"total"`
}
