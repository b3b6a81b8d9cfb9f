package converter

import (
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
)

func AuditLogToResponse(log *entity.AuditLog) *dto.AuditLogResponse {
	if log == nil {
		return nil
	}

	return &dto.AuditLogResponse{
		ID:               log.ID,
		ClinicID:         log.ClinicID,
		Action:           log.Action,
		PatientID:        log.PatientID,
		AppointmentID:    log.AppointmentID,
		LedgerID:         log.LedgerID,
		ProviderID:       log.ProviderID,
		VisitDate:        log.VisitDate,
		VisitTime:        log.VisitTime,
		VisitType:        log.VisitType,
		BillingCodes:     log.BillingCodes,
		DiagnosticCodes:  log.DiagnosticCodes,
		SOAP:             log.SOAP,
		Signature:        SignatureToResponse(log.Signature),
		Payment:          log.Payment,
		ComplianceFlags:  log.ComplianceFlags,
		FlaggedForReview: log.FlaggedForReview,
		ReviewReason:     log.ReviewReason,
		AuditEvents:      log.AuditEvents,
		IsLocked:         log.IsLocked,
		LockedBy:         log.LockedBy,
		LockedAt:         log.LockedAt,
		LockReason:       log.LockReason,
		FirstSavedAt:     log.FirstSavedAt,
		Metadata:         log.Metadata,
		CreatedBy:        log.CreatedBy,
		CreatedAt:        log.CreatedAt,
		UpdatedAt:        log.UpdatedAt,
	}
}

func AuditLogsToResponses(logs []entity.AuditLog) []dto.AuditLogResponse {
	responses := make([]dto.AuditLogResponse, 0, len(logs))
	for i := range logs {
		responses = append(responses, *AuditLogToResponse(&logs[i]))
	}
	return responses
}

func SOAPNoteToResponse(note *entity.SOAPNote) *dto.SOAPNoteResponse {
	if note == nil {
		return nil
	}

	return &dto.SOAPNoteResponse{
		ID:              note.ID,
		AppointmentID:   note.AppointmentID,
		PatientID:       note.PatientID,
		ProviderID:      note.ProviderID,
		Sections:        note.Sections,
		DiagnosticCodes: note.DiagnosticCodes,
		Signature:       SignatureToResponse(note.Signature),
		IsSigned:        note.IsSigned,
		SignedBy:        note.SignedBy,
		SignedAt:        note.SignedAt,
		CreatedAt:       note.CreatedAt,
		UpdatedAt:       note.UpdatedAt,
	}
}
