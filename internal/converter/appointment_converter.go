package converter

import (
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO.
// Patient and provider blocks are included when loaded.
func AppointmentToResponse(appt *entity.Appointment) *dto.AppointmentResponse {
	if appt == nil {
		return nil
	}

	return &dto.AppointmentResponse{
		ID:                 appt.ID,
		ClinicID:           appt.ClinicID,
		PatientID:          appt.PatientID,
		Patient:            PatientToSummary(appt.Patient),
		ProviderID:         appt.ProviderID,
		Provider:           UserToActor(appt.Provider),
		Date:               appt.Date,
		Time:               appt.Time,
		Duration:           appt.Duration,
		Type:               appt.Type,
		VisitType:          appt.VisitType,
		Status:             string(appt.Status),
		Reason:             appt.Reason,
		Notes:              appt.Notes,
		CheckInTime:        appt.CheckInTime,
		CheckOutTime:       appt.CheckOutTime,
		ActualStartTime:    appt.ActualStartTime,
		ActualEndTime:      appt.ActualEndTime,
		BillingCodes:       appt.BillingCodes,
		TotalAmount:        appt.TotalAmount,
		AmountPaid:         appt.AmountPaid,
		Signature:          SignatureToResponse(appt.Signature),
		Alerts:             appt.Alerts,
		CarePackageID:      appt.CarePackageID,
		IsWalkIn:           appt.IsWalkIn,
		CancelledBy:        appt.CancelledBy,
		CancelledAt:        appt.CancelledAt,
		CancellationReason: appt.CancelReason,
		CreatedBy:          appt.CreatedBy,
		LastModifiedBy:     appt.LastModifiedBy,
		CreatedAt:          appt.CreatedAt,
		UpdatedAt:          appt.UpdatedAt,
	}
}

func AppointmentsToResponses(appts []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, 0, len(appts))
	for i := range appts {
		responses = append(responses, *AppointmentToResponse(&appts[i]))
	}
	return responses
}

func HistoryToResponses(rows []entity.AppointmentHistory) []dto.AppointmentHistoryResponse {
	responses := make([]dto.AppointmentHistoryResponse, 0, len(rows))
	for _, h := range rows {
		responses = append(responses, dto.AppointmentHistoryResponse{
			ID:                  h.ID,
			AppointmentID:       h.AppointmentID,
			ChangeType:          string(h.ChangeType),
			PreviousValues:      h.PreviousValues,
			NewValues:           h.NewValues,
			ChangedBy:           h.ChangedBy,
			ChangedAt:           h.ChangedAt,
			RescheduleDetails:   h.RescheduleDetails,
			CancellationDetails: h.CancellationDetails,
			Notes:               h.Notes,
		})
	}
	return responses
}

// SignatureToResponse returns nil when nothing was captured.
func SignatureToResponse(sig entity.Signature) *dto.SignatureResponse {
	if sig.IsEmpty() {
		return nil
	}
	return &dto.SignatureResponse{
		Data:      sig.Data,
		SignedAt:  sig.SignedAt,
		IPAddress: sig.IPAddress,
	}
}
