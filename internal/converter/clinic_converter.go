package converter

import (
	"time"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
)

func ClinicToResponse(clinic *entity.Clinic) *dto.ClinicResponse {
	if clinic == nil {
		return nil
	}

	return &dto.ClinicResponse{
		ID:                 clinic.ID,
		Name:               clinic.Name,
		Code:               clinic.Code,
		Email:              clinic.Email,
		Phone:              clinic.Phone,
		Address:            clinic.Address,
		BusinessHours:      clinic.BusinessHours,
		TimeZone:           clinic.TimeZone,
		SubscriptionPlan:   clinic.SubscriptionPlan,
		SubscriptionStatus: clinic.SubscriptionStatus,
		IsActive:           clinic.IsActive,
		CreatedAt:          clinic.CreatedAt,
		UpdatedAt:          clinic.UpdatedAt,
	}
}

func ClinicsToResponses(clinics []entity.Clinic) []dto.ClinicResponse {
	responses := make([]dto.ClinicResponse, 0, len(clinics))
	for i := range clinics {
		responses = append(responses, *ClinicToResponse(&clinics[i]))
	}
	return responses
}

func AddressFromRequest(req dto.AddressRequest) entity.Address {
	return entity.Address{
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
	}
}

func BusinessHoursFromRequest(reqs []dto.BusinessHourRequest) entity.BusinessHours {
	if reqs == nil {
		return nil
	}
	hours := make(entity.BusinessHours, 0, len(reqs))
	for _, h := range reqs {
		hours = append(hours, entity.BusinessHour{
			Day:    time.Weekday(h.Day),
			Open:   h.Open,
			Close:  h.Close,
			Closed: h.Closed,
		})
	}
	return hours
}
