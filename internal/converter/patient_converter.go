package converter

import (
	"time"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
)

// PatientToResponse converts a Patient entity to PatientResponse DTO
func PatientToResponse(patient *entity.Patient) *dto.PatientResponse {
	if patient == nil {
		return nil
	}

	response := &dto.PatientResponse{
		ID:             patient.ID,
		ClinicID:       patient.ClinicID,
		RecordNumber:   patient.RecordNumber,
		FirstName:      patient.FirstName,
		LastName:       patient.LastName,
		FullName:       patient.FullName(),
		Gender:         patient.Gender,
		Email:          patient.Email,
		Phone:          patient.Phone,
		Address:        patient.Address,
		Insurance:      patient.Insurance,
		Referral:       patient.Referral,
		ActivePackages: patient.ActivePackages,
		Alerts:         patient.Alerts,
		MedicalHistory: patient.MedicalHistory,
		Status:         string(patient.Status),
		DeletedAt:      patient.DeletedAt,
		CreatedAt:      patient.CreatedAt,
		UpdatedAt:      patient.UpdatedAt,
	}

	if patient.DateOfBirth != nil {
		response.DateOfBirth = patient.DateOfBirth.Format(entity.DateLayout)
	}

	return response
}

func PatientsToResponses(patients []entity.Patient) []dto.PatientResponse {
	responses := make([]dto.PatientResponse, 0, len(patients))
	for i := range patients {
		responses = append(responses, *PatientToResponse(&patients[i]))
	}
	return responses
}

func PatientToSummary(patient *entity.Patient) *dto.PatientSummary {
	if patient == nil {
		return nil
	}
	return &dto.PatientSummary{
		ID:           patient.ID,
		RecordNumber: patient.RecordNumber,
		FullName:     patient.FullName(),
		Phone:        patient.Phone,
	}
}

// InsuranceFromRequest converts policy requests. Dates were validated upstream.
func InsuranceFromRequest(reqs []dto.InsurancePolicyRequest) entity.InsurancePolicies {
	if reqs == nil {
		return nil
	}
	policies := make(entity.InsurancePolicies, 0, len(reqs))
	for _, p := range reqs {
		policies = append(policies, entity.InsurancePolicy{
			Provider:      p.Provider,
			PolicyNumber:  p.PolicyNumber,
			GroupNumber:   p.GroupNumber,
			Copay:         p.Copay,
			Deductible:    p.Deductible,
			CoverageStart: ParseDate(p.CoverageStart),
			CoverageEnd:   ParseDate(p.CoverageEnd),
			IsPrimary:     p.IsPrimary,
		})
	}
	return policies
}

func ReferralFromRequest(req *dto.ReferralRequest) entity.Referral {
	if req == nil {
		return entity.Referral{}
	}
	return entity.Referral{
		ReferredByPatientID: req.ReferredByPatientID,
		ReferrerName:        req.ReferrerName,
		Source:              req.Source,
		BonusAmount:         req.BonusAmount,
	}
}

func MedicalHistoryFromRequest(req *dto.MedicalHistoryRequest) entity.MedicalHistory {
	if req == nil {
		return entity.MedicalHistory{}
	}
	return entity.MedicalHistory{
		Conditions:  req.Conditions,
		Allergies:   req.Allergies,
		Medications: req.Medications,
		Surgeries:   req.Surgeries,
		Notes:       req.Notes,
	}
}

// ParseDate returns nil for an empty or malformed date.
func ParseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(entity.DateLayout, value)
	if err != nil {
		return nil
	}
	return &t
}
