package handler

import (
	"net/http"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/usecase"
	"clinic-management-api/pkg/response"
	"clinic-management-api/pkg/validator"
)

type SOAPNoteHandler struct {
	soapNoteUsecase usecase.SOAPNoteUsecase
	validator       *validator.CustomValidator
}

func NewSOAPNoteHandler(soapNoteUsecase usecase.SOAPNoteUsecase, validator *validator.CustomValidator) *SOAPNoteHandler {
	return &SOAPNoteHandler{
		soapNoteUsecase: soapNoteUsecase,
		validator:       validator,
	}
}

// SaveNote handles PUT /appointments/{id}/soap-note
func (h *SOAPNoteHandler) SaveNote(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	var req dto.SaveSOAPNoteRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	note, err := h.soapNoteUsecase.Save(r.Context(), appointmentID, &req)
	if err != nil {
		writeError(w, err, "Failed to save SOAP note")
		return
	}

	response.Success(w, http.StatusOK, "SOAP note saved successfully", note)
}

func (h *SOAPNoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	note, err := h.soapNoteUsecase.Get(r.Context(), appointmentID)
	if err != nil {
		writeError(w, err, "Failed to get SOAP note")
		return
	}

	response.Success(w, http.StatusOK, "SOAP note retrieved successfully", note)
}

func (h *SOAPNoteHandler) SignNote(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := pathUUID(w, r, "id", "appointment")
	if !ok {
		return
	}

	var req dto.SignSOAPNoteRequest
	if !decodeOptional(w, r, h.validator, &req) {
		return
	}

	note, err := h.soapNoteUsecase.Sign(r.Context(), appointmentID, &req)
	if err != nil {
		writeError(w, err, "Failed to sign SOAP note")
		return
	}

	response.Success(w, http.StatusOK, "SOAP note signed successfully", note)
}
