package usecase

import (
	"errors"
	"testing"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/service"

	"github.com/google/uuid"
)

func newSOAPFixture(t *testing.T, status entity.AppointmentStatus) (*soapNoteUsecase, *mockSOAPNoteRepo, *mockAppointmentRepo, *recordedHistory, entity.Appointment) {
	t.Helper()
	appt := entity.Appointment{
		ID:        uuid.New(),
		ClinicID:  uuid.New(),
		PatientID: uuid.New(),
		Date:      "2024-03-04",
		Time:      "09:00",
		Status:    status,
	}
	notes := newMockSOAPNoteRepo()
	appts := newMockAppointmentRepo(appt)
	history := &recordedHistory{}
	catalog := service.NewStaticCatalog(nil, []entity.DiagnosticCode{{Code: "M54.2", Description: "Cervicalgia", IsActive: true}})

	uc := NewSOAPNoteUsecase(&fakeTx{}, testLogger(), notes, appts, catalog, history).(*soapNoteUsecase)
	uc.now = fixedClock(apptNow)
	return uc, notes, appts, history, appt
}

func TestSOAPNoteSaveCreatesThenReplaces(t *testing.T) {
	uc, notes, _, _, appt := newSOAPFixture(t, entity.StatusCheckedIn)
	ctx, _ := ctxAs(appt.ClinicID, entity.RoleDoctor)

	first, err := uc.Save(ctx, appt.ID, &dto.SaveSOAPNoteRequest{
		Subjective:      "neck pain",
		DiagnosticCodes: []dto.DiagnosticCodeRequest{{Code: " m54.2 ", IsPrimary: true}},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if first.DiagnosticCodes[0].Code != "M54.2" || first.DiagnosticCodes[0].Description != "Cervicalgia" {
		t.Errorf("diagnosis = %+v", first.DiagnosticCodes)
	}

	second, err := uc.Save(ctx, appt.ID, &dto.SaveSOAPNoteRequest{Subjective: "neck pain", Plan: "ice"})
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if second.ID != first.ID {
		t.Error("saving again must update the existing note")
	}
	if len(notes.items) != 1 || notes.items[appt.ID].Sections.Plan != "ice" {
		t.Errorf("stored note = %+v", notes.items[appt.ID])
	}
}

func TestSOAPNoteSaveRejectsClosedAppointment(t *testing.T) {
	for _, status := range []entity.AppointmentStatus{entity.StatusCancelled, entity.StatusNoShow} {
		t.Run(string(status), func(t *testing.T) {
			uc, _, _, _, appt := newSOAPFixture(t, status)
			ctx, _ := ctxAs(appt.ClinicID, entity.RoleDoctor)

			if _, err := uc.Save(ctx, appt.ID, &dto.SaveSOAPNoteRequest{Subjective: "x"}); !errors.Is(err, ErrAppointmentClosed) {
				t.Fatalf("err = %v, want ErrAppointmentClosed", err)
			}
		})
	}
}

func TestSOAPNoteSignStartsCheckedInVisit(t *testing.T) {
	uc, _, appts, history, appt := newSOAPFixture(t, entity.StatusCheckedIn)
	ctx, identity := ctxAs(appt.ClinicID, entity.RoleDoctor)

	if _, err := uc.Save(ctx, appt.ID, &dto.SaveSOAPNoteRequest{Subjective: "s", Objective: "o", Assessment: "a", Plan: "p"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	signed, err := uc.Sign(ctx, appt.ID, &dto.SignSOAPNoteRequest{Signature: dto.SignatureRequest{Data: "sig"}})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !signed.IsSigned || signed.SignedBy == nil || *signed.SignedBy != identity.UserID {
		t.Errorf("signed note = %+v", signed)
	}

	if got := appts.get(appt.ID).Status; got != entity.StatusInProgress {
		t.Errorf("appointment status = %s, want in-progress", got)
	}
	if last := history.last(); last.ChangeType != entity.ChangeTypeFor(entity.ActionStart) {
		t.Errorf("history change = %q", last.ChangeType)
	}

	if _, err := uc.Save(ctx, appt.ID, &dto.SaveSOAPNoteRequest{Plan: "changed"}); !errors.Is(err, ErrNoteSigned) {
		t.Errorf("save after sign: err = %v", err)
	}
	if _, err := uc.Sign(ctx, appt.ID, nil); !errors.Is(err, ErrNoteSigned) {
		t.Errorf("second sign: err = %v", err)
	}
}

func TestSOAPNoteSignRequiresContent(t *testing.T) {
	uc, _, appts, history, appt := newSOAPFixture(t, entity.StatusInProgress)
	ctx, _ := ctxAs(appt.ClinicID, entity.RoleDoctor)

	if _, err := uc.Sign(ctx, appt.ID, nil); !errors.Is(err, ErrSOAPNoteNotFound) {
		t.Fatalf("sign without note: err = %v", err)
	}
	if _, err := uc.Save(ctx, appt.ID, &dto.SaveSOAPNoteRequest{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := uc.Sign(ctx, appt.ID, nil); !errors.Is(err, ErrNoteEmpty) {
		t.Fatalf("sign empty note: err = %v", err)
	}

	if _, err := uc.Save(ctx, appt.ID, &dto.SaveSOAPNoteRequest{Assessment: "stable"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := uc.Sign(ctx, appt.ID, nil); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if appts.get(appt.ID).Status != entity.StatusInProgress || len(history.entries) != 0 {
		t.Error("signing during an in-progress visit must not touch the appointment")
	}
}
