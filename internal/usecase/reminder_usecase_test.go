package usecase

import (
	"context"
	"errors"
	"testing"

	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
)

type fakeNotifier struct {
	sent []string
	fail map[string]bool
}

func (n *fakeNotifier) Channel() string { return "test" }

func (n *fakeNotifier) Send(ctx context.Context, to, body string) (string, error) {
	if n.fail[to] {
		return "", errors.New("carrier rejected message")
	}
	n.sent = append(n.sent, to)
	return "SM" + to, nil
}

func TestSendReminders(t *testing.T) {
	clinicID := uuid.New()
	withPhone := func(phone string) *entity.Patient {
		return &entity.Patient{ID: uuid.New(), ClinicID: clinicID, FirstName: "Sam", Phone: phone}
	}
	reminder := func(status entity.AppointmentStatus, patient *entity.Patient) entity.Appointment {
		a := entity.Appointment{ID: uuid.New(), ClinicID: clinicID, Date: "2024-03-05", Time: "09:30", Status: status, Patient: patient}
		if patient != nil {
			a.PatientID = patient.ID
		}
		return a
	}

	due := reminder(entity.StatusScheduled, withPhone("+15550001"))
	failing := reminder(entity.StatusScheduled, withPhone("+15550002"))
	noPhone := reminder(entity.StatusScheduled, withPhone(""))
	cancelled := reminder(entity.StatusCancelled, withPhone("+15550003"))

	appts := newMockAppointmentRepo(due, failing, noPhone, cancelled)
	notifier := &fakeNotifier{fail: map[string]bool{"+15550002": true}}
	uc := NewReminderUsecase(&fakeTx{}, testLogger(), appts, notifier).(*reminderUsecase)
	uc.now = fixedClock(apptNow)

	sent, err := uc.SendReminders(context.Background(), "UTC", "2024-03-05")
	if err != nil {
		t.Fatalf("SendReminders: %v", err)
	}
	if sent != 1 || len(notifier.sent) != 1 || notifier.sent[0] != "+15550001" {
		t.Errorf("sent = %d to %v", sent, notifier.sent)
	}
	if _, ok := appts.reminded[due.ID]; !ok {
		t.Error("delivered reminder not marked")
	}
	if _, ok := appts.reminded[failing.ID]; ok {
		t.Error("failed reminder must stay eligible for a retry")
	}

	again, err := uc.SendReminders(context.Background(), "UTC", "2024-03-05")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if again != 0 {
		t.Errorf("second run sent %d reminders, want 0", again)
	}

	if _, err := uc.SendReminders(context.Background(), "UTC", "05/03/2024"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("bad date: err = %v", err)
	}
}

func TestSendRemindersOnlyForZone(t *testing.T) {
	east, west := uuid.New(), uuid.New()
	appt := func(clinicID uuid.UUID, phone string) entity.Appointment {
		patient := &entity.Patient{ID: uuid.New(), ClinicID: clinicID, FirstName: "Lee", Phone: phone}
		return entity.Appointment{ID: uuid.New(), ClinicID: clinicID, PatientID: patient.ID, Date: "2024-03-05", Time: "08:00", Status: entity.StatusScheduled, Patient: patient}
	}

	appts := newMockAppointmentRepo(appt(east, "+15550101"), appt(west, "+15550202"))
	appts.zones = map[uuid.UUID]string{east: "America/New_York", west: "America/Los_Angeles"}
	notifier := &fakeNotifier{}
	uc := NewReminderUsecase(&fakeTx{}, testLogger(), appts, notifier)

	sent, err := uc.SendReminders(context.Background(), "America/Los_Angeles", "2024-03-05")
	if err != nil {
		t.Fatalf("SendReminders: %v", err)
	}
	if sent != 1 || len(notifier.sent) != 1 || notifier.sent[0] != "+15550202" {
		t.Errorf("sent %d to %v, want only the west coast patient", sent, notifier.sent)
	}
}

func TestReminderText(t *testing.T) {
	appt := &entity.Appointment{Date: "2024-03-05", Time: "09:30", Patient: &entity.Patient{FirstName: "Sam"}}
	want := "Hi Sam, this is a reminder of your appointment on 2024-03-05 at 09:30."
	if got := reminderText(appt); got != want {
		t.Errorf("reminderText = %q, want %q", got, want)
	}
}
