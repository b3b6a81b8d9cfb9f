package usecase

import (
	"errors"
	"testing"
	"time"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newCarePackageFixture(t *testing.T) (*carePackageUsecase, *mockCarePackageRepo, *mockPatientRepo, entity.Patient) {
	t.Helper()
	patient := entity.Patient{ID: uuid.New(), ClinicID: uuid.New(), FirstName: "Lee", LastName: "Park"}
	packages := newMockCarePackageRepo()
	patients := newMockPatientRepo(patient)
	uc := NewCarePackageUsecase(&fakeTx{}, testLogger(), packages, patients, newMockAppointmentRepo()).(*carePackageUsecase)
	uc.now = fixedClock(apptNow)
	return uc, packages, patients, patient
}

func TestCarePackageCreate(t *testing.T) {
	uc, packages, patients, patient := newCarePackageFixture(t)
	ctx, _ := ctxAs(patient.ClinicID, entity.RoleSecretary)

	resp, err := uc.Create(ctx, &dto.CreateCarePackageRequest{
		PatientID:     patient.ID,
		Name:          "Ten adjustments",
		TotalSessions: 10,
		BillingCodes:  []string{" 98941 "},
		Price:         decimal.NewFromInt(500),
		ExpiryDate:    "2024-12-31",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resp.RemainingSessions != 10 || resp.Status != string(entity.CarePackageActive) {
		t.Errorf("new package = %+v", resp)
	}
	if resp.BillingCodes[0] != "98941" {
		t.Errorf("billing codes = %v", resp.BillingCodes)
	}
	if _, ok := packages.items[resp.ID]; !ok {
		t.Fatal("package not stored")
	}
	if !patients.items[patient.ID].ActivePackages.Contains(resp.ID) {
		t.Error("package not attached to patient")
	}
}

func TestCarePackageCreateRejects(t *testing.T) {
	tests := []struct {
		name    string
		req     func(patientID uuid.UUID) *dto.CreateCarePackageRequest
		wantErr error
	}{
		{
			name: "expiry before purchase",
			req: func(id uuid.UUID) *dto.CreateCarePackageRequest {
				return &dto.CreateCarePackageRequest{PatientID: id, Name: "x", TotalSessions: 1, PurchaseDate: "2024-03-04", ExpiryDate: "2024-03-01"}
			},
			wantErr: ErrInvalidExpiry,
		},
		{
			name: "negative price",
			req: func(id uuid.UUID) *dto.CreateCarePackageRequest {
				return &dto.CreateCarePackageRequest{PatientID: id, Name: "x", TotalSessions: 1, Price: decimal.NewFromInt(-5)}
			},
			wantErr: ErrInvalidAmount,
		},
		{
			name: "unknown patient",
			req: func(uuid.UUID) *dto.CreateCarePackageRequest {
				return &dto.CreateCarePackageRequest{PatientID: uuid.New(), Name: "x", TotalSessions: 1}
			},
			wantErr: ErrPatientNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, packages, _, patient := newCarePackageFixture(t)
			ctx, _ := ctxAs(patient.ClinicID, entity.RoleSecretary)

			if _, err := uc.Create(ctx, tt.req(patient.ID)); !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if len(packages.items) != 0 {
				t.Error("no package may be stored")
			}
		})
	}
}

func TestCarePackageUseSessionUntilComplete(t *testing.T) {
	uc, _, patients, patient := newCarePackageFixture(t)
	ctx, _ := ctxAs(patient.ClinicID, entity.RoleDoctor)

	created, err := uc.Create(ctx, &dto.CreateCarePackageRequest{PatientID: patient.ID, Name: "Pair", TotalSessions: 2})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for want := 1; want >= 0; want-- {
		resp, err := uc.UseSession(ctx, created.ID, &dto.UseSessionRequest{Notes: "walk-in"})
		if err != nil {
			t.Fatalf("UseSession: %v", err)
		}
		if resp.RemainingSessions != want {
			t.Errorf("remaining = %d, want %d", resp.RemainingSessions, want)
		}
	}

	if _, err := uc.UseSession(ctx, created.ID, &dto.UseSessionRequest{}); !errors.Is(err, entity.ErrNoSessionsRemaining) {
		t.Errorf("third use: err = %v, want ErrNoSessionsRemaining", err)
	}
	if patients.items[patient.ID].ActivePackages.Contains(created.ID) {
		t.Error("completed package still active on patient")
	}
}

func TestCarePackageUseSessionForAppointment(t *testing.T) {
	uc, packages, _, patient := newCarePackageFixture(t)
	ctx, _ := ctxAs(patient.ClinicID, entity.RoleSecretary)
	appts := uc.apptRepo.(*mockAppointmentRepo)

	visit := entity.Appointment{ID: uuid.New(), ClinicID: patient.ClinicID, PatientID: patient.ID, Date: "2024-03-04", Time: "09:00", Status: entity.StatusCheckedOut}
	otherPatient := entity.Appointment{ID: uuid.New(), ClinicID: patient.ClinicID, PatientID: uuid.New(), Date: "2024-03-04", Time: "10:00", Status: entity.StatusScheduled}
	otherClinic := entity.Appointment{ID: uuid.New(), ClinicID: uuid.New(), PatientID: patient.ID, Date: "2024-03-04", Time: "11:00", Status: entity.StatusScheduled}
	for _, a := range []entity.Appointment{visit, otherPatient, otherClinic} {
		appts.items[a.ID] = a
	}

	pkg := entity.CarePackage{
		ID:                uuid.New(),
		ClinicID:          patient.ClinicID,
		PatientID:         patient.ID,
		TotalSessions:     5,
		RemainingSessions: 4,
		Status:            entity.CarePackageActive,
		// Checkout already used a session for visit.
		SessionHistory: entity.SessionHistory{{AppointmentID: &visit.ID, UsedAt: apptNow}},
	}
	packages.items[pkg.ID] = pkg

	tests := []struct {
		name    string
		apptID  uuid.UUID
		wantErr error
	}{
		{name: "unknown appointment", apptID: uuid.New(), wantErr: ErrAppointmentNotFound},
		{name: "another patient's appointment", apptID: otherPatient.ID, wantErr: ErrAppointmentNotFound},
		{name: "another clinic's appointment", apptID: otherClinic.ID, wantErr: ErrAppointmentNotFound},
		{name: "session already used at checkout", apptID: visit.ID, wantErr: entity.ErrSessionAlreadyUsed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apptID := tt.apptID
			_, err := uc.UseSession(ctx, pkg.ID, &dto.UseSessionRequest{AppointmentID: &apptID})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got := packages.items[pkg.ID].RemainingSessions; got != 4 {
				t.Errorf("remaining = %d after a refused use, want 4", got)
			}
		})
	}
}

func TestCarePackageUseSessionMarksExpired(t *testing.T) {
	uc, packages, patients, patient := newCarePackageFixture(t)
	ctx, _ := ctxAs(patient.ClinicID, entity.RoleSecretary)

	expired := apptNow.Add(-24 * time.Hour)
	pkg := entity.CarePackage{
		ID:                uuid.New(),
		ClinicID:          patient.ClinicID,
		PatientID:         patient.ID,
		TotalSessions:     5,
		RemainingSessions: 5,
		Status:            entity.CarePackageActive,
		ExpiryDate:        &expired,
	}
	packages.items[pkg.ID] = pkg
	p := patients.items[patient.ID]
	p.ActivePackages = entity.UUIDList{pkg.ID}
	patients.items[p.ID] = p

	if _, err := uc.UseSession(ctx, pkg.ID, &dto.UseSessionRequest{}); !errors.Is(err, entity.ErrPackageNotActive) {
		t.Fatalf("err = %v, want ErrPackageNotActive", err)
	}
	stored := packages.items[pkg.ID]
	if stored.Status != entity.CarePackageExpired || stored.RemainingSessions != 5 {
		t.Errorf("stored package = %+v", stored)
	}
	if patients.items[patient.ID].ActivePackages.Contains(pkg.ID) {
		t.Error("expired package still active on patient")
	}
}

func TestCarePackageCancel(t *testing.T) {
	uc, _, _, patient := newCarePackageFixture(t)
	ctx, _ := ctxAs(patient.ClinicID, entity.RoleAdmin)

	created, err := uc.Create(ctx, &dto.CreateCarePackageRequest{PatientID: patient.ID, Name: "Six", TotalSessions: 6})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	resp, err := uc.Cancel(ctx, created.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if resp.Status != string(entity.CarePackageCancelled) {
		t.Errorf("status = %s", resp.Status)
	}
	if _, err := uc.Cancel(ctx, created.ID); !errors.Is(err, entity.ErrPackageNotActive) {
		t.Errorf("second cancel: err = %v", err)
	}

	other, _ := ctxAs(uuid.New(), entity.RoleAdmin)
	if _, err := uc.Get(other, created.ID); !errors.Is(err, ErrCarePackageNotFound) {
		t.Errorf("cross-clinic get: err = %v", err)
	}
}
