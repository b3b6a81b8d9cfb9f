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

func newAuditFixture(t *testing.T) (*auditLogUsecase, *mockAuditLogRepo, entity.Patient) {
	t.Helper()
	return newZonedAuditFixture(t, "UTC")
}

func newZonedAuditFixture(t *testing.T, zone string) (*auditLogUsecase, *mockAuditLogRepo, entity.Patient) {
	t.Helper()
	clinic := entity.Clinic{ID: uuid.New(), Code: "WEST", TimeZone: zone, IsActive: true}
	patient := entity.Patient{ID: uuid.New(), ClinicID: clinic.ID, FirstName: "Kim"}
	logs := newMockAuditLogRepo()
	uc := NewAuditLogUsecase(&fakeTx{}, testLogger(), logs, newMockPatientRepo(patient), newMockAppointmentRepo(), newMockClinicRepo(clinic)).(*auditLogUsecase)
	uc.now = fixedClock(apptNow)
	return uc, logs, patient
}

func TestAuditLogCreateDerivesFlags(t *testing.T) {
	uc, _, patient := newAuditFixture(t)
	ctx, _ := ctxAs(patient.ClinicID, entity.RoleDoctor)

	resp, err := uc.Create(ctx, &dto.CreateAuditLogRequest{
		PatientID: patient.ID,
		VisitDate: "2024-03-01",
		VisitTime: "10:00",
		SOAP:      dto.SOAPRequest{Subjective: "s", Objective: "o"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	want := entity.ComplianceFlags{
		MissingSignature:  true,
		IncompleteSOAP:    true,
		MissingDiagnosis:  true,
		LateDocumentation: true,
	}
	if resp.ComplianceFlags != want {
		t.Errorf("flags = %+v, want %+v", resp.ComplianceFlags, want)
	}
	if len(resp.AuditEvents) != 1 || resp.AuditEvents[0].Type != entity.AuditEventCreated {
		t.Errorf("events = %+v", resp.AuditEvents)
	}
}

func TestAuditLogCreateReadsVisitInClinicZone(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skipf("zone database unavailable: %v", err)
	}

	tests := []struct {
		name     string
		zone     string
		wantLate bool
	}{
		{name: "west coast clinic inside the window", zone: "America/Los_Angeles", wantLate: false},
		{name: "UTC clinic past the window", zone: "UTC", wantLate: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, _, patient := newZonedAuditFixture(t, tt.zone)
			// 23h after 09:00 in Los Angeles, 30h after 09:00 UTC.
			uc.now = fixedClock(time.Date(2024, 6, 2, 8, 0, 0, 0, la))
			ctx, _ := ctxAs(patient.ClinicID, entity.RoleDoctor)

			resp, err := uc.Create(ctx, &dto.CreateAuditLogRequest{
				PatientID: patient.ID,
				VisitDate: "2024-06-01",
				VisitTime: "09:00",
			})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if resp.ComplianceFlags.LateDocumentation != tt.wantLate {
				t.Errorf("LateDocumentation = %v, want %v", resp.ComplianceFlags.LateDocumentation, tt.wantLate)
			}
		})
	}
}

func TestAuditLogCreateRejectsForeignAppointment(t *testing.T) {
	uc, _, patient := newAuditFixture(t)
	ctx, _ := ctxAs(patient.ClinicID, entity.RoleDoctor)
	missing := uuid.New()

	_, err := uc.Create(ctx, &dto.CreateAuditLogRequest{PatientID: patient.ID, AppointmentID: &missing, VisitDate: "2024-03-04"})
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("err = %v, want ErrAppointmentNotFound", err)
	}
	if _, err := uc.Create(ctx, &dto.CreateAuditLogRequest{PatientID: uuid.New(), VisitDate: "2024-03-04"}); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("unknown patient: err = %v", err)
	}
}

func TestAuditLogUpdateKeepsLateFlag(t *testing.T) {
	uc, logs, patient := newAuditFixture(t)
	ctx, _ := ctxAs(patient.ClinicID, entity.RoleDoctor)

	created, err := uc.Create(ctx, &dto.CreateAuditLogRequest{PatientID: patient.ID, VisitDate: "2024-03-01"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := uc.Update(ctx, created.ID, &dto.UpdateAuditLogRequest{
		SOAP:            &dto.SOAPRequest{Subjective: "s", Objective: "o", Assessment: "a", Plan: "p"},
		Signature:       &dto.SignatureRequest{Data: "sig"},
		DiagnosticCodes: []dto.DiagnosticCodeRequest{{Code: "M54.5"}},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ComplianceFlags != (entity.ComplianceFlags{LateDocumentation: true}) {
		t.Errorf("flags after update = %+v", updated.ComplianceFlags)
	}

	events := logs.items[created.ID].AuditEvents
	last := events[len(events)-1]
	if last.Type != entity.AuditEventModified || last.Changes["soap"] != "updated" {
		t.Errorf("modification event = %+v", last)
	}
}

func TestAuditLogUpdateKeepsCopayOverride(t *testing.T) {
	uc, logs, patient := newAuditFixture(t)
	ctx, _ := ctxAs(patient.ClinicID, entity.RoleAdmin)

	created, err := uc.Create(ctx, &dto.CreateAuditLogRequest{
		PatientID: patient.ID,
		VisitDate: "2024-03-04",
		Payment: &dto.PaymentDetailsRequest{
			Method: "cash",
			CopayOverride: &dto.CopayOverrideRequest{
				OriginalAmount: decimal.NewFromInt(40),
				NewAmount:      decimal.NewFromInt(20),
				Reason:         "hardship",
			},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !created.ComplianceFlags.CopayOverride {
		t.Fatalf("copay override flag not set on create: %+v", created.ComplianceFlags)
	}

	tests := []struct {
		name    string
		payment *dto.PaymentDetailsRequest
		want    string
	}{
		{"method only", &dto.PaymentDetailsRequest{Method: "card"}, "20"},
		{"replaced override", &dto.PaymentDetailsRequest{CopayOverride: &dto.CopayOverrideRequest{
			OriginalAmount: decimal.NewFromInt(40),
			NewAmount:      decimal.NewFromInt(10),
			Reason:         "revised",
		}}, "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated, err := uc.Update(ctx, created.ID, &dto.UpdateAuditLogRequest{Payment: tt.payment})
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			if !updated.ComplianceFlags.CopayOverride {
				t.Errorf("copay override flag cleared: %+v", updated.ComplianceFlags)
			}
			override := logs.items[created.ID].Payment.CopayOverride
			if override == nil {
				t.Fatal("copay override dropped by update")
			}
			if override.NewAmount.String() != tt.want {
				t.Errorf("new amount = %s, want %s", override.NewAmount, tt.want)
			}
		})
	}
	if got := logs.items[created.ID].Payment.Method; got != "card" {
		t.Errorf("payment method = %q, want card", got)
	}
}

func TestAuditLogLockIsFinal(t *testing.T) {
	uc, logs, patient := newAuditFixture(t)
	ctx, identity := ctxAs(patient.ClinicID, entity.RoleAdmin)

	created, err := uc.Create(ctx, &dto.CreateAuditLogRequest{PatientID: patient.ID, VisitDate: "2024-03-04"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	locked, err := uc.Lock(ctx, created.ID, &dto.LockAuditLogRequest{Reason: "quarterly review"})
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if !locked.IsLocked || locked.LockedBy == nil || *locked.LockedBy != identity.UserID || locked.LockReason != "quarterly review" {
		t.Errorf("locked record = %+v", locked)
	}

	if _, err := uc.Update(ctx, created.ID, &dto.UpdateAuditLogRequest{VisitType: "new"}); !errors.Is(err, ErrAuditLocked) {
		t.Errorf("update after lock: err = %v", err)
	}
	if _, err := uc.Flag(ctx, created.ID, &dto.FlagAuditLogRequest{Reason: "late"}); !errors.Is(err, ErrAuditLocked) {
		t.Errorf("flag after lock: err = %v", err)
	}
	if _, err := uc.Lock(ctx, created.ID, &dto.LockAuditLogRequest{Reason: "again"}); !errors.Is(err, ErrAuditLocked) {
		t.Errorf("second lock: err = %v", err)
	}

	before := len(logs.items[created.ID].AuditEvents)
	exported, err := uc.Export(ctx, created.ID)
	if err != nil {
		t.Fatalf("Export of locked record: %v", err)
	}
	if exported.ExportedBy != identity.UserID || !exported.ExportedAt.Equal(apptNow) {
		t.Errorf("export header = %+v", exported)
	}
	if got := len(logs.items[created.ID].AuditEvents); got != before+1 {
		t.Errorf("events after export = %d, want %d", got, before+1)
	}
}

func TestAuditLogGetRecordsView(t *testing.T) {
	uc, logs, patient := newAuditFixture(t)
	ctx, _ := ctxAs(patient.ClinicID, entity.RoleDoctor)

	created, err := uc.Create(ctx, &dto.CreateAuditLogRequest{PatientID: patient.ID, VisitDate: "2024-03-04"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	flagged, err := uc.Flag(ctx, created.ID, &dto.FlagAuditLogRequest{Reason: "copay looks off"})
	if err != nil {
		t.Fatalf("Flag: %v", err)
	}
	if !flagged.FlaggedForReview || flagged.ReviewReason != "copay looks off" {
		t.Errorf("flagged = %+v", flagged)
	}

	got, err := uc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	last := got.AuditEvents[len(got.AuditEvents)-1]
	if last.Type != entity.AuditEventViewed || last.IPAddress != "10.0.0.1" {
		t.Errorf("view event = %+v", last)
	}
	if n := len(logs.items[created.ID].AuditEvents); n != 3 {
		t.Errorf("stored events = %d, want 3", n)
	}

	other, _ := ctxAs(uuid.New(), entity.RoleDoctor)
	if _, err := uc.Get(other, created.ID); !errors.Is(err, ErrAuditLogNotFound) {
		t.Errorf("cross-clinic get: err = %v", err)
	}
}

func TestComplianceFlagNamesOrder(t *testing.T) {
	names := complianceFlagNames(entity.ComplianceFlags{MissingDiagnosis: true, MissingSignature: true, CopayOverride: true})
	want := []string{FlagMissingSignature, FlagCopayOverride, FlagMissingDiagnosis}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}
