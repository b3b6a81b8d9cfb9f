package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCarePackageUseSession(t *testing.T) {
	pkg := &CarePackage{TotalSessions: 2, RemainingSessions: 2, Status: CarePackageActive}
	use := SessionUse{UsedBy: uuid.New(), UsedAt: time.Now()}

	if err := pkg.UseSession(use); err != nil {
		t.Fatalf("first session: %v", err)
	}
	if pkg.RemainingSessions != 1 || pkg.Status != CarePackageActive || len(pkg.SessionHistory) != 1 {
		t.Fatalf("unexpected state after first session: %+v", pkg)
	}

	if err := pkg.UseSession(use); err != nil {
		t.Fatalf("last session: %v", err)
	}
	if pkg.RemainingSessions != 0 || pkg.Status != CarePackageCompleted {
		t.Fatalf("package should complete at zero, got %+v", pkg)
	}
	if pkg.UsedSessions() != 2 {
		t.Errorf("UsedSessions = %d, want 2", pkg.UsedSessions())
	}

	err := pkg.UseSession(use)
	if !errors.Is(err, ErrNoSessionsRemaining) {
		t.Fatalf("expected ErrNoSessionsRemaining, got %v", err)
	}
	if pkg.RemainingSessions != 0 || len(pkg.SessionHistory) != 2 {
		t.Errorf("failed use must not change the package: %+v", pkg)
	}
}

func TestCarePackageOneSessionPerAppointment(t *testing.T) {
	pkg := &CarePackage{TotalSessions: 3, RemainingSessions: 3, Status: CarePackageActive}
	apptID := uuid.New()

	if err := pkg.UseSession(SessionUse{AppointmentID: &apptID, UsedAt: time.Now()}); err != nil {
		t.Fatalf("first use: %v", err)
	}
	if !pkg.SessionHistory.Covers(apptID) {
		t.Fatal("history does not cover the appointment")
	}

	err := pkg.UseSession(SessionUse{AppointmentID: &apptID, UsedAt: time.Now()})
	if !errors.Is(err, ErrSessionAlreadyUsed) {
		t.Fatalf("second use: err = %v, want ErrSessionAlreadyUsed", err)
	}
	if pkg.RemainingSessions != 2 || len(pkg.SessionHistory) != 1 {
		t.Errorf("refused use changed the package: %+v", pkg)
	}

	other := uuid.New()
	if err := pkg.UseSession(SessionUse{AppointmentID: &other, UsedAt: time.Now()}); err != nil {
		t.Errorf("different appointment: %v", err)
	}
}

func TestCarePackageUseSessionRejectsInactive(t *testing.T) {
	for _, status := range []CarePackageStatus{CarePackageCancelled, CarePackageExpired} {
		pkg := &CarePackage{TotalSessions: 5, RemainingSessions: 3, Status: status}
		if err := pkg.UseSession(SessionUse{}); !errors.Is(err, ErrPackageNotActive) {
			t.Errorf("status %q: expected ErrPackageNotActive, got %v", status, err)
		}
		if pkg.RemainingSessions != 3 {
			t.Errorf("status %q: sessions changed to %d", status, pkg.RemainingSessions)
		}
	}
}

func TestCarePackageIsExpired(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	if (&CarePackage{}).IsExpired(now) {
		t.Error("package without expiry never expires")
	}
	if !(&CarePackage{ExpiryDate: &past}).IsExpired(now) {
		t.Error("past expiry should be expired")
	}
	if (&CarePackage{ExpiryDate: &future}).IsExpired(now) {
		t.Error("future expiry should not be expired")
	}
}
