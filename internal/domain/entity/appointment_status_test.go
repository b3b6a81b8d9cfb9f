package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

var allStatuses = []AppointmentStatus{
	StatusScheduled, StatusCheckedIn, StatusInProgress,
	StatusCheckedOut, StatusCancelled, StatusNoShow,
}

func TestCanApply(t *testing.T) {
	allowed := map[Action][]AppointmentStatus{
		ActionCheckIn:    {StatusScheduled},
		ActionUncheck:    {StatusCheckedIn},
		ActionStart:      {StatusCheckedIn},
		ActionCheckout:   {StatusCheckedIn, StatusInProgress},
		ActionCancel:     {StatusScheduled, StatusCheckedIn, StatusInProgress},
		ActionNoShow:     {StatusScheduled, StatusCheckedIn},
		ActionReschedule: {StatusScheduled},
		ActionDelete:     {StatusScheduled},
	}

	for action, from := range allowed {
		for _, status := range allStatuses {
			want := false
			for _, s := range from {
				if s == status {
					want = true
				}
			}
			if got := CanApply(action, status); got != want {
				t.Errorf("CanApply(%q, %q) = %v, want %v", action, status, got, want)
			}
		}
	}

	if CanApply(Action("teleport"), StatusScheduled) {
		t.Error("unknown action must never be allowed")
	}
}

func TestTerminalStatusesRejectEveryAction(t *testing.T) {
	actions := []Action{ActionCheckIn, ActionUncheck, ActionStart, ActionCheckout, ActionCancel, ActionNoShow, ActionReschedule, ActionDelete}
	for _, status := range []AppointmentStatus{StatusCheckedOut, StatusCancelled, StatusNoShow} {
		if !status.IsTerminal() {
			t.Fatalf("%q should be terminal", status)
		}
		for _, action := range actions {
			if CanApply(action, status) {
				t.Errorf("%q allowed from terminal status %q", action, status)
			}
		}
	}
}

func TestTransitionStampsTimestamps(t *testing.T) {
	actor := uuid.New()
	now := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
	appt := &Appointment{Status: StatusScheduled}

	if err := appt.Transition(ActionCheckIn, TransitionInput{Actor: actor, Now: now}); err != nil {
		t.Fatalf("check in: %v", err)
	}
	if appt.Status != StatusCheckedIn || appt.CheckInTime == nil || !appt.CheckInTime.Equal(now) {
		t.Fatalf("unexpected state after check in: %+v", appt)
	}
	if appt.LastModifiedBy == nil || *appt.LastModifiedBy != actor {
		t.Errorf("LastModifiedBy = %v, want %v", appt.LastModifiedBy, actor)
	}

	if err := appt.Transition(ActionUncheck, TransitionInput{Actor: actor, Now: now}); err != nil {
		t.Fatalf("uncheck: %v", err)
	}
	if appt.Status != StatusScheduled || appt.CheckInTime != nil {
		t.Fatalf("uncheck must clear check-in time, got %+v", appt)
	}

	later := now.Add(45 * time.Minute)
	_ = appt.Transition(ActionCheckIn, TransitionInput{Actor: actor, Now: now})
	if err := appt.Transition(ActionCheckout, TransitionInput{Actor: actor, Now: later}); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if appt.Status != StatusCheckedOut {
		t.Fatalf("status = %q, want checked-out", appt.Status)
	}
	if appt.ActualStartTime == nil || !appt.ActualStartTime.Equal(now) {
		t.Errorf("checkout without start should fall back to check-in time, got %v", appt.ActualStartTime)
	}
	if appt.CheckOutTime == nil || !appt.CheckOutTime.Equal(later) || appt.ActualEndTime == nil {
		t.Errorf("checkout times not stamped: %+v", appt)
	}
}

func TestTransitionCancelRecordsActorAndReason(t *testing.T) {
	actor := uuid.New()
	now := time.Now()
	appt := &Appointment{Status: StatusInProgress}

	if err := appt.Transition(ActionCancel, TransitionInput{Actor: actor, Now: now, Reason: "patient unwell"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if appt.Status != StatusCancelled || appt.CancelReason != "patient unwell" {
		t.Fatalf("unexpected state: %+v", appt)
	}
	if appt.CancelledBy == nil || *appt.CancelledBy != actor || appt.CancelledAt == nil {
		t.Errorf("cancel metadata not recorded: %+v", appt)
	}
}

func TestTransitionRejectedLeavesAppointmentUntouched(t *testing.T) {
	appt := &Appointment{Status: StatusCheckedOut}

	err := appt.Transition(ActionCheckIn, TransitionInput{Actor: uuid.New(), Now: time.Now()})

	var transitionErr *StatusTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected StatusTransitionError, got %v", err)
	}
	if transitionErr.CurrentStatus != StatusCheckedOut {
		t.Errorf("CurrentStatus = %q", transitionErr.CurrentStatus)
	}
	if want := "Cannot check in appointment with status: checked-out"; err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
	if appt.CheckInTime != nil || appt.LastModifiedBy != nil {
		t.Errorf("rejected transition mutated appointment: %+v", appt)
	}
}

func TestSystemTransitionClearsModifier(t *testing.T) {
	user := uuid.New()
	appt := &Appointment{Status: StatusScheduled, LastModifiedBy: &user}

	if err := appt.Transition(ActionNoShow, TransitionInput{Now: time.Now()}); err != nil {
		t.Fatalf("no-show: %v", err)
	}
	if appt.LastModifiedBy != nil {
		t.Errorf("system action should leave no modifier, got %v", appt.LastModifiedBy)
	}
}

func TestActionForStatus(t *testing.T) {
	tests := []struct {
		target AppointmentStatus
		want   Action
		ok     bool
	}{
		{StatusCheckedIn, ActionCheckIn, true},
		{StatusScheduled, ActionUncheck, true},
		{StatusInProgress, ActionStart, true},
		{StatusCancelled, ActionCancel, true},
		{StatusNoShow, ActionNoShow, true},
		{StatusCheckedOut, "", false},
		{AppointmentStatus("bogus"), "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.target), func(t *testing.T) {
			got, ok := ActionForStatus(tt.target)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ActionForStatus(%q) = (%q, %v), want (%q, %v)", tt.target, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestWalkInStartsCheckedIn(t *testing.T) {
	now := time.Now()
	appt := &Appointment{}
	appt.CheckInWalkIn(uuid.New(), now)

	if !appt.IsWalkIn || appt.Status != StatusCheckedIn || appt.CheckInTime == nil {
		t.Fatalf("walk-in not checked in: %+v", appt)
	}
	if !appt.OccupiesSlot() {
		t.Error("walk-in should occupy its slot")
	}
}
