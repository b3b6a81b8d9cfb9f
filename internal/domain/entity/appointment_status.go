package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "scheduled"
	StatusCheckedIn  AppointmentStatus = "checked-in"
	StatusInProgress AppointmentStatus = "in-progress"
	StatusCheckedOut AppointmentStatus = "checked-out"
	StatusCancelled  AppointmentStatus = "cancelled"
	StatusNoShow     AppointmentStatus = "no-show"
)

// IsTerminal reports whether no further transition can leave the status.
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCheckedOut || s == StatusCancelled || s == StatusNoShow
}

// IsValid reports whether s is a known status.
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusCheckedIn, StatusInProgress, StatusCheckedOut, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Action is a named lifecycle operation.
type Action string

const (
	ActionCheckIn    Action = "check in"
	ActionUncheck    Action = "uncheck"
	ActionStart      Action = "start"
	ActionCheckout   Action = "check out"
	ActionCancel     Action = "cancel"
	ActionNoShow     Action = "mark no-show"
	ActionReschedule Action = "reschedule"
	ActionDelete     Action = "delete"
)

type transitionRule struct {
	from   []AppointmentStatus
	target AppointmentStatus
}

// transitions is the guard table. Delete has no target; the row is removed.
var transitions = map[Action]transitionRule{
	ActionCheckIn:    {from: []AppointmentStatus{StatusScheduled}, target: StatusCheckedIn},
	ActionUncheck:    {from: []AppointmentStatus{StatusCheckedIn}, target: StatusScheduled},
	ActionStart:      {from: []AppointmentStatus{StatusCheckedIn}, target: StatusInProgress},
	ActionCheckout:   {from: []AppointmentStatus{StatusCheckedIn, StatusInProgress}, target: StatusCheckedOut},
	ActionCancel:     {from: []AppointmentStatus{StatusScheduled, StatusCheckedIn, StatusInProgress}, target: StatusCancelled},
	ActionNoShow:     {from: []AppointmentStatus{StatusScheduled, StatusCheckedIn}, target: StatusNoShow},
	ActionReschedule: {from: []AppointmentStatus{StatusScheduled}, target: StatusScheduled},
	ActionDelete:     {from: []AppointmentStatus{StatusScheduled}},
}

// StatusTransitionError is returned when an action is not allowed from the
// appointment's current status.
type StatusTransitionError struct {
	Action        Action
	CurrentStatus AppointmentStatus
}

func (e *StatusTransitionError) Error() string {
	return fmt.Sprintf("Cannot %s appointment with status: %s", e.Action, e.CurrentStatus)
}

// CanApply reports whether action is allowed from status.
func CanApply(action Action, status AppointmentStatus) bool {
	rule, ok := transitions[action]
	if !ok {
		return false
	}
	for _, s := range rule.from {
		if s == status {
			return true
		}
	}
	return false
}

// ActionForStatus maps a requested target status onto the guarded action
// that reaches it. Checked-out is not reachable this way.
func ActionForStatus(target AppointmentStatus) (Action, bool) {
	switch target {
	case StatusCheckedIn:
		return ActionCheckIn, true
	case StatusScheduled:
		return ActionUncheck, true
	case StatusInProgress:
		return ActionStart, true
	case StatusCancelled:
		return ActionCancel, true
	case StatusNoShow:
		return ActionNoShow, true
	}
	return "", false
}

// TransitionInput carries the optional data some actions record.
type TransitionInput struct {
	Actor  uuid.UUID
	Now    time.Time
	Reason string
}

// Transition applies action to the appointment, enforcing the guard table and
// stamping the timestamps each action owns. It is the only place that writes Status.
func (a *Appointment) Transition(action Action, in TransitionInput) error {
	if !CanApply(action, a.Status) {
		return &StatusTransitionError{Action: action, CurrentStatus: a.Status}
	}
	now := in.Now
	switch action {
	case ActionCheckIn:
		a.CheckInTime = &now
	case ActionUncheck:
		a.CheckInTime = nil
	case ActionStart:
		a.ActualStartTime = &now
	case ActionCheckout:
		a.CheckOutTime = &now
		a.ActualEndTime = &now
		if a.ActualStartTime == nil {
			a.ActualStartTime = a.CheckInTime
		}
	case ActionCancel:
		actor := in.Actor
		a.CancelledBy = &actor
		a.CancelledAt = &now
		a.CancelReason = in.Reason
	}
	if target := transitions[action].target; target != "" {
		a.Status = target
	}
	a.Touch(in.Actor, now)
	return nil
}

// CheckInWalkIn starts a new appointment directly in checked-in.
func (a *Appointment) CheckInWalkIn(actor uuid.UUID, now time.Time) {
	a.IsWalkIn = true
	a.Status = StatusCheckedIn
	a.CheckInTime = &now
	a.Touch(actor, now)
}
