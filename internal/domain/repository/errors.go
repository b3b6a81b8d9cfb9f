package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// ErrRecordLocked is returned when an update targets a locked or signed record.
var ErrRecordLocked = errors.New("record is locked")

// Unique constraints the usecases translate into conflicts.
const (
	ConstraintAppointmentSlot = "idx_appointments_slot"
	ConstraintActiveLedger    = "idx_ledgers_active_appointment"
	ConstraintPatientRecord   = "idx_patients_clinic_record"
	ConstraintUserEmail       = "idx_users_clinic_email"
	ConstraintUserUsername    = "idx_users_clinic_username"
	ConstraintClinicCode      = "clinics_code_key"
	ConstraintClinicEmail     = "clinics_email_key"
	ConstraintSOAPAppointment = "soap_notes_appointment_id_key"
)

// UniqueViolation reports whether err is a PostgreSQL unique violation and
// returns the violated constraint.
func UniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// IsUniqueViolationOf reports whether err violates the named constraint.
func IsUniqueViolationOf(err error, constraint string) bool {
	name, ok := UniqueViolation(err)
	return ok && name == constraint
}
