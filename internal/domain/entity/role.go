package entity

import (
	"database/sql/driver"
)

// Role names
const (
	RoleSuperuser = "superuser"
	RoleAdmin     = "admin"
	RoleDoctor    = "doctor"
	RoleSecretary = "secretary"
)

// IsValidRole reports whether role can be assigned to a clinic user.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleDoctor, RoleSecretary:
		return true
	}
	return false
}

// Permissions are the per-user capability flags. Defaults come from the role.
type Permissions struct {
	ManageUsers        bool `json:"manage_users"`
	ManagePatients     bool `json:"manage_patients"`
	ManageAppointments bool `json:"manage_appointments"`
	ManageBilling      bool `json:"manage_billing"`
	ViewReports        bool `json:"view_reports"`
	ManageSettings     bool `json:"manage_settings"`
	SignNotes          bool `json:"sign_notes"`
}

func (p Permissions) Value() (driver.Value, error)  { return jsonValue(p) }
func (p *Permissions) Scan(value interface{}) error { return jsonScan(p, value) }

// DefaultPermissions derives the permission set for a role.
func DefaultPermissions(role string) Permissions {
	switch role {
	case RoleSuperuser, RoleAdmin:
		return Permissions{
			ManageUsers:        true,
			ManagePatients:     true,
			ManageAppointments: true,
			ManageBilling:      true,
			ViewReports:        true,
			ManageSettings:     true,
			SignNotes:          role == RoleAdmin,
		}
	case RoleDoctor:
		return Permissions{
			ManagePatients:     true,
			ManageAppointments: true,
			ManageBilling:      true,
			ViewReports:        true,
			SignNotes:          true,
		}
	case RoleSecretary:
		return Permissions{
			ManagePatients:     true,
			ManageAppointments: true,
			ManageBilling:      true,
		}
	default:
		return Permissions{}
	}
}
