package entity

// PatientFilter is a domain-level filter for searching patients.
// Used by repository layer to avoid coupling with delivery DTOs.
type PatientFilter struct {
	Search string // name, record number, phone or email (ILIKE)
	Status PatientStatus
	Page   int
	Limit  int
}

// UserFilter is a domain-level filter for listing clinic staff.
type UserFilter struct {
	Role     string
	IsActive *bool
	Page     int
	Limit    int
}

// Pagination defaults
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Normalize clamps page and limit into their allowed ranges.
func Normalize(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Offset returns the row offset of a normalized page.
func Offset(page, limit int) int {
	return (page - 1) * limit
}
