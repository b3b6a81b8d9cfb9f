package entity

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Audit actions
const (
	AuditActionVisitDocumentation = "visit_documentation"
	AuditActionManualBonusPayout  = "manual_bonus_payout"
)

// Audit event types
const (
	AuditEventCreated  = "created"
	AuditEventViewed   = "viewed"
	AuditEventModified = "modified"
	AuditEventFlagged  = "flagged"
	AuditEventExported = "exported"
	AuditEventLocked   = "locked"
)

// LateDocumentationThreshold is the allowed gap between a visit and its first documentation.
const LateDocumentationThreshold = 24 * time.Hour

// AuditLog is the compliance record of one visit, or the trail of a referral payout.
type AuditLog struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ClinicID         uuid.UUID         `gorm:"type:uuid;not null;index" json:"clinic_id"`
	Action           string            `gorm:"type:varchar(50);not null;index" json:"action"`
	PatientID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	AppointmentID    *uuid.UUID        `gorm:"type:uuid;index" json:"appointment_id,omitempty"`
	LedgerID         *uuid.UUID        `gorm:"type:uuid" json:"ledger_id,omitempty"`
	ProviderID       *uuid.UUID        `gorm:"type:uuid" json:"provider_id,omitempty"`
	VisitDate        string            `gorm:"type:varchar(10);not null;index" json:"visit_date"`
	VisitTime        string            `gorm:"type:varchar(5)" json:"visit_time,omitempty"`
	VisitType        string            `gorm:"type:varchar(30)" json:"visit_type,omitempty"`
	BillingCodes     BillingLineItems  `gorm:"type:jsonb" json:"billing_codes"`
	DiagnosticCodes  DiagnosticEntries `gorm:"type:jsonb" json:"diagnostic_codes"`
	SOAP             SOAPSections      `gorm:"embedded;embeddedPrefix:soap_" json:"soap"`
	Signature        Signature         `gorm:"embedded;embeddedPrefix:signature_" json:"signature"`
	Payment          PaymentDetails    `gorm:"type:jsonb" json:"payment"`
	ComplianceFlags  ComplianceFlags   `gorm:"embedded;embeddedPrefix:flag_" json:"compliance_flags"`
	FlaggedForReview bool              `gorm:"not null;default:false" json:"flagged_for_review"`
	ReviewReason     string            `gorm:"type:text" json:"review_reason,omitempty"`
	AuditEvents      AuditEvents       `gorm:"type:jsonb" json:"audit_events"`
	IsLocked         bool              `gorm:"not null;default:false;index" json:"is_locked"`
	LockedBy         *uuid.UUID        `gorm:"type:uuid" json:"locked_by,omitempty"`
	LockedAt         *time.Time        `json:"locked_at,omitempty"`
	LockReason       string            `gorm:"type:text" json:"lock_reason,omitempty"`
	FirstSavedAt     *time.Time        `json:"first_saved_at,omitempty"`
	Metadata         JSON              `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedBy        *uuid.UUID        `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt        time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// VisitLocation is the clinic's zone, used to place the visit in time. UTC when nil.
	VisitLocation *time.Location `gorm:"-" json:"-"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// BeforeSave keeps compliance flags current on every write.
func (a *AuditLog) BeforeSave(tx *gorm.DB) error {
	a.RecomputeComplianceFlags(time.Now())
	return nil
}

// RecomputeComplianceFlags derives every flag from the record's content.
// lateDocumentation is decided on the first save and kept afterwards.
// Only visit documentation carries flags.
func (a *AuditLog) RecomputeComplianceFlags(now time.Time) {
	if a.Action != AuditActionVisitDocumentation {
		a.ComplianceFlags = ComplianceFlags{}
		if a.FirstSavedAt == nil {
			saved := now
			a.FirstSavedAt = &saved
		}
		return
	}

	f := &a.ComplianceFlags
	f.MissingSignature = a.Signature.IsEmpty()

	empty := a.SOAP.EmptySections()
	f.MissingNotes = empty == soapSectionCount
	f.IncompleteSOAP = empty > 0 && empty < soapSectionCount

	f.CopayOverride = false
	if o := a.Payment.CopayOverride; o != nil {
		f.CopayOverride = !o.OriginalAmount.Equal(o.NewAmount)
	}

	f.MissingDiagnosis = len(a.DiagnosticCodes) == 0

	if a.FirstSavedAt == nil {
		saved := now
		a.FirstSavedAt = &saved
		visit, ok := a.visitInstant()
		f.LateDocumentation = ok && now.Sub(visit) > LateDocumentationThreshold
	}
}

// visitInstant reads VisitDate and VisitTime as wall clock in VisitLocation.
func (a *AuditLog) visitInstant() (time.Time, bool) {
	clock := a.VisitTime
	if clock == "" {
		clock = "00:00"
	}
	loc := a.VisitLocation
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout+" "+ClockLayout, a.VisitDate+" "+clock, loc)
	return t, err == nil
}

// AppendEvent adds an entry to the event trail. Existing entries are never touched.
func (a *AuditLog) AppendEvent(ev AuditEvent) {
	a.AuditEvents = append(a.AuditEvents, ev)
}

// Lock makes the record immutable. There is no unlock.
func (a *AuditLog) Lock(actor uuid.UUID, reason string, now time.Time) {
	a.IsLocked = true
	a.LockedBy = &actor
	a.LockedAt = &now
	a.LockReason = reason
}

// SOAPSections holds the four SOAP note sections.
type SOAPSections struct {
	Subjective string `gorm:"type:text" json:"subjective"`
	Objective  string `gorm:"type:text" json:"objective"`
	Assessment string `gorm:"type:text" json:"assessment"`
	Plan       string `gorm:"type:text" json:"plan"`
}

const soapSectionCount = 4

// EmptySections counts blank sections.
func (s SOAPSections) EmptySections() int {
	n := 0
	for _, v := range []string{s.Subjective, s.Objective, s.Assessment, s.Plan} {
		if strings.TrimSpace(v) == "" {
			n++
		}
	}
	return n
}

type DiagnosticEntry struct {
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	IsPrimary   bool   `json:"is_primary"`
}

type DiagnosticEntries []DiagnosticEntry

func (d DiagnosticEntries) Value() (driver.Value, error)  { return jsonValue(d) }
func (d *DiagnosticEntries) Scan(value interface{}) error { return jsonScan(d, value) }

type CopayOverride struct {
	OriginalAmount decimal.Decimal `json:"original_amount"`
	NewAmount      decimal.Decimal `json:"new_amount"`
	Reason         string          `json:"reason,omitempty"`
	ApprovedBy     *uuid.UUID      `json:"approved_by,omitempty"`
}

type PaymentDetails struct {
	Method        string          `json:"method,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Balance       decimal.Decimal `json:"balance"`
	CopayOverride *CopayOverride  `json:"copay_override,omitempty"`
}

func (p PaymentDetails) Value() (driver.Value, error)  { return jsonValue(p) }
func (p *PaymentDetails) Scan(value interface{}) error { return jsonScan(p, value) }

// ComplianceFlags are derived, never set by clients.
type ComplianceFlags struct {
	MissingSignature  bool `gorm:"not null;default:false" json:"missing_signature"`
	MissingNotes      bool `gorm:"not null;default:false" json:"missing_notes"`
	IncompleteSOAP    bool `gorm:"column:incomplete_soap;not null;default:false" json:"incomplete_soap"`
	CopayOverride     bool `gorm:"not null;default:false" json:"copay_override"`
	LateDocumentation bool `gorm:"not null;default:false" json:"late_documentation"`
	MissingDiagnosis  bool `gorm:"not null;default:false" json:"missing_diagnosis"`
}

// Any reports whether at least one flag is raised.
func (f ComplianceFlags) Any() bool {
	return f.MissingSignature || f.MissingNotes || f.IncompleteSOAP ||
		f.CopayOverride || f.LateDocumentation || f.MissingDiagnosis
}

type AuditEvent struct {
	Type      string     `json:"type"`
	Actor     *uuid.UUID `json:"actor,omitempty"`
	ActorName string     `json:"actor_name,omitempty"`
	IPAddress string     `json:"ip_address,omitempty"`
	UserAgent string     `json:"user_agent,omitempty"`
	Changes   JSON       `json:"changes,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	At        time.Time  `json:"at"`
}

type AuditEvents []AuditEvent

func (e AuditEvents) Value() (driver.Value, error)  { return jsonValue(e) }
func (e *AuditEvents) Scan(value interface{}) error { return jsonScan(e, value) }

// AuditFilter is a domain-level filter for listing audit logs.
type AuditFilter struct {
	PatientID   *uuid.UUID
	Action      string
	FlaggedOnly bool
	DateFrom    string
	DateTo      string
	Page        int
	Limit       int
}

// ComplianceReport counts raised flags over a set of records.
type ComplianceReport struct {
	DateFrom          string `json:"date_from,omitempty"`
	DateTo            string `json:"date_to,omitempty"`
	TotalRecords      int64  `json:"total_records"`
	FlaggedRecords    int64  `json:"flagged_records"`
	LockedRecords     int64  `json:"locked_records"`
	MissingSignature  int64  `json:"missing_signature"`
	MissingNotes      int64  `json:"missing_notes"`
	IncompleteSOAP    int64  `json:"incomplete_soap"`
	CopayOverride     int64  `json:"copay_override"`
	LateDocumentation int64  `json:"late_documentation"`
	MissingDiagnosis  int64  `json:"missing_diagnosis"`
	ReviewRequested   int64  `json:"review_requested"`
}
