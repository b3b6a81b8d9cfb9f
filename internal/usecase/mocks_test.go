package usecase

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"clinic-management-api/internal/delivery/http/middleware"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var errDatabase = errors.New("database unavailable")

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func ctxAs(clinicID uuid.UUID, role string) (context.Context, middleware.Identity) {
	identity := middleware.Identity{
		UserID:   uuid.New(),
		ClinicID: &clinicID,
		Role:     role,
		Username: "tester",
		IP:       "10.0.0.1",
	}
	return middleware.ContextWithIdentity(context.Background(), identity), identity
}

// fakeTx runs units of work without a database. Rollback is not simulated.
type fakeTx struct {
	calls int
}

func (f *fakeTx) DB(ctx context.Context) *gorm.DB { return nil }

func (f *fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	f.calls++
	return fn(nil)
}

type recordedHistory struct {
	mu      sync.Mutex
	entries []service.HistoryEntry
}

func (h *recordedHistory) Record(ctx context.Context, db *gorm.DB, entry service.HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry)
}

func (h *recordedHistory) last() service.HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[len(h.entries)-1]
}

type stubSlotLocker struct {
	err      error
	released int
}

func (s *stubSlotLocker) Acquire(ctx context.Context, clinicID uuid.UUID, date, clock string) (func(), error) {
	if s.err != nil {
		return nil, s.err
	}
	return func() { s.released++ }, nil
}

// Appointments

type mockAppointmentRepo struct {
	items     map[uuid.UUID]entity.Appointment
	createErr error
	updateErr error
	reminded  map[uuid.UUID]time.Time
	// zones maps a clinic to its time zone. Unlisted clinics are UTC.
	zones map[uuid.UUID]string
}

func newMockAppointmentRepo(appts ...entity.Appointment) *mockAppointmentRepo {
	r := &mockAppointmentRepo{items: map[uuid.UUID]entity.Appointment{}, reminded: map[uuid.UUID]time.Time{}}
	for _, a := range appts {
		r.items[a.ID] = a
	}
	return r
}

func (r *mockAppointmentRepo) get(id uuid.UUID) entity.Appointment {
	return r.items[id]
}

func (r *mockAppointmentRepo) Create(db *gorm.DB, a *entity.Appointment) error {
	if r.createErr != nil {
		return r.createErr
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.items[a.ID] = *a
	return nil
}

func (r *mockAppointmentRepo) FindByID(db *gorm.DB, clinicID, id uuid.UUID) (*entity.Appointment, error) {
	a, ok := r.items[id]
	if !ok || a.ClinicID != clinicID {
		return nil, nil
	}
	return &a, nil
}

func (r *mockAppointmentRepo) FindByIDForUpdate(db *gorm.DB, clinicID, id uuid.UUID) (*entity.Appointment, error) {
	return r.FindByID(db, clinicID, id)
}

func (r *mockAppointmentRepo) FindAll(db *gorm.DB, clinicID uuid.UUID, filter entity.AppointmentFilter) ([]entity.Appointment, int64, error) {
	var out []entity.Appointment
	for _, a := range r.items {
		if a.ClinicID != clinicID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (r *mockAppointmentRepo) FindByDate(db *gorm.DB, clinicID uuid.UUID, date string) ([]entity.Appointment, error) {
	var out []entity.Appointment
	for _, a := range r.items {
		if a.ClinicID == clinicID && a.Date == date {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *mockAppointmentRepo) Update(db *gorm.DB, a *entity.Appointment) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.items[a.ID] = *a
	return nil
}

func (r *mockAppointmentRepo) Delete(db *gorm.DB, clinicID, id uuid.UUID) error {
	delete(r.items, id)
	return nil
}

func (r *mockAppointmentRepo) ExistsInSlot(db *gorm.DB, clinicID uuid.UUID, date, clock string, excludeID *uuid.UUID) (bool, error) {
	for _, a := range r.items {
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.ClinicID == clinicID && a.Date == date && a.Time == clock && a.OccupiesSlot() {
			return true, nil
		}
	}
	return false, nil
}

func (r *mockAppointmentRepo) CountByStatus(db *gorm.DB, clinicID uuid.UUID, dateFrom, dateTo string) ([]entity.StatusCount, error) {
	counts := map[[2]string]int64{}
	for _, a := range r.items {
		if a.ClinicID == clinicID && a.Date >= dateFrom && a.Date <= dateTo {
			counts[[2]string{a.Date, string(a.Status)}]++
		}
	}
	var out []entity.StatusCount
	for k, n := range counts {
		out = append(out, entity.StatusCount{Date: k[0], Status: entity.AppointmentStatus(k[1]), Count: n})
	}
	return out, nil
}

func (r *mockAppointmentRepo) zoneOf(clinicID uuid.UUID) string {
	if zone, ok := r.zones[clinicID]; ok {
		return zone
	}
	return "UTC"
}

func (r *mockAppointmentRepo) FindOverdueScheduled(db *gorm.DB, timeZone, before string, limit int) ([]entity.Appointment, error) {
	var out []entity.Appointment
	for _, a := range r.items {
		if r.zoneOf(a.ClinicID) == timeZone && a.Status == entity.StatusScheduled && a.Date < before && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *mockAppointmentRepo) FindForReminder(db *gorm.DB, timeZone, date string) ([]entity.Appointment, error) {
	var out []entity.Appointment
	for _, a := range r.items {
		if r.zoneOf(a.ClinicID) == timeZone && a.Status == entity.StatusScheduled && a.Date == date && a.ReminderSentAt == nil {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *mockAppointmentRepo) MarkReminderSent(db *gorm.DB, id uuid.UUID, at time.Time) error {
	r.reminded[id] = at
	a := r.items[id]
	a.ReminderSentAt = &at
	r.items[id] = a
	return nil
}

type mockHistoryRepo struct {
	rows []entity.AppointmentHistory
}

func (r *mockHistoryRepo) Create(db *gorm.DB, h *entity.AppointmentHistory) error {
	r.rows = append(r.rows, *h)
	return nil
}

func (r *mockHistoryRepo) FindByAppointment(db *gorm.DB, clinicID, appointmentID uuid.UUID) ([]entity.AppointmentHistory, error) {
	var out []entity.AppointmentHistory
	for _, h := range r.rows {
		if h.ClinicID == clinicID && h.AppointmentID == appointmentID {
			out = append(out, h)
		}
	}
	return out, nil
}

// Patients, users and clinics

type mockPatientRepo struct {
	items map[uuid.UUID]entity.Patient
	err   error
}

func newMockPatientRepo(patients ...entity.Patient) *mockPatientRepo {
	r := &mockPatientRepo{items: map[uuid.UUID]entity.Patient{}}
	for _, p := range patients {
		r.items[p.ID] = p
	}
	return r
}

func (r *mockPatientRepo) Create(db *gorm.DB, p *entity.Patient) error {
	if r.err != nil {
		return r.err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.items[p.ID] = *p
	return nil
}

func (r *mockPatientRepo) FindByID(db *gorm.DB, clinicID, id uuid.UUID) (*entity.Patient, error) {
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.items[id]
	if !ok || p.ClinicID != clinicID {
		return nil, nil
	}
	return &p, nil
}

func (r *mockPatientRepo) FindByIDForUpdate(db *gorm.DB, clinicID, id uuid.UUID) (*entity.Patient, error) {
	return r.FindByID(db, clinicID, id)
}

func (r *mockPatientRepo) FindAll(db *gorm.DB, clinicID uuid.UUID, filter entity.PatientFilter) ([]entity.Patient, int64, error) {
	var out []entity.Patient
	for _, p := range r.items {
		if p.ClinicID == clinicID {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *mockPatientRepo) Update(db *gorm.DB, p *entity.Patient) error {
	r.items[p.ID] = *p
	return nil
}

func (r *mockPatientRepo) CountByRecordPrefix(db *gorm.DB, clinicID uuid.UUID, prefix string) (int64, error) {
	return int64(len(r.items)), nil
}

type mockUserRepo struct {
	items     map[uuid.UUID]entity.User
	lastLogin map[uuid.UUID]time.Time
	findErr   error
	delay     time.Duration
}

func newMockUserRepo(users ...entity.User) *mockUserRepo {
	r := &mockUserRepo{items: map[uuid.UUID]entity.User{}, lastLogin: map[uuid.UUID]time.Time{}}
	for _, u := range users {
		r.items[u.ID] = u
	}
	return r
}

func (r *mockUserRepo) Create(db *gorm.DB, u *entity.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.items[u.ID] = *u
	return nil
}

func (r *mockUserRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.User, error) {
	u, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *mockUserRepo) FindByIDInClinic(db *gorm.DB, clinicID, id uuid.UUID) (*entity.User, error) {
	u, ok := r.items[id]
	if !ok || u.ClinicID == nil || *u.ClinicID != clinicID {
		return nil, nil
	}
	return &u, nil
}

func (r *mockUserRepo) FindByLogin(db *gorm.DB, clinicID *uuid.UUID, identifier string) (*entity.User, error) {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.items {
		sameClinic := (clinicID == nil && u.ClinicID == nil) ||
			(clinicID != nil && u.ClinicID != nil && *clinicID == *u.ClinicID)
		if sameClinic && (u.Username == identifier || u.Email == identifier) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *mockUserRepo) FindAll(db *gorm.DB, clinicID uuid.UUID, filter entity.UserFilter) ([]entity.User, int64, error) {
	var out []entity.User
	for _, u := range r.items {
		if u.ClinicID != nil && *u.ClinicID == clinicID {
			out = append(out, u)
		}
	}
	return out, int64(len(out)), nil
}

func (r *mockUserRepo) Update(db *gorm.DB, u *entity.User) error {
	r.items[u.ID] = *u
	return nil
}

func (r *mockUserRepo) UpdateLastLogin(db *gorm.DB, id uuid.UUID, at time.Time) error {
	r.lastLogin[id] = at
	return nil
}

type mockClinicRepo struct {
	items map[uuid.UUID]entity.Clinic
}

func newMockClinicRepo(clinics ...entity.Clinic) *mockClinicRepo {
	r := &mockClinicRepo{items: map[uuid.UUID]entity.Clinic{}}
	for _, c := range clinics {
		r.items[c.ID] = c
	}
	return r
}

func (r *mockClinicRepo) Create(db *gorm.DB, c *entity.Clinic) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.items[c.ID] = *c
	return nil
}

func (r *mockClinicRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Clinic, error) {
	c, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *mockClinicRepo) FindByCode(db *gorm.DB, code string) (*entity.Clinic, error) {
	for _, c := range r.items {
		if c.Code == code {
			return &c, nil
		}
	}
	return nil, nil
}

func (r *mockClinicRepo) FindAll(db *gorm.DB, page, limit int) ([]entity.Clinic, int64, error) {
	var out []entity.Clinic
	for _, c := range r.items {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (r *mockClinicRepo) Update(db *gorm.DB, c *entity.Clinic) error {
	r.items[c.ID] = *c
	return nil
}

func (r *mockClinicRepo) FindTimeZones(db *gorm.DB) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, c := range r.items {
		if c.IsActive && !seen[c.TimeZone] {
			seen[c.TimeZone] = true
			out = append(out, c.TimeZone)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Billing

type mockCarePackageRepo struct {
	items map[uuid.UUID]entity.CarePackage
}

func newMockCarePackageRepo(pkgs ...entity.CarePackage) *mockCarePackageRepo {
	r := &mockCarePackageRepo{items: map[uuid.UUID]entity.CarePackage{}}
	for _, p := range pkgs {
		r.items[p.ID] = p
	}
	return r
}

func (r *mockCarePackageRepo) Create(db *gorm.DB, p *entity.CarePackage) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.items[p.ID] = *p
	return nil
}

func (r *mockCarePackageRepo) FindByID(db *gorm.DB, clinicID, id uuid.UUID) (*entity.CarePackage, error) {
	p, ok := r.items[id]
	if !ok || p.ClinicID != clinicID {
		return nil, nil
	}
	return &p, nil
}

func (r *mockCarePackageRepo) FindByIDForUpdate(db *gorm.DB, clinicID, id uuid.UUID) (*entity.CarePackage, error) {
	return r.FindByID(db, clinicID, id)
}

func (r *mockCarePackageRepo) FindByPatient(db *gorm.DB, clinicID, patientID uuid.UUID) ([]entity.CarePackage, error) {
	var out []entity.CarePackage
	for _, p := range r.items {
		if p.ClinicID == clinicID && p.PatientID == patientID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *mockCarePackageRepo) Update(db *gorm.DB, p *entity.CarePackage) error {
	r.items[p.ID] = *p
	return nil
}

type mockLedgerRepo struct {
	items     map[uuid.UUID]entity.Ledger
	createErr error
}

func newMockLedgerRepo(ledgers ...entity.Ledger) *mockLedgerRepo {
	r := &mockLedgerRepo{items: map[uuid.UUID]entity.Ledger{}}
	for _, l := range ledgers {
		r.items[l.ID] = l
	}
	return r
}

func (r *mockLedgerRepo) Create(db *gorm.DB, l *entity.Ledger) error {
	if r.createErr != nil {
		return r.createErr
	}
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	r.items[l.ID] = *l
	return nil
}

func (r *mockLedgerRepo) FindByID(db *gorm.DB, clinicID, id uuid.UUID) (*entity.Ledger, error) {
	l, ok := r.items[id]
	if !ok || l.ClinicID != clinicID {
		return nil, nil
	}
	return &l, nil
}

func (r *mockLedgerRepo) FindByIDForUpdate(db *gorm.DB, clinicID, id uuid.UUID) (*entity.Ledger, error) {
	return r.FindByID(db, clinicID, id)
}

func (r *mockLedgerRepo) FindActiveByAppointment(db *gorm.DB, clinicID, appointmentID uuid.UUID) (*entity.Ledger, error) {
	for _, l := range r.items {
		if l.ClinicID == clinicID && l.AppointmentID == appointmentID && !l.IsVoided {
			return &l, nil
		}
	}
	return nil, nil
}

func (r *mockLedgerRepo) FindAll(db *gorm.DB, clinicID uuid.UUID, filter entity.LedgerFilter) ([]entity.Ledger, int64, error) {
	var out []entity.Ledger
	for _, l := range r.items {
		if l.ClinicID == clinicID && (filter.IncludeVoided || !l.IsVoided) {
			out = append(out, l)
		}
	}
	return out, int64(len(out)), nil
}

func (r *mockLedgerRepo) Update(db *gorm.DB, l *entity.Ledger) error {
	r.items[l.ID] = *l
	return nil
}

func (r *mockLedgerRepo) PatientSummary(db *gorm.DB, clinicID, patientID uuid.UUID) (*entity.BalanceSummary, error) {
	summary := &entity.BalanceSummary{PatientID: patientID}
	for _, l := range r.items {
		if l.ClinicID == clinicID && l.PatientID == patientID && !l.IsVoided {
			summary.EntryCount++
			summary.TotalBilled = summary.TotalBilled.Add(l.TotalAmount)
			summary.TotalPaid = summary.TotalPaid.Add(l.AmountPaid)
		}
	}
	return summary, nil
}

func (r *mockLedgerRepo) RevenueForDate(db *gorm.DB, clinicID uuid.UUID, date string) (*entity.RevenueSummary, error) {
	summary := &entity.RevenueSummary{}
	for _, l := range r.items {
		if l.ClinicID == clinicID && l.VisitDate == date && !l.IsVoided {
			summary.Entries++
			summary.Billed = summary.Billed.Add(l.TotalAmount)
			summary.Collected = summary.Collected.Add(l.AmountPaid)
		}
	}
	summary.Outstanding = summary.Billed.Sub(summary.Collected)
	return summary, nil
}

type mockAuditLogRepo struct {
	items     map[uuid.UUID]entity.AuditLog
	createErr error
}

func newMockAuditLogRepo(logs ...entity.AuditLog) *mockAuditLogRepo {
	r := &mockAuditLogRepo{items: map[uuid.UUID]entity.AuditLog{}}
	for _, l := range logs {
		r.items[l.ID] = l
	}
	return r
}

func (r *mockAuditLogRepo) Create(db *gorm.DB, a *entity.AuditLog) error {
	if r.createErr != nil {
		return r.createErr
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.items[a.ID] = *a
	return nil
}

func (r *mockAuditLogRepo) FindByID(db *gorm.DB, clinicID, id uuid.UUID) (*entity.AuditLog, error) {
	a, ok := r.items[id]
	if !ok || a.ClinicID != clinicID {
		return nil, nil
	}
	return &a, nil
}

func (r *mockAuditLogRepo) FindByIDForUpdate(db *gorm.DB, clinicID, id uuid.UUID) (*entity.AuditLog, error) {
	return r.FindByID(db, clinicID, id)
}

func (r *mockAuditLogRepo) FindAll(db *gorm.DB, clinicID uuid.UUID, filter entity.AuditFilter) ([]entity.AuditLog, int64, error) {
	var out []entity.AuditLog
	for _, a := range r.items {
		if a.ClinicID == clinicID {
			out = append(out, a)
		}
	}
	return out, int64(len(out)), nil
}

func (r *mockAuditLogRepo) Update(db *gorm.DB, a *entity.AuditLog) error {
	r.items[a.ID] = *a
	return nil
}

func (r *mockAuditLogRepo) AppendEvent(db *gorm.DB, clinicID, id uuid.UUID, event entity.AuditEvent) error {
	a := r.items[id]
	a.AppendEvent(event)
	r.items[id] = a
	return nil
}

func (r *mockAuditLogRepo) ComplianceReport(db *gorm.DB, clinicID uuid.UUID, dateFrom, dateTo string) (*entity.ComplianceReport, error) {
	report := &entity.ComplianceReport{DateFrom: dateFrom, DateTo: dateTo}
	for _, a := range r.items {
		if a.ClinicID != clinicID {
			continue
		}
		report.TotalRecords++
		if a.ComplianceFlags.Any() {
			report.FlaggedRecords++
		}
		if a.IsLocked {
			report.LockedRecords++
		}
	}
	return report, nil
}

func (r *mockAuditLogRepo) byAppointment(appointmentID uuid.UUID) *entity.AuditLog {
	for _, a := range r.items {
		if a.AppointmentID != nil && *a.AppointmentID == appointmentID {
			return &a
		}
	}
	return nil
}

type mockSOAPNoteRepo struct {
	items map[uuid.UUID]entity.SOAPNote
}

func newMockSOAPNoteRepo(notes ...entity.SOAPNote) *mockSOAPNoteRepo {
	r := &mockSOAPNoteRepo{items: map[uuid.UUID]entity.SOAPNote{}}
	for _, n := range notes {
		r.items[n.AppointmentID] = n
	}
	return r
}

func (r *mockSOAPNoteRepo) Create(db *gorm.DB, n *entity.SOAPNote) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	r.items[n.AppointmentID] = *n
	return nil
}

func (r *mockSOAPNoteRepo) FindByAppointment(db *gorm.DB, clinicID, appointmentID uuid.UUID) (*entity.SOAPNote, error) {
	n, ok := r.items[appointmentID]
	if !ok || n.ClinicID != clinicID {
		return nil, nil
	}
	return &n, nil
}

func (r *mockSOAPNoteRepo) Update(db *gorm.DB, n *entity.SOAPNote) error {
	r.items[n.AppointmentID] = *n
	return nil
}
