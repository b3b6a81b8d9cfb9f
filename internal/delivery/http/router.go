package http

import (
	"net/http"

	"clinic-management-api/internal/delivery/http/handler"
	"clinic-management-api/internal/delivery/http/middleware"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/observability/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth        *handler.AuthHandler
	Appointment *handler.AppointmentHandler
	Ledger      *handler.LedgerHandler
	AuditLog    *handler.AuditLogHandler
	CarePackage *handler.CarePackageHandler
	Patient     *handler.PatientHandler
	Clinic      *handler.ClinicHandler
	User        *handler.UserHandler
	SOAPNote    *handler.SOAPNoteHandler
	Reference   *handler.ReferenceHandler
}

type Router struct {
	router            *mux.Router
	handlers          Handlers
	authMiddleware    *middleware.AuthMiddleware
	corsMiddleware    *middleware.CORSMiddleware
	loggingMiddleware *middleware.LoggingMiddleware
	metricsEnabled    bool
}

func NewRouter(
	handlers Handlers,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	loggingMiddleware *middleware.LoggingMiddleware,
	metricsEnabled bool,
) *Router {
	return &Router{
		router:            mux.NewRouter(),
		handlers:          handlers,
		authMiddleware:    authMiddleware,
		corsMiddleware:    corsMiddleware,
		loggingMiddleware: loggingMiddleware,
		metricsEnabled:    metricsEnabled,
	}
}

// Setup registers every route and returns the traced root handler.
func (r *Router) Setup() http.Handler {
	h := r.handlers

	r.router.Use(r.loggingMiddleware.Recover)
	r.router.Use(r.loggingMiddleware.Handle)
	r.router.Use(r.corsMiddleware.Handle)
	if r.metricsEnabled {
		r.router.Use(metrics.HTTPMetricsMiddleware)
		r.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", h.Auth.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", h.Auth.RefreshToken).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", h.Auth.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", h.Auth.GetCurrentUser).Methods(http.MethodGet)

	// Clinic administration
	clinics := api.PathPrefix("/clinics").Subrouter()
	clinics.Use(r.authMiddleware.Authenticate)
	clinics.HandleFunc("/{id}", h.Clinic.GetClinic).Methods(http.MethodGet)
	clinics.Handle("/{id}", middleware.RequireAdmin(http.HandlerFunc(h.Clinic.UpdateClinic))).Methods(http.MethodPut)
	platform := clinics.NewRoute().Subrouter()
	platform.Use(middleware.RequireSuperuser)
	platform.HandleFunc("", h.Clinic.CreateClinic).Methods(http.MethodPost)
	platform.HandleFunc("", h.Clinic.ListClinics).Methods(http.MethodGet)
	platform.HandleFunc("/{id}/active", h.Clinic.SetClinicActive).Methods(http.MethodPatch)

	// Everything below is scoped to one clinic
	tenant := api.NewRoute().Subrouter()
	tenant.Use(r.authMiddleware.Authenticate)
	tenant.Use(middleware.RequireClinic)

	// Users (clinic admin)
	users := tenant.PathPrefix("/users").Subrouter()
	users.Use(middleware.RequireAdmin)
	users.HandleFunc("", h.User.CreateUser).Methods(http.MethodPost)
	users.HandleFunc("", h.User.ListUsers).Methods(http.MethodGet)
	users.HandleFunc("/{id}", h.User.GetUser).Methods(http.MethodGet)
	users.HandleFunc("/{id}", h.User.UpdateUser).Methods(http.MethodPut)
	users.HandleFunc("/{id}/deactivate", h.User.DeactivateUser).Methods(http.MethodPost)

	// Appointments
	tenant.HandleFunc("/appointments", h.Appointment.CreateAppointment).Methods(http.MethodPost)
	tenant.HandleFunc("/appointments", h.Appointment.ListAppointments).Methods(http.MethodGet)
	tenant.HandleFunc("/appointments/calendar/{year:[0-9]+}/{month:[0-9]+}", h.Appointment.Calendar).Methods(http.MethodGet)
	tenant.HandleFunc("/appointments/daily/{date}", h.Appointment.Daily).Methods(http.MethodGet)
	tenant.Handle("/appointments/reports/daily/{date}",
		middleware.RequireRole(entity.RoleAdmin, entity.RoleDoctor)(http.HandlerFunc(h.Appointment.DailyReport))).Methods(http.MethodGet)
	tenant.HandleFunc("/appointments/{id}", h.Appointment.GetAppointment).Methods(http.MethodGet)
	tenant.HandleFunc("/appointments/{id}", h.Appointment.UpdateAppointment).Methods(http.MethodPut)
	tenant.HandleFunc("/appointments/{id}", h.Appointment.DeleteAppointment).Methods(http.MethodDelete)
	tenant.HandleFunc("/appointments/{id}/check-in", h.Appointment.CheckIn).Methods(http.MethodPost)
	tenant.HandleFunc("/appointments/{id}/uncheck", h.Appointment.Uncheck).Methods(http.MethodPost)
	tenant.HandleFunc("/appointments/{id}/start", h.Appointment.Start).Methods(http.MethodPost)
	tenant.HandleFunc("/appointments/{id}/cancel", h.Appointment.Cancel).Methods(http.MethodPost)
	tenant.HandleFunc("/appointments/{id}/no-show", h.Appointment.MarkNoShow).Methods(http.MethodPost)
	tenant.HandleFunc("/appointments/{id}/reschedule", h.Appointment.Reschedule).Methods(http.MethodPost)
	tenant.HandleFunc("/appointments/{id}/status", h.Appointment.UpdateStatus).Methods(http.MethodPatch)
	tenant.HandleFunc("/appointments/{id}/history", h.Appointment.History).Methods(http.MethodGet)

	// SOAP notes
	tenant.HandleFunc("/appointments/{id}/soap-note", h.SOAPNote.GetNote).Methods(http.MethodGet)
	tenant.Handle("/appointments/{id}/soap-note", middleware.RequireClinician(http.HandlerFunc(h.SOAPNote.SaveNote))).Methods(http.MethodPut)
	tenant.Handle("/appointments/{id}/soap-note/sign", middleware.RequireClinician(http.HandlerFunc(h.SOAPNote.SignNote))).Methods(http.MethodPost)

	// Billing
	tenant.HandleFunc("/ledger", h.Ledger.Checkout).Methods(http.MethodPost)
	tenant.HandleFunc("/checkout/complete", h.Ledger.Checkout).Methods(http.MethodPost)
	tenant.HandleFunc("/ledger", h.Ledger.ListLedger).Methods(http.MethodGet)
	tenant.HandleFunc("/ledger/patient/{patientId}/summary", h.Ledger.PatientSummary).Methods(http.MethodGet)
	tenant.HandleFunc("/ledger/{id}", h.Ledger.GetLedger).Methods(http.MethodGet)
	tenant.HandleFunc("/ledger/{id}", h.Ledger.UpdateLedger).Methods(http.MethodPut)
	tenant.Handle("/ledger/{id}/void", middleware.RequireAdmin(http.HandlerFunc(h.Ledger.VoidLedger))).Methods(http.MethodPost)

	// Audit (admins and clinicians)
	audit := tenant.PathPrefix("/audit").Subrouter()
	audit.Use(middleware.RequireClinician)
	audit.HandleFunc("", h.AuditLog.CreateAuditLog).Methods(http.MethodPost)
	audit.HandleFunc("", h.AuditLog.ListAuditLogs).Methods(http.MethodGet)
	audit.HandleFunc("/reports/compliance", h.AuditLog.ComplianceReport).Methods(http.MethodGet)
	audit.HandleFunc("/{id}", h.AuditLog.GetAuditLog).Methods(http.MethodGet)
	audit.HandleFunc("/{id}", h.AuditLog.UpdateAuditLog).Methods(http.MethodPut)
	audit.Handle("/{id}/lock", middleware.RequireAdmin(http.HandlerFunc(h.AuditLog.LockAuditLog))).Methods(http.MethodPost)
	audit.HandleFunc("/{id}/flag", h.AuditLog.FlagAuditLog).Methods(http.MethodPost)
	audit.HandleFunc("/{id}/export", h.AuditLog.ExportAuditLog).Methods(http.MethodGet)

	// Patients
	tenant.HandleFunc("/patients", h.Patient.CreatePatient).Methods(http.MethodPost)
	tenant.HandleFunc("/patients", h.Patient.ListPatients).Methods(http.MethodGet)
	tenant.HandleFunc("/patients/{id}", h.Patient.GetPatient).Methods(http.MethodGet)
	tenant.HandleFunc("/patients/{id}", h.Patient.UpdatePatient).Methods(http.MethodPut)
	tenant.Handle("/patients/{id}", middleware.RequireAdmin(http.HandlerFunc(h.Patient.DeletePatient))).Methods(http.MethodDelete)
	tenant.Handle("/patients/{id}/restore", middleware.RequireAdmin(http.HandlerFunc(h.Patient.RestorePatient))).Methods(http.MethodPost)
	tenant.HandleFunc("/patients/{id}/alerts", h.Patient.AddAlert).Methods(http.MethodPost)
	tenant.HandleFunc("/patients/{id}/alerts/{alertId}/resolve", h.Patient.ResolveAlert).Methods(http.MethodPost)
	tenant.Handle("/patients/{id}/referral/payout", middleware.RequireAdmin(http.HandlerFunc(h.Patient.ReferralPayout))).Methods(http.MethodPost)
	tenant.HandleFunc("/patients/{id}/care-packages", h.Patient.CarePackages).Methods(http.MethodGet)

	// Care packages
	tenant.HandleFunc("/care-packages", h.CarePackage.CreateCarePackage).Methods(http.MethodPost)
	tenant.HandleFunc("/care-packages/{id}", h.CarePackage.GetCarePackage).Methods(http.MethodGet)
	tenant.HandleFunc("/care-packages/{id}/use-session", h.CarePackage.UseSession).Methods(http.MethodPost)
	tenant.HandleFunc("/care-packages/{id}/cancel", h.CarePackage.CancelCarePackage).Methods(http.MethodPost)

	// Reference data is global; any authenticated user may read it
	reference := api.NewRoute().Subrouter()
	reference.Use(r.authMiddleware.Authenticate)
	reference.HandleFunc("/billing-codes", h.Reference.BillingCodes).Methods(http.MethodGet)
	reference.HandleFunc("/diagnostic-codes", h.Reference.DiagnosticCodes).Methods(http.MethodGet)
	reference.Handle("/reference/refresh", middleware.RequireSuperuser(http.HandlerFunc(h.Reference.Refresh))).Methods(http.MethodPost)

	return otelhttp.NewHandler(r.router, "clinic-management-api")
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
