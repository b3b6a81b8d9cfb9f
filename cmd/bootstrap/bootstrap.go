package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic-management-api/config"
	deliveryHttp "clinic-management-api/internal/delivery/http"
	"clinic-management-api/internal/delivery/http/handler"
	"clinic-management-api/internal/delivery/http/middleware"
	"clinic-management-api/internal/infrastructure/cache"
	"clinic-management-api/internal/infrastructure/database"
	"clinic-management-api/internal/observability/tracing"
	"clinic-management-api/internal/repository"
	"clinic-management-api/internal/scheduler"
	"clinic-management-api/internal/service"
	"clinic-management-api/internal/usecase"
	"clinic-management-api/pkg/jwt"
	"clinic-management-api/pkg/response"
	"clinic-management-api/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server
	Scheduler   *scheduler.Scheduler
	Usecases    Usecases

	shutdownTracing func(context.Context) error
}

// Usecases exposes the business layer to the CLI commands.
type Usecases struct {
	Auth        usecase.AuthUsecase
	User        usecase.UserUsecase
	Clinic      usecase.ClinicUsecase
	Patient     usecase.PatientUsecase
	Appointment usecase.AppointmentUsecase
	Ledger      usecase.LedgerUsecase
	AuditLog    usecase.AuditLogUsecase
	CarePackage usecase.CarePackageUsecase
	SOAPNote    usecase.SOAPNoteUsecase
	Reference   usecase.ReferenceUsecase
	Report      usecase.ReportUsecase
	Reminder    usecase.ReminderUsecase
}

// NewLogger configures the logrus logger
func NewLogger(cfg config.AppConfig) *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)
	if !cfg.IsProduction() {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// New creates a new App instance with all dependencies initialized
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	app := &App{Config: cfg, Log: log}

	response.ExposeInternalErrors(!cfg.App.IsProduction())

	shutdownTracing, err := tracing.Init(ctx, log, cfg.Telemetry.OTLPEndpoint, cfg.App.Name, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}
	app.shutdownTracing = shutdownTracing

	db, err := database.NewPostgresConnection(cfg.DB)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	log.Info("Database connected successfully")

	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient
	log.Info("Redis connected successfully")

	app.initialize(ctx)
	return app, nil
}

// initialize wires repositories, services, usecases and the HTTP server.
func (app *App) initialize(ctx context.Context) {
	cfg, log := app.Config, app.Log

	jwtService := jwt.NewJWTService(cfg.JWT)
	customValidator := validator.NewValidator()

	// Repositories
	txManager := repository.NewTxManager(app.DB)
	userRepo := repository.NewUserRepository()
	clinicRepo := repository.NewClinicRepository()
	patientRepo := repository.NewPatientRepository()
	apptRepo := repository.NewAppointmentRepository()
	historyRepo := repository.NewAppointmentHistoryRepository()
	ledgerRepo := repository.NewLedgerRepository()
	auditLogRepo := repository.NewAuditLogRepository()
	carePackageRepo := repository.NewCarePackageRepository()
	soapNoteRepo := repository.NewSOAPNoteRepository()
	refRepo := repository.NewReferenceRepository()

	// Services
	tokens := service.NewRedisTokenStore(app.RedisClient, log)
	slotLocker := service.NewRedisSlotLocker(app.RedisClient, log, cfg.Auth.SlotLockTTL)
	history := service.NewHistoryService(log, historyRepo)
	notifier := service.NewNotifier(cfg.Twilio, log)
	catalog := service.NewCatalog(txManager, refRepo, log)
	if err := catalog.Load(ctx); err != nil {
		log.Warnf("Failed to load reference codes, catalog starts empty: %+v", err)
	}

	// Usecases
	uc := Usecases{
		Auth:        usecase.NewAuthUsecase(txManager, log, userRepo, clinicRepo, jwtService, tokens, cfg.Auth.LoginTimeout),
		User:        usecase.NewUserUsecase(txManager, log, userRepo, tokens),
		Clinic:      usecase.NewClinicUsecase(txManager, log, clinicRepo),
		Patient:     usecase.NewPatientUsecase(txManager, log, patientRepo, clinicRepo, auditLogRepo),
		Appointment: usecase.NewAppointmentUsecase(txManager, log, apptRepo, historyRepo, patientRepo, userRepo, clinicRepo, carePackageRepo, history, slotLocker),
		Ledger:      usecase.NewLedgerUsecase(txManager, log, ledgerRepo, apptRepo, patientRepo, carePackageRepo, auditLogRepo, soapNoteRepo, clinicRepo, catalog, history),
		AuditLog:    usecase.NewAuditLogUsecase(txManager, log, auditLogRepo, patientRepo, apptRepo, clinicRepo),
		CarePackage: usecase.NewCarePackageUsecase(txManager, log, carePackageRepo, patientRepo, apptRepo),
		SOAPNote:    usecase.NewSOAPNoteUsecase(txManager, log, soapNoteRepo, apptRepo, catalog, history),
		Reference:   usecase.NewReferenceUsecase(log, catalog),
		Report:      usecase.NewReportUsecase(txManager, log, apptRepo, ledgerRepo, auditLogRepo),
		Reminder:    usecase.NewReminderUsecase(txManager, log, apptRepo, notifier),
	}
	app.Usecases = uc

	// Handlers
	handlers := deliveryHttp.Handlers{
		Auth:        handler.NewAuthHandler(uc.Auth, customValidator),
		Appointment: handler.NewAppointmentHandler(uc.Appointment, uc.Report, customValidator),
		Ledger:      handler.NewLedgerHandler(uc.Ledger, customValidator),
		AuditLog:    handler.NewAuditLogHandler(uc.AuditLog, customValidator),
		CarePackage: handler.NewCarePackageHandler(uc.CarePackage, customValidator),
		Patient:     handler.NewPatientHandler(uc.Patient, uc.CarePackage, customValidator),
		Clinic:      handler.NewClinicHandler(uc.Clinic, customValidator),
		User:        handler.NewUserHandler(uc.User, customValidator),
		SOAPNote:    handler.NewSOAPNoteHandler(uc.SOAPNote, customValidator),
		Reference:   handler.NewReferenceHandler(uc.Reference, customValidator),
	}

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, tokens, log)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSOrigin)
	loggingMiddleware := middleware.NewLoggingMiddleware(log)

	router := deliveryHttp.NewRouter(handlers, authMiddleware, corsMiddleware, loggingMiddleware, cfg.Telemetry.MetricsEnabled)

	app.Server = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Scheduler.Enabled {
		app.Scheduler = scheduler.New(cfg.Scheduler, log, uc.Clinic, uc.Appointment, uc.Reminder)
	}
}

// Run starts the HTTP server and the scheduler and handles graceful shutdown
func (app *App) Run() error {
	if app.Scheduler != nil {
		if err := app.Scheduler.Start(); err != nil {
			return err
		}
	}

	serverErr := make(chan error, 1)
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
	case runErr = <-serverErr:
		app.Log.Errorf("Server failed: %v", runErr)
	}

	app.shutdown()
	return runErr
}

func (app *App) shutdown() {
	app.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}
	if app.Scheduler != nil {
		app.Scheduler.Stop(ctx)
	}

	app.Close()
	app.Log.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, tracing)
func (app *App) Close() {
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	if app.RedisClient != nil {
		app.RedisClient.Close()
	}

	if app.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.shutdownTracing(ctx); err != nil {
			app.Log.Warnf("Failed to flush traces: %v", err)
		}
	}
}
