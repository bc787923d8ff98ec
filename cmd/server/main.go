package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/clearhr/claimflow/internal/application/dispatcher"
	"github.com/clearhr/claimflow/internal/application/service"
	"github.com/clearhr/claimflow/internal/config"
	"github.com/clearhr/claimflow/internal/infrastructure/notify"
	"github.com/clearhr/claimflow/internal/infrastructure/persistence/repository"
	"github.com/clearhr/claimflow/internal/infrastructure/persistence/sqlite"
	"github.com/clearhr/claimflow/internal/infrastructure/worker"
	httpserver "github.com/clearhr/claimflow/internal/interfaces/http"
	"github.com/clearhr/claimflow/pkg/database"
	"github.com/clearhr/claimflow/pkg/utils"
)

func main() {
	gotenv.Load()

	configPath := os.Getenv("CLAIMFLOW_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting ClaimFlow HR workflow service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	txManager := sqlite.NewDB(db.DB, logger)
	svcLogger := &zapLoggerAdapter{logger: logger}

	// Repositories
	claimRepo := repository.NewClaimRepository(db.DB, logger)
	advanceRepo := repository.NewAdvanceRepository(db.DB, logger)
	requestRepo := repository.NewTravelRequestRepository(db.DB, logger)
	goalRepo := repository.NewGoalRepository(db.DB, logger)
	pipRepo := repository.NewPIPRepository(db.DB, logger)
	loanRepo := repository.NewLoanRepository(db.DB, logger)
	employeeRepo := repository.NewEmployeeRepository(db.DB, logger)
	policyRepo := repository.NewPolicyRepository(db.DB, logger)
	appraisalRepo := repository.NewAppraisalRepository(db.DB, logger)
	feedbackRepo := repository.NewFeedbackRepository(db.DB, logger)
	auditRepo := repository.NewAuditLogRepository(db.DB, logger)
	notificationRepo := repository.NewNotificationRepository(db.DB, logger)

	// Event dispatcher and subscribers
	events := dispatcher.New(svcLogger)

	auditService := service.NewAuditService(auditRepo, svcLogger)
	auditService.RegisterHandlers(events)

	notifier := notify.NewLogNotifier(logger)
	notificationService := service.NewNotificationService(notificationRepo, employeeRepo, notifier, svcLogger)
	notificationService.RegisterHandlers(events)

	// Application services
	services := httpserver.Services{
		Claims:     service.NewClaimService(claimRepo, advanceRepo, employeeRepo, policyRepo, txManager, events, svcLogger),
		Requests:   service.NewTravelRequestService(requestRepo, employeeRepo, policyRepo, txManager, events, svcLogger),
		Advances:   service.NewAdvanceService(advanceRepo, requestRepo, txManager, events, svcLogger),
		Goals:      service.NewGoalService(goalRepo, employeeRepo, txManager, events, svcLogger),
		PIPs:       service.NewPIPService(pipRepo, employeeRepo, txManager, events, svcLogger),
		Loans:      service.NewLoanService(loanRepo, employeeRepo, txManager, events, svcLogger),
		Employees:  service.NewEmployeeService(employeeRepo, txManager, svcLogger),
		Policies:   service.NewPolicyService(policyRepo, txManager, svcLogger),
		Appraisals: service.NewAppraisalService(appraisalRepo, feedbackRepo, employeeRepo, txManager, events, svcLogger),
		Tax:        service.NewTaxService(svcLogger),
		Audit:      auditService,
	}

	// Background workers
	workerManager := worker.NewWorkerManager(logger)
	workerManager.Register(worker.NewOutboxWorker(worker.OutboxWorkerConfig{
		PollInterval: cfg.Worker.OutboxPollInterval,
		BatchSize:    cfg.Worker.OutboxBatchSize,
	}, notificationService, logger))

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:             cfg.Server.Host,
		Port:             cfg.Server.Port,
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		JWTSecret:        cfg.Auth.JWTSecret,
		CORSAllowOrigin:  cfg.Server.CORSAllowOrigin,
		RateLimitRPS:     cfg.Server.RateLimitRPS,
		RateLimitBurst:   cfg.Server.RateLimitBurst,
		AdminIPWhitelist: cfg.Server.AdminIPWhitelist,
	}, services, svcLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.StartAll(ctx); err != nil {
		logger.Fatal("Failed to start workers", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}

	// Shutdown order: stop accepting requests, stop workers, drain the
	// dispatcher, then close the database.
	cancel()
	if err := server.Stop(); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	workerManager.StopAll()
	if err := events.Close(); err != nil {
		logger.Error("Dispatcher close error", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

// zapLoggerAdapter adapts *zap.Logger to the keysAndValues-style Logger
// interfaces used by the application layer
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues)...)
}

func convertToZapFields(keysAndValues []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keysAndValues[i])
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
