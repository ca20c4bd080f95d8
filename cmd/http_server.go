package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/peoplehub/hr-backoffice/internal"
	"github.com/peoplehub/hr-backoffice/internal/asset"
	assetpg "github.com/peoplehub/hr-backoffice/internal/asset/postgres"
	"github.com/peoplehub/hr-backoffice/internal/assignment"
	assignmentpg "github.com/peoplehub/hr-backoffice/internal/assignment/postgres"
	"github.com/peoplehub/hr-backoffice/internal/audit"
	auditpg "github.com/peoplehub/hr-backoffice/internal/audit/postgres"
	"github.com/peoplehub/hr-backoffice/internal/auth"
	authpg "github.com/peoplehub/hr-backoffice/internal/auth/postgres"
	"github.com/peoplehub/hr-backoffice/internal/clearance"
	"github.com/peoplehub/hr-backoffice/internal/core/events"
	"github.com/peoplehub/hr-backoffice/internal/employee"
	employeepg "github.com/peoplehub/hr-backoffice/internal/employee/postgres"
	"github.com/peoplehub/hr-backoffice/internal/loan"
	loanpg "github.com/peoplehub/hr-backoffice/internal/loan/postgres"
	"github.com/peoplehub/hr-backoffice/internal/notification"
	"github.com/peoplehub/hr-backoffice/internal/resignation"
	resignationpg "github.com/peoplehub/hr-backoffice/internal/resignation/postgres"
	"github.com/peoplehub/hr-backoffice/internal/settlement"
	settlementpg "github.com/peoplehub/hr-backoffice/internal/settlement/postgres"
	"github.com/peoplehub/hr-backoffice/internal/transport/rest"
	"github.com/peoplehub/hr-backoffice/internal/workflow"
	"github.com/peoplehub/hr-backoffice/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config     *internal.Config
	DB         *sqlx.DB
	Router     *chi.Mux
	MailClient *notification.RelayClient
	Logger     *slog.Logger
}

func startHTTPServer() {
	logger.Init(os.Getenv("APP_ENV"))

	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if deps.MailClient != nil {
			deps.MailClient.Shutdown()
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.L()

	sqlDB, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB.DB}), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	bus := events.NewEventBus(log)

	// repositories
	employeeRepo := employeepg.NewEmployeeRepository(gormDB)
	assetRepo := assetpg.NewAssetRepository(gormDB)
	assignmentRepo := assignmentpg.NewAssignmentRepository(gormDB)
	loanRepo := loanpg.NewLoanRepository(gormDB)
	resignationRepo := resignationpg.NewResignationRepository(gormDB)
	settlementRepo := settlementpg.NewSettlementRepository(gormDB)
	auditRepo := auditpg.NewAuditRepository(gormDB)
	authRepo := authpg.NewRepository(gormDB)

	// notifications: inline best-effort delivery through the mail relay, or a
	// noop when no relay is configured
	var (
		dispatcher notification.Dispatcher = notification.NoopDispatcher{}
		mailClient *notification.RelayClient
	)
	if cfg.Notification.RelayURL != "" {
		mailClient = notification.NewRelayClient(notification.ClientConfig{
			RelayURL:     cfg.Notification.RelayURL,
			APIKey:       cfg.Notification.APIKey,
			SendTimeout:  cfg.Notification.SendTimeout,
			MaxWorkers:   cfg.Notification.MaxWorkers,
			JobQueueSize: cfg.Notification.JobQueueSize,
		}, log)
		dispatcher = notification.NewMailDispatcher(mailClient, employeeRepo, log)
	}

	// workflow core
	executor := workflow.NewExecutor(gormDB, nil, auditRepo, dispatcher, bus, log)
	executor.Register(assignment.Definition(assignment.DefinitionDeps{
		Conflicts:      assignmentRepo,
		EvidencePhotos: cfg.Workflow.EvidencePhotos,
	}), assignmentRepo)
	executor.Register(loan.Definition(loan.DefinitionDeps{
		GMApprovers:      cfg.Workflow.LoanGMApprovers,
		FinanceApprovers: cfg.Workflow.LoanFinanceApprovers,
	}), loanRepo)
	executor.Register(resignation.Definition(resignation.DefinitionDeps{
		Chain: cfg.Workflow.ResignationChain,
	}), resignationRepo)

	aggregator := clearance.NewAggregator(loanRepo, assignmentRepo, log)
	executor.Register(settlement.Definition(settlement.DefinitionDeps{
		Clearance: aggregator,
	}), settlementRepo)

	// services
	employeeService := employee.NewService(employeeRepo, log)
	assetService := asset.NewService(assetRepo, log)
	assignmentService := assignment.NewService(assignmentRepo, executor, log)
	loanSchedule := loan.NewSchedule(gormDB, loanRepo, executor, log)
	loanService := loan.NewService(loanRepo, loanSchedule, executor, log)
	resignationService := resignation.NewService(resignationRepo, executor, log)
	settlementService := settlement.NewService(settlementRepo, employeeService, resignationService, aggregator, executor, log)

	settlement.NewEventHandler(settlementService, log).RegisterEventHandlers(bus)

	tokenGen := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authRepo, tokenGen)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, sqlDB.DB, rest.Handlers{
		Auth:        auth.NewHandler(authService),
		Employee:    employee.NewHandler(employeeService),
		Asset:       asset.NewHandler(assetService),
		Assignment:  assignment.NewHandler(assignmentService),
		Loan:        loan.NewHandler(loanService),
		Resignation: resignation.NewHandler(resignationService),
		Settlement:  settlement.NewHandler(settlementService),
		Audit:       audit.NewHandler(auditRepo),
	}, log)

	return &Dependencies{
		Config:     cfg,
		Logger:     log,
		DB:         sqlDB,
		Router:     router,
		MailClient: mailClient,
	}, nil
}

// initDB opens the pgx stdlib connection shared by sqlx health checks and the
// gorm session.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
