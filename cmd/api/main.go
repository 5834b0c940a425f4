package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"

	"github.com/coopfin/ledger-api/internal/config"
	"github.com/coopfin/ledger-api/internal/database"
	"github.com/coopfin/ledger-api/internal/handlers"
	"github.com/coopfin/ledger-api/internal/jobs"
	"github.com/coopfin/ledger-api/internal/middleware"
	"github.com/coopfin/ledger-api/internal/repository"
	"github.com/coopfin/ledger-api/internal/services"
	"github.com/coopfin/ledger-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos)

	// Provision settings rows for every product so lookups never miss
	if err := svcs.Settings.EnsureDefaults(context.Background()); err != nil {
		logger.Error("Failed to provision default settings", "error", err)
		os.Exit(1)
	}

	// Schedule recurring jobs
	scheduler := jobs.NewScheduler(worker)
	if err := scheduleJobs(scheduler, cfg, svcs); err != nil {
		logger.Error("Failed to schedule jobs", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	// Initialize handlers
	h := handlers.NewHandlers(svcs, worker)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Stop the cron loop, then drain the worker
	scheduler.Stop()
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func scheduleJobs(scheduler *jobs.Scheduler, cfg *config.Config, svcs *services.Services) error {
	if err := scheduler.Add(cfg.AccrualCron, "accrue_interest", func(ctx context.Context) error {
		now := time.Now()
		if _, err := svcs.Accrual.AccrueLoanInterest(ctx, now); err != nil {
			return err
		}
		_, err := svcs.Accrual.AccrueDepositInterest(ctx, now)
		return err
	}); err != nil {
		return err
	}

	return scheduler.Add(cfg.RolloverCron, "rollover_due_dates", func(ctx context.Context) error {
		_, err := svcs.Accrual.RollOverDueDates(ctx, time.Now())
		return err
	})
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Member-readable routes (manager, admin, or the member themselves)
			member := protected.Group("")
			member.Use(middleware.RequireManagerOrOwner())
			{
				member.GET("/loans/user/:username", h.Loan.ByMember)
				member.GET("/deposits/user/:username", h.Deposit.ByMember)
				member.GET("/members/:username/summary", h.Report.MemberSummary)
			}

			// Manager routes (manager or admin)
			manager := protected.Group("")
			manager.Use(middleware.RequireManager())
			{
				// Loans
				manager.GET("/loans", h.Loan.Index)
				manager.GET("/loans/:loan_id", h.Loan.Show)
				manager.POST("/loans/user/:username", h.Loan.Create)
				manager.POST("/loans/:loan_id/review", h.Loan.Review)
				manager.PATCH("/loans/:loan_id", h.Loan.Update)
				manager.GET("/loans/:loan_id/ledger", h.Loan.Ledger)
				manager.POST("/loans/:loan_id/ledger", h.Loan.AppendTransaction)
				manager.GET("/loans/:loan_id/ledger/:transaction_id", h.Loan.ShowTransaction)
				manager.PATCH("/loans/:loan_id/ledger/:transaction_id", h.Loan.AmendTransaction)

				// Deposits
				manager.GET("/deposits", h.Deposit.Index)
				manager.GET("/deposits/:deposit_id", h.Deposit.Show)
				manager.POST("/deposits/user/:username", h.Deposit.Create)
				manager.POST("/deposits/:deposit_id/review", h.Deposit.Review)
				manager.PATCH("/deposits/:deposit_id", h.Deposit.Update)
				manager.GET("/deposits/:deposit_id/ledger", h.Deposit.Ledger)
				manager.POST("/deposits/:deposit_id/ledger", h.Deposit.AppendTransaction)
				manager.GET("/deposits/:deposit_id/ledger/:transaction_id", h.Deposit.ShowTransaction)
				manager.PATCH("/deposits/:deposit_id/ledger/:transaction_id", h.Deposit.AmendTransaction)

				// Exports
				manager.GET("/loans/:loan_id/ledger_csv", h.Report.LoanLedgerCSV)
				manager.GET("/loans/:loan_id/ledger_xlsx", h.Report.LoanLedgerXLSX)
				manager.GET("/loans/:loan_id/statement_pdf", h.Report.LoanStatementPDF)
				manager.GET("/deposits/:deposit_id/ledger_csv", h.Report.DepositLedgerCSV)
				manager.GET("/deposits/:deposit_id/ledger_xlsx", h.Report.DepositLedgerXLSX)

				// Settings (read)
				manager.GET("/settings/loans", h.Settings.LoanTypes)
				manager.GET("/settings/loans/:loan_type", h.Settings.ShowLoanType)
				manager.GET("/settings/deposits", h.Settings.DepositCategories)
				manager.GET("/settings/deposits/:category", h.Settings.ShowDepositCategory)
			}

			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.DELETE("/loans/:loan_id", h.Loan.Delete)
				admin.DELETE("/deposits/:deposit_id", h.Deposit.Delete)

				admin.PATCH("/settings/loans/:loan_type", h.Settings.UpdateLoanType)
				admin.PATCH("/settings/deposits/:category", h.Settings.UpdateDepositCategory)

				admin.GET("/jobs/stats", h.Job.Stats)
				admin.POST("/jobs/accrue_interest", h.Job.AccrueInterest)
				admin.POST("/jobs/rollover_due_dates", h.Job.RollOverDueDates)
			}
		}
	}

	return router
}
