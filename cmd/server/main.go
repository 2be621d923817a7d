package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"

	httpapi "planettalk-agent-backend/internal/api/http"
	"planettalk-agent-backend/internal/config"
	"planettalk-agent-backend/internal/logger"
	"planettalk-agent-backend/internal/repository/postgres"
	"planettalk-agent-backend/internal/security"
	"planettalk-agent-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting PlanetTalk Agent Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Ledger configuration", "currency", cfg.Ledger.DefaultCurrency, "min_payout", cfg.Ledger.MinPayoutAmount)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// Initialize Email Service
	emailSvc := service.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.User,
		cfg.SMTP.Password,
		cfg.SMTP.From,
	)

	// Initialize Services
	noteSvc := service.NewNotificationService(store.NotificationRepository)
	agentSvc := service.NewAgentService(store.AgentRepository)
	earningSvc := service.NewEarningService(store, store.EarningRepository, noteSvc, cfg.Ledger.DefaultCurrency)
	payoutSvc := service.NewPayoutService(
		store,
		store.AgentRepository,
		store.PayoutRepository,
		noteSvc,
		emailSvc,
		cfg.MinPayoutAmount(),
		cfg.Ledger.DefaultCurrency,
	)
	commissionSvc := service.NewCommissionService(store.AgentRepository, earningSvc)
	reconciliationSvc := service.NewReconciliationService(store)

	// Initialize HTTP API
	handler := httpapi.NewHandler(agentSvc, earningSvc, payoutSvc, commissionSvc, reconciliationSvc, noteSvc)
	router := mux.NewRouter()
	httpapi.RegisterRoutes(router, handler, tokenManager)

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
	if err := server.ListenAndServe(); err != nil {
		logger.Error("Failed to serve HTTP", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
}
