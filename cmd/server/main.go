package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"tripguard/internal/app"
	"tripguard/internal/config"
	"tripguard/internal/gateway"
	"tripguard/internal/handler"
	"tripguard/internal/jobs"
	internalRedis "tripguard/internal/redis"
	"tripguard/internal/repository/postgres"
	"tripguard/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, sweeps := wireServer(db, redisClient, nrApp, cfg)

	// Start background sweeps.
	for _, sweep := range sweeps {
		sweep.Start()
	}

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown: stop the sweeps first so no job races the closing
	// database pool, then drain the HTTP server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	for _, sweep := range sweeps {
		sweep.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// sweep is the lifecycle every background job exposes.
type sweep interface {
	Start()
	Stop()
}

// wireServer wires all dependencies and returns the HTTP server plus the
// background sweeps to run alongside it.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, []sweep) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	strikeQueue := internalRedis.NewStrikeQueue(redisClient)

	// Initialize repositories.
	txRunner := postgres.NewTxRunner(db)
	holdRepo := postgres.NewHoldRepository(db)
	tripRepo := postgres.NewTripRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	strikeRepo := postgres.NewStrikeRepository(db)
	suspensionRepo := postgres.NewSuspensionRepository(db)
	disputeRepo := postgres.NewDisputeRepository(db)
	appealRepo := postgres.NewAppealRepository(db)

	// Initialize payment gateway. The sandbox stands in for the real
	// processor integration.
	paymentGateway := gateway.NewSandboxGateway(cfg.Payment.WebhookSecret)

	// Initialize services.
	notificationService := service.NewNotificationService(nil)
	holdService := service.NewHoldService(holdRepo, tripRepo, driverRepo, paymentGateway, notificationService,
		cfg.Payment.GatewayTimeout, cfg.Payment.MaxAttempts)
	webhookService := service.NewWebhookService(holdRepo, disputeRepo, paymentGateway, notificationService, logger)
	suspensionEngine := service.NewSuspensionEngine(txRunner, suspensionRepo, strikeRepo, driverRepo, notificationService,
		cfg.Strike.TemporaryThreshold, cfg.Strike.PermanentThreshold, cfg.Strike.TemporaryDuration)
	strikeService := service.NewStrikeService(txRunner, strikeRepo, suspensionEngine, lockStore, strikeQueue,
		notificationService, cfg.Strike.ExpiryWindow)
	adminService := service.NewAdminService(disputeRepo, appealRepo, holdRepo, tripRepo,
		holdService, strikeService, suspensionEngine, notificationService)

	// Initialize handlers.
	tripHandler := handler.NewTripHandler(holdService)
	webhookHandler := handler.NewWebhookHandler(webhookService)
	strikeHandler := handler.NewStrikeHandler(strikeService)
	adminHandler := handler.NewAdminHandler(adminService)
	driverHandler := handler.NewDriverHandler(driverRepo, suspensionEngine)

	// Initialize background sweeps.
	sweeps := []sweep{
		jobs.NewStrikeExpiryJob(strikeRepo, suspensionEngine, cfg.Sweep.StrikeExpiryInterval, cfg.Sweep.BatchSize, logger),
		jobs.NewSuspensionLiftJob(suspensionRepo, suspensionEngine, cfg.Sweep.SuspensionLiftInterval, cfg.Sweep.BatchSize, logger),
		jobs.NewHoldSettleJob(holdRepo, disputeRepo, holdService, cfg.Payment.DisputeWindow,
			cfg.Sweep.HoldSettleInterval, cfg.Sweep.BatchSize, logger),
		jobs.NewQueueDrainJob(strikeService, cfg.Sweep.QueueDrainInterval, cfg.Strike.QueueDrainLimit, logger),
	}

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		TripHandler:    tripHandler,
		WebhookHandler: webhookHandler,
		StrikeHandler:  strikeHandler,
		AdminHandler:   adminHandler,
		DriverHandler:  driverHandler,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
		AdminToken:     cfg.Admin.Token,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, sweeps
}
