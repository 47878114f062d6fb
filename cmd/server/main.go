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

	"metro/internal/app"
	"metro/internal/config"
	"metro/internal/handler"
	internalRedis "metro/internal/redis"
	"metro/internal/repository/postgres"
	"metro/internal/service"
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
	server, sweeper := wireServer(db, redisClient, nrApp, cfg)

	// Background sweep for abandoned trips.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sweeper.Run(sweepCtx)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	stopSweep()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server and the
// trip expiry sweeper.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, *service.ExpiryService) {
	// Initialize Redis stores.
	cacheStore := internalRedis.NewCacheStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)

	// Initialize repositories.
	userRepo := postgres.NewUserRepository(db)
	tripRepo := postgres.NewTripRepository(db)
	commandRepo := postgres.NewCommandRepository(db)
	stationRepo := postgres.NewStationRepository(db)
	fareRepo := postgres.NewFareRepository(db)
	deviceRepo := postgres.NewDeviceRepository(db)

	// Initialize services.
	fareService := service.NewFareService(fareRepo, stationRepo, cfg.Metro.DefaultFare)
	commandService := service.NewCommandService(commandRepo)
	enrollmentService := service.NewEnrollmentService(userRepo, cfg.Metro.StartingBalance)
	deviceService := service.NewDeviceService(deviceRepo, cacheStore, cfg.Metro.DefaultStation)
	stationService := service.NewStationService(stationRepo, cacheStore)
	userService := service.NewUserService(userRepo, cacheStore)
	tripService := service.NewTripService(db, tripRepo, userRepo, fareService, deviceService, lockStore, cacheStore)
	expiryService := service.NewExpiryService(tripRepo, lockStore, cfg.Metro.TripTTL, cfg.Metro.SweepInterval)

	// Initialize handlers.
	verificationHandler := handler.NewVerificationHandler(commandService, tripService, enrollmentService)
	tripHandler := handler.NewTripHandler(tripService, commandService, cfg.Metro.DefaultDevice)
	userHandler := handler.NewUserHandler(userService, enrollmentService)
	adminHandler := handler.NewAdminHandler(userService, stationService, fareService, deviceService, commandService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		VerificationHandler: verificationHandler,
		TripHandler:         tripHandler,
		UserHandler:         userHandler,
		AdminHandler:        adminHandler,
		RedisClient:         redisClient,
		NewRelicApp:         nrApp,
	})

	// Create HTTP server.
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return server, expiryService
}
