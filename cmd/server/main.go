package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"faremetrics-service/internal/infrastructure/config"
	"faremetrics-service/internal/infrastructure/persistence"
	"faremetrics-service/internal/interface/api"
	storeRepo "faremetrics-service/internal/interface/repository"
	"faremetrics-service/internal/usecase"
	"faremetrics-service/pkg/logger"
	"faremetrics-service/pkg/metrics"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// Create logger
	log := logger.NewLogger()
	defer log.Sync()
	log.Info("Starting Fare Metrics Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	reportLocation, err := time.LoadLocation(cfg.ReportTimezone)
	if err != nil {
		log.Fatal("Failed to load report timezone", "timezone", cfg.ReportTimezone, "error", err)
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up MongoDB connection
	log.Info("Connecting to MongoDB")
	mongoClient, db, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoUser, cfg.MongoPassword)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}

	gormDB, err := gorm.Open(postgres.Open(cfg.PostgresURI), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", "error", err)
	}

	// Set up repositories
	documentStore := storeRepo.NewMongoDocumentStore(db, log)
	conductorRepo := storeRepo.NewGormConductorRepository(gormDB)

	// Set up the reconciliation engine
	engineMetrics := metrics.NewMetrics(cfg.MetricsNamespace)
	resolver := usecase.NewScanPartitionResolver(documentStore, log, engineMetrics, cfg.FetchParallelism)
	sources := []usecase.TicketSource{
		usecase.NewConductorTicketSource(documentStore, log, engineMetrics, cfg.FetchParallelism),
		usecase.NewPreBookingSource(documentStore, log, engineMetrics, cfg.FetchParallelism),
		usecase.NewPreTicketSource(documentStore, log, engineMetrics, cfg.FetchParallelism),
	}
	aggregator := usecase.NewAggregator(log)
	demand := usecase.NewDemandAnalyzer(reportLocation, log)
	reconciler := usecase.NewReconciler(resolver, sources, conductorRepo, documentStore, aggregator, demand, log, engineMetrics)

	// Set up HTTP server
	handlers := api.NewHandlers(reconciler, reportLocation, log)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(handlers),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	// Tear down live subscriptions before dropping connections
	reconciler.Close()
	cancel()

	// Disconnect from MongoDB
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error("MongoDB disconnect error", "error", err)
	}

	log.Info("Fare Metrics Service stopped")
}
