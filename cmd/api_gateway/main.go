package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/voucher-sync-ledger/internal/api_gateway"
	"github.com/voucher-sync-ledger/internal/api_gateway/service"
	"github.com/voucher-sync-ledger/internal/config"
	"github.com/voucher-sync-ledger/internal/data/mongo"
	"github.com/voucher-sync-ledger/internal/data/postgres"
	redisstore "github.com/voucher-sync-ledger/internal/data/redis"
	"github.com/voucher-sync-ledger/internal/logger"
	"github.com/voucher-sync-ledger/internal/platform/messaging/producers"
	"github.com/voucher-sync-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	redisDB, err := persistence.NewRedisDB(appCtx, log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize Redis", "error", err)
		os.Exit(1)
	}

	// Sync requests are consumed by the sync worker
	syncProducer, err := producers.NewTopicProducer(appCtx, log, &cfg.Kafka, cfg.Kafka.SyncRequestTopic)
	if err != nil {
		log.Error("Failed to initialize sync request producer", "error", err)
		os.Exit(1)
	}

	adjustmentRepo := postgres.NewAdjustmentRepository(log, postgresDB)
	settingsRepo := postgres.NewSettingsRepository(log, postgresDB)

	ledgerService, err := service.NewLedgerService(
		log,
		&cfg.Reconciliation,
		postgres.NewPortalRepository(log, postgresDB),
		postgres.NewBankRepository(log, postgresDB),
		adjustmentRepo,
		settingsRepo,
	)
	if err != nil {
		log.Error("Failed to initialize ledger service", "error", err)
		os.Exit(1)
	}

	server := api_gateway.NewServer(log, cfg, api_gateway.Services{
		Audit: service.NewAuditService(log,
			postgres.NewVoucherRepository(log, postgresDB),
			postgres.NewHistoryRepository(log, postgresDB),
		),
		Ledger:      ledgerService,
		Adjustments: service.NewAdjustmentService(log, adjustmentRepo),
		Settings:    service.NewSettingsService(log, settingsRepo),
		Sync: service.NewSyncService(log,
			syncProducer,
			redisstore.NewStatusStore(log, redisDB.Client(), cfg.Redis.KeyPrefix),
		),
		Preferences: service.NewPreferenceService(log,
			postgres.NewPreferenceRepository(log, postgresDB),
			mongo.NewAlertRepository(log, mongoDB.Database()),
		),
	},
		api_gateway.ReadinessCheck{Name: "postgres", Ping: postgresDB.Ping},
		api_gateway.ReadinessCheck{Name: "mongodb", Ping: mongoDB.Ping},
		api_gateway.ReadinessCheck{Name: "redis", Ping: redisDB.Ping},
	)
	log.Info("REST server initialized")

	errChan := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Stop accepting requests before closing the stores behind them
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = syncProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	if err = redisDB.Close(); err != nil {
		log.Error("Error closing Redis connection", "error", err)
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
