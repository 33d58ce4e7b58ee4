package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/voucher-sync-ledger/internal/config"
	"github.com/voucher-sync-ledger/internal/data/postgres"
	redisstore "github.com/voucher-sync-ledger/internal/data/redis"
	"github.com/voucher-sync-ledger/internal/domain/outbox"
	"github.com/voucher-sync-ledger/internal/domain/voucher"
	"github.com/voucher-sync-ledger/internal/logger"
	"github.com/voucher-sync-ledger/internal/platform/metrics"
	"github.com/voucher-sync-ledger/internal/platform/persistence"
	"github.com/voucher-sync-ledger/internal/platform/source"
	"github.com/voucher-sync-ledger/internal/sync_worker/engine"
)

// app holds the dependencies shared by every command
type app struct {
	cfg        *config.Config
	log        *slog.Logger
	postgresDB *persistence.PostgresDB
	redisDB    *persistence.RedisDB
	outboxRepo outbox.Repository
	engine     *engine.Engine
}

// bootstrap connects to the stores and builds the engine. reg may be nil for one-shot commands.
func bootstrap(ctx context.Context, opts *RootOptions, reg prometheus.Registerer) (*app, error) {
	cfg, err := config.LoadConfig(opts.ConfigName)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.NewLogger(cfg)

	postgresDB, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	redisDB, err := persistence.NewRedisDB(ctx, log, &cfg.Redis)
	if err != nil {
		postgresDB.Close()
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	repos := engine.Repositories{
		Vouchers:   postgres.NewVoucherRepository(log, postgresDB),
		History:    postgres.NewHistoryRepository(log, postgresDB),
		Watermarks: postgres.NewWatermarkRepository(log, postgresDB),
		Masters:    postgres.NewMasterRepository(log, postgresDB),
		Outbox:     outboxRepo,
	}

	eng := engine.NewEngine(
		log,
		postgresDB,
		source.NewClient(log, &cfg.Source),
		repos,
		redisstore.NewStatusStore(log, redisDB.Client(), cfg.Redis.KeyPrefix),
		metrics.NewSyncMetrics(reg),
		voucher.ParseTypes(cfg.Source.VoucherTypes),
	)

	return &app{
		cfg:        cfg,
		log:        log,
		postgresDB: postgresDB,
		redisDB:    redisDB,
		outboxRepo: outboxRepo,
		engine:     eng,
	}, nil
}

func (a *app) close() {
	if err := a.redisDB.Close(); err != nil {
		a.log.Error("Error closing Redis connection", "error", err)
	}
	a.postgresDB.Close()
}
