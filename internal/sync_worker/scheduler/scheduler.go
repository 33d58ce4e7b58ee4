// Package scheduler triggers the sync engine on fixed intervals.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/voucher-sync-ledger/internal/config"
	"github.com/voucher-sync-ledger/internal/sync_worker/engine"
)

// Syncer is the part of the engine the scheduler drives
type Syncer interface {
	Sync(ctx context.Context) (*engine.Result, error)
	SyncMasters(ctx context.Context) ([]*engine.Result, error)
}

// Scheduler runs incremental voucher syncs and master syncs on separate tickers
type Scheduler struct {
	syncer         Syncer
	logger         *slog.Logger
	interval       time.Duration
	masterInterval time.Duration
	runOnStart     bool
}

func NewScheduler(cfg *config.SyncConfig, syncer Syncer, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		syncer:         syncer,
		logger:         logger.With("component", "scheduler"),
		interval:       cfg.Interval,
		masterInterval: cfg.MasterInterval,
		runOnStart:     cfg.RunOnStart,
	}
}

// Start blocks until ctx is cancelled. Runs are sequential so a slow sync delays the
// next tick rather than overlapping it.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting scheduler",
		"interval", s.interval.String(),
		"master_interval", s.masterInterval.String(),
		"run_on_start", s.runOnStart,
	)

	if s.runOnStart {
		s.runSync(ctx)
		s.runMasters(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	masterTicker := time.NewTicker(s.masterInterval)
	defer masterTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopping due to context cancellation.")
			return
		case <-ticker.C:
			s.runSync(ctx)
		case <-masterTicker.C:
			s.runMasters(ctx)
		}
	}
}

func (s *Scheduler) runSync(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.syncer.Sync(ctx); err != nil {
		s.logOutcome("vouchers", err)
	}
}

func (s *Scheduler) runMasters(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.syncer.SyncMasters(ctx); err != nil {
		s.logOutcome("masters", err)
	}
}

func (s *Scheduler) logOutcome(what string, err error) {
	if errors.Is(err, engine.ErrConcurrentSyncRejected{}) {
		s.logger.Debug("Scheduled sync skipped, previous run still active", "sync", what)
		return
	}
	s.logger.Warn("Scheduled sync failed", "sync", what, "error", err)
}
