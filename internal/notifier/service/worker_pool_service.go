package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/voucher-sync-ledger/internal/domain/event"
)

// WorkerPoolDispatcher hands events to a bounded pool and returns as soon as the
// task is queued. An event still in the pool when the process dies is lost.
type WorkerPoolDispatcher struct {
	base   EventDispatcher
	pool   *ants.Pool
	logger *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolDispatcher(
	base EventDispatcher,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolDispatcher, error) {
	logger = logger.With("component", "worker_pool")
	pool, err := ants.NewPool(config.Size, ants.WithPanicHandler(func(p any) {
		logger.Error("Alert dispatch panicked", "panic", p)
	}))
	if err != nil {
		return nil, err
	}

	return &WorkerPoolDispatcher{
		base:   base,
		pool:   pool,
		logger: logger,
	}, nil
}

// Dispatch submits evt and only reports submission failures. The task outlives
// the caller's cancellation so a shutdown can drain it.
func (s *WorkerPoolDispatcher) Dispatch(ctx context.Context, evt *event.ChangeEvent) error {
	evtCopy := *evt
	taskCtx := context.WithoutCancel(ctx)

	err := s.pool.Submit(func() {
		if err := s.base.Dispatch(taskCtx, &evtCopy); err != nil {
			s.logger.Error("Failed to dispatch change event",
				"event_id", evtCopy.EventID.String(),
				"external_id", evtCopy.ExternalID,
				"error", err,
			)
		}
	})
	if err != nil {
		s.logger.Error("Failed to submit change event to worker pool",
			"event_id", evt.EventID.String(),
			"error", err,
		)
		return err
	}
	return nil
}

// Shutdown waits up to timeout for queued tasks, then releases the pool.
func (s *WorkerPoolDispatcher) Shutdown(timeout time.Duration) {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	if err := s.pool.ReleaseTimeout(timeout); err != nil {
		s.logger.Warn("Worker pool did not drain in time", "error", err)
	}
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolDispatcher) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolDispatcher) Capacity() int {
	return s.pool.Cap()
}
