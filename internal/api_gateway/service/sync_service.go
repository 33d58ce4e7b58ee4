package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/voucher-sync-ledger/internal/domain/shared"
	"github.com/voucher-sync-ledger/internal/domain/syncstatus"
	"github.com/voucher-sync-ledger/internal/platform/messaging/producers"
)

type SyncServiceImpl struct {
	producer    producers.MessagePublisher
	statusStore syncstatus.Store
	logger      *slog.Logger
}

func NewSyncService(logger *slog.Logger, producer producers.MessagePublisher, statusStore syncstatus.Store) SyncService {
	return &SyncServiceImpl{
		producer:    producer,
		statusStore: statusStore,
		logger:      logger,
	}
}

// RequestSync returns shared.ErrInvalidSyncKind or shared.ErrInvalidSyncRange for bad input
func (s *SyncServiceImpl) RequestSync(ctx context.Context, kind shared.SyncKind, from, to time.Time, correlationID string) (*shared.SyncRequest, error) {
	req, err := shared.NewSyncRequest(kind, from, to, correlationID)
	if err != nil {
		return nil, err
	}

	if err := s.producer.Publish(ctx, req.RequestID.String(), req); err != nil {
		s.logger.Error("Failed to publish sync request",
			"request_id", req.RequestID.String(),
			"kind", string(req.Kind),
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Sync request published",
		"request_id", req.RequestID.String(),
		"kind", string(req.Kind),
	)
	return req, nil
}

func (s *SyncServiceImpl) Status(ctx context.Context) ([]*syncstatus.Status, error) {
	return s.statusStore.List(ctx)
}
