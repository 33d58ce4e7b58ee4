package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/voucher-sync-ledger/internal/domain/reconciliation"
)

type AdjustmentServiceImpl struct {
	adjustmentRepo reconciliation.AdjustmentRepository
	logger         *slog.Logger
}

func NewAdjustmentService(logger *slog.Logger, adjustmentRepo reconciliation.AdjustmentRepository) AdjustmentService {
	return &AdjustmentServiceImpl{
		adjustmentRepo: adjustmentRepo,
		logger:         logger,
	}
}

// CreateAdjustment validates the input through reconciliation.NewAdjustment before storing it
func (s *AdjustmentServiceImpl) CreateAdjustment(ctx context.Context, kind reconciliation.AdjustmentKind, date time.Time, amount decimal.Decimal, note string) (*reconciliation.Adjustment, error) {
	adj, err := reconciliation.NewAdjustment(kind, date, amount, note)
	if err != nil {
		return nil, err
	}

	if err := s.adjustmentRepo.Create(ctx, adj); err != nil {
		return nil, err
	}

	s.logger.Info("Adjustment created",
		"adjustment_id", adj.ID.String(),
		"kind", string(adj.Kind),
		"date", adj.Date.Format(time.DateOnly),
		"amount", adj.Amount.String(),
	)
	return adj, nil
}

func (s *AdjustmentServiceImpl) ListAdjustments(ctx context.Context, from, to time.Time) ([]reconciliation.Adjustment, error) {
	return s.adjustmentRepo.List(ctx, from, to)
}

func (s *AdjustmentServiceImpl) DeleteAdjustment(ctx context.Context, id uuid.UUID) error {
	if err := s.adjustmentRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Adjustment deleted", "adjustment_id", id.String())
	return nil
}
