package service

import (
	"context"
	"log/slog"

	"github.com/voucher-sync-ledger/internal/domain/history"
	"github.com/voucher-sync-ledger/internal/domain/voucher"
)

const (
	DefaultRecentChanges = 50
	MaxRecentChanges     = 500
)

type AuditServiceImpl struct {
	voucherRepo voucher.Repository
	historyRepo history.Repository
	logger      *slog.Logger
}

func NewAuditService(logger *slog.Logger, voucherRepo voucher.Repository, historyRepo history.Repository) AuditService {
	return &AuditServiceImpl{
		voucherRepo: voucherRepo,
		historyRepo: historyRepo,
		logger:      logger,
	}
}

func (s *AuditServiceImpl) GetVoucher(ctx context.Context, externalID string) (*voucher.Record, error) {
	return s.voucherRepo.GetByExternalID(ctx, externalID)
}

func (s *AuditServiceImpl) GetHistory(ctx context.Context, externalID string) ([]*history.Snapshot, error) {
	if _, err := s.voucherRepo.GetByExternalID(ctx, externalID); err != nil {
		return nil, err
	}
	return s.historyRepo.GetHistory(ctx, externalID)
}

func (s *AuditServiceImpl) GetChangeLog(ctx context.Context, externalID string) ([]*history.Change, error) {
	if _, err := s.voucherRepo.GetByExternalID(ctx, externalID); err != nil {
		return nil, err
	}
	return s.historyRepo.GetChangeLog(ctx, externalID)
}

// RecentChanges clamps limit to [1, MaxRecentChanges], using the default for zero or less
func (s *AuditServiceImpl) RecentChanges(ctx context.Context, limit int) ([]*history.Change, error) {
	if limit <= 0 {
		limit = DefaultRecentChanges
	}
	return s.historyRepo.GetRecentChanges(ctx, min(limit, MaxRecentChanges))
}

func (s *AuditServiceImpl) ChangeStats(ctx context.Context) ([]history.FieldStat, error) {
	return s.historyRepo.CountByField(ctx)
}
