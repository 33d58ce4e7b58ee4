package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/voucher-sync-ledger/internal/domain/reconciliation"
	"github.com/voucher-sync-ledger/internal/domain/settings"
)

type SettingsServiceImpl struct {
	settingsRepo settings.Repository
	logger       *slog.Logger
}

func NewSettingsService(logger *slog.Logger, settingsRepo settings.Repository) SettingsService {
	return &SettingsServiceImpl{
		settingsRepo: settingsRepo,
		logger:       logger,
	}
}

func (s *SettingsServiceImpl) GetOpeningBalance(ctx context.Context) (decimal.Decimal, bool, error) {
	raw, found, err := s.settingsRepo.Get(ctx, settings.OpeningBalanceKey)
	if err != nil {
		return decimal.Zero, false, err
	}
	if !found {
		return decimal.Zero, false, nil
	}
	balance, ok := reconciliation.ParseOpeningBalance(raw)
	if !ok {
		s.logger.Warn("Stored opening balance is malformed", "value", raw)
	}
	return balance, ok, nil
}

func (s *SettingsServiceImpl) SetOpeningBalance(ctx context.Context, balance decimal.Decimal) error {
	if err := s.settingsRepo.Set(ctx, settings.OpeningBalanceKey, balance.String()); err != nil {
		return err
	}
	s.logger.Info("Opening balance updated", "opening_balance", balance.String())
	return nil
}
