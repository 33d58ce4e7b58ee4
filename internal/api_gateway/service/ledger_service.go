package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/voucher-sync-ledger/internal/config"
	"github.com/voucher-sync-ledger/internal/domain/reconciliation"
	"github.com/voucher-sync-ledger/internal/domain/settings"
)

// LedgerServiceImpl loads the ledger inputs from the repositories and hands them
// to reconciliation.BuildLedger
type LedgerServiceImpl struct {
	portalRepo     reconciliation.PortalRepository
	bankRepo       reconciliation.BankRepository
	adjustmentRepo reconciliation.AdjustmentRepository
	settingsRepo   settings.Repository
	location       *time.Location
	keywords       []string
	successStatus  string
	logger         *slog.Logger
}

func NewLedgerService(
	logger *slog.Logger,
	cfg *config.ReconciliationConfig,
	portalRepo reconciliation.PortalRepository,
	bankRepo reconciliation.BankRepository,
	adjustmentRepo reconciliation.AdjustmentRepository,
	settingsRepo settings.Repository,
) (LedgerService, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load reconciliation timezone %q: %w", cfg.Timezone, err)
	}

	return &LedgerServiceImpl{
		portalRepo:     portalRepo,
		bankRepo:       bankRepo,
		adjustmentRepo: adjustmentRepo,
		settingsRepo:   settingsRepo,
		location:       loc,
		keywords:       cfg.SettlementKeywords,
		successStatus:  cfg.PortalSuccessStatus,
		logger:         logger,
	}, nil
}

func (s *LedgerServiceImpl) BuildLedger(ctx context.Context, from, to time.Time) (*reconciliation.Ledger, error) {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, s.location)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, s.location)

	portal, err := s.portalRepo.ListByStatus(ctx, fromDay, toDay.AddDate(0, 0, 1), s.successStatus)
	if err != nil {
		return nil, err
	}

	credits, err := s.bankRepo.ListCredits(ctx, fromDay, toDay)
	if err != nil {
		return nil, err
	}
	bankLines := make([]reconciliation.BankStatementLine, 0, len(credits))
	for _, line := range credits {
		if reconciliation.IsSettlementLine(line.Description, s.keywords) {
			bankLines = append(bankLines, line)
		}
	}

	adjustments, err := s.adjustmentRepo.List(ctx, fromDay, toDay)
	if err != nil {
		return nil, err
	}

	opening, err := s.openingBalance(ctx)
	if err != nil {
		return nil, err
	}

	ledger := reconciliation.BuildLedger(reconciliation.LedgerInput{
		From:           fromDay,
		To:             toDay,
		Location:       s.location,
		Portal:         portal,
		BankLines:      bankLines,
		Adjustments:    adjustments,
		OpeningBalance: opening,
	})

	s.logger.Debug("Ledger built",
		"from", fromDay.Format(time.DateOnly),
		"to", toDay.Format(time.DateOnly),
		"portal", len(portal),
		"bank_lines", len(bankLines),
		"skipped_bank_lines", len(credits)-len(bankLines),
		"adjustments", len(adjustments),
	)
	return ledger, nil
}

// openingBalance falls back to zero when the setting is missing or malformed
func (s *LedgerServiceImpl) openingBalance(ctx context.Context) (decimal.Decimal, error) {
	raw, found, err := s.settingsRepo.Get(ctx, settings.OpeningBalanceKey)
	if err != nil {
		return decimal.Zero, err
	}
	balance, ok := reconciliation.ParseOpeningBalance(raw)
	if !ok {
		s.logger.Warn("Opening balance missing or malformed, using zero",
			"found", found,
			"value", raw,
		)
	}
	return balance, nil
}
