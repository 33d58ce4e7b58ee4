package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/voucher-sync-ledger/internal/domain/alert"
	"github.com/voucher-sync-ledger/internal/domain/history"
	"github.com/voucher-sync-ledger/internal/domain/reconciliation"
	"github.com/voucher-sync-ledger/internal/domain/shared"
	"github.com/voucher-sync-ledger/internal/domain/syncstatus"
	"github.com/voucher-sync-ledger/internal/domain/voucher"
)

// AuditService answers questions about mirrored vouchers and how they changed
type AuditService interface {
	// GetVoucher returns voucher.ErrRecordNotFound for unknown identifiers
	GetVoucher(ctx context.Context, externalID string) (*voucher.Record, error)

	// GetHistory returns the snapshots of a voucher in version order
	// Returns voucher.ErrRecordNotFound if the voucher was never mirrored
	GetHistory(ctx context.Context, externalID string) ([]*history.Snapshot, error)

	// GetChangeLog returns field level changes of a voucher, oldest first
	GetChangeLog(ctx context.Context, externalID string) ([]*history.Change, error)

	// RecentChanges returns the newest changes across all vouchers
	RecentChanges(ctx context.Context, limit int) ([]*history.Change, error)

	// ChangeStats counts changes per field
	ChangeStats(ctx context.Context) ([]history.FieldStat, error)
}

// LedgerService builds the reconciliation ledger
type LedgerService interface {
	// BuildLedger covers the calendar days from..to inclusive in the configured timezone
	BuildLedger(ctx context.Context, from, to time.Time) (*reconciliation.Ledger, error)
}

// AdjustmentService manages manual ledger adjustments
type AdjustmentService interface {
	CreateAdjustment(ctx context.Context, kind reconciliation.AdjustmentKind, date time.Time, amount decimal.Decimal, note string) (*reconciliation.Adjustment, error)
	ListAdjustments(ctx context.Context, from, to time.Time) ([]reconciliation.Adjustment, error)

	// DeleteAdjustment returns reconciliation.ErrAdjustmentNotFound for unknown IDs
	DeleteAdjustment(ctx context.Context, id uuid.UUID) error
}

// SettingsService reads and writes the opening balance
type SettingsService interface {
	// GetOpeningBalance reports set=false when no balance is stored or the stored value is malformed
	GetOpeningBalance(ctx context.Context) (balance decimal.Decimal, set bool, err error)
	SetOpeningBalance(ctx context.Context, balance decimal.Decimal) error
}

// SyncService asks the sync worker to run and reports what it is doing
type SyncService interface {
	// RequestSync publishes a sync request and returns it without waiting for the run
	RequestSync(ctx context.Context, kind shared.SyncKind, from, to time.Time, correlationID string) (*shared.SyncRequest, error)
	Status(ctx context.Context) ([]*syncstatus.Status, error)
}

// PreferenceService manages subscriber notification preferences and their alerts
type PreferenceService interface {
	// GetPreference returns alert.ErrPreferenceNotFound for unknown subscribers
	GetPreference(ctx context.Context, subscriberID string) (*alert.Preference, error)
	SavePreference(ctx context.Context, pref *alert.Preference) error
	ListAlerts(ctx context.Context, subscriberID string, limit int) ([]*alert.Alert, error)
}
