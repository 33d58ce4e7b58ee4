package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
	"github.com/voucher-sync-ledger/internal/domain/alert"
	"github.com/voucher-sync-ledger/internal/domain/history"
	"github.com/voucher-sync-ledger/internal/domain/reconciliation"
	"github.com/voucher-sync-ledger/internal/domain/shared"
	"github.com/voucher-sync-ledger/internal/domain/syncstatus"
	"github.com/voucher-sync-ledger/internal/domain/voucher"
)

type MockVoucherRepository struct {
	mock.Mock
}

func (m *MockVoucherRepository) GetByExternalID(ctx context.Context, externalID string) (*voucher.Record, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*voucher.Record), args.Error(1)
}

func (m *MockVoucherRepository) LockForUpdate(ctx context.Context, externalID string) (*voucher.Record, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*voucher.Record), args.Error(1)
}

func (m *MockVoucherRepository) Insert(ctx context.Context, record *voucher.Record) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockVoucherRepository) Update(ctx context.Context, record *voucher.Record) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockVoucherRepository) WithTx(pgx.Tx) voucher.Repository { return m }

type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) CreateSnapshot(ctx context.Context, s *history.Snapshot) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockHistoryRepository) CreateChanges(ctx context.Context, changes []history.Change) error {
	return m.Called(ctx, changes).Error(0)
}

func (m *MockHistoryRepository) GetHistory(ctx context.Context, externalID string) ([]*history.Snapshot, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*history.Snapshot), args.Error(1)
}

func (m *MockHistoryRepository) GetChangeLog(ctx context.Context, externalID string) ([]*history.Change, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*history.Change), args.Error(1)
}

func (m *MockHistoryRepository) GetRecentChanges(ctx context.Context, limit int) ([]*history.Change, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*history.Change), args.Error(1)
}

func (m *MockHistoryRepository) CountByField(ctx context.Context) ([]history.FieldStat, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]history.FieldStat), args.Error(1)
}

func (m *MockHistoryRepository) WithTx(pgx.Tx) history.Repository { return m }

type MockPortalRepository struct {
	mock.Mock
}

func (m *MockPortalRepository) ListByStatus(ctx context.Context, from, to time.Time, status string) ([]reconciliation.PortalTransaction, error) {
	args := m.Called(ctx, from, to, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reconciliation.PortalTransaction), args.Error(1)
}

type MockBankRepository struct {
	mock.Mock
}

func (m *MockBankRepository) ListCredits(ctx context.Context, from, to time.Time) ([]reconciliation.BankStatementLine, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reconciliation.BankStatementLine), args.Error(1)
}

type MockAdjustmentRepository struct {
	mock.Mock
}

func (m *MockAdjustmentRepository) Create(ctx context.Context, adj *reconciliation.Adjustment) error {
	return m.Called(ctx, adj).Error(0)
}

func (m *MockAdjustmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*reconciliation.Adjustment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciliation.Adjustment), args.Error(1)
}

func (m *MockAdjustmentRepository) List(ctx context.Context, from, to time.Time) ([]reconciliation.Adjustment, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reconciliation.Adjustment), args.Error(1)
}

func (m *MockAdjustmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockSettingsRepository) Set(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, key string, value any) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockProducer) Close() error {
	return m.Called().Error(0)
}

type MockStatusStore struct {
	mock.Mock
}

func (m *MockStatusStore) Get(ctx context.Context, domain shared.SyncDomain) (*syncstatus.Status, error) {
	args := m.Called(ctx, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncstatus.Status), args.Error(1)
}

func (m *MockStatusStore) Save(ctx context.Context, status *syncstatus.Status) error {
	return m.Called(ctx, status).Error(0)
}

func (m *MockStatusStore) List(ctx context.Context) ([]*syncstatus.Status, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*syncstatus.Status), args.Error(1)
}

type MockPreferenceRepository struct {
	mock.Mock
}

func (m *MockPreferenceRepository) Get(ctx context.Context, subscriberID string) (*alert.Preference, error) {
	args := m.Called(ctx, subscriberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*alert.Preference), args.Error(1)
}

func (m *MockPreferenceRepository) Upsert(ctx context.Context, pref *alert.Preference) error {
	return m.Called(ctx, pref).Error(0)
}

func (m *MockPreferenceRepository) ListActive(ctx context.Context) ([]*alert.Preference, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*alert.Preference), args.Error(1)
}

type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) Create(ctx context.Context, a *alert.Alert) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAlertRepository) ListBySubscriber(ctx context.Context, subscriberID string, limit int) ([]*alert.Alert, error) {
	args := m.Called(ctx, subscriberID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*alert.Alert), args.Error(1)
}
