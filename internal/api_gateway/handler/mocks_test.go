package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/voucher-sync-ledger/internal/domain/alert"
	"github.com/voucher-sync-ledger/internal/domain/history"
	"github.com/voucher-sync-ledger/internal/domain/reconciliation"
	"github.com/voucher-sync-ledger/internal/domain/shared"
	"github.com/voucher-sync-ledger/internal/domain/syncstatus"
	"github.com/voucher-sync-ledger/internal/domain/voucher"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// envelope mirrors Response with a typed payload
type envelope[T any] struct {
	Data  T          `json:"data"`
	Error *ErrorInfo `json:"error,omitempty"`
	Meta  *MetaInfo  `json:"meta,omitempty"`
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func perform(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var out envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) GetVoucher(ctx context.Context, externalID string) (*voucher.Record, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*voucher.Record), args.Error(1)
}

func (m *MockAuditService) GetHistory(ctx context.Context, externalID string) ([]*history.Snapshot, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*history.Snapshot), args.Error(1)
}

func (m *MockAuditService) GetChangeLog(ctx context.Context, externalID string) ([]*history.Change, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*history.Change), args.Error(1)
}

func (m *MockAuditService) RecentChanges(ctx context.Context, limit int) ([]*history.Change, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*history.Change), args.Error(1)
}

func (m *MockAuditService) ChangeStats(ctx context.Context) ([]history.FieldStat, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]history.FieldStat), args.Error(1)
}

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) BuildLedger(ctx context.Context, from, to time.Time) (*reconciliation.Ledger, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciliation.Ledger), args.Error(1)
}

type MockAdjustmentService struct {
	mock.Mock
}

func (m *MockAdjustmentService) CreateAdjustment(ctx context.Context, kind reconciliation.AdjustmentKind, date time.Time, amount decimal.Decimal, note string) (*reconciliation.Adjustment, error) {
	args := m.Called(ctx, kind, date, amount, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciliation.Adjustment), args.Error(1)
}

func (m *MockAdjustmentService) ListAdjustments(ctx context.Context, from, to time.Time) ([]reconciliation.Adjustment, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reconciliation.Adjustment), args.Error(1)
}

func (m *MockAdjustmentService) DeleteAdjustment(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) GetOpeningBalance(ctx context.Context) (decimal.Decimal, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Bool(1), args.Error(2)
}

func (m *MockSettingsService) SetOpeningBalance(ctx context.Context, balance decimal.Decimal) error {
	return m.Called(ctx, balance).Error(0)
}

type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) RequestSync(ctx context.Context, kind shared.SyncKind, from, to time.Time, correlationID string) (*shared.SyncRequest, error) {
	args := m.Called(ctx, kind, from, to, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.SyncRequest), args.Error(1)
}

func (m *MockSyncService) Status(ctx context.Context) ([]*syncstatus.Status, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*syncstatus.Status), args.Error(1)
}

type MockPreferenceService struct {
	mock.Mock
}

func (m *MockPreferenceService) GetPreference(ctx context.Context, subscriberID string) (*alert.Preference, error) {
	args := m.Called(ctx, subscriberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*alert.Preference), args.Error(1)
}

func (m *MockPreferenceService) SavePreference(ctx context.Context, pref *alert.Preference) error {
	return m.Called(ctx, pref).Error(0)
}

func (m *MockPreferenceService) ListAlerts(ctx context.Context, subscriberID string, limit int) ([]*alert.Alert, error) {
	args := m.Called(ctx, subscriberID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*alert.Alert), args.Error(1)
}

func mustField(t *testing.T, body []byte, field string) json.RawMessage {
	t.Helper()
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &fields))
	raw, ok := fields[field]
	require.True(t, ok, "missing field %s", field)
	return raw
}
