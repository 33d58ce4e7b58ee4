package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/voucher-sync-ledger/internal/domain/shared"
	"github.com/voucher-sync-ledger/internal/sync_worker/engine"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Sync(ctx context.Context) (*engine.Result, error) {
	args := m.Called(ctx)
	return args.Get(0).(*engine.Result), args.Error(1)
}

func (m *MockRunner) SyncRange(ctx context.Context, from, to time.Time) (*engine.Result, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(*engine.Result), args.Error(1)
}

func (m *MockRunner) SyncMasters(ctx context.Context) ([]*engine.Result, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*engine.Result), args.Error(1)
}

// MockDeadLetterPublisher for testing
type MockDeadLetterPublisher struct {
	mock.Mock
}

func (m *MockDeadLetterPublisher) PublishToDLQ(ctx context.Context, key string, value []byte, reason string) error {
	args := m.Called(ctx, key, value, reason)
	return args.Error(0)
}

func (m *MockDeadLetterPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func encode(t *testing.T, req *shared.SyncRequest) []byte {
	t.Helper()
	b, err := json.Marshal(req)
	require.NoError(t, err)
	return b
}

func TestSyncRequestHandler_HandleMessage(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)

	incremental, err := shared.NewSyncRequest(shared.SyncKindIncremental, time.Time{}, time.Time{}, "corr-1")
	require.NoError(t, err)
	ranged, err := shared.NewSyncRequest(shared.SyncKindRange, from, to, "")
	require.NoError(t, err)
	masters, err := shared.NewSyncRequest(shared.SyncKindMasters, time.Time{}, time.Time{}, "")
	require.NoError(t, err)

	tests := []struct {
		name        string
		value       []byte
		setupMocks  func(r *MockRunner, d *MockDeadLetterPublisher)
		expectError bool
	}{
		{
			name:  "incremental",
			value: encode(t, incremental),
			setupMocks: func(r *MockRunner, _ *MockDeadLetterPublisher) {
				r.On("Sync", ctx).Return(&engine.Result{}, nil).Once()
			},
		},
		{
			name:  "range passes bounds",
			value: encode(t, ranged),
			setupMocks: func(r *MockRunner, _ *MockDeadLetterPublisher) {
				r.On("SyncRange", ctx, from, to).Return(&engine.Result{}, nil).Once()
			},
		},
		{
			name:  "masters",
			value: encode(t, masters),
			setupMocks: func(r *MockRunner, _ *MockDeadLetterPublisher) {
				r.On("SyncMasters", ctx).Return([]*engine.Result{}, nil).Once()
			},
		},
		{
			name:  "busy engine is shed",
			value: encode(t, incremental),
			setupMocks: func(r *MockRunner, _ *MockDeadLetterPublisher) {
				r.On("Sync", ctx).Return(&engine.Result{Busy: true}, engine.ErrConcurrentSyncRejected{Domain: shared.DomainVouchers}).Once()
			},
		},
		{
			name:  "engine failure is acknowledged",
			value: encode(t, incremental),
			setupMocks: func(r *MockRunner, _ *MockDeadLetterPublisher) {
				r.On("Sync", ctx).Return(&engine.Result{}, errors.New("source down")).Once()
			},
		},
		{
			name:  "malformed message goes to DLQ",
			value: []byte(`{"kind":`),
			setupMocks: func(_ *MockRunner, d *MockDeadLetterPublisher) {
				d.On("PublishToDLQ", ctx, "key", []byte(`{"kind":`), mock.AnythingOfType("string")).Return(nil).Once()
			},
		},
		{
			name:  "invalid kind goes to DLQ",
			value: []byte(`{"kind":"everything"}`),
			setupMocks: func(_ *MockRunner, d *MockDeadLetterPublisher) {
				d.On("PublishToDLQ", ctx, "key", mock.Anything, mock.MatchedBy(func(reason string) bool {
					return reason == "Invalid sync request: "+shared.ErrInvalidSyncKind.Error()
				})).Return(nil).Once()
			},
		},
		{
			name:  "DLQ failure surfaces the error",
			value: []byte(`not json`),
			setupMocks: func(_ *MockRunner, d *MockDeadLetterPublisher) {
				d.On("PublishToDLQ", ctx, "key", mock.Anything, mock.Anything).Return(errors.New("dlq down")).Once()
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &MockRunner{}
			dlq := &MockDeadLetterPublisher{}
			tt.setupMocks(runner, dlq)

			handler := NewSyncRequestHandler(slog.Default(), runner, dlq)
			err := handler.HandleMessage(ctx, []byte("key"), tt.value)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			runner.AssertExpectations(t)
			dlq.AssertExpectations(t)
		})
	}
}

func TestSyncRequestHandler_WithoutDLQ(t *testing.T) {
	handler := NewSyncRequestHandler(slog.Default(), &MockRunner{}, nil)
	err := handler.HandleMessage(context.Background(), []byte("key"), []byte(`{`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unprocessable sync request")
}

func TestSyncRequestHandler_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req, err := shared.NewSyncRequest(shared.SyncKindIncremental, time.Time{}, time.Time{}, "")
	require.NoError(t, err)

	runner := &MockRunner{}
	runner.On("Sync", ctx).Return(&engine.Result{}, context.Canceled).Once()

	handler := NewSyncRequestHandler(slog.Default(), runner, nil)
	err = handler.HandleMessage(ctx, []byte("key"), encode(t, req))
	assert.ErrorIs(t, err, context.Canceled)
}
