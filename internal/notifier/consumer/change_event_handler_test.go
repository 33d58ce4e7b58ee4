package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/voucher-sync-ledger/internal/domain/event"
)

type MockEventDispatcher struct {
	mock.Mock
}

func (m *MockEventDispatcher) Dispatch(ctx context.Context, evt *event.ChangeEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

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

func TestChangeEventHandler_HandleMessage(t *testing.T) {
	ctx := context.Background()

	evt := &event.ChangeEvent{
		EventID:       uuid.New(),
		ExternalID:    "guid-1",
		Number:        "S-101",
		Type:          "Sales",
		Amount:        decimal.RequireFromString("150"),
		Date:          time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		ChangeCounter: 7,
	}
	valid, err := json.Marshal(evt)
	require.NoError(t, err)
	missingID, err := json.Marshal(&event.ChangeEvent{ExternalID: "guid-2"})
	require.NoError(t, err)

	tests := []struct {
		name        string
		value       []byte
		setupMocks  func(d *MockEventDispatcher, dlq *MockDeadLetterPublisher)
		expectError bool
	}{
		{
			name:  "dispatches decoded event",
			value: valid,
			setupMocks: func(d *MockEventDispatcher, _ *MockDeadLetterPublisher) {
				d.On("Dispatch", ctx, mock.MatchedBy(func(e *event.ChangeEvent) bool {
					return e.EventID == evt.EventID && e.Amount.Equal(evt.Amount) && !e.IsNew
				})).Return(nil).Once()
			},
		},
		{
			name:  "submission failure is returned",
			value: valid,
			setupMocks: func(d *MockEventDispatcher, _ *MockDeadLetterPublisher) {
				d.On("Dispatch", ctx, mock.Anything).Return(errors.New("pool closed")).Once()
			},
			expectError: true,
		},
		{
			name:  "malformed json goes to the DLQ",
			value: []byte("{not json"),
			setupMocks: func(_ *MockEventDispatcher, dlq *MockDeadLetterPublisher) {
				dlq.On("PublishToDLQ", ctx, "guid-1", []byte("{not json"), mock.AnythingOfType("string")).Return(nil).Once()
			},
		},
		{
			name:  "missing event id goes to the DLQ",
			value: missingID,
			setupMocks: func(_ *MockEventDispatcher, dlq *MockDeadLetterPublisher) {
				dlq.On("PublishToDLQ", ctx, "guid-1", missingID, mock.AnythingOfType("string")).Return(nil).Once()
			},
		},
		{
			name:  "DLQ failure surfaces the original error",
			value: []byte("{not json"),
			setupMocks: func(_ *MockEventDispatcher, dlq *MockDeadLetterPublisher) {
				dlq.On("PublishToDLQ", ctx, "guid-1", mock.Anything, mock.Anything).Return(errors.New("kafka down")).Once()
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher := &MockEventDispatcher{}
			dlq := &MockDeadLetterPublisher{}
			tt.setupMocks(dispatcher, dlq)

			handler := NewChangeEventHandler(slog.Default(), dispatcher, dlq)
			err := handler.HandleMessage(ctx, []byte("guid-1"), tt.value)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			dispatcher.AssertExpectations(t)
			dlq.AssertExpectations(t)
		})
	}
}

func TestChangeEventHandler_NoDLQConfigured(t *testing.T) {
	dispatcher := &MockEventDispatcher{}
	handler := NewChangeEventHandler(slog.Default(), dispatcher, nil)

	err := handler.HandleMessage(context.Background(), nil, []byte("garbage"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unprocessable change event")
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}
