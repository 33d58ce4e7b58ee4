// Package consumer turns on-demand sync requests from Kafka into engine runs.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/voucher-sync-ledger/internal/domain/shared"
	"github.com/voucher-sync-ledger/internal/platform/messaging/producers"
	"github.com/voucher-sync-ledger/internal/sync_worker/engine"
)

// Runner is the engine surface a sync request can reach
type Runner interface {
	Sync(ctx context.Context) (*engine.Result, error)
	SyncRange(ctx context.Context, from, to time.Time) (*engine.Result, error)
	SyncMasters(ctx context.Context) ([]*engine.Result, error)
}

// SyncRequestHandler handles incoming sync request messages from Kafka
type SyncRequestHandler struct {
	runner   Runner
	producer producers.DeadLetterPublisher
	logger   *slog.Logger
}

func NewSyncRequestHandler(
	logger *slog.Logger,
	runner Runner,
	producer producers.DeadLetterPublisher,
) *SyncRequestHandler {
	return &SyncRequestHandler{
		runner:   runner,
		producer: producer,
		logger:   logger.With("component", "sync_request_handler"),
	}
}

// HandleMessage runs the requested sync. Engine failures are recorded in the sync
// status and the message is still acknowledged: the schedule catches up on its own.
func (h *SyncRequestHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.SyncRequest
	if err := json.Unmarshal(value, &request); err != nil {
		return h.deadLetter(ctx, key, value, "Failed to unmarshal sync request from Kafka message", err)
	}
	if err := request.Validate(); err != nil {
		return h.deadLetter(ctx, key, value, "Invalid sync request", err)
	}

	logger := h.logger.With("request_id", request.RequestID.String(), "kind", request.Kind)
	if request.CorrelationID != "" {
		logger = logger.With("correlation_id", request.CorrelationID)
	}
	logger.Info("Received sync request")

	var err error
	switch request.Kind {
	case shared.SyncKindIncremental:
		_, err = h.runner.Sync(ctx)
	case shared.SyncKindRange:
		_, err = h.runner.SyncRange(ctx, request.From, request.To)
	case shared.SyncKindMasters:
		_, err = h.runner.SyncMasters(ctx)
	}

	switch {
	case err == nil:
		logger.Info("Sync request completed")
	case errors.Is(err, engine.ErrConcurrentSyncRejected{}):
		logger.Info("Sync request shed, a run is already in progress")
	case ctx.Err() != nil:
		return fmt.Errorf("sync request %s interrupted: %w", request.RequestID, ctx.Err())
	default:
		logger.Warn("Sync request failed", "error", err)
	}
	return nil
}

func (h *SyncRequestHandler) deadLetter(ctx context.Context, key, value []byte, msg string, cause error) error {
	h.logger.Error(msg, "error", cause, "message_key", string(key))

	if h.producer != nil {
		reason := fmt.Sprintf("%s: %s", msg, cause.Error())
		if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, reason); dlqErr != nil {
			h.logger.Error("Failed to publish message to DLQ",
				"dlq_error", dlqErr,
				"original_error", cause,
				"message_key", string(key),
			)
		} else {
			return nil
		}
	}
	return fmt.Errorf("unprocessable sync request: %w", cause)
}
