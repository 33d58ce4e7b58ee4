package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/voucher-sync-ledger/internal/domain/event"
	"github.com/voucher-sync-ledger/internal/notifier/service"
	"github.com/voucher-sync-ledger/internal/platform/messaging/producers"
)

var errMissingEventID = errors.New("change event has no event_id")

type ChangeEventHandler struct {
	dispatcher service.EventDispatcher
	producer   producers.DeadLetterPublisher
	logger     *slog.Logger
}

func NewChangeEventHandler(
	logger *slog.Logger,
	dispatcher service.EventDispatcher,
	producer producers.DeadLetterPublisher,
) *ChangeEventHandler {
	return &ChangeEventHandler{
		dispatcher: dispatcher,
		producer:   producer,
		logger:     logger.With("component", "change_event_handler"),
	}
}

// HandleMessage decodes a change event and hands it to the dispatcher
func (h *ChangeEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var evt event.ChangeEvent
	if err := json.Unmarshal(value, &evt); err != nil {
		return h.deadLetter(ctx, key, value, "Failed to unmarshal change event from Kafka message", err)
	}
	if evt.EventID == uuid.Nil {
		return h.deadLetter(ctx, key, value, "Invalid change event", errMissingEventID)
	}

	h.logger.Debug("Received change event",
		"event_id", evt.EventID.String(),
		"external_id", evt.ExternalID,
		"kind", evt.Kind(),
	)

	if err := h.dispatcher.Dispatch(ctx, &evt); err != nil {
		return fmt.Errorf("failed to dispatch change event %s: %w", evt.EventID, err)
	}
	return nil
}

func (h *ChangeEventHandler) deadLetter(ctx context.Context, key, value []byte, msg string, cause error) error {
	h.logger.Error(msg, "error", cause, "message_key", string(key))

	if h.producer != nil {
		reason := fmt.Sprintf("%s: %s", msg, cause.Error())
		dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, reason)
		if dlqErr == nil {
			return nil
		}
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", dlqErr,
			"original_error", cause,
			"message_key", string(key),
		)
	}
	return fmt.Errorf("unprocessable change event: %w", cause)
}
