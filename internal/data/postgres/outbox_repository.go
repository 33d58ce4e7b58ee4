package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/voucher-sync-ledger/internal/domain/event"
	"github.com/voucher-sync-ledger/internal/domain/outbox"
	"github.com/voucher-sync-ledger/internal/domain/shared"
	"github.com/voucher-sync-ledger/internal/platform/persistence"
)

// OutboxRepository keeps change events in voucher_change_outbox until the poller
// has handed them to Kafka
type OutboxRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewOutboxRepository(logger *slog.Logger, db *persistence.PostgresDB) outbox.Repository {
	return &OutboxRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *OutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return &OutboxRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func (r *OutboxRepository) Enqueue(ctx context.Context, evt *event.ChangeEvent) (*outbox.Message, error) {
	msg, err := outbox.NewMessage(evt)
	if err != nil {
		return nil, fmt.Errorf("failed to encode change event for %s: %w", evt.ExternalID, err)
	}

	query := `
		INSERT INTO voucher_change_outbox (event_id, external_id, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err = r.querier.QueryRow(ctx, query,
		msg.EventID,
		msg.ExternalID,
		msg.Payload,
		string(shared.OutboxStatusPending),
		msg.CreatedAt,
	).Scan(&msg.ID)
	if err != nil {
		r.logger.Error("Failed to enqueue change event",
			"event_id", evt.EventID.String(),
			"external_id", evt.ExternalID,
			"change_counter", evt.ChangeCounter,
			"error", err,
		)
		return nil, fmt.Errorf("failed to enqueue change event for %s: %w", evt.ExternalID, err)
	}
	return msg, nil
}

func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	query := `
		SELECT id, event_id, external_id, payload, attempts, created_at, last_attempt_at
		FROM voucher_change_outbox
		WHERE status = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2
	`

	rows, err := r.querier.Query(ctx, query, string(shared.OutboxStatusPending), limit)
	if err != nil {
		r.logger.Error("Failed to get pending change events", "error", err)
		return nil, fmt.Errorf("failed to get pending change events: %w", err)
	}
	defer rows.Close()

	var messages []*outbox.Message
	for rows.Next() {
		msg := &outbox.Message{Status: shared.OutboxStatusPending}
		if err := rows.Scan(
			&msg.ID,
			&msg.EventID,
			&msg.ExternalID,
			&msg.Payload,
			&msg.Attempts,
			&msg.CreatedAt,
			&msg.LastAttemptAt,
		); err != nil {
			r.logger.Error("Failed to scan outbox row", "error", err)
			return nil, fmt.Errorf("failed to scan outbox row: %w", err)
		}

		evt, err := msg.GetChangeEvent()
		if err != nil {
			r.logger.Warn("Outbox payload is not a change event", "outbox_id", msg.ID, "error", err)
		} else {
			msg.Event = evt
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over pending change events", "error", err)
		return nil, fmt.Errorf("error iterating over pending change events: %w", err)
	}
	return messages, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	return r.park(ctx, id, shared.OutboxStatusProcessed, at)
}

func (r *OutboxRepository) Quarantine(ctx context.Context, id int64, at time.Time) error {
	return r.park(ctx, id, shared.OutboxStatusFailedToPublish, at)
}

// park moves a pending row to a terminal status
func (r *OutboxRepository) park(ctx context.Context, id int64, status shared.OutboxStatus, at time.Time) error {
	query := `
		UPDATE voucher_change_outbox
		SET status = $1, last_attempt_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.querier.Exec(ctx, query, string(status), at, id, string(shared.OutboxStatusPending))
	if err != nil {
		r.logger.Error("Failed to update outbox status", "outbox_id", id, "status", string(status), "error", err)
		return fmt.Errorf("failed to mark outbox %d as %s: %w", id, status, err)
	}
	if result.RowsAffected() == 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}
	return nil
}

func (r *OutboxRepository) RecordFailure(ctx context.Context, id int64, maxAttempts int, at time.Time) (shared.OutboxStatus, error) {
	// SET expressions see the row as it was before the update
	query := `
		UPDATE voucher_change_outbox
		SET attempts = attempts + 1,
		    last_attempt_at = $1,
		    status = CASE WHEN attempts + 1 >= $2 THEN $3 ELSE status END
		WHERE id = $4 AND status = $5
		RETURNING status
	`

	var status string
	err := r.querier.QueryRow(ctx, query,
		at,
		maxAttempts,
		string(shared.OutboxStatusFailedToPublish),
		id,
		string(shared.OutboxStatusPending),
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", outbox.ErrMessageNotFound{ID: id}
		}
		r.logger.Error("Failed to record publish failure", "outbox_id", id, "error", err)
		return "", fmt.Errorf("failed to record publish failure for outbox %d: %w", id, err)
	}
	return shared.OutboxStatus(status), nil
}

// PurgeProcessed keeps FAILED_TO_PUBLISH rows for inspection
func (r *OutboxRepository) PurgeProcessed(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM voucher_change_outbox
		WHERE status = $1 AND last_attempt_at < $2
	`

	result, err := r.querier.Exec(ctx, query, string(shared.OutboxStatusProcessed), cutoff)
	if err != nil {
		r.logger.Error("Failed to purge processed change events", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to purge processed change events: %w", err)
	}
	return result.RowsAffected(), nil
}
