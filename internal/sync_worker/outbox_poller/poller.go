package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/voucher-sync-ledger/internal/config"
	"github.com/voucher-sync-ledger/internal/domain/outbox"
	"github.com/voucher-sync-ledger/internal/domain/shared"
)

// Poller drains pending change events from the outbox
type Poller struct {
	outboxRepo       outbox.Repository
	publisher        EventPublisher
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
	retention        time.Duration
	purgeInterval    time.Duration
	now              func() time.Time
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	publisher EventPublisher,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		publisher:        publisher,
		logger:           logger.With("component", "outbox_poller"),
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
		retention:        cfg.Retention,
		purgeInterval:    time.Hour,
		now:              time.Now,
	}
}

// Start begins polling until context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting Outbox Poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
		"retention", p.retention.String(),
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	// a nil channel never fires, which disables purging
	var purgeC <-chan time.Time
	if p.retention > 0 {
		purgeTicker := time.NewTicker(p.purgeInterval)
		defer purgeTicker.Stop()
		purgeC = purgeTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox Poller stopping due to context cancellation.")
			return
		case <-ticker.C:
			if err := p.processPendingMessages(ctx); err != nil {
				p.logger.Error("Error during batch processing of pending outbox messages", "error", err)
			}
		case <-purgeC:
			if err := p.purgeProcessed(ctx); err != nil {
				p.logger.Error("Error purging processed outbox messages", "error", err)
			}
		}
	}
}

func (p *Poller) purgeProcessed(ctx context.Context) error {
	cutoff := p.now().Add(-p.retention)
	purged, err := p.outboxRepo.PurgeProcessed(ctx, cutoff)
	if err != nil {
		return err
	}
	if purged > 0 {
		p.logger.Info("Purged processed outbox messages", "count", purged, "cutoff", cutoff)
	}
	return nil
}

// processPendingMessages publishes one batch. Messages are delivered at least once:
// a crash between publish and status update republishes the event.
func (p *Poller) processPendingMessages(ctx context.Context) error {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	if len(messages) == 0 {
		p.logger.Debug("No pending outbox messages found.")
		return nil
	}

	p.logger.Info("Fetched pending outbox messages", "count", len(messages))

	published := 0
	for _, msg := range messages {
		if p.publishOne(ctx, msg) {
			published++
		}
	}

	p.logger.Info("Outbox batch processed", "published", published, "failed", len(messages)-published)
	return nil
}

// publishOne reports whether msg was published and marked PROCESSED
func (p *Poller) publishOne(ctx context.Context, msg *outbox.Message) bool {
	logger := p.logger.With("outbox_id", msg.ID, "event_id", msg.EventID.String(), "external_id", msg.ExternalID)

	if msg.Event == nil {
		logger.Error("Outbox payload is not a change event, parking it as FAILED_TO_PUBLISH")
		if err := p.outboxRepo.Quarantine(ctx, msg.ID, p.now()); err != nil {
			logger.Error("Failed to park undecodable outbox message", "error", err)
		}
		return false
	}

	if err := p.publisher.Publish(ctx, msg); err != nil {
		logger.Error("Failed to publish change event", "attempt", msg.Attempts+1, "error", err)

		status, errRec := p.outboxRepo.RecordFailure(ctx, msg.ID, p.maxRetryAttempts, p.now())
		if errRec != nil {
			logger.Error("Failed to record publish failure", "error", errRec)
			return false
		}
		if status == shared.OutboxStatusFailedToPublish {
			logger.Warn("Max publish attempts reached, change event parked as FAILED_TO_PUBLISH",
				"attempts_made", msg.Attempts+1,
				"change_counter", msg.Event.ChangeCounter,
			)
		}
		return false
	}

	if err := p.outboxRepo.MarkPublished(ctx, msg.ID, p.now()); err != nil {
		logger.Error("Change event published but not marked PROCESSED, it will be sent again", "error", err)
		return false
	}
	logger.Debug("Change event published", "change_counter", msg.Event.ChangeCounter, "kind", msg.Event.Kind())
	return true
}
