package outbox_poller

import (
	"context"
	"fmt"

	"github.com/voucher-sync-ledger/internal/domain/outbox"
	"github.com/voucher-sync-ledger/internal/platform/messaging/producers"
)

// EventPublisher delivers one outbox message downstream
type EventPublisher interface {
	Publish(ctx context.Context, message *outbox.Message) error
}

// KafkaEventPublisher sends change events keyed by voucher so that all events of one
// voucher land on the same partition in order. The stored payload is sent as is.
type KafkaEventPublisher struct {
	producer producers.MessagePublisher
}

func NewKafkaEventPublisher(producer producers.MessagePublisher) EventPublisher {
	return &KafkaEventPublisher{producer: producer}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, message *outbox.Message) error {
	if err := p.producer.Publish(ctx, message.ExternalID, message.Payload); err != nil {
		return fmt.Errorf("failed to publish change event %s: %w", message.EventID, err)
	}
	return nil
}
