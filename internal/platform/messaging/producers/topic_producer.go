package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/voucher-sync-ledger/internal/config"
)

// TopicProducer writes keyed JSON messages to one topic.
// Writes are synchronous so callers can mark outbox rows only after the broker acknowledged them.
type TopicProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

var _ MessagePublisher = (*TopicProducer)(nil)

// NewTopicProducer ensures the topic exists and returns a producer bound to it
func NewTopicProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig, topic string) (*TopicProducer, error) {
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is not configured")
	}
	logger = logger.With("component", "topic_producer", "topic", topic)

	if err := dialAndEnsureTopic(ctx, cfg.BrokerList(), topic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure topic %s exists: %w", topic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.BrokerList()...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // same key, same partition: per-voucher ordering
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return newTopicProducer(logger, writer, topic), nil
}

func newTopicProducer(logger *slog.Logger, writer KafkaWriter, topic string) *TopicProducer {
	return &TopicProducer{
		logger: logger,
		writer: writer,
		topic:  topic,
	}
}

// Publish marshals value to JSON unless it already is raw JSON
func (p *TopicProducer) Publish(ctx context.Context, key string, value any) error {
	var payload []byte
	switch v := value.(type) {
	case json.RawMessage:
		payload = v
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal message value for topic %s: %w", p.topic, err)
		}
		payload = encoded
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message",
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published message", "key", key)
	return nil
}

func (p *TopicProducer) Close() error {
	p.logger.Info("Closing Kafka message producer")
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
