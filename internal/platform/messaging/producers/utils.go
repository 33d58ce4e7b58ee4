package producers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sethvargo/go-retry"
)

// partitionReadBackoff bounds how long a starting binary waits for the broker to answer metadata
var partitionReadBackoff = func() retry.Backoff {
	return retry.WithMaxRetries(4, retry.NewConstant(2*time.Second))
}

// ensureTopic creates the topic when its partitions cannot be read
func ensureTopic(ctx context.Context, admin topicAdmin, topicName string, numPartitions, replicationFactor int, log *slog.Logger) error {
	var partitions []kafka.Partition

	log.Info("Checking if Kafka topic exists", "topic", topicName)
	attempt := 0
	err := retry.Do(ctx, partitionReadBackoff(), func(_ context.Context) error {
		attempt++
		p, err := admin.ReadPartitions(topicName)
		if err != nil {
			log.Warn("Failed to read partitions, retrying...", "topic", topicName, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		partitions = p
		return nil
	})

	if len(partitions) > 0 {
		log.Info("Kafka topic already exists", "topic", topicName)
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("topic check for %s cancelled: %w", topicName, ctx.Err())
	}

	log.Info("Kafka topic does not exist or is not accessible, attempting to create it", "topic", topicName, "last_error_read", err)
	topicConfig := kafka.TopicConfig{
		Topic:             topicName,
		NumPartitions:     max(numPartitions, 1),
		ReplicationFactor: max(replicationFactor, 1),
	}
	if err := admin.CreateTopics(topicConfig); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", topicName, err)
	}
	log.Info("Successfully created Kafka topic", "topic", topicName)
	return nil
}

// dialAndEnsureTopic opens a short lived admin connection to the first reachable
// broker to bootstrap a topic
func dialAndEnsureTopic(ctx context.Context, brokers []string, topic string, numPartitions, replicationFactor int, log *slog.Logger) error {
	if len(brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}

	var dialErrs []error
	for _, broker := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			log.Warn("Failed to dial kafka broker", "broker", broker, "error", err)
			dialErrs = append(dialErrs, err)
			continue
		}
		err = ensureTopic(ctx, conn, topic, numPartitions, replicationFactor, log)
		_ = conn.Close()
		return err
	}
	return fmt.Errorf("failed to dial kafka: %w", errors.Join(dialErrs...))
}
