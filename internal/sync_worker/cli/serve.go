package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/voucher-sync-ledger/internal/platform/messaging/consumers"
	"github.com/voucher-sync-ledger/internal/platform/messaging/producers"
	"github.com/voucher-sync-ledger/internal/platform/metrics"
	"github.com/voucher-sync-ledger/internal/sync_worker/consumer"
	"github.com/voucher-sync-ledger/internal/sync_worker/outbox_poller"
	"github.com/voucher-sync-ledger/internal/sync_worker/scheduler"
)

const shutdownGrace = 30 * time.Second

// NewServeCommand runs the worker until it receives a shutdown signal.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler, outbox publisher and sync request consumer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(rootOpts)
		},
	}
}

func serve(opts *RootOptions) error {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	a, err := bootstrap(appCtx, opts, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer a.close()

	log, cfg := a.log, a.cfg
	log.Info("Starting Sync Worker",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	changeProducer, err := producers.NewTopicProducer(appCtx, log, &cfg.Kafka, cfg.Kafka.ChangeEventTopic)
	if err != nil {
		return fmt.Errorf("failed to initialize change event producer: %w", err)
	}
	defer func() {
		if err := changeProducer.Close(); err != nil {
			log.Error("Error closing change event producer", "error", err)
		}
	}()

	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka, "sync_worker")
	if err != nil {
		return fmt.Errorf("failed to initialize DLQ producer: %w", err)
	}
	defer func() {
		if err := dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ producer", "error", err)
		}
	}()

	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka, cfg.Kafka.SyncRequestTopic, cfg.Kafka.ConsumerGroup)
	defer func() {
		if err := kafkaConsumer.Close(); err != nil {
			log.Error("Error closing Kafka consumer", "error", err)
		}
	}()

	requestHandler := consumer.NewSyncRequestHandler(log, a.engine, dlqProducer)
	poller := outbox_poller.NewPoller(
		&cfg.Outbox,
		a.outboxRepo,
		outbox_poller.NewKafkaEventPublisher(changeProducer),
		log,
	)
	sched := scheduler.NewScheduler(&cfg.Sync, a.engine, log)
	opsServer := metrics.NewServer(log, cfg.Metrics.Port, prometheus.DefaultGatherer)

	errChan := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Start(appCtx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := kafkaConsumer.Run(appCtx, requestHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	go func() {
		if err := opsServer.Start(); err != nil {
			errChan <- fmt.Errorf("metrics server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Metrics server shutdown error", "error", err)
	}

	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	if serviceErr != nil && !errors.Is(serviceErr, context.Canceled) {
		log.Error("Sync Worker shutdown with errors", "error", serviceErr)
		return serviceErr
	}
	log.Info("Sync Worker shutdown completed successfully")
	return nil
}
