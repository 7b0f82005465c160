// cmd/notifier/main.go
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/bootstrap"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/notify"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/shared/config"
	pkgkafka "github.com/Alexandr1st/libratio-abfcdf53-sub000/shared/kafka"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/shared/logging"
	pkgrabbit "github.com/Alexandr1st/libratio-abfcdf53-sub000/shared/rabbitmq"
)

func main() {
	cfg := config.LoadCommonConfig()
	logging.Setup(cfg.LOG_FORMAT, cfg.LOG_LEVEL)

	slog.Info("connecting to rabbitmq", "host", cfg.RABBITMQ_HOST)
	rabbitClient, err := pkgrabbit.NewClient(cfg.GetRabbitMQURL())
	if err != nil {
		slog.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	// Closed explicitly after the workers drain, not deferred.

	for _, q := range []string{notify.NotificationQueue, notify.RepairQueue} {
		if err := rabbitClient.CreateQueue(q); err != nil {
			slog.Error("failed to declare queue", "queue", q, "error", err)
			os.Exit(1)
		}
	}
	if err := rabbitClient.SetPrefetch(8); err != nil {
		slog.Warn("could not set prefetch", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	app, cleanup, err := bootstrap.FromConfig(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}

	var wg sync.WaitGroup

	// Repair worker: re-runs provisioning and pointer writes that stopped part way.
	deliveries, err := rabbitClient.Consume(notify.RepairQueue)
	if err != nil {
		slog.Error("failed to consume repair queue", "error", err)
		os.Exit(1)
	}
	repairWorker := notify.NewRepairWorker(app.CompleteProvision, app.RepairPointer)
	wg.Add(1)
	go repairWorker.Run(ctx, deliveries, &wg)

	// Bridge: domain events from Kafka become RabbitMQ jobs.
	var kafkaConsumer *pkgkafka.Consumer
	if cfg.KAFKA_BROKER != "" && cfg.KAFKA_TOPIC != "" {
		slog.Info("connecting to kafka", "broker", cfg.KAFKA_BROKER, "topic", cfg.KAFKA_TOPIC)
		kafkaConsumer = pkgkafka.NewConsumer([]string{cfg.KAFKA_BROKER}, cfg.KAFKA_TOPIC, cfg.KAFKA_GROUP_ID)
		bridge := notify.NewBridge(rabbitClient)

		wg.Add(1)
		go func() {
			defer wg.Done()
			kafkaConsumer.Start(ctx, bridge.Handle)
		}()
	}

	slog.Info("notifier running")
	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)
	received := <-stopSignal
	slog.Info("shutting down", "signal", received.String())

	// Stop taking new work, let in-flight jobs finish, then close connections.
	cancel()
	wg.Wait()
	if kafkaConsumer != nil {
		if err := kafkaConsumer.Close(); err != nil {
			slog.Warn("kafka close failed", "error", err)
		}
	}
	if err := rabbitClient.Close(); err != nil {
		slog.Warn("rabbitmq close failed", "error", err)
	}
	cleanup()
	slog.Info("notifier shutdown complete")
}
