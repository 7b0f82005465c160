// shared/kafka/consumer.go
package kafka

import (
	"context"
	"log/slog"
	"time"

	skafka "github.com/segmentio/kafka-go"
)

// Reader is the subset of kafka.Reader the consumer drives.
type Reader interface {
	FetchMessage(ctx context.Context) (skafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// Handler processes one message. Returning an error leaves the offset
// uncommitted so the message is delivered again.
type Handler func(ctx context.Context, key []byte, value []byte) error

type Consumer struct {
	reader  Reader
	timeout time.Duration
}

// NewConsumer joins groupID on topic. Instances sharing a group split the
// partitions between them.
func NewConsumer(brokers []string, topic string, groupID string) *Consumer {
	return &Consumer{
		reader: skafka.NewReader(skafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 10e3, // 10KB
			MaxBytes: 10e6, // 10MB
		}),
		timeout: 10 * time.Second,
	}
}

// NewConsumerWithReader allows injecting a test reader.
func NewConsumerWithReader(r Reader, timeout time.Duration) *Consumer {
	return &Consumer{reader: r, timeout: timeout}
}

// Start fetches and handles messages until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context, handler Handler) {
	slog.InfoContext(ctx, "kafka consumer started")

	for {
		if ctx.Err() != nil {
			return
		}

		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.WarnContext(ctx, "kafka fetch failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		processCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err = handler(processCtx, m.Key, m.Value)
		cancel()

		if err != nil {
			// Not committed: Kafka redelivers after a rebalance or restart.
			slog.ErrorContext(ctx, "kafka message processing failed", "offset", m.Offset, "partition", m.Partition, "error", err)
			continue
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			slog.WarnContext(ctx, "kafka commit failed", "offset", m.Offset, "error", err)
		}
	}
}

// Close disconnects from the server.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
