// internal/ports/events/publisher.go
package events

import "context"

// Publisher is satisfied by shared/kafka.KafkaProducer.
type Publisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}
