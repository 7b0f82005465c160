// shared/rabbitmq/client.go
package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitmqClient struct {
	conn *amqp.Connection
	chn  *amqp.Channel
}

func NewClient(url string) (*RabbitmqClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	chn, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	return &RabbitmqClient{
		conn: conn,
		chn:  chn,
	}, nil
}

func (r *RabbitmqClient) Close() error {
	if err := r.chn.Close(); err != nil {
		return err
	}
	return r.conn.Close()
}

// CreateQueue declares a durable queue. Declaring an existing queue with the
// same settings is a no-op.
func (r *RabbitmqClient) CreateQueue(queueName string) error {
	_, err := r.chn.QueueDeclare(
		queueName, //name of queue
		true,      //durable
		false,     //delete when unused
		false,     //exclusive
		false,     //no-wait
		nil,       //arguments
	)
	return err
}

// SetPrefetch limits unacknowledged deliveries per consumer so a slow worker
// does not hoard the queue.
func (r *RabbitmqClient) SetPrefetch(count int) error {
	return r.chn.Qos(count, 0, false)
}

// Publish sends a persistent JSON message to queueName via the default exchange.
func (r *RabbitmqClient) Publish(ctx context.Context, queueName string, body []byte) error {
	return r.chn.PublishWithContext(
		ctx,
		"",        //exchange
		queueName, //routing key (queue name)
		false,     //mandatory
		false,     //immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Consume starts a manual-ack consumer on queueName. Every delivery must be
// Acked or Nacked by the caller.
func (r *RabbitmqClient) Consume(queueName string) (<-chan amqp.Delivery, error) {
	return r.chn.Consume(
		queueName, //queue
		"",        //consumer
		false,     //auto-ack
		false,     //exclusive
		false,     //no-local
		false,     //no-wait
		nil,       //args
	)
}
