package queue

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitPublisher implements Publisher on a single AMQP connection.
// Channels are not safe for concurrent use, so each publish opens its own.
type RabbitPublisher struct {
	conn *amqp.Connection
}

// NewRabbitPublisher dials the broker at the given URL.
func NewRabbitPublisher(url string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return &RabbitPublisher{conn: conn}, nil
}

// Publish declares the queue as durable and delivers a persistent message
// to it. The declaration is idempotent and keeps publisher and consumer
// agnostic of which side starts first.
func (p *RabbitPublisher) Publish(ctx context.Context, queueName string, body []byte) error {
	channel, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer channel.Close() //nolint:errcheck

	if _, err := channel.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return err
	}

	return channel.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Close shuts down the broker connection.
func (p *RabbitPublisher) Close() error {
	return p.conn.Close()
}
