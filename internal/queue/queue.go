// Package queue provides the message publisher used for asynchronous
// playlist exports, with a RabbitMQ-backed production implementation.
package queue

import "context"

// Publisher delivers a message to a named durable queue. Publish returns
// once the broker has accepted the message; the consumer side is a
// separate service with its own failure model.
type Publisher interface {
	Publish(ctx context.Context, queueName string, body []byte) error
}
