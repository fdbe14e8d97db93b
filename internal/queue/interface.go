package queue

import (
	"context"
)

// Publisher delivers todo change events to interested consumers
type Publisher interface {
	// Publish sends an event. Implementations must be safe for concurrent use.
	Publish(ctx context.Context, event *Event) error

	// HealthCheck verifies the broker connection is healthy
	HealthCheck(ctx context.Context) error

	// Close releases the broker connection
	Close() error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

// Publish implements Publisher
func (NoopPublisher) Publish(ctx context.Context, event *Event) error { return nil }

// HealthCheck implements Publisher
func (NoopPublisher) HealthCheck(ctx context.Context) error { return nil }

// Close implements Publisher
func (NoopPublisher) Close() error { return nil }

var (
	_ Publisher = NoopPublisher{}
	_ Publisher = (*RabbitMQPublisher)(nil)
)
