package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var errDeliveriesClosed = errors.New("delivery channel closed")

// DefaultActivityQueue is the queue the activity worker binds to the events exchange
const DefaultActivityQueue = "todo_events.activity"

// Acknowledger settles a delivery. *amqp.Channel satisfies it.
type Acknowledger interface {
	Ack(tag uint64, multiple bool) error
	Nack(tag uint64, multiple, requeue bool) error
}

// Delivery is one event received from the broker
type Delivery struct {
	Event *Event
	tag   uint64
	ack   Acknowledger
}

// NewDelivery wraps an event with the means to settle it
func NewDelivery(event *Event, tag uint64, ack Acknowledger) *Delivery {
	return &Delivery{Event: event, tag: tag, ack: ack}
}

// Ack acknowledges the delivery
func (d *Delivery) Ack() error {
	return d.ack.Ack(d.tag, false)
}

// Nack rejects the delivery, optionally requeueing it
func (d *Delivery) Nack(requeue bool) error {
	return d.ack.Nack(d.tag, false, requeue)
}

// RabbitMQConsumer reads todo events from a durable queue bound to the events exchange
type RabbitMQConsumer struct {
	conn      *amqp.Connection
	queueName string
}

// NewRabbitMQConsumer connects and binds queueName to every todo.* routing key
func NewRabbitMQConsumer(amqpURL, queueName string) (*RabbitMQConsumer, error) {
	if queueName == "" {
		queueName = DefaultActivityQueue
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.ExchangeDeclare(DefaultExchangeName, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(queueName, "todo.*", DefaultExchangeName, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	return &RabbitMQConsumer{conn: conn, queueName: queueName}, nil
}

// ConnectConsumerWithRetry is ConnectWithRetry for the consuming side
func ConnectConsumerWithRetry(ctx context.Context, amqpURL, queueName string, maxRetries int, initialDelay time.Duration, logger *zap.Logger) (*RabbitMQConsumer, error) {
	return dialWithRetry(ctx, maxRetries, initialDelay, logger, func() (*RabbitMQConsumer, error) {
		return NewRabbitMQConsumer(amqpURL, queueName)
	})
}

// Consume starts async delivery on a dedicated channel. prefetchCount bounds
// the number of unacknowledged events held at once. Both returned channels are
// closed when ctx is done or the broker connection drops.
func (c *RabbitMQConsumer) Consume(ctx context.Context, prefetchCount int) (<-chan *Delivery, <-chan error, error) {
	consumeCh, err := c.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create consumer channel: %w", err)
	}

	if err := consumeCh.Qos(prefetchCount, 0, false); err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := consumeCh.Consume(
		c.queueName,
		"",    // consumer tag (empty = auto-generate)
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	out := make(chan *Delivery, max(prefetchCount, 1))
	errs := make(chan error, 1)

	go func() {
		defer func() { _ = consumeCh.Close() }()
		relay(ctx, deliveries, consumeCh, out, errs)
	}()

	return out, errs, nil
}

// relay decodes raw deliveries onto out until ctx is done or deliveries closes,
// then closes out and errs. Sends on errs never block.
func relay(ctx context.Context, deliveries <-chan amqp.Delivery, ack Acknowledger, out chan<- *Delivery, errs chan<- error) {
	defer close(out)
	defer close(errs)

	report := func(err error) {
		select {
		case errs <- err:
		case <-ctx.Done():
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				report(errDeliveriesClosed)
				return
			}

			event, err := DecodeEvent(d.Body)
			if err != nil {
				// Undecodable payloads are dropped, never requeued
				_ = d.Nack(false, false)
				report(err)
				continue
			}

			select {
			case <-ctx.Done():
				_ = d.Nack(false, true)
				return
			case out <- NewDelivery(event, d.DeliveryTag, ack):
			}
		}
	}
}

// HealthCheck verifies the connection is open
func (c *RabbitMQConsumer) HealthCheck(ctx context.Context) error {
	if c.conn == nil || c.conn.IsClosed() {
		return ErrConnectionClosed
	}
	return nil
}

// Close closes the broker connection
func (c *RabbitMQConsumer) Close() error {
	if c.conn == nil {
		return nil
	}
	if err := c.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}
	return nil
}

// DecodeEvent parses an event body and checks the fields consumers rely on
func DecodeEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	switch event.Type {
	case EventTodoCreated, EventTodoUpdated, EventTodoToggled, EventTodoDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", event.Type)
	}
	if event.TodoID <= 0 {
		return nil, fmt.Errorf("event %s has no todo id", event.ID)
	}
	return &event, nil
}
