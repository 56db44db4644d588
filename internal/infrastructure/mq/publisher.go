package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/orderdesk/order-system/internal/core/domain"
)

// ErrUnavailable is returned by a Disabled publisher for every publish.
var ErrUnavailable = errors.New("event publisher unavailable")

// Publisher delivers order lifecycle events to a durable queue. Messages
// are marked persistent so they survive a broker restart; beyond that the
// contract is at-least-once fire-and-forget with no retry or ordering.
type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string

	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
}

// NewPublisher dials the broker and asserts the durable queue.
func NewPublisher(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

// Connect retries NewPublisher a bounded number of times with fixed backoff.
// On exhaustion it returns the last error; callers are expected to fall
// back to a Disabled publisher rather than refuse to start.
func Connect(url, queue string, attempts int, backoff time.Duration, log zerolog.Logger) (*Publisher, error) {
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		p, err := NewPublisher(url, queue)
		if err == nil {
			return p, nil
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", i).Int("max_attempts", attempts).
			Msg("rabbitmq not ready, retrying")
		if i < attempts {
			time.Sleep(backoff)
		}
	}
	return nil, fmt.Errorf("rabbitmq connect after %d attempts: %w", attempts, lastErr)
}

// Publish sends the event as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, event domain.OrderEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         b,
	})
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Disabled is an event publisher used when the broker could not be reached
// at startup: order operations keep working and every drop gets logged by
// the service layer through the returned error.
type Disabled struct{}

func (Disabled) Publish(context.Context, domain.OrderEvent) error {
	return ErrUnavailable
}
