package worker

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/orderdesk/order-system/internal/api/metrics"
	"github.com/orderdesk/order-system/internal/core/domain"
	"github.com/orderdesk/order-system/internal/infrastructure/mq"
)

const defaultReconnectDelay = 5 * time.Second

// Dedup suppresses redeliveries of already-handled events. Nil disables
// deduplication; a failing check is tolerated and the event is handled
// anyway (at-least-once beats dropped notifications).
type Dedup interface {
	IsDuplicate(ctx context.Context, event domain.OrderEvent) (bool, error)
	Mark(ctx context.Context, event domain.OrderEvent) error
}

// Notifier consumes order lifecycle events and performs the notification
// side effect (here: structured logging), acknowledging each message. It
// reconnects to the broker indefinitely with a fixed delay.
type Notifier struct {
	url            string
	queue          string
	dedup          Dedup
	log            zerolog.Logger
	reconnectDelay time.Duration
}

func NewNotifier(url, queue string, dedup Dedup, log zerolog.Logger) *Notifier {
	return &Notifier{
		url:            url,
		queue:          queue,
		dedup:          dedup,
		log:            log,
		reconnectDelay: defaultReconnectDelay,
	}
}

// Run blocks until ctx is cancelled, reconnecting after every broken
// connection.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		consumer, err := mq.NewConsumer(n.url, n.queue)
		if err != nil {
			n.log.Warn().Err(err).Dur("retry_in", n.reconnectDelay).Msg("waiting for rabbitmq")
			if !n.sleep(ctx) {
				return ctx.Err()
			}
			continue
		}

		n.log.Info().Str("queue", n.queue).Msg("connected to rabbitmq")
		n.consume(ctx, consumer)
		_ = consumer.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !n.sleep(ctx) {
			return ctx.Err()
		}
	}
}

// consume drains deliveries until the channel closes or ctx is cancelled.
func (n *Notifier) consume(ctx context.Context, consumer *mq.Consumer) {
	msgs, err := consumer.Deliveries(ctx)
	if err != nil {
		n.log.Warn().Err(err).Msg("failed to start consuming")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				n.log.Warn().Msg("delivery channel closed, reconnecting")
				return
			}
			n.handle(ctx, d)
		}
	}
}

func (n *Notifier) handle(ctx context.Context, d amqp.Delivery) {
	var event domain.OrderEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		// Malformed payloads are acked: requeueing them can only loop.
		metrics.EventsConsumedTotal.WithLabelValues("malformed").Inc()
		n.log.Warn().Err(err).Str("body", string(d.Body)).Msg("discarding malformed event")
		_ = d.Ack(false)
		return
	}

	if n.dedup != nil {
		dup, err := n.dedup.IsDuplicate(ctx, event)
		if err != nil {
			n.log.Warn().Err(err).Int64("order_id", event.OrderID).Msg("dedup check failed, handling anyway")
		} else if dup {
			metrics.EventsConsumedTotal.WithLabelValues("duplicate").Inc()
			n.log.Debug().Int64("order_id", event.OrderID).Str("action", event.Action).Msg("duplicate event skipped")
			_ = d.Ack(false)
			return
		}
		if err := n.dedup.Mark(ctx, event); err != nil {
			n.log.Warn().Err(err).Int64("order_id", event.OrderID).Msg("failed to set dedup key")
		}
	}

	metrics.EventsConsumedTotal.WithLabelValues("ok").Inc()
	n.log.Info().
		Int64("order_id", event.OrderID).
		Str("action", event.Action).
		Str("old_status", event.OldStatus).
		Str("new_status", event.NewStatus).
		Str("user_email", event.UserEmail).
		Msg(event.Message)

	_ = d.Ack(false)
}

// sleep waits the reconnect delay; false means ctx was cancelled.
func (n *Notifier) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(n.reconnectDelay):
		return true
	}
}
