package ports

import (
	"context"

	"github.com/orderdesk/order-system/internal/core/domain"
)

// EventPublisher delivers order lifecycle events to the durable queue.
// Delivery is best-effort from the caller's perspective: the order service
// never blocks on or fails because of a publish outcome.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.OrderEvent) error
}
