package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orderdesk/order-system/internal/core/domain"
)

const dedupTTL = time.Hour

// DedupChecker suppresses duplicate deliveries of lifecycle events. The
// queue is at-least-once, so the notifier can see the same event twice; a
// key derived from the event identity marks it as handled for dedupTTL.
// Key format: dedup:<order_id>:<action>:<old>-><new>
type DedupChecker struct {
	client *redis.Client
}

// NewDedupChecker creates a DedupChecker wrapping the given Redis client.
func NewDedupChecker(client *redis.Client) *DedupChecker {
	return &DedupChecker{client: client}
}

// IsDuplicate reports whether this exact event has already been handled.
func (d *DedupChecker) IsDuplicate(ctx context.Context, event domain.OrderEvent) (bool, error) {
	n, err := d.client.Exists(ctx, key(event)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this event has been handled (expires after dedupTTL).
func (d *DedupChecker) Mark(ctx context.Context, event domain.OrderEvent) error {
	return d.client.Set(ctx, key(event), "1", dedupTTL).Err()
}

func key(event domain.OrderEvent) string {
	return fmt.Sprintf("dedup:%d:%s:%s->%s", event.OrderID, event.Action, event.OldStatus, event.NewStatus)
}
