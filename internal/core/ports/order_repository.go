package ports

import (
	"context"
	"time"

	"github.com/orderdesk/order-system/internal/core/domain"
)

// OrderFilter scopes queries to a single owner. UserID 0 means no filter
// (admin scope); the service layer decides which scope applies.
type OrderFilter struct {
	UserID int64
}

// StatusCounts holds per-status order counts for a scope.
type StatusCounts struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Cancelled  int64 `json:"cancelled"`
}

// OrderStats is the aggregate view computed by the store in a single query.
type OrderStats struct {
	Total      int64
	ByStatus   StatusCounts
	TotalValue float64
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	// Create inserts the order and returns it with the store-assigned ID.
	Create(ctx context.Context, o *domain.Order) (*domain.Order, error)
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	// List returns orders matching filter, newest-created first.
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)
	// UpdateStatus sets the new status and refreshes updated_at. The write
	// re-asserts the expected current status so a concurrent transition
	// surfaces as ErrOrderNotFound instead of silently clobbering.
	UpdateStatus(ctx context.Context, id int64, from, to domain.OrderStatus, at time.Time) error
	Delete(ctx context.Context, id int64) error
	// Stats aggregates counts and total value for the scope.
	Stats(ctx context.Context, filter OrderFilter) (*OrderStats, error)
}
