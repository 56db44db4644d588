package ports

import (
	"context"

	"github.com/orderdesk/order-system/internal/core/domain"
)

// CreateOrderInput carries all data needed to create a new order.
type CreateOrderInput struct {
	Product     string
	Description string
	Quantity    int
	Price       float64
}

// StatsResult is the aggregate view returned to the transport layer.
// Monetary figures are rounded to 2 decimals.
type StatsResult struct {
	Total             int64
	ByStatus          StatusCounts
	TotalValue        float64
	AverageOrderValue float64
}

// OrderService defines the order lifecycle use cases. Every operation is
// scoped by the acting identity: admins see and touch everything, other
// users only their own orders.
type OrderService interface {
	Create(ctx context.Context, actor domain.Actor, in CreateOrderInput) (*domain.Order, error)
	List(ctx context.Context, actor domain.Actor) ([]*domain.Order, error)
	GetByID(ctx context.Context, actor domain.Actor, id int64) (*domain.Order, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, id int64, status string) (*domain.Order, error)
	Delete(ctx context.Context, actor domain.Actor, id int64) error
	Stats(ctx context.Context, actor domain.Actor) (*StatsResult, error)
}
