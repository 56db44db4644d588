package domain

import (
	"math"
	"time"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

// validTransitions defines the allowed state machine transitions.
// Completed and cancelled are terminal: they have no outgoing edges.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted},
}

// ParseStatus converts a raw status string into an OrderStatus.
// Unrecognized values fail with ErrInvalidStatus.
func ParseStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return OrderStatus(s), nil
	}
	return "", ErrInvalidStatus
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// Order is the core aggregate root.
type Order struct {
	ID          int64       `json:"id"`
	Product     string      `json:"product"`
	Description string      `json:"description"`
	Quantity    int         `json:"quantity"`
	Price       float64     `json:"price"`
	Total       float64     `json:"total"`
	Status      OrderStatus `json:"status"`
	UserID      int64       `json:"userId"`
	UserEmail   string      `json:"userEmail"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// OwnedBy reports whether the order belongs to the given user.
func (o *Order) OwnedBy(userID int64) bool {
	return o.UserID == userID
}

// RoundMoney rounds a monetary amount to 2 decimal places.
// The order total is computed once at creation and never recomputed.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
