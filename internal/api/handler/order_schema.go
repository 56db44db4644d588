package handler

import (
	"github.com/orderdesk/order-system/internal/core/domain"
	"github.com/orderdesk/order-system/internal/core/ports"
)

type createOrderRequest struct {
	Product     string  `json:"product"     validate:"required"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"    validate:"required,gt=0"`
	Price       float64 `json:"price"       validate:"required,gt=0"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type orderResponse struct {
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// statsResponse mirrors ports.StatsResult with the wire field names.
type statsResponse struct {
	Total             int64              `json:"total"`
	ByStatus          ports.StatusCounts `json:"byStatus"`
	TotalValue        float64            `json:"totalValue"`
	AverageOrderValue float64            `json:"averageOrderValue"`
}
