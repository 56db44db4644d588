package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/orderdesk/order-system/internal/api/metrics"
	"github.com/orderdesk/order-system/internal/core/domain"
	"github.com/orderdesk/order-system/internal/core/ports"
)

const publishTimeout = 5 * time.Second

// OrderService owns the order lifecycle state machine: it enforces the
// transition graph and per-transition authorization, and emits lifecycle
// events after successful writes. Event emission is fire-and-forget; a
// failed publish is logged and dropped, never surfaced to the caller.
type OrderService struct {
	repo      ports.OrderRepository
	publisher ports.EventPublisher
	log       zerolog.Logger
}

func NewOrderService(repo ports.OrderRepository, publisher ports.EventPublisher, log zerolog.Logger) *OrderService {
	return &OrderService{repo: repo, publisher: publisher, log: log}
}

// Create validates input, persists a pending order owned by the actor, and
// emits a creation event.
func (s *OrderService) Create(ctx context.Context, actor domain.Actor, in ports.CreateOrderInput) (*domain.Order, error) {
	if in.Product == "" || in.Quantity == 0 || in.Price == 0 {
		return nil, fmt.Errorf("%w: product, quantity and price are required", domain.ErrInvalidInput)
	}
	if in.Quantity <= 0 || in.Price <= 0 {
		return nil, fmt.Errorf("%w: quantity and price must be greater than 0", domain.ErrInvalidInput)
	}

	now := time.Now().UTC()
	order := &domain.Order{
		Product:     in.Product,
		Description: in.Description,
		Quantity:    in.Quantity,
		Price:       in.Price,
		Total:       domain.RoundMoney(float64(in.Quantity) * in.Price),
		Status:      domain.StatusPending,
		UserID:      actor.UserID,
		UserEmail:   actor.Email,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		s.log.Error().Err(err).Str("product", in.Product).Msg("failed to create order")
		return nil, err
	}

	metrics.OrdersCreatedTotal.Inc()
	s.log.Info().Int64("order_id", created.ID).Str("product", created.Product).
		Str("user_email", created.UserEmail).Msg("order created")

	s.publishAsync(domain.OrderEvent{
		OrderID:   created.ID,
		Product:   created.Product,
		UserEmail: created.UserEmail,
		Message:   fmt.Sprintf("New order: %s - quantity: %d", created.Product, created.Quantity),
	})

	return created, nil
}

// List returns the orders visible to the actor, newest-created first.
func (s *OrderService) List(ctx context.Context, actor domain.Actor) ([]*domain.Order, error) {
	return s.repo.List(ctx, s.scope(actor))
}

// GetByID returns a single order, enforcing ownership for non-admins.
func (s *OrderService) GetByID(ctx context.Context, actor domain.Actor, id int64) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !order.OwnedBy(actor.UserID) {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

// UpdateStatus applies a status transition.
//
// Authorization policy:
//   - The transition graph is authoritative for everyone, admins included;
//     there is no admin bypass of the lifecycle edges.
//   - Admins may act on any order; other actors only on their own, and the
//     ownership check fails before any status logic runs.
//   - Non-admin owners may only move pending orders to cancelled.
func (s *OrderService) UpdateStatus(ctx context.Context, actor domain.Actor, id int64, status string) (*domain.Order, error) {
	next, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		if !order.OwnedBy(actor.UserID) {
			return nil, domain.ErrForbidden
		}
		if next != domain.StatusCancelled || order.Status != domain.StatusPending {
			return nil, domain.ErrForbidden
		}
	}

	if !order.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, order.Status, next)
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, order.Status, next, now); err != nil {
		s.log.Error().Err(err).Int64("order_id", id).Msg("failed to update order status")
		return nil, err
	}

	old := order.Status
	order.Status = next
	order.UpdatedAt = now

	metrics.StatusTransitionsTotal.WithLabelValues(string(old), string(next)).Inc()
	s.log.Info().Int64("order_id", id).Str("from", string(old)).Str("to", string(next)).
		Str("actor", actor.Email).Msg("order status updated")

	s.publishAsync(domain.OrderEvent{
		OrderID:   order.ID,
		Action:    domain.ActionStatusUpdated,
		OldStatus: string(old),
		NewStatus: string(next),
		Message:   fmt.Sprintf("Order #%d changed status: %s -> %s", order.ID, old, next),
	})

	return order, nil
}

// Delete removes an order. Admins may delete any order; other actors only
// their own, and only while it is still pending. No event is emitted.
func (s *OrderService) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if !actor.IsAdmin() {
		if !order.OwnedBy(actor.UserID) || order.Status != domain.StatusPending {
			return domain.ErrForbidden
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info().Int64("order_id", id).Str("actor", actor.Email).Msg("order deleted")
	return nil
}

// Stats returns aggregate figures for the actor's scope. Monetary values
// are rounded to 2 decimals and the average guards against division by zero.
func (s *OrderService) Stats(ctx context.Context, actor domain.Actor) (*ports.StatsResult, error) {
	stats, err := s.repo.Stats(ctx, s.scope(actor))
	if err != nil {
		return nil, err
	}

	result := &ports.StatsResult{
		Total:      stats.Total,
		ByStatus:   stats.ByStatus,
		TotalValue: domain.RoundMoney(stats.TotalValue),
	}
	if stats.Total > 0 {
		result.AverageOrderValue = domain.RoundMoney(stats.TotalValue / float64(stats.Total))
	}
	return result, nil
}

// scope maps the actor to a repository filter: admins see everything.
func (s *OrderService) scope(actor domain.Actor) ports.OrderFilter {
	if actor.IsAdmin() {
		return ports.OrderFilter{}
	}
	return ports.OrderFilter{UserID: actor.UserID}
}

// publishAsync emits the event on a detached goroutine. The triggering
// operation has already committed; a publish failure must not undo it or
// reach the caller.
func (s *OrderService) publishAsync(event domain.OrderEvent) {
	if s.publisher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := s.publisher.Publish(ctx, event); err != nil {
			metrics.EventsPublishedTotal.WithLabelValues("error").Inc()
			s.log.Warn().Err(err).Int64("order_id", event.OrderID).Msg("event publish failed, dropping")
			return
		}
		metrics.EventsPublishedTotal.WithLabelValues("ok").Inc()
	}()
}
