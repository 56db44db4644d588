package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/orderdesk/order-system/internal/core/domain"
	"github.com/orderdesk/order-system/internal/core/ports"
)

type stubOrderRepo struct {
	mu         sync.Mutex
	orders     map[int64]*domain.Order
	nextID     int64
	lastFilter ports.OrderFilter
	stats      *ports.OrderStats

	createErr error
	updateErr error
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[int64]*domain.Order), nextID: 1}
}

func (r *stubOrderRepo) seed(o *domain.Order) *domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == 0 {
		o.ID = r.nextID
		r.nextID++
	}
	cp := *o
	r.orders[o.ID] = &cp
	return o
}

func (r *stubOrderRepo) Create(_ context.Context, o *domain.Order) (*domain.Order, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	cp.ID = r.nextID
	r.nextID++
	stored := cp
	r.orders[cp.ID] = &stored
	return &cp, nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *stubOrderRepo) List(_ context.Context, filter ports.OrderFilter) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = filter
	var out []*domain.Order
	for _, o := range r.orders {
		if filter.UserID != 0 && o.UserID != filter.UserID {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (r *stubOrderRepo) UpdateStatus(_ context.Context, id int64, from, to domain.OrderStatus, at time.Time) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return domain.ErrOrderNotFound
	}
	o.Status = to
	o.UpdatedAt = at
	return nil
}

func (r *stubOrderRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.orders, id)
	return nil
}

func (r *stubOrderRepo) Stats(_ context.Context, filter ports.OrderFilter) (*ports.OrderStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = filter
	if r.stats != nil {
		return r.stats, nil
	}
	return &ports.OrderStats{}, nil
}

// stubPublisher records every published event on a channel so tests can wait
// for the detached publish goroutine.
type stubPublisher struct {
	events chan domain.OrderEvent
	err    error
}

func newStubPublisher() *stubPublisher {
	return &stubPublisher{events: make(chan domain.OrderEvent, 8)}
}

func (p *stubPublisher) Publish(_ context.Context, event domain.OrderEvent) error {
	p.events <- event
	return p.err
}

func (p *stubPublisher) wait(t *testing.T) domain.OrderEvent {
	t.Helper()
	select {
	case e := <-p.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published event")
		return domain.OrderEvent{}
	}
}

func (p *stubPublisher) expectNone(t *testing.T) {
	t.Helper()
	select {
	case e := <-p.events:
		t.Fatalf("unexpected event published: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

var (
	admin = domain.Actor{UserID: 1, Email: "admin@admin.com", Role: domain.RoleAdmin}
	alice = domain.Actor{UserID: 2, Email: "alice@example.com", Role: domain.RoleUser}
	bob   = domain.Actor{UserID: 3, Email: "bob@example.com", Role: domain.RoleUser}
)

func newOrderService(repo ports.OrderRepository, pub ports.EventPublisher) *OrderService {
	return NewOrderService(repo, pub, zerolog.Nop())
}

func pendingOrder(repo *stubOrderRepo, owner domain.Actor) *domain.Order {
	return repo.seed(&domain.Order{
		Product:   "Widget",
		Quantity:  3,
		Price:     10.00,
		Total:     30.00,
		Status:    domain.StatusPending,
		UserID:    owner.UserID,
		UserEmail: owner.Email,
	})
}

func TestCreateOrder(t *testing.T) {
	repo := newStubOrderRepo()
	pub := newStubPublisher()
	svc := newOrderService(repo, pub)

	order, err := svc.Create(context.Background(), alice, ports.CreateOrderInput{
		Product:  "Widget",
		Quantity: 3,
		Price:    10.00,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ID == 0 {
		t.Error("expected an assigned order ID")
	}
	if order.Status != domain.StatusPending {
		t.Errorf("new order status = %s, want pending", order.Status)
	}
	if order.Total != 30.00 {
		t.Errorf("total = %v, want 30.00", order.Total)
	}
	if order.UserID != alice.UserID || order.UserEmail != alice.Email {
		t.Errorf("order owner = %d/%s, want %d/%s", order.UserID, order.UserEmail, alice.UserID, alice.Email)
	}

	event := pub.wait(t)
	if event.OrderID != order.ID {
		t.Errorf("event order ID = %d, want %d", event.OrderID, order.ID)
	}
	if event.Action != "" {
		t.Errorf("creation event action = %q, want empty", event.Action)
	}
	if event.Message != "New order: Widget - quantity: 3" {
		t.Errorf("event message = %q", event.Message)
	}
}

func TestCreateOrderRoundsTotal(t *testing.T) {
	repo := newStubOrderRepo()
	svc := newOrderService(repo, nil)

	order, err := svc.Create(context.Background(), alice, ports.CreateOrderInput{
		Product:  "Gadget",
		Quantity: 3,
		Price:    19.99,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Total != 59.97 {
		t.Errorf("total = %v, want 59.97", order.Total)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	repo := newStubOrderRepo()
	svc := newOrderService(repo, nil)

	cases := []ports.CreateOrderInput{
		{Quantity: 1, Price: 1},
		{Product: "Widget", Price: 1},
		{Product: "Widget", Quantity: 1},
		{Product: "Widget", Quantity: -1, Price: 1},
		{Product: "Widget", Quantity: 1, Price: -0.5},
	}
	for _, in := range cases {
		if _, err := svc.Create(context.Background(), alice, in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("Create(%+v) expected ErrInvalidInput, got %v", in, err)
		}
	}
	if len(repo.orders) != 0 {
		t.Errorf("invalid input must not persist orders, found %d", len(repo.orders))
	}
}

func TestCreateOrderPublishFailureDoesNotFailCreate(t *testing.T) {
	repo := newStubOrderRepo()
	pub := newStubPublisher()
	pub.err = errors.New("broker down")
	svc := newOrderService(repo, pub)

	order, err := svc.Create(context.Background(), alice, ports.CreateOrderInput{
		Product:  "Widget",
		Quantity: 1,
		Price:    5,
	})
	if err != nil {
		t.Fatalf("create must succeed even when publish fails: %v", err)
	}
	pub.wait(t)
	if _, err := repo.FindByID(context.Background(), order.ID); err != nil {
		t.Errorf("order must remain persisted: %v", err)
	}
}

func TestListScopesByActor(t *testing.T) {
	repo := newStubOrderRepo()
	svc := newOrderService(repo, nil)
	pendingOrder(repo, alice)
	pendingOrder(repo, bob)

	orders, err := svc.List(context.Background(), alice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 1 || orders[0].UserID != alice.UserID {
		t.Errorf("non-admin must only see own orders, got %d", len(orders))
	}
	if repo.lastFilter.UserID != alice.UserID {
		t.Errorf("filter user = %d, want %d", repo.lastFilter.UserID, alice.UserID)
	}

	orders, err = svc.List(context.Background(), admin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 2 {
		t.Errorf("admin must see all orders, got %d", len(orders))
	}
	if repo.lastFilter.UserID != 0 {
		t.Errorf("admin filter user = %d, want 0", repo.lastFilter.UserID)
	}
}

func TestGetByIDOwnership(t *testing.T) {
	repo := newStubOrderRepo()
	svc := newOrderService(repo, nil)
	order := pendingOrder(repo, alice)

	if _, err := svc.GetByID(context.Background(), alice, order.ID); err != nil {
		t.Errorf("owner read failed: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), admin, order.ID); err != nil {
		t.Errorf("admin read failed: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), bob, order.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("foreign read expected ErrForbidden, got %v", err)
	}
	if _, err := svc.GetByID(context.Background(), admin, 999); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("missing order expected ErrOrderNotFound, got %v", err)
	}
}

func TestUpdateStatusAdminFollowsGraph(t *testing.T) {
	repo := newStubOrderRepo()
	pub := newStubPublisher()
	svc := newOrderService(repo, pub)
	order := pendingOrder(repo, alice)

	updated, err := svc.UpdateStatus(context.Background(), admin, order.ID, "processing")
	if err != nil {
		t.Fatalf("pending -> processing failed: %v", err)
	}
	if updated.Status != domain.StatusProcessing {
		t.Errorf("status = %s, want processing", updated.Status)
	}

	event := pub.wait(t)
	if event.Action != domain.ActionStatusUpdated {
		t.Errorf("event action = %q, want %q", event.Action, domain.ActionStatusUpdated)
	}
	if event.OldStatus != "pending" || event.NewStatus != "processing" {
		t.Errorf("event transition = %s -> %s", event.OldStatus, event.NewStatus)
	}

	if _, err := svc.UpdateStatus(context.Background(), admin, order.ID, "completed"); err != nil {
		t.Fatalf("processing -> completed failed: %v", err)
	}
	pub.wait(t)
}

func TestUpdateStatusNoAdminShortcut(t *testing.T) {
	repo := newStubOrderRepo()
	pub := newStubPublisher()
	svc := newOrderService(repo, pub)
	order := pendingOrder(repo, alice)

	// The lifecycle graph binds admins too: no skipping processing.
	if _, err := svc.UpdateStatus(context.Background(), admin, order.ID, "completed"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("pending -> completed expected ErrInvalidTransition, got %v", err)
	}
	pub.expectNone(t)
}

func TestUpdateStatusTerminalStatesAreFinal(t *testing.T) {
	repo := newStubOrderRepo()
	svc := newOrderService(repo, nil)

	for _, terminal := range []domain.OrderStatus{domain.StatusCompleted, domain.StatusCancelled} {
		order := repo.seed(&domain.Order{
			Product: "Widget", Quantity: 1, Price: 5, Total: 5,
			Status: terminal, UserID: alice.UserID,
		})
		for _, next := range []string{"pending", "processing", "completed", "cancelled"} {
			if string(terminal) == next {
				continue
			}
			_, err := svc.UpdateStatus(context.Background(), admin, order.ID, next)
			if !errors.Is(err, domain.ErrInvalidTransition) {
				t.Errorf("%s -> %s expected ErrInvalidTransition, got %v", terminal, next, err)
			}
		}
	}
}

func TestUpdateStatusNonAdminRules(t *testing.T) {
	repo := newStubOrderRepo()
	pub := newStubPublisher()
	svc := newOrderService(repo, pub)

	// Owner may cancel a pending order.
	order := pendingOrder(repo, alice)
	updated, err := svc.UpdateStatus(context.Background(), alice, order.ID, "cancelled")
	if err != nil {
		t.Fatalf("owner cancel failed: %v", err)
	}
	if updated.Status != domain.StatusCancelled {
		t.Errorf("status = %s, want cancelled", updated.Status)
	}
	pub.wait(t)

	// Owner may not advance the lifecycle.
	order = pendingOrder(repo, alice)
	if _, err := svc.UpdateStatus(context.Background(), alice, order.ID, "processing"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("owner pending -> processing expected ErrForbidden, got %v", err)
	}

	// Non-owner may not touch the order at all, regardless of transition.
	if _, err := svc.UpdateStatus(context.Background(), bob, order.ID, "cancelled"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("foreign cancel expected ErrForbidden, got %v", err)
	}

	// Owner may not cancel once processing started.
	processing := repo.seed(&domain.Order{
		Product: "Widget", Quantity: 1, Price: 5, Total: 5,
		Status: domain.StatusProcessing, UserID: alice.UserID,
	})
	if _, err := svc.UpdateStatus(context.Background(), alice, processing.ID, "cancelled"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("owner processing -> cancelled expected ErrForbidden, got %v", err)
	}
	pub.expectNone(t)
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	repo := newStubOrderRepo()
	svc := newOrderService(repo, nil)
	order := pendingOrder(repo, alice)

	if _, err := svc.UpdateStatus(context.Background(), admin, order.ID, "shipped"); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestUpdateStatusMissingOrder(t *testing.T) {
	repo := newStubOrderRepo()
	svc := newOrderService(repo, nil)

	if _, err := svc.UpdateStatus(context.Background(), admin, 42, "processing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestDeleteOrder(t *testing.T) {
	repo := newStubOrderRepo()
	svc := newOrderService(repo, nil)

	// Owner deletes own pending order.
	order := pendingOrder(repo, alice)
	if err := svc.Delete(context.Background(), alice, order.ID); err != nil {
		t.Errorf("owner delete of pending order failed: %v", err)
	}

	// Owner may not delete once processing started; admin may.
	processing := repo.seed(&domain.Order{
		Product: "Widget", Quantity: 1, Price: 5, Total: 5,
		Status: domain.StatusProcessing, UserID: alice.UserID,
	})
	if err := svc.Delete(context.Background(), alice, processing.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("owner delete of processing order expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(context.Background(), admin, processing.ID); err != nil {
		t.Errorf("admin delete failed: %v", err)
	}

	// Non-owner may not delete.
	other := pendingOrder(repo, alice)
	if err := svc.Delete(context.Background(), bob, other.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("foreign delete expected ErrForbidden, got %v", err)
	}

	if err := svc.Delete(context.Background(), admin, 999); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("missing order expected ErrOrderNotFound, got %v", err)
	}
}

func TestStats(t *testing.T) {
	repo := newStubOrderRepo()
	repo.stats = &ports.OrderStats{
		Total: 3,
		ByStatus: ports.StatusCounts{
			Pending:   1,
			Completed: 2,
		},
		TotalValue: 100.004,
	}
	svc := newOrderService(repo, nil)

	result, err := svc.Stats(context.Background(), alice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 3 {
		t.Errorf("total = %d, want 3", result.Total)
	}
	if result.ByStatus.Pending != 1 || result.ByStatus.Completed != 2 {
		t.Errorf("byStatus = %+v", result.ByStatus)
	}
	if result.TotalValue != 100.0 {
		t.Errorf("totalValue = %v, want 100.0", result.TotalValue)
	}
	if result.AverageOrderValue != 33.33 {
		t.Errorf("averageOrderValue = %v, want 33.33", result.AverageOrderValue)
	}
	if repo.lastFilter.UserID != alice.UserID {
		t.Errorf("stats filter user = %d, want %d", repo.lastFilter.UserID, alice.UserID)
	}
}

func TestStatsEmptyScope(t *testing.T) {
	repo := newStubOrderRepo()
	svc := newOrderService(repo, nil)

	result, err := svc.Stats(context.Background(), admin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 0 || result.TotalValue != 0 || result.AverageOrderValue != 0 {
		t.Errorf("empty stats = %+v, want zeroes", result)
	}
}
