package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/orderdesk/order-system/internal/core/domain"
	"github.com/orderdesk/order-system/internal/core/ports"
)

// OrderRepository implements ports.OrderRepository backed by the orders table.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = "id, product, description, quantity, price, total, status, user_id, user_email, created_at, updated_at"

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO orders (product, description, quantity, price, total, status, user_id, user_email, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.Product, o.Description, o.Quantity, o.Price, o.Total, string(o.Status),
		o.UserID, o.UserEmail, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert order: last id: %w", err)
	}

	created := *o
	created.ID = id
	return &created, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id)

	var o domain.Order
	var status string
	err := row.Scan(&o.ID, &o.Product, &o.Description, &o.Quantity, &o.Price, &o.Total,
		&status, &o.UserID, &o.UserEmail, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

// List returns orders matching filter, newest-created first.
func (r *OrderRepository) List(ctx context.Context, filter ports.OrderFilter) ([]*domain.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders"
	var args []any
	if filter.UserID != 0 {
		query += " WHERE user_id = ?"
		args = append(args, filter.UserID)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var o domain.Order
		var status string
		if err := rows.Scan(&o.ID, &o.Product, &o.Description, &o.Quantity, &o.Price, &o.Total,
			&status, &o.UserID, &o.UserEmail, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Status = domain.OrderStatus(status)
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}

// UpdateStatus sets the new status and refreshed updated_at. The WHERE
// clause re-asserts the expected current status so a concurrent transition
// results in zero affected rows instead of overwriting it.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.OrderStatus, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		string(to), at, id, string(from),
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM orders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete order: rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// Stats aggregates counts and total value per status in a single query.
func (r *OrderRepository) Stats(ctx context.Context, filter ports.OrderFilter) (*ports.OrderStats, error) {
	query := "SELECT status, COUNT(*), COALESCE(SUM(total), 0) FROM orders"
	var args []any
	if filter.UserID != 0 {
		query += " WHERE user_id = ?"
		args = append(args, filter.UserID)
	}
	query += " GROUP BY status"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	defer rows.Close()

	stats := &ports.OrderStats{}
	for rows.Next() {
		var status string
		var count int64
		var sum float64
		if err := rows.Scan(&status, &count, &sum); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}

		stats.Total += count
		stats.TotalValue += sum

		switch domain.OrderStatus(status) {
		case domain.StatusPending:
			stats.ByStatus.Pending = count
		case domain.StatusProcessing:
			stats.ByStatus.Processing = count
		case domain.StatusCompleted:
			stats.ByStatus.Completed = count
		case domain.StatusCancelled:
			stats.ByStatus.Cancelled = count
		}
	}
	return stats, rows.Err()
}
