package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/orderdesk/order-system/internal/core/domain"
)

// The email column uses a binary collation so lookups and the unique
// constraint are case-sensitive exact matches.
const usersTable = `
CREATE TABLE IF NOT EXISTS users (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	email VARCHAR(255) COLLATE utf8mb4_bin NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	role VARCHAR(50) NOT NULL DEFAULT 'user',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	INDEX idx_users_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const ordersTable = `
CREATE TABLE IF NOT EXISTS orders (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	product VARCHAR(255) NOT NULL,
	description TEXT,
	quantity INT NOT NULL,
	price DECIMAL(12,2) NOT NULL,
	total DECIMAL(12,2) NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'pending',
	user_id BIGINT NOT NULL,
	user_email VARCHAR(255) NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	INDEX idx_orders_user_id (user_id),
	INDEX idx_orders_status (status)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// BootstrapUsers creates the users table and seeds the default admin
// account when it does not exist yet.
func BootstrapUsers(ctx context.Context, db *sql.DB, adminEmail, adminPassword string) error {
	if _, err := db.ExecContext(ctx, usersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}

	var id int64
	err := db.QueryRowContext(ctx, "SELECT id FROM users WHERE email = ?", adminEmail).Scan(&id)
	switch {
	case err == nil:
		return nil
	case err != sql.ErrNoRows:
		return fmt.Errorf("check admin user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role) VALUES (?, ?, ?, ?)",
		"Administrator", adminEmail, string(hash), domain.RoleAdmin,
	)
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	return nil
}

// BootstrapOrders creates the orders table.
func BootstrapOrders(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, ordersTable); err != nil {
		return fmt.Errorf("create orders table: %w", err)
	}
	return nil
}
