package ports

import (
	"context"

	"github.com/orderdesk/order-system/internal/core/domain"
)

// AuthRepository defines the interface for user persistence.
type AuthRepository interface {
	// FindByEmail looks up a user by exact, case-sensitive email match.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// List returns every user, newest first. No pagination.
	List(ctx context.Context) ([]*domain.User, error)
}
