package ports

import (
	"context"

	"github.com/orderdesk/order-system/internal/core/domain"
)

// RegisterInput carries the data for a new registration.
// Name is optional; it defaults to the local part of the email.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthService defines registration, login and profile use cases.
type AuthService interface {
	// Register creates a user with role "user" and returns a signed token for it.
	Register(ctx context.Context, in RegisterInput) (string, *domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Profile(ctx context.Context, userID int64) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
}
