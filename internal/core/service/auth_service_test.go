package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/orderdesk/order-system/internal/core/domain"
	"github.com/orderdesk/order-system/internal/core/ports"
)

const testSecret = "test-secret"

type stubAuthRepo struct {
	users  map[string]*domain.User
	nextID int64

	findErr   error
	createErr error
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{users: make(map[string]*domain.User), nextID: 1}
}

func (r *stubAuthRepo) seed(user *domain.User) *domain.User {
	if user.ID == 0 {
		user.ID = r.nextID
		r.nextID++
	}
	r.users[user.Email] = user
	return user
}

func (r *stubAuthRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	user, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (r *stubAuthRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAuthRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	cp := *user
	cp.ID = r.nextID
	r.nextID++
	r.users[cp.Email] = &cp
	return &cp, nil
}

func (r *stubAuthRepo) List(_ context.Context) ([]*domain.User, error) {
	var out []*domain.User
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, nil
}

func newAuthService(repo ports.AuthRepository) *AuthService {
	return NewAuthService(repo, testSecret, 24*time.Hour, zerolog.Nop())
}

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(token, func(_ *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("unexpected claims type %T", parsed.Claims)
	}
	return claims
}

func TestRegister(t *testing.T) {
	repo := newStubAuthRepo()
	svc := newAuthService(repo)

	token, user, err := svc.Register(context.Background(), ports.RegisterInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID == 0 {
		t.Error("expected an assigned user ID")
	}
	if user.Role != domain.RoleUser {
		t.Errorf("role = %q, registration must always assign %q", user.Role, domain.RoleUser)
	}
	if user.PasswordHash == "secret123" {
		t.Error("password must not be stored in clear")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")) != nil {
		t.Error("stored hash does not verify the original password")
	}

	claims := parseClaims(t, token)
	if claims["email"] != "alice@example.com" {
		t.Errorf("token email = %v", claims["email"])
	}
	if claims["role"] != domain.RoleUser {
		t.Errorf("token role = %v", claims["role"])
	}
	if int64(claims["user_id"].(float64)) != user.ID {
		t.Errorf("token user_id = %v, want %d", claims["user_id"], user.ID)
	}
	exp := int64(claims["exp"].(float64))
	if remaining := time.Until(time.Unix(exp, 0)); remaining < 23*time.Hour || remaining > 25*time.Hour {
		t.Errorf("token lifetime = %v, want about 24h", remaining)
	}
}

func TestRegisterDefaultsNameFromEmail(t *testing.T) {
	repo := newStubAuthRepo()
	svc := newAuthService(repo)

	_, user, err := svc.Register(context.Background(), ports.RegisterInput{
		Email:    "carol@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Name != "carol" {
		t.Errorf("name = %q, want %q", user.Name, "carol")
	}
}

func TestRegisterInvalidEmail(t *testing.T) {
	svc := newAuthService(newStubAuthRepo())

	for _, email := range []string{"", "plain", "missing@tld", "a b@example.com", "@example.com"} {
		_, _, err := svc.Register(context.Background(), ports.RegisterInput{Email: email, Password: "secret123"})
		if !errors.Is(err, domain.ErrInvalidEmail) {
			t.Errorf("Register(%q) expected ErrInvalidEmail, got %v", email, err)
		}
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	svc := newAuthService(newStubAuthRepo())

	_, _, err := svc.Register(context.Background(), ports.RegisterInput{Email: "dave@example.com", Password: "12345"})
	if !errors.Is(err, domain.ErrWeakPassword) {
		t.Errorf("expected ErrWeakPassword, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newStubAuthRepo()
	repo.seed(&domain.User{Email: "alice@example.com", Role: domain.RoleUser})
	svc := newAuthService(repo)

	_, _, err := svc.Register(context.Background(), ports.RegisterInput{Email: "alice@example.com", Password: "secret123"})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	repo := newStubAuthRepo()
	seeded := repo.seed(&domain.User{
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	})
	svc := newAuthService(repo)

	token, user, err := svc.Login(context.Background(), "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != seeded.ID {
		t.Errorf("user ID = %d, want %d", user.ID, seeded.ID)
	}

	claims := parseClaims(t, token)
	if claims["role"] != domain.RoleAdmin {
		t.Errorf("token role = %v, want admin", claims["role"])
	}
}

func TestLoginRejections(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	repo := newStubAuthRepo()
	repo.seed(&domain.User{Email: "alice@example.com", PasswordHash: string(hash), Role: domain.RoleUser})
	svc := newAuthService(repo)

	cases := []struct {
		name, email, password string
	}{
		{"empty email", "", "secret123"},
		{"empty password", "alice@example.com", ""},
		{"unknown email", "nobody@example.com", "secret123"},
		{"wrong password", "alice@example.com", "wrong-password"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := svc.Login(context.Background(), c.email, c.password)
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestProfile(t *testing.T) {
	repo := newStubAuthRepo()
	seeded := repo.seed(&domain.User{Email: "alice@example.com", Role: domain.RoleUser})
	svc := newAuthService(repo)

	user, err := svc.Profile(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email = %q", user.Email)
	}

	if _, err := svc.Profile(context.Background(), 999); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
