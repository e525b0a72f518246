package http

import (
	"context"
	"time"

	"github.com/go-identity-api/internal/domain"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	// GetByEmail expects a normalized (trimmed, lowercased) email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// KeyValueStore is the minimal interface the router requires from the
// keyed-expiry store backing OTP codes and verified markers.
type KeyValueStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	CompareAndDelete(ctx context.Context, key, expected string) (bool, error)
}
