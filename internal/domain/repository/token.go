package repository

import (
	"context"
	"time"

	"github.com/dropDatabas3/grantd/internal/domain"
)

// TokenRepository persists OAuth tokens. Delete is the single-use guard for
// rotation and code exchange: it must return ErrNotFound when the row is
// already gone so exactly one of two racing consumers can win.
type TokenRepository interface {
	// Get returns a token by id. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.OAuthToken, error)

	// Create persists a new token. Returns ErrConflict on duplicate id.
	Create(ctx context.Context, t *domain.OAuthToken) error

	// Delete removes a token by id. Returns ErrNotFound when no row was
	// deleted (compare-and-delete semantics).
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes every token whose expiry instant is strictly
	// before cutoff and returns the number deleted.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
}
