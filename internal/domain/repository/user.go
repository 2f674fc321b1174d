package repository

import (
	"context"

	"github.com/dropDatabas3/grantd/internal/domain"
)

// UserRepository persists end users.
type UserRepository interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}

// IdentityRepository persists the per-authenticator identities of users.
type IdentityRepository interface {
	// Get returns an identity by id. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.UserIdentity, error)

	// GetByRemote looks an identity up by its natural key: the owning
	// application, the authenticator kind and the remote id (username or
	// provider subject). Returns ErrNotFound if absent.
	GetByRemote(ctx context.Context, applicationID string, kind domain.AuthenticatorKind, remoteID string) (*domain.UserIdentity, error)

	// Create persists a new identity. Returns ErrConflict when the natural
	// key already exists.
	Create(ctx context.Context, id *domain.UserIdentity) error
}
