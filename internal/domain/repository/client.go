package repository

import (
	"context"

	"github.com/dropDatabas3/grantd/internal/domain"
)

// ClientRepository resolves OAuth2 client records. Clients are provisioned by
// external tooling; the engine only reads them, Create exists for seeding.
type ClientRepository interface {
	// Get returns a client by id. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.Client, error)

	// Create persists a new client. Returns ErrConflict on duplicate id.
	Create(ctx context.Context, c *domain.Client) error
}

// ApplicationRepository resolves applications and their scope catalogs.
type ApplicationRepository interface {
	Get(ctx context.Context, id string) (*domain.Application, error)
	Create(ctx context.Context, a *domain.Application) error
}

// RoleRepository resolves roles and their permitted scopes.
type RoleRepository interface {
	Get(ctx context.Context, id string) (*domain.Role, error)
	Create(ctx context.Context, r *domain.Role) error
}
