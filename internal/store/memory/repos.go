package memory

import (
	"context"
	"time"

	"github.com/dropDatabas3/grantd/internal/domain"
	"github.com/dropDatabas3/grantd/internal/domain/repository"
)

// The repositories below operate on a dataset without locking. They are
// only reachable through a transaction view, where the root lock is held.

type clientRepo struct{ d *dataset }

func (r clientRepo) Get(ctx context.Context, id string) (*domain.Client, error) {
	c, ok := r.d.clients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (r clientRepo) Create(ctx context.Context, c *domain.Client) error {
	if _, ok := r.d.clients[c.ID]; ok {
		return repository.ErrConflict
	}
	r.d.clients[c.ID] = c
	return nil
}

type appRepo struct{ d *dataset }

func (r appRepo) Get(ctx context.Context, id string) (*domain.Application, error) {
	a, ok := r.d.apps[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

func (r appRepo) Create(ctx context.Context, a *domain.Application) error {
	if _, ok := r.d.apps[a.ID]; ok {
		return repository.ErrConflict
	}
	r.d.apps[a.ID] = a
	return nil
}

type roleRepo struct{ d *dataset }

func (r roleRepo) Get(ctx context.Context, id string) (*domain.Role, error) {
	role, ok := r.d.roles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return role, nil
}

func (r roleRepo) Create(ctx context.Context, role *domain.Role) error {
	if _, ok := r.d.roles[role.ID]; ok {
		return repository.ErrConflict
	}
	r.d.roles[role.ID] = role
	return nil
}

type userRepo struct{ d *dataset }

func (r userRepo) Get(ctx context.Context, id string) (*domain.User, error) {
	u, ok := r.d.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (r userRepo) Create(ctx context.Context, u *domain.User) error {
	if _, ok := r.d.users[u.ID]; ok {
		return repository.ErrConflict
	}
	r.d.users[u.ID] = u
	return nil
}

type identityRepo struct{ d *dataset }

func (r identityRepo) Get(ctx context.Context, id string) (*domain.UserIdentity, error) {
	ident, ok := r.d.identities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return ident, nil
}

func (r identityRepo) GetByRemote(ctx context.Context, applicationID string, kind domain.AuthenticatorKind, remoteID string) (*domain.UserIdentity, error) {
	for _, ident := range r.d.identities {
		if ident.ApplicationID == applicationID && ident.Kind == kind && ident.RemoteID == remoteID {
			return ident, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r identityRepo) Create(ctx context.Context, ident *domain.UserIdentity) error {
	if _, ok := r.d.identities[ident.ID]; ok {
		return repository.ErrConflict
	}
	if _, err := r.GetByRemote(ctx, ident.ApplicationID, ident.Kind, ident.RemoteID); err == nil {
		return repository.ErrConflict
	}
	r.d.identities[ident.ID] = ident
	return nil
}

type tokenRepo struct{ d *dataset }

func (r tokenRepo) Get(ctx context.Context, id string) (*domain.OAuthToken, error) {
	t, ok := r.d.tokens[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t.Clone(), nil
}

func (r tokenRepo) Create(ctx context.Context, t *domain.OAuthToken) error {
	if _, ok := r.d.tokens[t.ID]; ok {
		return repository.ErrConflict
	}
	r.d.tokens[t.ID] = t.Clone()
	return nil
}

func (r tokenRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.d.tokens[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.d.tokens, id)
	return nil
}

func (r tokenRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	n := 0
	for id, t := range r.d.tokens {
		if t.ExpiresAt().Before(cutoff) {
			delete(r.d.tokens, id)
			n++
		}
	}
	return n, nil
}
