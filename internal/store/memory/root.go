package memory

import (
	"context"
	"time"

	"github.com/dropDatabas3/grantd/internal/domain"
	"github.com/dropDatabas3/grantd/internal/domain/repository"
)

type rootClients struct{ s *Store }

func (r rootClients) Get(ctx context.Context, id string) (c *domain.Client, err error) {
	err = r.s.Tx(ctx, func(tx repository.Store) error {
		c, err = tx.Clients().Get(ctx, id)
		return err
	})
	return c, err
}

func (r rootClients) Create(ctx context.Context, c *domain.Client) error {
	return r.s.Tx(ctx, func(tx repository.Store) error {
		return tx.Clients().Create(ctx, c)
	})
}

type rootApps struct{ s *Store }

func (r rootApps) Get(ctx context.Context, id string) (a *domain.Application, err error) {
	err = r.s.Tx(ctx, func(tx repository.Store) error {
		a, err = tx.Applications().Get(ctx, id)
		return err
	})
	return a, err
}

func (r rootApps) Create(ctx context.Context, a *domain.Application) error {
	return r.s.Tx(ctx, func(tx repository.Store) error {
		return tx.Applications().Create(ctx, a)
	})
}

type rootRoles struct{ s *Store }

func (r rootRoles) Get(ctx context.Context, id string) (role *domain.Role, err error) {
	err = r.s.Tx(ctx, func(tx repository.Store) error {
		role, err = tx.Roles().Get(ctx, id)
		return err
	})
	return role, err
}

func (r rootRoles) Create(ctx context.Context, role *domain.Role) error {
	return r.s.Tx(ctx, func(tx repository.Store) error {
		return tx.Roles().Create(ctx, role)
	})
}

type rootUsers struct{ s *Store }

func (r rootUsers) Get(ctx context.Context, id string) (u *domain.User, err error) {
	err = r.s.Tx(ctx, func(tx repository.Store) error {
		u, err = tx.Users().Get(ctx, id)
		return err
	})
	return u, err
}

func (r rootUsers) Create(ctx context.Context, u *domain.User) error {
	return r.s.Tx(ctx, func(tx repository.Store) error {
		return tx.Users().Create(ctx, u)
	})
}

type rootIdentities struct{ s *Store }

func (r rootIdentities) Get(ctx context.Context, id string) (ident *domain.UserIdentity, err error) {
	err = r.s.Tx(ctx, func(tx repository.Store) error {
		ident, err = tx.Identities().Get(ctx, id)
		return err
	})
	return ident, err
}

func (r rootIdentities) GetByRemote(ctx context.Context, appID string, kind domain.AuthenticatorKind, remoteID string) (ident *domain.UserIdentity, err error) {
	err = r.s.Tx(ctx, func(tx repository.Store) error {
		ident, err = tx.Identities().GetByRemote(ctx, appID, kind, remoteID)
		return err
	})
	return ident, err
}

func (r rootIdentities) Create(ctx context.Context, ident *domain.UserIdentity) error {
	return r.s.Tx(ctx, func(tx repository.Store) error {
		return tx.Identities().Create(ctx, ident)
	})
}

type rootTokens struct{ s *Store }

func (r rootTokens) Get(ctx context.Context, id string) (t *domain.OAuthToken, err error) {
	err = r.s.Tx(ctx, func(tx repository.Store) error {
		t, err = tx.Tokens().Get(ctx, id)
		return err
	})
	return t, err
}

func (r rootTokens) Create(ctx context.Context, t *domain.OAuthToken) error {
	return r.s.Tx(ctx, func(tx repository.Store) error {
		return tx.Tokens().Create(ctx, t)
	})
}

func (r rootTokens) Delete(ctx context.Context, id string) error {
	return r.s.Tx(ctx, func(tx repository.Store) error {
		return tx.Tokens().Delete(ctx, id)
	})
}

func (r rootTokens) DeleteExpired(ctx context.Context, cutoff time.Time) (n int, err error) {
	err = r.s.Tx(ctx, func(tx repository.Store) error {
		n, err = tx.Tokens().DeleteExpired(ctx, cutoff)
		return err
	})
	return n, err
}
