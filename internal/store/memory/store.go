// Package memory implements repository.Store backed by in-process maps.
// It is the default storage for tests and local development. Transactions
// operate on a copy of the dataset and swap it in on commit, so a failed
// callback leaves the store untouched.
package memory

import (
	"context"
	"sync"

	"github.com/dropDatabas3/grantd/internal/domain"
	"github.com/dropDatabas3/grantd/internal/domain/repository"
)

type dataset struct {
	clients    map[string]*domain.Client
	apps       map[string]*domain.Application
	roles      map[string]*domain.Role
	users      map[string]*domain.User
	identities map[string]*domain.UserIdentity
	tokens     map[string]*domain.OAuthToken
}

func newDataset() *dataset {
	return &dataset{
		clients:    make(map[string]*domain.Client),
		apps:       make(map[string]*domain.Application),
		roles:      make(map[string]*domain.Role),
		users:      make(map[string]*domain.User),
		identities: make(map[string]*domain.UserIdentity),
		tokens:     make(map[string]*domain.OAuthToken),
	}
}

// clone copies the maps, not the records. Records are never mutated in
// place (writes replace the pointer), so sharing them across snapshots
// is safe.
func (d *dataset) clone() *dataset {
	c := newDataset()
	for k, v := range d.clients {
		c.clients[k] = v
	}
	for k, v := range d.apps {
		c.apps[k] = v
	}
	for k, v := range d.roles {
		c.roles[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.identities {
		c.identities[k] = v
	}
	for k, v := range d.tokens {
		c.tokens[k] = v
	}
	return c
}

// Store is the root in-memory store. All repository calls outside a
// transaction take the lock per operation.
type Store struct {
	mu     sync.Mutex
	data   *dataset
	schema bool
}

func New() *Store {
	return &Store{data: newDataset(), schema: true}
}

// SetSchemaReady overrides the readiness signal. Used by tests that
// exercise the degraded path.
func (s *Store) SetSchemaReady(ready bool) {
	s.mu.Lock()
	s.schema = ready
	s.mu.Unlock()
}

func (s *Store) SchemaReady(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema
}

// Tx runs fn against a copy of the dataset and publishes it only when
// fn returns nil. The lock is held for the whole transaction, which is
// fine at in-memory scale.
func (s *Store) Tx(ctx context.Context, fn func(tx repository.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.data.clone()
	if err := fn(&txStore{data: work, schema: s.schema}); err != nil {
		return err
	}
	s.data = work
	return nil
}

// Repository accessors on the root store route every call through a
// one-operation transaction so single calls and Tx callbacks share the
// same code path.

func (s *Store) Clients() repository.ClientRepository        { return rootClients{s} }
func (s *Store) Applications() repository.ApplicationRepository { return rootApps{s} }
func (s *Store) Roles() repository.RoleRepository            { return rootRoles{s} }
func (s *Store) Users() repository.UserRepository            { return rootUsers{s} }
func (s *Store) Identities() repository.IdentityRepository   { return rootIdentities{s} }
func (s *Store) Tokens() repository.TokenRepository          { return rootTokens{s} }

// txStore is the view handed to Tx callbacks. The root lock is already
// held, so repositories act on the working copy directly. A nested Tx
// joins the ambient transaction.
type txStore struct {
	data   *dataset
	schema bool
}

func (t *txStore) SchemaReady(ctx context.Context) bool { return t.schema }

func (t *txStore) Tx(ctx context.Context, fn func(tx repository.Store) error) error {
	return fn(t)
}

func (t *txStore) Clients() repository.ClientRepository        { return clientRepo{t.data} }
func (t *txStore) Applications() repository.ApplicationRepository { return appRepo{t.data} }
func (t *txStore) Roles() repository.RoleRepository            { return roleRepo{t.data} }
func (t *txStore) Users() repository.UserRepository            { return userRepo{t.data} }
func (t *txStore) Identities() repository.IdentityRepository   { return identityRepo{t.data} }
func (t *txStore) Tokens() repository.TokenRepository          { return tokenRepo{t.data} }
