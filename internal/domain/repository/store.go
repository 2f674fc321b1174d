// Package repository defines the storage interfaces the grant engine depends
// on. Adapters live under internal/store; the engine never sees a driver.
package repository

import "context"

// Store is the unit-of-work entry point. Repositories obtained from a Store
// passed to a Tx callback operate inside that transaction; repositories
// obtained from the root Store auto-commit per call.
type Store interface {
	Clients() ClientRepository
	Applications() ApplicationRepository
	Roles() RoleRepository
	Users() UserRepository
	Identities() IdentityRepository
	Tokens() TokenRepository

	// Tx runs fn inside a transaction: commit when fn returns nil,
	// full rollback on error or panic. Nested calls join the ambient
	// transaction.
	Tx(ctx context.Context, fn func(tx Store) error) error

	// SchemaReady reports whether the backing schema is initialized.
	// The cleanup task skips its run while this is false.
	SchemaReady(ctx context.Context) bool
}
