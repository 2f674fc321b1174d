// Package pg implements repository.Store on PostgreSQL via pgx. The root
// store runs each operation on the pool; Tx wraps the callback in a real
// database transaction.
package pg

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/grantd/internal/domain/repository"
	"github.com/dropDatabas3/grantd/internal/observability/logger"
)

//go:embed schema.sql
var schemaSQL string

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so the
// repositories run unchanged inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Config struct {
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
}

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string, cfg Config) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	// Non-blocking startup: the server may come up before the database.
	if err := pool.Ping(ctx); err != nil {
		logger.L().Warn("pg pool startup ping failed",
			logger.Layer("store"), logger.Op("pg.New"), logger.Err(err))
	} else {
		logger.L().Info("pg pool ready",
			logger.Layer("store"), logger.Int("max_conns", int(pcfg.MaxConns)))
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema applies the embedded DDL. Statements are IF NOT EXISTS, so
// repeated runs are harmless.
func (s *Store) InitSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

// SchemaReady reports whether the token table exists. The sweeper uses it
// to skip runs against an unprovisioned database.
func (s *Store) SchemaReady(ctx context.Context) bool {
	const q = `SELECT to_regclass('oauth_tokens') IS NOT NULL`
	var ok bool
	if err := s.pool.QueryRow(ctx, q).Scan(&ok); err != nil {
		return false
	}
	return ok
}

// Tx runs fn inside a database transaction. Rollback happens on error and
// on panic; commit only when fn returns nil.
func (s *Store) Tx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()
	if err = fn(&txStore{q: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Clients() repository.ClientRepository           { return clientRepo{s.pool} }
func (s *Store) Applications() repository.ApplicationRepository { return appRepo{s.pool} }
func (s *Store) Roles() repository.RoleRepository               { return roleRepo{s.pool} }
func (s *Store) Users() repository.UserRepository               { return userRepo{s.pool} }
func (s *Store) Identities() repository.IdentityRepository      { return identityRepo{s.pool} }
func (s *Store) Tokens() repository.TokenRepository             { return tokenRepo{s.pool} }

// txStore is the transactional view. A nested Tx joins the ambient
// transaction instead of opening a savepoint.
type txStore struct {
	q pgx.Tx
}

func (t *txStore) SchemaReady(ctx context.Context) bool {
	const q = `SELECT to_regclass('oauth_tokens') IS NOT NULL`
	var ok bool
	if err := t.q.QueryRow(ctx, q).Scan(&ok); err != nil {
		return false
	}
	return ok
}

func (t *txStore) Tx(ctx context.Context, fn func(tx repository.Store) error) error {
	return fn(t)
}

func (t *txStore) Clients() repository.ClientRepository           { return clientRepo{t.q} }
func (t *txStore) Applications() repository.ApplicationRepository { return appRepo{t.q} }
func (t *txStore) Roles() repository.RoleRepository               { return roleRepo{t.q} }
func (t *txStore) Users() repository.UserRepository               { return userRepo{t.q} }
func (t *txStore) Identities() repository.IdentityRepository      { return identityRepo{t.q} }
func (t *txStore) Tokens() repository.TokenRepository             { return tokenRepo{t.q} }

// mapErr translates pgx errors to repository sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return repository.ErrConflict
	}
	return err
}
