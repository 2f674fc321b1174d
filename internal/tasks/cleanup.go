// Package tasks holds the background jobs that run beside request traffic.
package tasks

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dropDatabas3/grantd/internal/domain/repository"
	"github.com/dropDatabas3/grantd/internal/observability/logger"
)

var (
	tokensSweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grantd_tokens_swept_total",
		Help: "Expired tokens deleted by the cleanup task",
	})
	sweepFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grantd_token_sweep_failures_total",
		Help: "Cleanup runs that rolled back with an error",
	})
)

// Defaults for the cleanup schedule. The buffer backs the cutoff off from
// now so clock skew between nodes cannot delete tokens that are still valid
// somewhere.
const (
	DefaultSweepInterval = 5 * time.Minute
	DefaultSweepBuffer   = time.Minute
)

// TokenCleanup periodically deletes expired tokens. It runs on its own
// goroutine with its own transaction per run, fully decoupled from request
// handling; a failed run rolls back, is logged and retried on the next tick.
type TokenCleanup struct {
	store    repository.Store
	interval time.Duration
	buffer   time.Duration
	now      func() time.Time
}

// NewTokenCleanup builds the task. Zero interval/buffer select the defaults;
// now may be nil (wall clock).
func NewTokenCleanup(store repository.Store, interval, buffer time.Duration, now func() time.Time) *TokenCleanup {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if buffer < 0 {
		buffer = DefaultSweepBuffer
	}
	if now == nil {
		now = time.Now
	}
	return &TokenCleanup{store: store, interval: interval, buffer: buffer, now: now}
}

// Run executes sweeps on the configured period until ctx is cancelled.
// Sweep failures are never fatal to the process.
func (t *TokenCleanup) Run(ctx context.Context) error {
	log := logger.From(ctx).With(logger.Layer("task"), logger.Op("tokens.sweep"))
	log.Info("token cleanup started", logger.Duration(t.interval))

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("token cleanup stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := t.Sweep(ctx); err != nil {
				log.Error("sweep failed, will retry next tick", logger.Err(err))
			}
		}
	}
}

// Sweep performs one cleanup pass: compute the cutoff, delete every token
// expired before it, commit, report the count. The run is skipped entirely
// while the storage schema is not initialized.
func (t *TokenCleanup) Sweep(ctx context.Context) (int, error) {
	log := logger.From(ctx).With(logger.Layer("task"), logger.Op("tokens.sweep"))

	if !t.store.SchemaReady(ctx) {
		log.Debug("schema not ready, skipping sweep")
		return 0, nil
	}

	cutoff := t.now().UTC().Add(-t.buffer)
	var deleted int
	err := t.store.Tx(ctx, func(tx repository.Store) error {
		n, err := tx.Tokens().DeleteExpired(ctx, cutoff)
		if err != nil {
			return err
		}
		deleted = n
		return nil
	})
	if err != nil {
		sweepFailuresTotal.Inc()
		return 0, err
	}
	tokensSweptTotal.Add(float64(deleted))
	log.Info("sweep complete", logger.Count(deleted))
	return deleted, nil
}
