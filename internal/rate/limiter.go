// Package rate implements fixed-window rate limiting for the token
// endpoint. The Redis limiter shares the window across replicas; the
// memory limiter covers single-node and dev deployments.
package rate

import (
	"context"
	"time"
)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
	WindowTTL  time.Duration
}

// Limiter decides whether the request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}
