package rate

import (
	"context"
	"sync"
	"time"
)

type window struct {
	start time.Time
	hits  int64
}

// MemoryLimiter keeps per-key fixed windows in process memory. Stale
// windows are dropped lazily on access.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	max     int64
	window  time.Duration
	now     func() time.Time
}

func NewMemoryLimiter(max int, win time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		max:     int64(max),
		window:  win,
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now().UTC()
	start := now.Truncate(l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.windows) > 1<<14 {
		for k, w := range l.windows {
			if w.start.Before(start) {
				delete(l.windows, k)
			}
		}
	}

	w, ok := l.windows[key]
	if !ok || w.start.Before(start) {
		w = &window{start: start}
		l.windows[key] = w
	}
	w.hits++

	left := w.start.Add(l.window).Sub(now)
	remaining := l.max - w.hits
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Allowed:   w.hits <= l.max,
		Remaining: remaining,
		WindowTTL: left,
	}
	if !res.Allowed {
		res.RetryAfter = left
	}
	return res, nil
}
