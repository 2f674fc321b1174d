package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dropDatabas3/grantd/internal/http/handlers"
	"github.com/dropDatabas3/grantd/internal/http/metrics"
	"github.com/dropDatabas3/grantd/internal/http/middlewares"
	"github.com/dropDatabas3/grantd/internal/oauth2"
	"github.com/dropDatabas3/grantd/internal/rate"
)

// RouterDeps agrupa las dependencias del router principal.
type RouterDeps struct {
	Engine   *oauth2.Engine
	Pinger   handlers.Pinger
	Registry prometheus.Registerer
	Limiter  rate.Limiter
}

// NewRouter builds the service handler: /token, /healthz and /metrics
// behind the request-id, logging, rate-limit, metrics and recover
// middlewares.
func NewRouter(deps RouterDeps) http.Handler {
	metricsHandler := metrics.Register(deps.Registry)

	r := chi.NewRouter()
	r.Use(
		middlewares.WithRequestID(),
		middlewares.WithLogging(),
		middlewares.WithRateLimit(deps.Limiter),
		metrics.WithMetrics(),
		middlewares.WithRecover(),
	)

	handlers.NewTokenHandler(deps.Engine).Register(r)
	handlers.NewHealthHandler(deps.Pinger).Register(r)
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	return r
}

// NewServer wraps the handler with sane timeouts.
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
