package middlewares

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/grantd/internal/observability/logger"
)

// WithRecover converts a handler panic into a server_error response so one
// bad request cannot take the process down.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					logger.From(r.Context()).Error("panic recovered",
						logger.Layer("http"), logger.Any("panic", p))
					w.Header().Set("Content-Type", "application/json; charset=utf-8")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{"error": "server_error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
