package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/dropDatabas3/grantd/internal/http/errors"
)

// Pinger is implemented by stores with a reachable backend (pg). The memory
// store has nothing to ping and passes nil.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	pinger Pinger
}

func NewHealthHandler(pinger Pinger) *HealthHandler {
	return &HealthHandler{pinger: pinger}
}

func (h *HealthHandler) Register(r chi.Router) {
	r.Get("/healthz", h.Health)
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			body["status"] = "degraded"
			body["db"] = "down"
			httperrors.WriteJSON(w, http.StatusServiceUnavailable, body)
			return
		}
		body["db"] = "up"
	}
	httperrors.WriteJSON(w, http.StatusOK, body)
}
