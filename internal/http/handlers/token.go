package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/dropDatabas3/grantd/internal/http/errors"
	"github.com/dropDatabas3/grantd/internal/http/metrics"
	"github.com/dropDatabas3/grantd/internal/oauth2"
	"github.com/dropDatabas3/grantd/internal/observability/logger"
)

// maxFormBytes caps the token request body. Grant forms are tiny; anything
// bigger is abuse.
const maxFormBytes = 64 << 10

// TokenHandler serves POST /token, the single entry point of the grant
// engine.
type TokenHandler struct {
	engine *oauth2.Engine
}

func NewTokenHandler(engine *oauth2.Engine) *TokenHandler {
	return &TokenHandler{engine: engine}
}

func (h *TokenHandler) Register(r chi.Router) {
	r.Post("/token", h.Token)
}

func (h *TokenHandler) Token(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
		return
	}

	clientID, clientSecret, ok := clientCredentials(r)
	if !ok {
		httperrors.WriteError(w, http.StatusBadRequest, "invalid_request",
			"client credentials in header and body disagree")
		return
	}

	grantType := r.PostForm.Get("grant_type")
	resp, err := h.engine.Token(r.Context(), clientID, clientSecret, r.PostForm)
	if err != nil {
		oe := oauth2.As(err)
		metrics.ObserveGrant(grantType, oe.Kind.Code())
		httperrors.WriteOAuthError(w, err)
		return
	}
	metrics.ObserveGrant(grantType, "ok")

	logger.From(r.Context()).Info("token issued",
		logger.ClientID(clientID), logger.GrantType(grantType))

	// RFC 6749 §5.1: token responses must not be cached.
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	httperrors.WriteJSON(w, http.StatusOK, resp)
}

// clientCredentials reads the client id and secret from HTTP Basic auth or
// from the form body. When both carry a value they must agree.
func clientCredentials(r *http.Request) (id, secret string, ok bool) {
	bodyID := r.PostForm.Get("client_id")
	bodySecret := r.PostForm.Get("client_secret")

	basicID, basicSecret, hasBasic := r.BasicAuth()
	if !hasBasic {
		return bodyID, bodySecret, true
	}
	if bodyID != "" && bodyID != basicID {
		return "", "", false
	}
	if bodySecret != "" && bodySecret != basicSecret {
		return "", "", false
	}
	return basicID, basicSecret, true
}
