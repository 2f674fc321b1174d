// Package errors writes the RFC 6749 wire error shape.
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/grantd/internal/oauth2"
)

type apiError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	RequestID        string `json:"request_id,omitempty"`
}

// WriteJSON: respuesta JSON estándar.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError emits the RFC 6749 error body. The request id rides along when
// the middleware already stamped it on the response.
func WriteError(w http.ResponseWriter, status int, code, desc string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rid := w.Header().Get("X-Request-ID")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{
		Error:            code,
		ErrorDescription: desc,
		RequestID:        rid,
	})
}

// WriteOAuthError maps any error through the oauth2 taxonomy and writes it.
// Authentication failures are special: bare 401, empty body, no error code
// that could tell a probing client whether the username exists.
func WriteOAuthError(w http.ResponseWriter, err error) {
	oe := oauth2.As(err)
	if oe.Kind == oauth2.KindAuthenticationFailed {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	WriteError(w, oe.Kind.Status(), oe.Kind.Code(), oe.Description)
}
