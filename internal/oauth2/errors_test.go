package oauth2

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/dropDatabas3/grantd/internal/authn"
)

func TestErrorKind_WireMapping(t *testing.T) {
	cases := []struct {
		kind   ErrorKind
		code   string
		status int
	}{
		{KindInvalidRequest, "invalid_request", http.StatusBadRequest},
		{KindInvalidClient, "invalid_client", http.StatusUnauthorized},
		{KindInvalidGrant, "invalid_grant", http.StatusBadRequest},
		{KindInvalidScope, "invalid_scope", http.StatusBadRequest},
		{KindUnauthorizedClient, "unauthorized_client", http.StatusBadRequest},
		{KindUnsupportedGrantType, "unsupported_grant_type", http.StatusBadRequest},
		{KindAccessDenied, "access_denied", http.StatusForbidden},
		{KindAuthenticationFailed, "unauthorized", http.StatusUnauthorized},
		{KindServerError, "server_error", http.StatusInternalServerError},
		{KindServiceUnavailable, "temporarily_unavailable", http.StatusServiceUnavailable},
	}
	for _, c := range cases {
		if got := c.kind.Code(); got != c.code {
			t.Fatalf("%v.Code() = %q, want %q", c.kind, got, c.code)
		}
		if got := c.kind.Status(); got != c.status {
			t.Fatalf("%v.Status() = %d, want %d", c.kind, got, c.status)
		}
	}
}

func TestAs_PassesTaxonomyThrough(t *testing.T) {
	err := E(KindInvalidGrant, "nope")
	if got := As(fmt.Errorf("outer: %w", err)); got.Kind != KindInvalidGrant {
		t.Fatalf("kind = %v", got.Kind)
	}
}

func TestAs_MapsUnknownToServerError(t *testing.T) {
	got := As(errors.New("disk on fire"))
	if got.Kind != KindServerError {
		t.Fatalf("kind = %v", got.Kind)
	}
	if strings.Contains(got.Description, "disk") {
		t.Fatal("internal detail leaked into the wire description")
	}
}

func TestAs_TranslatesAuthnErrors(t *testing.T) {
	pe := &authn.ProviderError{Provider: "google", Code: "server_error", Description: "busy"}
	got := As(pe)
	if got.Kind != KindServiceUnavailable {
		t.Fatalf("kind = %v", got.Kind)
	}
	if !strings.Contains(got.Description, "google") || !strings.Contains(got.Description, "busy") {
		t.Fatalf("description = %q", got.Description)
	}

	if As(authn.ErrInvalidState).Kind != KindAccessDenied {
		t.Fatal("bad state must map to access_denied")
	}
	if As(authn.ErrMissingCode).Kind != KindInvalidRequest {
		t.Fatal("missing code must map to invalid_request")
	}
}

func TestWrap_KeepsCauseOffTheWire(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := Wrap(KindServerError, "token lookup failed", cause)
	if !errors.Is(err, cause) {
		t.Fatal("cause must stay reachable for logs")
	}
	if strings.Contains(err.Description, "pq:") {
		t.Fatal("cause leaked into the description")
	}
}
