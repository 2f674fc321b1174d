package domain

import "time"

// TokenKind distinguishes the three persisted token shapes.
type TokenKind string

const (
	TokenBearer        TokenKind = "bearer"
	TokenRefresh       TokenKind = "refresh"
	TokenAuthorization TokenKind = "authorization"
)

// OAuthToken is a persisted token record. The ID doubles as the wire token
// value (opaque UUID); there is no derived signing.
type OAuthToken struct {
	ID         string
	Kind       TokenKind
	ClientID   string
	IdentityID string // empty for client_credentials grants
	Scopes     ScopeSet

	// ExpiresIn is the lifetime in seconds from CreatedAt. A token is
	// expired iff now >= CreatedAt + ExpiresIn.
	ExpiresIn int64
	CreatedAt time.Time

	// PairedID links the two halves of a bearer/refresh pair. Empty for
	// authorization codes and refresh-less bearers.
	PairedID string

	// RedirectURI is set on authorization codes only: the URI the code was
	// issued against, re-checked on exchange.
	RedirectURI string
}

// ExpiresAt returns the instant the token stops being valid.
func (t *OAuthToken) ExpiresAt() time.Time {
	return t.CreatedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// Expired reports whether the token is expired at now (inclusive boundary).
func (t *OAuthToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt())
}

// Clone returns a copy safe to hand across the storage boundary.
func (t *OAuthToken) Clone() *OAuthToken {
	cp := *t
	cp.Scopes = t.Scopes.Clone()
	return &cp
}
