package oauth2

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/grantd/internal/domain"
	"github.com/dropDatabas3/grantd/internal/domain/repository"
)

// Engine-level TTL defaults, applied when a client leaves a TTL unset.
const (
	DefaultAccessTokenTTL  = int64(3600)          // 1h
	DefaultRefreshTokenTTL = int64(30 * 24 * 3600) // 30d
	DefaultAuthCodeTTL     = int64(60)            // 1m
)

// TokenService creates, rotates and deletes token records. All persistence
// happens against the Store handed in by the caller, so issuance joins the
// grant's ambient transaction: a pair is committed together or not at all.
type TokenService struct {
	now func() time.Time
}

// NewTokenService creates a TokenService. now may be nil (wall clock); tests
// inject a fixed clock.
func NewTokenService(now func() time.Time) *TokenService {
	if now == nil {
		now = time.Now
	}
	return &TokenService{now: now}
}

// Issue builds and persists a bearer token, plus a paired refresh token when
// withRefresh is set. identityID is empty for client_credentials grants.
func (s *TokenService) Issue(ctx context.Context, tx repository.Store, client *domain.Client, identityID string, scopes domain.ScopeSet, withRefresh bool) (*domain.OAuthToken, *domain.OAuthToken, error) {
	now := s.now().UTC()

	bearer := &domain.OAuthToken{
		ID:         uuid.NewString(),
		Kind:       domain.TokenBearer,
		ClientID:   client.ID,
		IdentityID: identityID,
		Scopes:     scopes.Clone(),
		ExpiresIn:  ttlOrDefault(client.AccessTokenTTL, DefaultAccessTokenTTL),
		CreatedAt:  now,
	}

	var refresh *domain.OAuthToken
	if withRefresh {
		refresh = &domain.OAuthToken{
			ID:         uuid.NewString(),
			Kind:       domain.TokenRefresh,
			ClientID:   client.ID,
			IdentityID: identityID,
			Scopes:     scopes.Clone(),
			ExpiresIn:  ttlOrDefault(client.RefreshTokenTTL, DefaultRefreshTokenTTL),
			CreatedAt:  now,
			PairedID:   bearer.ID,
		}
		bearer.PairedID = refresh.ID
	}

	if err := tx.Tokens().Create(ctx, bearer); err != nil {
		return nil, nil, Wrap(KindServerError, "persist bearer token", err)
	}
	if refresh != nil {
		if err := tx.Tokens().Create(ctx, refresh); err != nil {
			return nil, nil, Wrap(KindServerError, "persist refresh token", err)
		}
	}
	return bearer, refresh, nil
}

// IssueCode builds and persists an authorization code bound to the client,
// identity, granted scopes and redirect URI. The code is single-use: the
// exchange deletes it.
func (s *TokenService) IssueCode(ctx context.Context, tx repository.Store, client *domain.Client, identityID string, scopes domain.ScopeSet, redirectURI string) (*domain.OAuthToken, error) {
	code := &domain.OAuthToken{
		ID:          uuid.NewString(),
		Kind:        domain.TokenAuthorization,
		ClientID:    client.ID,
		IdentityID:  identityID,
		Scopes:      scopes.Clone(),
		ExpiresIn:   ttlOrDefault(client.AuthCodeTTL, DefaultAuthCodeTTL),
		CreatedAt:   s.now().UTC(),
		RedirectURI: redirectURI,
	}
	if err := tx.Tokens().Create(ctx, code); err != nil {
		return nil, Wrap(KindServerError, "persist authorization code", err)
	}
	return code, nil
}

// Rotate replaces a refresh token with a fresh bearer/refresh pair carrying
// the given (already narrowed) scopes, and deletes the old pair. Everything
// runs inside the caller's transaction; a failed step rolls back both the
// new pair and the deletes.
//
// The delete of the old refresh token is the rotation race guard: the
// repository returns ErrNotFound when the row is already gone, so of two
// concurrent rotations only the first can commit — the second fails
// invalid_grant.
func (s *TokenService) Rotate(ctx context.Context, tx repository.Store, client *domain.Client, old *domain.OAuthToken, scopes domain.ScopeSet) (*domain.OAuthToken, *domain.OAuthToken, error) {
	bearer, refresh, err := s.Issue(ctx, tx, client, old.IdentityID, scopes, true)
	if err != nil {
		return nil, nil, err
	}

	// Old bearer sibling may already be swept; that is fine.
	if old.PairedID != "" {
		if err := tx.Tokens().Delete(ctx, old.PairedID); err != nil && !repository.IsNotFound(err) {
			return nil, nil, Wrap(KindServerError, "delete rotated bearer token", err)
		}
	}
	if err := tx.Tokens().Delete(ctx, old.ID); err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, E(KindInvalidGrant, "refresh token already rotated")
		}
		return nil, nil, Wrap(KindServerError, "delete rotated refresh token", err)
	}
	return bearer, refresh, nil
}

// Consume deletes a single-use token (authorization code). ErrNotFound maps
// to invalid_grant: the code was already exchanged.
func (s *TokenService) Consume(ctx context.Context, tx repository.Store, token *domain.OAuthToken) error {
	if err := tx.Tokens().Delete(ctx, token.ID); err != nil {
		if repository.IsNotFound(err) {
			return E(KindInvalidGrant, "authorization code already used")
		}
		return Wrap(KindServerError, "consume authorization code", err)
	}
	return nil
}

// Now exposes the service clock; grant handlers use it for expiry checks so
// tests share a single time source.
func (s *TokenService) Now() time.Time { return s.now() }

func ttlOrDefault(v, def int64) int64 {
	if v > 0 {
		return v
	}
	return def
}
