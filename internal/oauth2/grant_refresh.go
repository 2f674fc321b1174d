package oauth2

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"github.com/dropDatabas3/grantd/internal/domain"
	"github.com/dropDatabas3/grantd/internal/domain/repository"
)

// refreshTokenGrant implements grant_type=refresh_token with rotation: the
// old bearer/refresh pair is deleted and a new pair issued in the same
// transaction, so there is no state in which both pairs are valid.
type refreshTokenGrant struct {
	tokens *TokenService
}

func (g *refreshTokenGrant) GrantType() string { return "refresh_token" }

func (g *refreshTokenGrant) Handle(ctx context.Context, tx repository.Store, client *domain.Client, form url.Values) (*TokenResponse, error) {
	if client.Type != domain.ClientOwnerCredentials && client.Type != domain.ClientAuthorizationGrant {
		return nil, E(KindUnauthorizedClient, "client may not use refresh_token")
	}

	raw := form.Get("refresh_token")
	if raw == "" {
		return nil, E(KindInvalidRequest, "refresh_token is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, E(KindInvalidGrant, "malformed refresh token")
	}

	old, err := tx.Tokens().Get(ctx, id.String())
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, E(KindInvalidGrant, "unknown refresh token")
		}
		return nil, Wrap(KindServerError, "refresh token lookup failed", err)
	}
	if old.Kind != domain.TokenRefresh {
		return nil, E(KindInvalidGrant, "token is not a refresh token")
	}
	if old.ClientID != client.ID {
		return nil, E(KindInvalidGrant, "refresh token belongs to another client")
	}
	if old.Expired(g.tokens.Now()) {
		return nil, E(KindInvalidGrant, "refresh token expired")
	}

	// Scope may only narrow: requested names must be inside the original
	// grant and still inside the client's current allowed set.
	app, err := lookupApplication(ctx, tx, client)
	if err != nil {
		return nil, err
	}
	scopes, err := NarrowScopes(form.Get("scope"), old.Scopes, app.Scopes)
	if err != nil {
		return nil, err
	}

	bearer, refresh, err := g.tokens.Rotate(ctx, tx, client, old, scopes)
	if err != nil {
		return nil, err
	}
	return newTokenResponse(bearer, refresh), nil
}
