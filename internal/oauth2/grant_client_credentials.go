package oauth2

import (
	"context"
	"net/url"

	"github.com/dropDatabas3/grantd/internal/domain"
	"github.com/dropDatabas3/grantd/internal/domain/repository"
)

// clientCredentialsGrant implements grant_type=client_credentials (M2M).
// Issues a single bearer token bound to no identity; never a refresh token.
type clientCredentialsGrant struct {
	tokens *TokenService
}

func (g *clientCredentialsGrant) GrantType() string { return "client_credentials" }

func (g *clientCredentialsGrant) Handle(ctx context.Context, tx repository.Store, client *domain.Client, form url.Values) (*TokenResponse, error) {
	if client.Type != domain.ClientClientCredentials {
		return nil, E(KindUnauthorizedClient, "client may not use client_credentials")
	}
	// A public client has nothing to authenticate with; rejecting here (and
	// not in client auth) keeps the status 400 per the taxonomy.
	if !client.Confidential() {
		return nil, E(KindUnauthorizedClient, "client_credentials requires a confidential client")
	}

	app, err := lookupApplication(ctx, tx, client)
	if err != nil {
		return nil, err
	}
	scopes, err := ResolveScopes(form.Get("scope"), app.Scopes)
	if err != nil {
		return nil, err
	}

	bearer, _, err := g.tokens.Issue(ctx, tx, client, "", scopes, false)
	if err != nil {
		return nil, err
	}
	return newTokenResponse(bearer, nil), nil
}
