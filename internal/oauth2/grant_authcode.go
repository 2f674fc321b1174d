package oauth2

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"github.com/dropDatabas3/grantd/internal/domain"
	"github.com/dropDatabas3/grantd/internal/domain/repository"
)

// authorizationCodeGrant implements grant_type=authorization_code: exchanges
// a previously issued authorization-kind token for a bearer/refresh pair.
// Codes are single-use; the consume-then-issue sequence shares the rotation
// guard semantics (the delete is the only-once check).
type authorizationCodeGrant struct {
	tokens *TokenService
}

func (g *authorizationCodeGrant) GrantType() string { return "authorization_code" }

func (g *authorizationCodeGrant) Handle(ctx context.Context, tx repository.Store, client *domain.Client, form url.Values) (*TokenResponse, error) {
	if client.Type != domain.ClientAuthorizationGrant {
		return nil, E(KindUnauthorizedClient, "client may not use authorization_code")
	}

	raw := form.Get("code")
	redirectURI := form.Get("redirect_uri")
	if raw == "" || redirectURI == "" {
		return nil, E(KindInvalidRequest, "code and redirect_uri are required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, E(KindInvalidGrant, "malformed authorization code")
	}

	code, err := tx.Tokens().Get(ctx, id.String())
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, E(KindInvalidGrant, "unknown authorization code")
		}
		return nil, Wrap(KindServerError, "authorization code lookup failed", err)
	}
	if code.Kind != domain.TokenAuthorization {
		return nil, E(KindInvalidGrant, "token is not an authorization code")
	}
	if code.ClientID != client.ID {
		return nil, E(KindInvalidGrant, "authorization code belongs to another client")
	}
	if code.Expired(g.tokens.Now()) {
		return nil, E(KindInvalidGrant, "authorization code expired")
	}
	// redirect_uri must match the one the code was issued against and still
	// be registered on the client.
	if code.RedirectURI != redirectURI || !client.AllowsRedirectURI(redirectURI) {
		return nil, E(KindInvalidGrant, "redirect_uri mismatch")
	}

	// Consume first: of two concurrent exchanges only one delete succeeds.
	if err := g.tokens.Consume(ctx, tx, code); err != nil {
		return nil, err
	}
	bearer, refresh, err := g.tokens.Issue(ctx, tx, client, code.IdentityID, code.Scopes, true)
	if err != nil {
		return nil, err
	}
	return newTokenResponse(bearer, refresh), nil
}
