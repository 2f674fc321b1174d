package oauth2

import (
	"context"
	"errors"
	"net/url"

	"github.com/dropDatabas3/grantd/internal/authn"
	"github.com/dropDatabas3/grantd/internal/domain"
	"github.com/dropDatabas3/grantd/internal/domain/repository"
	"github.com/dropDatabas3/grantd/internal/observability/logger"
)

// ownerCredentialsGrant implements grant_type=password. The client must be
// of the owner-credentials type and carry a valid password authenticator
// config; granted scopes come from the authenticated user's role, and the
// response is a bearer/refresh pair bound to the identity.
type ownerCredentialsGrant struct {
	authers *authn.Registry
	tokens  *TokenService
}

func (g *ownerCredentialsGrant) GrantType() string { return "password" }

func (g *ownerCredentialsGrant) Handle(ctx context.Context, tx repository.Store, client *domain.Client, form url.Values) (*TokenResponse, error) {
	if client.Type != domain.ClientOwnerCredentials {
		return nil, E(KindUnauthorizedClient, "client may not use the password grant")
	}
	username := form.Get("username")
	pass := form.Get("password")
	if username == "" || pass == "" {
		return nil, E(KindInvalidRequest, "username and password are required")
	}

	cfg, ok := client.Authenticator(domain.AuthenticatorPassword)
	if !ok {
		return nil, E(KindInvalidRequest, "client has no password authenticator")
	}
	auther, ok := g.authers.Lookup(domain.AuthenticatorPassword)
	if !ok {
		return nil, E(KindServerError, "password authenticator not registered")
	}
	if err := auther.Validate(cfg); err != nil {
		var ce *authn.ConfigError
		if errors.As(err, &ce) {
			return nil, Wrap(KindInvalidRequest, "password authenticator misconfigured", err)
		}
		return nil, Wrap(KindServerError, "authenticator validation failed", err)
	}

	app, err := lookupApplication(ctx, tx, client)
	if err != nil {
		return nil, err
	}
	identity, err := auther.Authenticate(ctx, tx, app, cfg, authn.Params{
		"username": username,
		"password": pass,
	})
	if err != nil {
		return nil, Wrap(KindServerError, "authentication failed", err)
	}
	if identity == nil {
		// Deliberately not an RFC error: a bare 401 with no body, so the
		// caller cannot tell whether the username or the password failed.
		return nil, E(KindAuthenticationFailed, "")
	}

	user, err := tx.Users().Get(ctx, identity.UserID)
	if err != nil {
		return nil, Wrap(KindServerError, "user lookup failed", err)
	}
	role, err := tx.Roles().Get(ctx, user.RoleID)
	if err != nil {
		return nil, Wrap(KindServerError, "role lookup failed", err)
	}
	scopes, err := ResolveScopes(form.Get("scope"), role.Scopes)
	if err != nil {
		return nil, err
	}

	bearer, refresh, err := g.tokens.Issue(ctx, tx, client, identity.ID, scopes, true)
	if err != nil {
		return nil, err
	}
	logger.From(ctx).Debug("password grant authenticated",
		logger.Layer("service"),
		logger.IdentityID(identity.ID),
	)
	return newTokenResponse(bearer, refresh), nil
}
