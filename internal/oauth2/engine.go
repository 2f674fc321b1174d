package oauth2

import (
	"context"
	"net/url"

	"github.com/dropDatabas3/grantd/internal/authn"
	"github.com/dropDatabas3/grantd/internal/domain"
	"github.com/dropDatabas3/grantd/internal/domain/repository"
	"github.com/dropDatabas3/grantd/internal/observability/logger"
)

// GrantHandler handles one grant_type. Handlers run inside the request's
// single storage transaction: a failed step aborts the whole operation with
// nothing committed.
type GrantHandler interface {
	GrantType() string
	Handle(ctx context.Context, tx repository.Store, client *domain.Client, form url.Values) (*TokenResponse, error)
}

// Engine is the token-endpoint core: it authenticates the client, dispatches
// on grant_type and wraps the whole request in one transaction.
type Engine struct {
	store    repository.Store
	handlers map[string]GrantHandler
}

// NewEngine wires the four grant handlers against the shared authenticator
// registry and token service.
func NewEngine(store repository.Store, authers *authn.Registry, tokens *TokenService) *Engine {
	e := &Engine{
		store:    store,
		handlers: make(map[string]GrantHandler),
	}
	for _, h := range []GrantHandler{
		&clientCredentialsGrant{tokens: tokens},
		&ownerCredentialsGrant{authers: authers, tokens: tokens},
		&refreshTokenGrant{tokens: tokens},
		&authorizationCodeGrant{tokens: tokens},
	} {
		e.handlers[h.GrantType()] = h
	}
	return e
}

// Token processes one token-endpoint request. clientID/clientSecret are the
// transport-level client credentials (Basic header or body); form carries
// the remaining parameters. The returned error is always a *Error.
func (e *Engine) Token(ctx context.Context, clientID, clientSecret string, form url.Values) (*TokenResponse, error) {
	grantType := form.Get("grant_type")
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Op("oauth2.token"),
		logger.GrantType(grantType),
		logger.ClientID(clientID),
	)

	var resp *TokenResponse
	err := e.store.Tx(ctx, func(tx repository.Store) error {
		client, err := AuthenticateClient(ctx, tx, clientID, clientSecret)
		if err != nil {
			return err
		}
		handler, ok := e.handlers[grantType]
		if !ok {
			return E(KindUnsupportedGrantType, "unsupported grant_type")
		}
		resp, err = handler.Handle(ctx, tx, client, form)
		return err
	})
	if err != nil {
		oe := As(err)
		if oe.Kind == KindServerError {
			log.Error("token request failed", logger.Err(err))
		} else {
			log.Warn("token request rejected", logger.String("error", oe.Kind.Code()))
		}
		return nil, oe
	}

	// state is echoed verbatim when the caller supplied one.
	if st := form.Get("state"); st != "" {
		resp.State = st
	}
	log.Info("token issued", logger.Scope(resp.Scope))
	return resp, nil
}

// lookupApplication is shared by the handlers; a client without a resolvable
// application is a provisioning fault, not a caller error.
func lookupApplication(ctx context.Context, tx repository.Store, client *domain.Client) (*domain.Application, error) {
	app, err := tx.Applications().Get(ctx, client.ApplicationID)
	if err != nil {
		return nil, Wrap(KindServerError, "application lookup failed", err)
	}
	return app, nil
}
