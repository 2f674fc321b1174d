package oauth2

import (
	"context"
	"crypto/subtle"

	"github.com/dropDatabas3/grantd/internal/domain"
	"github.com/dropDatabas3/grantd/internal/domain/repository"
)

// AuthenticateClient resolves the claimed client and checks its credentials.
//
// Rules: an unknown client id fails invalid_client. A confidential client
// (non-empty stored secret) requires an exact secret match, else
// access_denied. A public client must not present a secret at all, else
// access_denied. Pure lookup; no side effects.
func AuthenticateClient(ctx context.Context, tx repository.Store, clientID, secret string) (*domain.Client, error) {
	if clientID == "" {
		return nil, E(KindInvalidClient, "client_id is required")
	}
	client, err := tx.Clients().Get(ctx, clientID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, E(KindInvalidClient, "unknown client")
		}
		return nil, Wrap(KindServerError, "client lookup failed", err)
	}
	if client.Confidential() {
		if subtle.ConstantTimeCompare([]byte(client.Secret), []byte(secret)) != 1 {
			return nil, E(KindAccessDenied, "client credentials rejected")
		}
		return client, nil
	}
	if secret != "" {
		return nil, E(KindAccessDenied, "public client must not send a secret")
	}
	return client, nil
}
