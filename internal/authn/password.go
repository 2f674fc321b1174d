package authn

import (
	"context"

	"github.com/dropDatabas3/grantd/internal/domain"
	"github.com/dropDatabas3/grantd/internal/domain/repository"
	"github.com/dropDatabas3/grantd/internal/observability/logger"
	"github.com/dropDatabas3/grantd/internal/security/password"
)

// PasswordAuthenticator verifies a username/password pair against a stored
// identity. It never creates identities: an unknown username and a wrong
// password are indistinguishable (nil, nil) results.
type PasswordAuthenticator struct{}

func (a *PasswordAuthenticator) Kind() domain.AuthenticatorKind {
	return domain.AuthenticatorPassword
}

// Validate: the password kind takes no config keys at all.
func (a *PasswordAuthenticator) Validate(cfg *domain.AuthenticatorConfig) error {
	return validateKeys(cfg, nil, nil)
}

func (a *PasswordAuthenticator) Authenticate(ctx context.Context, tx repository.Store, app *domain.Application, cfg *domain.AuthenticatorConfig, params Params) (*domain.UserIdentity, error) {
	log := logger.From(ctx).With(logger.Layer("authn"), logger.Op("authn.password"))

	username := params.Get("username")
	if username == "" {
		return nil, nil
	}
	identity, err := tx.Identities().GetByRemote(ctx, app.ID, domain.AuthenticatorPassword, username)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Debug("unknown username")
			return nil, nil
		}
		return nil, err
	}
	if !password.Verify(params.Get("password"), identity.PasswordSalt, identity.PasswordHash) {
		log.Debug("password mismatch", logger.IdentityID(identity.ID))
		return nil, nil
	}
	return identity, nil
}

func (a *PasswordAuthenticator) Delegate(ctx context.Context, cfg *domain.AuthenticatorConfig, callbackURL string) (string, error) {
	return "", ErrNoDelegate
}
