package authn

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/grantd/internal/domain"
	"github.com/dropDatabas3/grantd/internal/domain/repository"
	"github.com/dropDatabas3/grantd/internal/observability/logger"
)

// TestRemoteID is the fixed remote id of the development identity.
const TestRemoteID = "dev_user"

// TestAuthenticator is a deterministic stand-in for development and
// integration environments: it returns the application's "dev_user"
// identity, creating it (and a backing user on the application's default
// role) on first use. Never enable it in production configurations.
type TestAuthenticator struct{}

func (a *TestAuthenticator) Kind() domain.AuthenticatorKind {
	return domain.AuthenticatorTest
}

// Validate: the test kind takes no config keys.
func (a *TestAuthenticator) Validate(cfg *domain.AuthenticatorConfig) error {
	return validateKeys(cfg, nil, nil)
}

func (a *TestAuthenticator) Authenticate(ctx context.Context, tx repository.Store, app *domain.Application, cfg *domain.AuthenticatorConfig, params Params) (*domain.UserIdentity, error) {
	identity, err := tx.Identities().GetByRemote(ctx, app.ID, domain.AuthenticatorTest, TestRemoteID)
	if err == nil {
		return identity, nil
	}
	if !repository.IsNotFound(err) {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:            uuid.NewString(),
		ApplicationID: app.ID,
		RoleID:        app.DefaultRoleID,
		Email:         "dev_user@example.invalid",
		Name:          "Development User",
		CreatedAt:     now,
	}
	if err := tx.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	identity = &domain.UserIdentity{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		ApplicationID: app.ID,
		Kind:          domain.AuthenticatorTest,
		RemoteID:      TestRemoteID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := tx.Identities().Create(ctx, identity); err != nil {
		return nil, err
	}
	logger.From(ctx).Info("test identity provisioned",
		logger.Layer("authn"),
		logger.UserID(user.ID),
		logger.IdentityID(identity.ID),
	)
	return identity, nil
}

func (a *TestAuthenticator) Delegate(ctx context.Context, cfg *domain.AuthenticatorConfig, callbackURL string) (string, error) {
	return "", ErrNoDelegate
}
