package authn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/grantd/internal/domain"
	"github.com/dropDatabas3/grantd/internal/domain/repository"
	"github.com/dropDatabas3/grantd/internal/observability/logger"
)

// Sentinels for callback handling. The boundary maps them onto the wire
// taxonomy (missing code -> invalid_request, bad state -> access_denied).
var (
	ErrMissingCode  = errors.New("missing authorization code")
	ErrInvalidState = errors.New("invalid or expired state")
)

// ProviderError reports a third-party IdP failure: unreachable endpoint,
// rejected code exchange or malformed userinfo. Code and Description carry
// the provider's own error when it sent one.
type ProviderError struct {
	Provider    string
	Code        string
	Description string
	cause       error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("provider %s failed", e.Provider)
	if e.Code != "" {
		msg += ": " + e.Code
		if e.Description != "" {
			msg += " (" + e.Description + ")"
		}
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.cause }

// HTTPDoer is the outbound HTTP surface used for provider calls. Tests
// substitute a fake; production wires an *http.Client with a request-level
// timeout.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultHTTPClient bounds every provider call. Outbound calls are
// synchronous and never retried within a request.
func DefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// Profile describes one third-party IdP: its endpoints, default scopes and
// the mapping from its userinfo response to the normalized OAuth2User.
// Adding a provider means adding a Profile, not a subclass.
type Profile struct {
	Kind              domain.AuthenticatorKind
	AuthorizeEndpoint string
	TokenEndpoint     string
	UserInfoEndpoint  string
	Scopes            []string

	// Extra query parameters for the authorize redirect (provider quirks).
	AuthorizeParams map[string]string

	// Extra headers for the userinfo request (provider quirks).
	UserInfoHeaders map[string]string

	// MapProfile normalizes the provider's userinfo JSON.
	MapProfile func(body []byte) (*domain.OAuth2User, error)
}

// Federated implements the shared delegate/callback flow for every IdP kind.
type Federated struct {
	profile Profile
	http    HTTPDoer
	states  *StateStore
}

// NewFederated builds the strategy for one provider profile.
func NewFederated(p Profile, client HTTPDoer, states *StateStore) *Federated {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &Federated{profile: p, http: client, states: states}
}

func (f *Federated) Kind() domain.AuthenticatorKind { return f.profile.Kind }

// Validate: federated kinds require provider credentials; scopes may
// override the profile default.
func (f *Federated) Validate(cfg *domain.AuthenticatorConfig) error {
	return validateKeys(cfg, []string{"client_id", "client_secret"}, []string{"scopes"})
}

// Delegate builds the provider authorize URL carrying a one-shot signed
// state. The caller redirects the user-agent there.
func (f *Federated) Delegate(ctx context.Context, cfg *domain.AuthenticatorConfig, callbackURL string) (string, error) {
	state, err := f.states.Issue(string(f.profile.Kind), callbackURL)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(f.profile.AuthorizeEndpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", cfg.Param("client_id"))
	q.Set("redirect_uri", callbackURL)
	q.Set("scope", strings.Join(f.scopes(cfg), " "))
	q.Set("state", state)
	for k, v := range f.profile.AuthorizeParams {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Authenticate handles the provider callback: redeem state, exchange the
// code, fetch userinfo, normalize it and resolve-or-create the local
// identity keyed by (remoteID = external id, kind = provider).
func (f *Federated) Authenticate(ctx context.Context, tx repository.Store, app *domain.Application, cfg *domain.AuthenticatorConfig, params Params) (*domain.UserIdentity, error) {
	log := logger.From(ctx).With(logger.Layer("authn"), logger.Provider(string(f.profile.Kind)))

	code := params.Get("code")
	if code == "" {
		return nil, ErrMissingCode
	}
	_, callbackURL, err := f.states.Redeem(params.Get("state"))
	if err != nil {
		log.Warn("state redemption failed", logger.Err(err))
		return nil, ErrInvalidState
	}

	accessToken, err := f.exchangeCode(ctx, cfg, code, callbackURL)
	if err != nil {
		return nil, err
	}
	remote, err := f.fetchProfile(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return f.resolveIdentity(ctx, tx, app, remote)
}

// exchangeCode trades the authorization code for a provider access token.
func (f *Federated) exchangeCode(ctx context.Context, cfg *domain.AuthenticatorConfig, code, callbackURL string) (string, error) {
	log := logger.From(ctx).With(logger.Layer("authn"), logger.Provider(string(f.profile.Kind)))

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", callbackURL)
	form.Set("client_id", cfg.Param("client_id"))
	form.Set("client_secret", cfg.Param("client_secret"))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.profile.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		log.Warn("token endpoint unreachable", logger.Err(err))
		return "", &ProviderError{Provider: string(f.profile.Kind), cause: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var tr struct {
		AccessToken string `json:"access_token"`
		Error       string `json:"error"`
		ErrorDesc   string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &tr); err != nil || resp.StatusCode/100 != 2 || tr.Error != "" {
		log.Warn("code exchange rejected",
			logger.Status(resp.StatusCode),
			logger.String("provider_error", tr.Error),
		)
		return "", &ProviderError{Provider: string(f.profile.Kind), Code: tr.Error, Description: tr.ErrorDesc}
	}
	if tr.AccessToken == "" {
		return "", &ProviderError{Provider: string(f.profile.Kind)}
	}
	return tr.AccessToken, nil
}

// fetchProfile performs the single authenticated userinfo GET and maps the
// response.
func (f *Federated) fetchProfile(ctx context.Context, accessToken string) (*domain.OAuth2User, error) {
	log := logger.From(ctx).With(logger.Layer("authn"), logger.Provider(string(f.profile.Kind)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.profile.UserInfoEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	for k, v := range f.profile.UserInfoHeaders {
		req.Header.Set(k, v)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		log.Warn("userinfo endpoint unreachable", logger.Err(err))
		return nil, &ProviderError{Provider: string(f.profile.Kind), cause: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode/100 != 2 {
		log.Warn("userinfo rejected", logger.Status(resp.StatusCode))
		return nil, &ProviderError{Provider: string(f.profile.Kind)}
	}
	remote, err := f.profile.MapProfile(body)
	if err != nil {
		log.Warn("malformed userinfo response", logger.Err(err))
		return nil, &ProviderError{Provider: string(f.profile.Kind), cause: err}
	}
	return remote, nil
}

// resolveIdentity maps the normalized profile onto a local identity,
// provisioning a user on the application's default role on first login.
func (f *Federated) resolveIdentity(ctx context.Context, tx repository.Store, app *domain.Application, remote *domain.OAuth2User) (*domain.UserIdentity, error) {
	identity, err := tx.Identities().GetByRemote(ctx, app.ID, f.profile.Kind, remote.ExternalID)
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
		Email:         remote.Claim("email"),
		Name:          remote.Claim("name"),
		CreatedAt:     now,
	}
	if err := tx.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	identity = &domain.UserIdentity{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		ApplicationID: app.ID,
		Kind:          f.profile.Kind,
		RemoteID:      remote.ExternalID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := tx.Identities().Create(ctx, identity); err != nil {
		return nil, err
	}
	logger.From(ctx).Info("federated identity provisioned",
		logger.Layer("authn"),
		logger.Provider(string(f.profile.Kind)),
		logger.UserID(user.ID),
		logger.Email(user.Email),
	)
	return identity, nil
}

func (f *Federated) scopes(cfg *domain.AuthenticatorConfig) []string {
	if s := cfg.Param("scopes"); s != "" {
		return strings.Fields(s)
	}
	return f.profile.Scopes
}
