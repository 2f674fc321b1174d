package authn

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	cachemem "github.com/dropDatabas3/grantd/internal/cache/memory"
	"github.com/dropDatabas3/grantd/internal/domain"
	"github.com/dropDatabas3/grantd/internal/store/memory"
)

type doerFunc func(req *http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// providerDoer fakes a provider: POST hits the token endpoint, GET the
// userinfo endpoint.
func providerDoer(tokenBody, userinfoBody string, tokenStatus, userinfoStatus int) HTTPDoer {
	return doerFunc(func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodPost {
			return jsonResponse(tokenStatus, tokenBody), nil
		}
		return jsonResponse(userinfoStatus, userinfoBody), nil
	})
}

func googleCfg() *domain.AuthenticatorConfig {
	return &domain.AuthenticatorConfig{
		Kind: domain.AuthenticatorGoogle,
		Params: map[string]string{
			"client_id":     "google-cid",
			"client_secret": "google-cs",
		},
	}
}

func federatedFixture(t *testing.T, doer HTTPDoer) (*Federated, *memory.Store, *domain.Application, *StateStore) {
	t.Helper()
	st := memory.New()
	ctx := context.Background()

	app := &domain.Application{ID: "app1", DefaultRoleID: "role1", Scopes: domain.ScopeSet{}}
	if err := st.Applications().Create(ctx, app); err != nil {
		t.Fatal(err)
	}
	if err := st.Roles().Create(ctx, &domain.Role{ID: "role1", ApplicationID: "app1", Scopes: domain.ScopeSet{}}); err != nil {
		t.Fatal(err)
	}

	states := NewStateStore(cachemem.New(time.Minute), []byte("test-secret"), time.Minute)
	return NewFederated(GoogleProfile, doer, states), st, app, states
}

func TestFederated_Validate(t *testing.T) {
	f, _, _, _ := federatedFixture(t, nil)

	if err := f.Validate(googleCfg()); err != nil {
		t.Fatal(err)
	}
	err := f.Validate(&domain.AuthenticatorConfig{
		Kind:   domain.AuthenticatorGoogle,
		Params: map[string]string{"client_id": "cid", "api_key": "nope"},
	})
	if err == nil {
		t.Fatal("expected config error")
	}
	ce, ok := err.(*ConfigError)
	if !ok {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
	if len(ce.Missing) != 1 || ce.Missing[0] != "client_secret" {
		t.Fatalf("missing = %v", ce.Missing)
	}
	if len(ce.Unknown) != 1 || ce.Unknown[0] != "api_key" {
		t.Fatalf("unknown = %v", ce.Unknown)
	}
}

func TestFederated_DelegateBuildsAuthorizeURL(t *testing.T) {
	f, _, _, _ := federatedFixture(t, nil)

	redirect, err := f.Delegate(context.Background(), googleCfg(), "https://svc.example/cb")
	if err != nil {
		t.Fatal(err)
	}
	u, err := url.Parse(redirect)
	if err != nil {
		t.Fatal(err)
	}
	if u.Host != "accounts.google.com" {
		t.Fatalf("host = %q", u.Host)
	}
	q := u.Query()
	if q.Get("client_id") != "google-cid" || q.Get("response_type") != "code" {
		t.Fatalf("query = %v", q)
	}
	if q.Get("redirect_uri") != "https://svc.example/cb" {
		t.Fatalf("redirect_uri = %q", q.Get("redirect_uri"))
	}
	if q.Get("state") == "" {
		t.Fatal("authorize URL must carry a state")
	}
	if !strings.Contains(q.Get("scope"), "openid") {
		t.Fatalf("scope = %q", q.Get("scope"))
	}
}

func TestFederated_AuthenticateProvisionsIdentity(t *testing.T) {
	doer := providerDoer(
		`{"access_token":"provider-at"}`,
		`{"sub":"g-123","email":"alice@gmail.example","name":"Alice"}`,
		200, 200)
	f, st, app, states := federatedFixture(t, doer)
	ctx := context.Background()

	state, err := states.Issue("google", "https://svc.example/cb")
	if err != nil {
		t.Fatal(err)
	}
	identity, err := f.Authenticate(ctx, st, app, googleCfg(), Params{
		"code": "provider-code", "state": state,
	})
	if err != nil {
		t.Fatal(err)
	}
	if identity.RemoteID != "g-123" || identity.Kind != domain.AuthenticatorGoogle {
		t.Fatalf("identity = %+v", identity)
	}

	user, err := st.Users().Get(ctx, identity.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if user.Email != "alice@gmail.example" || user.RoleID != "role1" {
		t.Fatalf("user = %+v", user)
	}

	// Second login with the same subject reuses the identity.
	state2, err := states.Issue("google", "https://svc.example/cb")
	if err != nil {
		t.Fatal(err)
	}
	again, err := f.Authenticate(ctx, st, app, googleCfg(), Params{
		"code": "provider-code-2", "state": state2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != identity.ID {
		t.Fatal("returning subject must map to the same identity")
	}
}

func TestFederated_BadStateIsAccessDenied(t *testing.T) {
	f, st, app, _ := federatedFixture(t, providerDoer(`{}`, `{}`, 200, 200))

	_, err := f.Authenticate(context.Background(), st, app, googleCfg(), Params{
		"code": "provider-code", "state": "forged",
	})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestFederated_ProviderErrorIsThirdParty(t *testing.T) {
	doer := providerDoer(
		`{"error":"invalid_grant","error_description":"code expired"}`,
		`{}`, 400, 200)
	f, st, app, states := federatedFixture(t, doer)

	state, err := states.Issue("google", "https://svc.example/cb")
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.Authenticate(context.Background(), st, app, googleCfg(), Params{
		"code": "provider-code", "state": state,
	})
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.Code != "invalid_grant" || pe.Description != "code expired" {
		t.Fatalf("provider error not carried: %+v", pe)
	}
}

func TestFederated_MalformedUserinfoIsThirdParty(t *testing.T) {
	doer := providerDoer(`{"access_token":"provider-at"}`, `{"no":"sub"}`, 200, 200)
	f, st, app, states := federatedFixture(t, doer)

	state, err := states.Issue("google", "https://svc.example/cb")
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.Authenticate(context.Background(), st, app, googleCfg(), Params{
		"code": "provider-code", "state": state,
	})
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
}

func TestRegistry_Kinds(t *testing.T) {
	r := NewRegistry(Deps{})

	for _, kind := range []domain.AuthenticatorKind{
		domain.AuthenticatorPassword,
		domain.AuthenticatorTest,
		domain.AuthenticatorGoogle,
		domain.AuthenticatorFacebook,
		domain.AuthenticatorGitHub,
		domain.AuthenticatorLinkedIn,
	} {
		if _, ok := r.Lookup(kind); !ok {
			t.Fatalf("kind %s not registered", kind)
		}
	}
	if len(r.Kinds()) != 6 {
		t.Fatalf("kinds = %v", r.Kinds())
	}
}
