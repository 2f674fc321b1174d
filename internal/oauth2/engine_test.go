package oauth2

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/dropDatabas3/grantd/internal/authn"
	"github.com/dropDatabas3/grantd/internal/domain"
	"github.com/dropDatabas3/grantd/internal/domain/repository"
	"github.com/dropDatabas3/grantd/internal/security/password"
	"github.com/dropDatabas3/grantd/internal/store/memory"
)

// testClock is a controllable time source shared by the engine under test.
type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type engineFixture struct {
	store  *memory.Store
	engine *Engine
	tokens *TokenService
	clock  *testClock
}

const (
	m2mSecret   = "m2m-sup3r-secret"
	ownerSecret = "owner-sup3r-secret"
	webSecret   = "web-sup3r-secret"
	alicePwd    = "correct horse battery staple"
	redirectURI = "https://app.example/cb"
)

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	st := memory.New()
	ctx := context.Background()

	app := &domain.Application{
		ID:            "app1",
		Name:          "Test App",
		Scopes:        scopeSet("profile", "email", "orders:read"),
		DefaultRoleID: "role1",
	}
	if err := st.Applications().Create(ctx, app); err != nil {
		t.Fatal(err)
	}
	role := &domain.Role{
		ID:            "role1",
		ApplicationID: "app1",
		Name:          "member",
		Scopes:        scopeSet("profile", "email"),
	}
	if err := st.Roles().Create(ctx, role); err != nil {
		t.Fatal(err)
	}

	clients := []*domain.Client{
		{
			ID: "m2m", ApplicationID: "app1", Type: domain.ClientClientCredentials,
			Secret: m2mSecret, AccessTokenTTL: 120,
		},
		{
			ID: "m2m-public", ApplicationID: "app1", Type: domain.ClientClientCredentials,
		},
		{
			ID: "owner", ApplicationID: "app1", Type: domain.ClientOwnerCredentials,
			Secret: ownerSecret, RefreshTokenTTL: 86400,
			Authenticators: []domain.AuthenticatorConfig{
				{ClientID: "owner", Kind: domain.AuthenticatorPassword},
			},
		},
		{
			ID: "web", ApplicationID: "app1", Type: domain.ClientAuthorizationGrant,
			Secret: webSecret, AuthCodeTTL: 60,
			RedirectURIs: []string{redirectURI},
		},
	}
	for _, c := range clients {
		if err := st.Clients().Create(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	user := &domain.User{ID: "u1", ApplicationID: "app1", RoleID: "role1", Email: "alice@example.com"}
	if err := st.Users().Create(ctx, user); err != nil {
		t.Fatal(err)
	}
	salt, err := password.CreateSalt()
	if err != nil {
		t.Fatal(err)
	}
	hash, err := password.Hash(alicePwd, salt)
	if err != nil {
		t.Fatal(err)
	}
	ident := &domain.UserIdentity{
		ID: "id1", UserID: "u1", ApplicationID: "app1",
		Kind: domain.AuthenticatorPassword, RemoteID: "alice",
		PasswordHash: hash, PasswordSalt: salt,
	}
	if err := st.Identities().Create(ctx, ident); err != nil {
		t.Fatal(err)
	}

	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	tokens := NewTokenService(clock.Now)
	return &engineFixture{
		store:  st,
		engine: NewEngine(st, authn.NewRegistry(authn.Deps{}), tokens),
		tokens: tokens,
		clock:  clock,
	}
}

func form(kv ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	return v
}

func TestEngine_ClientCredentials(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	resp, err := f.engine.Token(ctx, "m2m", m2mSecret, form("grant_type", "client_credentials"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.AccessToken == "" || resp.TokenType != "Bearer" {
		t.Fatalf("bad response: %+v", resp)
	}
	if resp.ExpiresIn != 120 {
		t.Fatalf("expires_in = %d, want client TTL 120", resp.ExpiresIn)
	}
	if resp.RefreshToken != "" {
		t.Fatal("client_credentials must not issue a refresh token")
	}
	if resp.Scope != "email orders:read profile" {
		t.Fatalf("empty request must grant the full catalog, got %q", resp.Scope)
	}

	stored, err := f.store.Tokens().Get(ctx, resp.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	if stored.IdentityID != "" {
		t.Fatal("machine token must not be bound to an identity")
	}
}

func TestEngine_ClientCredentials_ScopeSubset(t *testing.T) {
	f := newEngineFixture(t)

	resp, err := f.engine.Token(context.Background(), "m2m", m2mSecret,
		form("grant_type", "client_credentials", "scope", "profile"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Scope != "profile" {
		t.Fatalf("scope = %q", resp.Scope)
	}
}

func TestEngine_ClientCredentials_UnknownScope(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Token(context.Background(), "m2m", m2mSecret,
		form("grant_type", "client_credentials", "scope", "profile admin"))
	if !IsKind(err, KindInvalidScope) {
		t.Fatalf("expected invalid_scope, got %v", err)
	}
}

func TestEngine_WrongSecret(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Token(context.Background(), "m2m", "nope",
		form("grant_type", "client_credentials"))
	if !IsKind(err, KindAccessDenied) {
		t.Fatalf("expected access_denied, got %v", err)
	}
}

func TestEngine_UnknownClient(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Token(context.Background(), "ghost", "",
		form("grant_type", "client_credentials"))
	if !IsKind(err, KindInvalidClient) {
		t.Fatalf("expected invalid_client, got %v", err)
	}
}

func TestEngine_PublicClientCannotUseClientCredentials(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Token(context.Background(), "m2m-public", "",
		form("grant_type", "client_credentials"))
	if !IsKind(err, KindUnauthorizedClient) {
		t.Fatalf("expected unauthorized_client, got %v", err)
	}
}

func TestEngine_UnsupportedGrantType(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Token(context.Background(), "m2m", m2mSecret,
		form("grant_type", "implicit"))
	if !IsKind(err, KindUnsupportedGrantType) {
		t.Fatalf("expected unsupported_grant_type, got %v", err)
	}
}

func TestEngine_PasswordGrant(t *testing.T) {
	f := newEngineFixture(t)

	resp, err := f.engine.Token(context.Background(), "owner", ownerSecret,
		form("grant_type", "password", "username", "alice", "password", alicePwd))
	if err != nil {
		t.Fatal(err)
	}
	if resp.RefreshToken == "" {
		t.Fatal("password grant must issue a refresh token")
	}
	if resp.Scope != "email profile" {
		t.Fatalf("scopes must come from the user's role, got %q", resp.Scope)
	}

	stored, err := f.store.Tokens().Get(context.Background(), resp.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	if stored.IdentityID != "id1" {
		t.Fatalf("bearer bound to %q, want id1", stored.IdentityID)
	}
	if stored.PairedID != resp.RefreshToken {
		t.Fatal("bearer must be paired with the refresh token")
	}
}

func TestEngine_PasswordGrant_BadPassword(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Token(context.Background(), "owner", ownerSecret,
		form("grant_type", "password", "username", "alice", "password", "wrong"))
	if !IsKind(err, KindAuthenticationFailed) {
		t.Fatalf("expected bare authentication failure, got %v", err)
	}

	// Unknown username must be indistinguishable from a bad password.
	_, err = f.engine.Token(context.Background(), "owner", ownerSecret,
		form("grant_type", "password", "username", "nobody", "password", alicePwd))
	if !IsKind(err, KindAuthenticationFailed) {
		t.Fatalf("expected bare authentication failure, got %v", err)
	}
}

func TestEngine_PasswordGrant_MissingCredentials(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Token(context.Background(), "owner", ownerSecret,
		form("grant_type", "password", "username", "alice"))
	if !IsKind(err, KindInvalidRequest) {
		t.Fatalf("expected invalid_request, got %v", err)
	}
}

func TestEngine_PasswordGrant_ScopeOutsideRole(t *testing.T) {
	f := newEngineFixture(t)

	// orders:read exists on the application but not on the user's role.
	_, err := f.engine.Token(context.Background(), "owner", ownerSecret,
		form("grant_type", "password", "username", "alice", "password", alicePwd,
			"scope", "orders:read"))
	if !IsKind(err, KindInvalidScope) {
		t.Fatalf("expected invalid_scope, got %v", err)
	}
}

func TestEngine_PasswordGrant_WrongClientType(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Token(context.Background(), "m2m", m2mSecret,
		form("grant_type", "password", "username", "alice", "password", alicePwd))
	if !IsKind(err, KindUnauthorizedClient) {
		t.Fatalf("expected unauthorized_client, got %v", err)
	}
}

func TestEngine_RefreshRotation(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	first, err := f.engine.Token(ctx, "owner", ownerSecret,
		form("grant_type", "password", "username", "alice", "password", alicePwd))
	if err != nil {
		t.Fatal(err)
	}

	second, err := f.engine.Token(ctx, "owner", ownerSecret,
		form("grant_type", "refresh_token", "refresh_token", first.RefreshToken))
	if err != nil {
		t.Fatal(err)
	}
	if second.AccessToken == first.AccessToken || second.RefreshToken == first.RefreshToken {
		t.Fatal("rotation must mint a fresh pair")
	}
	if second.Scope != first.Scope {
		t.Fatalf("scope changed across plain refresh: %q -> %q", first.Scope, second.Scope)
	}

	// Both halves of the old pair are gone.
	if _, err := f.store.Tokens().Get(ctx, first.AccessToken); !repository.IsNotFound(err) {
		t.Fatalf("old bearer still present: %v", err)
	}
	if _, err := f.store.Tokens().Get(ctx, first.RefreshToken); !repository.IsNotFound(err) {
		t.Fatalf("old refresh still present: %v", err)
	}

	// Replaying the rotated refresh token fails closed.
	_, err = f.engine.Token(ctx, "owner", ownerSecret,
		form("grant_type", "refresh_token", "refresh_token", first.RefreshToken))
	if !IsKind(err, KindInvalidGrant) {
		t.Fatalf("expected invalid_grant on replay, got %v", err)
	}

	// The pair from the replayed request must not exist either: the failed
	// transaction rolled its issuance back. The only live pair is `second`.
	if _, err := f.store.Tokens().Get(ctx, second.AccessToken); err != nil {
		t.Fatalf("winning bearer lost: %v", err)
	}
}

func TestEngine_RefreshNarrowing(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	first, err := f.engine.Token(ctx, "owner", ownerSecret,
		form("grant_type", "password", "username", "alice", "password", alicePwd))
	if err != nil {
		t.Fatal(err)
	}

	narrowed, err := f.engine.Token(ctx, "owner", ownerSecret,
		form("grant_type", "refresh_token", "refresh_token", first.RefreshToken,
			"scope", "email"))
	if err != nil {
		t.Fatal(err)
	}
	if narrowed.Scope != "email" {
		t.Fatalf("scope = %q, want email", narrowed.Scope)
	}

	// Narrowing is permanent: the new refresh token cannot regrow profile.
	_, err = f.engine.Token(ctx, "owner", ownerSecret,
		form("grant_type", "refresh_token", "refresh_token", narrowed.RefreshToken,
			"scope", "profile"))
	if !IsKind(err, KindInvalidScope) {
		t.Fatalf("expected invalid_scope, got %v", err)
	}
}

func TestEngine_RefreshExpired(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	first, err := f.engine.Token(ctx, "owner", ownerSecret,
		form("grant_type", "password", "username", "alice", "password", alicePwd))
	if err != nil {
		t.Fatal(err)
	}

	f.clock.Advance(86400 * time.Second) // exactly the refresh TTL: boundary is expired

	_, err = f.engine.Token(ctx, "owner", ownerSecret,
		form("grant_type", "refresh_token", "refresh_token", first.RefreshToken))
	if !IsKind(err, KindInvalidGrant) {
		t.Fatalf("expected invalid_grant, got %v", err)
	}
}

func TestEngine_RefreshForeignToken(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	first, err := f.engine.Token(ctx, "owner", ownerSecret,
		form("grant_type", "password", "username", "alice", "password", alicePwd))
	if err != nil {
		t.Fatal(err)
	}

	_, err = f.engine.Token(ctx, "web", webSecret,
		form("grant_type", "refresh_token", "refresh_token", first.RefreshToken))
	if !IsKind(err, KindInvalidGrant) {
		t.Fatalf("expected invalid_grant, got %v", err)
	}
}

func TestEngine_RefreshMalformedToken(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Token(context.Background(), "owner", ownerSecret,
		form("grant_type", "refresh_token", "refresh_token", "not-a-uuid"))
	if !IsKind(err, KindInvalidGrant) {
		t.Fatalf("expected invalid_grant, got %v", err)
	}
}

// issueCode seeds an authorization code the way the authorize flow would.
func (f *engineFixture) issueCode(t *testing.T, scopes domain.ScopeSet) string {
	t.Helper()
	var id string
	err := f.store.Tx(context.Background(), func(tx repository.Store) error {
		client, err := tx.Clients().Get(context.Background(), "web")
		if err != nil {
			return err
		}
		code, err := f.tokens.IssueCode(context.Background(), tx, client, "id1", scopes, redirectURI)
		if err != nil {
			return err
		}
		id = code.ID
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestEngine_AuthorizationCode(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	code := f.issueCode(t, scopeSet("profile"))

	resp, err := f.engine.Token(ctx, "web", webSecret,
		form("grant_type", "authorization_code", "code", code, "redirect_uri", redirectURI))
	if err != nil {
		t.Fatal(err)
	}
	if resp.RefreshToken == "" || resp.Scope != "profile" {
		t.Fatalf("bad response: %+v", resp)
	}

	// Single use: the second exchange loses.
	_, err = f.engine.Token(ctx, "web", webSecret,
		form("grant_type", "authorization_code", "code", code, "redirect_uri", redirectURI))
	if !IsKind(err, KindInvalidGrant) {
		t.Fatalf("expected invalid_grant on reuse, got %v", err)
	}
}

func TestEngine_AuthorizationCode_RedirectMismatch(t *testing.T) {
	f := newEngineFixture(t)
	code := f.issueCode(t, scopeSet("profile"))

	_, err := f.engine.Token(context.Background(), "web", webSecret,
		form("grant_type", "authorization_code", "code", code,
			"redirect_uri", "https://evil.example/cb"))
	if !IsKind(err, KindInvalidGrant) {
		t.Fatalf("expected invalid_grant, got %v", err)
	}
}

func TestEngine_AuthorizationCode_Expired(t *testing.T) {
	f := newEngineFixture(t)
	code := f.issueCode(t, scopeSet("profile"))

	f.clock.Advance(61 * time.Second)

	_, err := f.engine.Token(context.Background(), "web", webSecret,
		form("grant_type", "authorization_code", "code", code, "redirect_uri", redirectURI))
	if !IsKind(err, KindInvalidGrant) {
		t.Fatalf("expected invalid_grant, got %v", err)
	}
}

func TestEngine_StateEcho(t *testing.T) {
	f := newEngineFixture(t)

	resp, err := f.engine.Token(context.Background(), "m2m", m2mSecret,
		form("grant_type", "client_credentials", "state", "xyz-123"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.State != "xyz-123" {
		t.Fatalf("state = %q", resp.State)
	}
}
