package authn

import (
	"context"
	"testing"

	"github.com/dropDatabas3/grantd/internal/domain"
	"github.com/dropDatabas3/grantd/internal/store/memory"
)

func TestTestAuthenticator_ProvisionsOnce(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	app := &domain.Application{ID: "app1", DefaultRoleID: "role1", Scopes: domain.ScopeSet{}}
	if err := st.Applications().Create(ctx, app); err != nil {
		t.Fatal(err)
	}

	a := &TestAuthenticator{}
	cfg := &domain.AuthenticatorConfig{Kind: domain.AuthenticatorTest}

	first, err := a.Authenticate(ctx, st, app, cfg, Params{})
	if err != nil {
		t.Fatal(err)
	}
	if first == nil || first.RemoteID != TestRemoteID {
		t.Fatalf("identity = %+v", first)
	}

	user, err := st.Users().Get(ctx, first.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if user.RoleID != "role1" {
		t.Fatalf("provisioned user on role %q, want the application default", user.RoleID)
	}

	second, err := a.Authenticate(ctx, st, app, cfg, Params{})
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Fatal("second call must return the same identity")
	}
}
