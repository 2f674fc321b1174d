package oauth2

import (
	"strings"
	"testing"

	"github.com/dropDatabas3/grantd/internal/domain"
)

func scopeSet(names ...string) domain.ScopeSet {
	out := make(domain.ScopeSet, len(names))
	for _, n := range names {
		out[n] = domain.ApplicationScope{Name: n}
	}
	return out
}

func TestValidScopeName_Valid(t *testing.T) {
	valids := []string{
		"a",
		"ab",
		"profile",
		"profile:read",
		"email:read:e2e123",
		"a_b-c.d:scope2",
		"a" + strings.Repeat("a", 62) + "b", // 64 chars
	}
	for _, v := range valids {
		if !ValidScopeName(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
}

func TestValidScopeName_Invalid(t *testing.T) {
	invalids := []string{
		"",
		":lead",
		"trail:",
		"bad space",
		"UPPER",
		"semicolon;hack",
		strings.Repeat("a", 65),
	}
	for _, v := range invalids {
		if ValidScopeName(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

func TestResolveScopes_EmptyGrantsAll(t *testing.T) {
	allowed := scopeSet("profile", "email")
	got, err := ResolveScopes("", allowed)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected full allowed set, got %v", got.Names())
	}
}

func TestResolveScopes_Subset(t *testing.T) {
	allowed := scopeSet("profile", "email", "orders:read")
	got, err := ResolveScopes("email orders:read", allowed)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"email", "orders:read"}
	names := got.Names()
	if len(names) != len(want) {
		t.Fatalf("got %v want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v want %v", names, want)
		}
	}
}

func TestResolveScopes_UnknownFailsWhole(t *testing.T) {
	allowed := scopeSet("profile")
	_, err := ResolveScopes("profile nope", allowed)
	if !IsKind(err, KindInvalidScope) {
		t.Fatalf("expected invalid_scope, got %v", err)
	}
}

func TestNarrowScopes_SubsetOfGranted(t *testing.T) {
	granted := scopeSet("profile", "email")
	allowed := scopeSet("profile", "email", "extra")
	got, err := NarrowScopes("email", granted, allowed)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got.Names()[0] != "email" {
		t.Fatalf("got %v", got.Names())
	}
}

func TestNarrowScopes_CannotGrow(t *testing.T) {
	granted := scopeSet("email")
	allowed := scopeSet("profile", "email")
	if _, err := NarrowScopes("profile", granted, allowed); !IsKind(err, KindInvalidScope) {
		t.Fatalf("expected invalid_scope, got %v", err)
	}
}

func TestNarrowScopes_DroppedFromCatalog(t *testing.T) {
	// Scope was granted but has since been removed from the application.
	granted := scopeSet("profile", "legacy")
	allowed := scopeSet("profile")

	if _, err := NarrowScopes("legacy", granted, allowed); !IsKind(err, KindInvalidScope) {
		t.Fatalf("expected invalid_scope, got %v", err)
	}

	// Empty request silently drops the dead scope.
	got, err := NarrowScopes("", granted, allowed)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got.Names()[0] != "profile" {
		t.Fatalf("got %v", got.Names())
	}
}
