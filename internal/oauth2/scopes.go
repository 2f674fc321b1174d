package oauth2

import (
	"regexp"
	"strings"

	"github.com/dropDatabas3/grantd/internal/domain"
)

// Scope name rules:
// - Lowercase only.
// - Start and end with [a-z0-9].
// - Middle chars may include [a-z0-9:_.-].
// - Length 1..64.
//
// Valid: profile, profile:read, a_b-c.d:scope2. Invalid: BAD, "bad space",
// ":leader", "trailer:", "".
var scopeNameRe = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9:_\.-]{0,62}[a-z0-9])?$`)

// ValidScopeName reports whether name matches the allowed pattern.
// Provisioning paths use it; the resolver itself only checks membership.
func ValidScopeName(name string) bool {
	return scopeNameRe.MatchString(name)
}

// ResolveScopes intersects a requested scope string against the allowed set.
// The requested string is space-delimited; empty resolves to the full
// allowed set. Any unknown name fails the whole resolution (no partial
// grants).
func ResolveScopes(requested string, allowed domain.ScopeSet) (domain.ScopeSet, error) {
	names := strings.Fields(requested)
	if len(names) == 0 {
		return allowed.Clone(), nil
	}
	granted := make(domain.ScopeSet, len(names))
	for _, name := range names {
		sc, ok := allowed[name]
		if !ok {
			return nil, E(KindInvalidScope, "scope not allowed: "+name)
		}
		granted[name] = sc
	}
	return granted, nil
}

// NarrowScopes re-resolves a scope string during refresh or code exchange.
// Every requested name must be a member of both the previously granted set
// and the currently allowed set: refresh can only shrink scope, never grow
// it. An empty request yields the intersection of the two sets.
func NarrowScopes(requested string, granted, allowed domain.ScopeSet) (domain.ScopeSet, error) {
	names := strings.Fields(requested)
	if len(names) == 0 {
		out := make(domain.ScopeSet, len(granted))
		for name, sc := range granted {
			if _, ok := allowed[name]; ok {
				out[name] = sc
			}
		}
		return out, nil
	}
	out := make(domain.ScopeSet, len(names))
	for _, name := range names {
		if _, ok := granted[name]; !ok {
			return nil, E(KindInvalidScope, "scope not previously granted: "+name)
		}
		sc, ok := allowed[name]
		if !ok {
			return nil, E(KindInvalidScope, "scope no longer allowed: "+name)
		}
		out[name] = sc
	}
	return out, nil
}
