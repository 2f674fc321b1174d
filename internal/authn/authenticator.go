// Package authn implements the pluggable end-user authentication strategies
// behind the grant engine: local password, a deterministic test identity,
// and federated third-party IdPs (Google, Facebook, GitHub, LinkedIn).
//
// Strategies are plain values looked up by kind in a Registry; there is no
// inheritance. Each kind declares its config key schema and Validate rejects
// both missing required keys and unknown extras.
package authn

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dropDatabas3/grantd/internal/domain"
	"github.com/dropDatabas3/grantd/internal/domain/repository"
)

// Params carries the caller-supplied authentication parameters (form fields
// for the password grant, code/state for federated callbacks).
type Params map[string]string

// Get returns a parameter or "".
func (p Params) Get(key string) string { return p[key] }

// Authenticator is one authentication strategy.
type Authenticator interface {
	// Kind identifies the strategy.
	Kind() domain.AuthenticatorKind

	// Validate checks cfg against the kind's key schema. Returns a
	// *ConfigError listing missing and unknown keys; intended to run at
	// client provisioning time and re-checked once per use.
	Validate(cfg *domain.AuthenticatorConfig) error

	// Authenticate resolves (or, for kinds that provision on first use,
	// creates) a local identity. A (nil, nil) return means the supplied
	// credentials matched nothing; it is not an error.
	Authenticate(ctx context.Context, tx repository.Store, app *domain.Application, cfg *domain.AuthenticatorConfig, params Params) (*domain.UserIdentity, error)

	// Delegate returns the redirect URL that sends the user-agent to a
	// third party. Non-federated kinds return ErrNoDelegate.
	Delegate(ctx context.Context, cfg *domain.AuthenticatorConfig, callbackURL string) (string, error)
}

// ErrNoDelegate is returned by Delegate on kinds that authenticate locally.
var ErrNoDelegate = fmt.Errorf("authenticator does not delegate")

// ConfigError reports an authenticator config that does not match its kind's
// key schema. This is a provisioning-time failure: clients carrying a config
// that fails validation must be rejected before they serve requests.
type ConfigError struct {
	Kind    domain.AuthenticatorKind
	Missing []string
	Unknown []string
}

func (e *ConfigError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing keys: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, "unknown keys: "+strings.Join(e.Unknown, ", "))
	}
	if len(parts) == 0 {
		parts = append(parts, "invalid config")
	}
	return fmt.Sprintf("authenticator %s: %s", e.Kind, strings.Join(parts, "; "))
}

// validateKeys checks cfg.Params against the allowed schema.
func validateKeys(cfg *domain.AuthenticatorConfig, required, optional []string) error {
	ce := &ConfigError{Kind: cfg.Kind}
	for _, k := range required {
		if strings.TrimSpace(cfg.Params[k]) == "" {
			ce.Missing = append(ce.Missing, k)
		}
	}
	allowed := make(map[string]bool, len(required)+len(optional))
	for _, k := range required {
		allowed[k] = true
	}
	for _, k := range optional {
		allowed[k] = true
	}
	for k := range cfg.Params {
		if !allowed[k] {
			ce.Unknown = append(ce.Unknown, k)
		}
	}
	if len(ce.Missing) == 0 && len(ce.Unknown) == 0 {
		return nil
	}
	sort.Strings(ce.Missing)
	sort.Strings(ce.Unknown)
	return ce
}

// Registry is the kind -> implementation lookup table, assembled once at
// startup with the shared dependencies (HTTP client, state store).
type Registry struct {
	impls map[domain.AuthenticatorKind]Authenticator
}

// Deps carries what federated authenticators need.
type Deps struct {
	HTTPClient HTTPDoer
	States     *StateStore
}

// NewRegistry builds the full strategy table.
func NewRegistry(d Deps) *Registry {
	r := &Registry{impls: make(map[domain.AuthenticatorKind]Authenticator)}
	r.register(&PasswordAuthenticator{})
	r.register(&TestAuthenticator{})
	for _, p := range []Profile{GoogleProfile, FacebookProfile, GitHubProfile, LinkedInProfile} {
		r.register(NewFederated(p, d.HTTPClient, d.States))
	}
	return r
}

func (r *Registry) register(a Authenticator) {
	r.impls[a.Kind()] = a
}

// Lookup returns the strategy for a kind.
func (r *Registry) Lookup(kind domain.AuthenticatorKind) (Authenticator, bool) {
	a, ok := r.impls[kind]
	return a, ok
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []domain.AuthenticatorKind {
	out := make([]domain.AuthenticatorKind, 0, len(r.impls))
	for k := range r.impls {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
