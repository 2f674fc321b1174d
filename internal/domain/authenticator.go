package domain

// AuthenticatorKind selects an authentication strategy. Implementations are
// looked up by kind in internal/authn; there is no inheritance hierarchy.
type AuthenticatorKind string

const (
	AuthenticatorPassword AuthenticatorKind = "password"
	AuthenticatorTest     AuthenticatorKind = "test"
	AuthenticatorGoogle   AuthenticatorKind = "google"
	AuthenticatorFacebook AuthenticatorKind = "facebook"
	AuthenticatorGitHub   AuthenticatorKind = "github"
	AuthenticatorLinkedIn AuthenticatorKind = "linkedin"
)

// Federated reports whether the kind delegates to a third-party IdP.
func (k AuthenticatorKind) Federated() bool {
	switch k {
	case AuthenticatorGoogle, AuthenticatorFacebook, AuthenticatorGitHub, AuthenticatorLinkedIn:
		return true
	}
	return false
}

// AuthenticatorConfig is a client's configuration for one authenticator kind.
// Params is an opaque string map validated against the kind's key schema
// before use; unknown or missing keys are a configuration error.
type AuthenticatorConfig struct {
	ClientID string
	Kind     AuthenticatorKind
	Params   map[string]string
}

// Param returns a config value or "" when absent.
func (c *AuthenticatorConfig) Param(key string) string {
	if c == nil || c.Params == nil {
		return ""
	}
	return c.Params[key]
}
