package domain

// ClientType restricts which grant types a client may exercise at the token
// endpoint. Dispatch rules live in internal/oauth2; the type itself is data.
type ClientType string

const (
	ClientAuthorizationGrant ClientType = "authorization_grant"
	ClientClientCredentials  ClientType = "client_credentials"
	ClientOwnerCredentials   ClientType = "owner_credentials"
	ClientImplicit           ClientType = "implicit"
)

// Client is a registered OAuth2 client. Read-only to the grant engine:
// provisioning happens through external admin tooling.
type Client struct {
	ID            string
	ApplicationID string
	Name          string
	Type          ClientType

	// Secret is empty for public clients. A non-empty secret makes the
	// client confidential and the token endpoint requires an exact match.
	Secret string

	RedirectURIs []string

	// TTLs in seconds. Zero means the engine default for that token kind.
	AccessTokenTTL  int64
	RefreshTokenTTL int64
	AuthCodeTTL     int64

	Authenticators []AuthenticatorConfig
}

// Confidential reports whether the client holds a secret.
func (c *Client) Confidential() bool { return c.Secret != "" }

// Authenticator returns the client's config for the given authenticator kind.
func (c *Client) Authenticator(kind AuthenticatorKind) (*AuthenticatorConfig, bool) {
	for i := range c.Authenticators {
		if c.Authenticators[i].Kind == kind {
			return &c.Authenticators[i], true
		}
	}
	return nil, false
}

// AllowsRedirectURI reports whether uri is one of the registered redirect URIs.
func (c *Client) AllowsRedirectURI(uri string) bool {
	for _, u := range c.RedirectURIs {
		if u == uri {
			return true
		}
	}
	return false
}
