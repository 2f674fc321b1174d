package oauth2

import (
	"strings"

	"github.com/dropDatabas3/grantd/internal/domain"
)

// TokenResponse is the wire shape of a successful token request (RFC6749 §5.1).
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	State        string `json:"state,omitempty"`
}

// newTokenResponse assembles the response for an issued bearer (and optional
// refresh) pair. Scope is space-joined, sorted, omitted when empty.
func newTokenResponse(bearer, refresh *domain.OAuthToken) *TokenResponse {
	resp := &TokenResponse{
		AccessToken: bearer.ID,
		TokenType:   "Bearer",
		ExpiresIn:   bearer.ExpiresIn,
		Scope:       strings.Join(bearer.Scopes.Names(), " "),
	}
	if refresh != nil {
		resp.RefreshToken = refresh.ID
	}
	return resp
}
