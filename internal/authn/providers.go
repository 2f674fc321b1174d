package authn

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dropDatabas3/grantd/internal/domain"
)

// Provider profiles. Endpoints and mappings follow each provider's published
// OAuth2/OIDC contract; GitHub is plain OAuth2 and needs its API media type,
// the rest expose OIDC-style userinfo documents.

// GoogleProfile maps Google's OIDC userinfo document.
var GoogleProfile = Profile{
	Kind:              domain.AuthenticatorGoogle,
	AuthorizeEndpoint: "https://accounts.google.com/o/oauth2/v2/auth",
	TokenEndpoint:     "https://oauth2.googleapis.com/token",
	UserInfoEndpoint:  "https://openidconnect.googleapis.com/v1/userinfo",
	Scopes:            []string{"openid", "email", "profile"},
	MapProfile: func(body []byte) (*domain.OAuth2User, error) {
		var ui struct {
			Sub           string `json:"sub"`
			Email         string `json:"email"`
			EmailVerified bool   `json:"email_verified"`
			Name          string `json:"name"`
			GivenName     string `json:"given_name"`
			FamilyName    string `json:"family_name"`
			Picture       string `json:"picture"`
			Locale        string `json:"locale"`
		}
		if err := json.Unmarshal(body, &ui); err != nil {
			return nil, err
		}
		if ui.Sub == "" {
			return nil, fmt.Errorf("userinfo without sub")
		}
		return &domain.OAuth2User{
			ExternalID: ui.Sub,
			Claims: claims(map[string]string{
				"email":          ui.Email,
				"email_verified": strconv.FormatBool(ui.EmailVerified),
				"name":           ui.Name,
				"given_name":     ui.GivenName,
				"family_name":    ui.FamilyName,
				"picture":        ui.Picture,
				"locale":         ui.Locale,
			}),
		}, nil
	},
}

// FacebookProfile maps the Graph API /me document.
var FacebookProfile = Profile{
	Kind:              domain.AuthenticatorFacebook,
	AuthorizeEndpoint: "https://www.facebook.com/v12.0/dialog/oauth",
	TokenEndpoint:     "https://graph.facebook.com/v12.0/oauth/access_token",
	UserInfoEndpoint:  "https://graph.facebook.com/v12.0/me?fields=id,name,email,picture",
	Scopes:            []string{"public_profile", "email"},
	MapProfile: func(body []byte) (*domain.OAuth2User, error) {
		var ui struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		}
		if err := json.Unmarshal(body, &ui); err != nil {
			return nil, err
		}
		if ui.ID == "" {
			return nil, fmt.Errorf("profile without id")
		}
		return &domain.OAuth2User{
			ExternalID: ui.ID,
			Claims: claims(map[string]string{
				"email": ui.Email,
				"name":  ui.Name,
			}),
		}, nil
	},
}

// GitHubProfile maps the REST /user document. GitHub is OAuth2 without ID
// tokens, so userinfo is a plain API call with its vendored media type.
var GitHubProfile = Profile{
	Kind:              domain.AuthenticatorGitHub,
	AuthorizeEndpoint: "https://github.com/login/oauth/authorize",
	TokenEndpoint:     "https://github.com/login/oauth/access_token",
	UserInfoEndpoint:  "https://api.github.com/user",
	Scopes:            []string{"read:user", "user:email"},
	AuthorizeParams:   map[string]string{"allow_signup": "true"},
	UserInfoHeaders:   map[string]string{"Accept": "application/vnd.github+json"},
	MapProfile: func(body []byte) (*domain.OAuth2User, error) {
		var ui struct {
			ID        int64  `json:"id"`
			Login     string `json:"login"`
			Name      string `json:"name"`
			Email     string `json:"email"`
			AvatarURL string `json:"avatar_url"`
		}
		if err := json.Unmarshal(body, &ui); err != nil {
			return nil, err
		}
		if ui.ID == 0 {
			return nil, fmt.Errorf("user without id")
		}
		return &domain.OAuth2User{
			ExternalID: strconv.FormatInt(ui.ID, 10),
			Claims: claims(map[string]string{
				"login":   ui.Login,
				"name":    ui.Name,
				"email":   ui.Email,
				"picture": ui.AvatarURL,
			}),
		}, nil
	},
}

// LinkedInProfile maps LinkedIn's OIDC userinfo document.
var LinkedInProfile = Profile{
	Kind:              domain.AuthenticatorLinkedIn,
	AuthorizeEndpoint: "https://www.linkedin.com/oauth/v2/authorization",
	TokenEndpoint:     "https://www.linkedin.com/oauth/v2/accessToken",
	UserInfoEndpoint:  "https://api.linkedin.com/v2/userinfo",
	Scopes:            []string{"openid", "profile", "email"},
	MapProfile: func(body []byte) (*domain.OAuth2User, error) {
		var ui struct {
			Sub        string `json:"sub"`
			Name       string `json:"name"`
			GivenName  string `json:"given_name"`
			FamilyName string `json:"family_name"`
			Email      string `json:"email"`
			Picture    string `json:"picture"`
		}
		if err := json.Unmarshal(body, &ui); err != nil {
			return nil, err
		}
		if ui.Sub == "" {
			return nil, fmt.Errorf("userinfo without sub")
		}
		return &domain.OAuth2User{
			ExternalID: ui.Sub,
			Claims: claims(map[string]string{
				"email":       ui.Email,
				"name":        ui.Name,
				"given_name":  ui.GivenName,
				"family_name": ui.FamilyName,
				"picture":     ui.Picture,
			}),
		}, nil
	},
}

// claims drops empty values so identity provisioning sees only real data.
func claims(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
