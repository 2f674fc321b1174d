package domain

import "time"

// User is an end user of an Application. A user carries exactly one Role and
// one or more identities (one per authenticator kind).
type User struct {
	ID            string
	ApplicationID string
	RoleID        string
	Email         string
	Name          string
	CreatedAt     time.Time
}

// UserIdentity links a User to an authenticator. RemoteID is the username for
// the password kind and the provider's subject id for federated kinds.
type UserIdentity struct {
	ID            string
	UserID        string
	ApplicationID string
	Kind          AuthenticatorKind
	RemoteID      string

	// Set only for the password kind.
	PasswordHash string
	PasswordSalt string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OAuth2User is the normalized federated-identity record built from a
// provider's userinfo response. Transient: it is mapped onto a UserIdentity
// and never persisted as-is.
type OAuth2User struct {
	ExternalID string
	Claims     map[string]string
}

// Claim returns a claim value or "" when absent.
func (u *OAuth2User) Claim(name string) string {
	if u == nil || u.Claims == nil {
		return ""
	}
	return u.Claims[name]
}
