package domain

import "sort"

// ApplicationScope is a named permission unit owned by an Application.
type ApplicationScope struct {
	ID            string
	ApplicationID string
	Name          string
	Description   string
}

// ScopeSet maps scope name to its ApplicationScope record. Granted scopes,
// role scopes and application scopes all share this shape.
type ScopeSet map[string]ApplicationScope

// Names returns the scope names in the set, sorted for stable output.
func (s ScopeSet) Names() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Clone returns a shallow copy of the set.
func (s ScopeSet) Clone() ScopeSet {
	out := make(ScopeSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Application owns the scope catalog and the default role assigned to users
// provisioned on the fly (test and federated authenticators).
type Application struct {
	ID            string
	Name          string
	Scopes        ScopeSet
	DefaultRoleID string
}

// Role is a named set of permitted scopes attached to a User.
type Role struct {
	ID            string
	ApplicationID string
	Name          string
	Scopes        ScopeSet
}
