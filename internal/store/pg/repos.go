package pg

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dropDatabas3/grantd/internal/domain"
	"github.com/dropDatabas3/grantd/internal/domain/repository"
)

type clientRepo struct{ q querier }

func (r clientRepo) Get(ctx context.Context, id string) (*domain.Client, error) {
	const q = `
		SELECT id, application_id, name, type, secret, redirect_uris,
		       access_token_ttl, refresh_token_ttl, auth_code_ttl
		FROM clients WHERE id = $1`
	var c domain.Client
	var typ string
	err := r.q.QueryRow(ctx, q, id).Scan(
		&c.ID, &c.ApplicationID, &c.Name, &typ, &c.Secret, &c.RedirectURIs,
		&c.AccessTokenTTL, &c.RefreshTokenTTL, &c.AuthCodeTTL,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	c.Type = domain.ClientType(typ)

	const qa = `SELECT kind, params FROM authenticator_configs WHERE client_id = $1`
	rows, err := r.q.Query(ctx, qa, id)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var raw []byte
		if err := rows.Scan(&kind, &raw); err != nil {
			return nil, err
		}
		cfg := domain.AuthenticatorConfig{ClientID: id, Kind: domain.AuthenticatorKind(kind)}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &cfg.Params); err != nil {
				return nil, err
			}
		}
		c.Authenticators = append(c.Authenticators, cfg)
	}
	return &c, rows.Err()
}

func (r clientRepo) Create(ctx context.Context, c *domain.Client) error {
	const q = `
		INSERT INTO clients (id, application_id, name, type, secret, redirect_uris,
		                     access_token_ttl, refresh_token_ttl, auth_code_ttl)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, q, c.ID, c.ApplicationID, c.Name, string(c.Type), c.Secret,
		c.RedirectURIs, c.AccessTokenTTL, c.RefreshTokenTTL, c.AuthCodeTTL)
	if err != nil {
		return mapErr(err)
	}
	const qa = `INSERT INTO authenticator_configs (client_id, kind, params) VALUES ($1, $2, $3)`
	for _, a := range c.Authenticators {
		params := a.Params
		if params == nil {
			params = map[string]string{}
		}
		raw, err := json.Marshal(params)
		if err != nil {
			return err
		}
		if _, err := r.q.Exec(ctx, qa, c.ID, string(a.Kind), raw); err != nil {
			return mapErr(err)
		}
	}
	return nil
}

type appRepo struct{ q querier }

func (r appRepo) Get(ctx context.Context, id string) (*domain.Application, error) {
	const q = `SELECT id, name, default_role_id FROM applications WHERE id = $1`
	var a domain.Application
	if err := r.q.QueryRow(ctx, q, id).Scan(&a.ID, &a.Name, &a.DefaultRoleID); err != nil {
		return nil, mapErr(err)
	}
	scopes, err := loadScopes(ctx, r.q,
		`SELECT application_id, name, description FROM application_scopes WHERE application_id = $1`, id)
	if err != nil {
		return nil, err
	}
	a.Scopes = scopes
	return &a, nil
}

func (r appRepo) Create(ctx context.Context, a *domain.Application) error {
	const q = `INSERT INTO applications (id, name, default_role_id) VALUES ($1, $2, $3)`
	if _, err := r.q.Exec(ctx, q, a.ID, a.Name, a.DefaultRoleID); err != nil {
		return mapErr(err)
	}
	const qs = `INSERT INTO application_scopes (application_id, name, description) VALUES ($1, $2, $3)`
	for _, sc := range a.Scopes {
		if _, err := r.q.Exec(ctx, qs, a.ID, sc.Name, sc.Description); err != nil {
			return mapErr(err)
		}
	}
	return nil
}

type roleRepo struct{ q querier }

func (r roleRepo) Get(ctx context.Context, id string) (*domain.Role, error) {
	const q = `SELECT id, application_id, name FROM roles WHERE id = $1`
	var role domain.Role
	if err := r.q.QueryRow(ctx, q, id).Scan(&role.ID, &role.ApplicationID, &role.Name); err != nil {
		return nil, mapErr(err)
	}
	scopes, err := loadScopes(ctx, r.q, `
		SELECT s.application_id, s.name, s.description
		FROM role_scopes rs
		JOIN roles ro ON ro.id = rs.role_id
		JOIN application_scopes s ON s.application_id = ro.application_id AND s.name = rs.scope_name
		WHERE rs.role_id = $1`, id)
	if err != nil {
		return nil, err
	}
	role.Scopes = scopes
	return &role, nil
}

func (r roleRepo) Create(ctx context.Context, role *domain.Role) error {
	const q = `INSERT INTO roles (id, application_id, name) VALUES ($1, $2, $3)`
	if _, err := r.q.Exec(ctx, q, role.ID, role.ApplicationID, role.Name); err != nil {
		return mapErr(err)
	}
	const qs = `INSERT INTO role_scopes (role_id, scope_name) VALUES ($1, $2)`
	for name := range role.Scopes {
		if _, err := r.q.Exec(ctx, qs, role.ID, name); err != nil {
			return mapErr(err)
		}
	}
	return nil
}

func loadScopes(ctx context.Context, q querier, sql, arg string) (domain.ScopeSet, error) {
	rows, err := q.Query(ctx, sql, arg)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	out := make(domain.ScopeSet)
	for rows.Next() {
		var sc domain.ApplicationScope
		if err := rows.Scan(&sc.ApplicationID, &sc.Name, &sc.Description); err != nil {
			return nil, err
		}
		out[sc.Name] = sc
	}
	return out, rows.Err()
}

type userRepo struct{ q querier }

func (r userRepo) Get(ctx context.Context, id string) (*domain.User, error) {
	const q = `SELECT id, application_id, role_id, email, name, created_at FROM users WHERE id = $1`
	var u domain.User
	err := r.q.QueryRow(ctx, q, id).Scan(&u.ID, &u.ApplicationID, &u.RoleID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r userRepo) Create(ctx context.Context, u *domain.User) error {
	const q = `INSERT INTO users (id, application_id, role_id, email, name, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.q.Exec(ctx, q, u.ID, u.ApplicationID, u.RoleID, u.Email, u.Name, created)
	return mapErr(err)
}

type identityRepo struct{ q querier }

const identityCols = `id, user_id, application_id, kind, remote_id, password_hash, password_salt, created_at`

func scanIdentity(row interface{ Scan(...any) error }) (*domain.UserIdentity, error) {
	var ident domain.UserIdentity
	var kind string
	err := row.Scan(&ident.ID, &ident.UserID, &ident.ApplicationID, &kind,
		&ident.RemoteID, &ident.PasswordHash, &ident.PasswordSalt, &ident.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	ident.Kind = domain.AuthenticatorKind(kind)
	return &ident, nil
}

func (r identityRepo) Get(ctx context.Context, id string) (*domain.UserIdentity, error) {
	const q = `SELECT ` + identityCols + ` FROM user_identities WHERE id = $1`
	return scanIdentity(r.q.QueryRow(ctx, q, id))
}

func (r identityRepo) GetByRemote(ctx context.Context, applicationID string, kind domain.AuthenticatorKind, remoteID string) (*domain.UserIdentity, error) {
	const q = `SELECT ` + identityCols + ` FROM user_identities
		WHERE application_id = $1 AND kind = $2 AND remote_id = $3`
	return scanIdentity(r.q.QueryRow(ctx, q, applicationID, string(kind), remoteID))
}

func (r identityRepo) Create(ctx context.Context, ident *domain.UserIdentity) error {
	const q = `
		INSERT INTO user_identities (id, user_id, application_id, kind, remote_id, password_hash, password_salt, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	created := ident.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.q.Exec(ctx, q, ident.ID, ident.UserID, ident.ApplicationID, string(ident.Kind),
		ident.RemoteID, ident.PasswordHash, ident.PasswordSalt, created)
	return mapErr(err)
}

type tokenRepo struct{ q querier }

func (r tokenRepo) Get(ctx context.Context, id string) (*domain.OAuthToken, error) {
	const q = `
		SELECT id, kind, client_id, identity_id, scopes, expires_in, created_at, paired_id, redirect_uri
		FROM oauth_tokens WHERE id = $1`
	var t domain.OAuthToken
	var kind string
	var names []string
	err := r.q.QueryRow(ctx, q, id).Scan(
		&t.ID, &kind, &t.ClientID, &t.IdentityID, &names,
		&t.ExpiresIn, &t.CreatedAt, &t.PairedID, &t.RedirectURI,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	t.Kind = domain.TokenKind(kind)
	t.Scopes = make(domain.ScopeSet, len(names))
	for _, name := range names {
		t.Scopes[name] = domain.ApplicationScope{Name: name}
	}
	return &t, nil
}

func (r tokenRepo) Create(ctx context.Context, t *domain.OAuthToken) error {
	const q = `
		INSERT INTO oauth_tokens (id, kind, client_id, identity_id, scopes, expires_in, created_at, paired_id, redirect_uri)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, q, t.ID, string(t.Kind), t.ClientID, t.IdentityID,
		t.Scopes.Names(), t.ExpiresIn, t.CreatedAt, t.PairedID, t.RedirectURI)
	return mapErr(err)
}

// Delete reports ErrNotFound when no row was removed, which is what makes
// rotation and code exchange single-use under concurrency.
func (r tokenRepo) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM oauth_tokens WHERE id = $1`
	ct, err := r.q.Exec(ctx, q, id)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r tokenRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	const q = `DELETE FROM oauth_tokens WHERE created_at + make_interval(secs => expires_in) < $1`
	ct, err := r.q.Exec(ctx, q, cutoff)
	if err != nil {
		return 0, mapErr(err)
	}
	return int(ct.RowsAffected()), nil
}
