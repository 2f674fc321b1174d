package authn

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/grantd/internal/cache"
	tokens "github.com/dropDatabas3/grantd/internal/security/token"
)

// StateStore issues and redeems the state parameter for federated logins.
// The state is a signed JWT carrying provider, callback URL and a nonce;
// the nonce is also cached (keyed by the hashed state) so a state can be
// redeemed exactly once within its TTL.
type StateStore struct {
	cache  cache.Cache
	secret []byte
	ttl    time.Duration
}

const stateKeyPrefix = "fedstate:"

// NewStateStore creates a StateStore. ttl bounds the whole redirect round
// trip; 10 minutes is a sensible default.
func NewStateStore(c cache.Cache, secret []byte, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateStore{cache: c, secret: secret, ttl: ttl}
}

// Issue signs a state token for the given provider and callback URL.
func (s *StateStore) Issue(provider, callbackURL string) (string, error) {
	nonce, err := tokens.GenerateOpaque(16)
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"prv":   provider,
		"cb":    callbackURL,
		"nonce": nonce,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}
	s.cache.Set(stateKeyPrefix+tokens.SHA256Base64URL(state), []byte(nonce), s.ttl)
	return state, nil
}

// Redeem verifies a state token and consumes its nonce. A state can be
// redeemed once; replays and expired states fail.
func (s *StateStore) Redeem(state string) (provider, callbackURL string, err error) {
	parsed, err := jwt.Parse(state, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return "", "", fmt.Errorf("invalid state token")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("invalid state claims")
	}

	key := stateKeyPrefix + tokens.SHA256Base64URL(state)
	cached, ok := s.cache.Get(key)
	if !ok {
		return "", "", fmt.Errorf("state expired or already used")
	}
	s.cache.Delete(key)

	nonce, _ := claims["nonce"].(string)
	if nonce == "" || nonce != string(cached) {
		return "", "", fmt.Errorf("state nonce mismatch")
	}
	provider, _ = claims["prv"].(string)
	callbackURL, _ = claims["cb"].(string)
	return provider, callbackURL, nil
}
