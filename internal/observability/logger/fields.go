package logger

import (
	"time"

	"go.uber.org/zap"
)

// HTTP fields.

// RequestID creates a field for the request id.
func RequestID(v string) zap.Field { return zap.String("request_id", v) }

// Method creates a field for the HTTP method.
func Method(v string) zap.Field { return zap.String("method", v) }

// Path creates a field for the request path.
func Path(v string) zap.Field { return zap.String("path", v) }

// Status creates a field for the HTTP status code.
func Status(v int) zap.Field { return zap.Int("status", v) }

// DurationMs creates a field for elapsed milliseconds.
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }

// Duration creates a field for an elapsed duration.
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

// Bytes creates a field for response bytes written.
func Bytes(v int) zap.Field { return zap.Int("bytes", v) }

// Domain fields.

// ClientID creates a field for the OAuth client id.
func ClientID(v string) zap.Field { return zap.String("client_id", v) }

// UserID creates a field for the user id.
func UserID(v string) zap.Field { return zap.String("user_id", v) }

// IdentityID creates a field for the user identity id.
func IdentityID(v string) zap.Field { return zap.String("identity_id", v) }

// GrantType creates a field for the grant_type request parameter.
func GrantType(v string) zap.Field { return zap.String("grant_type", v) }

// TokenID creates a field for a token id.
func TokenID(v string) zap.Field { return zap.String("token_id", v) }

// Scope creates a field for a space-joined scope string.
func Scope(v string) zap.Field { return zap.String("scope", v) }

// Provider creates a field for a federated IdP name.
func Provider(v string) zap.Field { return zap.String("provider", v) }

// System fields.

// Component creates a field for the component/module name.
func Component(v string) zap.Field { return zap.String("component", v) }

// Op creates a field for the current operation.
func Op(v string) zap.Field { return zap.String("op", v) }

// Layer creates a field for the layer (handler, service, repository, task).
func Layer(v string) zap.Field { return zap.String("layer", v) }

// Err creates a field for an error.
func Err(err error) zap.Field { return zap.Error(err) }

// Generic fields.

// Count creates a field for a count.
func Count(v int) zap.Field { return zap.Int("count", v) }

// String creates a generic string field.
func String(key, v string) zap.Field { return zap.String(key, v) }

// Int creates a generic int field.
func Int(key string, v int) zap.Field { return zap.Int(key, v) }

// Bool creates a generic bool field.
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }

// Any creates a generic field for any value.
func Any(key string, v any) zap.Field { return zap.Any(key, v) }
