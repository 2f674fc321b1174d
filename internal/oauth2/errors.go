package oauth2

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dropDatabas3/grantd/internal/authn"
)

// ErrorKind enumerates the RFC6749-aligned failure taxonomy. Every kind maps
// to a fixed wire code and HTTP status; the boundary layer translates, the
// core only returns *Error values.
type ErrorKind int

const (
	KindInvalidRequest ErrorKind = iota + 1
	KindInvalidClient
	KindInvalidGrant
	KindInvalidScope
	KindUnauthorizedClient
	KindUnsupportedGrantType
	KindAccessDenied

	// KindAuthenticationFailed is deliberately outside the RFC codes: a
	// password-grant credential mismatch surfaces as a bare 401 with no
	// body, so callers cannot tell which check failed.
	KindAuthenticationFailed

	KindServerError
	KindServiceUnavailable
)

// Code returns the wire `error` value for the kind.
func (k ErrorKind) Code() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindInvalidClient:
		return "invalid_client"
	case KindInvalidGrant:
		return "invalid_grant"
	case KindInvalidScope:
		return "invalid_scope"
	case KindUnauthorizedClient:
		return "unauthorized_client"
	case KindUnsupportedGrantType:
		return "unsupported_grant_type"
	case KindAccessDenied:
		return "access_denied"
	case KindAuthenticationFailed:
		return "unauthorized"
	case KindServiceUnavailable:
		return "temporarily_unavailable"
	default:
		return "server_error"
	}
}

// Status returns the fixed HTTP status for the kind.
func (k ErrorKind) Status() int {
	switch k {
	case KindInvalidRequest, KindInvalidGrant, KindInvalidScope,
		KindUnauthorizedClient, KindUnsupportedGrantType:
		return http.StatusBadRequest
	case KindInvalidClient, KindAuthenticationFailed:
		return http.StatusUnauthorized
	case KindAccessDenied:
		return http.StatusForbidden
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is the result value carried up from the grant engine in place of
// exceptions. Description is safe for the wire; cause is internal only.
type Error struct {
	Kind        ErrorKind
	Description string
	cause       error
}

func (e *Error) Error() string {
	if e.Description == "" {
		return e.Kind.Code()
	}
	return e.Kind.Code() + ": " + e.Description
}

func (e *Error) Unwrap() error { return e.cause }

// E builds a taxonomy error.
func E(kind ErrorKind, desc string) *Error {
	return &Error{Kind: kind, Description: desc}
}

// Wrap builds a taxonomy error keeping the underlying cause for logs.
func Wrap(kind ErrorKind, desc string, cause error) *Error {
	return &Error{Kind: kind, Description: desc, cause: cause}
}

// ThirdPartyError builds the 503-class error for a federated IdP failure,
// carrying the provider's error code/description when available.
func ThirdPartyError(provider, code, desc string) *Error {
	msg := fmt.Sprintf("identity provider %s unavailable", provider)
	if code != "" {
		msg = fmt.Sprintf("identity provider %s: %s", provider, code)
		if desc != "" {
			msg += " (" + desc + ")"
		}
	}
	return &Error{Kind: KindServiceUnavailable, Description: msg}
}

// As extracts an *Error, translating the authn package's failures into the
// taxonomy and mapping anything unrecognized to server_error so storage
// faults and panics never leak internals onto the wire.
func As(err error) *Error {
	var oe *Error
	if errors.As(err, &oe) {
		return oe
	}
	var pe *authn.ProviderError
	if errors.As(err, &pe) {
		return ThirdPartyError(pe.Provider, pe.Code, pe.Description)
	}
	if errors.Is(err, authn.ErrInvalidState) {
		return E(KindAccessDenied, "invalid or expired state")
	}
	if errors.Is(err, authn.ErrMissingCode) {
		return E(KindInvalidRequest, "missing authorization code")
	}
	return &Error{Kind: KindServerError, Description: "internal error", cause: err}
}

// IsKind reports whether err is a taxonomy error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var oe *Error
	return errors.As(err, &oe) && oe.Kind == kind
}
