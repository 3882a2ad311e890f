package identity

import "errors"

// Failure states of the exchange. All of them except ErrRedirectURINotAllowed
// are caused by the identity provider and surface as gateway errors.
var (
	// ErrDiscoveryFailed is returned when the discovery document cannot be
	// fetched or lacks a required endpoint.
	ErrDiscoveryFailed = errors.New("identity provider discovery failed")

	// ErrTokenExchangeFailed is returned when the token endpoint rejects the code
	// or cannot be reached. A redirect URI mismatch lands here too.
	ErrTokenExchangeFailed = errors.New("token exchange failed")

	// ErrUnexpectedTokenResponse is returned when the token endpoint answers
	// with a token set that does not have the expected shape.
	ErrUnexpectedTokenResponse = errors.New("unexpected token response")

	// ErrInvalidIdentityToken is returned when the ID token signature, issuer,
	// audience or lifetime cannot be verified.
	ErrInvalidIdentityToken = errors.New("invalid identity token")

	// ErrUnexpectedClaims is returned when a verified ID token lacks sub, name or picture.
	ErrUnexpectedClaims = errors.New("unexpected identity token claims")

	// ErrRedirectURINotAllowed is returned when the caller asks for a redirect
	// URI that is not on the configured allow-list.
	ErrRedirectURINotAllowed = errors.New("redirect URI not allowed")
)

// IsUpstreamError reports whether err was caused by the identity provider.
func IsUpstreamError(err error) bool {
	return errors.Is(err, ErrDiscoveryFailed) ||
		errors.Is(err, ErrTokenExchangeFailed) ||
		errors.Is(err, ErrUnexpectedTokenResponse) ||
		errors.Is(err, ErrInvalidIdentityToken) ||
		errors.Is(err, ErrUnexpectedClaims)
}
