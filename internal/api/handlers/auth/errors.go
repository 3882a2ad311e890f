package auth

import (
	"errors"
	"net/http"

	"Spillit/internal/api/handlers"
	"Spillit/internal/core/headerauth"
	"Spillit/internal/core/identity"
	"Spillit/internal/core/sessions"
	"Spillit/internal/core/users"
	"Spillit/internal/metrics"
)

// loginResult classifies a login failure for the logins_total counter
func loginResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case headerauth.IsProtocolError(err):
		return "protocol_error"
	case errors.Is(err, identity.ErrRedirectURINotAllowed):
		return "redirect_not_allowed"
	case identity.IsUpstreamError(err):
		return "provider_error"
	case errors.Is(err, sessions.ErrStoreUnavailable):
		return "store_error"
	default:
		return "internal_error"
	}
}

// handleLoginError maps identity exchange and session issuance errors to
// HTTP responses
func handleLoginError(w http.ResponseWriter, r *http.Request, m *metrics.Metrics, err error) {
	switch {
	case headerauth.IsProtocolError(err):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidAuthorization",
			"Authorization header must be an APPOAUTH credential")

	case errors.Is(err, identity.ErrRedirectURINotAllowed):
		handlers.WriteError(w, http.StatusBadRequest, "RedirectURINotAllowed",
			"Redirect URI is not allowed")

	case errors.Is(err, identity.ErrTokenExchangeFailed):
		handlers.WriteError(w, http.StatusBadGateway, "TokenExchangeFailed",
			"The identity provider rejected the authorization code; please log in again")

	case identity.IsUpstreamError(err):
		handlers.WriteError(w, http.StatusBadGateway, "IdentityProviderError",
			"The identity provider returned an unexpected response")

	case errors.Is(err, users.ErrUsernameAllocationFailed):
		handlers.WriteError(w, http.StatusInternalServerError, "UsernameAllocationFailed",
			"Could not allocate a username; please try again")

	case errors.Is(err, sessions.ErrInvariantViolation):
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError",
			"An internal error occurred")

	default:
		handlers.WriteServiceError(w, r, m, err)
	}
}
