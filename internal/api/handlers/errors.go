package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"Spillit/internal/core/store"
	"Spillit/internal/core/users"
	"Spillit/internal/core/visibility"
	"Spillit/internal/metrics"
)

// ErrorResponse is the JSON body of every error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a standardized JSON error response
func WriteError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errorType,
		Message: message,
	}); err != nil {
		slog.Warn("failed to encode error response", "error", err)
	}
}

// WriteJSON writes v as a JSON response with the given status
func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent
		slog.Warn("failed to encode response", "error", err)
	}
}

// DecodeJSON reads a size-limited JSON request body into v. It writes the
// error response itself and returns false when the body is unusable.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "RequestTooLarge", "Request body too large")
			return false
		}
		WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return false
	}
	return true
}

// WriteServiceError maps errors shared by every domain to a response:
// visibility denials, missing users, validation and store failures (502).
// Anything else is logged and reported as a 500 without details.
func WriteServiceError(w http.ResponseWriter, r *http.Request, m *metrics.Metrics, err error) {
	var denied *visibility.DeniedError
	switch {
	case errors.As(err, &denied):
		m.ObserveVisibilityDenial(string(denied.Reason))
		if errors.Is(err, visibility.ErrUnauthenticated) {
			WriteError(w, http.StatusUnauthorized, "AuthenticationRequired",
				"Log in to see this account")
			return
		}
		WriteError(w, http.StatusForbidden, "Forbidden", denialMessage(denied.Reason))

	case errors.Is(err, users.ErrUserNotFound):
		WriteError(w, http.StatusNotFound, "UserNotFound", "User not found")

	case users.IsValidationError(err):
		WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())

	case errors.Is(err, users.ErrUsernameTaken):
		WriteError(w, http.StatusConflict, "UsernameTaken", "Username is already taken")

	case errors.Is(err, store.ErrUnavailable):
		slog.Error("store unavailable", "method", r.Method, "path", r.URL.Path, "error", err)
		WriteError(w, http.StatusBadGateway, "StoreUnavailable", "Storage is temporarily unavailable")

	default:
		// Don't leak internal error details to clients
		slog.Error("unexpected handler error", "method", r.Method, "path", r.URL.Path, "error", err)
		WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
	}
}

func denialMessage(reason visibility.Reason) string {
	if reason == visibility.ReasonRequestPending {
		return "Your follow request has not been accepted yet"
	}
	return "This account is private"
}
