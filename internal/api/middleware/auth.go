package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"Spillit/internal/core/sessions"
	"Spillit/internal/core/users"
	"Spillit/internal/metrics"

	"github.com/google/uuid"
)

// Context keys for storing the authenticated user
type contextKey string

const (
	UserKey    contextKey = "user"
	SessionKey contextKey = "session"
)

// SessionResolver authenticates an APPSESS header value
type SessionResolver interface {
	ResolveFromHeaderAuth(ctx context.Context, value string) (*users.User, *sessions.Session, error)
}

// SessionAuthMiddleware authenticates requests carrying an app session in
// the Authorization header.
type SessionAuthMiddleware struct {
	resolver SessionResolver
	metrics  *metrics.Metrics
}

// NewSessionAuthMiddleware creates a new session auth middleware. m may be nil.
func NewSessionAuthMiddleware(resolver SessionResolver, m *metrics.Metrics) *SessionAuthMiddleware {
	return &SessionAuthMiddleware{resolver: resolver, metrics: m}
}

// authenticate resolves the header and, on failure, writes the response.
// It returns ok=false when the request must stop.
func (m *SessionAuthMiddleware) authenticate(w http.ResponseWriter, r *http.Request, header string) (context.Context, bool) {
	user, session, err := m.resolver.ResolveFromHeaderAuth(r.Context(), header)
	if err != nil {
		if errors.Is(err, sessions.ErrStoreUnavailable) {
			m.metrics.ObserveSessionAuth("store_error")
			slog.Error("session store unavailable", "path", r.URL.Path, "error", err)
			writeJSONError(w, http.StatusBadGateway, "StoreUnavailable", "Session store unavailable")
			return nil, false
		}
		// The cause stays in the server log; every failure looks the same to the client
		m.metrics.ObserveSessionAuth("unauthorized")
		slog.Warn("session authentication failed",
			"remote_addr", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "error", err)
		writeAuthError(w, "Invalid or expired session")
		return nil, false
	}

	m.metrics.ObserveSessionAuth("success")
	ctx := context.WithValue(r.Context(), UserKey, user)
	ctx = context.WithValue(ctx, SessionKey, session)
	return ctx, true
}

// RequireAuth middleware ensures the request carries a valid session.
// If not authenticated, returns 401.
func (m *SessionAuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeAuthError(w, "Missing Authorization header")
			return
		}

		ctx, ok := m.authenticate(w, r, header)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth loads the user if a session is presented. Requests without an
// Authorization header continue anonymously; a presented but invalid session
// is rejected like in RequireAuth.
func (m *SessionAuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx, ok := m.authenticate(w, r, header)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUser returns the authenticated user, or nil for anonymous requests
func GetUser(r *http.Request) *users.User {
	user, _ := r.Context().Value(UserKey).(*users.User)
	return user
}

// GetUserID returns the authenticated user's id, or nil for anonymous requests
func GetUserID(r *http.Request) *uuid.UUID {
	if user := GetUser(r); user != nil {
		id := user.ID
		return &id
	}
	return nil
}

// GetSession returns the session the request was authenticated with
func GetSession(r *http.Request) *sessions.Session {
	session, _ := r.Context().Value(SessionKey).(*sessions.Session)
	return session
}

// SetTestUser puts a user and session in the context.
// This function should ONLY be used in tests.
func SetTestUser(ctx context.Context, user *users.User, session *sessions.Session) context.Context {
	ctx = context.WithValue(ctx, UserKey, user)
	return context.WithValue(ctx, SessionKey, session)
}

// writeAuthError writes a JSON error response for authentication failures
func writeAuthError(w http.ResponseWriter, message string) {
	writeJSONError(w, http.StatusUnauthorized, "AuthenticationRequired", message)
}

func writeJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error":   errorType,
		"message": message,
	}); err != nil {
		slog.Warn("failed to write auth error response", "error", err)
	}
}
