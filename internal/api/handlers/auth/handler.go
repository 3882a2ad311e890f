// Package auth serves the Google login handoff and the app session endpoints.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"Spillit/internal/api/handlers"
	"Spillit/internal/api/middleware"
	"Spillit/internal/core/headerauth"
	"Spillit/internal/core/identity"
	"Spillit/internal/core/sessions"
	"Spillit/internal/core/users"
	"Spillit/internal/metrics"
)

// Exchanger is the part of identity.Exchanger the handlers use
type Exchanger interface {
	AuthorizationURL(ctx context.Context, redirectURI string) (string, error)
	Exchange(ctx context.Context, code, redirectURI string) (*identity.ExternalIdentity, error)
}

// Handler serves /api/auth
type Handler struct {
	exchanger Exchanger
	sessions  sessions.Service
	metrics   *metrics.Metrics
}

// NewHandler creates a new auth handler. m may be nil.
func NewHandler(exchanger Exchanger, sessionService sessions.Service, m *metrics.Metrics) *Handler {
	return &Handler{
		exchanger: exchanger,
		sessions:  sessionService,
		metrics:   m,
	}
}

// AuthorizationURLResponse is the body of GET /api/auth/google/url
type AuthorizationURLResponse struct {
	URL string `json:"url"`
}

// SessionResponse is returned after login and by GET /api/auth/session.
// Authorization is only set right after login.
type SessionResponse struct {
	ExpiresAt     time.Time   `json:"expiresAt"`
	User          *users.User `json:"user"`
	Authorization string      `json:"authorization,omitempty"`
}

// HandleAuthorizationURL handles GET /api/auth/google/url?redirectUri=
func (h *Handler) HandleAuthorizationURL(w http.ResponseWriter, r *http.Request) {
	redirectURI := r.URL.Query().Get("redirectUri")
	if redirectURI == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "redirectUri parameter is required")
		return
	}

	authURL, err := h.exchanger.AuthorizationURL(r.Context(), redirectURI)
	if err != nil {
		slog.Warn("failed to build authorization url", "redirect_uri", redirectURI, "error", err)
		handleLoginError(w, r, h.metrics, err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, AuthorizationURLResponse{URL: authURL})
}

// HandleCreateSession handles POST /api/auth/google/session. The client
// hands over the provider's authorization code in an APPOAUTH header and gets
// back the APPSESS header value to use from then on.
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	issued, err := h.login(r)
	h.metrics.ObserveLogin(loginResult(err))
	if err != nil {
		handleLoginError(w, r, h.metrics, err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, SessionResponse{
		Authorization: issued.Authorization,
		ExpiresAt:     issued.Session.Expiry,
		User:          issued.User,
	})
}

func (h *Handler) login(r *http.Request) (*sessions.Issued, error) {
	handoff, err := headerauth.ParseOAuthHandoff(r.Header.Get("Authorization"))
	if err != nil {
		slog.Warn("invalid oauth handoff", "remote_addr", r.RemoteAddr, "error", err)
		return nil, err
	}

	ident, err := h.exchanger.Exchange(r.Context(), handoff.Code, handoff.RedirectURI)
	if err != nil {
		slog.Warn("identity exchange failed", "redirect_uri", handoff.RedirectURI, "error", err)
		return nil, err
	}

	issued, err := h.sessions.IssueForIdentity(r.Context(), ident)
	if err != nil {
		slog.Error("session issuance failed", "error", err)
		return nil, err
	}

	slog.Info("user logged in", "user_id", issued.User.ID, "username", issued.User.Username)
	return issued, nil
}

// HandleGetSession handles GET /api/auth/session
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	session := middleware.GetSession(r)
	if user == nil || session == nil {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthenticationRequired", "Authentication required")
		return
	}

	handlers.WriteJSON(w, http.StatusOK, SessionResponse{
		ExpiresAt: session.Expiry,
		User:      user,
	})
}

// HandleDeleteSession handles DELETE /api/auth/session (logout)
func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r)
	if session == nil {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthenticationRequired", "Authentication required")
		return
	}

	if err := h.sessions.Revoke(r.Context(), session.ID); err != nil {
		handlers.WriteServiceError(w, r, h.metrics, err)
		return
	}

	slog.Info("user logged out", "user_id", session.UserID)
	w.WriteHeader(http.StatusNoContent)
}
