package routes

import (
	"Spillit/internal/api/handlers/auth"
	"Spillit/internal/api/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterAuthRoutes registers the Google login handoff and session endpoints
func RegisterAuthRoutes(r chi.Router, h *auth.Handler, authMiddleware *middleware.SessionAuthMiddleware) {
	// Login: the SPA asks for the consent URL, then trades the code for a session
	r.Get("/api/auth/google/url", h.HandleAuthorizationURL)
	r.Post("/api/auth/google/session", h.HandleCreateSession)

	r.With(authMiddleware.RequireAuth).Get("/api/auth/session", h.HandleGetSession)
	r.With(authMiddleware.RequireAuth).Delete("/api/auth/session", h.HandleDeleteSession)
}
