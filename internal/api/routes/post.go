package routes

import (
	"Spillit/internal/api/handlers/post"
	"Spillit/internal/api/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterPostRoutes registers post write endpoints. Listing lives under
// /api/users/{username}/posts.
func RegisterPostRoutes(r chi.Router, h *post.Handler, authMiddleware *middleware.SessionAuthMiddleware) {
	r.With(authMiddleware.RequireAuth).Post("/api/posts", h.HandleCreate)
	r.With(authMiddleware.RequireAuth).Delete("/api/posts/{id}", h.HandleDelete)
}
