package routes

import (
	"Spillit/internal/api/handlers/follow"
	"Spillit/internal/api/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterFollowRequestRoutes registers the pending follow request endpoints
// of the authenticated user
func RegisterFollowRequestRoutes(r chi.Router, h *follow.Handler, authMiddleware *middleware.SessionAuthMiddleware) {
	r.Route("/api/follow-requests", func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Get("/", h.HandleListRequests)
		r.Post("/{username}/accept", h.HandleAcceptRequest)
		r.Delete("/{username}", h.HandleDeclineRequest)
	})
}
