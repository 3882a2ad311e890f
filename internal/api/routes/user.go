package routes

import (
	"Spillit/internal/api/handlers/follow"
	"Spillit/internal/api/handlers/post"
	"Spillit/internal/api/handlers/user"
	"Spillit/internal/api/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterUserRoutes registers profile, relationship and per-user post
// endpoints. Reads take optional auth so the visibility decision can see
// the requester.
func RegisterUserRoutes(r chi.Router, users *user.Handler, follows *follow.Handler, posts *post.Handler, authMiddleware *middleware.SessionAuthMiddleware) {
	r.Route("/api/users", func(r chi.Router) {
		// "me" is registered before {username} so it never resolves as a username
		r.With(authMiddleware.RequireAuth).Patch("/me", users.HandleUpdateProfile)

		r.Route("/{username}", func(r chi.Router) {
			r.With(authMiddleware.OptionalAuth).Get("/", users.HandleGetProfile)
			r.With(authMiddleware.OptionalAuth).Get("/posts", posts.HandleListForUser)
			r.With(authMiddleware.OptionalAuth).Get("/followers", users.HandleFollowers)
			r.With(authMiddleware.OptionalAuth).Get("/following", users.HandleFollowing)

			r.With(authMiddleware.RequireAuth).Post("/follow", follows.HandleFollow)
			r.With(authMiddleware.RequireAuth).Delete("/follow", follows.HandleUnfollow)
		})
	})
}
