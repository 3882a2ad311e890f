// Package routes wires handlers onto the chi router.
package routes

import (
	"net/http"

	"Spillit/internal/api/handlers/auth"
	"Spillit/internal/api/handlers/follow"
	"Spillit/internal/api/handlers/post"
	"Spillit/internal/api/handlers/user"
	"Spillit/internal/api/middleware"
	"Spillit/internal/core/follows"
	"Spillit/internal/core/posts"
	"Spillit/internal/core/sessions"
	"Spillit/internal/core/users"
	"Spillit/internal/metrics"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Dependencies are the services the API is built from
type Dependencies struct {
	Exchanger      auth.Exchanger
	Sessions       sessions.Service
	Users          users.UserService
	Follows        follows.Service
	Posts          posts.Service
	Metrics        *metrics.Metrics
	AllowedOrigins []string
}

// NewRouter builds the full HTTP surface
func NewRouter(deps Dependencies) chi.Router {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware(deps.AllowedOrigins))

	authMiddleware := middleware.NewSessionAuthMiddleware(deps.Sessions, deps.Metrics)

	followHandler := follow.NewHandler(deps.Follows, deps.Metrics)
	postHandler := post.NewHandler(deps.Posts, deps.Metrics)

	RegisterAuthRoutes(r, auth.NewHandler(deps.Exchanger, deps.Sessions, deps.Metrics), authMiddleware)
	RegisterUserRoutes(r, user.NewHandler(deps.Users, deps.Follows, deps.Metrics), followHandler, postHandler, authMiddleware)
	RegisterFollowRequestRoutes(r, followHandler, authMiddleware)
	RegisterPostRoutes(r, postHandler, authMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	return r
}

// corsMiddleware allows the SPA origins to call the API with an
// Authorization header. No cookies are involved, so credentials stay off.
func corsMiddleware(allowedOrigins []string) func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
		},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	})
}
