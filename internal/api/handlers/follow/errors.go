package follow

import (
	"errors"
	"net/http"

	"Spillit/internal/api/handlers"
	"Spillit/internal/core/follows"
	"Spillit/internal/metrics"
)

// handleServiceError maps follow service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, r *http.Request, m *metrics.Metrics, err error) {
	switch {
	case errors.Is(err, follows.ErrCannotFollowSelf):
		handlers.WriteError(w, http.StatusBadRequest, "CannotFollowSelf", "You cannot follow yourself")

	case errors.Is(err, follows.ErrFollowAlreadyExists):
		handlers.WriteError(w, http.StatusConflict, "AlreadyFollowing",
			"You already follow or have requested to follow this user")

	case errors.Is(err, follows.ErrFollowNotFound):
		handlers.WriteError(w, http.StatusNotFound, "FollowNotFound", "Follow not found")

	default:
		handlers.WriteServiceError(w, r, m, err)
	}
}
