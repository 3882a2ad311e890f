package post

import (
	"errors"
	"net/http"

	"Spillit/internal/api/handlers"
	"Spillit/internal/core/posts"
	"Spillit/internal/metrics"
)

// handleServiceError maps post service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, r *http.Request, m *metrics.Metrics, err error) {
	switch {
	case errors.Is(err, posts.ErrNotFound):
		handlers.WriteError(w, http.StatusNotFound, "PostNotFound", "Post not found")

	case errors.Is(err, posts.ErrNotAuthor):
		handlers.WriteError(w, http.StatusForbidden, "NotAuthor", "Only the author can delete this post")

	case errors.Is(err, posts.ErrInvalidCursor):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidCursor", "Invalid pagination cursor")

	case posts.IsValidationError(err):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())

	default:
		handlers.WriteServiceError(w, r, m, err)
	}
}
