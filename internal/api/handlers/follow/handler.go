// Package follow serves follow, unfollow and follow request endpoints.
package follow

import (
	"net/http"

	"Spillit/internal/api/handlers"
	"Spillit/internal/api/middleware"
	"Spillit/internal/core/follows"
	"Spillit/internal/core/users"
	"Spillit/internal/metrics"

	"github.com/go-chi/chi/v5"
)

// Handler serves follow endpoints. Every route requires authentication.
type Handler struct {
	service follows.Service
	metrics *metrics.Metrics
}

// NewHandler creates a new follow handler
func NewHandler(service follows.Service, m *metrics.Metrics) *Handler {
	return &Handler{service: service, metrics: m}
}

// HandleFollow handles POST /api/users/{username}/follow. Following a
// private user creates a pending request.
func (h *Handler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	requester := middleware.GetUserID(r)
	if requester == nil {
		writeAuthRequired(w)
		return
	}

	follow, err := h.service.Follow(r.Context(), *requester, chi.URLParam(r, "username"))
	if err != nil {
		handleServiceError(w, r, h.metrics, err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, follow)
}

// HandleUnfollow handles DELETE /api/users/{username}/follow. It also
// withdraws a pending request.
func (h *Handler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	requester := middleware.GetUserID(r)
	if requester == nil {
		writeAuthRequired(w)
		return
	}

	if err := h.service.Unfollow(r.Context(), *requester, chi.URLParam(r, "username")); err != nil {
		handleServiceError(w, r, h.metrics, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleListRequests handles GET /api/follow-requests
func (h *Handler) HandleListRequests(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r)
	if owner == nil {
		writeAuthRequired(w)
		return
	}

	pending, err := h.service.PendingRequests(r.Context(), *owner)
	if err != nil {
		handleServiceError(w, r, h.metrics, err)
		return
	}
	if pending == nil {
		pending = []*users.User{}
	}

	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": pending})
}

// HandleAcceptRequest handles POST /api/follow-requests/{username}/accept
func (h *Handler) HandleAcceptRequest(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r)
	if owner == nil {
		writeAuthRequired(w)
		return
	}

	follow, err := h.service.AcceptRequest(r.Context(), *owner, chi.URLParam(r, "username"))
	if err != nil {
		handleServiceError(w, r, h.metrics, err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, follow)
}

// HandleDeclineRequest handles DELETE /api/follow-requests/{username}
func (h *Handler) HandleDeclineRequest(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r)
	if owner == nil {
		writeAuthRequired(w)
		return
	}

	if err := h.service.DeclineRequest(r.Context(), *owner, chi.URLParam(r, "username")); err != nil {
		handleServiceError(w, r, h.metrics, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeAuthRequired(w http.ResponseWriter) {
	handlers.WriteError(w, http.StatusUnauthorized, "AuthenticationRequired", "Authentication required")
}
