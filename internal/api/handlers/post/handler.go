// Package post serves post creation, deletion and per-user listings.
package post

import (
	"net/http"
	"strconv"

	"Spillit/internal/api/handlers"
	"Spillit/internal/api/middleware"
	"Spillit/internal/core/posts"
	"Spillit/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Handler serves post endpoints
type Handler struct {
	service posts.Service
	metrics *metrics.Metrics
}

// NewHandler creates a new post handler
func NewHandler(service posts.Service, m *metrics.Metrics) *Handler {
	return &Handler{service: service, metrics: m}
}

// CreateRequest is the body of POST /api/posts
type CreateRequest struct {
	Content string `json:"content"`
}

// HandleCreate handles POST /api/posts
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	author := middleware.GetUserID(r)
	if author == nil {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthenticationRequired", "Authentication required")
		return
	}

	var req CreateRequest
	if !handlers.DecodeJSON(w, r, &req) {
		return
	}

	post, err := h.service.Create(r.Context(), *author, req.Content)
	if err != nil {
		handleServiceError(w, r, h.metrics, err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, post)
}

// HandleDelete handles DELETE /api/posts/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	requester := middleware.GetUserID(r)
	if requester == nil {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthenticationRequired", "Authentication required")
		return
	}

	postID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Post id must be a UUID")
		return
	}

	if err := h.service.Delete(r.Context(), *requester, postID); err != nil {
		handleServiceError(w, r, h.metrics, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleListForUser handles GET /api/users/{username}/posts?limit=&cursor=
func (h *Handler) HandleListForUser(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "limit must be a positive integer")
			return
		}
		limit = n
	}

	var cursor *string
	if raw := query.Get("cursor"); raw != "" {
		cursor = &raw
	}

	page, err := h.service.ListForUser(r.Context(), middleware.GetUserID(r), chi.URLParam(r, "username"), limit, cursor)
	if err != nil {
		handleServiceError(w, r, h.metrics, err)
		return
	}
	if page.Posts == nil {
		page.Posts = []*posts.Post{}
	}

	handlers.WriteJSON(w, http.StatusOK, page)
}
