// Package user serves profiles and follower lists.
package user

import (
	"log/slog"
	"net/http"

	"Spillit/internal/api/handlers"
	"Spillit/internal/api/middleware"
	"Spillit/internal/core/follows"
	"Spillit/internal/core/users"
	"Spillit/internal/core/visibility"
	"Spillit/internal/metrics"

	"github.com/go-chi/chi/v5"
)

// Handler serves /api/users
type Handler struct {
	userService   users.UserService
	followService follows.Service
	metrics       *metrics.Metrics
}

// NewHandler creates a new user handler
func NewHandler(userService users.UserService, followService follows.Service, m *metrics.Metrics) *Handler {
	return &Handler{
		userService:   userService,
		followService: followService,
		metrics:       m,
	}
}

// ProfileResponse is a public profile. The relationship flags are only set
// for an authenticated requester looking at someone else.
type ProfileResponse struct {
	*users.User
	IsFollowing *bool `json:"isFollowing,omitempty"`
	IsPending   *bool `json:"isPending,omitempty"`
}

// UserListResponse wraps a list of users
type UserListResponse struct {
	Users []*users.User `json:"users"`
}

// HandleGetProfile handles GET /api/users/{username}. Profiles are visible
// to everyone, private or not.
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, err := h.userService.GetByUsername(ctx, chi.URLParam(r, "username"))
	if err != nil {
		handleServiceError(w, r, h.metrics, err)
		return
	}

	resp := ProfileResponse{User: owner}

	if requester := middleware.GetUserID(r); requester != nil && *requester != owner.ID {
		state, err := h.followService.FollowState(ctx, *requester, owner.ID)
		if err != nil {
			slog.Error("failed to look up follow state", "requester", *requester, "owner", owner.ID, "error", err)
			handleServiceError(w, r, h.metrics, err)
			return
		}
		following := state == visibility.Accepted
		pending := state == visibility.Pending
		resp.IsFollowing = &following
		resp.IsPending = &pending
	}

	handlers.WriteJSON(w, http.StatusOK, resp)
}

// HandleUpdateProfile handles PATCH /api/users/me
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == nil {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthenticationRequired", "Authentication required")
		return
	}

	var update users.ProfileUpdate
	if !handlers.DecodeJSON(w, r, &update) {
		return
	}

	updated, err := h.userService.UpdateProfile(r.Context(), *userID, update)
	if err != nil {
		handleServiceError(w, r, h.metrics, err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, updated)
}

// HandleFollowers handles GET /api/users/{username}/followers
func (h *Handler) HandleFollowers(w http.ResponseWriter, r *http.Request) {
	list, err := h.followService.Followers(r.Context(), middleware.GetUserID(r), chi.URLParam(r, "username"))
	if err != nil {
		handleServiceError(w, r, h.metrics, err)
		return
	}
	writeUsers(w, list)
}

// HandleFollowing handles GET /api/users/{username}/following
func (h *Handler) HandleFollowing(w http.ResponseWriter, r *http.Request) {
	list, err := h.followService.Following(r.Context(), middleware.GetUserID(r), chi.URLParam(r, "username"))
	if err != nil {
		handleServiceError(w, r, h.metrics, err)
		return
	}
	writeUsers(w, list)
}

func writeUsers(w http.ResponseWriter, list []*users.User) {
	if list == nil {
		list = []*users.User{}
	}
	handlers.WriteJSON(w, http.StatusOK, UserListResponse{Users: list})
}
