package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"Spillit/internal/core/identity"

	"github.com/google/uuid"
)

const (
	// MaxUsernameAttempts bounds the collision repair loop on first login
	MaxUsernameAttempts = 20
	// MaxHandleNameLength is the display name limit in runes
	MaxHandleNameLength = 50

	fallbackUsername  = "user"
	maxUsernameLength = 30
)

var (
	whitespaceRun     = regexp.MustCompile(`\s+`)
	usernameForbidden = regexp.MustCompile(`[^a-z0-9_-]+`)
)

// DeriveUsername turns a display name into a username base: lowercased,
// whitespace runs replaced by "-", anything outside [a-z0-9_-] dropped.
func DeriveUsername(displayName string) string {
	s := strings.ToLower(strings.TrimSpace(displayName))
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = usernameForbidden.ReplaceAllString(s, "")
	if len(s) > maxUsernameLength {
		s = s[:maxUsernameLength]
	}
	s = strings.Trim(s, "-")
	if s == "" {
		return fallbackUsername
	}
	return s
}

type userService struct {
	userRepo UserRepository
	digit    func() int
}

// NewUserService creates a new user service
func NewUserService(userRepo UserRepository) UserService {
	return &userService{
		userRepo: userRepo,
		digit:    func() int { return rand.Intn(10) },
	}
}

// FindOrCreateFromIdentity looks the user up by external id and creates one
// on first login.
func (s *userService) FindOrCreateFromIdentity(ctx context.Context, ident *identity.ExternalIdentity) (*User, error) {
	if ident == nil || ident.ExternalID == "" {
		return nil, NewValidationError("externalId", "external identity is required")
	}

	user, err := s.userRepo.GetByExternalID(ctx, ident.ExternalID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user by external id: %w", err)
	}

	externalID := ident.ExternalID
	base := DeriveUsername(ident.DisplayName)
	candidate := base

	for attempt := 1; attempt <= MaxUsernameAttempts; attempt++ {
		created, err := s.userRepo.Create(ctx, &User{
			ID:         uuid.New(),
			Username:   candidate,
			HandleName: ident.DisplayName,
			AvatarURL:  ident.AvatarURL,
			ExternalID: &externalID,
		})
		switch {
		case err == nil:
			slog.Info("user created", "user_id", created.ID, "username", created.Username, "attempts", attempt)
			return created, nil

		case errors.Is(err, ErrExternalIDTaken):
			// A concurrent first login for the same identity won the insert
			return s.userRepo.GetByExternalID(ctx, externalID)

		case errors.Is(err, ErrUsernameTaken):
			if candidate == base {
				candidate = base + "-"
			}
			candidate += strconv.Itoa(s.digit())

		default:
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	}

	slog.Error("username allocation exhausted", "base", base, "attempts", MaxUsernameAttempts)
	return nil, fmt.Errorf("%w: %q after %d attempts", ErrUsernameAllocationFailed, base, MaxUsernameAttempts)
}

// GetByID retrieves a user by id
func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	if id == uuid.Nil {
		return nil, NewValidationError("id", "user id is required")
	}
	return s.userRepo.GetByID(ctx, id)
}

// GetByUsername retrieves a user by username. Lookups are case-insensitive.
func (s *userService) GetByUsername(ctx context.Context, username string) (*User, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" {
		return nil, NewValidationError("username", "username is required")
	}
	return s.userRepo.GetByUsername(ctx, username)
}

// UpdateProfile validates and applies a partial profile update.
func (s *userService) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*User, error) {
	if update.HandleName != nil {
		name := strings.TrimSpace(*update.HandleName)
		if name == "" {
			return nil, NewValidationError("handleName", "handle name cannot be empty")
		}
		if utf8.RuneCountInString(name) > MaxHandleNameLength {
			return nil, NewValidationError("handleName", fmt.Sprintf("handle name cannot exceed %d characters", MaxHandleNameLength))
		}
		update.HandleName = &name
	}

	if update.AvatarURL != nil {
		u, err := url.Parse(*update.AvatarURL)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return nil, NewValidationError("avatarUrl", "avatar URL must be an absolute http(s) URL")
		}
	}

	if update.Empty() {
		return s.GetByID(ctx, id)
	}
	return s.userRepo.UpdateProfile(ctx, id, update)
}

// IncrementLoginCount bumps the user's login counter
func (s *userService) IncrementLoginCount(ctx context.Context, id uuid.UUID) error {
	return s.userRepo.IncrementLoginCount(ctx, id)
}
