package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"Spillit/internal/core/headerauth"
	"Spillit/internal/core/identity"
	"Spillit/internal/core/signing"
	"Spillit/internal/core/users"

	"github.com/google/uuid"
)

// Option configures the session service
type Option func(*sessionService)

// WithClock replaces time.Now. Tests use it to pin issuance and expiry.
func WithClock(now func() time.Time) Option {
	return func(s *sessionService) { s.now = now }
}

// WithTTL overrides the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *sessionService) { s.ttl = ttl }
}

type sessionService struct {
	repo        SessionRepository
	userService users.UserService
	signer      *signing.Signer
	now         func() time.Time
	ttl         time.Duration
}

// NewService creates a session service. signer holds the server secret that
// signs session ids.
func NewService(repo SessionRepository, userService users.UserService, signer *signing.Signer, opts ...Option) Service {
	s := &sessionService{
		repo:        repo,
		userService: userService,
		signer:      signer,
		now:         time.Now,
		ttl:         TTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Postgres keeps microseconds; issuing at that precision makes the stored
// expiry equal the computed one.
func (s *sessionService) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// IssueForIdentity finds or creates the user, reuses their live session or
// creates one, signs it and counts the login.
func (s *sessionService) IssueForIdentity(ctx context.Context, ident *identity.ExternalIdentity) (*Issued, error) {
	user, err := s.userService.FindOrCreateFromIdentity(ctx, ident)
	if err != nil {
		if errors.Is(err, users.ErrUsernameAllocationFailed) || users.IsValidationError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	now := s.clock()
	session, err := s.repo.GetLiveByUserID(ctx, user.ID, now)
	if errors.Is(err, ErrSessionNotFound) {
		session, err = s.repo.CreateOrGetLive(ctx, &Session{
			ID:     uuid.New(),
			UserID: user.ID,
			Expiry: now.Add(s.ttl),
		}, now)
		if errors.Is(err, ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: no live session for user %s after upsert", ErrInvariantViolation, user.ID)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if session.UserID != user.ID || session.IsExpired(now) {
		return nil, fmt.Errorf("%w: session %s returned for user %s", ErrInvariantViolation, session.ID, user.ID)
	}

	authorization, err := headerauth.BuildSessionCredential(session.ID, s.signer.Sign(session.ID.String()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}

	if err := s.userService.IncrementLoginCount(ctx, user.ID); err != nil {
		slog.Error("failed to increment login count", "user_id", user.ID, "error", err)
	} else {
		user.LoginCount++
	}

	return &Issued{
		User:          user,
		Session:       session,
		Authorization: authorization,
	}, nil
}

// ResolveFromHeaderAuth returns the user and session an APPSESS header value
// refers to. Every credential problem yields ErrUnauthorized; the wrapped
// detail is for server logs only.
func (s *sessionService) ResolveFromHeaderAuth(ctx context.Context, value string) (*users.User, *Session, error) {
	cred, err := headerauth.ParseSessionCredential(value)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	if !s.signer.Verify(cred.ID.String(), cred.Signature) {
		return nil, nil, fmt.Errorf("%w: signature mismatch for session %s", ErrUnauthorized, cred.ID)
	}

	session, err := s.repo.GetByID(ctx, cred.ID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, nil, fmt.Errorf("%w: session %s not found", ErrUnauthorized, cred.ID)
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if session.IsExpired(s.now()) {
		return nil, nil, fmt.Errorf("%w: session %s expired at %s", ErrUnauthorized, session.ID, session.Expiry.Format(time.RFC3339))
	}

	user, err := s.userService.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, nil, fmt.Errorf("%w: user %s of session %s not found", ErrUnauthorized, session.UserID, session.ID)
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return user, session, nil
}

// Revoke deletes the session row.
func (s *sessionService) Revoke(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
