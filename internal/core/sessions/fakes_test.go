package sessions

import (
	"context"
	"errors"
	"sync"
	"time"

	"Spillit/internal/core/users"

	"github.com/google/uuid"
)

// memorySessionRepo mirrors the Postgres repository: one row per user,
// replaced only once expired.
type memorySessionRepo struct {
	mu       sync.Mutex
	byID     map[uuid.UUID]*Session
	failWith error
	creates  int
}

func newMemorySessionRepo() *memorySessionRepo {
	return &memorySessionRepo{byID: map[uuid.UUID]*Session{}}
}

func (r *memorySessionRepo) GetByID(_ context.Context, id uuid.UUID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	s, ok := r.byID[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memorySessionRepo) GetLiveByUserID(_ context.Context, userID uuid.UUID, now time.Time) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, s := range r.byID {
		if s.UserID == userID && !s.IsExpired(now) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrSessionNotFound
}

func (r *memorySessionRepo) CreateOrGetLive(_ context.Context, session *Session, now time.Time) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	for id, s := range r.byID {
		if s.UserID != session.UserID {
			continue
		}
		if !s.IsExpired(now) {
			cp := *s
			return &cp, nil
		}
		delete(r.byID, id)
	}
	r.creates++
	cp := *session
	cp.CreatedAt = now
	r.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memorySessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.byID[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memorySessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.byID {
		if s.IsExpired(now) {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

func (r *memorySessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// memoryUserRepo enforces the same unique constraints as the users table.
type memoryUserRepo struct {
	mu             sync.Mutex
	byID           map[uuid.UUID]*users.User
	incrementErr   error
	getByIDErr     error
	getExternalErr error
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{byID: map[uuid.UUID]*users.User{}}
}

func (r *memoryUserRepo) Create(_ context.Context, u *users.User) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Username == u.Username {
			return nil, users.ErrUsernameTaken
		}
		if u.ExternalID != nil && existing.ExternalID != nil && *existing.ExternalID == *u.ExternalID {
			return nil, users.ErrExternalIDTaken
		}
	}
	cp := *u
	r.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memoryUserRepo) find(match func(*users.User) bool) (*users.User, error) {
	for _, u := range r.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, users.ErrUserNotFound
}

func (r *memoryUserRepo) GetByID(_ context.Context, id uuid.UUID) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getByIDErr != nil {
		return nil, r.getByIDErr
	}
	return r.find(func(u *users.User) bool { return u.ID == id })
}

func (r *memoryUserRepo) GetByExternalID(_ context.Context, externalID string) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getExternalErr != nil {
		return nil, r.getExternalErr
	}
	return r.find(func(u *users.User) bool { return u.ExternalID != nil && *u.ExternalID == externalID })
}

func (r *memoryUserRepo) GetByUsername(_ context.Context, username string) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(u *users.User) bool { return u.Username == username })
}

func (r *memoryUserRepo) IncrementLoginCount(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.incrementErr != nil {
		return r.incrementErr
	}
	u, ok := r.byID[id]
	if !ok {
		return users.ErrUserNotFound
	}
	u.LoginCount++
	return nil
}

func (r *memoryUserRepo) UpdateProfile(_ context.Context, id uuid.UUID, update users.ProfileUpdate) (*users.User, error) {
	return nil, errors.New("not implemented")
}

func (r *memoryUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
