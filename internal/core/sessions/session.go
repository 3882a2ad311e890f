package sessions

import (
	"time"

	"Spillit/internal/core/users"

	"github.com/google/uuid"
)

// TTL is the fixed lifetime of a session. Sessions are not extended on use.
const TTL = 24 * time.Hour

// Session is an app-issued login. Its id travels to the client signed, inside
// an APPSESS authorization header.
type Session struct {
	Expiry    time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"-"`
	ID        uuid.UUID `json:"-"`
	UserID    uuid.UUID `json:"-"`
}

// IsExpired reports whether the session's expiry lies strictly before now.
// A session whose expiry equals now is still valid.
func (s *Session) IsExpired(now time.Time) bool {
	return s.Expiry.Before(now)
}

// Issued is the result of a successful login.
type Issued struct {
	User          *users.User
	Session       *Session
	Authorization string
}
