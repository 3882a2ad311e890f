package posts

import (
	"time"

	"github.com/google/uuid"
)

// MaxContentLength is the post length limit in runes
const MaxContentLength = 280

// Pagination bounds for ListForUser
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// Post is a short message by one user.
type Post struct {
	CreatedAt time.Time `json:"createdAt"`
	Content   string    `json:"content"`
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
}

// ListRequest selects a page of one user's posts, newest first
type ListRequest struct {
	Cursor *string
	Limit  int
	UserID uuid.UUID
}

// Page is a page of posts. Cursor is nil on the last page.
type Page struct {
	Cursor *string `json:"cursor,omitempty"`
	Posts  []*Post `json:"posts"`
}
