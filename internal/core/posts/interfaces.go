package posts

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines post persistence
type Repository interface {
	Create(ctx context.Context, post *Post) (*Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
	// ListByUser returns up to req.Limit posts after req.Cursor, newest first,
	// and the cursor of the next page if there is one.
	ListByUser(ctx context.Context, req ListRequest) ([]*Post, *string, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service defines post business logic
type Service interface {
	Create(ctx context.Context, authorID uuid.UUID, content string) (*Post, error)
	Delete(ctx context.Context, requesterID, postID uuid.UUID) error
	// ListForUser lists username's posts if requester may see them.
	// A nil requester is anonymous.
	ListForUser(ctx context.Context, requester *uuid.UUID, username string, limit int, cursor *string) (*Page, error)
}
