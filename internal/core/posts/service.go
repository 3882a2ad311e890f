package posts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"Spillit/internal/core/users"
	"Spillit/internal/core/visibility"

	"github.com/google/uuid"
)

type postService struct {
	repo        Repository
	userService users.UserService
	follows     visibility.FollowLookup
}

// NewPostService creates a new post service
func NewPostService(repo Repository, userService users.UserService, follows visibility.FollowLookup) Service {
	return &postService{
		repo:        repo,
		userService: userService,
		follows:     follows,
	}
}

// Create stores a post. Content is trimmed and must be 1..MaxContentLength runes.
func (s *postService) Create(ctx context.Context, authorID uuid.UUID, content string) (*Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, NewValidationError("content", "content is required")
	}
	if n := utf8.RuneCountInString(content); n > MaxContentLength {
		return nil, NewValidationError("content", fmt.Sprintf("content is %d characters, the limit is %d", n, MaxContentLength))
	}

	post, err := s.repo.Create(ctx, &Post{
		ID:      uuid.New(),
		UserID:  authorID,
		Content: content,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	slog.Debug("post created", "post_id", post.ID, "user_id", authorID)
	return post, nil
}

// Delete removes a post owned by requesterID
func (s *postService) Delete(ctx context.Context, requesterID, postID uuid.UUID) error {
	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != requesterID {
		return ErrNotAuthor
	}
	return s.repo.Delete(ctx, postID)
}

// ListForUser applies the visibility decision before reading any post.
func (s *postService) ListForUser(ctx context.Context, requester *uuid.UUID, username string, limit int, cursor *string) (*Page, error) {
	owner, err := s.userService.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	decision, err := visibility.CanView(ctx, requester, owner, s.follows)
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		return nil, err
	}

	if _, err := DecodeCursor(cursor); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	list, next, err := s.repo.ListByUser(ctx, ListRequest{UserID: owner.ID, Limit: limit, Cursor: cursor})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	if list == nil {
		list = []*Post{}
	}
	return &Page{Posts: list, Cursor: next}, nil
}
