package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"Spillit/internal/core/posts"
	"Spillit/internal/core/store"

	"github.com/google/uuid"
)

type postgresPostRepo struct {
	db *sql.DB
}

// NewPostRepository creates a new PostgreSQL post repository
func NewPostRepository(db *sql.DB) posts.Repository {
	return &postgresPostRepo{db: db}
}

func scanPost(row rowScanner) (*posts.Post, error) {
	p := &posts.Post{}
	if err := row.Scan(&p.ID, &p.UserID, &p.Content, &p.CreatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a post
func (r *postgresPostRepo) Create(ctx context.Context, post *posts.Post) (*posts.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, `
		INSERT INTO posts (id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, content, created_at`,
		post.ID, post.UserID, post.Content))
	if err != nil {
		return nil, store.Unavailable("failed to insert post", err)
	}
	return p, nil
}

// GetByID retrieves a post by id
func (r *postgresPostRepo) GetByID(ctx context.Context, id uuid.UUID) (*posts.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx,
		`SELECT id, user_id, content, created_at FROM posts WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, posts.ErrNotFound
	}
	if err != nil {
		return nil, store.Unavailable("failed to get post", err)
	}
	return p, nil
}

// ListByUser pages through a user's posts newest first with a keyset cursor
// on (created_at, id).
func (r *postgresPostRepo) ListByUser(ctx context.Context, req posts.ListRequest) ([]*posts.Post, *string, error) {
	cursor, err := posts.DecodeCursor(req.Cursor)
	if err != nil {
		return nil, nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = posts.DefaultPageSize
	}
	if limit > posts.MaxPageSize {
		limit = posts.MaxPageSize
	}

	query := `SELECT id, user_id, content, created_at FROM posts WHERE user_id = $1`
	args := []interface{}{req.UserID}
	if cursor != nil {
		query += ` AND (created_at < $2 OR (created_at = $2 AND id < $3))`
		args = append(args, cursor.CreatedAt, cursor.ID)
	}
	// +1 to check for next page
	args = append(args, limit+1)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, store.Unavailable("failed to query posts", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close rows", "error", closeErr)
		}
	}()

	result := []*posts.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, nil, store.Unavailable("failed to scan post", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, store.Unavailable("error iterating posts", err)
	}

	var next *string
	if len(result) > limit {
		result = result[:limit]
		c := posts.EncodeCursor(result[len(result)-1])
		next = &c
	}
	return result, next, nil
}

// Delete removes a post
func (r *postgresPostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return store.Unavailable("failed to delete post", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return store.Unavailable("failed to check rows affected", err)
	}
	if rowsAffected == 0 {
		return posts.ErrNotFound
	}
	return nil
}
