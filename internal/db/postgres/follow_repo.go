package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"Spillit/internal/core/follows"
	"Spillit/internal/core/store"
	"Spillit/internal/core/users"

	"github.com/google/uuid"
)

type postgresFollowRepo struct {
	db *sql.DB
}

// NewFollowRepository creates a new PostgreSQL follow repository
func NewFollowRepository(db *sql.DB) follows.FollowRepository {
	return &postgresFollowRepo{db: db}
}

const followColumns = `id, follower_user_id, following_user_id, is_accepted, created_at`

func scanFollow(row rowScanner) (*follows.Follow, error) {
	f := &follows.Follow{}
	if err := row.Scan(&f.ID, &f.FollowerUserID, &f.FollowingUserID, &f.IsAccepted, &f.CreatedAt); err != nil {
		return nil, err
	}
	return f, nil
}

// FindBetween retrieves the follow from followerID to followingID
func (r *postgresFollowRepo) FindBetween(ctx context.Context, followerID, followingID uuid.UUID) (*follows.Follow, error) {
	f, err := scanFollow(r.db.QueryRowContext(ctx,
		`SELECT `+followColumns+` FROM follows WHERE follower_user_id = $1 AND following_user_id = $2`,
		followerID, followingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, follows.ErrFollowNotFound
	}
	if err != nil {
		return nil, store.Unavailable("failed to find follow", err)
	}
	return f, nil
}

// Create inserts a follow. The unique pair constraint maps to ErrFollowAlreadyExists.
func (r *postgresFollowRepo) Create(ctx context.Context, follow *follows.Follow) (*follows.Follow, error) {
	query := `
		INSERT INTO follows (id, follower_user_id, following_user_id, is_accepted)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + followColumns

	f, err := scanFollow(r.db.QueryRowContext(ctx, query,
		follow.ID, follow.FollowerUserID, follow.FollowingUserID, follow.IsAccepted))
	if err != nil {
		if isUniqueViolation(err, "follows_pair_key") {
			return nil, follows.ErrFollowAlreadyExists
		}
		return nil, store.Unavailable("failed to create follow", err)
	}
	return f, nil
}

// Accept marks a follow accepted
func (r *postgresFollowRepo) Accept(ctx context.Context, id uuid.UUID) (*follows.Follow, error) {
	f, err := scanFollow(r.db.QueryRowContext(ctx,
		`UPDATE follows SET is_accepted = TRUE WHERE id = $1 RETURNING `+followColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, follows.ErrFollowNotFound
	}
	if err != nil {
		return nil, store.Unavailable("failed to accept follow", err)
	}
	return f, nil
}

// Delete removes a follow
func (r *postgresFollowRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM follows WHERE id = $1`, id)
	if err != nil {
		return store.Unavailable("failed to delete follow", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return store.Unavailable("failed to check rows affected", err)
	}
	if rowsAffected == 0 {
		return follows.ErrFollowNotFound
	}
	return nil
}

// ListFollowers returns users following userID
func (r *postgresFollowRepo) ListFollowers(ctx context.Context, userID uuid.UUID, acceptedOnly bool) ([]*users.User, error) {
	query := `
		SELECT u.id, u.username, u.handle_name, u.avatar_url, u.external_id, u.is_private, u.login_count, u.created_at, u.updated_at
		FROM follows f
		INNER JOIN users u ON u.id = f.follower_user_id
		WHERE f.following_user_id = $1 AND (f.is_accepted OR NOT $2)
		ORDER BY f.created_at DESC`
	return r.listUsers(ctx, query, userID, acceptedOnly)
}

// ListFollowing returns users userID follows with an accepted follow
func (r *postgresFollowRepo) ListFollowing(ctx context.Context, userID uuid.UUID) ([]*users.User, error) {
	query := `
		SELECT u.id, u.username, u.handle_name, u.avatar_url, u.external_id, u.is_private, u.login_count, u.created_at, u.updated_at
		FROM follows f
		INNER JOIN users u ON u.id = f.following_user_id
		WHERE f.follower_user_id = $1 AND f.is_accepted
		ORDER BY f.created_at DESC`
	return r.listUsers(ctx, query, userID)
}

// ListPendingRequests returns users waiting for userID to accept their follow
func (r *postgresFollowRepo) ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]*users.User, error) {
	query := `
		SELECT u.id, u.username, u.handle_name, u.avatar_url, u.external_id, u.is_private, u.login_count, u.created_at, u.updated_at
		FROM follows f
		INNER JOIN users u ON u.id = f.follower_user_id
		WHERE f.following_user_id = $1 AND NOT f.is_accepted
		ORDER BY f.created_at ASC`
	return r.listUsers(ctx, query, userID)
}

func (r *postgresFollowRepo) listUsers(ctx context.Context, query string, args ...interface{}) ([]*users.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.Unavailable("failed to query follows", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close rows", "error", closeErr)
		}
	}()

	result := []*users.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, store.Unavailable("failed to scan user row", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Unavailable("error iterating user rows", err)
	}
	return result, nil
}
