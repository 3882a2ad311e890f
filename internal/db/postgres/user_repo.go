package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"Spillit/internal/core/store"
	"Spillit/internal/core/users"

	"github.com/google/uuid"
)

type postgresUserRepo struct {
	db *sql.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sql.DB) users.UserRepository {
	return &postgresUserRepo{db: db}
}

const userColumns = `id, username, handle_name, avatar_url, external_id, is_private, login_count, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*users.User, error) {
	user := &users.User{}
	var externalID sql.NullString
	err := row.Scan(&user.ID, &user.Username, &user.HandleName, &user.AvatarURL, &externalID,
		&user.IsPrivate, &user.LoginCount, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if externalID.Valid {
		user.ExternalID = &externalID.String
	}
	return user, nil
}

// Create inserts a new user into the users table
func (r *postgresUserRepo) Create(ctx context.Context, user *users.User) (*users.User, error) {
	query := `
		INSERT INTO users (id, username, handle_name, avatar_url, external_id, is_private)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns

	var externalID sql.NullString
	if user.ExternalID != nil {
		externalID = sql.NullString{String: *user.ExternalID, Valid: true}
	}

	created, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.HandleName, user.AvatarURL, externalID, user.IsPrivate))
	if err != nil {
		switch {
		case isUniqueViolation(err, "users_username_key"):
			return nil, users.ErrUsernameTaken
		case isUniqueViolation(err, "users_external_id_key"):
			return nil, users.ErrExternalIDTaken
		}
		return nil, store.Unavailable("failed to create user", err)
	}

	return created, nil
}

func (r *postgresUserRepo) getBy(ctx context.Context, column string, value interface{}) (*users.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, store.Unavailable("failed to get user by "+column, err)
	}
	return user, nil
}

// GetByID retrieves a user by id
func (r *postgresUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	return r.getBy(ctx, "id", id)
}

// GetByExternalID retrieves a user by the identity provider's subject
func (r *postgresUserRepo) GetByExternalID(ctx context.Context, externalID string) (*users.User, error) {
	return r.getBy(ctx, "external_id", externalID)
}

// GetByUsername retrieves a user by username
func (r *postgresUserRepo) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	return r.getBy(ctx, "username", username)
}

// IncrementLoginCount bumps login_count in place
func (r *postgresUserRepo) IncrementLoginCount(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET login_count = login_count + 1 WHERE id = $1`, id)
	if err != nil {
		return store.Unavailable("failed to increment login count", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return store.Unavailable("failed to check rows affected", err)
	}
	if rowsAffected == 0 {
		return users.ErrUserNotFound
	}
	return nil
}

// UpdateProfile updates the non-nil fields of update and returns the user.
// Returns ErrUserNotFound if the user does not exist.
func (r *postgresUserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, update users.ProfileUpdate) (*users.User, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{}
	argNum := 1

	if update.HandleName != nil {
		setClauses = append(setClauses, fmt.Sprintf("handle_name = $%d", argNum))
		args = append(args, *update.HandleName)
		argNum++
	}
	if update.AvatarURL != nil {
		setClauses = append(setClauses, fmt.Sprintf("avatar_url = $%d", argNum))
		args = append(args, *update.AvatarURL)
		argNum++
	}
	if update.IsPrivate != nil {
		setClauses = append(setClauses, fmt.Sprintf("is_private = $%d", argNum))
		args = append(args, *update.IsPrivate)
		argNum++
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argNum, userColumns)

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, store.Unavailable("failed to update profile", err)
	}
	return user, nil
}
