package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"Spillit/internal/core/sessions"
	"Spillit/internal/core/store"

	"github.com/google/uuid"
)

type postgresSessionRepo struct {
	db *sql.DB
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db *sql.DB) sessions.SessionRepository {
	return &postgresSessionRepo{db: db}
}

func scanSession(row rowScanner) (*sessions.Session, error) {
	s := &sessions.Session{}
	if err := row.Scan(&s.ID, &s.UserID, &s.Expiry, &s.CreatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID retrieves a session by id regardless of expiry
func (r *postgresSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*sessions.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT id, user_id, expiry, created_at FROM sessions WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sessions.ErrSessionNotFound
	}
	if err != nil {
		return nil, store.Unavailable("failed to get session", err)
	}
	return s, nil
}

// GetLiveByUserID retrieves the user's session if it has not expired at now
func (r *postgresSessionRepo) GetLiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) (*sessions.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT id, user_id, expiry, created_at FROM sessions WHERE user_id = $1 AND expiry >= $2`, userID, now))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sessions.ErrSessionNotFound
	}
	if err != nil {
		return nil, store.Unavailable("failed to get live session", err)
	}
	return s, nil
}

// CreateOrGetLive upserts on the unique user_id. The conflicting row is only
// overwritten when it has expired; a live row wins and is read back instead.
func (r *postgresSessionRepo) CreateOrGetLive(ctx context.Context, session *sessions.Session, now time.Time) (*sessions.Session, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, store.Unavailable("failed to begin transaction", err)
	}
	defer rollback(tx)

	query := `
		INSERT INTO sessions (id, user_id, expiry)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
			SET id = EXCLUDED.id, expiry = EXCLUDED.expiry, created_at = NOW()
			WHERE sessions.expiry < $4
		RETURNING id, user_id, expiry, created_at`

	stored, err := scanSession(tx.QueryRowContext(ctx, query, session.ID, session.UserID, session.Expiry, now))
	if errors.Is(err, sql.ErrNoRows) {
		// A live session already exists for the user
		stored, err = scanSession(tx.QueryRowContext(ctx,
			`SELECT id, user_id, expiry, created_at FROM sessions WHERE user_id = $1 AND expiry >= $2`,
			session.UserID, now))
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sessions.ErrSessionNotFound
		}
	}
	if err != nil {
		return nil, store.Unavailable("failed to upsert session", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, store.Unavailable("failed to commit transaction", err)
	}
	return stored, nil
}

// Delete removes a session
func (r *postgresSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return store.Unavailable("failed to delete session", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return store.Unavailable("failed to check rows affected", err)
	}
	if rowsAffected == 0 {
		return sessions.ErrSessionNotFound
	}
	return nil
}

// DeleteExpired removes sessions that expired before now and returns how
// many were removed.
func (r *postgresSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expiry < $1`, now)
	if err != nil {
		return 0, store.Unavailable("failed to delete expired sessions", err)
	}
	return result.RowsAffected()
}
