package postgres

import (
	"context"
	"testing"

	"Spillit/internal/core/users"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestUser(t *testing.T, repo users.UserRepository, username, externalID string) *users.User {
	t.Helper()
	u := &users.User{ID: uuid.New(), Username: username, HandleName: username, AvatarURL: "http://x/" + username + ".png"}
	if externalID != "" {
		u.ExternalID = &externalID
	}
	created, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	return created
}

func TestUserRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	created := createTestUser(t, repo, "jane-doe", "g123")
	assert.Equal(t, 0, created.LoginCount)
	assert.False(t, created.IsPrivate)
	assert.False(t, created.CreatedAt.IsZero())

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane-doe", byID.Username)
	require.NotNil(t, byID.ExternalID)
	assert.Equal(t, "g123", *byID.ExternalID)

	byExternal, err := repo.GetByExternalID(ctx, "g123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byExternal.ID)

	byName, err := repo.GetByUsername(ctx, "jane-doe")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, users.ErrUserNotFound)
}

func TestUserRepo_UniqueConstraints(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createTestUser(t, repo, "jane-doe", "g123")

	ext := "g999"
	_, err := repo.Create(ctx, &users.User{ID: uuid.New(), Username: "jane-doe", HandleName: "x", ExternalID: &ext})
	assert.ErrorIs(t, err, users.ErrUsernameTaken)

	dup := "g123"
	_, err = repo.Create(ctx, &users.User{ID: uuid.New(), Username: "jane-doe-1", HandleName: "x", ExternalID: &dup})
	assert.ErrorIs(t, err, users.ErrExternalIDTaken)

	// Users without an external id do not collide with each other
	createTestUser(t, repo, "local-a", "")
	createTestUser(t, repo, "local-b", "")
}

func TestUserRepo_IncrementLoginCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := createTestUser(t, repo, "counter", "g1")
	require.NoError(t, repo.IncrementLoginCount(ctx, u.ID))
	require.NoError(t, repo.IncrementLoginCount(ctx, u.ID))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.LoginCount)

	assert.ErrorIs(t, repo.IncrementLoginCount(ctx, uuid.New()), users.ErrUserNotFound)
}

func TestUserRepo_UpdateProfile(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := createTestUser(t, repo, "profile", "g2")
	name := "New Name"
	private := true

	updated, err := repo.UpdateProfile(ctx, u.ID, users.ProfileUpdate{HandleName: &name, IsPrivate: &private})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.HandleName)
	assert.True(t, updated.IsPrivate)
	assert.Equal(t, u.AvatarURL, updated.AvatarURL)
	assert.False(t, updated.UpdatedAt.Before(u.UpdatedAt))

	_, err = repo.UpdateProfile(ctx, uuid.New(), users.ProfileUpdate{HandleName: &name})
	assert.ErrorIs(t, err, users.ErrUserNotFound)
}
