package sessions

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"Spillit/internal/core/headerauth"
	"Spillit/internal/core/identity"
	"Spillit/internal/core/signing"
	"Spillit/internal/core/users"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

var jane = &identity.ExternalIdentity{
	ExternalID:  "g123",
	DisplayName: "Jane Doe",
	AvatarURL:   "http://x/p.png",
}

type fixture struct {
	sessions *memorySessionRepo
	users    *memoryUserRepo
	signer   *signing.Signer
	svc      Service
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	signer, err := signing.NewSigner(testSecret)
	require.NoError(t, err)

	f := &fixture{
		sessions: newMemorySessionRepo(),
		users:    newMemoryUserRepo(),
		signer:   signer,
		now:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.sessions, users.NewUserService(f.users), signer, WithClock(func() time.Time { return f.now }))
	return f
}

func TestIsExpired_Boundary(t *testing.T) {
	expiry := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	s := &Session{Expiry: expiry}

	assert.False(t, s.IsExpired(expiry.Add(-time.Millisecond)))
	assert.False(t, s.IsExpired(expiry), "expiry equal to now is still valid")
	assert.True(t, s.IsExpired(expiry.Add(time.Millisecond)))
	assert.True(t, s.IsExpired(expiry.Add(time.Nanosecond)))
}

func TestIssueForIdentity_FirstLogin(t *testing.T) {
	f := newFixture(t)

	issued, err := f.svc.IssueForIdentity(context.Background(), jane)
	require.NoError(t, err)

	assert.Equal(t, "jane-doe", issued.User.Username)
	assert.Equal(t, "Jane Doe", issued.User.HandleName)
	assert.Equal(t, 1, issued.User.LoginCount)
	assert.Equal(t, 1, f.users.count())

	stored, err := f.users.GetByExternalID(context.Background(), "g123")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.LoginCount)

	assert.Equal(t, f.now.Add(24*time.Hour), issued.Session.Expiry)
	assert.Equal(t, issued.User.ID, issued.Session.UserID)
	assert.Equal(t, 1, f.sessions.count())

	require.True(t, strings.HasPrefix(issued.Authorization, headerauth.SchemeSession+" "))
	cred, err := headerauth.ParseSessionCredential(issued.Authorization)
	require.NoError(t, err)
	assert.Equal(t, issued.Session.ID, cred.ID)
	assert.Equal(t, signing.Sign(testSecret, issued.Session.ID.String()), cred.Signature)
}

func TestIssueForIdentity_RepeatLoginReusesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.IssueForIdentity(ctx, jane)
	require.NoError(t, err)

	f.now = f.now.Add(3 * time.Hour)
	second, err := f.svc.IssueForIdentity(ctx, jane)
	require.NoError(t, err)

	assert.Equal(t, first.Authorization, second.Authorization)
	assert.Equal(t, first.Session.ID, second.Session.ID)
	assert.Equal(t, first.Session.Expiry, second.Session.Expiry, "expiry does not slide")
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, 2, second.User.LoginCount)
	assert.Equal(t, 1, f.users.count())
	assert.Equal(t, 1, f.sessions.creates)
}

func TestIssueForIdentity_ExpiredSessionIsReplaced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.IssueForIdentity(ctx, jane)
	require.NoError(t, err)

	f.now = f.now.Add(TTL + time.Second)
	second, err := f.svc.IssueForIdentity(ctx, jane)
	require.NoError(t, err)

	assert.NotEqual(t, first.Session.ID, second.Session.ID)
	assert.NotEqual(t, first.Authorization, second.Authorization)
	assert.Equal(t, f.now.Add(TTL), second.Session.Expiry)
	assert.Equal(t, 1, f.sessions.count(), "one session row per user")
}

func TestIssueForIdentity_SameDisplayNameGetsDistinctUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.IssueForIdentity(ctx, jane)
	require.NoError(t, err)
	b, err := f.svc.IssueForIdentity(ctx, &identity.ExternalIdentity{
		ExternalID: "g456", DisplayName: "Jane Doe", AvatarURL: "http://x/q.png",
	})
	require.NoError(t, err)

	assert.Equal(t, "jane-doe", a.User.Username)
	assert.Regexp(t, `^jane-doe-[0-9]+$`, b.User.Username)
	assert.NotEqual(t, a.Session.ID, b.Session.ID)
}

func TestIssueForIdentity_LoginCountFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.users.incrementErr = errors.New("deadlock detected")

	issued, err := f.svc.IssueForIdentity(context.Background(), jane)
	require.NoError(t, err)
	assert.Equal(t, 0, issued.User.LoginCount)
	assert.NotEmpty(t, issued.Authorization)
}

func TestIssueForIdentity_StoreFailures(t *testing.T) {
	t.Run("user store", func(t *testing.T) {
		f := newFixture(t)
		f.users.getExternalErr = errors.New("connection refused")

		_, err := f.svc.IssueForIdentity(context.Background(), jane)
		assert.ErrorIs(t, err, ErrStoreUnavailable)
	})

	t.Run("session store", func(t *testing.T) {
		f := newFixture(t)
		f.sessions.failWith = errors.New("connection refused")

		_, err := f.svc.IssueForIdentity(context.Background(), jane)
		assert.ErrorIs(t, err, ErrStoreUnavailable)
	})
}

type vanishingRepo struct{ *memorySessionRepo }

func (vanishingRepo) CreateOrGetLive(context.Context, *Session, time.Time) (*Session, error) {
	return nil, ErrSessionNotFound
}

func TestIssueForIdentity_InvariantViolation(t *testing.T) {
	f := newFixture(t)
	svc := NewService(vanishingRepo{f.sessions}, users.NewUserService(f.users), f.signer,
		WithClock(func() time.Time { return f.now }))

	_, err := svc.IssueForIdentity(context.Background(), jane)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestResolveFromHeaderAuth_Valid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.svc.IssueForIdentity(ctx, jane)
	require.NoError(t, err)

	user, session, err := f.svc.ResolveFromHeaderAuth(ctx, issued.Authorization)
	require.NoError(t, err)
	assert.Equal(t, issued.User.ID, user.ID)
	assert.Equal(t, issued.Session.ID, session.ID)

	// Valid up to and including the expiry instant
	f.now = issued.Session.Expiry
	_, _, err = f.svc.ResolveFromHeaderAuth(ctx, issued.Authorization)
	assert.NoError(t, err)

	f.now = issued.Session.Expiry.Add(time.Millisecond)
	_, _, err = f.svc.ResolveFromHeaderAuth(ctx, issued.Authorization)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestResolveFromHeaderAuth_Unauthorized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.svc.IssueForIdentity(ctx, jane)
	require.NoError(t, err)
	id := issued.Session.ID

	unknown := uuid.New()
	unknownHeader, err := headerauth.BuildSessionCredential(unknown, signing.Sign(testSecret, unknown.String()))
	require.NoError(t, err)

	forged, err := headerauth.BuildSessionCredential(id, signing.Sign([]byte("another-secret-of-16+"), id.String()))
	require.NoError(t, err)

	otherSig, err := headerauth.BuildSessionCredential(id, signing.Sign(testSecret, unknown.String()))
	require.NoError(t, err)

	tests := map[string]string{
		"empty":                 "",
		"oauth scheme":          "APPOAUTH code=x&redirectUri=https%3A%2F%2Fspill.it",
		"no params":             "APPSESS",
		"bad id":                "APPSESS id=nope&signature=" + strings.Repeat("a", 64),
		"extra param":           issued.Authorization + "&admin=true",
		"uppercase hex":         strings.Replace(issued.Authorization, "signature=", "signature=A", 1),
		"forged signature":      forged,
		"signature of other id": otherSig,
		"unknown session":       unknownHeader,
	}

	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			user, session, err := f.svc.ResolveFromHeaderAuth(ctx, header)
			assert.ErrorIs(t, err, ErrUnauthorized)
			assert.NotErrorIs(t, err, ErrStoreUnavailable)
			assert.Nil(t, user)
			assert.Nil(t, session)
		})
	}
}

func TestResolveFromHeaderAuth_StoreFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.svc.IssueForIdentity(ctx, jane)
	require.NoError(t, err)

	f.users.getByIDErr = errors.New("connection reset")
	_, _, err = f.svc.ResolveFromHeaderAuth(ctx, issued.Authorization)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	f.users.getByIDErr = nil
	f.sessions.failWith = errors.New("connection reset")
	_, _, err = f.svc.ResolveFromHeaderAuth(ctx, issued.Authorization)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestRevoke(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.svc.IssueForIdentity(ctx, jane)
	require.NoError(t, err)

	require.NoError(t, f.svc.Revoke(ctx, issued.Session.ID))
	_, _, err = f.svc.ResolveFromHeaderAuth(ctx, issued.Authorization)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Idempotent
	assert.NoError(t, f.svc.Revoke(ctx, issued.Session.ID))

	// Next login gets a fresh session
	again, err := f.svc.IssueForIdentity(ctx, jane)
	require.NoError(t, err)
	assert.NotEqual(t, issued.Session.ID, again.Session.ID)
}
