package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Spillit/internal/core/sessions"
	"Spillit/internal/core/users"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validHeader = "APPSESS id=0b6f8a4e-4c4e-4f57-9d2c-3f1f3c8b1a2d&signature=valid"

// fakeResolver accepts validHeader and fails everything else with err
type fakeResolver struct {
	user    *users.User
	session *sessions.Session
	err     error
	calls   int
}

func (f *fakeResolver) ResolveFromHeaderAuth(_ context.Context, value string) (*users.User, *sessions.Session, error) {
	f.calls++
	if value == validHeader {
		return f.user, f.session, nil
	}
	if f.err != nil {
		return nil, nil, f.err
	}
	return nil, nil, fmt.Errorf("%w: bad signature", sessions.ErrUnauthorized)
}

func newFakeResolver() *fakeResolver {
	id := uuid.New()
	return &fakeResolver{
		user:    &users.User{ID: id, Username: "jane-doe"},
		session: &sessions.Session{ID: uuid.New(), UserID: id, Expiry: time.Now().Add(time.Hour)},
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestRequireAuth_ValidSession(t *testing.T) {
	resolver := newFakeResolver()
	mw := NewSessionAuthMiddleware(resolver, nil)

	handlerCalled := false
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		assert.Equal(t, resolver.user, GetUser(r))
		assert.Equal(t, resolver.session, GetSession(r))
		require.NotNil(t, GetUserID(r))
		assert.Equal(t, resolver.user.ID, *GetUserID(r))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.Header.Set("Authorization", validHeader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.True(t, handlerCalled)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_Rejections(t *testing.T) {
	tests := map[string]string{
		"missing header": "",
		"bearer token":   "Bearer abc.def.ghi",
		"bad signature":  "APPSESS id=0b6f8a4e-4c4e-4f57-9d2c-3f1f3c8b1a2d&signature=forged",
		"oauth handoff":  "APPOAUTH code=x&redirectUri=https%3A%2F%2Fspill.it",
	}

	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			mw := NewSessionAuthMiddleware(newFakeResolver(), nil)
			handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, "AuthenticationRequired", decodeError(t, rec)["error"])
		})
	}
}

func TestRequireAuth_UniformMessage(t *testing.T) {
	causes := []error{
		fmt.Errorf("%w: signature mismatch", sessions.ErrUnauthorized),
		fmt.Errorf("%w: session expired", sessions.ErrUnauthorized),
		fmt.Errorf("%w: session not found", sessions.ErrUnauthorized),
	}

	var messages []string
	for _, cause := range causes {
		resolver := newFakeResolver()
		resolver.err = cause
		handler := NewSessionAuthMiddleware(resolver, nil).RequireAuth(http.NotFoundHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "APPSESS id=x")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		messages = append(messages, decodeError(t, rec)["message"])
	}

	assert.Equal(t, messages[0], messages[1])
	assert.Equal(t, messages[0], messages[2])
	assert.NotContains(t, messages[0], "expired")
}

func TestRequireAuth_StoreUnavailable(t *testing.T) {
	resolver := newFakeResolver()
	resolver.err = fmt.Errorf("%w: connection refused", sessions.ErrStoreUnavailable)
	handler := NewSessionAuthMiddleware(resolver, nil).RequireAuth(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "APPSESS id=x")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestOptionalAuth(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		resolver := newFakeResolver()
		called := false
		handler := NewSessionAuthMiddleware(resolver, nil).OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			assert.Nil(t, GetUser(r))
			assert.Nil(t, GetUserID(r))
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.True(t, called)
		assert.Zero(t, resolver.calls)
	})

	t.Run("authenticated", func(t *testing.T) {
		resolver := newFakeResolver()
		handler := NewSessionAuthMiddleware(resolver, nil).OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, resolver.user, GetUser(r))
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", validHeader)
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, 1, resolver.calls)
	})

	t.Run("invalid credentials are rejected", func(t *testing.T) {
		handler := NewSessionAuthMiddleware(newFakeResolver(), nil).OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "APPSESS id=nope")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestSetTestUser(t *testing.T) {
	u := &users.User{ID: uuid.New()}
	s := &sessions.Session{ID: uuid.New()}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(SetTestUser(req.Context(), u, s))

	assert.Same(t, u, GetUser(req))
	assert.Same(t, s, GetSession(req))
}
