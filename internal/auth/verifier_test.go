package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hexcast/internal/cache"
)

func newTestVerifier(t *testing.T, handler http.HandlerFunc) (*Verifier, *cache.TTL[string]) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tokens := cache.New[string](5 * time.Minute)
	v := NewVerifier(Config{BaseURL: srv.URL, APIKey: "anon-key"}, tokens, nil)
	return v, tokens
}

func TestVerify(t *testing.T) {
	var gotAuth, gotAPIKey, gotPath string
	v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAPIKey = r.Header.Get("apikey")
		gotPath = r.URL.Path
		io.WriteString(w, `{"id": "user-7", "email": "u7@example.com"}`)
	})

	userID, err := v.Verify(context.Background(), "tok-abc")
	require.NoError(t, err)
	assert.Equal(t, "user-7", userID)
	assert.Equal(t, "Bearer tok-abc", gotAuth)
	assert.Equal(t, "anon-key", gotAPIKey)
	assert.Equal(t, "/user", gotPath)
}

func TestVerifyCachesToken(t *testing.T) {
	var calls atomic.Int32
	v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		io.WriteString(w, `{"id": "user-7"}`)
	})

	for i := 0; i < 3; i++ {
		userID, err := v.Verify(context.Background(), "tok-abc")
		require.NoError(t, err)
		require.Equal(t, "user-7", userID)
	}
	assert.Equal(t, int32(1), calls.Load(), "repeat verifications should hit the cache")
}

func TestVerifyCacheExpiry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		io.WriteString(w, `{"id": "user-7"}`)
	}))
	t.Cleanup(srv.Close)

	current := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	tokens := cache.NewWithClock[string](5*time.Minute, func() time.Time { return current })
	v := NewVerifier(Config{BaseURL: srv.URL}, tokens, nil)

	_, err := v.Verify(context.Background(), "tok")
	require.NoError(t, err)

	current = current.Add(10 * time.Minute)
	_, err = v.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "expired cache entry should re-verify")
}

func TestVerifyRejectedToken(t *testing.T) {
	v, tokens := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error": "invalid token"}`)
	})

	_, err := v.Verify(context.Background(), "bad-token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidToken))
	assert.Equal(t, 0, tokens.Len(), "rejected tokens must not be cached")
}

func TestVerifyEmptyToken(t *testing.T) {
	v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider should not be called for an empty token")
	})

	_, err := v.Verify(context.Background(), "")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestVerifyProviderOutageIsNotInvalidToken(t *testing.T) {
	v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := v.Verify(context.Background(), "tok")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidToken), "outages must stay distinguishable from rejections")
}

func TestVerifyMissingID(t *testing.T) {
	v, _ := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"email": "no-id@example.com"}`)
	})

	_, err := v.Verify(context.Background(), "tok")
	require.Error(t, err)
}

func TestStaticVerifier(t *testing.T) {
	s := &Static{UserID: "local"}

	userID, err := s.Verify(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "local", userID)

	_, err = s.Verify(context.Background(), "")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
