package images

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T, handler http.HandlerFunc) *Signer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSigner(Config{
		BaseURL: srv.URL,
		APIKey:  "storage-key",
		Bucket:  "hexagrams",
		URLTTL:  15 * time.Minute,
	})
}

func TestSignedURL(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq signRequest

	signer := newTestSigner(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotReq))

		json.NewEncoder(w).Encode(signResponse{
			SignedURL: "/object/sign/hexagrams/1-2/1.png?token=abc123",
		})
	})

	url, err := signer.SignedURL(context.Background(), "1-2", "1")
	require.NoError(t, err)

	assert.Equal(t, "/object/sign/hexagrams/1-2/1.png", gotPath)
	assert.Equal(t, "Bearer storage-key", gotAuth)
	assert.Equal(t, int((15 * time.Minute).Seconds()), gotReq.ExpiresIn)
	assert.Contains(t, url, "/object/sign/hexagrams/1-2/1.png?token=abc123")
	assert.Contains(t, url, "http", "relative path should be resolved against the base URL")
}

func TestSignedURLAbsoluteResponse(t *testing.T) {
	signer := newTestSigner(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(signResponse{
			SignedURL: "https://cdn.example.com/hexagrams/1-2/1.png?token=xyz",
		})
	})

	url, err := signer.SignedURL(context.Background(), "1-2", "1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/hexagrams/1-2/1.png?token=xyz", url)
}

func TestSignedURLErrorStatus(t *testing.T) {
	signer := newTestSigner(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error": "object not found"}`)
	})

	_, err := signer.SignedURL(context.Background(), "9-9", "9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestSignedURLEmptyResponse(t *testing.T) {
	signer := newTestSigner(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	})

	_, err := signer.SignedURL(context.Background(), "1-2", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no URL")
}

func TestSignedURLMalformedResponse(t *testing.T) {
	signer := newTestSigner(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not json")
	})

	_, err := signer.SignedURL(context.Background(), "1-2", "1")
	require.Error(t, err)
}
