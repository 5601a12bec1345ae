// Package auth validates bearer tokens against the identity provider and
// maps them to user IDs.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"hexcast/internal/cache"
)

// ErrInvalidToken marks tokens the provider rejected, as opposed to
// provider outages.
var ErrInvalidToken = errors.New("invalid or expired token")

// Config holds the identity provider settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Verifier checks tokens against the provider's user-info endpoint.
// Verified tokens are held in the injected TTL cache so hot clients do
// not hammer the provider on every request.
type Verifier struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	tokens     *cache.TTL[string]
	log        *zap.Logger
}

// NewVerifier wires a verifier around the given token cache.
func NewVerifier(cfg Config, tokens *cache.TTL[string], log *zap.Logger) *Verifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Verifier{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		tokens: tokens,
		log:    log,
	}
}

type userInfo struct {
	ID string `json:"id"`
}

// Verify resolves a bearer token to a user ID.
func (v *Verifier) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	if userID, ok := v.tokens.Get(token); ok {
		return userID, nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", v.baseURL+"/user", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create user-info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if v.apiKey != "" {
		req.Header.Set("apikey", v.apiKey)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("user-info request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read user-info response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("user-info request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var info userInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return "", fmt.Errorf("failed to parse user-info response: %w", err)
	}
	if info.ID == "" {
		return "", fmt.Errorf("user-info response carried no id")
	}

	v.tokens.Set(token, info.ID)
	v.log.Debug("token verified", zap.String("user_id", info.ID))
	return info.ID, nil
}

// Static accepts any non-empty token and maps it to a fixed user. It
// stands in for the provider in local development and the CLI.
type Static struct {
	UserID string
}

// Verify implements the same contract as Verifier.Verify.
func (s *Static) Verify(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	return s.UserID, nil
}
