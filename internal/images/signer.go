// Package images resolves short-lived signed URLs for hexagram images
// held in an external object store.
package images

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Signer requests signed URLs from the storage API. Objects are filed as
// {bucket}/{parent}/{child}.png.
type Signer struct {
	baseURL    string
	apiKey     string
	bucket     string
	urlTTL     time.Duration
	httpClient *http.Client
}

// Config holds the storage API settings.
type Config struct {
	BaseURL string
	APIKey  string
	Bucket  string
	URLTTL  time.Duration
	Timeout time.Duration
}

// NewSigner creates a signer for the configured bucket.
func NewSigner(cfg Config) *Signer {
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = 15 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Signer{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		bucket:  cfg.Bucket,
		urlTTL:  cfg.URLTTL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type signRequest struct {
	ExpiresIn int `json:"expiresIn"`
}

type signResponse struct {
	SignedURL string `json:"signedURL"`
}

// SignedURL implements reading.ImageResolver. The storage API returns a
// path relative to its base URL; the full URL is assembled here so callers
// can hand it straight to a browser.
func (s *Signer) SignedURL(ctx context.Context, parent, child string) (string, error) {
	object := fmt.Sprintf("%s/%s.png", parent, child)
	endpoint := fmt.Sprintf("%s/object/sign/%s/%s", s.baseURL, s.bucket, object)

	body, err := json.Marshal(signRequest{ExpiresIn: int(s.urlTTL.Seconds())})
	if err != nil {
		return "", fmt.Errorf("failed to marshal sign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sign request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read sign response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sign request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var signed signResponse
	if err := json.Unmarshal(respBody, &signed); err != nil {
		return "", fmt.Errorf("failed to parse sign response: %w", err)
	}
	if signed.SignedURL == "" {
		return "", fmt.Errorf("sign response carried no URL")
	}

	if strings.HasPrefix(signed.SignedURL, "http://") || strings.HasPrefix(signed.SignedURL, "https://") {
		return signed.SignedURL, nil
	}
	return s.baseURL + "/" + strings.TrimLeft(signed.SignedURL, "/"), nil
}
