package llm

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Provider identifies an LLM backend.
type Provider string

const (
	ProviderDeepSeek Provider = "deepseek"
	ProviderGemini   Provider = "gemini"
	ProviderMock     Provider = "mock"
)

// Options holds the resolved provider settings.
type Options struct {
	Provider Provider
	APIKey   string
	Model    string // optional model override
	BaseURL  string // optional endpoint override for OpenAI-compatible providers
	Timeout  time.Duration
}

// DetectProvider resolves a provider from environment variables, checked
// in priority order.
func DetectProvider() (Options, error) {
	providers := []struct {
		envVar   string
		provider Provider
	}{
		{"DEEPSEEK_API_KEY", ProviderDeepSeek},
		{"GEMINI_API_KEY", ProviderGemini},
	}

	for _, p := range providers {
		if key := os.Getenv(p.envVar); key != "" {
			return Options{Provider: p.provider, APIKey: key}, nil
		}
	}

	return Options{}, fmt.Errorf("no API key found; set one of: DEEPSEEK_API_KEY, GEMINI_API_KEY")
}

// NewClient creates an LLM client for the given options.
func NewClient(ctx context.Context, opts Options) (Client, error) {
	switch opts.Provider {
	case ProviderDeepSeek:
		cfg := DefaultDeepSeekConfig(opts.APIKey)
		if opts.Model != "" {
			cfg.Model = opts.Model
		}
		if opts.BaseURL != "" {
			cfg.BaseURL = opts.BaseURL
		}
		if opts.Timeout > 0 {
			cfg.Timeout = opts.Timeout
		}
		return NewDeepSeekClientWithConfig(cfg), nil

	case ProviderGemini:
		return NewGeminiClient(ctx, opts.APIKey, opts.Model)

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown provider: %s (valid: deepseek, gemini, mock)", opts.Provider)
	}
}
