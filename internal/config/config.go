// Package config loads hexcast configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all hexcast configuration.
type Config struct {
	// HTTP listen address
	ListenAddr string `yaml:"listen_addr"`

	// SQLite database path (texts and quota ledger)
	DatabasePath string `yaml:"database_path"`

	// LLM provider configuration
	LLM LLMConfig `yaml:"llm"`

	// Image object storage
	Storage StorageConfig `yaml:"storage"`

	// Identity provider (token verification)
	Identity IdentityConfig `yaml:"identity"`

	// Quota defaults
	Quota QuotaConfig `yaml:"quota"`

	// Text importer
	Importer ImporterConfig `yaml:"importer"`
}

// LLMConfig configures the model client.
type LLMConfig struct {
	Provider string `yaml:"provider"` // deepseek, gemini, mock
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// StorageConfig configures the image object store. An empty BaseURL
// disables image URLs entirely.
type StorageConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Bucket  string `yaml:"bucket"`
	URLTTL  string `yaml:"url_ttl"`
	Timeout string `yaml:"timeout"`
}

// IdentityConfig configures token verification. An empty BaseURL runs the
// server with authentication disabled (every token maps to one local user).
type IdentityConfig struct {
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	CacheTTL string `yaml:"cache_ttl"`
	Timeout  string `yaml:"timeout"`
}

// QuotaConfig configures usage metering.
type QuotaConfig struct {
	DefaultDailyLimit int `yaml:"default_daily_limit"`
}

// ImporterConfig configures the text importer.
type ImporterConfig struct {
	Workers    int `yaml:"workers"`
	MaxRetries int `yaml:"max_retries"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:   ":8080",
		DatabasePath: "data/hexcast.db",

		LLM: LLMConfig{
			Provider: "deepseek",
			Model:    "deepseek-chat",
			BaseURL:  "https://api.deepseek.com/v1",
			Timeout:  "90s",
		},

		Storage: StorageConfig{
			Bucket:  "hexagrams",
			URLTTL:  "15m",
			Timeout: "10s",
		},

		Identity: IdentityConfig{
			CacheTTL: "5m",
			Timeout:  "10s",
		},

		Quota: QuotaConfig{
			DefaultDailyLimit: 10,
		},

		Importer: ImporterConfig{
			Workers:    4,
			MaxRetries: 3,
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// LLM API key from environment (check in priority order)
	if key := os.Getenv("DEEPSEEK_API_KEY"); key != "" {
		c.LLM.APIKey = key
		if c.LLM.Provider == "" {
			c.LLM.Provider = "deepseek"
		}
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "gemini"
	}
	if provider := os.Getenv("HEXCAST_LLM_PROVIDER"); provider != "" {
		c.LLM.Provider = provider
	}
	if model := os.Getenv("HEXCAST_LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}

	if addr := os.Getenv("HEXCAST_ADDR"); addr != "" {
		c.ListenAddr = addr
	}
	if path := os.Getenv("HEXCAST_DB"); path != "" {
		c.DatabasePath = path
	}

	if url := os.Getenv("HEXCAST_STORAGE_URL"); url != "" {
		c.Storage.BaseURL = url
	}
	if key := os.Getenv("HEXCAST_STORAGE_KEY"); key != "" {
		c.Storage.APIKey = key
	}
	if bucket := os.Getenv("HEXCAST_STORAGE_BUCKET"); bucket != "" {
		c.Storage.Bucket = bucket
	}

	if url := os.Getenv("HEXCAST_IDENTITY_URL"); url != "" {
		c.Identity.BaseURL = url
	}
	if key := os.Getenv("HEXCAST_IDENTITY_KEY"); key != "" {
		c.Identity.APIKey = key
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 90 * time.Second
	}
	return d
}

// GetStorageURLTTL returns the signed-URL lifetime as a duration.
func (c *Config) GetStorageURLTTL() time.Duration {
	d, err := time.ParseDuration(c.Storage.URLTTL)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

// GetStorageTimeout returns the storage API timeout as a duration.
func (c *Config) GetStorageTimeout() time.Duration {
	d, err := time.ParseDuration(c.Storage.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetIdentityCacheTTL returns the token cache TTL as a duration.
func (c *Config) GetIdentityCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.Identity.CacheTTL)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// GetIdentityTimeout returns the identity provider timeout as a duration.
func (c *Config) GetIdentityTimeout() time.Duration {
	d, err := time.ParseDuration(c.Identity.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{"deepseek", "gemini", "mock"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path must not be empty")
	}

	validProvider := false
	for _, p := range ValidProviders {
		if c.LLM.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}

	if c.LLM.Provider != "mock" && c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not configured (set DEEPSEEK_API_KEY or GEMINI_API_KEY)")
	}

	if c.Quota.DefaultDailyLimit < 0 {
		return fmt.Errorf("quota default_daily_limit must not be negative")
	}
	if c.Importer.Workers < 1 {
		return fmt.Errorf("importer workers must be at least 1")
	}
	if c.Importer.MaxRetries < 0 {
		return fmt.Errorf("importer max_retries must not be negative")
	}

	return nil
}
