package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all medstore configuration.
type Config struct {
	Name string `yaml:"name"`

	// Store backend (Product + Order API)
	API APIConfig `yaml:"api"`

	// Durable client-side storage for the cart and last order
	Storage StorageConfig `yaml:"storage"`

	// Storefront presentation settings
	Shop ShopConfig `yaml:"shop"`

	// Bank transfer details shown on the payment page
	Bank BankConfig `yaml:"bank"`

	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the remote store API.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	Backend    string `yaml:"backend"` // file, sqlite, redis, memory
	Dir        string `yaml:"dir"`     // file backend directory (relative to workspace)
	SQLitePath string `yaml:"sqlite_path"`
	RedisURL   string `yaml:"redis_url"`
	KeyPrefix  string `yaml:"key_prefix"` // redis only
}

// ShopConfig configures storefront behaviour.
type ShopConfig struct {
	WhatsAppFallbackURL string `yaml:"whatsapp_fallback_url"`
	CurrencySymbol      string `yaml:"currency_symbol"`
	FeaturedLimit       int    `yaml:"featured_limit"`
}

// BankConfig holds manual bank-transfer details.
type BankConfig struct {
	BankName      string `yaml:"bank_name"`
	AccountName   string `yaml:"account_name"`
	AccountNumber string `yaml:"account_number"`
	Note          string `yaml:"note"`
}

// Storage backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// ValidBackends lists all supported storage backends.
var ValidBackends = []string{BackendFile, BackendSQLite, BackendRedis, BackendMemory}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name: "MedStore",

		API: APIConfig{
			BaseURL: "http://127.0.0.1:8000",
			Timeout: "15s",
		},

		Storage: StorageConfig{
			Backend:    BackendFile,
			Dir:        ".medstore/state",
			SQLitePath: ".medstore/medstore.db",
			RedisURL:   "redis://localhost:6379/0",
			KeyPrefix:  "medstore:",
		},

		Shop: ShopConfig{
			WhatsAppFallbackURL: "https://wa.me/2340000000000",
			CurrencySymbol:      "₦",
			FeaturedLimit:       3,
		},

		Bank: BankConfig{
			BankName:      "Opay Microfinance Bank",
			AccountName:   "MedStore",
			AccountNumber: "0000000000",
			Note:          "Use your Order ID as narration/description when transferring.",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultConfigPath returns the config location inside a workspace.
func DefaultConfigPath(workspace string) string {
	return filepath.Join(workspace, ".medstore", "config.yaml")
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Defaults if config file doesn't exist
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
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
	if v := os.Getenv("MEDSTORE_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("MEDSTORE_STORAGE"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("MEDSTORE_REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	}
	if v := os.Getenv("MEDSTORE_DB"); v != "" {
		c.Storage.SQLitePath = v
	}
}

// GetAPITimeout returns the API timeout as a duration.
func (c *Config) GetAPITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// GetFeaturedLimit returns how many products the featured row may hold.
func (c *Config) GetFeaturedLimit() int {
	if c.Shop.FeaturedLimit <= 0 {
		return 3
	}
	return c.Shop.FeaturedLimit
}

// ResolvePath makes a configured relative path absolute against the workspace.
func ResolvePath(workspace, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(workspace, p)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api.base_url %q: must be an absolute http(s) URL", c.API.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid api.base_url scheme %q", u.Scheme)
	}

	valid := false
	for _, b := range ValidBackends {
		if c.Storage.Backend == b {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid storage backend: %s (valid: %v)", c.Storage.Backend, ValidBackends)
	}
	if c.Storage.Backend == BackendRedis && c.Storage.RedisURL == "" {
		return fmt.Errorf("storage.redis_url is required for the redis backend")
	}

	return nil
}
