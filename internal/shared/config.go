package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	OAuth       OAuthConfig       `toml:"oauth"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
}

// OAuthConfig contains redirect listener and provider endpoint settings.
type OAuthConfig struct {
	Port           int      `toml:"port"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	AuthURL        string   `toml:"auth_url"`
	TokenURL       string   `toml:"token_url"`
	Scopes         []string `toml:"scopes"`
}

// CredentialsConfig contains provider credentials.
type CredentialsConfig struct {
	Google GoogleConfig `toml:"google"`
}

// GoogleConfig contains Google OAuth client credentials.
type GoogleConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// Timeout returns the configured redirect wait as a [time.Duration].
func (c OAuthConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RedirectURL is the redirect URI registered with the provider for the loopback listener.
func (c OAuthConfig) RedirectURL() string {
	return fmt.Sprintf("http://localhost:%d", c.Port)
}

// Validate reports whether the listener settings are usable.
func (c *Config) Validate() error {
	if c.OAuth.Port < 1 || c.OAuth.Port > 65535 {
		return fmt.Errorf("%w: oauth.port must be between 1 and 65535, got %d", ErrInvalidConfig, c.OAuth.Port)
	}
	if c.OAuth.TimeoutSeconds < 0 {
		return fmt.Errorf("%w: oauth.timeout_seconds must not be negative, got %d", ErrInvalidConfig, c.OAuth.TimeoutSeconds)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep their defaults. Environment variables take precedence over file values:
//   - WORKPLATE_GOOGLE_CLIENT_ID overrides credentials.google.client_id
//   - WORKPLATE_GOOGLE_CLIENT_SECRET overrides credentials.google.client_secret
//   - WORKPLATE_DB_PATH overrides database.path
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(config)
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path, creating parent directories as needed. The file is written with 0600
// permissions since it may hold a client secret.
func SaveConfig(path string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(config); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return f.Close()
}

func applyEnvOverrides(config *Config) {
	if v := os.Getenv("WORKPLATE_GOOGLE_CLIENT_ID"); v != "" {
		config.Credentials.Google.ClientID = v
	}
	if v := os.Getenv("WORKPLATE_GOOGLE_CLIENT_SECRET"); v != "" {
		config.Credentials.Google.ClientSecret = v
	}
	if v := os.Getenv("WORKPLATE_DB_PATH"); v != "" {
		config.Database.Path = v
	}
}
