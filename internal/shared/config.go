package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend     BackendConfig     `toml:"backend"`
	Credentials CredentialsConfig `toml:"credentials"`
	Storage     StorageConfig     `toml:"storage"`
	Database    DatabaseConfig    `toml:"database"`
}

// BackendConfig contains settings for the hosted relational backend.
type BackendConfig struct {
	BaseURL string  `toml:"base_url"`
	AnonKey string  `toml:"anon_key"`
	Rate    float64 `toml:"rate_limit"` // requests per second, 0 disables limiting
}

// CredentialsConfig contains identity provider credentials.
type CredentialsConfig struct {
	TokenURL     string `toml:"token_url"`
	RevokeURL    string `toml:"revoke_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	TokenPath    string `toml:"token_path"`
}

// StorageConfig contains blob storage settings for audio uploads.
type StorageConfig struct {
	BaseURL string `toml:"base_url"`
	Bucket  string `toml:"bucket"`
}

// DatabaseConfig contains settings for the local SQLite backend.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
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
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
