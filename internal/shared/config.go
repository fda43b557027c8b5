package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Accounts    AccountsConfig    `toml:"accounts"`
	Transfer    TransferConfig    `toml:"transfer"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials shared by both accounts.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// Map converts the Spotify credentials to the map form the services package consumes.
func (c SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     c.ClientID,
		"client_secret": c.ClientSecret,
		"redirect_uri":  c.RedirectURI,
	}
}

// AccountsConfig holds the token sets for the two accounts a transfer runs between.
type AccountsConfig struct {
	Source AccountConfig `toml:"source"`
	Dest   AccountConfig `toml:"dest"`
}

// AccountConfig contains one account's OAuth2 token set.
type AccountConfig struct {
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
	Expiry       string `toml:"expiry"`
}

// Update stores an [oauth2.Token] into the account section.
func (a *AccountConfig) Update(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidCredentials)
	}
	a.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		a.RefreshToken = token.RefreshToken
	}
	if !token.Expiry.IsZero() {
		a.Expiry = token.Expiry.Format(time.RFC3339)
	}
	return nil
}

// Token reconstructs the stored [oauth2.Token], or nil if the account has never authorized.
func (a AccountConfig) Token() *oauth2.Token {
	if a.AccessToken == "" {
		return nil
	}
	token := &oauth2.Token{
		AccessToken:  a.AccessToken,
		RefreshToken: a.RefreshToken,
	}
	if a.Expiry != "" {
		if expiry, err := time.Parse(time.RFC3339, a.Expiry); err == nil {
			token.Expiry = expiry
		}
	}
	return token
}

// TransferConfig contains the pipeline's retry and pacing parameters.
//
// Defaults are documented in config.example.toml; they trade runtime
// against reliability and ordering fidelity.
type TransferConfig struct {
	PageLimit      int `toml:"page_limit"`
	MaxRetries     int `toml:"max_retries"`
	RetryBackoffMS int `toml:"retry_backoff_ms"`
	DelayMS        int `toml:"delay_ms"`
}

// RetryBackoff returns the base backoff as a [time.Duration].
func (t TransferConfig) RetryBackoff() time.Duration {
	return time.Duration(t.RetryBackoffMS) * time.Millisecond
}

// Delay returns the inter-insertion pause as a [time.Duration].
func (t TransferConfig) Delay() time.Duration {
	return time.Duration(t.DelayMS) * time.Millisecond
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
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

// SaveConfig writes the configuration back to disk as TOML.
//
// Tokens live in this file, so it is written user-only.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
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
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
