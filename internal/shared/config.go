package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Session     SessionConfig     `toml:"session"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Conversion  ConversionConfig  `toml:"conversion"`
	Log         LogConfig         `toml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host                   string  `toml:"host"`
	Port                   int     `toml:"port" validate:"min=1,max=65535"`
	SessionSecret          string  `toml:"session_secret" validate:"required,min=16"`
	SessionTTLHours        int     `toml:"session_ttl_hours" validate:"min=1"`
	SecureCookies          bool    `toml:"secure_cookies"`
	UpstreamTimeoutSeconds int     `toml:"upstream_timeout_seconds" validate:"min=1"`
	ConvertRate            float64 `toml:"convert_rate" validate:"min=0"`
	ConvertBurst           int     `toml:"convert_burst" validate:"min=0"`
}

// SessionConfig selects where web sessions (and the tokens bound to them) live.
type SessionConfig struct {
	Backend string `toml:"backend" validate:"oneof=memory sqlite"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	YouTube YouTubeConfig `toml:"youtube"`
}

// SpotifyConfig contains Spotify API credentials and the token saved by `ytexport auth`.
type SpotifyConfig struct {
	ClientID     string    `toml:"client_id" validate:"required"`
	ClientSecret string    `toml:"client_secret" validate:"required"`
	RedirectURI  string    `toml:"redirect_uri" validate:"required,url"`
	Scope        string    `toml:"scope"`
	APIURL       string    `toml:"api_url" validate:"required,url"`
	AuthURL      string    `toml:"auth_url" validate:"required,url"`
	TokenURL     string    `toml:"token_url" validate:"required,url"`
	AccessToken  string    `toml:"access_token,omitempty"`
	RefreshToken string    `toml:"refresh_token,omitempty"`
	TokenExpiry  time.Time `toml:"token_expiry,omitempty"`
}

// YouTubeConfig points at the ytmusicapi proxy used for catalog searches.
type YouTubeConfig struct {
	ProxyURL string `toml:"proxy_url" validate:"required,url"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ConversionConfig tunes the conversion pipeline.
type ConversionConfig struct {
	Concurrency int `toml:"concurrency" validate:"min=1,max=16"`
}

// LogConfig holds the log level and the file used by the TUI.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// Load resolves the effective configuration: the file at path (or the defaults when it does not exist),
// then a .env file in the working directory, then the process environment.
func Load(path string) (*Config, error) {
	config, err := LoadConfig(path)
	if errors.Is(err, ErrMissingConfig) {
		config = DefaultConfig()
	} else if err != nil {
		return nil, err
	}

	if err := LoadEnvFile(".env"); err != nil {
		return nil, err
	}
	config.ApplyEnv()
	return config, nil
}

// LoadEnvFile loads variables from the given dotenv files without overriding ones already set.
// Missing files are ignored.
func LoadEnvFile(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides configuration values with the environment.
func (c *Config) ApplyEnv() {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setString("YTX_SESSION_SECRET", &c.Server.SessionSecret)
	setString("SPOTIFY_CLIENT_ID", &c.Credentials.Spotify.ClientID)
	setString("SPOTIFY_CLIENT_SECRET", &c.Credentials.Spotify.ClientSecret)
	setString("SPOTIFY_REDIRECT_URI", &c.Credentials.Spotify.RedirectURI)
	setString("YTX_PROXY_URL", &c.Credentials.YouTube.ProxyURL)
	setString("YTX_LOG_LEVEL", &c.Log.Level)
	setString("YTX_DATABASE_PATH", &c.Database.Path)

	if v, ok := os.LookupEnv("YTX_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// Validate checks the settings required to run the web server.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ValidateCredentials checks only the Spotify and proxy settings, which is all the CLI needs.
func (c *Config) ValidateCredentials() error {
	if err := validate.Struct(c.Credentials); err != nil {
		return fmt.Errorf("%w: %v", ErrMissingCredentials, err)
	}
	return nil
}

// Addr returns the host:port the web server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// SessionTTL returns the configured session lifetime.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Server.SessionTTLHours) * time.Hour
}

// UpstreamTimeout returns the timeout applied to catalog HTTP requests.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Server.UpstreamTimeoutSeconds) * time.Second
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

	if err := os.WriteFile(path, exampleConf, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
