package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./ytexport.db" {
			t.Errorf("expected database path ./ytexport.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 5000 {
			t.Errorf("expected server port 5000, got %d", config.Server.Port)
		}

		if config.Credentials.Spotify.Scope != "playlist-read-private" {
			t.Errorf("expected scope playlist-read-private, got %s", config.Credentials.Spotify.Scope)
		}

		if config.Credentials.Spotify.RedirectURI != "http://127.0.0.1:5000/callback" {
			t.Errorf("unexpected redirect uri %s", config.Credentials.Spotify.RedirectURI)
		}

		if config.Credentials.YouTube.ProxyURL != "http://127.0.0.1:8080" {
			t.Errorf("expected youtube proxy URL http://127.0.0.1:8080, got %s", config.Credentials.YouTube.ProxyURL)
		}

		if config.Session.Backend != "memory" {
			t.Errorf("expected memory session backend, got %s", config.Session.Backend)
		}

		if config.Conversion.Concurrency != 1 {
			t.Errorf("expected sequential matching by default, got %d", config.Conversion.Concurrency)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		t.Run("Overrides Defaults", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			testConfig := `[server]
host = "0.0.0.0"
port = 8080

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"

[conversion]
concurrency = 4
`
			if err := os.WriteFile(configPath, []byte(testConfig), 0o644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			config, err := LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to load config: %v", err)
			}

			if config.Server.Port != 8080 || config.Addr() != "0.0.0.0:8080" {
				t.Errorf("unexpected addr %s", config.Addr())
			}

			if config.Credentials.Spotify.ClientID != "test_client_id" {
				t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
			}

			if config.Credentials.Spotify.TokenURL != "https://accounts.spotify.com/api/token" {
				t.Errorf("expected default token url to survive, got %s", config.Credentials.Spotify.TokenURL)
			}

			if config.Conversion.Concurrency != 4 {
				t.Errorf("expected concurrency 4, got %d", config.Conversion.Concurrency)
			}
		})

		t.Run("Missing File", func(t *testing.T) {
			_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
			if !errors.Is(err, ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})

		t.Run("Malformed File", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(configPath, []byte("[server\nport = "), 0o644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			if _, err := LoadConfig(configPath); err == nil {
				t.Error("expected parse error")
			}
		})
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("YTX_SESSION_SECRET", "from-the-environment")
		t.Setenv("SPOTIFY_CLIENT_ID", "env_client")
		t.Setenv("YTX_PROXY_URL", "http://proxy.internal:9000")
		t.Setenv("YTX_PORT", "6000")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.Server.SessionSecret != "from-the-environment" {
			t.Errorf("session secret not overridden: %q", config.Server.SessionSecret)
		}
		if config.Credentials.Spotify.ClientID != "env_client" {
			t.Errorf("client id not overridden: %q", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.YouTube.ProxyURL != "http://proxy.internal:9000" {
			t.Errorf("proxy url not overridden: %q", config.Credentials.YouTube.ProxyURL)
		}
		if config.Server.Port != 6000 {
			t.Errorf("port not overridden: %d", config.Server.Port)
		}
	})

	t.Run("LoadEnvFile", func(t *testing.T) {
		t.Run("Missing File Ignored", func(t *testing.T) {
			if err := LoadEnvFile(filepath.Join(t.TempDir(), ".env")); err != nil {
				t.Errorf("expected missing .env to be ignored, got %v", err)
			}
		})

		t.Run("Sets Variables", func(t *testing.T) {
			envPath := filepath.Join(t.TempDir(), ".env")
			if err := os.WriteFile(envPath, []byte("YTX_TEST_DOTENV_VALUE=loaded\n"), 0o644); err != nil {
				t.Fatalf("failed to write .env: %v", err)
			}
			t.Cleanup(func() { os.Unsetenv("YTX_TEST_DOTENV_VALUE") })

			if err := LoadEnvFile(envPath); err != nil {
				t.Fatalf("failed to load .env: %v", err)
			}
			if got := os.Getenv("YTX_TEST_DOTENV_VALUE"); got != "loaded" {
				t.Errorf("expected value from .env, got %q", got)
			}
		})
	})

	t.Run("Validate", func(t *testing.T) {
		t.Run("Default Config Lacks Secret", func(t *testing.T) {
			err := DefaultConfig().Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})

		t.Run("Complete Config", func(t *testing.T) {
			config := DefaultConfig()
			config.Server.SessionSecret = "0123456789abcdef0123"
			if err := config.Validate(); err != nil {
				t.Errorf("expected valid config, got %v", err)
			}
		})

		t.Run("Unknown Session Backend", func(t *testing.T) {
			config := DefaultConfig()
			config.Server.SessionSecret = "0123456789abcdef0123"
			config.Session.Backend = "redis"
			if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})

		t.Run("Credentials Only", func(t *testing.T) {
			config := DefaultConfig()
			if err := config.ValidateCredentials(); err != nil {
				t.Errorf("expected example credentials to pass, got %v", err)
			}

			config.Credentials.Spotify.ClientID = ""
			if err := config.ValidateCredentials(); !errors.Is(err, ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("SaveConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		config.Credentials.Spotify.AccessToken = "access"
		config.Credentials.Spotify.RefreshToken = "refresh"
		config.Credentials.Spotify.TokenExpiry = time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to reload config: %v", err)
		}

		if loaded.Credentials.Spotify.RefreshToken != "refresh" {
			t.Errorf("refresh token not persisted: %q", loaded.Credentials.Spotify.RefreshToken)
		}
		if !loaded.Credentials.Spotify.TokenExpiry.Equal(config.Credentials.Spotify.TokenExpiry) {
			t.Errorf("expiry not persisted: %v", loaded.Credentials.Spotify.TokenExpiry)
		}
	})
}
