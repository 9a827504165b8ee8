package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Shuffle.BaseDelayMS != 1000 {
			t.Errorf("expected base delay 1000ms, got %d", config.Shuffle.BaseDelayMS)
		}
		if config.Shuffle.BaseDelay() != time.Second {
			t.Errorf("expected base delay of one second, got %v", config.Shuffle.BaseDelay())
		}
		if config.Shuffle.LargeThreshold != 1000 {
			t.Errorf("expected large threshold 1000, got %d", config.Shuffle.LargeThreshold)
		}
		if config.Shuffle.BatchSize != MaxBatchSize {
			t.Errorf("expected batch size %d, got %d", MaxBatchSize, config.Shuffle.BatchSize)
		}
		if !config.Shuffle.Public {
			t.Error("expected shuffled playlists to be public by default")
		}
		if config.Shuffle.CleanupOnFailure {
			t.Error("expected cleanup on failure to be off by default")
		}
		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}
		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Spotify.Token() != nil {
			t.Error("expected no token in the default config")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Shuffle.Description != DefaultConfig().Shuffle.Description {
			t.Errorf("created config description doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[shuffle]
base_delay_ms = 250
public = false

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Shuffle.BaseDelay() != 250*time.Millisecond {
			t.Errorf("expected base delay 250ms, got %v", config.Shuffle.BaseDelay())
		}
		if config.Shuffle.Public {
			t.Error("expected public to be overridden to false")
		}
		if config.Shuffle.LargeThreshold != 1000 {
			t.Errorf("expected unspecified threshold to keep default, got %d", config.Shuffle.LargeThreshold)
		}
		if !config.Credentials.Spotify.HasClient() {
			t.Error("expected client credentials to be loaded")
		}
	})

	t.Run("template credentials are not a client", func(t *testing.T) {
		if DefaultConfig().Credentials.Spotify.HasClient() {
			t.Error("expected placeholder credentials to be rejected")
		}
	})

	t.Run("LoadConfig Invalid", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[shuffle]\nbatch_size = 500\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfigOrDefault Missing File", func(t *testing.T) {
		config, err := LoadConfigOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if config.Shuffle.BaseDelayMS != 1000 {
			t.Error("expected defaults when the file is missing")
		}
	})

	t.Run("SaveConfig Round Trips Token", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()

		expiry := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		if err := config.Credentials.Spotify.Update(&oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			Expiry:       expiry,
		}); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("SaveConfig() error = %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}

		token := loaded.Credentials.Spotify.Token()
		if token == nil {
			t.Fatal("expected token to be restored")
		}
		if token.AccessToken != "access" || token.RefreshToken != "refresh" {
			t.Errorf("unexpected token %+v", token)
		}
		if !token.Expiry.Equal(expiry) {
			t.Errorf("expected expiry %v, got %v", expiry, token.Expiry)
		}
	})

	t.Run("Update Keeps Refresh Token", func(t *testing.T) {
		sc := SpotifyConfig{RefreshToken: "original"}
		if err := sc.Update(&oauth2.Token{AccessToken: "new"}); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if sc.RefreshToken != "original" {
			t.Errorf("expected refresh token to be kept, got %q", sc.RefreshToken)
		}
		if err := sc.Update(nil); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for nil token, got %v", err)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("SPOTIFY_CLIENT_ID", "env_id")
		t.Setenv("SPOTIFY_CLIENT_SECRET", "env_secret")
		t.Setenv("SPOTIFY_REDIRECT_URI", "")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.Credentials.Spotify.ClientID != "env_id" {
			t.Errorf("expected client id from env, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Spotify.ClientSecret != "env_secret" {
			t.Errorf("expected client secret from env, got %s", config.Credentials.Spotify.ClientSecret)
		}
		if config.Credentials.Spotify.RedirectURI != "http://127.0.0.1:8080/callback" {
			t.Errorf("expected redirect uri to keep default, got %s", config.Credentials.Spotify.RedirectURI)
		}
	})

	t.Run("LoadEnv", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("PLSHUFFLE_TEST_VALUE=from_dotenv\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("PLSHUFFLE_TEST_VALUE") })

		if err := LoadEnv(envPath, filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Fatalf("LoadEnv() error = %v", err)
		}
		if got := os.Getenv("PLSHUFFLE_TEST_VALUE"); got != "from_dotenv" {
			t.Errorf("expected value from .env, got %q", got)
		}
	})
}
