package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	lerrors "github.com/siva673/loop-agent/internal/errors"
)

func TestLoadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := []byte("" +
		"[spotify]\n" +
		"client_id = \"abc\"\n" +
		"market = \"US\"\n" +
		"\n" +
		"[defaults]\n" +
		"device = \"iPhone\"\n" +
		"cleanup_playlists = true\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Spotify.ClientID != "abc" {
		t.Errorf("ClientID = %q, want %q", cfg.Spotify.ClientID, "abc")
	}
	if cfg.Defaults.Device != "iPhone" {
		t.Errorf("Device = %q, want %q", cfg.Defaults.Device, "iPhone")
	}
	if !cfg.Defaults.CleanupPlaylists {
		t.Error("CleanupPlaylists = false, want true")
	}
	// Defaults fill the rest
	if cfg.Server.Listen != ":5055" {
		t.Errorf("Listen = %q, want %q", cfg.Server.Listen, ":5055")
	}
	if cfg.Playback.DeviceReadyBackoff() != 750*time.Millisecond {
		t.Errorf("DeviceReadyBackoff() = %v", cfg.Playback.DeviceReadyBackoff())
	}
}

func TestLoadFromErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFrom(filepath.Join(dir, "missing.toml"))
	if !errors.Is(err, lerrors.ErrConfigNotFound) {
		t.Errorf("LoadFrom(missing) error = %v, want ErrConfigNotFound", err)
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("[spotify\nclient_id = "), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err = LoadFrom(bad)
	if !errors.Is(err, lerrors.ErrInvalidConfig) {
		t.Errorf("LoadFrom(bad) error = %v, want ErrInvalidConfig", err)
	}
	if !strings.Contains(lerrors.GetSuggestion(err), "LOOP_AGENT_") {
		t.Errorf("GetSuggestion() = %q", lerrors.GetSuggestion(err))
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LOOP_AGENT_SPOTIFY_CLIENT_ID", "from-env")
	t.Setenv("PORT", "8080")
	t.Setenv("LOOP_AGENT_LOG_LEVEL", "debug")

	cfg := &Config{}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	if cfg.Spotify.ClientID != "from-env" {
		t.Errorf("ClientID = %q, want %q", cfg.Spotify.ClientID, "from-env")
	}
	if cfg.Server.Listen != ":8080" {
		t.Errorf("Listen = %q, want %q", cfg.Server.Listen, ":8080")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "invalid log level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "invalid log format"},
		{"relative redirect", func(c *Config) { c.Spotify.RedirectURI = "/callback" }, "redirect_uri"},
		{"negative backoff", func(c *Config) { c.Playback.DeviceReadyBackoffMS = -1 }, "device_ready_backoff_ms"},
		{"bad timezone", func(c *Config) { c.Defaults.Timezone = "Mars/Olympus" }, "invalid timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
			if !errors.Is(err, lerrors.ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	d := DefaultsConfig{}
	if d.Location() != time.Local {
		t.Error("empty timezone should use time.Local")
	}

	d.Timezone = "UTC"
	if d.Location().String() != "UTC" {
		t.Errorf("Location() = %v, want UTC", d.Location())
	}
}
