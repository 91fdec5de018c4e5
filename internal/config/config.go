package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	lerrors "github.com/siva673/loop-agent/internal/errors"
)

// AppName names the config directory and dotfile.
const AppName = "loop-agent"

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.loop-agentrc, $XDG_CONFIG_HOME/loop-agent/config.toml, ~/.config/loop-agent/config.toml
func Load() (*Config, error) {
	cfg := &Config{}

	path := findConfigFile()
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if err := decodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	_, err := toml.DecodeFile(path, cfg)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %s", lerrors.ErrConfigNotFound, path)
	default:
		return fmt.Errorf("%w: %s: %w", lerrors.ErrInvalidConfig, path, err)
	}
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	paths := []string{
		filepath.Join(home, "."+AppName+"rc"),
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	paths = append(paths, filepath.Join(xdgConfig, AppName, "config.toml"))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Spotify
	if v := os.Getenv("LOOP_AGENT_SPOTIFY_CLIENT_ID"); v != "" {
		cfg.Spotify.ClientID = v
	}
	if v := os.Getenv("LOOP_AGENT_SPOTIFY_CLIENT_SECRET"); v != "" {
		cfg.Spotify.ClientSecret = v
	}
	if v := os.Getenv("LOOP_AGENT_SPOTIFY_REDIRECT_URI"); v != "" {
		cfg.Spotify.RedirectURI = v
	}
	if v := os.Getenv("LOOP_AGENT_SPOTIFY_TOKEN_PATH"); v != "" {
		cfg.Spotify.TokenPath = v
	}

	// Server; PORT is set by most PaaS hosts
	if v := os.Getenv("PORT"); v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			cfg.Server.Listen = ":" + v
		}
	}
	if v := os.Getenv("LOOP_AGENT_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}

	// Defaults
	if v := os.Getenv("LOOP_AGENT_DEFAULT_DEVICE"); v != "" {
		cfg.Defaults.Device = v
	}
	if v := os.Getenv("LOOP_AGENT_TIMEZONE"); v != "" {
		cfg.Defaults.Timezone = v
	}

	// Log
	if v := os.Getenv("LOOP_AGENT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOOP_AGENT_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}
