package config

import "time"

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			RedirectURI: "http://127.0.0.1:5055/callback",
		},
		Server: ServerConfig{
			Listen:              ":5055",
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 60,
		},
		Defaults: DefaultsConfig{
			PlaylistPrefix: "Loop Agent",
		},
		Playback: PlaybackConfig{
			DeviceReadyBackoffMS: 750,
			StopTimeoutSeconds:   15,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Spotify
	if c.Spotify.RedirectURI == "" {
		c.Spotify.RedirectURI = d.Spotify.RedirectURI
	}

	// Server
	if c.Server.Listen == "" {
		c.Server.Listen = d.Server.Listen
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = d.Server.ReadTimeoutSeconds
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = d.Server.WriteTimeoutSeconds
	}

	// Defaults
	if c.Defaults.PlaylistPrefix == "" {
		c.Defaults.PlaylistPrefix = d.Defaults.PlaylistPrefix
	}

	// Playback
	if c.Playback.DeviceReadyBackoffMS == 0 {
		c.Playback.DeviceReadyBackoffMS = d.Playback.DeviceReadyBackoffMS
	}
	if c.Playback.StopTimeoutSeconds == 0 {
		c.Playback.StopTimeoutSeconds = d.Playback.StopTimeoutSeconds
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// DeviceReadyBackoff returns the wait before re-attempting a device step.
func (c *PlaybackConfig) DeviceReadyBackoff() time.Duration {
	return time.Duration(c.DeviceReadyBackoffMS) * time.Millisecond
}

// StopTimeout bounds the pause call made when a loop ends.
func (c *PlaybackConfig) StopTimeout() time.Duration {
	return time.Duration(c.StopTimeoutSeconds) * time.Second
}

// Location returns the configured timezone, or the local zone.
func (c *DefaultsConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
