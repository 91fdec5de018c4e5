package config

// Config is the root configuration structure.
type Config struct {
	Spotify  SpotifyConfig  `toml:"spotify"`
	Server   ServerConfig   `toml:"server"`
	Defaults DefaultsConfig `toml:"defaults"`
	Playback PlaybackConfig `toml:"playback"`
	Log      LogConfig      `toml:"log"`
}

// SpotifyConfig holds Spotify API settings.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	TokenPath    string `toml:"token_path"`
	Market       string `toml:"market"`
	MaxRetries   int    `toml:"max_retries"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Listen              string `toml:"listen"`
	ReadTimeoutSeconds  int    `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `toml:"write_timeout_seconds"`
}

// DefaultsConfig holds defaults applied to play commands.
type DefaultsConfig struct {
	Device           string `toml:"device"`
	Timezone         string `toml:"timezone"`
	PlaylistPrefix   string `toml:"playlist_prefix"`
	CleanupPlaylists bool   `toml:"cleanup_playlists"`
}

// PlaybackConfig holds timing for the playback controller and stop scheduler.
type PlaybackConfig struct {
	DeviceReadyBackoffMS int `toml:"device_ready_backoff_ms"`
	StopTimeoutSeconds   int `toml:"stop_timeout_seconds"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}
