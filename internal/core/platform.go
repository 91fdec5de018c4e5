package core

import "context"

// TrackSearcher finds tracks by title and optional artist, best match first.
type TrackSearcher interface {
	SearchTracks(ctx context.Context, title, artist string) ([]Track, error)
}

// SourceStore owns creation of ephemeral playback sources.
type SourceStore interface {
	CreateSource(ctx context.Context, name, description string) (PlaybackSource, error)
	AddTracks(ctx context.Context, source PlaybackSource, trackURIs []string) error
	DiscardSource(ctx context.Context, source PlaybackSource) error
}

// DeviceRegistry lists the account's output devices.
type DeviceRegistry interface {
	GetDevices(ctx context.Context) ([]Device, error)
}

// Pauser pauses playback on a device.
type Pauser interface {
	Pause(ctx context.Context, deviceID string) error
}

// StateReader reports what the account is currently playing.
type StateReader interface {
	GetState(ctx context.Context) (*PlaybackState, error)
}

// PlaybackControl drives playback on a device.
type PlaybackControl interface {
	DeviceRegistry
	Pauser
	StateReader
	TransferPlayback(ctx context.Context, deviceID string, play bool) error
	SetShuffle(ctx context.Context, deviceID string, on bool) error
	SetRepeat(ctx context.Context, deviceID string, mode RepeatMode) error
	PlaySource(ctx context.Context, deviceID string, source PlaybackSource, offset int) error
}

// Platform is the full streaming platform surface the loop pipeline uses.
type Platform interface {
	TrackSearcher
	SourceStore
	PlaybackControl
}
