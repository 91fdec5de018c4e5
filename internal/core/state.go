package core

import "time"

// RepeatMode is the platform repeat setting.
type RepeatMode string

const (
	RepeatOff     RepeatMode = "off"
	RepeatTrack   RepeatMode = "track"
	RepeatContext RepeatMode = "context"
)

// PlaybackState represents the current playback state.
type PlaybackState struct {
	Track      *Track        `json:"track"`
	Device     *Device       `json:"device"`
	ContextURI string        `json:"context_uri,omitempty"`
	IsPlaying  bool          `json:"is_playing"`
	Shuffle    bool          `json:"shuffle"`
	Repeat     RepeatMode    `json:"repeat"`
	Progress   time.Duration `json:"progress"`
}

// HasTrack returns true if there is an active track.
func (s *PlaybackState) HasTrack() bool {
	return s != nil && s.Track != nil
}

// IsLooping returns true if the given context is playing with repeat-context.
func (s *PlaybackState) IsLooping(contextURI string) bool {
	return s != nil && s.ContextURI == contextURI && s.Repeat == RepeatContext
}
