package core

import "time"

// PlaybackSource is the ephemeral playlist that drives one loop session.
type PlaybackSource struct {
	ID        string   `json:"id"`
	URI       string   `json:"uri"`
	Name      string   `json:"name"`
	TrackURIs []string `json:"track_uris"`
}

// Len returns the number of tracks in the source.
func (s *PlaybackSource) Len() int {
	if s == nil {
		return 0
	}
	return len(s.TrackURIs)
}

// IsEmpty returns true if the source has no tracks.
func (s *PlaybackSource) IsEmpty() bool {
	return s.Len() == 0
}

// ActiveSession is a loop that is playing on a device and waiting for its stop.
type ActiveSession struct {
	ID        string         `json:"id"`
	Device    Device         `json:"device"`
	Source    PlaybackSource `json:"source"`
	StartedAt time.Time      `json:"started_at"`
}
