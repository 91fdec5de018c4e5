package core

import "time"

// Track represents a playable track returned by search.
type Track struct {
	ID       string        `json:"id"`
	URI      string        `json:"uri"`
	Title    string        `json:"title"`
	Artist   string        `json:"artist"`
	Artists  []string      `json:"artists"`
	Album    string        `json:"album"`
	Duration time.Duration `json:"duration"`
}

// ResolvedTrack is a query that search matched to a concrete track.
// It lives only for the request that produced it.
type ResolvedTrack struct {
	ID     string     `json:"id"`
	URI    string     `json:"uri"`
	Title  string     `json:"title"`
	Artist string     `json:"artist"`
	Query  TrackQuery `json:"query"`
}

// DisplayTitle returns "Title - Artist", or just the title.
func (t ResolvedTrack) DisplayTitle() string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Title + " - " + t.Artist
}
