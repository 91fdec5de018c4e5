package core

import (
	"errors"
	"strings"
	"time"
)

// TrackQuery is one requested title with an optional artist.
type TrackQuery struct {
	Title  string `json:"title"`
	Artist string `json:"artist,omitempty"`
}

// Key returns the normalized (title, artist) pair used for de-duplication.
func (q TrackQuery) Key() string {
	return normalize(q.Title) + "\x00" + normalize(q.Artist)
}

// String returns `"Title" - Artist` as it would appear in a command.
func (q TrackQuery) String() string {
	if q.Artist == "" {
		return `"` + q.Title + `"`
	}
	return `"` + q.Title + `" - ` + q.Artist
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// PlayIntent is the structured form of a play command.
type PlayIntent struct {
	Queries   []TrackQuery   `json:"queries"`
	Deadline  time.Time      `json:"deadline"`
	Device    DeviceSelector `json:"device"`
	CreatedAt time.Time      `json:"created_at"`
}

// Validate reports whether the intent can be played.
func (i *PlayIntent) Validate() error {
	if len(i.Queries) == 0 {
		return errors.New("at least one track is required")
	}
	for _, q := range i.Queries {
		if strings.TrimSpace(q.Title) == "" {
			return errors.New("track titles must not be empty")
		}
	}
	if !i.Deadline.After(i.CreatedAt) {
		return errors.New("deadline must be in the future")
	}
	return nil
}

// Titles returns the query titles in order.
func (i *PlayIntent) Titles() []string {
	titles := make([]string, len(i.Queries))
	for n, q := range i.Queries {
		titles[n] = q.Title
	}
	return titles
}
