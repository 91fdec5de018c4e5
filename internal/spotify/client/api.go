package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// GetCurrentUser returns the current user's profile.
func (c *Client) GetCurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.Get(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetDevices returns the user's available playback devices.
func (c *Client) GetDevices(ctx context.Context) ([]Device, error) {
	var resp DevicesResponse
	if err := c.Get(ctx, "/me/player/devices", &resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// GetPlaybackState returns the current playback state, or nil when nothing
// is playing on any device.
func (c *Client) GetPlaybackState(ctx context.Context) (*PlaybackState, error) {
	var state PlaybackState
	if err := c.Get(ctx, "/me/player", &state); err != nil {
		return nil, err
	}
	if state.Device.ID == "" && state.Item == nil {
		return nil, nil
	}
	return &state, nil
}

// SearchType represents a type of Spotify content to search.
type SearchType string

const (
	SearchTypeTrack SearchType = "track"
)

// SearchOptions configures a search query.
type SearchOptions struct {
	Query  string
	Types  []SearchType
	Limit  int
	Offset int
	Market string
}

// Search performs a search query.
func (c *Client) Search(ctx context.Context, opts SearchOptions) (*SearchResponse, error) {
	if opts.Query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}

	types := make([]string, len(opts.Types))
	for i, t := range opts.Types {
		types[i] = string(t)
	}
	if len(types) == 0 {
		types = []string{string(SearchTypeTrack)}
	}

	params := map[string]string{
		"q":    opts.Query,
		"type": strings.Join(types, ","),
	}

	if opts.Limit > 0 {
		params["limit"] = strconv.Itoa(opts.Limit)
	}
	if opts.Offset > 0 {
		params["offset"] = strconv.Itoa(opts.Offset)
	}
	if opts.Market != "" {
		params["market"] = opts.Market
	}

	var resp SearchResponse
	if err := c.Get(ctx, BuildURL("/search", params), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TrackQuery builds a field-filtered search query for a title and optional
// artist. Values are wrapped in plain double quotes; search has no escape
// syntax, so quotes inside a value are dropped.
func TrackQuery(title, artist string) string {
	q := "track:" + searchPhrase(title)
	if artist != "" {
		q += " artist:" + searchPhrase(artist)
	}
	return q
}

func searchPhrase(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, "") + `"`
}

// CreatePlaylistRequest is the body of a playlist creation call.
type CreatePlaylistRequest struct {
	Name          string `json:"name"`
	Public        bool   `json:"public"`
	Collaborative bool   `json:"collaborative"`
	Description   string `json:"description,omitempty"`
}

// CreatePlaylist creates a playlist owned by userID. An empty userID creates
// it for the current user.
func (c *Client) CreatePlaylist(ctx context.Context, userID string, req CreatePlaylistRequest) (*Playlist, error) {
	path := "/me/playlists"
	if userID != "" {
		path = "/users/" + url.PathEscape(userID) + "/playlists"
	}

	var playlist Playlist
	if err := c.Post(ctx, path, req, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// AddTracksToPlaylist appends tracks to the end of a playlist.
func (c *Client) AddTracksToPlaylist(ctx context.Context, playlistID string, uris []string) (*SnapshotResponse, error) {
	if len(uris) == 0 {
		return nil, fmt.Errorf("no tracks to add")
	}

	body := map[string]any{"uris": uris}
	var resp SnapshotResponse
	if err := c.Post(ctx, "/playlists/"+url.PathEscape(playlistID)+"/tracks", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UnfollowPlaylist removes a playlist from the current user's library. For a
// playlist the user owns this is how Spotify deletes it.
func (c *Client) UnfollowPlaylist(ctx context.Context, playlistID string) error {
	return c.Delete(ctx, "/playlists/"+url.PathEscape(playlistID)+"/followers")
}
