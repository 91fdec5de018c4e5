package player

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/siva673/loop-agent/internal/core"
	lerrors "github.com/siva673/loop-agent/internal/errors"
	"github.com/siva673/loop-agent/internal/spotify/client"
)

// API is the subset of the Spotify client the player drives.
type API interface {
	GetCurrentUser(ctx context.Context) (*client.User, error)
	GetDevices(ctx context.Context) ([]client.Device, error)
	GetPlaybackState(ctx context.Context) (*client.PlaybackState, error)
	Search(ctx context.Context, opts client.SearchOptions) (*client.SearchResponse, error)
	CreatePlaylist(ctx context.Context, userID string, req client.CreatePlaylistRequest) (*client.Playlist, error)
	AddTracksToPlaylist(ctx context.Context, playlistID string, uris []string) (*client.SnapshotResponse, error)
	UnfollowPlaylist(ctx context.Context, playlistID string) error
	Play(ctx context.Context, deviceID string, opts *client.PlayOptions) error
	Pause(ctx context.Context, deviceID string) error
	SetShuffle(ctx context.Context, state bool, deviceID string) error
	SetRepeat(ctx context.Context, state string, deviceID string) error
	TransferPlayback(ctx context.Context, deviceID string, play bool) error
}

// Player implements core.Platform for Spotify.
type Player struct {
	api    API
	market string

	mu     sync.Mutex
	userID string
}

// New creates a new Spotify player. market is the ISO country used to rank
// search results; empty means the account's own market.
func New(api API, market string) *Player {
	return &Player{api: api, market: market}
}

// SearchTracks returns the best match for a title and optional artist.
func (p *Player) SearchTracks(ctx context.Context, title, artist string) ([]core.Track, error) {
	resp, err := p.api.Search(ctx, client.SearchOptions{
		Query:  client.TrackQuery(title, artist),
		Types:  []client.SearchType{client.SearchTypeTrack},
		Limit:  1,
		Market: p.market,
	})
	if err != nil {
		return nil, mapError("search tracks", err, false)
	}
	if resp.Tracks == nil {
		return nil, nil
	}

	tracks := make([]core.Track, 0, len(resp.Tracks.Items))
	for i := range resp.Tracks.Items {
		tracks = append(tracks, *convertTrack(&resp.Tracks.Items[i]))
	}
	return tracks, nil
}

// CreateSource creates a private, non-collaborative playlist.
func (p *Player) CreateSource(ctx context.Context, name, description string) (core.PlaybackSource, error) {
	userID, err := p.currentUserID(ctx)
	if err != nil {
		return core.PlaybackSource{}, err
	}

	playlist, err := p.api.CreatePlaylist(ctx, userID, client.CreatePlaylistRequest{
		Name:        name,
		Public:      false,
		Description: description,
	})
	if err != nil {
		return core.PlaybackSource{}, mapError("create playlist", err, false)
	}

	return core.PlaybackSource{
		ID:   playlist.ID,
		URI:  playlist.URI,
		Name: playlist.Name,
	}, nil
}

// AddTracks appends tracks to the source playlist.
func (p *Player) AddTracks(ctx context.Context, source core.PlaybackSource, trackURIs []string) error {
	if _, err := p.api.AddTracksToPlaylist(ctx, source.ID, trackURIs); err != nil {
		return mapError("add tracks", err, false)
	}
	return nil
}

// DiscardSource unfollows the source playlist.
func (p *Player) DiscardSource(ctx context.Context, source core.PlaybackSource) error {
	return mapError("unfollow playlist", p.api.UnfollowPlaylist(ctx, source.ID), false)
}

func (p *Player) currentUserID(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.userID != "" {
		return p.userID, nil
	}
	user, err := p.api.GetCurrentUser(ctx)
	if err != nil {
		return "", mapError("get current user", err, false)
	}
	p.userID = user.ID
	return p.userID, nil
}

// GetDevices returns the user's available playback devices.
func (p *Player) GetDevices(ctx context.Context) ([]core.Device, error) {
	devices, err := p.api.GetDevices(ctx)
	if err != nil {
		return nil, mapError("list devices", err, false)
	}

	result := make([]core.Device, len(devices))
	for i, d := range devices {
		result[i] = *convertDevice(&d)
	}
	return result, nil
}

// TransferPlayback transfers playback to a different device.
func (p *Player) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	return mapError("transfer playback", p.api.TransferPlayback(ctx, deviceID, play), true)
}

// SetShuffle turns shuffle on or off on a device.
func (p *Player) SetShuffle(ctx context.Context, deviceID string, on bool) error {
	return mapError("set shuffle", p.api.SetShuffle(ctx, on, deviceID), true)
}

// SetRepeat sets the repeat mode on a device.
func (p *Player) SetRepeat(ctx context.Context, deviceID string, mode core.RepeatMode) error {
	return mapError("set repeat", p.api.SetRepeat(ctx, string(mode), deviceID), true)
}

// PlaySource starts the source playlist at a track index.
func (p *Player) PlaySource(ctx context.Context, deviceID string, source core.PlaybackSource, offset int) error {
	err := p.api.Play(ctx, deviceID, &client.PlayOptions{
		ContextURI: source.URI,
		Offset:     &client.PlayOffset{Position: offset},
	})
	return mapError("start playback", err, true)
}

// Pause pauses playback on a device.
func (p *Player) Pause(ctx context.Context, deviceID string) error {
	return mapError("pause playback", p.api.Pause(ctx, deviceID), true)
}

// GetState returns the current playback state.
func (p *Player) GetState(ctx context.Context) (*core.PlaybackState, error) {
	state, err := p.api.GetPlaybackState(ctx)
	if err != nil {
		return nil, mapError("get playback state", err, false)
	}

	if state == nil {
		return &core.PlaybackState{}, nil
	}

	coreState := &core.PlaybackState{
		IsPlaying: state.IsPlaying,
		Shuffle:   state.ShuffleState,
		Repeat:    core.RepeatMode(state.RepeatState),
		Progress:  time.Duration(state.ProgressMS) * time.Millisecond,
	}

	if state.Device.ID != "" {
		coreState.Device = convertDevice(&state.Device)
	}

	if state.Item != nil {
		coreState.Track = convertTrack(state.Item)
	}

	if state.Context != nil {
		coreState.ContextURI = state.Context.URI
	}

	return coreState, nil
}

// mapError classifies a client failure. Player endpoints answer 404 and
// 502/503 while a device is waking up; those become device-not-ready.
func mapError(op string, err error, playerEndpoint bool) error {
	if err == nil {
		return nil
	}
	if lerrors.Is(err, lerrors.KindAuth) {
		return lerrors.Wrap(lerrors.KindAuth, op, err)
	}

	status := client.StatusOf(err)
	switch {
	case status == http.StatusUnauthorized:
		return lerrors.Wrap(lerrors.KindAuth, op, fmt.Errorf("%w: %w", lerrors.ErrNotAuthenticated, err))
	case playerEndpoint && (client.IsNoActiveDeviceError(err) ||
		status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable):
		return lerrors.Wrap(lerrors.KindUpstream, op, fmt.Errorf("%w: %w", lerrors.ErrDeviceNotReady, err))
	case client.IsPremiumRequiredError(err):
		return lerrors.Wrap(lerrors.KindUpstream, op, fmt.Errorf("%w: %w", lerrors.ErrPremiumRequired, err))
	case status == http.StatusTooManyRequests:
		return lerrors.Wrap(lerrors.KindUpstream, op, fmt.Errorf("%w: %w", lerrors.ErrRateLimited, err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return lerrors.Wrap(lerrors.KindUpstream, op+" interrupted", err)
	default:
		return lerrors.Wrap(lerrors.KindUpstream, op, err)
	}
}

// convertTrack converts a Spotify track to a core track.
func convertTrack(t *client.Track) *core.Track {
	if t == nil {
		return nil
	}

	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	artist := ""
	if len(artists) > 0 {
		artist = artists[0]
	}

	return &core.Track{
		ID:       t.ID,
		URI:      t.URI,
		Title:    t.Name,
		Artist:   artist,
		Artists:  artists,
		Album:    t.Album.Name,
		Duration: time.Duration(t.DurationMS) * time.Millisecond,
	}
}

// convertDevice converts a Spotify device to a core device.
func convertDevice(d *client.Device) *core.Device {
	if d == nil {
		return nil
	}

	var deviceType core.DeviceType
	switch d.Type {
	case "Computer":
		deviceType = core.DeviceTypeComputer
	case "Smartphone":
		deviceType = core.DeviceTypePhone
	case "Speaker", "CastAudio", "AVR":
		deviceType = core.DeviceTypeSpeaker
	case "TV", "CastVideo":
		deviceType = core.DeviceTypeTV
	default:
		deviceType = core.DeviceTypeUnknown
	}

	return &core.Device{
		ID:           d.ID,
		Name:         d.Name,
		Type:         deviceType,
		IsActive:     d.IsActive,
		IsRestricted: d.IsRestricted,
	}
}

var (
	_ core.Platform = (*Player)(nil)
	_ API           = (*client.Client)(nil)
)
