package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/siva673/loop-agent/internal/loop"
	"github.com/siva673/loop-agent/internal/scheduler"
	"github.com/siva673/loop-agent/internal/spotify/auth"
	"github.com/siva673/loop-agent/internal/spotify/client"
	"github.com/siva673/loop-agent/internal/spotify/player"
)

// stack is everything a command needs to talk to Spotify and run loops.
type stack struct {
	storage *auth.TokenStorage
	oauth   *auth.Config
	client  *client.Client
	player  *player.Player
	stops   *scheduler.Scheduler
	service *loop.Service
}

func newAuthConfig() (*auth.Config, error) {
	if cfg.Spotify.ClientID == "" {
		return nil, fmt.Errorf("spotify.client_id not configured. Set it in ~/.loop-agentrc or via LOOP_AGENT_SPOTIFY_CLIENT_ID")
	}
	oauth := auth.NewConfig(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
	if cfg.Spotify.RedirectURI != "" {
		oauth.RedirectURI = cfg.Spotify.RedirectURI
	}
	return oauth, nil
}

func newTokenStorage() (*auth.TokenStorage, error) {
	storage, err := auth.NewTokenStorage(cfg.Spotify.TokenPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token storage: %w", err)
	}
	return storage, nil
}

// newTokenClient builds a client for token bookkeeping only. It works
// without a client ID, in which case expired tokens cannot be refreshed.
func newTokenClient() (*client.Client, error) {
	storage, err := newTokenStorage()
	if err != nil {
		return nil, err
	}
	return client.New(storage, nil, client.Options{}), nil
}

// newStack wires client, player, scheduler and service from the loaded config.
func newStack(logger *zap.Logger) (*stack, error) {
	oauth, err := newAuthConfig()
	if err != nil {
		return nil, err
	}
	storage, err := newTokenStorage()
	if err != nil {
		return nil, err
	}

	c := client.New(storage, oauth, client.Options{
		MaxRetries: cfg.Spotify.MaxRetries,
		Logger:     logger.Named("spotify"),
	})
	p := player.New(c, cfg.Spotify.Market)

	opts := scheduler.Options{StopTimeout: cfg.Playback.StopTimeout()}
	if cfg.Defaults.CleanupPlaylists {
		opts.Discarder = p
	}
	stops := scheduler.New(p, opts, logger.Named("scheduler"))

	svc := loop.NewService(p, stops, loop.Options{
		DefaultDevice:      cfg.Defaults.Device,
		Location:           cfg.Defaults.Location(),
		PlaylistPrefix:     cfg.Defaults.PlaylistPrefix,
		DeviceReadyBackoff: cfg.Playback.DeviceReadyBackoff(),
		DiscardOnFailure:   cfg.Defaults.CleanupPlaylists,
	}, logger.Named("loop"))

	return &stack{
		storage: storage,
		oauth:   oauth,
		client:  c,
		player:  p,
		stops:   stops,
		service: svc,
	}, nil
}
