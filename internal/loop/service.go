// Package loop turns a play command into a looping, time-bounded playback
// session: it resolves titles, builds the session playlist, starts it on a
// device and arms the stop.
package loop

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/siva673/loop-agent/internal/command"
	"github.com/siva673/loop-agent/internal/core"
	lerrors "github.com/siva673/loop-agent/internal/errors"
	"github.com/siva673/loop-agent/internal/scheduler"
)

// StopScheduler arms the deferred stop of a started session.
type StopScheduler interface {
	Arm(session core.ActiveSession, deadline time.Time) *scheduler.Handle
}

// Options configures a Service.
type Options struct {
	// DefaultDevice is used when a command names no device. Empty means
	// the active device.
	DefaultDevice string
	// Location is where clock times in commands are interpreted.
	Location           *time.Location
	PlaylistPrefix     string
	DeviceReadyBackoff time.Duration
	// DiscardOnFailure removes the session playlist when playback fails to start.
	DiscardOnFailure bool
}

// Result is the outcome of a successful play command.
type Result struct {
	SessionID  string      `json:"session_id"`
	Tracks     []string    `json:"tracks"`
	Unresolved []string    `json:"unresolved,omitempty"`
	Device     core.Device `json:"device"`
	Source     string      `json:"source"`
	StopAt     time.Time   `json:"stop_at"`
	Warnings   []string    `json:"warnings,omitempty"`
}

// Service runs the play pipeline.
type Service struct {
	platform   core.Platform
	resolver   *Resolver
	builder    *Builder
	controller *Controller
	scheduler  StopScheduler
	opts       Options
	now        func() time.Time
	logger     *zap.Logger
}

// NewService wires the pipeline stages onto platform.
func NewService(platform core.Platform, stops StopScheduler, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Service{
		platform:   platform,
		resolver:   NewResolver(platform, logger.Named("resolver")),
		builder:    NewBuilder(platform, opts.PlaylistPrefix, logger.Named("builder")),
		controller: NewController(platform, opts.DeviceReadyBackoff, logger.Named("controller")),
		scheduler:  stops,
		opts:       opts,
		now:        time.Now,
		logger:     logger,
	}
}

// Parse parses raw as HandlePlay would, without any remote call.
func (s *Service) Parse(raw string) (core.PlayIntent, error) {
	intent, err := command.Parse(raw, s.now().In(s.opts.Location))
	if err != nil {
		return core.PlayIntent{}, err
	}
	if intent.Device.UsesActive() && s.opts.DefaultDevice != "" {
		intent.Device.Name = s.opts.DefaultDevice
	}
	return intent, nil
}

// HandlePlay parses raw, resolves its titles, builds the session playlist,
// starts it looping and arms the stop. The stop is armed only once
// playback has started.
func (s *Service) HandlePlay(ctx context.Context, raw string) (*Result, error) {
	intent, err := s.Parse(raw)
	if err != nil {
		return nil, err
	}
	log := s.logger.With(zap.Strings("titles", intent.Titles()), zap.Stringer("device", intent.Device))

	resolved, unresolved, err := s.resolver.Resolve(ctx, intent.Queries)
	if err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		return nil, lerrors.Wrap(lerrors.KindNotFound,
			fmt.Sprintf("no tracks found for %s", strings.Join(queryStrings(unresolved), ", ")),
			lerrors.ErrTrackNotFound)
	}

	source, partial, err := s.builder.Build(ctx, resolved)
	if err != nil {
		return nil, err
	}

	session, err := s.controller.Start(ctx, source, intent.Device)
	if err != nil {
		if s.opts.DiscardOnFailure {
			s.builder.discard(source)
		}
		return nil, err
	}

	handle := s.scheduler.Arm(*session, intent.Deadline)

	result := &Result{
		SessionID:  session.ID,
		Tracks:     trackTitles(resolved, source.TrackURIs),
		Unresolved: queryStrings(unresolved),
		Device:     session.Device,
		Source:     source.URI,
		StopAt:     handle.Deadline(),
	}
	for _, q := range unresolved {
		result.Warnings = append(result.Warnings, fmt.Sprintf("not found: %s", q))
	}
	if partial != nil {
		result.Warnings = append(result.Warnings, partial.Error())
	}

	log.Info("loop started",
		zap.String("session_id", session.ID),
		zap.Int("resolved", len(resolved)),
		zap.Int("unresolved", len(unresolved)),
		zap.Time("stop_at", intent.Deadline))
	return result, nil
}

// Devices lists the account's devices.
func (s *Service) Devices(ctx context.Context) ([]core.Device, error) {
	return s.platform.GetDevices(ctx)
}

// Status returns the current playback state.
func (s *Service) Status(ctx context.Context) (*core.PlaybackState, error) {
	return s.platform.GetState(ctx)
}

// trackTitles names the tracks that made it into the session, in
// playlist order.
func trackTitles(resolved []core.ResolvedTrack, uris []string) []string {
	byURI := make(map[string]string, len(resolved))
	for _, t := range resolved {
		if _, ok := byURI[t.URI]; !ok {
			byURI[t.URI] = t.DisplayTitle()
		}
	}
	titles := make([]string, 0, len(uris))
	for _, uri := range uris {
		if title, ok := byURI[uri]; ok {
			titles = append(titles, title)
		} else {
			titles = append(titles, uri)
		}
	}
	return titles
}

func queryStrings(queries []core.TrackQuery) []string {
	out := make([]string, len(queries))
	for i, q := range queries {
		out[i] = q.Title
	}
	return out
}
