package loop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/siva673/loop-agent/internal/core"
	lerrors "github.com/siva673/loop-agent/internal/errors"
)

// State is a step of the playback start sequence.
type State int

const (
	StateIdle State = iota
	StateDeviceSelected
	StateTransferring
	StateConfiguring
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDeviceSelected:
		return "device-selected"
	case StateTransferring:
		return "transferring"
	case StateConfiguring:
		return "configuring"
	case StatePlaying:
		return "playing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StartError reports the state a failed start sequence had reached.
type StartError struct {
	State State
	Err   error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("start failed while %s: %v", e.State, e.Err)
}

func (e *StartError) Unwrap() error {
	return e.Err
}

// Controller selects a device and starts a source looping on it.
type Controller struct {
	playback core.PlaybackControl
	backoff  time.Duration
	now      func() time.Time
	newID    func() string
	logger   *zap.Logger
}

// NewController creates a controller. backoff is the wait before the single
// re-attempt of a step that failed because the device was not ready.
func NewController(playback core.PlaybackControl, backoff time.Duration, logger *zap.Logger) *Controller {
	return &Controller{
		playback: playback,
		backoff:  backoff,
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   logger,
	}
}

// Start transfers playback to the selected device, turns shuffle off,
// sets repeat to the whole context and plays source from its first track.
// The resulting state is read back once and only logged.
func (c *Controller) Start(ctx context.Context, source core.PlaybackSource, selector core.DeviceSelector) (*core.ActiveSession, error) {
	state := StateIdle
	fail := func(err error) (*core.ActiveSession, error) {
		c.logger.Warn("playback start failed", zap.Stringer("state", state), zap.Error(err))
		return nil, &StartError{State: state, Err: err}
	}

	devices, err := c.playback.GetDevices(ctx)
	if err != nil {
		return fail(classify("list devices", err))
	}
	device, err := SelectDevice(devices, selector)
	if err != nil {
		return fail(err)
	}
	state = StateDeviceSelected

	log := c.logger.With(zap.String("device_id", device.ID), zap.String("device", device.Name))
	log.Debug("device selected")

	state = StateTransferring
	if err := c.step(ctx, log, "transfer playback", func(ctx context.Context) error {
		return c.playback.TransferPlayback(ctx, device.ID, false)
	}); err != nil {
		return fail(err)
	}

	state = StateConfiguring
	if err := c.step(ctx, log, "disable shuffle", func(ctx context.Context) error {
		return c.playback.SetShuffle(ctx, device.ID, false)
	}); err != nil {
		return fail(err)
	}
	if err := c.step(ctx, log, "enable repeat", func(ctx context.Context) error {
		return c.playback.SetRepeat(ctx, device.ID, core.RepeatContext)
	}); err != nil {
		return fail(err)
	}

	if err := c.step(ctx, log, "start playback", func(ctx context.Context) error {
		return c.playback.PlaySource(ctx, device.ID, source, 0)
	}); err != nil {
		return fail(err)
	}
	state = StatePlaying
	c.checkLooping(ctx, log, source)

	session := &core.ActiveSession{
		ID:        c.newID(),
		Device:    device,
		Source:    source,
		StartedAt: c.now(),
	}
	log.Info("loop playing", zap.String("session_id", session.ID), zap.String("source", source.URI))
	return session, nil
}

// checkLooping reads the playback state once and warns when the device is
// not repeating source. It never fails the start.
func (c *Controller) checkLooping(ctx context.Context, log *zap.Logger, source core.PlaybackSource) {
	st, err := c.playback.GetState(ctx)
	if err != nil {
		log.Warn("could not confirm loop state", zap.Error(err))
		return
	}
	if st.IsLooping(source.URI) {
		return
	}
	fields := []zap.Field{zap.String("source", source.URI)}
	if st != nil {
		fields = append(fields, zap.String("context", st.ContextURI), zap.String("repeat", string(st.Repeat)))
	}
	log.Warn("device is not looping the session source", fields...)
}

// step runs fn, re-attempting once after the backoff when the device was
// not ready.
func (c *Controller) step(ctx context.Context, log *zap.Logger, name string, fn func(context.Context) error) error {
	err := fn(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, lerrors.ErrDeviceNotReady) {
		return classify(name, err)
	}

	log.Info("device not ready, retrying", zap.String("step", name), zap.Duration("backoff", c.backoff))
	t := time.NewTimer(c.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return lerrors.Wrap(lerrors.KindUpstream, name, ctx.Err())
	case <-t.C:
	}

	if err := fn(ctx); err != nil {
		return classify(name, err)
	}
	return nil
}

// SelectDevice picks the device named by selector, matching the name
// case-insensitively or the ID exactly. An empty selector picks the
// active device.
func SelectDevice(devices []core.Device, selector core.DeviceSelector) (core.Device, error) {
	if selector.UsesActive() {
		for _, d := range devices {
			if d.IsActive {
				return d, nil
			}
		}
		return core.Device{}, lerrors.Wrap(lerrors.KindNoActiveDevice, "select device", lerrors.ErrNoActiveDevice)
	}

	name := strings.TrimSpace(selector.Name)
	for _, d := range devices {
		if strings.EqualFold(strings.TrimSpace(d.Name), name) || d.ID == name {
			return d, nil
		}
	}

	err := lerrors.Wrap(lerrors.KindDeviceNotFound, fmt.Sprintf("device %q", name), lerrors.ErrDeviceNotFound)
	if len(devices) == 0 {
		return core.Device{}, lerrors.WithSuggestion(err, "No devices are online. Open Spotify on the device first")
	}
	names := make([]string, len(devices))
	for i, d := range devices {
		names[i] = d.Name
	}
	return core.Device{}, lerrors.WithSuggestion(err, "Available devices: "+strings.Join(names, ", "))
}
