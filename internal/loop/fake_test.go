package loop

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/siva673/loop-agent/internal/core"
	lerrors "github.com/siva673/loop-agent/internal/errors"
)

// fakePlatform records calls and serves canned catalog and device data.
type fakePlatform struct {
	mu sync.Mutex

	catalog   map[string]core.Track // keyed by lowercase title
	devices   []core.Device
	searchErr error

	addFail   map[string]error // keyed by track URI
	stepErrs  map[string][]error
	createErr error
	sources   int
	searches  []string
	calls     []string
	added     []string
	discarded []string
	paused    chan string

	state       *core.PlaybackState
	stateChecks int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		catalog:  map[string]core.Track{},
		addFail:  map[string]error{},
		stepErrs: map[string][]error{},
		paused:   make(chan string, 8),
	}
}

func (f *fakePlatform) addTrack(title, artist string) core.Track {
	id := strings.ReplaceAll(strings.ToLower(title), " ", "-")
	t := core.Track{ID: id, URI: "spotify:track:" + id, Title: title, Artist: artist}
	f.catalog[strings.ToLower(title)] = t
	return t
}

func (f *fakePlatform) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakePlatform) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// nextErr pops the scripted error for a step, if any.
func (f *fakePlatform) nextErr(step string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	errs := f.stepErrs[step]
	if len(errs) == 0 {
		return nil
	}
	f.stepErrs[step] = errs[1:]
	return errs[0]
}

func (f *fakePlatform) SearchTracks(ctx context.Context, title, artist string) ([]core.Track, error) {
	f.mu.Lock()
	f.searches = append(f.searches, title)
	f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if t, ok := f.catalog[strings.ToLower(title)]; ok {
		return []core.Track{t}, nil
	}
	return nil, nil
}

func (f *fakePlatform) CreateSource(ctx context.Context, name, description string) (core.PlaybackSource, error) {
	if f.createErr != nil {
		return core.PlaybackSource{}, f.createErr
	}
	f.mu.Lock()
	f.sources++
	n := f.sources
	f.mu.Unlock()
	f.record("create:" + name)
	return core.PlaybackSource{ID: fmt.Sprintf("p%d", n), URI: fmt.Sprintf("spotify:playlist:p%d", n), Name: name}, nil
}

func (f *fakePlatform) AddTracks(ctx context.Context, source core.PlaybackSource, uris []string) error {
	for _, uri := range uris {
		if err := f.addFail[uri]; err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.added = append(f.added, uris...)
	f.mu.Unlock()
	return nil
}

func (f *fakePlatform) DiscardSource(ctx context.Context, source core.PlaybackSource) error {
	f.mu.Lock()
	f.discarded = append(f.discarded, source.ID)
	f.mu.Unlock()
	return nil
}

func (f *fakePlatform) GetDevices(ctx context.Context) ([]core.Device, error) {
	if err := f.nextErr("devices"); err != nil {
		return nil, err
	}
	return f.devices, nil
}

func (f *fakePlatform) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	f.record(fmt.Sprintf("transfer:%s:%t", deviceID, play))
	return f.nextErr("transfer")
}

func (f *fakePlatform) SetShuffle(ctx context.Context, deviceID string, on bool) error {
	f.record(fmt.Sprintf("shuffle:%s:%t", deviceID, on))
	return f.nextErr("shuffle")
}

func (f *fakePlatform) SetRepeat(ctx context.Context, deviceID string, mode core.RepeatMode) error {
	f.record(fmt.Sprintf("repeat:%s:%s", deviceID, mode))
	return f.nextErr("repeat")
}

func (f *fakePlatform) PlaySource(ctx context.Context, deviceID string, source core.PlaybackSource, offset int) error {
	f.record(fmt.Sprintf("play:%s:%s:%d", deviceID, source.URI, offset))
	return f.nextErr("play")
}

func (f *fakePlatform) Pause(ctx context.Context, deviceID string) error {
	f.record("pause:" + deviceID)
	f.paused <- deviceID
	return f.nextErr("pause")
}

func (f *fakePlatform) GetState(ctx context.Context) (*core.PlaybackState, error) {
	f.mu.Lock()
	f.stateChecks++
	st := f.state
	f.mu.Unlock()
	if err := f.nextErr("state"); err != nil {
		return nil, err
	}
	if st == nil {
		return &core.PlaybackState{}, nil
	}
	return st, nil
}

func notReady() error {
	return lerrors.Wrap(lerrors.KindUpstream, "player", fmt.Errorf("%w: status 502", lerrors.ErrDeviceNotReady))
}

var _ core.Platform = (*fakePlatform)(nil)
