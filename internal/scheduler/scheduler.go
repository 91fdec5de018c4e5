// Package scheduler pauses loop sessions when their deadline passes.
//
// Each armed session owns one runtime timer. Pending stops are keyed by
// device, so arming a new session on a device supersedes the stop that
// was pending there. Stop failures are logged and never returned.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/siva673/loop-agent/internal/core"
)

const (
	statePending int32 = iota
	stateFired
	stateCancelled
)

// DefaultStopTimeout bounds the pause call when Options leaves it unset.
const DefaultStopTimeout = 15 * time.Second

// SourceDiscarder removes an ephemeral playback source.
type SourceDiscarder interface {
	DiscardSource(ctx context.Context, source core.PlaybackSource) error
}

// Options configures a Scheduler.
type Options struct {
	StopTimeout time.Duration
	// Discarder, when set, removes the session's playlist after the pause.
	Discarder SourceDiscarder
}

// Handle is an armed stop.
type Handle struct {
	session  core.ActiveSession
	deadline time.Time
	timer    *time.Timer
	state    atomic.Int32
	s        *Scheduler
}

// Session returns the session the stop belongs to.
func (h *Handle) Session() core.ActiveSession { return h.session }

// Deadline returns when the stop fires.
func (h *Handle) Deadline() time.Time { return h.deadline }

// Cancel disarms the stop. It reports whether the stop was still pending.
func (h *Handle) Cancel() bool {
	if !h.state.CompareAndSwap(statePending, stateCancelled) {
		return false
	}
	if h.timer != nil {
		h.timer.Stop()
	}
	h.s.forget(h)
	h.s.wg.Done()
	return true
}

// Pending describes an armed stop.
type Pending struct {
	SessionID  string    `json:"session_id"`
	DeviceID   string    `json:"device_id"`
	DeviceName string    `json:"device_name"`
	SourceURI  string    `json:"source_uri"`
	StopAt     time.Time `json:"stop_at"`
}

// Scheduler arms and runs deferred stops.
type Scheduler struct {
	pauser    core.Pauser
	discarder SourceDiscarder
	timeout   time.Duration
	now       func() time.Time
	logger    *zap.Logger

	mu      sync.Mutex
	pending map[string]*Handle
	closed  bool
	wg      sync.WaitGroup
}

// New creates a scheduler that pauses devices through pauser.
func New(pauser core.Pauser, opts Options, logger *zap.Logger) *Scheduler {
	timeout := opts.StopTimeout
	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}
	return &Scheduler{
		pauser:    pauser,
		discarder: opts.Discarder,
		timeout:   timeout,
		now:       time.Now,
		logger:    logger,
		pending:   make(map[string]*Handle),
	}
}

// Arm schedules a pause of session's device at deadline. A deadline in the
// past fires at once on the timer goroutine. Any stop still pending for
// the same device is cancelled.
func (s *Scheduler) Arm(session core.ActiveSession, deadline time.Time) *Handle {
	h := &Handle{session: session, deadline: deadline, s: s}
	log := s.logger.With(zap.String("session_id", session.ID), zap.String("device_id", session.Device.ID))

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		h.state.Store(stateCancelled)
		log.Warn("scheduler closed, stop not armed")
		return h
	}

	prev := s.pending[session.Device.ID]
	s.pending[session.Device.ID] = h
	s.wg.Add(1)

	wait := deadline.Sub(s.now())
	if wait < 0 {
		wait = 0
	}
	h.timer = time.AfterFunc(wait, func() { s.fire(h) })
	s.mu.Unlock()

	if prev != nil && prev.Cancel() {
		log.Info("superseded pending stop", zap.String("previous_session_id", prev.session.ID))
	}
	log.Info("stop armed", zap.Time("stop_at", deadline), zap.Duration("wait", wait))
	return h
}

// Cancel disarms the stop pending for deviceID.
func (s *Scheduler) Cancel(deviceID string) bool {
	s.mu.Lock()
	h := s.pending[deviceID]
	s.mu.Unlock()
	return h != nil && h.Cancel()
}

// Pending lists armed stops, earliest first.
func (s *Scheduler) Pending() []Pending {
	s.mu.Lock()
	out := make([]Pending, 0, len(s.pending))
	for _, h := range s.pending {
		out = append(out, Pending{
			SessionID:  h.session.ID,
			DeviceID:   h.session.Device.ID,
			DeviceName: h.session.Device.Name,
			SourceURI:  h.session.Source.URI,
			StopAt:     h.deadline,
		})
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StopAt.Before(out[j].StopAt) })
	return out
}

// Wait blocks until every armed stop has fired or been cancelled.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Shutdown cancels all pending stops and waits for running ones. Cancelled
// stops are lost; the devices keep playing.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	s.closed = true
	handles := make([]*Handle, 0, len(s.pending))
	for _, h := range s.pending {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	for _, h := range handles {
		if h.Cancel() {
			s.logger.Warn("pending stop dropped at shutdown",
				zap.String("session_id", h.session.ID),
				zap.String("device_id", h.session.Device.ID),
				zap.Time("stop_at", h.deadline))
		}
	}
	s.wg.Wait()
}

func (s *Scheduler) forget(h *Handle) {
	s.mu.Lock()
	if s.pending[h.session.Device.ID] == h {
		delete(s.pending, h.session.Device.ID)
	}
	s.mu.Unlock()
}

func (s *Scheduler) fire(h *Handle) {
	if !h.state.CompareAndSwap(statePending, stateFired) {
		return
	}
	defer s.wg.Done()
	s.forget(h)

	log := s.logger.With(zap.String("session_id", h.session.ID), zap.String("device_id", h.session.Device.ID))

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.pauser.Pause(ctx, h.session.Device.ID); err != nil {
		log.Warn("stop pause failed", zap.Error(err))
	} else {
		log.Info("loop stopped", zap.Duration("late", s.now().Sub(h.deadline)))
	}

	if s.discarder == nil || h.session.Source.ID == "" {
		return
	}
	if err := s.discarder.DiscardSource(ctx, h.session.Source); err != nil {
		log.Warn("discard session playlist failed", zap.String("source_id", h.session.Source.ID), zap.Error(err))
	}
}
