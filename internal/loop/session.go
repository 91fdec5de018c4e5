package loop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/siva673/loop-agent/internal/core"
	lerrors "github.com/siva673/loop-agent/internal/errors"
)

// SessionDescription is set on every ephemeral playlist.
const SessionDescription = "Auto-loop session playlist"

// Builder creates the ephemeral playlist a loop plays from.
type Builder struct {
	store  core.SourceStore
	prefix string
	now    func() time.Time
	logger *zap.Logger
}

// NewBuilder creates a builder naming playlists "<prefix> (YYYYMMDD-HHMMSS)".
func NewBuilder(store core.SourceStore, prefix string, logger *zap.Logger) *Builder {
	return &Builder{store: store, prefix: prefix, now: time.Now, logger: logger}
}

// SourceName returns the playlist name for a session created at t.
func (b *Builder) SourceName(t time.Time) string {
	return fmt.Sprintf("%s (%s)", b.prefix, t.Format("20060102-150405"))
}

// Build creates a playlist holding each distinct track once, in first-seen
// order. Tracks that fail to add are skipped and reported through the
// returned PartialBuildError; the build only fails when none were added.
func (b *Builder) Build(ctx context.Context, resolved []core.ResolvedTrack) (core.PlaybackSource, *lerrors.PartialBuildError, error) {
	uris := uniqueURIs(resolved)
	if len(uris) == 0 {
		return core.PlaybackSource{}, nil, lerrors.Wrap(lerrors.KindEmptySession, "nothing to build", lerrors.ErrEmptySession)
	}

	source, err := b.store.CreateSource(ctx, b.SourceName(b.now()), SessionDescription)
	if err != nil {
		return core.PlaybackSource{}, nil, classify("create session playlist", err)
	}
	log := b.logger.With(zap.String("source_id", source.ID))
	log.Debug("session playlist created", zap.String("name", source.Name))

	var errs []error
	for _, uri := range uris {
		if err := b.store.AddTracks(ctx, source, []string{uri}); err != nil {
			log.Warn("add track failed", zap.String("uri", uri), zap.Error(err))
			errs = append(errs, fmt.Errorf("add %s: %w", uri, err))
			continue
		}
		source.TrackURIs = append(source.TrackURIs, uri)
	}

	if source.IsEmpty() {
		b.discard(source)
		return core.PlaybackSource{}, nil, classify("no tracks could be added", errors.Join(errs...))
	}

	if len(errs) > 0 {
		return source, &lerrors.PartialBuildError{
			Added:  source.Len(),
			Failed: len(errs),
			Errs:   errs,
		}, nil
	}
	return source, nil, nil
}

func (b *Builder) discard(source core.PlaybackSource) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := b.store.DiscardSource(ctx, source); err != nil {
		b.logger.Warn("discard empty playlist", zap.String("source_id", source.ID), zap.Error(err))
	}
}

func uniqueURIs(resolved []core.ResolvedTrack) []string {
	seen := make(map[string]struct{}, len(resolved))
	uris := make([]string, 0, len(resolved))
	for _, t := range resolved {
		id := t.ID
		if id == "" {
			id = t.URI
		}
		if _, dup := seen[id]; dup || t.URI == "" {
			continue
		}
		seen[id] = struct{}{}
		uris = append(uris, t.URI)
	}
	return uris
}
