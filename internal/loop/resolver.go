package loop

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/siva673/loop-agent/internal/core"
	lerrors "github.com/siva673/loop-agent/internal/errors"
)

// Resolver maps track queries to concrete tracks through search.
type Resolver struct {
	search core.TrackSearcher
	logger *zap.Logger
}

// NewResolver creates a resolver backed by search.
func NewResolver(search core.TrackSearcher, logger *zap.Logger) *Resolver {
	return &Resolver{search: search, logger: logger}
}

// Resolve searches each distinct query once and takes the top match.
// Queries without a match are returned as unresolved; a failing search
// aborts resolution. Repeated queries produce no extra entries.
func (r *Resolver) Resolve(ctx context.Context, queries []core.TrackQuery) ([]core.ResolvedTrack, []core.TrackQuery, error) {
	var (
		resolved   []core.ResolvedTrack
		unresolved []core.TrackQuery
		seen       = make(map[string]struct{}, len(queries))
	)

	for _, q := range queries {
		key := q.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		tracks, err := r.search.SearchTracks(ctx, q.Title, q.Artist)
		if err != nil {
			return nil, nil, classify(fmt.Sprintf("search %s", q), err)
		}

		if len(tracks) == 0 || tracks[0].URI == "" {
			r.logger.Info("track not found", zap.String("title", q.Title), zap.String("artist", q.Artist))
			unresolved = append(unresolved, q)
			continue
		}

		top := tracks[0]
		r.logger.Debug("track resolved",
			zap.String("title", q.Title),
			zap.String("track_id", top.ID),
			zap.String("match", top.Title))
		resolved = append(resolved, core.ResolvedTrack{
			ID:     top.ID,
			URI:    top.URI,
			Title:  top.Title,
			Artist: top.Artist,
			Query:  q,
		})
	}

	return resolved, unresolved, nil
}

// classify keeps an error's kind, treating unclassified remote failures as upstream.
func classify(msg string, err error) error {
	if lerrors.KindOf(err) == lerrors.KindInternal {
		return lerrors.Wrap(lerrors.KindUpstream, msg, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
