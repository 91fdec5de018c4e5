package loop

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siva673/loop-agent/internal/core"
	lerrors "github.com/siva673/loop-agent/internal/errors"
)

func TestResolve(t *testing.T) {
	p := newFakePlatform()
	p.addTrack("Song A", "X")
	p.addTrack("Song B", "Y")
	r := NewResolver(p, zap.NewNop())

	resolved, unresolved, err := r.Resolve(context.Background(), []core.TrackQuery{
		{Title: "Song A"},
		{Title: "Missing"},
		{Title: "Song B"},
	})
	require.NoError(t, err)

	require.Len(t, resolved, 2)
	assert.Equal(t, "spotify:track:song-a", resolved[0].URI)
	assert.Equal(t, "spotify:track:song-b", resolved[1].URI)
	assert.Equal(t, core.TrackQuery{Title: "Song B"}, resolved[1].Query)
	assert.Equal(t, []core.TrackQuery{{Title: "Missing"}}, unresolved)
}

func TestResolveDeduplicatesQueries(t *testing.T) {
	p := newFakePlatform()
	p.addTrack("Song A", "")
	r := NewResolver(p, zap.NewNop())

	resolved, unresolved, err := r.Resolve(context.Background(), []core.TrackQuery{
		{Title: "Song A"},
		{Title: "  song   a "},
		{Title: "Gone"},
		{Title: "GONE"},
	})
	require.NoError(t, err)

	assert.Len(t, resolved, 1)
	assert.Len(t, unresolved, 1)
	assert.Equal(t, []string{"Song A", "Gone"}, p.searches)
}

func TestResolveSearchFailureAborts(t *testing.T) {
	p := newFakePlatform()
	p.searchErr = lerrors.Wrap(lerrors.KindAuth, "search", lerrors.ErrNotAuthenticated)
	r := NewResolver(p, zap.NewNop())

	_, _, err := r.Resolve(context.Background(), []core.TrackQuery{{Title: "A"}, {Title: "B"}})
	require.Error(t, err)
	assert.Equal(t, lerrors.KindAuth, lerrors.KindOf(err))
	assert.Len(t, p.searches, 1)
}

func TestResolveUnclassifiedFailureIsUpstream(t *testing.T) {
	p := newFakePlatform()
	p.searchErr = errors.New("connection reset")
	r := NewResolver(p, zap.NewNop())

	_, _, err := r.Resolve(context.Background(), []core.TrackQuery{{Title: "A"}})
	assert.Equal(t, lerrors.KindUpstream, lerrors.KindOf(err))
}
