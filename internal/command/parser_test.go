package command

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siva673/loop-agent/internal/core"
	lerrors "github.com/siva673/loop-agent/internal/errors"
)

var testNow = time.Date(2026, 10, 16, 14, 30, 0, 0, time.UTC)

func TestParseTitlesInOrder(t *testing.T) {
	intent, err := Parse(`play "Song A" "Song B" "Song C" in loop till 20 minutes`, testNow)
	require.NoError(t, err)

	assert.Equal(t, []core.TrackQuery{
		{Title: "Song A"},
		{Title: "Song B"},
		{Title: "Song C"},
	}, intent.Queries)
	assert.True(t, intent.Device.UsesActive())
	assert.Equal(t, testNow, intent.CreatedAt)
}

func TestParseArtists(t *testing.T) {
	intent, err := Parse(`play "Yellow" - Coldplay "Numb" -Linkin Park  "Intro" in loop till 5 minutes on Kitchen`, testNow)
	require.NoError(t, err)

	assert.Equal(t, []core.TrackQuery{
		{Title: "Yellow", Artist: "Coldplay"},
		{Title: "Numb", Artist: "Linkin Park"},
		{Title: "Intro"},
	}, intent.Queries)
	assert.Equal(t, "Kitchen", intent.Device.Name)
}

func TestParseArtistBeforeClause(t *testing.T) {
	intent, err := Parse(`play "Yellow" - Coldplay in loop till 5 minutes`, testNow)
	require.NoError(t, err)
	assert.Equal(t, "Coldplay", intent.Queries[0].Artist)
}

func TestParseDurations(t *testing.T) {
	tests := []struct {
		expr string
		want time.Duration
	}{
		{"20 minutes", 20 * time.Minute},
		{"1 minute", time.Minute},
		{"15 min", 15 * time.Minute},
		{"15 mins", 15 * time.Minute},
		{"45", 45 * time.Minute},
		{"2 hours", 2 * time.Hour},
		{"1 hr", time.Hour},
		{"3 hrs", 3 * time.Hour},
		{"10MINUTES", 10 * time.Minute},
		{"1 hour 30 minutes", 90 * time.Minute},
		{"1 hour and 15 mins", 75 * time.Minute},
		{"2h 5m", 2*time.Hour + 5*time.Minute},
		{"0 hours 30 minutes", 30 * time.Minute},
		{"1 hour 30", 90 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			intent, err := Parse(`play "A" in loop till `+tt.expr, testNow)
			require.NoError(t, err)
			assert.Equal(t, testNow.Add(tt.want), intent.Deadline)
		})
	}
}

func TestParseIsDeterministic(t *testing.T) {
	raw := `play "Song A" in loop till 20 minutes on iPhone`
	first, err := Parse(raw, testNow)
	require.NoError(t, err)
	second, err := Parse(raw, testNow)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, testNow.Add(20*time.Minute), first.Deadline)
}

func TestParseClockTimes(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want time.Time
	}{
		{"later today pm", "9:30 pm", time.Date(2026, 10, 16, 21, 30, 0, 0, time.UTC)},
		{"later today no minutes", "5 pm", time.Date(2026, 10, 16, 17, 0, 0, 0, time.UTC)},
		{"earlier rolls to tomorrow", "9:15 am", time.Date(2026, 10, 17, 9, 15, 0, 0, time.UTC)},
		{"exactly now rolls to tomorrow", "2:30 pm", time.Date(2026, 10, 17, 14, 30, 0, 0, time.UTC)},
		{"noon", "12 pm", time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)},
		{"midnight", "12 am", time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)},
		{"dotted", "11 p.m.", time.Date(2026, 10, 16, 23, 0, 0, 0, time.UTC)},
		{"24 hour", "21:45", time.Date(2026, 10, 16, 21, 45, 0, 0, time.UTC)},
		{"24 hour earlier", "08:00", time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, err := Parse(`play "A" in loop till `+tt.expr, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, intent.Deadline)
			assert.True(t, intent.Deadline.After(testNow))
		})
	}
}

func TestParseClockUsesNowLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2026, 10, 16, 22, 0, 0, 0, loc)

	intent, err := Parse(`play "A" in loop till 10:30 pm`, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 16, 22, 30, 0, 0, loc), intent.Deadline)
}

func TestParseDevice(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"simple", `play "A" in loop till 5 minutes on iPhone`, "iPhone"},
		{"multi word", `play "A" in loop till 5 minutes on  Living Room Speaker `, "Living Room Speaker"},
		{"bare minutes", `play "A" in loop till 5 on TV`, "TV"},
		{"after clock", `play "A" in loop till 9 pm on Office`, "Office"},
		{"case insensitive keyword", `play "A" in loop till 5 minutes ON Echo`, "Echo"},
		{"trailing text ignored", `play "A" in loop till 5 minutes please`, ""},
		{"on later in text ignored", `play "A" in loop till 5 minutes and then on repeat`, ""},
		{"on inside word ignored", `play "A" in loop till 5 minutes online`, ""},
		{"after compound duration", `play "A" in loop till 1 hour 30 minutes on Kitchen`, "Kitchen"},
		{"after bare minutes term", `play "A" in loop till 1 hour 30 on Kitchen`, "Kitchen"},
		{"and before device", `play "A" in loop till 1 hour and on Kitchen`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, err := Parse(tt.raw, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, intent.Device.Name)
		})
	}
}

func TestParseKeywordsCaseAndSpacing(t *testing.T) {
	intent, err := Parse(`  PLAY   "A"   IN   Loop  TILL   3   minutes  `, testNow)
	require.NoError(t, err)
	assert.Len(t, intent.Queries, 1)
	assert.Equal(t, testNow.Add(3*time.Minute), intent.Deadline)
}

func TestParseQuotedKeywordsStayInTitle(t *testing.T) {
	intent, err := Parse(`play "stuck in loop till dawn" in loop till 5 minutes`, testNow)
	require.NoError(t, err)
	assert.Equal(t, "stuck in loop till dawn", intent.Queries[0].Title)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"missing play", `"A" in loop till 5 minutes`},
		{"zero titles", `play in loop till 5 minutes`},
		{"unquoted title", `play Song A in loop till 5 minutes`},
		{"unquoted between titles", `play "A" and "B" in loop till 5 minutes`},
		{"unterminated quote", `play "A in loop till 5 minutes`},
		{"empty title", `play "  " in loop till 5 minutes`},
		{"missing till", `play "A" "B"`},
		{"missing till with words", `play "A" for 5 minutes`},
		{"missing time", `play "A" in loop till`},
		{"zero duration", `play "A" in loop till 0 minutes`},
		{"unknown unit", `play "A" in loop till 5 seconds`},
		{"garbage time", `play "A" in loop till tomorrow`},
		{"bad clock", `play "A" in loop till 13:30 pm`},
		{"bad 24h clock", `play "A" in loop till 25:00`},
		{"too long", `play "A" in loop till 99999999 hours`},
		{"compound too long", `play "A" in loop till 720 hours 1 minute`},
		{"empty artist", `play "A" - in loop till 5 minutes`},
		{"artist with dash", `play "A" - AC - DC in loop till 5 minutes`},
		{"empty device", `play "A" in loop till 5 minutes on`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw, testNow)
			require.Error(t, err)
			assert.True(t, lerrors.Is(err, lerrors.KindParse), "KindOf() = %v", lerrors.KindOf(err))
			assert.NotEmpty(t, err.Error())
		})
	}
}
