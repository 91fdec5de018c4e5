// Package command turns a free-text play command into a core.PlayIntent.
//
// The accepted form is
//
//	play "Title" [- Artist] ["Title" [- Artist]...] in loop till TIME [on DEVICE]
//
// where TIME is a duration ("20 minutes", "1 hour 30 minutes", "15") or a
// clock time ("9:30 pm", "7 am", "21:45"). Parsing never touches the network.
package command

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/siva673/loop-agent/internal/core"
	lerrors "github.com/siva673/loop-agent/internal/errors"
)

var (
	playRe      = regexp.MustCompile(`(?i)^play(?:\s|")`)
	clauseRe    = regexp.MustCompile(`(?i)^in\s+loop\s+till(?:\s+|$)`)
	clauseAnyRe = regexp.MustCompile(`(?i)(?:^|\s)in\s+loop\s+till(?:\s|$)`)
	deviceRe    = regexp.MustCompile(`(?i)^on(?:\s+(.*))?$`)
)

func parseError(format string, args ...any) error {
	return lerrors.Newf(lerrors.KindParse, format, args...)
}

// Parse parses raw relative to now. Clock times resolve in now's location.
// The same input at the same now always yields the same intent.
func Parse(raw string, now time.Time) (core.PlayIntent, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return core.PlayIntent{}, parseError("empty command")
	}

	if !playRe.MatchString(s) {
		return core.PlayIntent{}, parseError(`command must start with "play"`)
	}

	queries, pos, err := parseTitles(s, len("play"))
	if err != nil {
		return core.PlayIntent{}, err
	}

	deadline, rest, err := parseTime(s[pos:], now)
	if err != nil {
		return core.PlayIntent{}, err
	}

	device, err := parseDevice(rest)
	if err != nil {
		return core.PlayIntent{}, err
	}

	intent := core.PlayIntent{
		Queries:   queries,
		Deadline:  deadline,
		Device:    core.DeviceSelector{Name: device},
		CreatedAt: now,
	}
	if err := intent.Validate(); err != nil {
		return core.PlayIntent{}, parseError("%v", err)
	}
	return intent, nil
}

// parseTitles reads quoted titles and optional artists starting at pos and
// returns the offset just past the "in loop till" keywords.
func parseTitles(s string, pos int) ([]core.TrackQuery, int, error) {
	var queries []core.TrackQuery

	for {
		pos = skipSpace(s, pos)
		if pos >= len(s) {
			if len(queries) == 0 {
				return nil, 0, parseError("no quoted titles found")
			}
			return nil, 0, parseError(`missing "in loop till" clause`)
		}

		if s[pos] == '"' {
			end := strings.IndexByte(s[pos+1:], '"')
			if end < 0 {
				return nil, 0, parseError("unterminated quote in %q", s[pos:])
			}
			title := strings.TrimSpace(s[pos+1 : pos+1+end])
			if title == "" {
				return nil, 0, parseError("empty title at position %d", pos)
			}
			pos += end + 2

			q := core.TrackQuery{Title: title}
			if next := skipSpace(s, pos); next < len(s) && s[next] == '-' {
				artist, after, err := parseArtist(s, next+1)
				if err != nil {
					return nil, 0, err
				}
				q.Artist = artist
				pos = after
			}
			queries = append(queries, q)
			continue
		}

		if m := clauseRe.FindStringIndex(s[pos:]); m != nil {
			if len(queries) == 0 {
				return nil, 0, parseError("no quoted titles found")
			}
			return queries, pos + m[1], nil
		}

		if clauseAnyRe.FindStringIndex(s[pos:]) == nil {
			return nil, 0, parseError(`missing "in loop till" clause`)
		}
		return nil, 0, parseError("titles must be quoted: unexpected %q", firstWord(s[pos:]))
	}
}

// parseArtist reads the artist after a title's dash, up to the next quote
// or the "in loop till" keywords.
func parseArtist(s string, pos int) (string, int, error) {
	end := len(s)
	if i := strings.IndexByte(s[pos:], '"'); i >= 0 {
		end = pos + i
	}
	if m := clauseAnyRe.FindStringIndex(s[pos:end]); m != nil {
		end = pos + m[0]
	}

	artist := strings.TrimSpace(s[pos:end])
	if artist == "" {
		return "", 0, parseError(`missing artist after "-"`)
	}
	if strings.Contains(artist, " - ") {
		return "", 0, parseError(`artist %q contains " - "; only one dash may separate title and artist`, artist)
	}
	return artist, end, nil
}

// parseDevice reads an "on DEVICE" clause directly after the time. Any
// other trailing text is ignored.
func parseDevice(rest string) (string, error) {
	m := deviceRe.FindStringSubmatch(strings.TrimSpace(rest))
	if m == nil {
		return "", nil
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return "", parseError(`missing device name after "on"`)
	}
	return name, nil
}

func skipSpace(s string, pos int) int {
	for pos < len(s) && unicode.IsSpace(rune(s[pos])) {
		pos++
	}
	return pos
}

func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return s
}
