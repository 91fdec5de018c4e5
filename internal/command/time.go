package command

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MaxDuration bounds relative durations so deadlines stay representable.
const MaxDuration = 30 * 24 * time.Hour

var (
	clock12Re  = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*([ap])\.?m\.?(?:\s|$)`)
	clock24Re  = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?:\s|$)`)
	durationRe = regexp.MustCompile(`(?i)^(\d+)(?:\s*([a-z]+))?(?:\s|$)`)
	andRe      = regexp.MustCompile(`(?i)^and\s+`)
)

var durationUnits = map[string]time.Duration{
	"min":     time.Minute,
	"mins":    time.Minute,
	"minute":  time.Minute,
	"minutes": time.Minute,
	"m":       time.Minute,
	"hr":      time.Hour,
	"hrs":     time.Hour,
	"hour":    time.Hour,
	"hours":   time.Hour,
	"h":       time.Hour,
}

// parseTime reads a TIME_EXPR prefix of s and returns the deadline and the
// unconsumed remainder.
func parseTime(s string, now time.Time) (time.Time, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, "", parseError(`missing time after "till"`)
	}

	if m := clock12Re.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour < 1 || hour > 12 || minute > 59 {
			return time.Time{}, "", parseError("invalid clock time %q", strings.TrimSpace(m[0]))
		}
		hour %= 12
		if strings.EqualFold(m[3], "p") {
			hour += 12
		}
		return nextOccurrence(now, hour, minute), s[len(m[0]):], nil
	}

	if m := clock24Re.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return time.Time{}, "", parseError("invalid clock time %q", strings.TrimSpace(m[0]))
		}
		return nextOccurrence(now, hour, minute), s[len(m[0]):], nil
	}

	if durationRe.MatchString(s) {
		d, consumed, err := parseDuration(s)
		if err != nil {
			return time.Time{}, "", err
		}
		if d < time.Minute {
			return time.Time{}, "", parseError("duration must be at least 1 minute")
		}
		return now.Add(d), s[consumed:], nil
	}

	return time.Time{}, "", parseError("unrecognized time %q: use \"20 minutes\" or \"9:30 pm\"", firstWord(s))
}

// parseDuration reads one or more "N unit" terms, as in "1 hour 30 minutes"
// or "1 hour and 30 minutes", and returns their sum and the bytes consumed.
// A term without a unit counts minutes.
func parseDuration(s string) (time.Duration, int, error) {
	var total time.Duration
	pos := 0
	for terms := 0; ; terms++ {
		start := skipSpace(s, pos)
		if terms > 0 {
			if m := andRe.FindStringIndex(s[start:]); m != nil {
				start += m[1]
			}
		}

		m := durationRe.FindStringSubmatchIndex(s[start:])
		if m == nil {
			return total, pos, nil
		}
		digits := s[start+m[2] : start+m[3]]
		consumed := start + m[3]

		unit := time.Minute
		if m[4] >= 0 {
			word := strings.ToLower(s[start+m[4] : start+m[5]])
			if u, ok := durationUnits[word]; ok {
				unit = u
				consumed = start + m[5]
			} else if word != "on" {
				if terms > 0 {
					return total, pos, nil
				}
				return 0, 0, parseError("unknown time unit %q", word)
			}
		}

		n, err := strconv.Atoi(digits)
		if err != nil || time.Duration(n) > (MaxDuration-total)/unit {
			return 0, 0, parseError("duration %s is too long", strings.TrimSpace(s[:consumed]))
		}
		total += time.Duration(n) * unit
		pos = consumed
	}
}

// nextOccurrence returns the first instant after now at hour:minute in
// now's location.
func nextOccurrence(now time.Time, hour, minute int) time.Time {
	t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !t.After(now) {
		t = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, now.Location())
	}
	return t
}
