package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/siva673/loop-agent/internal/core"
	"github.com/siva673/loop-agent/internal/loop"
)

var (
	spotifyGreen = lipgloss.Color("#1DB954")
	warning      = lipgloss.Color("#F59E0B")
	failure      = lipgloss.Color("#EF4444")
	textMuted    = lipgloss.Color("#9CA3AF")
	textDim      = lipgloss.Color("#6B7280")

	titleStyle   = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(textDim)
	mutedStyle   = lipgloss.NewStyle().Foreground(textMuted)
	playingStyle = lipgloss.NewStyle().Foreground(spotifyGreen)
	warnStyle    = lipgloss.NewStyle().Foreground(warning)
	errorStyle   = lipgloss.NewStyle().Foreground(failure)
)

// Table provides a simple table formatter.
type Table struct {
	w *tabwriter.Writer
}

// NewTable creates a new table on stdout with the given headers.
func NewTable(headers ...string) *Table {
	return NewTableWriter(os.Stdout, headers...)
}

// NewTableWriter creates a table writing to a specific writer.
func NewTableWriter(out io.Writer, headers ...string) *Table {
	t := &Table{w: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
	if len(headers) > 0 {
		_, _ = t.w.Write([]byte(strings.Join(headers, "\t") + "\n"))
	}
	return t
}

// Row adds a row to the table.
func (t *Table) Row(values ...string) {
	_, _ = t.w.Write([]byte(strings.Join(values, "\t") + "\n"))
}

// Flush writes the table output.
func (t *Table) Flush() {
	_ = t.w.Flush()
}

// StatusIcon returns an icon for the given boolean status.
func StatusIcon(active bool) string {
	if active {
		return "●"
	}
	return "○"
}

// TruncateString truncates a string to maxLen, adding "..." if truncated.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// FormatStopTime renders a deadline as "21:30:00 (in 20 minutes)".
func FormatStopTime(stopAt, now time.Time) string {
	return fmt.Sprintf("%s (%s)", stopAt.Format("15:04:05"), humanize.RelTime(stopAt, now, "ago", "from now"))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeIntent(w io.Writer, intent core.PlayIntent, now time.Time) {
	_, _ = fmt.Fprintln(w, titleStyle.Render("Parsed command"))
	for n, q := range intent.Queries {
		_, _ = fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(fmt.Sprintf("%d.", n+1)), q)
	}
	_, _ = fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("device:"), intent.Device)
	_, _ = fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("stops: "), FormatStopTime(intent.Deadline, now))
}

func writeResult(w io.Writer, res *loop.Result, now time.Time) {
	_, _ = fmt.Fprintf(w, "%s %s\n", playingStyle.Render("▶ Looping"),
		titleStyle.Render(fmt.Sprintf("%d %s on %s", len(res.Tracks), pluralize(len(res.Tracks), "track"), res.Device.Name)))
	for _, t := range res.Tracks {
		_, _ = fmt.Fprintf(w, "  %s\n", t)
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Stops at"), FormatStopTime(res.StopAt, now))
	for _, warn := range res.Warnings {
		_, _ = fmt.Fprintln(w, warnStyle.Render("! "+warn))
	}
	if Verbose() {
		_, _ = fmt.Fprintln(w, mutedStyle.Render("session "+res.SessionID+" · "+res.Source))
	}
}

func pluralize(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
