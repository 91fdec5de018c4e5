package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var playStopOnExit bool

var playCmd = &cobra.Command{
	Use:   "play <command>",
	Short: "Start a loop and wait for it to stop",
	Long: `Runs a play command against Spotify from this machine and stays in the
foreground until the loop is paused at its deadline.

The command can be passed as one quoted argument, or as separate words. In
the second form each word before "in loop till" is one title, so quote
multi-word titles and artists for the shell.

Examples:
  loop-agent play 'play "Blinding Lights" in loop till 20 minutes'
  loop-agent play 'play "Yellow" - Coldplay "Clocks" in loop till 9:30 pm on Kitchen'
  loop-agent play "Get Lucky" - "Daft Punk" Clocks in loop till 5 minutes`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&playStopOnExit, "stop-on-exit", true, "pause the device if interrupted before the deadline")
	rootCmd.AddCommand(playCmd)
}

// commandArg rebuilds the command text from argv. A single argument is
// taken as written. Several arguments have lost their quotes to the shell,
// so every word before "in loop till" becomes a quoted title, except a
// "-" and the artist that follows it.
func commandArg(args []string) string {
	if len(args) == 1 {
		raw := strings.TrimSpace(args[0])
		lower := strings.ToLower(raw)
		if !strings.HasPrefix(lower, "play ") && !strings.HasPrefix(lower, `play"`) {
			raw = "play " + raw
		}
		return raw
	}

	tokens := args
	if strings.EqualFold(tokens[0], "play") {
		tokens = tokens[1:]
	}
	clause := loopClause(tokens)

	parts := []string{"play"}
	for i, tok := range tokens[:clause] {
		switch {
		case tok == "-", i > 0 && tokens[i-1] == "-", strings.Contains(tok, `"`):
			parts = append(parts, tok)
		default:
			parts = append(parts, `"`+tok+`"`)
		}
	}
	parts = append(parts, tokens[clause:]...)
	return strings.Join(parts, " ")
}

// loopClause returns the index of the "in loop till" keywords in tokens,
// or len(tokens) when they are absent.
func loopClause(tokens []string) int {
	for i := 0; i+2 < len(tokens); i++ {
		if strings.EqualFold(tokens[i], "in") &&
			strings.EqualFold(tokens[i+1], "loop") &&
			strings.EqualFold(tokens[i+2], "till") {
			return i
		}
	}
	return len(tokens)
}

func runPlay(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(true)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	st, err := newStack(logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := st.service.HandlePlay(ctx, commandArg(args))
	if err != nil {
		return err
	}

	if JSONOutput() {
		if err := printJSON(os.Stdout, res); err != nil {
			return err
		}
	} else {
		writeResult(os.Stdout, res, time.Now())
	}

	done := make(chan struct{})
	go func() {
		st.stops.Wait()
		close(done)
	}()

	select {
	case <-done:
		if !JSONOutput() {
			fmt.Println(mutedStyle.Render("Loop finished."))
		}
		return nil
	case <-ctx.Done():
	}

	if !st.stops.Cancel(res.Device.ID) || !playStopOnExit {
		st.stops.Shutdown()
		return nil
	}
	pauseCtx, cancel := context.WithTimeout(context.Background(), cfg.Playback.StopTimeout())
	defer cancel()
	if err := st.player.Pause(pauseCtx, res.Device.ID); err != nil {
		logger.Warn("pause on exit failed", zap.Error(err))
		return fmt.Errorf("interrupted; could not pause %s: %w", res.Device.Name, err)
	}
	if !JSONOutput() {
		fmt.Println(mutedStyle.Render("Interrupted; loop paused."))
	}
	return nil
}
