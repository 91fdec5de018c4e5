package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current playback",
	Long:  `Shows what Spotify is playing now and whether it is looping.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(true)
	if err != nil {
		return err
	}
	st, err := newStack(logger)
	if err != nil {
		return err
	}

	state, err := st.service.Status(context.Background())
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(os.Stdout, state)
	}

	if !state.HasTrack() {
		fmt.Println("Nothing playing.")
		return nil
	}

	icon := "⏸"
	line := fmt.Sprintf("%s - %s", state.Track.Title, state.Track.Artist)
	if state.IsPlaying {
		icon = playingStyle.Render("▶")
	}
	fmt.Printf("%s %s\n", icon, titleStyle.Render(line))
	if state.Device != nil {
		fmt.Printf("  %s %s\n", labelStyle.Render("device:"), state.Device.Name)
	}
	fmt.Printf("  %s shuffle %s, repeat %s\n", labelStyle.Render("mode:  "), onOff(state.Shuffle), state.Repeat)
	if state.ContextURI != "" {
		looping := ""
		if state.IsLooping(state.ContextURI) {
			looping = playingStyle.Render(" (looping)")
		}
		fmt.Printf("  %s %s%s\n", labelStyle.Render("source:"), mutedStyle.Render(state.ContextURI), looping)
	}
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
