package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/siva673/loop-agent/internal/command"
)

var parseCmd = &cobra.Command{
	Use:   "parse <command>",
	Short: "Show how a play command is understood",
	Long:  `Parses a play command without contacting Spotify and prints the titles, device and stop time.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	now := time.Now().In(cfg.Defaults.Location())

	intent, err := command.Parse(commandArg(args), now)
	if err != nil {
		return err
	}
	if intent.Device.UsesActive() && cfg.Defaults.Device != "" {
		intent.Device.Name = cfg.Defaults.Device
	}

	if JSONOutput() {
		return printJSON(os.Stdout, intent)
	}
	writeIntent(os.Stdout, intent, now)
	return nil
}
