package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/siva673/loop-agent/internal/core"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available playback devices",
	Long:  `Lists the Spotify Connect devices a loop can be started on.`,
	RunE:  runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(true)
	if err != nil {
		return err
	}
	st, err := newStack(logger)
	if err != nil {
		return err
	}

	devices, err := st.service.Devices(context.Background())
	if err != nil {
		return err
	}

	if JSONOutput() {
		if devices == nil {
			devices = []core.Device{}
		}
		return printJSON(os.Stdout, devices)
	}

	if len(devices) == 0 {
		fmt.Println("No devices found. Open Spotify on a phone or computer first.")
		return nil
	}

	table := NewTable("", "NAME", "TYPE", "ID")
	for _, d := range devices {
		name := TruncateString(d.Name, 30)
		if d.IsRestricted {
			name += " (restricted)"
		}
		icon := StatusIcon(d.IsActive)
		if d.IsActive {
			icon = playingStyle.Render(icon)
		}
		table.Row(icon, name, string(d.Type), mutedStyle.Render(d.ID))
	}
	table.Flush()
	return nil
}
