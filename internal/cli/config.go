package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/siva673/loop-agent/internal/config"
	"github.com/siva673/loop-agent/internal/core"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for viewing and creating the loop-agent configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after defaults and environment overrides.`,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long:  `Create a new configuration file with default values.`,
	RunE:  runConfigInit,
}

var configSetDeviceCmd = &cobra.Command{
	Use:   "set-device",
	Short: "Pick the default playback device",
	Long: `Shows the available Spotify Connect devices and stores the chosen one
as defaults.device. Loops without an "on DEVICE" clause play there when no
device is active.`,
	Args: cobra.NoArgs,
	RunE: runConfigSetDevice,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetDeviceCmd)
	rootCmd.AddCommand(configCmd)
}

// redacted returns a copy of c that is safe to print.
func redacted(c *config.Config) config.Config {
	out := *c
	if out.Spotify.ClientSecret != "" {
		out.Spotify.ClientSecret = "********"
	}
	return out
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	shown := redacted(cfg)
	if JSONOutput() {
		return printJSON(os.Stdout, shown)
	}

	encoder := toml.NewEncoder(os.Stdout)
	encoder.Indent = "  "
	return encoder.Encode(shown)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists at %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(configPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := writeConfig(f, config.Default()); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(os.Stdout, map[string]string{
			"status": "created",
			"path":   configPath,
		})
	}
	fmt.Printf("Created config file: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Set spotify.client_id in the config file or via LOOP_AGENT_SPOTIFY_CLIENT_ID")
	fmt.Println("  2. Run 'loop-agent auth login' to authenticate with Spotify")
	return nil
}

func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "." + config.AppName + "rc"
	}

	return filepath.Join(home, "."+config.AppName+"rc")
}

func writeConfig(w io.Writer, v any) error {
	_, _ = fmt.Fprintln(w, "# loop-agent configuration")
	_, _ = fmt.Fprintln(w, "")

	encoder := toml.NewEncoder(w)
	encoder.Indent = "  "
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// setConfigValue rewrites one section.field of the config file at path,
// keeping every other key as it was.
func setConfigValue(path, section, field string, value any) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("config file not found at %s. Run 'loop-agent config init' first", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	var raw map[string]any
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if raw == nil {
		raw = make(map[string]any)
	}

	sectionMap, ok := raw[section].(map[string]any)
	if !ok {
		sectionMap = make(map[string]any)
		raw[section] = sectionMap
	}
	sectionMap[field] = value

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	defer func() { _ = f.Close() }()

	return writeConfig(f, raw)
}

// deviceOptions builds picker entries keyed by device name, which is what
// defaults.device matches against.
func deviceOptions(devices []core.Device) []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(devices))
	for _, d := range devices {
		label := d.Name
		if d.Type != "" {
			label = fmt.Sprintf("%s (%s)", d.Name, d.Type)
		}
		if d.IsActive {
			label += " [active]"
		}
		if d.IsRestricted {
			label += " [restricted]"
		}
		options = append(options, huh.NewOption(label, d.Name))
	}
	return options
}

func runConfigSetDevice(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(true)
	if err != nil {
		return err
	}
	st, err := newStack(logger)
	if err != nil {
		return err
	}

	if err := st.client.LoadToken(); err != nil {
		return fmt.Errorf("failed to load token: %w", err)
	}
	if !st.client.HasToken() {
		return fmt.Errorf("not authenticated. Run 'loop-agent auth login' first")
	}

	devices, err := st.service.Devices(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get devices: %w", err)
	}
	if len(devices) == 0 {
		return fmt.Errorf("no devices found. Make sure Spotify is open on at least one device")
	}

	var name string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select default device").
				Description("Used when a loop names no device and none is active").
				Options(deviceOptions(devices)...).
				Value(&name),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("selection cancelled: %w", err)
	}

	configPath := getConfigPath()
	if err := setConfigValue(configPath, "defaults", "device", name); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(os.Stdout, map[string]string{
			"status": "updated",
			"key":    "defaults.device",
			"value":  name,
		})
	}
	fmt.Printf("Set defaults.device = %s\n", name)
	return nil
}
