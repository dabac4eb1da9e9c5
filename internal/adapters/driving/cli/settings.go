package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage analysis settings",
	Long: `Shows or changes the persisted analysis settings. Values are stored
in the config file and apply to every command; most can also be
overridden per run with flags.`,
	RunE: runSettingsList,
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show current settings",
	RunE:  runSettingsList,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set one setting by dotted key",
	Long:  `Sets a setting, e.g. 'chatlens settings set graph.mention_weight 0.7'. Run 'chatlens settings' to see the recognised keys.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset [key]",
	Short: "Reset one setting, or all of them, to defaults",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSettingsReset,
}

func init() {
	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsList(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	s, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings failed: %w", err)
	}

	cmd.Println("[segmentation]")
	printSetting(cmd, "segmentation.gap_seconds", s.Segmentation.GapSeconds)
	cmd.Println()

	cmd.Println("[graph]")
	printSetting(cmd, "graph.mention_weight", s.Graph.MentionWeight)
	printSetting(cmd, "graph.temporal_weight", s.Graph.TemporalWeight)
	printSetting(cmd, "graph.reciprocity_weight", s.Graph.ReciprocityWeight)
	printSetting(cmd, "graph.decay_seconds", s.Graph.DecaySeconds)
	printSetting(cmd, "graph.window_seconds", s.Graph.WindowSeconds)
	printSetting(cmd, "graph.look_ahead", s.Graph.LookAhead)
	printSetting(cmd, "graph.min_score", s.Graph.MinScore)
	printSetting(cmd, "graph.min_temporal_turns", s.Graph.MinTemporalTurns)
	printSetting(cmd, "graph.top_edges", s.Graph.TopEdges)
	cmd.Println()

	cmd.Println("[context]")
	printSetting(cmd, "context.size", s.Context.Size)
	printSetting(cmd, "context.page_size", s.Context.PageSize)

	if configStore != nil {
		cmd.Println()
		cmd.Printf("Config file: %s\n", configStore.Path())
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		if strings.Contains(err.Error(), "unknown setting") {
			return fmt.Errorf("%w\nRecognised keys:\n  %s",
				err, strings.Join(settingsService.Keys(), "\n  "))
		}
		return err
	}

	cmd.Printf("Set %s = %s.\n", key, value)
	return nil
}

func runSettingsReset(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if len(args) == 0 {
		if err := settingsService.Reset(""); err != nil {
			return err
		}
		cmd.Println("Reset all settings to defaults.")
		return nil
	}

	if err := settingsService.Reset(args[0]); err != nil {
		return err
	}
	cmd.Printf("Reset %s to its default.\n", args[0])
	return nil
}

// printSetting renders one key = value line, floats with two decimals.
func printSetting(cmd *cobra.Command, key string, value any) {
	switch v := value.(type) {
	case float64:
		cmd.Printf("  %-26s = %.2f\n", key, v)
	default:
		cmd.Printf("  %-26s = %v\n", key, v)
	}
}
