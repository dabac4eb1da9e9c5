package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statsAsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show archive statistics",
	Long:  `Prints message, member and session counts, the archive time span and the most active speakers.`,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsAsJSON, "json", false, "output statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if statsService == nil {
		return errors.New("stats service not configured")
	}

	ctx := context.Background()
	stats, err := statsService.Archive(ctx)
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	if statsAsJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if stats.MessageCount == 0 {
		cmd.Println("Archive is empty. Run 'chatlens import' first.")
		return nil
	}

	cmd.Printf("Messages: %d\n", stats.MessageCount)
	cmd.Printf("Members:  %d\n", stats.MemberCount)
	cmd.Printf("Sessions: %d\n", stats.SessionCount)
	cmd.Printf("Span:     %s - %s\n", formatTs(stats.Span.From), formatTs(stats.Span.To))
	if len(stats.TopSpeakers) > 0 {
		cmd.Println("Top speakers:")
		for i, s := range stats.TopSpeakers {
			name := s.Name
			if name == "" {
				name = s.MemberID
			}
			cmd.Printf("  [%d] %s - %d messages\n", i+1, name, s.Count)
		}
	}
	return nil
}
