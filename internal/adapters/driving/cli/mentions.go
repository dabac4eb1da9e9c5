package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
)

var (
	mentionsTop  int
	mentionsJSON bool
	mentionsFrom string
	mentionsTo   string
)

var mentionsCmd = &cobra.Command{
	Use:   "mentions",
	Short: "Score @-mention interactions",
	Long: `Builds the directed @-mention matrix over the archive and reports
ranked mentioners, ranked mentioned members and the pairs classified
as one-way or mutual relationships.`,
	RunE: runMentions,
}

func init() {
	mentionsCmd.Flags().IntVarP(&mentionsTop, "top", "n", 10, "entries per ranked list")
	mentionsCmd.Flags().BoolVar(&mentionsJSON, "json", false, "output stats as JSON")
	mentionsCmd.Flags().StringVar(&mentionsFrom, "from", "", "range start (date, datetime or unix seconds)")
	mentionsCmd.Flags().StringVar(&mentionsTo, "to", "", "range end (date, datetime or unix seconds)")
	rootCmd.AddCommand(mentionsCmd)
}

func runMentions(cmd *cobra.Command, _ []string) error {
	if interactionService == nil {
		return errors.New("interaction service not configured")
	}

	r, err := rangeFromFlags(mentionsFrom, mentionsTo)
	if err != nil {
		return err
	}

	ctx := context.Background()
	stats, err := interactionService.Score(ctx, r)
	if err != nil {
		return fmt.Errorf("mention scoring failed: %w", err)
	}

	if mentionsJSON {
		return outputMentionsJSON(cmd, stats)
	}
	return outputMentionsText(cmd, stats)
}

func outputMentionsJSON(cmd *cobra.Command, stats *domain.MentionStats) error {
	doc := struct {
		MessageCount  int                     `json:"messageCount"`
		TotalMentions int                     `json:"totalMentions"`
		Out           []domain.MentionRank    `json:"out"`
		In            []domain.MentionRank    `json:"in"`
		OneWay        []domain.OneWayRelation `json:"oneWay"`
		Mutual        []domain.MutualRelation `json:"mutual"`
	}{
		MessageCount:  stats.MessageCount,
		TotalMentions: stats.TotalMentions,
		Out:           topRanks(stats.Out, mentionsTop),
		In:            topRanks(stats.In, mentionsTop),
		OneWay:        stats.OneWay,
		Mutual:        stats.Mutual,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputMentionsText(cmd *cobra.Command, stats *domain.MentionStats) error {
	cmd.Printf("Scanned %d messages, %d mentions resolved.\n",
		stats.MessageCount, stats.TotalMentions)

	if stats.TotalMentions == 0 {
		cmd.Println("No mentions found.")
		return nil
	}

	cmd.Println()
	cmd.Println("Top mentioners:")
	for i, r := range topRanks(stats.Out, mentionsTop) {
		cmd.Printf("  [%d] %s - %d (%.0f%%)\n", i+1, r.Name, r.Count, r.Percentage*100)
	}

	cmd.Println()
	cmd.Println("Most mentioned:")
	for i, r := range topRanks(stats.In, mentionsTop) {
		cmd.Printf("  [%d] %s - %d (%.0f%%)\n", i+1, r.Name, r.Count, r.Percentage*100)
	}

	if len(stats.OneWay) > 0 {
		cmd.Println()
		cmd.Println("One-way relations:")
		for _, rel := range stats.OneWay {
			cmd.Printf("  %s -> %s  %d of %d mentions (ratio %.2f)\n",
				rel.From, rel.To, rel.Count, rel.Total, rel.Ratio)
		}
	}

	if len(stats.Mutual) > 0 {
		cmd.Println()
		cmd.Println("Mutual relations:")
		for _, rel := range stats.Mutual {
			cmd.Printf("  %s <-> %s  %d/%d (balance %.2f)\n",
				rel.MemberA, rel.MemberB, rel.AToB, rel.BToA, rel.Balance)
		}
	}
	return nil
}

func topRanks(ranks []domain.MentionRank, n int) []domain.MentionRank {
	if n <= 0 || n >= len(ranks) {
		return ranks
	}
	return ranks[:n]
}
