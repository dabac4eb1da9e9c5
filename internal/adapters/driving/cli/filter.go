package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
)

var (
	filterKeywords []string
	filterSenders  []string
	filterSessions []int64
	filterFrom     string
	filterTo       string
	filterContext  int
	filterPage     int
	filterPageSize int
	filterAsJSON   bool
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Extract context blocks around matching messages",
	Long: `Finds messages matching the given predicates, expands each hit to a
surrounding window and merges overlapping windows into context blocks.
Keywords combine as OR, different predicate kinds as AND. Senders may
be given as ids, display names or aliases.

With --session the predicates are ignored and each named session is
returned as one verbatim block. Blocks are paginated; pass --page to
walk through them.`,
	RunE: runFilter,
}

func init() {
	f := filterCmd.Flags()
	f.StringSliceVarP(&filterKeywords, "keyword", "k", nil, "keyword to match (repeatable)")
	f.StringSliceVarP(&filterSenders, "sender", "s", nil, "restrict hits to this sender (repeatable)")
	f.Int64SliceVar(&filterSessions, "session", nil, "return these sessions verbatim instead of filtering")
	f.StringVar(&filterFrom, "from", "", "range start (date, datetime or unix seconds)")
	f.StringVar(&filterTo, "to", "", "range end (date, datetime or unix seconds)")
	f.IntVarP(&filterContext, "context", "C", 0, "messages kept on each side of a hit (0 = configured default)")
	f.IntVarP(&filterPage, "page", "p", 1, "page to return")
	f.IntVar(&filterPageSize, "page-size", 0, "blocks per page (0 = configured default)")
	f.BoolVar(&filterAsJSON, "json", false, "output the page as JSON")
	rootCmd.AddCommand(filterCmd)
}

func runFilter(cmd *cobra.Command, _ []string) error {
	if contextService == nil {
		return errors.New("context service not configured")
	}

	ctx := context.Background()
	page := domain.PageRequest{Page: filterPage, PageSize: filterPageSize}

	var (
		result *domain.ContextResult
		err    error
	)
	if len(filterSessions) > 0 {
		result, err = contextService.SessionsContext(ctx, filterSessions, page)
	} else {
		var q domain.ContextQuery
		q, err = filterQuery(ctx)
		if err != nil {
			return err
		}
		result, err = contextService.FilterWithContext(ctx, q, page)
	}
	if err != nil {
		return fmt.Errorf("context extraction failed: %w", err)
	}

	if filterAsJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	return outputContextText(cmd, result)
}

// filterQuery assembles the predicate query, resolving sender names
// and aliases to member ids first.
func filterQuery(ctx context.Context) (domain.ContextQuery, error) {
	q := domain.ContextQuery{
		Keywords:    filterKeywords,
		ContextSize: filterContext,
	}

	r, err := rangeFromFlags(filterFrom, filterTo)
	if err != nil {
		return q, err
	}
	q.Range = r

	if len(filterSenders) > 0 {
		resolved, err := contextService.ResolveMembers(ctx, filterSenders)
		if err != nil {
			return q, fmt.Errorf("resolving senders: %w", err)
		}
		if len(resolved) == 0 {
			return q, fmt.Errorf("%w: no sender matched %v", domain.ErrInvalidInput, filterSenders)
		}
		q.Senders = resolved
	}
	return q, nil
}

func outputContextText(cmd *cobra.Command, result *domain.ContextResult) error {
	p := result.Pagination
	if len(result.Blocks) == 0 {
		cmd.Println("No matches.")
		return nil
	}

	for i := range result.Blocks {
		printBlock(cmd, &result.Blocks[i], (p.Page-1)*p.PageSize+i+1, p.TotalBlocks)
	}

	cmd.Printf("Page %d, blocks %d of %d, hits %d.",
		p.Page, len(result.Blocks), p.TotalBlocks, p.TotalHits)
	if p.HasMore {
		cmd.Printf(" Use --page %d for more.", p.Page+1)
	}
	cmd.Println()

	if result.Stats.TotalMessages > 0 {
		qualifier := ""
		if result.Stats.Estimated {
			qualifier = " (estimated)"
		}
		cmd.Printf("Content: %d messages, %d characters%s.\n",
			result.Stats.TotalMessages, result.Stats.TotalChars, qualifier)
	}
	return nil
}

// printBlock renders one context block in the export layout: header,
// one line per message, reply previews indented.
func printBlock(cmd *cobra.Command, block *domain.ContextBlock, index, total int) {
	header := fmt.Sprintf("=== Block %d/%d | %s - %s | %d messages",
		index, total, formatTs(block.StartTs), formatTs(block.EndTs), len(block.Messages))
	if block.HitCount > 0 {
		header += fmt.Sprintf(", %d hits", block.HitCount)
	}
	cmd.Println(header + " ===")

	for i := range block.Messages {
		m := &block.Messages[i]
		name := m.SenderName
		if name == "" {
			name = m.SenderID
		}
		clock := time.Unix(m.Timestamp, 0).UTC().Format("15:04:05")
		cmd.Printf("[%s] %s: %s\n", clock, name, m.Content)
		if m.ReplyPreview != "" {
			cmd.Printf("    > in reply to: %s\n", m.ReplyPreview)
		}
	}
	cmd.Println()
}
