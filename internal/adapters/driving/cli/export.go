package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
)

var (
	exportKeywords []string
	exportSenders  []string
	exportSessions []int64
	exportFrom     string
	exportTo       string
	exportContext  int
)

var exportCmd = &cobra.Command{
	Use:   "export [output-file]",
	Short: "Export context blocks to a text file",
	Long: `Runs the same extraction as 'filter' but streams every block to the
given file instead of paginating. The file appears only when the whole
export succeeds; a failed run leaves no partial output behind.

With --session the predicates are ignored and each named session is
exported as one verbatim block.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringSliceVarP(&exportKeywords, "keyword", "k", nil, "keyword to match (repeatable)")
	f.StringSliceVarP(&exportSenders, "sender", "s", nil, "restrict hits to this sender (repeatable)")
	f.Int64SliceVar(&exportSessions, "session", nil, "export these sessions verbatim instead of filtering")
	f.StringVar(&exportFrom, "from", "", "range start (date, datetime or unix seconds)")
	f.StringVar(&exportTo, "to", "", "range end (date, datetime or unix seconds)")
	f.IntVarP(&exportContext, "context", "C", 0, "messages kept on each side of a hit (0 = configured default)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportService == nil {
		return errors.New("export service not configured")
	}

	ctx := context.Background()
	path := args[0]

	var (
		blocks int
		err    error
	)
	if len(exportSessions) > 0 {
		blocks, err = exportService.ExportSessionsFile(ctx, exportSessions, path, progressPrinter(cmd))
	} else {
		var q domain.ContextQuery
		q, err = exportQuery(ctx)
		if err != nil {
			return err
		}
		blocks, err = exportService.ExportFile(ctx, q, path, progressPrinter(cmd))
	}
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	cmd.Printf("Exported %d blocks to %s.\n", blocks, path)
	return nil
}

// exportQuery assembles the predicate query the same way 'filter' does.
func exportQuery(ctx context.Context) (domain.ContextQuery, error) {
	q := domain.ContextQuery{
		Keywords:    exportKeywords,
		ContextSize: exportContext,
	}

	r, err := rangeFromFlags(exportFrom, exportTo)
	if err != nil {
		return q, err
	}
	q.Range = r

	if len(exportSenders) > 0 {
		if contextService == nil {
			return q, errors.New("context service not configured")
		}
		resolved, err := contextService.ResolveMembers(ctx, exportSenders)
		if err != nil {
			return q, fmt.Errorf("resolving senders: %w", err)
		}
		if len(resolved) == 0 {
			return q, fmt.Errorf("%w: no sender matched %v", domain.ErrInvalidInput, exportSenders)
		}
		q.Senders = resolved
	}
	return q, nil
}
