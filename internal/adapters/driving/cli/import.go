package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import an interchange document into the archive",
	Long: `Imports a chat interchange document into the local archive.

The input is a JSON document with a "messages" array (and optional
"members"), or a JSONL stream with one message object per line.
Millisecond timestamps are converted to seconds, authors without a
member record are promoted to members, and re-imported message ids
overwrite the stored rows.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if importService == nil {
		return errors.New("import service not configured")
	}

	path := args[0]
	ctx := context.Background()

	result, err := importService.ImportFile(ctx, path, progressPrinter(cmd))
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	cmd.Printf("Imported %d messages from %d members (batch %s).\n",
		result.Messages, result.Members, result.BatchID)
	if result.Converted > 0 {
		cmd.Printf("Converted %d millisecond timestamps to seconds.\n", result.Converted)
	}
	cmd.Println("Run 'chatlens sessions generate' to rebuild the session partition.")
	return nil
}
