package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// sessionsGap is a flag for the generate command.
var sessionsGap int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage the session partition",
	Long: `Sessions are maximal runs of messages with no silence longer than
the configured gap. Generating replaces the whole partition; annotate
attaches a note to a single session.`,
	RunE: runSessionsList,
}

var sessionsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Rebuild sessions from the archive",
	RunE:  runSessionsGenerate,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions",
	RunE:  runSessionsList,
}

var sessionsAnnotateCmd = &cobra.Command{
	Use:   "annotate [session-id] [summary]",
	Short: "Attach a summary to a session",
	Args:  cobra.ExactArgs(2),
	RunE:  runSessionsAnnotate,
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored session partition",
	RunE:  runSessionsClear,
}

func init() {
	sessionsGenerateCmd.Flags().IntVarP(&sessionsGap, "gap", "g", 0, "session gap in seconds (0 = configured default)")

	sessionsCmd.AddCommand(sessionsGenerateCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsAnnotateCmd)
	sessionsCmd.AddCommand(sessionsClearCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsGenerate(cmd *cobra.Command, _ []string) error {
	if segmentationService == nil {
		return errors.New("segmentation service not configured")
	}

	ctx := context.Background()
	count, err := segmentationService.Generate(ctx, sessionsGap, progressPrinter(cmd))
	if err != nil {
		return fmt.Errorf("session generation failed: %w", err)
	}

	cmd.Printf("Generated %d sessions.\n", count)
	return nil
}

func runSessionsList(cmd *cobra.Command, _ []string) error {
	if segmentationService == nil {
		return errors.New("segmentation service not configured")
	}

	ctx := context.Background()
	sessions, err := segmentationService.Sessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		cmd.Println("No sessions stored. Run 'chatlens sessions generate' first.")
		return nil
	}

	cmd.Println("Sessions:")
	cmd.Println()
	for i := range sessions {
		s := &sessions[i]
		cmd.Printf("  [%d] %s - %s  (%d messages)\n",
			s.ID, formatTs(s.StartTs), formatTs(s.EndTs), s.MessageCount)
		if s.Summary != "" {
			cmd.Printf("      %s\n", s.Summary)
		}
	}
	cmd.Println()
	cmd.Printf("Total: %d sessions\n", len(sessions))
	return nil
}

func runSessionsAnnotate(cmd *cobra.Command, args []string) error {
	if segmentationService == nil {
		return errors.New("segmentation service not configured")
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid session id %q", args[0])
	}

	ctx := context.Background()
	if err := segmentationService.Annotate(ctx, id, args[1]); err != nil {
		return fmt.Errorf("failed to annotate session: %w", err)
	}

	cmd.Printf("Annotated session %d.\n", id)
	return nil
}

func runSessionsClear(cmd *cobra.Command, _ []string) error {
	if segmentationService == nil {
		return errors.New("segmentation service not configured")
	}

	ctx := context.Background()
	if err := segmentationService.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}

	cmd.Println("Session partition cleared.")
	return nil
}
