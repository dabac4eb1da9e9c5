// Package cli implements the chatlens command line interface.
//
// Commands reach their services through package-level variables wired
// on first run. Tests install doubles and set wired to keep the real
// stores out of the test environment.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chatlens-labs/chatlens-cli/internal/adapters/driven/config/file"
	"github.com/chatlens-labs/chatlens-cli/internal/adapters/driven/storage/sqlite"
	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driven"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driving"
	"github.com/chatlens-labs/chatlens-cli/internal/core/services"
	"github.com/chatlens-labs/chatlens-cli/internal/logger"
	"github.com/chatlens-labs/chatlens-cli/internal/normalisers/chatlog"
)

// version and commit are overridden at release time via -ldflags.
var (
	version = "0.1.0-dev"
	commit  = ""
)

// Persistent flags.
var (
	dataDir string
	verbose bool
)

var (
	wired bool

	importService       driving.ImportService
	segmentationService driving.SegmentationService
	interactionService  driving.InteractionService
	relationshipService driving.RelationshipService
	contextService      driving.ContextService
	exportService       driving.ExportService
	settingsService     driving.SettingsService
	statsService        driving.StatsService

	configStore  driven.ConfigStore
	archiveStore *sqlite.Store
	requestSeq   *services.RequestSeq
)

var rootCmd = &cobra.Command{
	Use:   "chatlens",
	Short: "Chat archive analytics",
	Long: `Chatlens turns exported chat logs into sessions, mention statistics,
relationship graphs and shareable context excerpts.

Import an interchange document first, then analyse it:

  chatlens import export.json
  chatlens sessions generate
  chatlens graph --json graph.json`,
	SilenceUsage:      true,
	PersistentPreRunE: wireServices,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "archive directory (default ~/.chatlens/data)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the CLI and releases the archive handle afterwards.
func Execute() error {
	defer closeArchive()
	return rootCmd.Execute()
}

// wireServices builds the production service set once flags are
// parsed. The import command creates the archive; every other command
// opens it read-style and degrades to empty results when it is absent.
func wireServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if wired {
		return nil
	}

	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	configStore = cfg
	settingsService = services.NewSettingsService(cfg)

	if cmd.Name() == "import" {
		archiveStore, err = sqlite.NewStore(dataDir)
	} else {
		archiveStore, err = sqlite.OpenStore(dataDir)
		if errors.Is(err, domain.ErrArchiveUnavailable) {
			logger.Debug("No archive yet: %v", err)
			archiveStore, err = nil, nil
		}
	}
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}

	var (
		messages driven.MessageStore = unavailableStore{}
		sessions driven.SessionStore = unavailableStore{}
	)
	if archiveStore != nil {
		messages = archiveStore.MessageStore()
		sessions = archiveStore.SessionStore()
	}

	requestSeq = services.NewRequestSeq()
	importService = services.NewImportService(messages, chatlog.New(), requestSeq)
	segmentationService = services.NewSegmentationService(messages, sessions, settingsService, requestSeq)
	interactionService = services.NewInteractionService(messages, requestSeq)
	temporal := services.NewTemporalService(messages, requestSeq)
	relationshipService = services.NewGraphService(messages, interactionService, temporal)
	contextService = services.NewContextService(messages, sessions, settingsService, requestSeq)
	exportService = services.NewExportService(messages, sessions, settingsService, requestSeq)
	statsService = services.NewStatsService(messages, sessions)

	wired = true
	return nil
}

func closeArchive() {
	if archiveStore == nil {
		return
	}
	if err := archiveStore.Close(); err != nil {
		logger.Warn("Closing archive: %v", err)
	}
	archiveStore = nil
}

// Helper functions.

// progressPrinter renders progress events on one rewritten line, but
// only when stdout is a terminal; piped output stays clean.
func progressPrinter(cmd *cobra.Command) domain.ProgressFunc {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return nil
	}
	return func(p domain.Progress) {
		switch p.Stage {
		case domain.StageError:
			cmd.Println()
		case domain.StageDone:
			cmd.Printf("\r%s          \n", p.Message)
		default:
			if p.Total > 0 {
				cmd.Printf("\r%s %d/%d (%.0f%%)", p.Stage, p.Done, p.Total, p.Percent)
			} else {
				cmd.Printf("\r%s %d", p.Stage, p.Done)
			}
		}
	}
}

// parseTimeFlag accepts a date, a date-time or raw Unix seconds.
func parseTimeFlag(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	if ts, err := strconv.ParseInt(value, 10, 64); err == nil {
		return ts, nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, fmt.Errorf("%w: unrecognised time %q", domain.ErrInvalidInput, value)
}

// rangeFromFlags builds the optional time range shared by the
// analysis commands. Both sides empty means no range.
func rangeFromFlags(from, to string) (*domain.TimeRange, error) {
	fromTs, err := parseTimeFlag(from)
	if err != nil {
		return nil, err
	}
	toTs, err := parseTimeFlag(to)
	if err != nil {
		return nil, err
	}
	if fromTs == 0 && toTs == 0 {
		return nil, nil
	}
	return &domain.TimeRange{From: fromTs, To: toTs}, nil
}

// formatTs renders an archive timestamp for display.
func formatTs(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04:05")
}
