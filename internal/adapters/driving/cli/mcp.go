package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chatlens-labs/chatlens-cli/internal/adapters/driven/watch"
	"github.com/chatlens-labs/chatlens-cli/internal/adapters/driving/mcp"
	"github.com/chatlens-labs/chatlens-cli/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --port to start an HTTP server instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Examples:
  # Stdio mode (default, for Claude Desktop)
  chatlens mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  chatlens mcp serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "chatlens": {
        "command": "/path/to/chatlens",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports := &mcp.Ports{
		Context:       contextService,
		Segmentation:  segmentationService,
		Relationships: relationshipService,
		Stats:         statsService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// A long-lived server must notice imports done by other chatlens
	// processes, so stale in-flight analyses get superseded when the
	// archive file changes under it.
	if archiveStore != nil {
		w, werr := watch.NewArchiveWatcher(archiveStore.Path())
		if werr != nil {
			logger.Warn("Archive watching disabled: %v", werr)
		} else {
			defer w.Close()
			go func() {
				if err := w.Watch(ctx, requestSeq.Bump); err != nil && !errors.Is(err, context.Canceled) {
					logger.Warn("Archive watcher stopped: %v", err)
				}
			}()
		}
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
