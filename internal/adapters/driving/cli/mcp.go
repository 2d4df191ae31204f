package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mobilemutex/zim-mcp/internal/adapters/driven/watch"
	"github.com/mobilemutex/zim-mcp/internal/adapters/driving/mcp"
	"github.com/mobilemutex/zim-mcp/internal/logger"
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
  - Prometheus metrics on /metrics

Archive files added, replaced or removed while the server runs are picked
up automatically unless --watch=false is given.

Examples:
  # Stdio mode (default, for Claude Desktop)
  zim-mcp mcp serve --dir ~/zim

  # HTTP mode (for MCP Inspector, remote access)
  zim-mcp mcp serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "zim": {
        "command": "/path/to/zim-mcp",
        "args": ["mcp", "serve", "--dir", "/path/to/zim_files"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().Bool("watch", true, "reload archives that change on disk")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	watchDir, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("getting watch flag: %w", err)
	}
	if err := requireServices(); err != nil {
		return err
	}

	ports := &mcp.Ports{
		Archives: archiveService,
		Search:   searchService,
		Content:  contentService,
		Settings: *appSettings,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	archives, err := archiveService.Discover(ctx, true)
	if err != nil {
		logger.Warn("Initial archive discovery: %v", err)
	}
	logger.Info("Archive directory: %s", appSettings.ArchiveDirectory)
	logger.Info("Found %d archive files", len(archives))

	if watchDir && invalidator != nil {
		w, err := watch.New(appSettings.ArchiveDirectory, invalidator)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			logger.Warn("Not watching archive directory: %v", err)
		} else {
			defer w.Close()
		}
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
