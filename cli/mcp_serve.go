package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yoanbernabeu/docdex/config"
	"github.com/yoanbernabeu/docdex/mcp"
)

var mcpServeCmd = &cobra.Command{
	Use:   "mcp-serve [project-path]",
	Short: "Start docdex as an MCP server",
	Long: `Start docdex as an MCP (Model Context Protocol) server.

This allows AI agents to use docdex as a native tool through the MCP
protocol. The server communicates via stdio and exposes the following tools:

  - docdex_catalog_search: Find which document covers a topic (whole-document overviews)
  - docdex_chunks_search: Find specific passages within one tenant
  - docdex_all_chunks_search: Find passages across every tenant, merged by score
  - docdex_status: Report tenant catalog and chunk point counts
  - docdex_sync: Synchronize one tenant's corpus with the index

Arguments:
  project-path  Optional path to the docdex project directory.
                If not provided, searches for .docdex from current directory.

Configuration for Claude Code:
  claude mcp add docdex -- docdex mcp-serve

Configuration for Cursor (.cursor/mcp.json):
  {
    "mcpServers": {
      "docdex": {
        "command": "docdex",
        "args": ["mcp-serve", "/path/to/your/project"]
      }
    }
  }`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMCPServe,
}

func runMCPServe(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		path := args[0]
		if !filepath.IsAbs(path) {
			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("failed to resolve path: %w", err)
			}
			path = abs
		}
		if !config.Exists(path) {
			return fmt.Errorf("no docdex project found at %s (run 'docdex init' first)", path)
		}
		if err := os.Chdir(path); err != nil {
			return fmt.Errorf("failed to enter project directory: %w", err)
		}
	}

	ctx := context.Background()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return mcp.NewServer(a.cfg, a.searcher, a.syncer).Serve()
}
