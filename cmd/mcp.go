package cmd

import (
	"github.com/spf13/cobra"

	foliomcp "github.com/joescharf/folio/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for assistant integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets an assistant read and curate the portfolio directly.
Configure it in your client with:

  {
    "mcpServers": {
      "folio": { "command": "folio", "args": ["mcp"] }
    }
  }

Available tools: folio_list_projects, folio_project_stats, folio_list_repos,
folio_select_repo, folio_toggle_featured, folio_toggle_hidden, folio_share_url`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigStore()
		if err != nil {
			return err
		}
		syncer, err := getSyncer()
		if err != nil {
			return err
		}
		return foliomcp.NewServer(cfg, syncer).ServeStdio(cmdContext(cmd))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
