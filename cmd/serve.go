package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/desarrollo032/airtable-mcp/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio exposing process_natural_language, the context tools and direct Airtable tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(context.Background(), appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "airtable-mcp MCP server started on stdio (storage=%s)\n", a.cfg.Storage.Backend)

		srv := mcpserver.NewServer(a.tool, a.client)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
